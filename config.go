package bindcheck

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/platformlab/bindcheck/flags"
)

// Config holds the application configuration
type Config struct {
	PlatformsDir     string        // Root of platform-version directories
	ManifestFile     string        // Check manifest path
	CompilerPath     string        // Bindings compiler executable
	GeneratorPath    string        // Binding generator executable
	Launcher         string        // Emulator launcher executable
	LibDir           string        // Support archive directory
	CheckDir         string        // Directory check sources are resolved against
	OutDir           string        // Destination for compiled bindings archives
	LogDir           string        // Directory for per-run check logs
	FixtureDir       string        // Emulator manifest/resources/assets root
	RunInterval      time.Duration // Interval between check runs
	RunOnce          bool          // Whether the service exits after one run
	DiagnosticMarker string        // Compiler diagnostic marker override
	Log              log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	absPaths := map[string]string{
		"platforms": ctx.String(flags.PlatformsDir.Name),
		"manifest":  ctx.String(flags.Manifest.Name),
		"libdir":    ctx.String(flags.LibDir.Name),
		"outdir":    ctx.String(flags.OutDir.Name),
		"logdir":    ctx.String(flags.LogDir.Name),
		"fixtures":  ctx.String(flags.FixtureDir.Name),
	}
	for name, path := range absPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for %s '%s': %w", name, path, err)
		}
		absPaths[name] = abs
	}

	checkDir := ctx.String(flags.CheckDir.Name)
	if checkDir != "" {
		var err error
		checkDir, err = filepath.Abs(checkDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for checkdir: %w", err)
		}
	}

	return &Config{
		PlatformsDir:     absPaths["platforms"],
		ManifestFile:     absPaths["manifest"],
		CompilerPath:     ToolPath(ctx.String(flags.Compiler.Name)),
		GeneratorPath:    ToolPath(ctx.String(flags.Generator.Name)),
		Launcher:         ctx.String(flags.Launcher.Name),
		LibDir:           absPaths["libdir"],
		CheckDir:         checkDir,
		OutDir:           absPaths["outdir"],
		LogDir:           absPaths["logdir"],
		FixtureDir:       absPaths["fixtures"],
		RunInterval:      runInterval,
		RunOnce:          runOnce,
		DiagnosticMarker: ctx.String(flags.DiagnosticMarker.Name),
		Log:              log,
	}, nil
}

// ToolPath appends the platform-dependent executable extension to a
// toolchain path that lacks one.
func ToolPath(path string) string {
	if runtime.GOOS == "windows" && filepath.Ext(path) == "" {
		return path + ".bat"
	}
	return path
}

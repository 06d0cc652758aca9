package bindings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/platformlab/bindcheck/metrics"
	"github.com/platformlab/bindcheck/platform"
	"github.com/platformlab/bindcheck/proc"
	"github.com/platformlab/bindcheck/types"
)

// DefaultExcludedSources lists generated sources never compiled into a
// version archive. The interface-workaround file is generated for the
// emulator's reflection shims only; excluding it is a known policy, not a
// defect, and can be overridden through Config.ExcludeSources.
var DefaultExcludedSources = []string{"InterfaceWorkarounds.java"}

// Config holds configuration for creating a version compiler
type Config struct {
	Log          log.Logger
	Runner       *proc.Runner
	Generator    Generator
	Cache        *Cache
	CompilerPath string
	OutDir       string // destination directory for per-version archives
	// ExcludeSources overrides DefaultExcludedSources when non-nil.
	ExcludeSources []string
}

// Compiler compiles the generated bindings of platform versions into cached
// archives.
type Compiler struct {
	cfg Config
}

// NewCompiler creates a new version compiler
func NewCompiler(cfg Config) (*Compiler, error) {
	if cfg.Runner == nil {
		return nil, errors.New("process runner is required")
	}
	if cfg.Generator == nil {
		return nil, errors.New("binding generator is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("artifact cache is required")
	}
	if cfg.CompilerPath == "" {
		return nil, errors.New("compiler path is required")
	}
	if cfg.OutDir == "" {
		return nil, errors.New("output directory is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.ExcludeSources == nil {
		cfg.ExcludeSources = DefaultExcludedSources
	}
	return &Compiler{cfg: cfg}, nil
}

// Setup compiles bindings for every version not yet cached. It fails fast if
// the compiler executable is missing and aborts on the first version that
// does not compile cleanly: a partially populated cache would let later
// checks run against versions that never built. Fully cached versions are
// skipped, so calling Setup again is a no-op.
func (c *Compiler) Setup(ctx context.Context, versions []platform.Version) error {
	if _, err := os.Stat(c.cfg.CompilerPath); err != nil {
		return fmt.Errorf("compiler executable %s: %w", c.cfg.CompilerPath, err)
	}
	if err := os.MkdirAll(c.cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("creating archive directory %s: %w", c.cfg.OutDir, err)
	}

	for _, version := range versions {
		if archive, ok := c.cfg.Cache.Artifact(version.Dir); ok {
			c.cfg.Log.Debug("Bindings already compiled", "platform", version.Name, "archive", archive)
			metrics.RecordCacheHit(version.Name)
			continue
		}
		if err := c.compileVersion(ctx, version); err != nil {
			return fmt.Errorf("compiling bindings for %s: %w", version.Name, err)
		}
	}
	return nil
}

// compileVersion generates the binding sources for one version and compiles
// them into a single archive registered in the cache.
func (c *Compiler) compileVersion(ctx context.Context, version platform.Version) error {
	start := time.Now()

	archives, err := version.Archives()
	if err != nil {
		return err
	}

	srcDir, err := os.MkdirTemp("", "bindings-src-")
	if err != nil {
		return fmt.Errorf("creating source directory: %w", err)
	}
	defer c.removeSourceDir(srcDir)

	sources, err := c.cfg.Generator.Generate(ctx, Request{
		Revision:       version.Revision,
		Version:        version.Version,
		Archives:       archives,
		OutDir:         srcDir,
		ExcludeSources: c.cfg.ExcludeSources,
	})
	if err != nil {
		return fmt.Errorf("generating bindings: %w", err)
	}

	if len(sources) == 0 {
		return errors.New("generator produced no sources")
	}

	outArchive := filepath.Join(c.cfg.OutDir, version.Name+".jar")
	argv := []string{c.cfg.CompilerPath,
		"-d", outArchive,
		"-classpath", platform.Classpath(archives).Join(),
	}
	argv = append(argv, sources...)

	res, err := c.cfg.Runner.Run(ctx, argv, proc.ModeCompiler)
	if err != nil {
		return err
	}
	if res.Diagnostics != "" || res.ExitCode != 0 {
		metrics.RecordCompilation(version.Name, types.CheckStatusFail)
		return fmt.Errorf("compiler exited %d:\n%s", res.ExitCode, res.Diagnostics)
	}
	metrics.RecordCompilation(version.Name, types.CheckStatusPass)

	c.cfg.Log.Info("Compiled platform bindings",
		"platform", version.Name,
		"archive", outArchive,
		"sources", len(sources),
		"duration", time.Since(start))

	return c.cfg.Cache.Register(version.Dir, outArchive)
}

// removeSourceDir deletes the generated source directory, excluded files
// included; runs on every exit path of compileVersion.
func (c *Compiler) removeSourceDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		c.cfg.Log.Warn("Failed to remove generated sources", "dir", dir, "err", err)
	}
}

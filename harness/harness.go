// Package harness compiles acceptance-check sources against cached platform
// bindings and executes them under the runtime-emulation launcher.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"

	"github.com/platformlab/bindcheck/bindings"
	"github.com/platformlab/bindcheck/platform"
	"github.com/platformlab/bindcheck/proc"
)

// Support archives resolved under Config.LibDir.
const (
	// RuntimeSupportArchive backs the emulated runtime itself.
	RuntimeSupportArchive = "emulator-runtime.jar"
	// HarnessSupportArchive carries the check-runner infrastructure.
	HarnessSupportArchive = "check-harness.jar"
	// AnnotationsSupportArchive carries the check annotations.
	AnnotationsSupportArchive = "check-annotations.jar"
)

// DefaultRunnerClass is the emulator-side entry point driving a test class.
const DefaultRunnerClass = "com.platformlab.emulator.CheckRunner"

// DefaultLauncher starts the emulation harness.
const DefaultLauncher = "java"

// DiagnosticError is a failed compile or emulator run carrying the captured
// diagnostic text.
type DiagnosticError struct {
	Op          string
	ExitCode    int
	Diagnostics string
}

func (e *DiagnosticError) Error() string {
	return fmt.Sprintf("%s exited %d:\n%s", e.Op, e.ExitCode, e.Diagnostics)
}

// Config holds configuration for creating a harness
type Config struct {
	Log          log.Logger
	Runner       *proc.Runner
	Cache        *bindings.Cache
	CompilerPath string
	Launcher     string // emulator launcher; DefaultLauncher when empty
	RunnerClass  string // emulator entry class; DefaultRunnerClass when empty
	LibDir       string // directory holding the fixed support archives
	WorkDir      string // directory for disposable check archives; os.TempDir when empty

	// Emulator environment, passed down as system properties.
	DependencyDir string
	ManifestPath  string
	ResourcesDir  string
	AssetsDir     string
}

// Harness drives per-check compilation and emulator execution
type Harness struct {
	cfg Config
}

// New creates a new check harness
func New(cfg Config) (*Harness, error) {
	if cfg.Runner == nil {
		return nil, errors.New("process runner is required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("artifact cache is required")
	}
	if cfg.CompilerPath == "" {
		return nil, errors.New("compiler path is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.Launcher == "" {
		cfg.Launcher = DefaultLauncher
	}
	if cfg.RunnerClass == "" {
		cfg.RunnerClass = DefaultRunnerClass
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &Harness{cfg: cfg}, nil
}

// Compile builds a single check source against the cached bindings archive of
// the given platform version, plus any extra dependency archives, and returns
// the path of the freshly produced archive. The caller owns its deletion.
func (h *Harness) Compile(ctx context.Context, src string, version platform.Version, extra ...string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("check source %s: %w", src, err)
	}
	artifact, ok := h.cfg.Cache.Artifact(version.Dir)
	if !ok {
		return "", fmt.Errorf("no cached bindings archive for %s", version.Name)
	}
	archives, err := version.Archives()
	if err != nil {
		return "", err
	}
	classpath := platform.Classpath(archives).Append(artifact).Append(extra...)

	outFile, err := os.CreateTemp(h.cfg.WorkDir, "check-*.jar")
	if err != nil {
		return "", fmt.Errorf("creating check archive: %w", err)
	}
	out := outFile.Name()
	if err := outFile.Close(); err != nil {
		return "", err
	}

	argv := []string{h.cfg.CompilerPath,
		"-d", out,
		"-classpath", classpath.Join(),
		src,
	}
	res, err := h.cfg.Runner.Run(ctx, argv, proc.ModeCompiler)
	if err != nil {
		h.remove(out)
		return "", err
	}
	if res.Diagnostics != "" || res.ExitCode != 0 {
		h.remove(out)
		return "", &DiagnosticError{Op: "check compile", ExitCode: res.ExitCode, Diagnostics: res.Diagnostics}
	}
	return out, nil
}

// RunCompileCheck validates that src compiles against the platform bindings
// and discards the resulting archive.
func (h *Harness) RunCompileCheck(ctx context.Context, src string, version platform.Version, extra ...string) error {
	out, err := h.Compile(ctx, src, version, extra...)
	if err != nil {
		return err
	}
	h.remove(out)
	return nil
}

// RunEmulatorCheck compiles src together with the harness support archives
// and any extra dependency archives, then executes the given test class
// under the emulation launcher. A non-empty diagnostic stream or a non-zero
// launcher exit fails the check. The disposable check archive is removed on
// every exit path.
func (h *Harness) RunEmulatorCheck(ctx context.Context, src string, version platform.Version, class string, extra ...string) error {
	if class == "" {
		return errors.New("emulator test class is required")
	}
	support := []string{
		filepath.Join(h.cfg.LibDir, HarnessSupportArchive),
		filepath.Join(h.cfg.LibDir, AnnotationsSupportArchive),
	}
	out, err := h.Compile(ctx, src, version, append(support, extra...)...)
	if err != nil {
		return err
	}
	defer h.remove(out)

	artifact, ok := h.cfg.Cache.Artifact(version.Dir)
	if !ok {
		return fmt.Errorf("no cached bindings archive for %s", version.Name)
	}
	classpath := platform.Classpath{
		artifact,
		out,
		filepath.Join(h.cfg.LibDir, RuntimeSupportArchive),
	}.Append(support...).Append(extra...)

	argv := []string{h.cfg.Launcher, "-cp", classpath.Join()}
	argv = append(argv, h.properties()...)
	argv = append(argv, h.cfg.RunnerClass, class)

	res, err := h.cfg.Runner.Run(ctx, argv, proc.ModeTool)
	if err != nil {
		return err
	}
	if res.Diagnostics != "" || res.ExitCode != 0 {
		diag := res.Diagnostics
		if diag == "" {
			diag = res.Output
		}
		return &DiagnosticError{Op: "emulator run", ExitCode: res.ExitCode, Diagnostics: diag}
	}
	h.cfg.Log.Debug("Emulator check finished", "class", class)
	return nil
}

// properties renders the fixed emulator system properties.
func (h *Harness) properties() []string {
	return []string{
		"-Demulator.offline=true",
		"-Demulator.dependency.dir=" + h.cfg.DependencyDir,
		"-Demulator.manifest=" + h.cfg.ManifestPath,
		"-Demulator.resources=" + h.cfg.ResourcesDir,
		"-Demulator.assets=" + h.cfg.AssetsDir,
	}
}

func (h *Harness) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.cfg.Log.Warn("Failed to remove check archive", "path", path, "err", err)
	}
}

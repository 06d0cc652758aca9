// Package bindcheck wires the platform-bindings acceptance checker: it
// discovers platform versions, compiles and caches their bindings archives,
// and drives the configured acceptance checks against them.
package bindcheck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/platformlab/bindcheck/bindings"
	"github.com/platformlab/bindcheck/exitcodes"
	"github.com/platformlab/bindcheck/harness"
	"github.com/platformlab/bindcheck/platform"
	"github.com/platformlab/bindcheck/proc"
	"github.com/platformlab/bindcheck/registry"
	"github.com/platformlab/bindcheck/runner"
	"github.com/platformlab/bindcheck/types"
)

// Fixture entries resolved under Config.FixtureDir.
const (
	fixtureManifest  = "Manifest.xml"
	fixtureResources = "res"
	fixtureAssets    = "assets"
	fixtureDeps      = "deps"
)

// Checker is the bindings acceptance checker service.
type Checker struct {
	ctx       context.Context
	config    *Config
	version   string
	registry  *registry.Registry
	platforms []platform.Version
	runner    runner.CheckRunner
	result    *runner.RunnerResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a new Checker from config.
func New(ctx context.Context, config *Config, version string) (*Checker, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating checker with config",
		"platformsDir", config.PlatformsDir,
		"manifest", config.ManifestFile,
		"compiler", config.CompilerPath,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	platforms, err := platform.Discover(config.PlatformsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to discover platform versions: %w", err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("no platform versions found under %s", config.PlatformsDir)
	}

	procRunner := proc.NewRunner(proc.Config{
		Log:    config.Log,
		Marker: config.DiagnosticMarker,
	})
	cache := bindings.NewCache()

	versionCompiler, err := bindings.NewCompiler(bindings.Config{
		Log:    config.Log,
		Runner: procRunner,
		Generator: &bindings.ExecGenerator{
			Log:    config.Log,
			Runner: procRunner,
			Path:   config.GeneratorPath,
		},
		Cache:        cache,
		CompilerPath: config.CompilerPath,
		OutDir:       config.OutDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bindings compiler: %w", err)
	}

	checkHarness, err := harness.New(harness.Config{
		Log:           config.Log,
		Runner:        procRunner,
		Cache:         cache,
		CompilerPath:  config.CompilerPath,
		Launcher:      config.Launcher,
		LibDir:        config.LibDir,
		DependencyDir: filepath.Join(config.FixtureDir, fixtureDeps),
		ManifestPath:  filepath.Join(config.FixtureDir, fixtureManifest),
		ResourcesDir:  filepath.Join(config.FixtureDir, fixtureResources),
		AssetsDir:     filepath.Join(config.FixtureDir, fixtureAssets),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create harness: %w", err)
	}

	reg, err := registry.NewRegistry(registry.Config{
		Log:          config.Log,
		ManifestFile: config.ManifestFile,
		SourceDir:    config.CheckDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	checkRunner, err := runner.NewCheckRunner(runner.Config{
		Registry:  reg,
		Platforms: platforms,
		Bindings:  versionCompiler,
		Harness:   checkHarness,
		Log:       config.Log,
		LogDir:    config.LogDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create check runner: %w", err)
	}
	config.Log.Info("bindcheck.New: created registry and check runner", "platforms", len(platforms))

	return &Checker{
		ctx:       ctx,
		config:    config,
		version:   version,
		registry:  reg,
		platforms: platforms,
		runner:    checkRunner,
		done:      make(chan struct{}),
	}, nil
}

// Start compiles the bindings cache and runs the checks, periodically at the
// configured interval unless in run-once mode.
func (c *Checker) Start(ctx context.Context) error {
	// Panic recovery so genuine runtime errors exit with code 2
	defer func() {
		if r := recover(); r != nil {
			c.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	c.ctx = ctx
	c.done = make(chan struct{})
	c.running.Store(true)

	if c.config.RunOnce {
		c.config.Log.Info("Starting bindcheck in run-once mode")
	} else {
		c.config.Log.Info("Starting bindcheck in continuous mode", "interval", c.config.RunInterval)
	}

	// All versions must be cached before any check runs
	if err := c.runner.Setup(ctx); err != nil {
		c.config.Log.Error("Bindings setup failed", "error", err)
		return NewRuntimeError(err)
	}

	if err := c.runChecks(); err != nil {
		c.config.Log.Error("Runtime error running checks", "error", err)
		return err
	}

	if c.config.RunOnce {
		c.config.Log.Info("Checks completed, exiting (run-once mode)")
		if c.result != nil && c.result.Status == types.CheckStatusFail {
			return NewCheckFailureError(c.result.String())
		}
		return nil
	}

	// Start a goroutine for periodic check execution
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.config.Log.Debug("Starting periodic check runner goroutine", "interval", c.config.RunInterval)

		for {
			select {
			case <-time.After(c.config.RunInterval):
				if !c.running.Load() {
					c.config.Log.Debug("Service stopped, exiting periodic check runner")
					return
				}

				c.config.Log.Info("Running periodic checks")
				if err := c.runChecks(); err != nil {
					c.config.Log.Error("Error running periodic checks", "error", err)
				}

			case <-c.done:
				c.config.Log.Debug("Done signal received, stopping periodic check runner")
				return

			case <-ctx.Done():
				c.config.Log.Debug("Context canceled, stopping periodic check runner")
				c.running.Store(false)
				return
			}
		}
	}()
	c.config.Log.Debug("bindcheck started successfully")
	return nil
}

// runChecks runs all checks and processes the results
func (c *Checker) runChecks() error {
	c.config.Log.Info("Running all checks...")
	result, err := c.runner.RunAllChecks(c.ctx)
	if err != nil {
		// A runtime error, not a check failure
		return NewRuntimeError(err)
	}
	c.result = result

	c.printResultsTable(result)
	NewDefaultMetricsReporter().ReportResults(result)
	fmt.Println(result.String())

	c.config.Log.Info("Check run completed", "run_id", result.RunID, "status", result.Status)
	return nil
}

// Stop stops the checker service.
func (c *Checker) Stop(ctx context.Context) error {
	c.config.Log.Info("Stopping bindcheck")

	if !c.running.Load() {
		c.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	// Update running state first to prevent new check runs
	c.running.Store(false)

	c.config.Log.Debug("Sending done signal to goroutines")
	close(c.done)

	c.wg.Wait()
	c.config.Log.Info("bindcheck stopped successfully")
	return nil
}

// Stopped returns true if the checker service is stopped.
func (c *Checker) Stopped() bool {
	return !c.running.Load()
}

// Result returns the most recent run result.
func (c *Checker) Result() *runner.RunnerResult {
	return c.result
}

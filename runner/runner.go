// Package runner orchestrates bindings setup and check execution across the
// discovered platform versions.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/platformlab/bindcheck/bindings"
	"github.com/platformlab/bindcheck/harness"
	"github.com/platformlab/bindcheck/logging"
	"github.com/platformlab/bindcheck/metrics"
	"github.com/platformlab/bindcheck/platform"
	"github.com/platformlab/bindcheck/registry"
	"github.com/platformlab/bindcheck/types"
)

// ResultStats tracks check statistics for one run
type ResultStats struct {
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	StartTime time.Time
	EndTime   time.Time
}

// RunnerResult captures the complete results of one check run
type RunnerResult struct {
	Checks   []*types.CheckResult
	Status   types.CheckStatus
	Duration time.Duration
	Stats    ResultStats
	RunID    string
}

// String renders a one-line summary of the run
func (r *RunnerResult) String() string {
	return fmt.Sprintf("run %s: %s (%d checks, %d passed, %d failed, %d skipped)",
		r.RunID, r.Status, r.Stats.Total, r.Stats.Passed, r.Stats.Failed, r.Stats.Skipped)
}

// CheckRunner defines the interface for running acceptance checks
type CheckRunner interface {
	Setup(ctx context.Context) error
	RunAllChecks(ctx context.Context) (*RunnerResult, error)
}

// runner struct implements the CheckRunner interface
type runner struct {
	registry   *registry.Registry
	platforms  []platform.Version
	bindings   *bindings.Compiler
	harness    *harness.Harness
	log        log.Logger
	logBaseDir string
	tracer     trace.Tracer
}

// Config holds configuration for creating a new runner
type Config struct {
	Registry  *registry.Registry
	Platforms []platform.Version
	Bindings  *bindings.Compiler
	Harness   *harness.Harness
	Log       log.Logger
	LogDir    string // base directory for per-run failure logs; disabled when empty
}

// NewCheckRunner creates a new check runner instance
func NewCheckRunner(cfg Config) (CheckRunner, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if len(cfg.Platforms) == 0 {
		return nil, errors.New("no platform versions discovered")
	}
	if cfg.Bindings == nil {
		return nil, errors.New("bindings compiler is required")
	}
	if cfg.Harness == nil {
		return nil, errors.New("harness is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	return &runner{
		registry:   cfg.Registry,
		platforms:  cfg.Platforms,
		bindings:   cfg.Bindings,
		harness:    cfg.Harness,
		log:        cfg.Log,
		logBaseDir: cfg.LogDir,
		tracer:     otel.Tracer("check runner"),
	}, nil
}

// Setup compiles and caches the bindings archive of every platform version.
// Must complete before any check runs; safe to call again (cached versions
// are skipped).
func (r *runner) Setup(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "bindings setup")
	defer span.End()

	start := time.Now()
	if err := r.bindings.Setup(ctx, r.platforms); err != nil {
		metrics.RecordErrorDetails("bindings setup", err)
		return err
	}
	r.log.Info("Bindings setup complete", "platforms", len(r.platforms), "duration", time.Since(start))
	return nil
}

// RunAllChecks implements the CheckRunner interface
func (r *runner) RunAllChecks(ctx context.Context) (*RunnerResult, error) {
	runID := uuid.New().String()
	start := time.Now()
	r.log.Debug("Running all checks", "run_id", runID)

	var fileLogger *logging.FileLogger
	if r.logBaseDir != "" {
		var err error
		fileLogger, err = logging.NewFileLogger(r.logBaseDir, runID)
		if err != nil {
			return nil, fmt.Errorf("creating file logger: %w", err)
		}
	}

	result := &RunnerResult{
		RunID: runID,
		Stats: ResultStats{StartTime: start},
	}

	for _, version := range r.platforms {
		if err := r.processPlatform(ctx, version, result, fileLogger); err != nil {
			return nil, fmt.Errorf("processing platform %s: %w", version.Name, err)
		}
	}

	result.Duration = time.Since(start)
	result.Stats.EndTime = time.Now()
	result.Status = determineRunStatus(result)

	if fileLogger != nil {
		stats := result.Stats
		if err := fileLogger.Complete(result.Status, stats.Total, stats.Passed, stats.Failed, stats.Skipped, result.Duration); err != nil {
			r.log.Warn("Failed to write run summary", "err", err)
		}
	}
	return result, nil
}

// processPlatform runs every applicable check against one platform version
func (r *runner) processPlatform(ctx context.Context, version platform.Version, result *RunnerResult, fileLogger *logging.FileLogger) error {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("platform %s", version.Name))
	defer span.End()

	for _, check := range r.registry.Checks() {
		checkResult := r.runCheck(ctx, check, version)
		result.Checks = append(result.Checks, checkResult)
		updateStats(&result.Stats, checkResult.Status)
		metrics.RecordCheck(result.RunID, version.Version, check.Name, check.Mode, checkResult.Status)

		if checkResult.Status == types.CheckStatusFail && fileLogger != nil {
			if err := fileLogger.LogFailure(checkResult); err != nil {
				r.log.Warn("Failed to persist check failure", "check", check.Name, "err", err)
			}
		}
	}
	return nil
}

// runCheck executes a single check against one platform version
func (r *runner) runCheck(ctx context.Context, check types.CheckConfig, version platform.Version) *types.CheckResult {
	result := &types.CheckResult{
		Check:    check,
		Platform: version.Version,
	}
	if !check.AppliesTo(version.Version) {
		result.Status = types.CheckStatusSkip
		return result
	}

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("check %s", check.Name))
	defer span.End()

	start := time.Now()
	var err error
	switch check.Mode {
	case types.CheckModeEmulate:
		err = r.harness.RunEmulatorCheck(ctx, check.Source, version, check.Class, check.Deps...)
	default:
		err = r.harness.RunCompileCheck(ctx, check.Source, version, check.Deps...)
	}
	result.Duration = time.Since(start)

	if err != nil {
		result.Status = types.CheckStatusFail
		result.Error = err
		var diagErr *harness.DiagnosticError
		if errors.As(err, &diagErr) {
			result.Diagnostics = diagErr.Diagnostics
		}
		r.log.Error("Check failed",
			"check", check.Name,
			"platform", version.Name,
			"mode", check.Mode,
			"err", err)
		return result
	}

	result.Status = types.CheckStatusPass
	r.log.Debug("Check passed", "check", check.Name, "platform", version.Name, "duration", result.Duration)
	return result
}

func updateStats(stats *ResultStats, status types.CheckStatus) {
	stats.Total++
	switch status {
	case types.CheckStatusPass:
		stats.Passed++
	case types.CheckStatusFail:
		stats.Failed++
	case types.CheckStatusSkip:
		stats.Skipped++
	}
}

// determineRunStatus derives the overall status from individual results
func determineRunStatus(result *RunnerResult) types.CheckStatus {
	if result.Stats.Failed > 0 {
		return types.CheckStatusFail
	}
	if result.Stats.Passed == 0 && result.Stats.Skipped > 0 {
		return types.CheckStatusSkip
	}
	return types.CheckStatusPass
}

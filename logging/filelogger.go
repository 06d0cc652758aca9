// Package logging persists captured check output for post-mortem debugging.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/platformlab/bindcheck/types"
)

const (
	// RunDirectoryPrefix is the standardized prefix for run directories.
	RunDirectoryPrefix = "checkrun-"

	FailedDirName   = "failed"
	SummaryFilename = "summary.txt"
)

// FileLogger writes per-run check output to files under a base directory.
type FileLogger struct {
	baseDir   string
	runID     string
	logDir    string
	failedDir string
	mu        sync.Mutex
}

// NewFileLogger creates the directory layout for one run
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	failedDir := filepath.Join(logDir, FailedDirName)
	if err := os.MkdirAll(failedDir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", failedDir, err)
	}
	return &FileLogger{
		baseDir:   baseDir,
		runID:     runID,
		logDir:    logDir,
		failedDir: failedDir,
	}, nil
}

// GetRunID returns the run identifier this logger belongs to
func (l *FileLogger) GetRunID() string {
	return l.runID
}

// LogDir returns the directory holding this run's files
func (l *FileLogger) LogDir() string {
	return l.logDir
}

// LogFailure stores the diagnostics of a failing check, one file per
// check/platform pair.
func (l *FileLogger) LogFailure(result *types.CheckResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "check:    %s\n", result.Check.Name)
	fmt.Fprintf(&b, "platform: %s\n", result.Platform)
	fmt.Fprintf(&b, "mode:     %s\n", result.Check.Mode)
	fmt.Fprintf(&b, "duration: %s\n", result.Duration)
	if result.Error != nil {
		fmt.Fprintf(&b, "\nerror:\n%v\n", result.Error)
	}
	if result.Diagnostics != "" {
		fmt.Fprintf(&b, "\ndiagnostics:\n%s", result.Diagnostics)
	}

	path := filepath.Join(l.failedDir, sanitizeFilename(result.Key())+".log")
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// Complete writes the run summary file
func (l *FileLogger) Complete(status types.CheckStatus, total, passed, failed, skipped int, duration time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "run:      %s\n", l.runID)
	fmt.Fprintf(&b, "status:   %s\n", status)
	fmt.Fprintf(&b, "total:    %d\n", total)
	fmt.Fprintf(&b, "passed:   %d\n", passed)
	fmt.Fprintf(&b, "failed:   %d\n", failed)
	fmt.Fprintf(&b, "skipped:  %d\n", skipped)
	fmt.Fprintf(&b, "duration: %s\n", duration)

	return os.WriteFile(filepath.Join(l.logDir, SummaryFilename), []byte(b.String()), 0644)
}

// sanitizeFilename keeps log filenames shell-friendly
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_", "@", "-")
	return replacer.Replace(name)
}

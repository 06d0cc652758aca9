// Package proc launches external toolchain processes and demultiplexes their
// output into informational and diagnostic streams.
package proc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"
)

// DefaultDiagnosticMarker prefixes compiler diagnostic lines.
const DefaultDiagnosticMarker = "error:"

// Mode selects how output lines are classified.
type Mode int

const (
	// ModeTool routes every line to the informational stream.
	ModeTool Mode = iota
	// ModeCompiler routes marker-prefixed lines to the diagnostic stream.
	ModeCompiler
)

// StreamClass identifies which accumulated stream a line belongs to.
type StreamClass int

const (
	ClassOutput StreamClass = iota
	ClassDiagnostic
)

// Classify routes a single output line. In compiler mode, lines whose trimmed
// text begins with the diagnostic marker belong to the diagnostic stream;
// everything else (and every line in tool mode) is informational.
func Classify(mode Mode, marker, line string) StreamClass {
	if mode == ModeCompiler && strings.HasPrefix(strings.TrimSpace(line), marker) {
		return ClassDiagnostic
	}
	return ClassOutput
}

// Result captures the output of one subprocess invocation
type Result struct {
	Output      string // accumulated informational text, newline-terminated per line
	Diagnostics string // accumulated diagnostic text, newline-terminated per line
	ExitCode    int
}

// Runner launches subprocesses and captures their classified output.
// The zero value is not usable; construct with NewRunner.
type Runner struct {
	log    log.Logger
	marker string
}

// Config holds configuration for creating a new runner
type Config struct {
	Log    log.Logger
	Marker string // diagnostic marker; DefaultDiagnosticMarker when empty
}

// NewRunner creates a new process runner
func NewRunner(cfg Config) *Runner {
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.Marker == "" {
		cfg.Marker = DefaultDiagnosticMarker
	}
	return &Runner{log: cfg.Log, marker: cfg.Marker}
}

// Run launches the given argument vector and blocks until the process exits.
// Both pipes are drained concurrently so a chatty child cannot deadlock on a
// full buffer. Launch and read errors are hard failures; a non-zero exit is
// not an error here and is reported through Result.ExitCode.
func (r *Runner) Run(ctx context.Context, argv []string, mode Mode) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("empty argument vector")
	}
	r.log.Info("Launching process", "argv", strings.Join(argv, " "))

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("creating stdout pipe for %s: %w", argv[0], err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("creating stderr pipe for %s: %w", argv[0], err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	var mu sync.Mutex
	var output, diagnostics strings.Builder

	consume := func(stream io.Reader) error {
		scanner := bufio.NewScanner(stream)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := stripansi.Strip(scanner.Text())
			mu.Lock()
			if Classify(mode, r.marker, line) == ClassDiagnostic {
				diagnostics.WriteString(line)
				diagnostics.WriteByte('\n')
			} else {
				output.WriteString(line)
				output.WriteByte('\n')
			}
			mu.Unlock()
		}
		return scanner.Err()
	}

	var g errgroup.Group
	g.Go(func() error { return consume(stdout) })
	g.Go(func() error { return consume(stderr) })
	readErr := g.Wait()

	waitErr := cmd.Wait()
	if readErr != nil {
		return Result{}, fmt.Errorf("reading output of %s: %w", argv[0], readErr)
	}
	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return Result{}, fmt.Errorf("waiting for %s: %w", argv[0], waitErr)
		}
		exitCode = exitErr.ExitCode()
	}

	return Result{
		Output:      output.String(),
		Diagnostics: diagnostics.String(),
		ExitCode:    exitCode,
	}, nil
}

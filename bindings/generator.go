package bindings

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/platformlab/bindcheck/proc"
)

// Request carries everything the binding generator needs for one platform
// version.
type Request struct {
	Revision int      // integer revision of the target platform
	Version  string   // human-readable version string
	Archives []string // absolute paths of the version's dependency archives
	OutDir   string   // destination for generated sources, created and deleted by the caller
	// ExcludeSources names generated files to leave out of the compiled set.
	// Workaround sources exist only to satisfy the emulator's interface shims
	// and must not ship inside the bindings archive.
	ExcludeSources []string
}

// Generator produces binding source files under req.OutDir and returns their
// paths. The caller owns the directory and deletes it wholesale, so excluded
// files the generator still writes are cleaned up with it.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]string, error)
}

// ExecGenerator shells out to an external generator binary.
type ExecGenerator struct {
	Log    log.Logger
	Runner *proc.Runner
	Path   string // generator executable
}

var _ Generator = (*ExecGenerator)(nil)

// Generate invokes the generator binary and collects the files it produced,
// dropping excluded workaround sources from the returned set.
func (g *ExecGenerator) Generate(ctx context.Context, req Request) ([]string, error) {
	if req.OutDir == "" {
		return nil, errors.New("generator output dir is required")
	}

	argv := []string{g.Path,
		"-revision", strconv.Itoa(req.Revision),
		"-platform", req.Version,
		"-out", req.OutDir,
	}
	for _, name := range req.ExcludeSources {
		argv = append(argv, "-exclude", name)
	}
	argv = append(argv, req.Archives...)

	res, err := g.Runner.Run(ctx, argv, proc.ModeTool)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("generator exited %d:\n%s", res.ExitCode, res.Output)
	}

	var sources []string
	err = filepath.WalkDir(req.OutDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || slices.Contains(req.ExcludeSources, d.Name()) {
			return nil
		}
		sources = append(sources, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting generated sources: %w", err)
	}
	g.Log.Debug("Generated binding sources", "platform", req.Version, "count", len(sources))
	return sources, nil
}

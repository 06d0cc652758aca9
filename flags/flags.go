package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "BINDCHECK"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	PlatformsDir = &cli.StringFlag{
		Name:     "platforms",
		Required: true,
		EnvVars:  prefixEnvVars("PLATFORMS"),
		Usage:    "Root directory containing platform-version subdirectories",
	}
	Manifest = &cli.StringFlag{
		Name:     "manifest",
		Required: true,
		EnvVars:  prefixEnvVars("MANIFEST"),
		Usage:    "Path to the check manifest file (eg. 'checks.yaml')",
	}
	Compiler = &cli.StringFlag{
		Name:     "compiler",
		Required: true,
		EnvVars:  prefixEnvVars("COMPILER"),
		Usage:    "Path to the bindings compiler executable",
	}
	Generator = &cli.StringFlag{
		Name:     "generator",
		Required: true,
		EnvVars:  prefixEnvVars("GENERATOR"),
		Usage:    "Path to the binding generator executable",
	}
	LibDir = &cli.StringFlag{
		Name:     "libdir",
		Required: true,
		EnvVars:  prefixEnvVars("LIBDIR"),
		Usage:    "Directory holding the emulator support archives",
	}
	CheckDir = &cli.StringFlag{
		Name:    "checkdir",
		Value:   "",
		EnvVars: prefixEnvVars("CHECKDIR"),
		Usage:   "Directory check sources are resolved against",
	}
	Launcher = &cli.StringFlag{
		Name:    "launcher",
		Value:   "java",
		EnvVars: prefixEnvVars("LAUNCHER"),
		Usage:   "Launcher executable for the runtime-emulation harness",
	}
	OutDir = &cli.StringFlag{
		Name:    "outdir",
		Value:   "archives",
		EnvVars: prefixEnvVars("OUTDIR"),
		Usage:   "Directory compiled bindings archives are written to",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOGDIR"),
		Usage:   "Directory to store per-run check logs",
	}
	FixtureDir = &cli.StringFlag{
		Name:    "fixturedir",
		Value:   "fixtures",
		EnvVars: prefixEnvVars("FIXTUREDIR"),
		Usage:   "Directory holding the emulator manifest, resources and assets",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between check runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	DiagnosticMarker = &cli.StringFlag{
		Name:    "diagnostic-marker",
		Value:   "",
		EnvVars: prefixEnvVars("DIAGNOSTIC_MARKER"),
		Usage:   "Marker token prefixing compiler diagnostic lines (defaults to 'error:')",
	}
)

var requiredFlags = []cli.Flag{
	PlatformsDir,
	Manifest,
	Compiler,
	Generator,
	LibDir,
}

var optionalFlags = []cli.Flag{
	CheckDir,
	Launcher,
	OutDir,
	LogDir,
	FixtureDir,
	RunInterval,
	DiagnosticMarker,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

// CheckRequired verifies that every required flag is set
func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}

package bindcheck

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/platformlab/bindcheck/flags"
)

func parseConfig(t *testing.T, args []string) (*Config, error) {
	t.Helper()
	var cfg *Config
	var cfgErr error
	app := &cli.App{
		Flags: flags.Flags,
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = NewConfig(ctx, log.New())
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"bindcheck"}, args...)))
	return cfg, cfgErr
}

var requiredArgs = []string{
	"--platforms", "platforms",
	"--manifest", "checks.yaml",
	"--compiler", "bin/bindc",
	"--generator", "bin/bindgen",
	"--libdir", "lib",
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := parseConfig(t, requiredArgs)
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.PlatformsDir))
	assert.True(t, filepath.IsAbs(cfg.ManifestFile))
	assert.True(t, filepath.IsAbs(cfg.OutDir))
	assert.Equal(t, "java", cfg.Launcher)
	assert.Empty(t, cfg.CheckDir)
	assert.Empty(t, cfg.DiagnosticMarker)
	assert.True(t, cfg.RunOnce)
	assert.Zero(t, cfg.RunInterval)
}

func TestNewConfigRunInterval(t *testing.T) {
	cfg, err := parseConfig(t, append(requiredArgs, "--run-interval", "30m"))
	require.NoError(t, err)

	assert.False(t, cfg.RunOnce)
	assert.Equal(t, 30*time.Minute, cfg.RunInterval)
}

func TestNewConfigMissingRequired(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{flags.PlatformsDir, flags.Manifest, flags.Compiler, flags.Generator, flags.LibDir},
	}
	// Required flags make app.Run itself fail before the action runs
	err := app.Run([]string{"bindcheck", "--platforms", "platforms"})
	require.Error(t, err)
}

func TestNewConfigOverrides(t *testing.T) {
	cfg, err := parseConfig(t, append(requiredArgs,
		"--launcher", "/opt/emu/launch",
		"--checkdir", "checks",
		"--diagnostic-marker", "warn:",
	))
	require.NoError(t, err)

	assert.Equal(t, "/opt/emu/launch", cfg.Launcher)
	assert.True(t, filepath.IsAbs(cfg.CheckDir))
	assert.Equal(t, "warn:", cfg.DiagnosticMarker)
}

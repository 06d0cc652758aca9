package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	bindcheck "github.com/platformlab/bindcheck"
	"github.com/platformlab/bindcheck/exitcodes"
	"github.com/platformlab/bindcheck/flags"
	"github.com/platformlab/bindcheck/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "bindcheck"
	app.Usage = "Platform Bindings Acceptance Checker"
	app.Description = "bindcheck compiles generated platform bindings and drives acceptance checks against them"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if bindcheck.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if bindcheck.IsCheckFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.CheckFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.CheckFailure))
			}
		}
	}

	// Start telemetry
	shutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start healthz and metrics servers
	svc := service.New(app.Version)
	svc.Start(ctx)
	defer svc.Shutdown()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelInfo, true)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)

	cfg, err := bindcheck.NewConfig(ctx, logger)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return bindcheck.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	checker, err := bindcheck.New(ctx.Context, cfg, appVersion(ctx))
	if err != nil {
		return bindcheck.NewRuntimeError(fmt.Errorf("failed to create checker: %w", err))
	}

	if err := checker.Start(ctx.Context); err != nil {
		return err
	}
	if cfg.RunOnce {
		return nil
	}

	// Continuous mode: block until interrupted
	<-ctx.Context.Done()
	return checker.Stop(context.Background())
}

func appVersion(ctx *cli.Context) string {
	return ctx.App.Version
}

// Package main implements fifosim, a testbench for the tick-stepped FIFO.
// It runs scenario files against the buffer model or serves a single
// buffer over NATS.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/tickfifo/config"
	"github.com/c360/tickfifo/errors"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "fifosim"
)

// errScenariosFailed makes run exit 1 without logging an application error.
var errScenariosFailed = stderrors.New("one or more scenarios failed")

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(3)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	code := exitCode(err)
	if err != nil && !stderrors.Is(err, errScenariosFailed) {
		slog.Error("Application failed", "error", err, "class", errors.Classify(err).String(), "exit_code", code)
	}
	os.Exit(code)
}

// exitCode maps run's result to the process status: 1 for failed
// scenarios and runtime errors, 2 for invalid flags, config or files.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case stderrors.Is(err, errScenariosFailed):
		return 1
	case errors.Classify(err) == errors.ErrorInvalid:
		return 2
	default:
		return 1
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cliCfg, logger, shouldExit, err := initializeCLI(args, stdout, stderr)
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.WriteConfig != "" {
		if err := cfg.Save(cliCfg.WriteConfig); err != nil {
			return err
		}
		logger.Info("Configuration written", "path", cliCfg.WriteConfig)
		return nil
	}

	if cliCfg.Validate {
		logger.Info("Configuration is valid",
			"width", cfg.FIFO.Width,
			"depth", cfg.FIFO.Depth)
		return nil
	}

	switch cliCfg.Command {
	case "serve":
		return serve(ctx, cfg, cliCfg, logger)
	default:
		passed, err := runScenarios(ctx, cfg, cliCfg, logger, stdout)
		if err != nil {
			return err
		}
		if !passed {
			return errScenariosFailed
		}
		return nil
	}
}

// initializeCLI parses flags and sets up logging
func initializeCLI(args []string, stdout, stderr io.Writer) (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg, err := parseFlags(args, stderr)
	if err != nil {
		return nil, nil, false, errors.WrapInvalid(err, "fifosim", "initializeCLI", "parse flags")
	}
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, errors.WrapInvalid(err, "fifosim", "initializeCLI", "validate flags")
	}

	if cliCfg.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat, stderr)
	slog.SetDefault(logger)

	logger.Debug("Starting fifosim",
		"version", Version,
		"build_time", BuildTime,
		"command", cliCfg.Command,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads and validates configuration
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/itchyny/gojq"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath      string
	LogLevel        string
	LogFormat       string
	Debug           bool
	ShutdownTimeout time.Duration
	Output          string
	Query           string
	Trace           bool
	StoreURL        string
	Random          int
	Seed            int64
	WriteConfig     string
	ShowVersion     bool
	ShowHelp        bool
	Validate        bool

	Command string
	Args    []string
}

func parseFlags(args []string, stderr io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Define flags with environment variable fallback
	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("TICKFIFO_CONFIG", ""),
		"Path to JSON configuration file, defaults when empty (env: TICKFIFO_CONFIG)")

	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("TICKFIFO_CONFIG", ""),
		"Path to JSON configuration file (env: TICKFIFO_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("TICKFIFO_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: TICKFIFO_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("TICKFIFO_LOG_FORMAT", "text"),
		"Log format: json, text (env: TICKFIFO_LOG_FORMAT)")

	fs.BoolVar(&cfg.Debug, "debug",
		getEnvBool("TICKFIFO_DEBUG", false),
		"Enable debug logging (env: TICKFIFO_DEBUG)")

	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout",
		getEnvDuration("TICKFIFO_SHUTDOWN_TIMEOUT", 10*time.Second),
		"Graceful shutdown timeout (env: TICKFIFO_SHUTDOWN_TIMEOUT)")

	fs.StringVar(&cfg.Output, "output",
		getEnv("TICKFIFO_OUTPUT", "text"),
		"Result format for run: text, json (env: TICKFIFO_OUTPUT)")

	fs.StringVar(&cfg.Query, "query",
		getEnv("TICKFIFO_QUERY", ""),
		"jq expression applied to the JSON reports, one result per line (env: TICKFIFO_QUERY)")

	fs.BoolVar(&cfg.Trace, "trace", false, "Print the per-tick trace of each scenario")

	fs.StringVar(&cfg.StoreURL, "store",
		getEnv("TICKFIFO_STORE", ""),
		"Persist reports: memory://, badger:///dir or kv://BUCKET (env: TICKFIFO_STORE)")

	fs.IntVar(&cfg.Random, "random",
		getEnvInt("TICKFIFO_RANDOM", 0),
		"Also run N randomized invariant scenarios (env: TICKFIFO_RANDOM)")

	fs.Int64Var(&cfg.Seed, "seed", 1, "First seed for -random scenarios")

	fs.StringVar(&cfg.WriteConfig, "write-config", "", "Write the effective configuration to this JSON file and exit")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() {
		printDetailedHelp(stderr, fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	rest := fs.Args()
	cfg.Command = "run"
	if len(rest) > 0 {
		cfg.Command = rest[0]
		cfg.Args = rest[1:]
	}

	if cfg.ShowHelp {
		fs.Usage()
	}

	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if !slices.Contains([]string{"run", "serve"}, cfg.Command) {
		return fmt.Errorf("unknown command: %s", cfg.Command)
	}

	if cfg.Command == "serve" && len(cfg.Args) > 0 {
		return fmt.Errorf("serve takes no arguments, got %v", cfg.Args)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	if !slices.Contains([]string{"json", "text"}, cfg.Output) {
		return fmt.Errorf("invalid output format: %s", cfg.Output)
	}

	if cfg.Query != "" {
		if _, err := gojq.Parse(cfg.Query); err != nil {
			return fmt.Errorf("invalid query: %w", err)
		}
	}

	if cfg.Random < 0 {
		return fmt.Errorf("invalid random scenario count: %d", cfg.Random)
	}

	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %s", cfg.ShutdownTimeout)
	}

	return nil
}

func printDetailedHelp(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintf(w, `%s - tick-stepped FIFO testbench

Usage: %s [options] [run [scenario files...] | serve]

Commands:
  run     Run scenario files (YAML or JSON), or the builtin scenarios when
          none are given. Exits 1 when any scenario fails.
  serve   Expose one FIFO over NATS on <subject>.tick / <subject>.state
          with Prometheus metrics and /health.

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Run the builtin scenarios with a tick trace
  %s -trace run

  # Run custom scenarios and 20 random ones, JSON results
  %s -output json -random 20 run scenarios/*.yaml

  # Names of the failing scenarios
  %s -query '.[] | select(.passed | not) | .name' run scenarios/*.yaml

  # Serve a depth-16 FIFO
  TICKFIFO_DEPTH=16 %s -config tickfifo.json serve

  # Validate configuration only
  %s -config tickfifo.json -validate

Version: %s
Build: %s
`, appName, appName, appName, appName, appName, Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

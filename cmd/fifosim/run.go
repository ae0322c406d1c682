package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/c360/tickfifo/config"
	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/natsclient"
	"github.com/c360/tickfifo/pkg/worker"
	"github.com/c360/tickfifo/reportstore"
	"github.com/c360/tickfifo/scenario"
)

// randomTicks is the length of each -random scenario.
const randomTicks = 2000

type job struct {
	index int
	sc    *scenario.Scenario
}

// loadScenarios reads the named files, or the builtin set when there are
// none, and appends the randomized ones. Scenarios that leave width or
// depth unset take them from the fifo config section.
func loadScenarios(files []string, cfg *config.Config, cliCfg *CLIConfig) ([]*scenario.Scenario, error) {
	var scenarios []*scenario.Scenario
	if len(files) == 0 {
		builtin, err := scenario.Builtin()
		if err != nil {
			return nil, err
		}
		scenarios = builtin
	}

	for _, path := range files {
		sc, err := scenario.Load(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}

	for _, sc := range scenarios {
		if sc.Width == 0 {
			sc.Width = cfg.FIFO.Width
		}
		if sc.Depth == 0 {
			sc.Depth = cfg.FIFO.Depth
		}
	}

	for i := 0; i < cliCfg.Random; i++ {
		scenarios = append(scenarios, scenario.RandomScenario(cliCfg.Seed+int64(i), randomTicks, cfg.FIFO.Buffer()))
	}

	return scenarios, nil
}

// runScenarios runs every scenario through the worker pool and prints the
// results. It reports whether all of them passed.
func runScenarios(ctx context.Context, cfg *config.Config, cliCfg *CLIConfig, logger *slog.Logger, out io.Writer) (bool, error) {
	scenarios, err := loadScenarios(cliCfg.Args, cfg, cliCfg)
	if err != nil {
		return false, err
	}

	registry := metric.NewMetricsRegistry()
	core := registry.CoreMetrics()

	store, closeStore, err := openStore(ctx, cfg, cliCfg, logger, core)
	if err != nil {
		return false, err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Failed to close report store", "error", err)
		}
	}()

	reports := make([]*scenario.Report, len(scenarios))
	runErrs := make([]error, len(scenarios))
	var wg sync.WaitGroup

	pool, err := worker.NewPool(cfg.Runner.Workers, len(scenarios), func(ctx context.Context, j job) error {
		defer wg.Done()
		report, err := scenario.Run(ctx, j.sc,
			scenario.WithLogger(logger),
			scenario.WithMetrics(core),
			scenario.WithRate(cfg.Runner.RateHz),
			scenario.WithMaxTicks(uint64(cfg.Runner.MaxTicks)),
			scenario.WithTrace(cliCfg.Trace),
		)
		if err != nil {
			runErrs[j.index] = err
			return err
		}
		reports[j.index] = report

		if store != nil {
			if err := store.Save(ctx, report); err != nil {
				logger.Warn("Failed to store report", "scenario", report.Name, "id", report.ID, "error", err)
			}
		}
		return nil
	}, worker.WithMetricsRegistry[job](registry, "scenarios"))
	if err != nil {
		return false, err
	}

	if err := pool.Start(ctx); err != nil {
		return false, err
	}

	for i, sc := range scenarios {
		wg.Add(1)
		if err := pool.Submit(job{index: i, sc: sc}); err != nil {
			wg.Done()
			runErrs[i] = errors.Wrap(err, "fifosim", "runScenarios", "submit "+sc.Name)
		}
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
	}

	if err := pool.Stop(cliCfg.ShutdownTimeout); err != nil {
		logger.Warn("Worker pool did not stop cleanly", "error", err)
	}
	if ctx.Err() != nil {
		return false, errors.WrapTransient(ctx.Err(), "fifosim", "runScenarios", "run scenarios")
	}
	if err := stderrors.Join(runErrs...); err != nil {
		return false, err
	}

	stats := pool.Stats()
	logger.Debug("Scenario pool finished",
		"submitted", stats.Submitted,
		"processed", stats.Processed,
		"failed", stats.Failed)

	switch {
	case cliCfg.Query != "":
		err = writeQuery(out, reports, cliCfg.Query)
	case cliCfg.Output == "json":
		err = writeJSON(out, reports)
	default:
		err = writeText(out, reports, cliCfg.Trace)
	}
	if err != nil {
		return false, errors.Wrap(err, "fifosim", "runScenarios", "write results")
	}

	for _, r := range reports {
		if !r.Passed {
			return false, nil
		}
	}
	return true, nil
}

// openStore opens the report store named by -store. Without one the
// returned store is nil.
func openStore(ctx context.Context, cfg *config.Config, cliCfg *CLIConfig, logger *slog.Logger, core *metric.Metrics) (*reportstore.Store, func() error, error) {
	if cliCfg.StoreURL == "" {
		return nil, func() error { return nil }, nil
	}

	var client *natsclient.Client
	if strings.HasPrefix(cliCfg.StoreURL, "kv://") {
		c, err := connectNATS(ctx, cfg, logger, core)
		if err != nil {
			return nil, nil, err
		}
		client = c
	}

	store, closeFn, err := reportstore.OpenURL(ctx, cliCfg.StoreURL, client, logger, reportstore.WithMetrics(core))
	if err != nil {
		if client != nil {
			_ = client.Close(context.Background())
		}
		return nil, nil, fmt.Errorf("open report store: %w", err)
	}

	logger.Info("Storing reports", "store", cliCfg.StoreURL)
	return store, func() error {
		err := closeFn()
		if client != nil {
			err = stderrors.Join(err, client.Close(context.Background()))
		}
		return err
	}, nil
}

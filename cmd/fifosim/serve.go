package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/tickfifo/config"
	"github.com/c360/tickfifo/errors"
	"github.com/c360/tickfifo/health"
	"github.com/c360/tickfifo/metric"
	"github.com/c360/tickfifo/natsclient"
	"github.com/c360/tickfifo/pkg/fifo"
	"github.com/c360/tickfifo/pkg/retry"
	"github.com/c360/tickfifo/tickport"
)

// connectNATS creates a client from the nats config section and connects,
// retrying transient failures.
func connectNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger, core *metric.Metrics) (*natsclient.Client, error) {
	client, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
		natsclient.WithName(appName),
		natsclient.WithLogger(logger),
		natsclient.WithMetrics(core),
	)
	if err != nil {
		return nil, errors.WrapInvalid(err, "fifosim", "connectNATS", "create client")
	}

	policy := retry.Quick()
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		logger.Warn("NATS connect failed, retrying",
			"url", cfg.NATS.URL,
			"attempt", attempt,
			"delay", delay,
			"error", err)
	}
	if err := retry.Do(ctx, policy, func() error { return client.Connect(ctx) }); err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	return client, nil
}

// serve exposes one buffer over NATS until ctx is done.
func serve(ctx context.Context, cfg *config.Config, cliCfg *CLIConfig, logger *slog.Logger) error {
	registry := metric.NewMetricsRegistry()
	core := registry.CoreMetrics()

	buf, err := fifo.New(cfg.FIFO.Buffer(),
		fifo.WithMetrics(registry, "port"),
		fifo.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	client, err := connectNATS(ctx, cfg, logger, core)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		}
	}()

	port := tickport.New(buf, client, tickport.Config{Prefix: cfg.NATS.Subject}, logger, core)
	if err := port.Start(ctx); err != nil {
		return err
	}

	monitor := health.NewMonitor()
	monitor.Register("fifo", func() health.Status { return health.FromBuffer("fifo", buf) })
	monitor.Register("tickport", port.Health)
	monitor.Register("nats", func() health.Status {
		if client.IsHealthy() {
			return health.NewHealthy("nats", client.URL())
		}
		return health.NewUnhealthy("nats", "connection "+client.Status().String())
	})

	logger.Info("Serving FIFO",
		"width", cfg.FIFO.Width,
		"depth", cfg.FIFO.Depth,
		"tick_subject", tickport.Config{Prefix: cfg.NATS.Subject}.TickSubject())

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry, monitor.HealthFunc(appName))
		server.Handle(tickport.WebSocketPath, port.WebSocketHandler())
		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			return server.Stop()
		})
		logger.Info("HTTP server started",
			"port", cfg.Metrics.Port,
			"metrics", cfg.Metrics.Path,
			"websocket", tickport.WebSocketPath)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", "reason", context.Cause(gctx))
		if err := port.Stop(); err != nil {
			logger.Warn("Failed to stop tick port", "error", err)
		}
		stats := buf.Stats().Summary()
		logger.Info("FIFO statistics",
			"ticks", stats.Ticks,
			"writes", stats.Writes,
			"reads", stats.Reads,
			"rejected_writes", stats.RejectedWrites,
			"rejected_reads", stats.RejectedReads)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	<-gctx.Done()
	select {
	case err := <-done:
		return err
	case <-time.After(cliCfg.ShutdownTimeout):
		return errors.WrapTransient(fmt.Errorf("shutdown timed out after %s", cliCfg.ShutdownTimeout),
			"fifosim", "serve", "shutdown")
	}
}

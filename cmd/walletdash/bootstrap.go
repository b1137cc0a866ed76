package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fd1az/wallet-dashboard/internal/apm"
	"github.com/fd1az/wallet-dashboard/internal/config"
	"github.com/fd1az/wallet-dashboard/internal/health"
	"github.com/fd1az/wallet-dashboard/internal/logger"
	"github.com/fd1az/wallet-dashboard/internal/metrics"
	"github.com/fd1az/wallet-dashboard/internal/monolith"
)

const shutdownTimeout = 5 * time.Second

// env is a started application: config, logger, telemetry and modules.
type env struct {
	cfg  *config.Config
	log  logger.LoggerInterface
	mono *monolith.App

	// stops run in reverse order on Close.
	stops []func(context.Context) error
}

// bootstrap loads configuration, sets up logging and telemetry, then
// registers and starts modules in the given order.
func bootstrap(ctx context.Context, configPath string, tuiMode bool, modules ...monolith.Module) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	e := &env{cfg: cfg}

	log, closeLog := newLogger(cfg, tuiMode)
	e.log = log
	e.stops = append(e.stops, func(context.Context) error { return closeLog() })

	log.Info(ctx, "starting wallet dashboard",
		"version", version,
		"commit", commit,
		"environment", cfg.App.Environment,
		"tui", tuiMode)

	if cfg.Telemetry.Enabled {
		if err := e.startTelemetry(ctx); err != nil {
			e.Close()
			return nil, err
		}
	}

	e.mono = monolith.New(cfg, log)
	e.stops = append(e.stops, func(context.Context) error { return e.mono.Close() })

	if err := e.mono.RegisterModules(modules...); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	if err := e.mono.StartModules(ctx, modules...); err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to start modules: %w", err)
	}

	return e, nil
}

// newLogger writes to a file in TUI mode so records don't corrupt the
// screen, and to stderr otherwise.
func newLogger(cfg *config.Config, tuiMode bool) (logger.LoggerInterface, func() error) {
	level := logger.ParseLevel(cfg.App.LogLevel)
	noop := func() error { return nil }

	if !tuiMode {
		return logger.New(os.Stderr, level, cfg.App.Name, nil), noop
	}

	path := cfg.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return logger.New(io.Discard, level, cfg.App.Name, nil), noop
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return logger.New(io.Discard, level, cfg.App.Name, nil), noop
	}
	return logger.New(f, level, cfg.App.Name, nil), f.Close
}

func (e *env) startTelemetry(ctx context.Context) error {
	tc := e.cfg.Telemetry

	tp, err := apm.NewTraceProvider(e.log, apm.Options{
		Provider:    apm.Provider(tc.TraceProvider),
		ServiceName: tc.ServiceName,
		Endpoint:    tc.OTLPEndpoint,
		Headers:     tc.OTLPHeaders,
	})
	if err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	e.stops = append(e.stops, func(context.Context) error { return tp.Stop() })

	opts := []metrics.OptionFn{
		metrics.WithServiceName(tc.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if tc.OTLPEndpoint != "" && tc.TraceProvider != string(apm.ZipkinProvider) {
		headers, err := apm.ParseHeaders(tc.OTLPHeaders)
		if err != nil {
			return fmt.Errorf("invalid otlp headers: %w", err)
		}
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(tc.OTLPEndpoint, headers, false)))
	}

	mp, err := metrics.NewMetricProvider(opts...)
	if err != nil {
		return fmt.Errorf("failed to start metrics: %w", err)
	}
	e.stops = append(e.stops, mp.Shutdown)

	prom := metrics.NewPrometheusServer(e.log, metrics.WithPort(strconv.Itoa(tc.PrometheusPort)))
	prom.Start()
	e.stops = append(e.stops, prom.Stop)

	e.log.Info(ctx, "telemetry started",
		"trace_provider", tc.TraceProvider,
		"prometheus_port", tc.PrometheusPort)
	return nil
}

// startHealth serves health checks when enabled.
func (e *env) startHealth(ctx context.Context, checks map[string]health.CheckFunc) {
	if !e.cfg.Health.Enabled {
		return
	}

	srv := health.NewServer(e.cfg.Health.Port, version, e.log)
	for name, check := range checks {
		srv.RegisterCheck(name, check)
	}
	if err := srv.Start(); err != nil {
		e.log.Warn(ctx, "failed to start health server", "error", err)
		return
	}
	e.stops = append(e.stops, srv.Stop)
}

// Close stops everything bootstrap started, in reverse order.
func (e *env) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(e.stops) - 1; i >= 0; i-- {
		if err := e.stops[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package app

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	"github.com/fd1az/wallet-dashboard/business/history/domain"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
	"github.com/fd1az/wallet-dashboard/internal/logger"
	"github.com/fd1az/wallet-dashboard/internal/ratelimit"
)

const (
	tracerName = "github.com/fd1az/wallet-dashboard/business/history/app"
	meterName  = "github.com/fd1az/wallet-dashboard/business/history/app"

	// DefaultMaxCount is how many records each direction requests.
	DefaultMaxCount = 20
)

type fetcherMetrics struct {
	fetches  metric.Int64Counter
	duration metric.Float64Histogram
}

// Fetcher issues the outbound and inbound queries concurrently through a
// process-wide concurrency limiter and normalizes the result.
type Fetcher struct {
	source   TransferSource
	limiter  *ratelimit.ConcurrencyLimiter
	maxCount int
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	metrics  *fetcherMetrics
}

var _ HistoryFetcher = (*Fetcher)(nil)

// FetcherOption configures a Fetcher.
type FetcherOption func(*fetcherOptions)

type fetcherOptions struct {
	meterProvider metric.MeterProvider
}

// WithMeterProvider sets the meter provider. The global one is used otherwise.
func WithMeterProvider(mp metric.MeterProvider) FetcherOption {
	return func(o *fetcherOptions) {
		o.meterProvider = mp
	}
}

// NewFetcher creates a fetcher. The limiter is shared by every fetcher in
// the process; callers must not create one per fetch.
func NewFetcher(source TransferSource, limiter *ratelimit.ConcurrencyLimiter, maxCount int, log logger.LoggerInterface, opts ...FetcherOption) (*Fetcher, error) {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}

	options := fetcherOptions{meterProvider: otel.GetMeterProvider()}
	for _, o := range opts {
		o(&options)
	}

	f := &Fetcher{
		source:   source,
		limiter:  limiter,
		maxCount: maxCount,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}

	if err := f.initMetrics(options.meterProvider); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return f, nil
}

func (f *Fetcher) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(meterName)
	var err error

	f.metrics = &fetcherMetrics{}

	f.metrics.fetches, err = meter.Int64Counter(
		"history_fetch_total",
		metric.WithDescription("Total history fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	f.metrics.duration, err = meter.Float64Histogram(
		"history_fetch_duration_ms",
		metric.WithDescription("History fetch latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	_, err = meter.Int64ObservableGauge(
		"indexer_inflight_requests",
		metric.WithDescription("Indexing API requests currently in flight"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(f.limiter.InFlight())
			return nil
		}),
	)
	if err != nil {
		return err
	}

	_, err = meter.Int64ObservableGauge(
		"indexer_inflight_requests_peak",
		metric.WithDescription("Highest number of indexing API requests in flight at once"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(f.limiter.Peak())
			return nil
		}),
	)
	return err
}

// Fetch returns up to domain.MaxTransactions transfers for address on c.
// Any sub-request failure fails the whole fetch with one opaque error; the
// upstream cause is only logged.
func (f *Fetcher) Fetch(ctx context.Context, address string, c chain.Chain) ([]domain.Transaction, error) {
	ctx, span := f.tracer.Start(ctx, "history.fetch",
		trace.WithAttributes(
			attribute.String("chain", c.String()),
			attribute.String("address", address),
		),
	)
	defer span.End()

	start := time.Now()

	var outbound, inbound []domain.RawTransfer
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outbound, err = f.query(gctx, c, OutboundQuery(address, f.maxCount))
		return err
	})
	g.Go(func() error {
		var err error
		inbound, err = f.query(gctx, c, InboundQuery(address, f.maxCount))
		return err
	})

	err := g.Wait()
	f.record(ctx, c, err == nil, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		f.logger.Error(ctx, "history fetch failed",
			append([]any{"chain", c.String(), "address", address}, apperror.LogAttrs(err)...)...)
		return nil, apperror.New(apperror.CodeHistoryFetchFailed)
	}

	txs := domain.Normalize(c, outbound, inbound)

	span.SetAttributes(
		attribute.Int("sent", len(outbound)),
		attribute.Int("received", len(inbound)),
		attribute.Int("transactions", len(txs)),
	)
	span.SetStatus(codes.Ok, "fetched")
	f.logger.Debug(ctx, "history fetched",
		"chain", c.String(),
		"sent", len(outbound),
		"received", len(inbound),
		"kept", len(txs))

	return txs, nil
}

func (f *Fetcher) query(ctx context.Context, c chain.Chain, q TransferQuery) ([]domain.RawTransfer, error) {
	var out []domain.RawTransfer
	err := f.limiter.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = f.source.GetAssetTransfers(ctx, c, q)
		return err
	})
	return out, err
}

func (f *Fetcher) record(ctx context.Context, c chain.Chain, success bool, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("chain", c.String()),
		attribute.Bool("success", success),
	)
	f.metrics.fetches.Add(ctx, 1, attrs)
	f.metrics.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

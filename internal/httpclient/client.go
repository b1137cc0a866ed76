// Package httpclient provides a JSON HTTP client instrumented with OTEL
// tracing and metrics.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 8 << 20

	metricRequestCounter = "http_client_requests_total"
)

// Client builds instrumented requests.
type Client interface {
	NewRequest() Request
	NewRequestWithOptions(opts ...RequestOption) Request
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	providerName   string
	tracer         trace.Tracer
	defaultHeaders map[string]string
	redactURL      func(string) string
	logResponse    bool
}

// NewInstrumentedClient creates a new instrumented HTTP client.
func NewInstrumentedClient(opts ...ClientOption) (Client, error) {
	options := &ClientOptions{}
	for _, o := range opts {
		o(options)
	}

	transport := options.roundTripper
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost:       defaultMaxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	timeout := defaultRequestTimeout
	if options.requestTimeout > 0 {
		timeout = options.requestTimeout
	}

	redact := options.redactURL
	if redact == nil {
		redact = func(u string) string { return u }
	}

	otelOpts := []otelhttp.Option{
		otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
			return otelhttptrace.NewClientTrace(ctx)
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method
		}),
	}
	if options.tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(options.tracerProvider))
	}

	// otelhttp records the request URL on its span, so it only ever sees the
	// redacted one. The real URL is restored underneath it.
	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &redactTransport{
			redact: redact,
			next:   otelhttp.NewTransport(&restoreTransport{next: transport}, otelOpts...),
		},
	}

	providerName := options.providerName
	if providerName == "" {
		providerName = "default"
	}

	meterProvider := options.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	meter := meterProvider.Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", providerName)),
	)
	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	tracer := options.tracer
	if tracer == nil {
		tracer = otel.Tracer("instrumented_http_client")
	}

	return &InstrumentedClient{
		client:         httpClient,
		requestCounter: requestCounter,
		providerName:   providerName,
		tracer:         tracer,
		defaultHeaders: options.headers,
		redactURL:      redact,
		logResponse:    options.logResponse,
	}, nil
}

// NewRequest creates a request builder with default options.
func (c *InstrumentedClient) NewRequest() Request {
	return c.NewRequestWithOptions()
}

// NewRequestWithOptions creates a request builder with per-request options.
func (c *InstrumentedClient) NewRequestWithOptions(opts ...RequestOption) Request {
	reqOpts := &RequestOptions{}
	for _, o := range opts {
		o(reqOpts)
	}

	headers := make(map[string]string, len(c.defaultHeaders))
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}

	return &requestBuilder{
		c:            c,
		headers:      headers,
		errorHandler: reqOpts.responseErrorHandler,
		labels:       reqOpts.labels,
	}
}

type realURLKey struct{}

// redactTransport hands the next transport a request whose URL has been
// redacted, keeping the original in the context.
type redactTransport struct {
	redact func(string) string
	next   http.RoundTripper
}

func (t *redactTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	original := r.URL.String()
	redacted := t.redact(original)
	if redacted == original {
		return t.next.RoundTrip(r)
	}
	u, err := url.Parse(redacted)
	if err != nil {
		return t.next.RoundTrip(r)
	}

	out := r.Clone(context.WithValue(r.Context(), realURLKey{}, r.URL))
	out.URL = u
	return t.next.RoundTrip(out)
}

// restoreTransport puts back the URL hidden by redactTransport.
type restoreTransport struct {
	next http.RoundTripper
}

func (t *restoreTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	u, ok := r.Context().Value(realURLKey{}).(*url.URL)
	if !ok {
		return t.next.RoundTrip(r)
	}
	out := r.Clone(r.Context())
	out.URL = u
	return t.next.RoundTrip(out)
}

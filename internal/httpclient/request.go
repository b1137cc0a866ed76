package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/wallet-dashboard/internal/apperror"
)

// Request builds and executes one HTTP call.
type Request interface {
	Get(ctx context.Context, url string) (*Response, error)
	Post(ctx context.Context, url string) (*Response, error)

	// SetBody sets the payload. Values other than []byte are JSON encoded.
	SetBody(body any) Request
	SetHeader(key, value string) Request
	// SetResult decodes a JSON response body into result.
	SetResult(result any) Request
}

// Response is a completed call with its body already read.
type Response struct {
	StatusCode int
	Header     http.Header
	body       []byte
}

// Body returns the response body.
func (r *Response) Body() []byte {
	return r.body
}

// IsError reports a status of 400 or above.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

type requestBuilder struct {
	c            *InstrumentedClient
	headers      map[string]string
	body         any
	result       any
	errorHandler ResponseErrorHandler
	labels       []*Label
}

func (r *requestBuilder) Get(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, url)
}

func (r *requestBuilder) Post(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, url)
}

func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) execute(ctx context.Context, method, url string) (*Response, error) {
	ctx, span := r.c.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", r.c.redactURL(url)),
			attribute.String("provider", r.c.providerName),
		),
	)
	defer span.End()

	var bodyReader io.Reader
	switch b := r.body.(type) {
	case nil:
	case []byte:
		bodyReader = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to marshal body")
			return nil, apperror.Internal(apperror.CodeInternalError, "marshal request body", err)
		}
		bodyReader = bytes.NewReader(encoded)
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create request")
		return nil, apperror.Internal(apperror.CodeInternalError, "build request", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.c.client.Do(req)
	if err != nil {
		return nil, r.transportError(ctx, span, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, r.transportError(ctx, span, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if r.c.logResponse {
		span.AddEvent("response.body", trace.WithAttributes(
			attribute.String("http.response_body", truncate(body, 4096)),
		))
	}

	response := &Response{StatusCode: resp.StatusCode, Header: resp.Header, body: body}

	var decodeErr error
	if r.result != nil && !response.IsError() {
		decodeErr = json.Unmarshal(body, r.result)
	}

	// The handler sees the response first so it can map statuses and
	// envelopes to its own codes.
	if r.errorHandler != nil {
		if handlerErr := r.errorHandler(resp.StatusCode, body); handlerErr != nil {
			span.RecordError(handlerErr)
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
			r.recordMetrics(ctx, false)
			return response, handlerErr
		}
	}

	if decodeErr != nil {
		span.RecordError(decodeErr)
		span.SetStatus(codes.Error, "failed to decode response")
		r.recordMetrics(ctx, false)
		return response, apperror.External(apperror.CodeInvalidResponse, r.c.providerName, decodeErr)
	}

	r.recordMetrics(ctx, !response.IsError())
	return response, nil
}

// transportError maps network failures to coded errors.
func (r *requestBuilder) transportError(ctx context.Context, span trace.Span, err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = r.c.redactURL(urlErr.URL)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "transport error")
	r.recordMetrics(ctx, false)

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		span.SetAttributes(attribute.Bool("request.timeout", true))
		return apperror.External(apperror.CodeServiceTimeout, r.c.providerName, err)
	}
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	return apperror.External(apperror.CodeExternalServiceError, r.c.providerName, err)
}

func (r *requestBuilder) recordMetrics(ctx context.Context, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("provider", r.c.providerName),
		attribute.Bool("success", success),
	}
	for _, label := range r.labels {
		attrs = append(attrs, attribute.String(label.Key, label.Value))
	}
	r.c.requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

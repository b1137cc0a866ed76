// Package alchemy implements app.TransferSource against the Alchemy
// alchemy_getAssetTransfers JSON-RPC method.
package alchemy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	chain "github.com/fd1az/wallet-dashboard/business/chain/domain"
	"github.com/fd1az/wallet-dashboard/business/history/app"
	"github.com/fd1az/wallet-dashboard/business/history/domain"
	"github.com/fd1az/wallet-dashboard/internal/apperror"
	"github.com/fd1az/wallet-dashboard/internal/httpclient"
	"github.com/fd1az/wallet-dashboard/internal/logger"
	"github.com/fd1az/wallet-dashboard/internal/ratelimit"
	"github.com/fd1az/wallet-dashboard/internal/retry"
)

const (
	tracerName = "alchemy"

	methodGetAssetTransfers = "alchemy_getAssetTransfers"

	// DefaultURLTemplate is the hosted endpoint; {network} and {apiKey} are substituted.
	DefaultURLTemplate = "https://{network}.g.alchemy.com/v2/{apiKey}"

	defaultTimeout = 15 * time.Second
)

// Config holds client settings. APIKey is injected rather than read from
// the environment so tests can substitute it.
type Config struct {
	APIKey            string
	URLTemplate       string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	// Retry wraps each call. Nil means a single attempt.
	Retry retry.Retry
}

// Client calls the indexing API.
type Client struct {
	client  httpclient.Client
	config  Config
	limiter *ratelimit.Limiter
	retry   retry.Retry
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

var _ app.TransferSource = (*Client)(nil)

// NewClient creates an Alchemy client.
func NewClient(cfg Config, log logger.LoggerInterface) (*Client, error) {
	if cfg.URLTemplate == "" {
		cfg.URLTemplate = DefaultURLTemplate
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultTimeout
	}

	if cfg.Retry == nil {
		cfg.Retry = retry.New(retry.WithAttempts(1))
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("alchemy"),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceResponse),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
		httpclient.WithURLRedactor(func(u string) string {
			if cfg.APIKey == "" {
				return u
			}
			return strings.ReplaceAll(u, cfg.APIKey, "REDACTED")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		client:  client,
		config:  cfg,
		limiter: ratelimit.New(cfg.RequestsPerSecond, 1),
		retry:   cfg.Retry,
		logger:  log,
		tracer:  tracer,
	}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type transfersParams struct {
	FromBlock    string   `json:"fromBlock"`
	ToBlock      string   `json:"toBlock"`
	FromAddress  string   `json:"fromAddress,omitempty"`
	ToAddress    string   `json:"toAddress,omitempty"`
	Category     []string `json:"category"`
	Order        string   `json:"order"`
	MaxCount     string   `json:"maxCount"`
	WithMetadata bool     `json:"withMetadata"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("alchemy rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result *struct {
		Transfers []domain.RawTransfer `json:"transfers"`
		PageKey   string               `json:"pageKey,omitempty"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// GetAssetTransfers returns up to q.MaxCount transfers, newest first.
func (c *Client) GetAssetTransfers(ctx context.Context, ch chain.Chain, q app.TransferQuery) ([]domain.RawTransfer, error) {
	direction := "to"
	if q.FromAddress != "" {
		direction = "from"
	}

	ctx, span := c.tracer.Start(ctx, "alchemy.get_asset_transfers",
		trace.WithAttributes(
			attribute.String("chain", ch.String()),
			attribute.String("direction", direction),
			attribute.Int("max_count", q.MaxCount),
		),
	)
	defer span.End()

	if c.config.APIKey == "" {
		err := apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("alchemy api key is not configured"))
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing api key")
		return nil, err
	}

	body := rpcRequest{
		JSONRPC: "2.0",
		Method:  methodGetAssetTransfers,
		Params: []any{transfersParams{
			FromBlock:    "0x0",
			ToBlock:      "latest",
			FromAddress:  q.FromAddress,
			ToAddress:    q.ToAddress,
			Category:     q.Categories,
			Order:        "desc",
			MaxCount:     fmt.Sprintf("0x%x", q.MaxCount),
			WithMetadata: true,
		}},
	}

	var result rpcResponse
	attempts := 0
	err := c.retry.Execute(ctx, func() error {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return apperror.External(apperror.CodeIndexerRequestFailed, "rate limiter wait", err)
		}

		body.ID = uuid.NewString()
		result = rpcResponse{}
		_, err := c.client.NewRequestWithOptions(
			httpclient.WithLabels(
				httpclient.NewLabel("method", methodGetAssetTransfers),
				httpclient.NewLabel("chain", ch.String()),
			),
			httpclient.WithResponseErrorHandler(alchemyErrorHandler),
		).
			SetBody(body).
			SetResult(&result).
			Post(ctx, c.endpoint(ch))
		if apperror.GetCode(err) == apperror.CodeInvalidResponse {
			return apperror.External(apperror.CodeIndexerBadResponse, "decode transfers", err)
		}
		return err
	})
	span.SetAttributes(attribute.Int("attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, err
	}

	if result.Error != nil {
		span.RecordError(result.Error)
		return nil, apperror.External(apperror.CodeIndexerRequestFailed,
			fmt.Sprintf("%s %s", ch, direction), result.Error)
	}
	if result.Result == nil {
		err := apperror.New(apperror.CodeIndexerBadResponse,
			apperror.WithContext("response has neither result nor error"))
		span.RecordError(err)
		return nil, err
	}

	transfers := result.Result.Transfers
	if transfers == nil {
		transfers = []domain.RawTransfer{}
	}

	span.SetAttributes(attribute.Int("transfers", len(transfers)))
	span.SetStatus(codes.Ok, "fetched")

	c.logger.Debug(ctx, "fetched asset transfers",
		"chain", ch.String(),
		"direction", direction,
		"count", len(transfers))

	return transfers, nil
}

func (c *Client) endpoint(ch chain.Chain) string {
	u := strings.ReplaceAll(c.config.URLTemplate, "{network}", chain.Lookup(ch).Network)
	return strings.ReplaceAll(u, "{apiKey}", c.config.APIKey)
}

// alchemyErrorHandler maps non-2xx responses to coded errors. A 2xx body
// that is not JSON is reported as a bad response.
func alchemyErrorHandler(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return apperror.New(apperror.CodeIndexerUnauthorized,
			apperror.WithContext(fmt.Sprintf("HTTP %d", statusCode)))
	case statusCode == http.StatusTooManyRequests:
		return apperror.New(apperror.CodeIndexerRateLimited,
			apperror.WithContext(fmt.Sprintf("HTTP %d", statusCode)))
	case statusCode >= 400:
		var env rpcResponse
		if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
			return apperror.External(apperror.CodeIndexerRequestFailed,
				fmt.Sprintf("HTTP %d", statusCode), env.Error)
		}
		return apperror.New(apperror.CodeIndexerRequestFailed,
			apperror.WithContext(fmt.Sprintf("HTTP %d: %s", statusCode, truncate(string(body), 200))))
	}

	if !json.Valid(body) {
		return apperror.New(apperror.CodeIndexerBadResponse,
			apperror.WithContext(truncate(string(body), 200)))
	}
	return nil
}

// Retryable reports whether a failed call may succeed if repeated: rate
// limiting and transport failures.
func Retryable(err error) bool {
	switch apperror.GetCode(err) {
	case apperror.CodeIndexerRateLimited, apperror.CodeExternalServiceError, apperror.CodeServiceTimeout:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

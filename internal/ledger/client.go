package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"toronet-wallet/internal/models"
)

// Observer receives the outcome and latency of every ledger call.
type Observer interface {
	ObserveLedgerCall(op, outcome string, elapsed time.Duration)
}

// Client issues JSON requests against the Toronet REST API with rate
// limiting and structured logging. Only reads are retried.
type Client struct {
	BaseURL     string
	RateLimiter *rate.Limiter
	MaxRetries  int
	RetryDelay  time.Duration
	Logger      *zerolog.Logger
	HTTPClient  *http.Client
	Observer    Observer
}

// NewClient creates a new ledger client with the given configuration
func NewClient(baseURL, apiKey string, rateLimit float64, maxRetries int, retryDelay, httpTimeout time.Duration, logger *zerolog.Logger) *Client {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		RateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		MaxRetries:  maxRetries,
		RetryDelay:  retryDelay,
		Logger:      logger,
		HTTPClient: &http.Client{
			Timeout: httpTimeout,
			Transport: &CustomTransport{
				Base:   http.DefaultTransport,
				ApiKey: apiKey,
			},
		},
	}
}

// CustomTransport sets the JSON content type and optional API key on every request.
type CustomTransport struct {
	Base   http.RoundTripper
	ApiKey string
}

func (t *CustomTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	if t.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.ApiKey)
	}
	return t.Base.RoundTrip(req)
}

// EncodeQuery renders op and params in the ledger's bracketed form:
// op=x&params[0][name]=a&params[0][value]=b. Brackets are left literal.
func EncodeQuery(op string, params ...models.Param) string {
	var b strings.Builder
	b.WriteString("op=")
	b.WriteString(url.QueryEscape(op))
	for i, p := range params {
		idx := strconv.Itoa(i)
		b.WriteString("&params[" + idx + "][name]=")
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteString("&params[" + idx + "][value]=")
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// Get performs a read operation and decodes the response body into out.
func (c *Client) Get(ctx context.Context, path, op string, out any, params ...models.Param) (*models.Envelope, error) {
	target := c.BaseURL + path + "?" + EncodeQuery(op, params...)

	c.Logger.Debug().
		Str("path", path).
		Str("op", op).
		Msg("Making ledger read")

	var env *models.Envelope
	err := c.retry(ctx, op, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return err
		}
		env, err = c.do(ctx, req, op, out)
		return err
	})
	if err != nil {
		c.logFailure(err, path, op)
		return nil, err
	}
	return env, nil
}

// Post sends a write operation. Writes are never retried.
func (c *Client) Post(ctx context.Context, path string, request models.Request, out any) (*models.Envelope, error) {
	c.Logger.Debug().
		Str("path", path).
		Str("op", request.Op).
		Int("params", len(request.Params)).
		Msg("Making ledger write")

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	env, err := c.do(ctx, req, request.Op, out)
	if err != nil {
		c.logFailure(err, path, request.Op)
		return nil, err
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, op string, out any) (env *models.Envelope, err error) {
	start := time.Now()
	defer func() {
		if c.Observer != nil {
			c.Observer.ObserveLedgerCall(op, outcome(err), time.Since(start))
		}
	}()

	if err := c.RateLimiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, transportError(op, ctx.Err())
		}
		return nil, transportError(op, fmt.Errorf("rate limit wait: %w", err))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, err)
	}

	return decode(op, resp.StatusCode, body, out)
}

// decode maps a raw response into either the envelope plus out, a
// BusinessError, or a TransportError.
func decode(op string, status int, body []byte, out any) (*models.Envelope, error) {
	ok := status >= 200 && status < 300

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if !ok {
			return nil, &TransportError{Kind: KindStatus, Op: op, StatusCode: status, Err: fmt.Errorf("HTTP %d", status)}
		}
		return nil, &TransportError{Kind: KindMalformed, Op: op, StatusCode: status, Err: err}
	}

	if env.Rejected() || (!ok && (env.Message != "" || env.Error != "" || len(env.Errors) > 0)) {
		return nil, &BusinessError{
			Op:         op,
			Message:    firstNonEmpty(env.Message, env.Error),
			Errors:     env.Errors,
			StatusCode: status,
		}
	}
	if !ok {
		return nil, &TransportError{Kind: KindStatus, Op: op, StatusCode: status, Err: fmt.Errorf("HTTP %d", status)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &TransportError{Kind: KindMalformed, Op: op, StatusCode: status, Err: err}
		}
	}
	return &env, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var be *BusinessError
	if errors.As(err, &be) {
		return "rejected"
	}
	var te *TransportError
	if errors.As(err, &te) {
		return string(te.Kind)
	}
	return "error"
}

func (c *Client) logFailure(err error, path, op string) {
	var be *BusinessError
	if errors.As(err, &be) {
		c.Logger.Info().
			Str("path", path).
			Str("op", op).
			Str("message", be.Message).
			Msg("Ledger rejected request")
		return
	}
	c.Logger.Error().
		Err(err).
		Str("path", path).
		Str("op", op).
		Msg("Ledger call failed")
}

// retry executes a function with retry logic. Business rejections and
// context errors end the loop immediately.
func (c *Client) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < c.MaxRetries; i++ {
		if err = fn(); err == nil || !retryable(err) || i == c.MaxRetries-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return transportError(op, ctx.Err())
		case <-time.After(c.RetryDelay):
		}
	}
	return err
}

func retryable(err error) bool {
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	return te.Kind == KindNetwork || te.Kind == KindStatus
}

// Close closes the HTTP client connections
func (c *Client) Close() {
	if c.HTTPClient != nil {
		c.HTTPClient.CloseIdleConnections()
	}
}

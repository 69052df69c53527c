// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package emby

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
	"strings"
	"time"

	"github.com/ManuGH/embyplay/internal/core/urlutil"
	xglog "github.com/ManuGH/embyplay/internal/log"
	"github.com/ManuGH/embyplay/internal/metrics"
	"github.com/ManuGH/embyplay/internal/platform/httpx"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimit      = 5
	defaultRateLimitBurst = 10
	maxErrorBodyBytes     = 4 << 10

	clientName = "embyplay"
)

// Config configures a Client.
type Config struct {
	BaseURL  string
	UserID   string
	ServerID string
	Token    string

	DeviceID   string
	DeviceName string
	Version    string

	Timeout          time.Duration
	RateLimit        float64
	RateBurst        int
	BreakerThreshold int
	BreakerReset     time.Duration

	// HTTPClient overrides the traced default client.
	HTTPClient *http.Client
}

// Client sends JSON requests to an Emby server.
type Client struct {
	cfg     Config
	base    string
	http    *http.Client
	limiter *rate.Limiter
	breaker *CircuitBreaker
	items   singleflight.Group
	logger  zerolog.Logger
}

// New creates a client. BaseURL must be an absolute http(s) URL.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q must be an absolute http(s) URL", ErrInvalidRequest, cfg.BaseURL)
	}

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultRateLimitBurst
	}
	if cfg.DeviceName == "" {
		cfg.DeviceName = clientName
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpx.New(httpx.Options{Timeout: cfg.Timeout, Traced: true, SpanName: "emby"})
	}

	return &Client{
		cfg:     cfg,
		base:    base,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		breaker: NewCircuitBreaker("emby", cfg.BreakerThreshold, cfg.BreakerReset),
		logger:  xglog.WithComponent("emby"),
	}, nil
}

// BaseURL returns the normalized server URL without trailing slash.
func (c *Client) BaseURL() string { return c.base }

// UserID returns the configured user id.
func (c *Client) UserID() string { return c.cfg.UserID }

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// Expand resolves the {server} and {UserId} placeholders of a URL template.
func (c *Client) Expand(urlTemplate string) string {
	r := strings.NewReplacer("{server}", c.base, "{UserId}", url.PathEscape(c.cfg.UserID))
	return r.Replace(urlTemplate)
}

// Send performs one request. body is JSON-encoded when non-nil; the response is
// decoded into out when non-nil. Every failure matches ErrTransport.
func (c *Client) Send(ctx context.Context, method, urlTemplate string, body, out any) error {
	op := operationFor(urlTemplate)
	target := c.Expand(urlTemplate)

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Sentinel: ErrInvalidRequest, Operation: op, Err: err}
		}
		payload = b
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Sentinel: contextSentinel(ctx, err), Operation: op, Err: err}
	}

	// Client errors (4xx) are returned without counting against the breaker.
	var clientErr error
	err := c.breaker.Execute(func() error {
		status, err := c.do(ctx, op, method, target, payload, out)
		if err != nil && status > 0 && status < http.StatusInternalServerError {
			clientErr = err
			return nil
		}
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		return &Error{Sentinel: ErrUnavailable, Operation: op, Err: err}
	}
	if err != nil {
		return err
	}
	return clientErr
}

func (c *Client) do(ctx context.Context, op, method, target string, payload []byte, out any) (int, error) {
	logger := xglog.WithContext(ctx, c.logger)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, &Error{Sentinel: ErrInvalidRequest, Operation: op, Err: err}
	}
	c.applyHeaders(req, payload != nil)

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		metrics.RecordUpstreamRequest(op, 0, elapsed.Seconds())
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "emby.request_failed").
			Str(xglog.FieldOperation, op).
			Str(xglog.FieldURL, urlutil.SanitizeURL(target)).
			Msg("emby request failed")
		return 0, &Error{Sentinel: classifyTransportError(ctx, err), Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RecordUpstreamRequest(op, resp.StatusCode, elapsed.Seconds())
	logger.Debug().
		Str(xglog.FieldEvent, "emby.request").
		Str(xglog.FieldOperation, op).
		Str("method", method).
		Int("status", resp.StatusCode).
		Dur("duration", elapsed).
		Str(xglog.FieldURL, urlutil.SanitizeURL(target)).
		Msg("emby request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return resp.StatusCode, &Error{
			Sentinel:  sentinelForStatus(resp.StatusCode),
			Operation: op,
			Status:    resp.StatusCode,
			Body:      strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return resp.StatusCode, nil
		}
		return resp.StatusCode, &Error{Sentinel: ErrBadResponse, Operation: op, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, nil
}

func (c *Client) applyHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("X-Emby-Token", c.cfg.Token)
	}
	req.Header.Set("X-Emby-Authorization", fmt.Sprintf(
		`MediaBrowser UserId="%s", Client="%s", Device="%s", DeviceId="%s", Version="%s"`,
		c.cfg.UserID, clientName, c.cfg.DeviceName, c.cfg.DeviceID, c.cfg.Version,
	))
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return contextSentinel(ctx, ctxErr)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnavailable
}

func contextSentinel(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrCanceled
}

// operationFor derives a bounded metric label from a URL template.
func operationFor(urlTemplate string) string {
	path := urlTemplate
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	switch {
	case strings.HasSuffix(path, "/PlaybackInfo"):
		return "playback_info"
	case strings.HasSuffix(path, "/LiveStreams/Open"):
		return "live_stream_open"
	case strings.HasSuffix(path, "/LiveStreams/Close"):
		return "live_stream_close"
	case strings.HasSuffix(path, "/AdditionalParts"):
		return "additional_parts"
	case strings.Contains(path, "/Users/") && strings.Contains(path, "/Items/"):
		return "item"
	default:
		return "other"
	}
}

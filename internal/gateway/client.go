// Package gateway is the HTTP client for the gobench API gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"pkt.systems/benchdeck/schema"
	"pkt.systems/pslog"
)

const (
	applicationsPath = "/api/applications"
	requestIDHeader  = "X-Request-ID"
	maxErrorBody     = 4 << 10
)

// BreakerConfig tunes the circuit breaker in front of the gateway.
type BreakerConfig struct {
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenRequests bounds probes while half-open.
	HalfOpenRequests uint32
}

// Config configures a gateway client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Breaker    BreakerConfig
	HTTPClient *http.Client
	Logger     pslog.Logger
	UserAgent  string
	// OnBreakerChange observes breaker state transitions.
	OnBreakerChange func(from, to string)
}

// Client implements the gateway contract over HTTP.
type Client struct {
	base      *url.URL
	http      *http.Client
	cb        *gobreaker.CircuitBreaker
	logger    pslog.Logger
	userAgent string
}

// StatusError is returned for non-2xx gateway responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is maps 404 responses onto schema.ErrAppNotFound.
func (e *StatusError) Is(target error) bool {
	return target == schema.ErrAppNotFound && e.StatusCode == http.StatusNotFound
}

// New constructs a gateway client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("gateway base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse gateway base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway base url must be http or https: %q", raw)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	logger = logger.With("component", "gateway", "base_url", base.String())
	breaker := cfg.Breaker
	if breaker.Failures == 0 {
		breaker.Failures = 5
	}
	if breaker.OpenTimeout <= 0 {
		breaker.OpenTimeout = 30 * time.Second
	}
	if breaker.HalfOpenRequests == 0 {
		breaker.HalfOpenRequests = 1
	}
	c := &Client{base: base, http: httpClient, logger: logger, userAgent: cfg.UserAgent}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gateway",
		MaxRequests: breaker.HalfOpenRequests,
		Timeout:     breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breaker.Failures
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway breaker state changed", "from", from.String(), "to", to.String())
			if cfg.OnBreakerChange != nil {
				cfg.OnBreakerChange(from.String(), to.String())
			}
		},
	})
	return c, nil
}

// BaseURL returns the normalized gateway base url.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// List returns every application known to the backend.
func (c *Client) List(ctx context.Context) ([]schema.Application, error) {
	var wire []wireApplication
	if err := c.do(ctx, http.MethodGet, applicationsPath, nil, &wire); err != nil {
		return nil, err
	}
	apps := make([]schema.Application, 0, len(wire))
	for _, w := range wire {
		apps = append(apps, w.application())
	}
	return apps, nil
}

// Create submits a new application. The scenario must already be encoded.
func (c *Client) Create(ctx context.Context, req schema.GatewayCreateRequest) (schema.Application, error) {
	var wire wireApplication
	if err := c.do(ctx, http.MethodPost, applicationsPath, req, &wire); err != nil {
		return schema.Application{}, err
	}
	return wire.application(), nil
}

// Delete removes an application.
func (c *Client) Delete(ctx context.Context, id schema.AppID) error {
	return c.do(ctx, http.MethodDelete, applicationPath(id), nil, nil)
}

// Cancel stops a running application.
func (c *Client) Cancel(ctx context.Context, id schema.AppID) error {
	return c.do(ctx, http.MethodPut, applicationPath(id)+"/cancel", nil, nil)
}

func applicationPath(id schema.AppID) string {
	return applicationsPath + "/" + url.PathEscape(string(id))
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	requestID := uuid.NewString()
	log := c.logger.With("method", method, "path", path, "request_id", requestID)
	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, requestID, body, out)
	})
	elapsed := time.Since(start)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		log.Warn("gateway request rejected", "err", err)
		return fmt.Errorf("%w: %v", schema.ErrGatewayUnavailable, err)
	}
	if err != nil {
		log.Warn("gateway request failed", "err", err, "duration_ms", elapsed.Milliseconds())
		return err
	}
	log.Debug("gateway request", "duration_ms", elapsed.Milliseconds())
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, requestID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// breakerSuccess keeps client errors and caller cancellation from tripping
// the breaker.
func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.StatusCode < 500
	}
	return false
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return strings.TrimSpace(string(data))
}

// Package upstream is the shared outbound HTTP client used by every
// collaborator adapter: circuit breaker, optional politeness throttle,
// tracing and metrics around a plain net/http client.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/pkg/metrics"
	"github.com/samirrijal/skywatch/internal/pkg/telemetry"
)

const maxBodyBytes = 4 << 20

// statusError carries a non-2xx response through the breaker.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

// Client performs GET requests against one collaborator.
type Client struct {
	name      string
	http      *http.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
	limiter   *rate.Limiter
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRate throttles outbound calls to rps requests per second.
func WithRate(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client named after the collaborator it talks to.
func New(name string, opts ...Option) *Client {
	c := &Client{
		name: name,
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}

	metrics.BreakerState.WithLabelValues(name).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// client errors and cancellations say nothing about the upstream's health
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *statusError
			return errors.As(err, &se) && se.status < 500 && se.status != http.StatusTooManyRequests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "upstream", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return c
}

// Name returns the collaborator name.
func (c *Client) Name() string { return c.name }

// Get fetches rawURL and returns the body of a 2xx response. Failures are
// domain errors carrying the upstream status when there was one.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	ctx, span := telemetry.Tracer().Start(ctx, c.name+" GET",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.AttrUpstream.String(c.name)),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, "throttle wait")
			// Wait fails early, with a plain error, when the next token lies
			// past the deadline.
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, domain.Upstream(c.name+" throttle wait canceled", 0, err)
			}
			return nil, domain.UpstreamTimeout(c.name+" throttle wait exceeds deadline", err)
		}
	}

	start := time.Now()
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, rawURL, header)
	})
	metrics.UpstreamDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.UpstreamRequests.WithLabelValues(c.name, "ok").Inc()
		span.SetAttributes(telemetry.AttrHTTPStatus.Int(http.StatusOK))
		return body, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var se *statusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.UpstreamRequests.WithLabelValues(c.name, "rejected").Inc()
		return nil, domain.Upstream(c.name+" unavailable", http.StatusServiceUnavailable, err)
	case errors.As(err, &se):
		metrics.UpstreamRequests.WithLabelValues(c.name, "status").Inc()
		span.SetAttributes(telemetry.AttrHTTPStatus.Int(se.status))
		return nil, domain.Upstream(c.name+" request failed", se.status, err)
	default:
		metrics.UpstreamRequests.WithLabelValues(c.name, "error").Inc()
		return nil, domain.Upstream(c.name+" request failed", 0, err)
	}
}

// GetJSON is Get followed by JSON decoding into out.
func (c *Client) GetJSON(ctx context.Context, rawURL string, header http.Header, out any) error {
	body, err := c.Get(ctx, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.Upstream(c.name+" returned malformed JSON", http.StatusBadGateway, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, &statusError{status: resp.StatusCode, body: snippet}
	}
	return body, nil
}

package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"
)

var (
	ErrRateLimited         = errors.New("upstream rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrCircuitOpen         = errors.New("circuit breaker open")
)

// RetryPolicy retries 429 and 5xx responses. Delays is a ladder indexed by
// attempt; the last entry repeats. Retry-After wins when present, capped
// at MaxWait.
type RetryPolicy struct {
	MaxRetries int
	Delays     []time.Duration
	MaxWait    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		Delays: []time.Duration{
			250 * time.Millisecond,
			500 * time.Millisecond,
			1 * time.Second,
		},
		MaxWait: 10 * time.Second,
	}
}

// HTTPClient wraps an *http.Client with a circuit breaker and retries.
type HTTPClient struct {
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[*http.Response]
	retry     RetryPolicy
	userAgent string
	sleep     func(ctx context.Context, d time.Duration) error
}

type ClientOption func(*HTTPClient)

// WithSleepFunc replaces the wait between retries, for tests.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *HTTPClient) {
		c.sleep = fn
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

func NewHTTPClient(name string, retry RetryPolicy, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		client: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		retry:     retry,
		userAgent: "flightwatch/1.0",
		sleep:     sleepContext,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Do sends req, retrying 429/5xx per the policy. Any other status is
// returned to the caller, who must close the body.
func (c *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
	}

	var lastStatus int
	var lastErr error

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if body != nil {
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500 {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			return r, nil
		})
		if err == nil {
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if ctxErr := req.Context().Err(); ctxErr != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, ctxErr
		}

		lastErr = err
		lastStatus = 0
		var wait time.Duration
		if resp != nil {
			lastStatus = resp.StatusCode
			wait = retryAfter(resp, c.retry.MaxWait)
			resp.Body.Close()
		}

		if attempt == c.retry.MaxRetries {
			break
		}
		if wait == 0 {
			wait = c.ladderDelay(attempt)
		}
		if err := c.sleep(req.Context(), wait); err != nil {
			return nil, err
		}
	}

	switch {
	case lastStatus == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %v", ErrRateLimited, lastErr)
	case lastStatus >= 500:
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
	default:
		return nil, fmt.Errorf("request failed: %w", lastErr)
	}
}

func (c *HTTPClient) ladderDelay(attempt int) time.Duration {
	if len(c.retry.Delays) == 0 {
		return 0
	}
	if attempt >= len(c.retry.Delays) {
		attempt = len(c.retry.Delays) - 1
	}
	return c.retry.Delays[attempt]
}

func retryAfter(resp *http.Response, maxWait time.Duration) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	var wait time.Duration
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		wait = time.Duration(seconds) * time.Second
	} else if t, err := http.ParseTime(value); err == nil {
		wait = time.Until(t)
	}

	if wait < 0 {
		return 0
	}
	if maxWait > 0 && wait > maxWait {
		return maxWait
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

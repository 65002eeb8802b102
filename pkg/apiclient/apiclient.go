// Package apiclient makes outbound HTTP calls to third-party services.
//
// Requests go through a retrying client behind a circuit breaker, and the
// async methods run on a bounded worker pool with the outcome delivered to
// a callback, so handlers never block on a slow upstream.
package apiclient

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"github.com/breezehq/breeze/internal/logger"
	"github.com/breezehq/breeze/pkg/httpd"
)

// Result is the outcome of one outbound call. When Err is set the other
// fields are zero.
type Result struct {
	StatusCode int
	Body       string
	Err        error
}

// Callback receives the Result of an async call on a pool worker.
type Callback func(Result)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	// Name labels the circuit breaker in log lines.
	Name string

	// Timeout is the per-attempt HTTP timeout (default 30s).
	Timeout time.Duration

	// RetryMax is the number of retries per request (default 3).
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the backoff between retries
	// (defaults 500ms and 5s).
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// TripAfter is the consecutive-failure count that opens the circuit
	// (default 5).
	TripAfter uint32

	// OpenTimeout is how long the circuit stays open before probing again
	// (default 30s).
	OpenTimeout time.Duration

	// Workers and QueueCapacity size the async dispatch pool (defaults 2
	// and 1024).
	Workers       int
	QueueCapacity int
}

// Client is safe for concurrent use. Close drains the async pool.
type Client struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	pool    *httpd.TaskPool
}

// New builds a Client from opts.
func New(opts Options) *Client {
	if opts.Name == "" {
		opts.Name = "apiclient"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = 3
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 500 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 5 * time.Second
	}
	if opts.TripAfter == 0 {
		opts.TripAfter = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = 1024
	}

	rc := retryablehttp.Client{
		HTTPClient:   &http.Client{Timeout: opts.Timeout},
		RetryWaitMin: opts.RetryWaitMin,
		RetryWaitMax: opts.RetryWaitMax,
		RetryMax:     opts.RetryMax,
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    opts.Name,
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.TripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit %s changed state: %s -> %s", name, from, to)
		},
	})

	return &Client{
		http:    rc.StandardClient(),
		breaker: breaker,
		pool:    httpd.NewTaskPool(opts.Workers, opts.QueueCapacity),
	}
}

// DoSync performs the call on the caller's goroutine. Non-2xx statuses are
// not errors; they come back in Result.StatusCode.
func (c *Client) DoSync(method, url string, headers map[string]string, body string) Result {
	v, err := c.breaker.Execute(func() (any, error) {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}

		req, err := http.NewRequest(method, url, reader)
		if err != nil {
			return nil, err
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return Result{StatusCode: resp.StatusCode, Body: string(data)}, nil
	})
	if err != nil {
		return Result{Err: fmt.Errorf("calling %s %s: %w", method, url, err)}
	}
	return v.(Result)
}

// Do performs the call on a pool worker and delivers the Result to cb. It
// returns false without calling cb when the pool is stopped or saturated.
func (c *Client) Do(method, url string, headers map[string]string, body string, cb Callback) bool {
	return c.pool.Submit(func() {
		result := c.DoSync(method, url, headers, body)
		if cb != nil {
			cb(result)
		}
	})
}

// Get issues an async GET.
func (c *Client) Get(url string, headers map[string]string, cb Callback) bool {
	return c.Do(http.MethodGet, url, headers, "", cb)
}

// Post issues an async POST.
func (c *Client) Post(url string, headers map[string]string, body string, cb Callback) bool {
	return c.Do(http.MethodPost, url, headers, body, cb)
}

// Put issues an async PUT.
func (c *Client) Put(url string, headers map[string]string, body string, cb Callback) bool {
	return c.Do(http.MethodPut, url, headers, body, cb)
}

// Delete issues an async DELETE.
func (c *Client) Delete(url string, headers map[string]string, cb Callback) bool {
	return c.Do(http.MethodDelete, url, headers, "", cb)
}

// Patch issues an async PATCH.
func (c *Client) Patch(url string, headers map[string]string, body string, cb Callback) bool {
	return c.Do(http.MethodPatch, url, headers, body, cb)
}

// Close drains queued calls and stops the pool workers.
func (c *Client) Close() {
	c.pool.Stop()
}

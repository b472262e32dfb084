package salla

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultMaxRetries        = 2
	defaultInitialRetryDelay = 500 * time.Millisecond
	defaultMaxRetryDelay     = 5 * time.Second
	retryDelayMultiple       = 2.0
)

// retryingClient wraps an http.Client with exponential backoff. Retries are
// limited to transport errors and 5xx/429 responses: a 401 from the Admin
// API means the stored token is bad and retrying cannot help.
type retryingClient struct {
	maxRetries        int
	initialRetryDelay time.Duration
	maxRetryDelay     time.Duration
	httpClient        *http.Client
}

func newRetryingClient(httpClient *http.Client, maxRetries int) *retryingClient {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &retryingClient{
		maxRetries:        maxRetries,
		initialRetryDelay: defaultInitialRetryDelay,
		maxRetryDelay:     defaultMaxRetryDelay,
		httpClient:        httpClient,
	}
}

func retryable(err error, resp *http.Response) bool {
	if err != nil {
		// Network errors, timeouts, connection errors are retryable
		return true
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// Do executes the request, retrying with exponential backoff. Requests built
// by the client carry no body, so Clone is always safe to re-send.
func (c *retryingClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	var resp *http.Response
	delay := c.initialRetryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				if lastErr != nil {
					return nil, fmt.Errorf(
						"context cancelled after %d attempts: %w", attempt, lastErr)
				}
				return nil, ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * retryDelayMultiple)
				if delay > c.maxRetryDelay {
					delay = c.maxRetryDelay
				}
			}
		}

		resp, lastErr = c.httpClient.Do(req.Clone(ctx))
		if !retryable(lastErr, resp) {
			return resp, lastErr
		}

		// Close response body before retry to prevent resource leak
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
	}
	return resp, lastErr
}

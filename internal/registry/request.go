// Retrying HTTP client shared by both registry implementations
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cmx/internal/shared"
	"golang.org/x/time/rate"
)

// ClientOpts contains configuration for a retrying [Client].
type ClientOpts struct {
	HTTPClient *http.Client
	Attempts   int           // Total attempts per request (default: 2)
	Delay      time.Duration // Base delay between attempts, grows linearly (default: 500ms)
	RateLimit  float64       // Requests per second, 0 disables throttling
	Logger     *log.Logger
}

// Client wraps an [http.Client] with a bounded retry budget, linear backoff,
// and request rate limiting. It knows nothing about the operations it
// executes; callers interpret business-level errors in decoded bodies.
type Client struct {
	httpClient *http.Client
	attempts   int
	delay      time.Duration
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a retrying Client from opts, filling in defaults.
func NewClient(opts ClientOpts) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Attempts <= 0 {
		opts.Attempts = 2
	}
	if opts.Delay <= 0 {
		opts.Delay = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Client{
		httpClient: opts.HTTPClient,
		attempts:   opts.Attempts,
		delay:      opts.Delay,
		limiter:    limiter,
		logger:     opts.Logger,
	}
}

// Do executes one HTTP operation with the client's retry budget. The request
// body is re-marshaled on every attempt. Transport failures and non-2xx
// responses are retried with a linearly increasing delay; the last error is
// returned once the budget is exhausted. A 2xx response is decoded into
// result when result is non-nil.
//
// Permanently rejected members (Mailchimp compliance state) are detected from
// the error body and returned immediately without burning further attempts.
func (c *Client) Do(ctx context.Context, method, url string, headers http.Header, body, result any) error {
	var lastErr error

	for attempt := 1; attempt <= c.attempts; attempt++ {
		if attempt > 1 {
			c.logger.Warn("retrying request", "method", method, "url", url, "attempt", attempt, "err", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.delay * time.Duration(attempt-1)):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		status, respBody, err := c.do(ctx, method, url, headers, body)
		if err != nil {
			lastErr = err
			continue
		}

		if status < 200 || status >= 300 {
			err := apiError(status, respBody)
			if isComplianceError(status, respBody) {
				return fmt.Errorf("%w: %v", shared.ErrComplianceState, err)
			}
			lastErr = err
			continue
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("%w after %d attempts: %v", shared.ErrAPIRequest, c.attempts, lastErr)
}

// do performs a single request attempt and reads the full response body.
func (c *Client) do(ctx context.Context, method, url string, headers http.Header, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}

// apiError builds an error from a non-2xx response, preferring the provider's
// own detail fields when the body is JSON.
func apiError(status int, body []byte) error {
	var detail struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &detail); err == nil && detail.Title != "" {
		if detail.Detail != "" {
			return fmt.Errorf("status %d: %s: %s", status, detail.Title, detail.Detail)
		}
		return fmt.Errorf("status %d: %s", status, detail.Title)
	}

	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Errorf("status %d: %s", status, snippet)
}

// isComplianceError reports whether the provider permanently rejected the
// member (e.g. previously unsubscribed or bounced emails on Mailchimp).
func isComplianceError(status int, body []byte) bool {
	if status < 400 || status >= 500 {
		return false
	}

	var detail struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &detail); err != nil {
		return false
	}
	title := strings.ToLower(detail.Title)
	return strings.Contains(title, "compliance state") || strings.Contains(title, "forgotten email")
}

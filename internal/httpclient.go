package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is used when no base URL is configured
const DefaultAPIURL = "http://localhost:8080/api"

// maxErrorBody caps how much of an error response is kept in messages
const maxErrorBody = 512

// publicPaths never carry the bearer credential
var publicPaths = map[string]bool{
	"/auth/register": true,
	"/auth/login":    true,
}

// HTTPClientOption configures an HTTPClient
type HTTPClientOption func(*HTTPClient)

// WithTransport replaces the underlying *http.Client
func WithTransport(client *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.http = client
	}
}

// WithRateLimit caps outbound requests per second. Zero or less disables it.
func WithRateLimit(requestsPerSecond float64, burst int) HTTPClientOption {
	return func(c *HTTPClient) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// HTTPClient sends JSON requests to the backend, attaching the current credential
// and reporting authorization failures to a single registered handler.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// NewHTTPClient creates a client rooted at baseURL
func NewHTTPClient(baseURL string, timeout time.Duration, opts ...HTTPClientOption) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// SetToken sets (or with "" clears) the bearer credential
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the attached credential
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetUnauthorizedHandler installs the callback run on every 401 response.
// It replaces any previous handler; nil removes it.
func (c *HTTPClient) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

// Do sends a request and decodes a 2xx JSON body into out (if non-nil).
// Failures are returned as *APIError; a 401 runs the unauthorized handler first.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &APIError{Method: method, Path: path, Err: err}
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{Method: method, Path: path, Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" && !publicPaths[path] {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		LogDebug("%s %s [%s] failed: %v", method, path, requestID, err)
		return &APIError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	LogDebug("%s %s [%s] -> %d in %s", method, path, requestID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	// The status alone revokes the credential, whatever happens to the body.
	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.RLock()
		handler := c.onUnauthorized
		c.mu.RUnlock()
		if handler != nil {
			handler()
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message, fields := decodeErrorBody(data)
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    message,
			Fields:     fields,
		}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

// decodeErrorBody understands {"error": "..."}, {"message": "..."} and
// per-field maps like {"companyName": "Company name is required"}.
func decodeErrorBody(data []byte) (string, map[string]string) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", nil
	}
	if !gjson.ValidBytes(trimmed) {
		text := string(trimmed)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody] + "..."
		}
		return text, nil
	}

	parsed := gjson.ParseBytes(trimmed)
	if !parsed.IsObject() {
		return "", nil
	}
	if msg := parsed.Get("error"); msg.Exists() {
		return msg.String(), nil
	}
	if msg := parsed.Get("message"); msg.Exists() {
		return msg.String(), nil
	}

	fields := make(map[string]string)
	parsed.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.String {
			fields[key.String()] = value.String()
		}
		return true
	})
	if len(fields) == 0 {
		return "", nil
	}
	return "", fields
}

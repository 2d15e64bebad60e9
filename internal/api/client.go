package api

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

	"github.com/eleven-am/todosync/internal/credentials"
	"github.com/eleven-am/todosync/internal/logger"
	"github.com/eleven-am/todosync/internal/models"
	"github.com/eleven-am/todosync/pkg/todosync"
	"github.com/google/uuid"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "http://localhost:8080" + todosync.APIBasePath

// AuthExpiredHandler is called once for every request that came back 401,
// after the cached token was cleared.
type AuthExpiredHandler func(ctx context.Context, err error)

// Client sends JSON requests to the todo API, attaching the cached bearer
// token and de-authenticating on 401.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    *time.Duration
	cache      credentials.Cache
	logger     logger.Logger

	mu            sync.RWMutex
	onAuthExpired AuthExpiredHandler
}

// Option describes the available options
// for creating the client.
type Option func(c *Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request. Zero disables the bound. It is applied
// to a copy of the HTTP client, so a shared client is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithAuthExpiredHandler(h AuthExpiredHandler) Option {
	return func(c *Client) {
		c.onAuthExpired = h
	}
}

func New(baseURL string, cache credentials.Cache, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		cache:      cache,
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	if c.logger == nil {
		c.logger = logger.API()
	}
	return c
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthExpiredHandler replaces the 401 handler.
func (c *Client) SetAuthExpiredHandler(h AuthExpiredHandler) {
	c.mu.Lock()
	c.onAuthExpired = h
	c.mu.Unlock()
}

// Do sends a request and decodes a 2xx body into out (if non-nil).
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: %s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: %s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", todosync.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	token, err := c.cache.Get(ctx)
	if err != nil {
		c.logger.Warn("Failed to read cached token, sending without credentials", "error", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", "op", op, "request_id", requestID, "error", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	c.logger.Debug("Request completed", "op", op, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := &ServerError{
			Op:      op,
			Status:  resp.StatusCode,
			Body:    payload,
			Message: errorMessage(payload),
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.expire(ctx, serverErr)
		}
		return serverErr
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("api: %s: failed to decode response: %w", op, err)
	}
	return nil
}

func (c *Client) expire(ctx context.Context, err *ServerError) {
	if clearErr := c.cache.Clear(ctx); clearErr != nil {
		c.logger.Error("Failed to clear cached token after 401", "error", clearErr)
	}
	c.logger.Info("Authorization expired", "op", err.Op)

	c.mu.RLock()
	handler := c.onAuthExpired
	c.mu.RUnlock()
	if handler != nil {
		handler(ctx, err)
	}
}

func errorMessage(payload []byte) string {
	var body models.ErrorBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Error
}

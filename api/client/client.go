// Package client is the access layer every screen goes through to reach the
// fintrack API. It attaches identity headers, sanitizes write payloads and turns
// each response into either a JSON body or a classified *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Client issues requests against <BaseURL><APIPrefix><path>. It never retries;
// callers decide what to do with a classified failure.
type Client struct {
	baseURL     string
	apiPrefix   string
	httpClient  *http.Client
	auth        *AuthContext
	sanitizer   *Sanitizer
	interceptor *Interceptor
	logger      *slog.Logger
}

// Config holds the collaborators of a Client.
type Config struct {
	BaseURL     string
	APIPrefix   string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Auth        *AuthContext
	Sanitizer   *Sanitizer
	Interceptor *Interceptor
	Logger      *slog.Logger
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	sanitizer := cfg.Sanitizer
	if sanitizer == nil {
		sanitizer = NewSanitizer()
	}
	interceptor := cfg.Interceptor
	if interceptor == nil {
		interceptor = NewInterceptor(InterceptorConfig{Logger: logger})
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiPrefix:   "/" + strings.Trim(cfg.APIPrefix, "/"),
		httpClient:  httpClient,
		auth:        cfg.Auth,
		sanitizer:   sanitizer,
		interceptor: interceptor,
		logger:      logger.With("component", "api-client"),
	}
}

// RequestOption customizes a single request.
type RequestOption func(h http.Header)

// WithHeader sets a header on the request, overriding the derived auth headers.
func WithHeader(key, value string) RequestOption {
	return func(h http.Header) { h.Set(key, value) }
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (Body, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (Body, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (Body, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (Body, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// URL returns the absolute URL for a relative API path.
func (c *Client) URL(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + c.apiPrefix + path
}

// Do sends one request and resolves it through the interceptor.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (Body, error) {
	url := c.URL(path)

	var reader io.Reader
	if method == http.MethodPost || method == http.MethodPut {
		payload := c.sanitizer.SanitizeForWrite(method, body)
		if payload == nil {
			payload = map[string]any{}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, &APIError{Kind: ErrValidation, Message: "request body is not serializable", URL: url, Err: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &APIError{Kind: ErrNetwork, Message: fmt.Sprintf("creating request: %v", err), URL: url, Err: err}
	}
	if c.auth != nil {
		for k, v := range c.auth.HeadersFor(ctx, path) {
			req.Header[k] = v
		}
	} else {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req.Header)
	}

	c.logger.Debug("dispatching request", "method", method, "url", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed before response", "method", method, "url", url, "err", err)
		return nil, &APIError{Kind: ErrNetwork, URL: url, Err: err}
	}
	return c.interceptor.Handle(ctx, resp, url)
}

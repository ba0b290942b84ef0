// Package stubclient talks to a TrustlessID server over its JSON envelope
// endpoints. It backs the workflow with remote stubs and drives the CLI.
package stubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"trustlessid/internal/evidence/providers"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

// ProviderID names the remote stubs in provider errors and health reports.
const ProviderID = "remote"

const maxResponseBytes = 1 << 20

// Client calls a TrustlessID server. Calls are safe for concurrent use;
// SetToken is not.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithToken sets a bearer token used when the context carries none.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the fallback bearer token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// call sends body as JSON and decodes the envelope's data into T. Transport
// failures, non-2xx answers and success=false all come back as
// *providers.ProviderError.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return zero, providers.NewProviderError(providers.ErrorInternal, ProviderID, "failed to encode request", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return zero, providers.NewProviderError(providers.ErrorInternal, ProviderID, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := requestcontext.RequestID(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, transportError(err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "stub call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	var env httputil.Envelope[T]
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		return zero, statusError(resp.StatusCode, env.Error, decodeErr)
	}
	if decodeErr != nil {
		return zero, providers.NewProviderError(providers.ErrorBadData, ProviderID, "malformed response", decodeErr)
	}
	if env.Data == nil {
		return zero, providers.NewProviderError(providers.ErrorBadData, ProviderID, "response has no data", nil)
	}
	return *env.Data, nil
}

func (c *Client) bearer(ctx context.Context) string {
	if token := requestcontext.AccessToken(ctx); token != "" {
		return token
	}
	return c.token
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return providers.NewProviderError(providers.ErrorTimeout, ProviderID, "request timed out", err)
	}
	return providers.NewProviderError(providers.ErrorProviderOutage, ProviderID, "server unreachable", err)
}

func statusError(status int, message string, decodeErr error) error {
	if message == "" {
		message = http.StatusText(status)
		if message == "" {
			message = "request rejected"
		}
	}
	category := providers.ErrorRejected
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = providers.ErrorAuthentication
	case status == http.StatusGatewayTimeout:
		category = providers.ErrorTimeout
	case status >= 500:
		category = providers.ErrorProviderOutage
	}
	return providers.NewProviderError(category, ProviderID, message, withStatus(status, decodeErr))
}

func withStatus(status int, err error) error {
	if err != nil {
		return fmt.Errorf("status %d: %w", status, err)
	}
	return fmt.Errorf("status %d", status)
}

// Package apiclient talks to the study backend with bearer-token injection,
// a fixed request timeout, one-shot 401 recovery through a guest token and
// fixed-delay retries for bootstrap calls.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout           = 45 * time.Second
	DefaultBootstrapAttempts = 3
	DefaultBootstrapDelay    = 5 * time.Second
)

// Config holds the client's connection settings. Zero values take defaults.
type Config struct {
	// BaseURL includes the API prefix, e.g. https://study.example.com/api.
	BaseURL           string
	Timeout           time.Duration
	BootstrapAttempts int
	BootstrapDelay    time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithGuard replaces the process-wide recovery guard.
func WithGuard(g RecoveryGuard) Option {
	return func(c *Client) { c.guard = g }
}

// WithLogger sets the client's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// Client is safe for concurrent use.
type Client struct {
	cfg   Config
	http  *http.Client
	store TokenStore
	guard RecoveryGuard
	log   zerolog.Logger
}

// New builds a Client that reads and writes its bearer token through store.
func New(cfg Config, store TokenStore, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BootstrapAttempts <= 0 {
		cfg.BootstrapAttempts = DefaultBootstrapAttempts
	}
	if cfg.BootstrapDelay < 0 {
		cfg.BootstrapDelay = 0
	} else if cfg.BootstrapDelay == 0 {
		cfg.BootstrapDelay = DefaultBootstrapDelay
	}

	c := &Client{
		cfg:   cfg,
		http:  &http.Client{},
		store: store,
		guard: processGuard,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the client's token store.
func (c *Client) Store() TokenStore { return c.store }

// Do performs an authenticated call. body and out are JSON-encoded and
// decoded when non-nil. A 401 triggers exactly one guest recovery followed by
// one retry; a 401 seen while another recovery runs fails with
// ErrRecoveryInFlight.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := encode(body)
	if err != nil {
		return err
	}

	creds, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	err = c.send(ctx, method, path, payload, creds.Token, out)
	if !IsUnauthorized(err) || path == pathGuest {
		return err
	}

	if !c.guard.TryAcquire(ctx) {
		return fmt.Errorf("%w: %w", ErrRecoveryInFlight, err)
	}
	c.log.Warn().Str("method", method).Str("path", path).Msg("Upstream rejected token, acquiring guest session")

	fresh, recErr := c.acquireGuest(ctx)
	c.guard.Release(ctx)
	if recErr != nil {
		c.log.Error().Err(recErr).Str("path", path).Msg("Guest recovery failed")
		return fmt.Errorf("recover session: %w", recErr)
	}

	return c.send(ctx, method, path, payload, fresh.SessionToken, out)
}

// send performs one HTTP exchange under the request timeout.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, resp.Body)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func encode(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return payload, nil
}

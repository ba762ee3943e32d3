package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
)

var (
	// ErrRecoveryInFlight is returned for a 401 that arrives while another
	// request is already renewing the session.
	ErrRecoveryInFlight = errors.New("session recovery already in flight")

	// ErrNoCredentials means the store holds no token to restore.
	ErrNoCredentials = errors.New("no stored credentials")
)

// APIError is a non-2xx response from the study backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Detail)
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNetworkError reports whether err is a transport failure (refused
// connection, DNS, timeout) rather than an answer from the backend.
// Cancellation by the caller is not a network error.
func IsNetworkError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// decodeError builds an APIError from a FastAPI-style body. detail may be a
// string or a list of validation objects.
func decodeError(status int, body io.Reader) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(body, 64<<10))

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return &APIError{Status: status, Detail: strings.TrimSpace(string(raw))}
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return &APIError{Status: status, Detail: text}
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return &APIError{Status: status, Detail: strings.Join(msgs, "; ")}
	}

	return &APIError{Status: status, Detail: string(envelope.Detail)}
}

package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stemsi/studyguide/internal/model"
)

const (
	pathGuest    = "/auth/guest"
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathMe       = "/auth/me"
	pathLogout   = "/auth/logout"
)

// GuestLogin acquires an anonymous identity and stores its token.
func (c *Client) GuestLogin(ctx context.Context) (model.User, error) {
	return c.bootstrap(ctx, pathGuest, nil, true)
}

// Login authenticates with email and password and stores the token.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.User, error) {
	return c.bootstrap(ctx, pathLogin, req, false)
}

// Register creates an account and stores its token.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	return c.bootstrap(ctx, pathRegister, req, false)
}

// Me returns the identity behind the stored token.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.Do(ctx, http.MethodGet, pathMe, nil, &u)
	return u, err
}

// Logout ends the upstream session and clears local credentials even when
// the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	creds, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	var callErr error
	if creds.Token != "" {
		callErr = c.send(ctx, http.MethodPost, pathLogout, nil, creds.Token, nil)
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	if callErr != nil && !IsUnauthorized(callErr) {
		return fmt.Errorf("logout: %w", callErr)
	}
	return nil
}

// Restore validates the stored token. A rejected token is cleared; if it
// belonged to a guest a new guest identity is acquired silently. Network
// failures leave the stored credentials untouched.
func (c *Client) Restore(ctx context.Context) (model.User, error) {
	creds, err := c.store.Load(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("load credentials: %w", err)
	}
	if creds.Token == "" {
		if creds.Guest {
			return c.GuestLogin(ctx)
		}
		return model.User{}, ErrNoCredentials
	}

	var u model.User
	err = c.send(ctx, http.MethodGet, pathMe, nil, creds.Token, &u)
	if err == nil {
		u.IsGuest = u.Guest()
		return u, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return model.User{}, fmt.Errorf("validate session: %w", err)
	}

	c.log.Info().Int("status", apiErr.Status).Bool("guest", creds.Guest).Msg("Stored session rejected")
	if err := c.store.Clear(ctx); err != nil {
		return model.User{}, fmt.Errorf("clear credentials: %w", err)
	}
	if creds.Guest {
		return c.GuestLogin(ctx)
	}
	return model.User{}, fmt.Errorf("validate session: %w", err)
}

// acquireGuest is the single-attempt guest call used by 401 recovery.
func (c *Client) acquireGuest(ctx context.Context) (model.User, error) {
	var u model.User
	if err := c.send(ctx, http.MethodPost, pathGuest, nil, "", &u); err != nil {
		return model.User{}, err
	}
	if err := c.persist(ctx, u, true); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// bootstrap retries network failures with a fixed delay. Any response from
// the backend, success or error status, ends the loop.
func (c *Client) bootstrap(ctx context.Context, path string, body any, guest bool) (model.User, error) {
	payload, err := encode(body)
	if err != nil {
		return model.User{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.BootstrapAttempts; attempt++ {
		var u model.User
		lastErr = c.send(ctx, http.MethodPost, path, payload, "", &u)
		if lastErr == nil {
			if err := c.persist(ctx, u, guest || u.Guest()); err != nil {
				return model.User{}, err
			}
			u.IsGuest = guest || u.Guest()
			return u, nil
		}
		if !IsNetworkError(lastErr) || attempt == c.cfg.BootstrapAttempts {
			break
		}

		c.log.Warn().Err(lastErr).
			Str("path", path).
			Int("attempt", attempt).
			Dur("delay", c.cfg.BootstrapDelay).
			Msg("Upstream unreachable, retrying")

		timer := time.NewTimer(c.cfg.BootstrapDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.User{}, ctx.Err()
		case <-timer.C:
		}
	}
	return model.User{}, lastErr
}

func (c *Client) persist(ctx context.Context, u model.User, guest bool) error {
	if u.SessionToken == "" {
		return errors.New("upstream returned no session token")
	}
	if err := c.store.Save(ctx, Credentials{Token: u.SessionToken, Guest: guest}); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

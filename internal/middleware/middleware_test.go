package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/studyguide/internal/model"
	"github.com/stemsi/studyguide/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeValidator struct {
	claims     *service.Claims
	tokenErr   error
	sessionErr error
}

func (f *fakeValidator) ValidateToken(string) (*service.Claims, error) {
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return f.claims, nil
}

func (f *fakeValidator) ValidateDeviceSession(context.Context, string, string) error {
	return f.sessionErr
}

func deviceClaims(role model.Role) *service.Claims {
	c := &service.Claims{Role: role}
	c.Subject = "device-1"
	c.ID = "jti-1"
	return c
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireDeviceJWT(t *testing.T) {
	v := &fakeValidator{claims: deviceClaims(model.RoleUser)}
	r := gin.New()
	r.GET("/me", RequireDeviceJWT(v), CheckDeviceSession(v), func(c *gin.Context) {
		c.String(http.StatusOK, GetClaims(c).DeviceID())
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if w := serve(r, req); w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "TOKEN_REQUIRED") {
		t.Fatalf("no header: %d %s", w.Code, w.Body)
	}

	req.Header.Set("Authorization", "Bearer abc")
	if w := serve(r, req); w.Code != http.StatusOK || w.Body.String() != "device-1" {
		t.Fatalf("valid token: %d %s", w.Code, w.Body)
	}

	v.sessionErr = service.ErrSessionInvalidated
	if w := serve(r, req); w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "SESSION_INVALIDATED") {
		t.Fatalf("revoked session: %d %s", w.Code, w.Body)
	}

	v.tokenErr = fmt.Errorf("parse token: %w", jwt.ErrTokenExpired)
	if w := serve(r, req); !strings.Contains(w.Body.String(), "TOKEN_EXPIRED") {
		t.Fatalf("expired token: %d %s", w.Code, w.Body)
	}
}

func TestRequireDeviceWSAuthReadsQuery(t *testing.T) {
	v := &fakeValidator{claims: deviceClaims(model.RoleGuest)}
	r := gin.New()
	r.GET("/ws", RequireDeviceWSAuth(v), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/ws?token=abc", nil)); w.Code != http.StatusNoContent {
		t.Fatalf("query token: %d", w.Code)
	}
	v.tokenErr = errors.New("bad signature")
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/ws?token=abc", nil)); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	for _, tc := range []struct {
		role model.Role
		want int
	}{
		{model.RoleAdmin, http.StatusOK},
		{model.RoleUser, http.StatusForbidden},
		{model.RoleGuest, http.StatusForbidden},
	} {
		r := gin.New()
		r.GET("/admin", func(c *gin.Context) {
			c.Set(ContextKeyClaims, deviceClaims(tc.role))
		}, RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

		if w := serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil)); w.Code != tc.want {
			t.Fatalf("role %s: got %d, want %d", tc.role, w.Code, tc.want)
		}
	}
}

func TestRateLimiterRefills(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other IPs have their own bucket")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("1.2.3.4") {
		t.Fatal("bucket should refill after the interval")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.POST("/auth/guest", NewRateLimiter(ctx, 1, time.Minute).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	w := serve(r, httptest.NewRequest(http.MethodPost, "/auth/guest", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", w.Header().Get("Retry-After"))
	}
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	large := strings.Repeat("question ", 500)
	r := gin.New()
	r.Use(Brotli(DefaultBrotliMinLength))
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
	w := serve(r, req)
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("large body not compressed: %v", w.Header())
	}
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(body) != large {
		t.Fatal("decoded body differs")
	}

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = serve(r, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Fatalf("small body: %v %q", w.Header(), w.Body)
	}
}

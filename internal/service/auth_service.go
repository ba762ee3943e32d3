package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/model"
)

// Common auth errors.
var (
	ErrNoActiveSession    = errors.New("no active session")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// Claims extends JWT standard claims with the device identity. Subject is
// the device ID.
type Claims struct {
	jwt.RegisteredClaims
	Role  model.Role `json:"role"`
	Guest bool       `json:"guest"`
}

// DeviceID returns the device the token was issued to.
func (c *Claims) DeviceID() string { return c.Subject }

// AuthService issues gateway device tokens and bootstraps each device's
// upstream identity.
type AuthService struct {
	cfg     *config.Config
	rdb     redis.Cmdable
	clients *ClientFactory
	log     zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb redis.Cmdable, clients *ClientFactory, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:     cfg,
		rdb:     rdb,
		clients: clients,
		log:     log.With().Str("component", "auth_service").Logger(),
	}
}

// Guest creates a new device signed in as an anonymous guest.
func (s *AuthService) Guest(ctx context.Context) (model.DeviceSession, error) {
	deviceID := uuid.New().String()
	u, err := s.clients.ForDevice(deviceID).GuestLogin(ctx)
	if err != nil {
		return model.DeviceSession{}, err
	}
	return s.issue(ctx, deviceID, u)
}

// Login creates a new device signed in with email and password.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.DeviceSession, error) {
	deviceID := uuid.New().String()
	u, err := s.clients.ForDevice(deviceID).Login(ctx, req)
	if err != nil {
		return model.DeviceSession{}, err
	}
	return s.issue(ctx, deviceID, u)
}

// Register creates an upstream account and a device signed in to it.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.DeviceSession, error) {
	deviceID := uuid.New().String()
	u, err := s.clients.ForDevice(deviceID).Register(ctx, req)
	if err != nil {
		return model.DeviceSession{}, err
	}
	return s.issue(ctx, deviceID, u)
}

// Restore validates the device's upstream identity, replacing an expired
// guest session with a new one.
func (s *AuthService) Restore(ctx context.Context, claims *Claims) (model.User, error) {
	return s.clients.ForDevice(claims.DeviceID()).Restore(ctx)
}

// Logout ends the upstream session and revokes the device token.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	deviceID := claims.DeviceID()
	upstreamErr := s.clients.ForDevice(deviceID).Logout(ctx)
	if upstreamErr != nil {
		s.log.Warn().Err(upstreamErr).Str("device_id", deviceID).Msg("Upstream logout failed")
	}
	if err := s.rdb.Del(ctx, config.CacheKey.DeviceSessionKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, deviceID string, u model.User) (model.DeviceSession, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   deviceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Role:  u.Role,
		Guest: u.IsGuest,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return model.DeviceSession{}, fmt.Errorf("sign token: %w", err)
	}

	// Store session in Redis with same expiry as JWT.
	if err := s.rdb.Set(ctx, config.CacheKey.DeviceSessionKey(deviceID), jti, s.cfg.JWTExpiry).Err(); err != nil {
		return model.DeviceSession{}, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().Str("device_id", deviceID).Bool("guest", u.IsGuest).Msg("Device session issued")

	u.SessionToken = ""
	return model.DeviceSession{Token: signed, DeviceID: deviceID, User: u}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateDeviceSession checks that the token's JTI is still the device's
// active session.
func (s *AuthService) ValidateDeviceSession(ctx context.Context, deviceID, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.DeviceSessionKey(deviceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNoActiveSession
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

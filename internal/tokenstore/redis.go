package tokenstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/apiclient"
	"github.com/stemsi/studyguide/internal/config"
)

// RedisStore keeps one device's credentials in a hash with fields token and
// guest. Every save refreshes the TTL.
type RedisStore struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, deviceID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		key: config.CacheKey.DeviceCredentialsKey(deviceID),
		ttl: ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context) (apiclient.Credentials, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return apiclient.Credentials{}, fmt.Errorf("load %s: %w", s.key, err)
	}
	guest, _ := strconv.ParseBool(fields["guest"])
	return apiclient.Credentials{Token: fields["token"], Guest: guest}, nil
}

func (s *RedisStore) Save(ctx context.Context, creds apiclient.Credentials) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, "token", creds.Token, "guest", strconv.FormatBool(creds.Guest))
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear %s: %w", s.key, err)
	}
	return nil
}

// RedisGuard is the recovery in-flight flag for one device, shared by every
// gateway replica. The lock expires on its own if its holder dies.
type RedisGuard struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
	log zerolog.Logger
}

func NewRedisGuard(rdb redis.Cmdable, deviceID string, ttl time.Duration, log zerolog.Logger) *RedisGuard {
	return &RedisGuard{
		rdb: rdb,
		key: config.CacheKey.DeviceRecoveryKey(deviceID),
		ttl: ttl,
		log: log,
	}
}

// TryAcquire reports false when the flag is held or Redis is unreachable.
func (g *RedisGuard) TryAcquire(ctx context.Context) bool {
	ok, err := g.rdb.SetNX(ctx, g.key, "1", g.ttl).Result()
	if err != nil {
		g.log.Error().Err(err).Str("key", g.key).Msg("Failed to acquire recovery flag")
		return false
	}
	return ok
}

func (g *RedisGuard) Release(ctx context.Context) {
	if err := g.rdb.Del(ctx, g.key).Err(); err != nil {
		g.log.Warn().Err(err).Str("key", g.key).Msg("Failed to release recovery flag")
	}
}

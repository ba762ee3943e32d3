package service

import (
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/apiclient"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/tokenstore"
)

// StoreFunc returns the credential store and recovery guard for a device.
type StoreFunc func(deviceID string) (apiclient.TokenStore, apiclient.RecoveryGuard)

// ClientFactory builds upstream API clients bound to one device's
// credentials. All clients share one HTTP connection pool.
type ClientFactory struct {
	apiCfg apiclient.Config
	http   *http.Client
	stores StoreFunc
	log    zerolog.Logger
}

// NewClientFactory keeps device credentials in Redis for the lifetime of a
// gateway token.
func NewClientFactory(cfg *config.Config, rdb redis.Cmdable, log zerolog.Logger) *ClientFactory {
	log = log.With().Str("component", "upstream").Logger()
	guardTTL := cfg.UpstreamTimeout + 5*time.Second

	return NewClientFactoryWithStores(cfg, func(deviceID string) (apiclient.TokenStore, apiclient.RecoveryGuard) {
		return tokenstore.NewRedisStore(rdb, deviceID, cfg.JWTExpiry),
			tokenstore.NewRedisGuard(rdb, deviceID, guardTTL, log)
	}, log)
}

// NewClientFactoryWithStores uses stores to resolve per-device state.
func NewClientFactoryWithStores(cfg *config.Config, stores StoreFunc, log zerolog.Logger) *ClientFactory {
	return &ClientFactory{
		apiCfg: apiclient.Config{
			BaseURL:           cfg.UpstreamURL,
			Timeout:           cfg.UpstreamTimeout,
			BootstrapAttempts: cfg.BootstrapAttempts,
			BootstrapDelay:    cfg.BootstrapDelay,
		},
		http: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		stores: stores,
		log:    log,
	}
}

// ForDevice returns a client that reads and writes deviceID's credentials.
func (f *ClientFactory) ForDevice(deviceID string) *apiclient.Client {
	store, guard := f.stores(deviceID)
	return apiclient.New(f.apiCfg, store, apiclient.WithHTTPClient(f.http), apiclient.WithGuard(guard),
		apiclient.WithLogger(f.log.With().Str("device_id", deviceID).Logger()))
}

// MemoryStores keeps per-device credentials in process memory. Used by tests
// and single-instance setups without Redis.
func MemoryStores() StoreFunc {
	var mu sync.Mutex
	stores := make(map[string]*apiclient.MemoryStore)
	guards := make(map[string]*apiclient.LocalGuard)

	return func(deviceID string) (apiclient.TokenStore, apiclient.RecoveryGuard) {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := stores[deviceID]; !ok {
			stores[deviceID] = &apiclient.MemoryStore{}
			guards[deviceID] = &apiclient.LocalGuard{}
		}
		return stores[deviceID], guards[deviceID]
	}
}

package apiclient

import (
	"context"
	"sync"
	"sync/atomic"
)

// Credentials is the persisted client identity: one bearer token and whether
// it belongs to a guest.
type Credentials struct {
	Token string `json:"token"`
	Guest bool   `json:"guest"`
}

// TokenStore persists credentials between calls. A zero Credentials with a
// nil error means nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, creds Credentials) error
	Clear(ctx context.Context) error
}

// RecoveryGuard admits at most one session recovery at a time.
type RecoveryGuard interface {
	TryAcquire(ctx context.Context) bool
	Release(ctx context.Context)
}

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func (s *MemoryStore) Load(context.Context) (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

func (s *MemoryStore) Save(_ context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}

// LocalGuard is an in-memory in-flight flag. Clients built without
// WithGuard share a single LocalGuard, so one recovery runs per process.
type LocalGuard struct {
	inFlight atomic.Bool
}

var processGuard = &LocalGuard{}

func (g *LocalGuard) TryAcquire(context.Context) bool {
	return g.inFlight.CompareAndSwap(false, true)
}

func (g *LocalGuard) Release(context.Context) {
	g.inFlight.Store(false)
}

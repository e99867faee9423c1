package history

import (
	"context"
	"fmt"
	"sync"
)

// Store persists the ledger. Save replaces the stored history; Load returns it
// in the order it was saved.
type Store interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
	Close() error
}

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a Store.
type Options struct {
	Backend       string
	Path          string // sqlite database file
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// Open returns the Store for opts.Backend. BackendNone returns a MemoryStore.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendSQLite:
		return OpenSQLite(opts.Path)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisKey)
	case BackendNone:
		return &MemoryStore{}, nil
	}
	return nil, fmt.Errorf("unknown history backend %q", opts.Backend)
}

// MemoryStore keeps history for the life of the process.
type MemoryStore struct {
	mu    sync.Mutex
	items []Item
}

func (m *MemoryStore) Load(context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.items...), nil
}

func (m *MemoryStore) Save(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]Item(nil), items...)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// cartstore/local_cartstore.go

package cartstore

import (
	"context"
	"sync"
)

// LocalCartStore keeps snapshots in process memory. Values are copied on the
// way in and out so callers cannot alias stored bytes.
type LocalCartStore struct {
	mu    sync.RWMutex
	store map[string][]byte
}

// NewLocalCartStore constructor.
func NewLocalCartStore() *LocalCartStore {
	return &LocalCartStore{
		store: make(map[string][]byte),
	}
}

// Initialize does nothing for the in-memory store.
func (l *LocalCartStore) Initialize(ctx context.Context) error {
	return nil
}

func (l *LocalCartStore) Get(ctx context.Context, key string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	val, ok := l.store[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

func (l *LocalCartStore) Set(ctx context.Context, key string, value []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.store[key] = append([]byte(nil), value...)
	return nil
}

// Ping always succeeds.
func (l *LocalCartStore) Ping(ctx context.Context) bool {
	return true
}

func (l *LocalCartStore) Close() error {
	return nil
}

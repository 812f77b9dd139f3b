// cartstore/cartstore.go

package cartstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("cartstore: key not found")

// ICartStore is durable string-keyed storage for serialized cart snapshots.
// Implementations treat values as opaque bytes.
type ICartStore interface {
	Initialize(ctx context.Context) error

	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error

	Ping(ctx context.Context) bool
	Close() error
}

package cartstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, store ICartStore, key string) {
	ctx := context.Background()

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, key, []byte(`[{"id":1,"amount":2}]`)))
	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"amount":2}]`, string(got))

	require.NoError(t, store.Set(ctx, key, []byte(`[]`)))
	got, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	assert.True(t, store.Ping(ctx))
}

func TestLocalCartStore(t *testing.T) {
	store := NewLocalCartStore()
	require.NoError(t, store.Initialize(context.Background()))

	exerciseStore(t, store, "@RocketShoes:cart")
}

func TestLocalCartStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewLocalCartStore()

	in := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[0] = 'y'
	again, _ := store.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestOpen(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := Open(context.Background(), Options{Backend: BackendMemory, Log: testLog()})
		require.NoError(t, err)
		_, ok := store.(*LocalCartStore)
		assert.True(t, ok)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := Open(context.Background(), Options{Backend: "tape", Log: testLog()})
		assert.Error(t, err)
	})

	t.Run("invalid mysql dsn", func(t *testing.T) {
		_, err := Open(context.Background(), Options{Backend: BackendMySQL, MySQLDSN: "::not a dsn::", Log: testLog()})
		assert.Error(t, err)
	})
}

func TestRedisCartStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	store := NewRedisCartStore(addr, testLog())
	store.initAttempts = 3
	require.NoError(t, store.Initialize(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store, "test:"+uuid.NewString())
}

func TestRedisCartStoreInitializeHonoursContext(t *testing.T) {
	store := NewRedisCartStore("127.0.0.1:1", testLog())
	t.Cleanup(func() { _ = store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Initialize(ctx), context.Canceled)
}

func TestMySQLCartStore(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}
	store, err := NewMySQLCartStore(dsn, testLog())
	require.NoError(t, err)
	require.NoError(t, store.Initialize(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	exerciseStore(t, store, "test:"+uuid.NewString())
}

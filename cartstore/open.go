package cartstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
)

type Options struct {
	Backend   string
	RedisAddr string
	MySQLDSN  string
	Log       *logrus.Entry
}

// Open builds the store selected by opts.Backend and initializes it.
func Open(ctx context.Context, opts Options) (ICartStore, error) {
	log := opts.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	var store ICartStore
	switch opts.Backend {
	case BackendMemory, "":
		store = NewLocalCartStore()
	case BackendRedis:
		store = NewRedisCartStore(opts.RedisAddr, log)
	case BackendMySQL:
		s, err := NewMySQLCartStore(opts.MySQLDSN, log)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, errors.Errorf("unknown cart storage backend %q", opts.Backend)
	}

	if err := store.Initialize(ctx); err != nil {
		_ = store.Close()
		return nil, errors.Wrapf(err, "failed to initialize %s store", opts.Backend)
	}
	return store, nil
}

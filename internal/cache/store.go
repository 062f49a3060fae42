package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vzahanych/weather-cli/internal/config"
)

// ErrNoCache is returned by Store.Load when nothing has been persisted yet.
var ErrNoCache = errors.New("cache not found")

// Store persists the whole cache mapping. Implementations read and write the
// mapping wholesale; Cache owns expiry and key semantics.
type Store interface {
	Load(ctx context.Context) (Entries, error)
	Save(ctx context.Context, entries Entries) error
	// Remove deletes the persisted mapping and reports whether one existed.
	Remove(ctx context.Context) (bool, error)
	Location() string
	Close() error
}

// OpenStore builds the store selected by cfg.Backend.
func OpenStore(cfg config.CacheConfig) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "memcached":
		return NewMemcachedStore(
			cfg.Memcached.Addrs,
			cfg.Memcached.Key,
			time.Duration(cfg.Memcached.Timeout)*time.Second,
			cfg.Memcached.MaxIdleConns,
		), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

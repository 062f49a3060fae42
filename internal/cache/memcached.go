package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// MemcachedStore keeps the whole mapping as a single JSON item. Items are
// stored without a memcached expiration; Cache decides freshness per entry.
type MemcachedStore struct {
	client *memcache.Client
	addrs  []string
	key    string
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and
// maxIdleConns keep the client defaults when zero.
func NewMemcachedStore(addrs, key string, timeout time.Duration, maxIdleConns int) *MemcachedStore {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	if key == "" {
		key = "weather_cache"
	}
	return &MemcachedStore{client: client, addrs: servers, key: key}
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func (s *MemcachedStore) Location() string {
	return "memcached://" + strings.Join(s.addrs, ",") + "/" + s.key
}

func (s *MemcachedStore) Load(ctx context.Context) (Entries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	item, err := s.client.Get(s.key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, ErrNoCache
	}
	if err != nil {
		return nil, fmt.Errorf("memcached get %s: %w", s.key, err)
	}

	entries := make(Entries)
	if err := json.Unmarshal(item.Value, &entries); err != nil {
		return nil, fmt.Errorf("parse memcached item %s: %w", s.key, err)
	}
	return entries, nil
}

func (s *MemcachedStore) Save(ctx context.Context, entries Entries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := s.client.Set(&memcache.Item{Key: s.key, Value: raw}); err != nil {
		return fmt.Errorf("memcached set %s: %w", s.key, err)
	}
	return nil
}

func (s *MemcachedStore) Remove(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := s.client.Delete(s.key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("memcached delete %s: %w", s.key, err)
	}
	return true, nil
}

// Ping checks that memcached is reachable.
func (s *MemcachedStore) Ping() error {
	return s.client.Ping()
}

func (s *MemcachedStore) Close() error {
	return s.client.Close()
}

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const DefaultTTL = 30 * time.Minute

// MetricsRecorder receives one call per Get.
type MetricsRecorder interface {
	RecordCacheHit(ctx context.Context, cacheType string)
	RecordCacheMiss(ctx context.Context, cacheType string)
	RecordCacheExpired(ctx context.Context, cacheType string)
}

// Cache is a time-bounded key/value cache over a Store. Every operation loads
// the whole mapping and writes it back, so the store never holds partial state.
// Store failures while reading or writing degrade to a logged warning.
//
// The mutex only serialises callers inside one process. Two processes sharing
// a store race and the last writer wins.
type Cache struct {
	store   Store
	ttl     time.Duration
	logger  *zap.Logger
	metrics MetricsRecorder
	now     func() time.Time
	mu      sync.Mutex
}

type Info struct {
	Location string      `json:"location"`
	Exists   bool        `json:"exists"`
	Entries  []EntryInfo `json:"entries"`
}

type EntryInfo struct {
	Key       string `json:"key"`
	Timestamp string `json:"timestamp"`
	Fresh     bool   `json:"fresh"`
}

func New(store Store, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (c *Cache) SetMetricsRecorder(metrics MetricsRecorder) {
	c.metrics = metrics
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the payload stored under key while it is fresh. A stale entry is
// removed from the store and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cacheType := typeOf(key)
	entries := c.load(ctx)

	entry, ok := entries[key]
	if !ok {
		c.logger.Debug("Cache miss", zap.String("key", key))
		if c.metrics != nil {
			c.metrics.RecordCacheMiss(ctx, cacheType)
		}
		return nil, false
	}

	if c.isFresh(entry) {
		c.logger.Debug("Cache hit", zap.String("key", key), zap.String("cached_at", entry.Timestamp))
		if c.metrics != nil {
			c.metrics.RecordCacheHit(ctx, cacheType)
		}
		return entry.Data, true
	}

	c.logger.Debug("Cache entry expired", zap.String("key", key), zap.String("cached_at", entry.Timestamp))
	delete(entries, key)
	c.save(ctx, entries)
	if c.metrics != nil {
		c.metrics.RecordCacheExpired(ctx, cacheType)
	}
	return nil, false
}

// Set stores value under key stamped with the current time, replacing any
// previous entry. Only a value that cannot be encoded is an error.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode cache value for %q: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.load(ctx)
	entries[key] = Entry{
		Timestamp: FormatTimestamp(c.now()),
		Data:      raw,
	}
	c.save(ctx, entries)

	return nil
}

// Info lists what the store currently holds, sorted by key. Unlike Get it
// reports load failures to the caller.
func (c *Cache) Info(ctx context.Context) (*Info, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := &Info{Location: c.store.Location()}

	entries, err := c.store.Load(ctx)
	if errors.Is(err, ErrNoCache) {
		return info, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	info.Exists = true
	info.Entries = make([]EntryInfo, 0, len(entries))
	for key, entry := range entries {
		info.Entries = append(info.Entries, EntryInfo{
			Key:       key,
			Timestamp: entry.Timestamp,
			Fresh:     c.isFresh(entry),
		})
	}
	sort.Slice(info.Entries, func(i, j int) bool {
		return info.Entries[i].Key < info.Entries[j].Key
	})

	return info, nil
}

// Clear drops the persisted mapping. It reports whether there was anything to
// drop; clearing an absent cache is not an error.
func (c *Cache) Clear(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.store.Remove(ctx)
	if err != nil {
		return false, fmt.Errorf("clear cache: %w", err)
	}
	return removed, nil
}

func (c *Cache) load(ctx context.Context) Entries {
	entries, err := c.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoCache) {
			c.logger.Warn("Failed to load cache, starting empty",
				zap.String("location", c.store.Location()),
				zap.Error(err))
		}
		return make(Entries)
	}
	if entries == nil {
		entries = make(Entries)
	}
	return entries
}

func (c *Cache) save(ctx context.Context, entries Entries) {
	if err := c.store.Save(ctx, entries); err != nil {
		c.logger.Warn("Failed to save cache",
			zap.String("location", c.store.Location()),
			zap.Error(err))
	}
}

func (c *Cache) isFresh(entry Entry) bool {
	cachedAt, err := ParseTimestamp(entry.Timestamp)
	if err != nil {
		return false
	}
	return c.now().Sub(cachedAt) < c.ttl
}

// encode marshals without HTML escaping so the persisted file stays readable.
func encode(value any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// typeOf labels a key by its prefix: "coords_moscow" -> "coords".
func typeOf(key string) string {
	prefix, _, found := strings.Cut(key, "_")
	if !found || prefix == "" {
		return "other"
	}
	return prefix
}

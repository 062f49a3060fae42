package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(t *testing.T) (*Cache, *FileStore, *fakeClock) {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "weather_cache.json"))
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local)}
	c := New(store, DefaultTTL, zaptest.NewLogger(t))
	c.now = clock.Now
	return c, store, clock
}

type countingRecorder struct {
	hits, misses, expired map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{hits: map[string]int{}, misses: map[string]int{}, expired: map[string]int{}}
}

func (r *countingRecorder) RecordCacheHit(_ context.Context, cacheType string) { r.hits[cacheType]++ }

func (r *countingRecorder) RecordCacheMiss(_ context.Context, cacheType string) { r.misses[cacheType]++ }

func (r *countingRecorder) RecordCacheExpired(_ context.Context, cacheType string) {
	r.expired[cacheType]++
}

func TestCache_GetNeverWritten(t *testing.T) {
	c, _, _ := newTestCache(t)

	data, ok := c.Get(context.Background(), "coords_paris")
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestCache_SetThenGetReturnsPayloadUnchanged(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()

	payload := map[string]any{
		"latitude":  55.7558,
		"longitude": 37.6173,
		"name":      "Москва",
		"country":   "Россия",
	}
	require.NoError(t, c.Set(ctx, "coords_москва", payload))

	data, ok := c.Get(ctx, "coords_москва")
	require.True(t, ok)

	want, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(data))
}

func TestCache_SetOverwritesWholesale(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "weather_1.0000_2.0000", map[string]int{"a": 1, "b": 2}))
	clock.Advance(time.Minute)
	require.NoError(t, c.Set(ctx, "weather_1.0000_2.0000", map[string]int{"c": 3}))

	data, ok := c.Get(ctx, "weather_1.0000_2.0000")
	require.True(t, ok)
	assert.JSONEq(t, `{"c":3}`, string(data))
}

func TestCache_ExpiredEntryIsRemovedFromStore(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "weather_55.7558_37.6173", map[string]float64{"temperature": -3.5}))
	require.NoError(t, c.Set(ctx, "coords_москва", map[string]string{"name": "Москва"}))

	clock.Advance(29 * time.Minute)
	_, ok := c.Get(ctx, "weather_55.7558_37.6173")
	require.True(t, ok, "entry younger than the TTL must be served")

	clock.Advance(2 * time.Minute)
	_, ok = c.Get(ctx, "weather_55.7558_37.6173")
	assert.False(t, ok)

	persisted, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, persisted, "weather_55.7558_37.6173")
	assert.Contains(t, persisted, "coords_москва", "eviction is lazy and per key")
}

func TestCache_EntryAtExactlyTTLIsStale(t *testing.T) {
	c, _, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "coords_oslo", "x"))
	clock.Advance(DefaultTTL)

	_, ok := c.Get(ctx, "coords_oslo")
	assert.False(t, ok)
}

func TestCache_CorruptFileDegradesToEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "weather_cache.json"))
	require.NoError(t, os.WriteFile(store.Location(), []byte("{not json"), 0o644))

	core, logs := observer.New(zapcore.WarnLevel)
	c := New(store, DefaultTTL, zap.New(core))
	ctx := context.Background()

	_, ok := c.Get(ctx, "coords_paris")
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("Failed to load cache, starting empty").Len())

	require.NoError(t, c.Set(ctx, "coords_paris", "ok"))
	data, ok := c.Get(ctx, "coords_paris")
	require.True(t, ok)
	assert.JSONEq(t, `"ok"`, string(data))
}

func TestCache_ReadsNaiveISOTimestamps(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "weather_cache.json"))
	legacy := `{
  "coords_москва": {
    "timestamp": "2025-03-01T11:45:10.123456",
    "data": {"latitude": 55.75222, "longitude": 37.61556, "name": "Москва", "country": "Россия"}
  }
}`
	require.NoError(t, os.WriteFile(store.Location(), []byte(legacy), 0o644))

	c := New(store, DefaultTTL, zaptest.NewLogger(t))
	c.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local) }

	data, ok := c.Get(context.Background(), "coords_москва")
	require.True(t, ok)
	assert.Contains(t, string(data), "Москва")
}

func TestCache_UnparseableTimestampIsStale(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "weather_cache.json"))
	require.NoError(t, os.WriteFile(store.Location(),
		[]byte(`{"coords_rome": {"timestamp": "yesterday", "data": 1}}`), 0o644))

	c := New(store, DefaultTTL, zaptest.NewLogger(t))

	_, ok := c.Get(context.Background(), "coords_rome")
	assert.False(t, ok)

	_, err := os.Stat(store.Location())
	require.NoError(t, err)
	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCache_FileIsIndentedUTF8(t *testing.T) {
	c, store, _ := newTestCache(t)

	require.NoError(t, c.Set(context.Background(), "coords_москва", map[string]string{"name": "Москва & Co"}))

	raw, err := os.ReadFile(store.Location())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"coords_москва\": {")
	assert.Contains(t, string(raw), "Москва & Co")
}

func TestCache_ClearWithoutFile(t *testing.T) {
	c, _, _ := newTestCache(t)

	removed, err := c.Clear(context.Background())
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCache_ClearRemovesFile(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "coords_paris", "x"))

	removed, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = os.Stat(store.Location())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, ok := c.Get(ctx, "coords_paris")
	assert.False(t, ok)
}

func TestCache_Info(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.False(t, info.Exists)
	assert.Equal(t, store.Location(), info.Location)
	assert.Empty(t, info.Entries)

	require.NoError(t, c.Set(ctx, "weather_48.8566_2.3522", "w"))
	clock.Advance(45 * time.Minute)
	require.NoError(t, c.Set(ctx, "coords_paris", "c"))

	info, err = c.Info(ctx)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	require.Len(t, info.Entries, 2)
	assert.Equal(t, "coords_paris", info.Entries[0].Key)
	assert.True(t, info.Entries[0].Fresh)
	assert.Equal(t, "weather_48.8566_2.3522", info.Entries[1].Key)
	assert.False(t, info.Entries[1].Fresh)
}

func TestCache_InfoReportsCorruptFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "weather_cache.json"))
	require.NoError(t, os.WriteFile(store.Location(), []byte("[]"), 0o644))

	c := New(store, DefaultTTL, zaptest.NewLogger(t))

	_, err := c.Info(context.Background())
	assert.Error(t, err)
}

func TestCache_MetricsRecorder(t *testing.T) {
	c, _, clock := newTestCache(t)
	rec := newCountingRecorder()
	c.SetMetricsRecorder(rec)
	ctx := context.Background()

	c.Get(ctx, "coords_paris")
	require.NoError(t, c.Set(ctx, "coords_paris", "x"))
	c.Get(ctx, "coords_paris")
	clock.Advance(time.Hour)
	c.Get(ctx, "coords_paris")
	c.Get(ctx, "plain")

	assert.Equal(t, 1, rec.misses["coords"])
	assert.Equal(t, 1, rec.hits["coords"])
	assert.Equal(t, 1, rec.expired["coords"])
	assert.Equal(t, 1, rec.misses["other"])
}

type failingStore struct {
	FileStore
}

func (s *failingStore) Save(context.Context, Entries) error {
	return errors.New("disk full")
}

func TestCache_SaveFailureIsOnlyLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := &failingStore{FileStore: FileStore{path: filepath.Join(t.TempDir(), "weather_cache.json")}}
	c := New(store, DefaultTTL, zap.New(core))

	assert.NoError(t, c.Set(context.Background(), "coords_paris", "x"))
	assert.Equal(t, 1, logs.FilterMessage("Failed to save cache").Len())
}

func TestCache_SetRejectsUnencodableValue(t *testing.T) {
	c, _, _ := newTestCache(t)

	err := c.Set(context.Background(), "coords_paris", make(chan int))
	assert.Error(t, err)
}

func TestNew_DefaultsTTL(t *testing.T) {
	c := New(NewFileStore(""), 0, nil)
	assert.Equal(t, 30*time.Minute, c.TTL())
	assert.Equal(t, DefaultFilePath, c.store.Location())
}

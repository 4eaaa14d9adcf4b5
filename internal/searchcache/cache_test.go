package searchcache

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func openTestCache(t *testing.T, ttl time.Duration, clock *fakeClock) *Cache {
	t.Helper()
	opts := Options{TTL: ttl}
	if clock != nil {
		opts.Now = clock.Now
	}
	cache, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "search_cache.db"), opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestStoreAndLookup(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t, time.Hour, nil)

	entry := Entry{Provider: "duckduckgo", Query: "Go  Generics", Summary: "summary text", ResultCount: 4}
	if err := cache.Store(ctx, entry); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	found, ok, err := cache.Lookup(ctx, "duckduckgo", ModeDigest, "go generics")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit for normalized query")
	}
	if found.Summary != "summary text" || found.ResultCount != 4 {
		t.Fatalf("unexpected entry: %+v", found)
	}
	if found.CachedAt.IsZero() {
		t.Fatal("expected CachedAt to be set")
	}

	if _, ok, _ := cache.Lookup(ctx, "brave", ModeDigest, "go generics"); ok {
		t.Fatal("entries must be scoped by provider")
	}
}

func TestEntriesAreScopedByMode(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t, 0, nil)

	if err := cache.Store(ctx, Entry{Provider: "duckduckgo", Query: "heat pumps", Summary: "### heat pumps"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, ok, _ := cache.Lookup(ctx, "duckduckgo", ModeSummary, "heat pumps"); ok {
		t.Fatal("digest entry must not satisfy a summary lookup")
	}
	if err := cache.Store(ctx, Entry{Provider: "duckduckgo", Mode: ModeSummary, Query: "heat pumps", Summary: "prose"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	digest, ok, _ := cache.Lookup(ctx, "duckduckgo", ModeDigest, "heat pumps")
	if !ok || digest.Summary != "### heat pumps" || digest.Mode != ModeDigest {
		t.Fatalf("unexpected digest entry %+v (hit=%v)", digest, ok)
	}
	summary, ok, _ := cache.Lookup(ctx, "duckduckgo", ModeSummary, "heat pumps")
	if !ok || summary.Summary != "prose" || summary.Mode != ModeSummary {
		t.Fatalf("unexpected summary entry %+v (hit=%v)", summary, ok)
	}
	if count, _ := cache.Count(ctx); count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
}

func TestStoreReplacesExistingEntry(t *testing.T) {
	ctx := context.Background()
	cache := openTestCache(t, 0, nil)

	for _, summary := range []string{"first", "second"} {
		if err := cache.Store(ctx, Entry{Provider: "tavily", Query: "q", Summary: summary}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
	found, _, _ := cache.Lookup(ctx, "tavily", "", "q")
	if found.Summary != "second" {
		t.Fatalf("summary = %q, want second", found.Summary)
	}
}

func TestLookupHonorsTTLAndPurge(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := openTestCache(t, time.Hour, clock)

	if err := cache.Store(ctx, Entry{Provider: "brave", Query: "old"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	clock.now = clock.now.Add(90 * time.Minute)
	if err := cache.Store(ctx, Entry{Provider: "brave", Query: "new"}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	if _, ok, _ := cache.Lookup(ctx, "brave", ModeDigest, "old"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if _, ok, _ := cache.Lookup(ctx, "brave", ModeDigest, "new"); !ok {
		t.Fatal("expected fresh entry to hit")
	}

	removed, err := cache.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	entries, err := cache.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Query != "new" {
		t.Fatalf("unexpected entries after purge: %+v", entries)
	}
}

func TestListNewestFirstAndClear(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	cache := openTestCache(t, 0, clock)

	for _, q := range []string{"a", "b", "c"} {
		if err := cache.Store(ctx, Entry{Provider: "duckduckgo", Query: q}); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
		clock.now = clock.now.Add(time.Minute)
	}

	entries, err := cache.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 || entries[0].Query != "c" || entries[2].Query != "a" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	removed, err := cache.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}
	if count, _ := cache.Count(ctx); count != 0 {
		t.Fatalf("count after clear = %d", count)
	}
}

func TestPurgeWithoutTTLIsNoop(t *testing.T) {
	cache := openTestCache(t, 0, nil)
	removed, err := cache.Purge(context.Background())
	if err != nil || removed != 0 {
		t.Fatalf("Purge = %d, %v", removed, err)
	}
}

func TestStoreRejectsEmptyQuery(t *testing.T) {
	cache := openTestCache(t, 0, nil)
	if err := cache.Store(context.Background(), Entry{Provider: "brave", Query: "   "}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	if _, ok, err := cache.Lookup(ctx, "brave", ModeSummary, "q"); ok || err != nil {
		t.Fatalf("nil Lookup = %v, %v", ok, err)
	}
	if err := cache.Store(ctx, Entry{Query: "q"}); err != nil {
		t.Fatalf("nil Store: %v", err)
	}
	if entries, err := cache.List(ctx); entries != nil || err != nil {
		t.Fatalf("nil List = %v, %v", entries, err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	cache, err := Open(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := cache.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = cache.Close()

	_, err = Open(context.Background(), path, Options{})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRetryOnBusyStopsOnOtherErrors(t *testing.T) {
	calls := 0
	err := retryOnBusy(context.Background(), func() error {
		calls++
		return sql.ErrConnDone
	})
	if !errors.Is(err, sql.ErrConnDone) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}

	calls = 0
	err = retryOnBusy(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked (SQLITE_BUSY)")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

package memory

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/compass-oss/compass/internal/telemetry"
)

func newCacheFixture(t *testing.T) (Store, *ContextCache, *telemetry.Metrics) {
	t.Helper()
	store, err := NewStore("sqlite", filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	metrics := telemetry.NewMetrics()
	cache, err := NewContextCache(store, 16, telemetry.NewTestLogger(), metrics)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cache.Close)
	return store, cache, metrics
}

func TestContextCache_EmptyWhenNoMemories(t *testing.T) {
	_, cache, _ := newCacheFixture(t)

	got, err := cache.Context("alice", "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("context = %q, want empty", got)
	}
}

func TestContextCache_AssemblesTiersInOrder(t *testing.T) {
	store, cache, _ := newCacheFixture(t)

	for tier, content := range map[Tier]string{
		TierShort: "latest session notes",
		TierMid:   "recent conversation themes",
		TierLong:  "durable insight about values",
	} {
		if err := store.Put(NewRecord("alice", "conv-0", content, tier)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := cache.Context("alice", "conv-1")
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(got, contextHeader) {
		t.Errorf("context should open with the header: %q", got)
	}
	long := strings.Index(got, "durable insight about values")
	mid := strings.Index(got, "recent conversation themes")
	short := strings.Index(got, "latest session notes")
	if long < 0 || mid < 0 || short < 0 {
		t.Fatalf("context missing tiers: %q", got)
	}
	if !(long < mid && mid < short) {
		t.Errorf("tier order should be long, mid, short: %q", got)
	}
	for _, label := range tierLabels {
		if !strings.Contains(got, label) {
			t.Errorf("context missing label %q", label)
		}
	}
}

func TestContextCache_SkipsEmptyTiers(t *testing.T) {
	store, cache, _ := newCacheFixture(t)

	if err := store.Put(NewRecord("alice", "conv-0", "only a mid memory", TierMid)); err != nil {
		t.Fatal(err)
	}

	got, err := cache.Context("alice", "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, tierLabels[TierLong]) || strings.Contains(got, tierLabels[TierShort]) {
		t.Errorf("empty tiers should be omitted: %q", got)
	}
	if !strings.Contains(got, "only a mid memory") {
		t.Errorf("context = %q", got)
	}
}

func TestContextCache_HitAfterMiss(t *testing.T) {
	store, cache, metrics := newCacheFixture(t)

	if err := store.Put(NewRecord("alice", "conv-0", "something to remember", TierShort)); err != nil {
		t.Fatal(err)
	}

	first, err := cache.Context("alice", "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := cache.Context("alice", "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("cached context should be identical")
	}

	summary := metrics.GetSummary()
	if summary["cache_misses"].(int64) != 1 || summary["cache_hits"].(int64) != 1 {
		t.Errorf("hits/misses = %v/%v, want 1/1",
			summary["cache_hits"], summary["cache_misses"])
	}
}

func TestContextCache_InvalidateMakesWritesVisible(t *testing.T) {
	store, cache, _ := newCacheFixture(t)

	if err := store.Put(NewRecord("alice", "conv-0", "first memory", TierShort)); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Context("alice", "conv-1"); err != nil {
		t.Fatal(err)
	}

	rec := NewRecord("alice", "conv-0", "second memory arriving later", TierShort)
	rec.CreatedAt = rec.CreatedAt.Add(time.Minute)
	rec.UpdatedAt = rec.CreatedAt
	if err := store.Put(rec); err != nil {
		t.Fatal(err)
	}
	cache.Invalidate("alice")

	got, err := cache.Context("alice", "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "second memory arriving later") {
		t.Errorf("context should reflect the write immediately: %q", got)
	}
}

func TestContextCache_InvalidateScopedToUser(t *testing.T) {
	store, cache, metrics := newCacheFixture(t)

	if err := store.Put(NewRecord("alice", "conv-0", "alice memory", TierShort)); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(NewRecord("bob", "conv-5", "bob memory", TierShort)); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Context("alice", "conv-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Context("bob", "conv-6"); err != nil {
		t.Fatal(err)
	}

	cache.Invalidate("alice")

	if _, err := cache.Context("bob", "conv-6"); err != nil {
		t.Fatal(err)
	}
	summary := metrics.GetSummary()
	if summary["cache_hits"].(int64) != 1 {
		t.Errorf("bob's entry should survive alice's invalidation: %v", summary)
	}
}

// latestHookStore runs a callback after each LatestByTier read, standing in
// for a writer that lands between a reader's store scan and its cache insert.
type latestHookStore struct {
	Store
	afterLatest func(tier Tier)
}

func (s *latestHookStore) LatestByTier(userID string, tier Tier) (*Record, error) {
	rec, err := s.Store.LatestByTier(userID, tier)
	if s.afterLatest != nil {
		s.afterLatest(tier)
	}
	return rec, err
}

func TestContextCache_WriteDuringAssemblyIsNotCached(t *testing.T) {
	inner, err := NewStore("sqlite", filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { inner.Close() })

	hooked := &latestHookStore{Store: inner}
	cache, err := NewContextCache(hooked, 16, telemetry.NewTestLogger(), telemetry.NewMetrics())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(cache.Close)

	if err := inner.Put(NewRecord("alice", "conv-0", "first memory", TierShort)); err != nil {
		t.Fatal(err)
	}

	fired := false
	hooked.afterLatest = func(tier Tier) {
		if fired || tier != TierShort {
			return
		}
		fired = true
		rec := NewRecord("alice", "conv-0", "second memory arriving later", TierShort)
		rec.CreatedAt = rec.CreatedAt.Add(time.Minute)
		rec.UpdatedAt = rec.CreatedAt
		if err := inner.Put(rec); err != nil {
			t.Fatal(err)
		}
		cache.Invalidate("alice")
	}

	// This read assembled from pre-write state; the interleaved write
	// completed before the read's cache insert.
	stale, err := cache.Context("alice", "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stale, "first memory") {
		t.Fatalf("interleaved read should still see pre-write state: %q", stale)
	}

	got, err := cache.Context("alice", "conv-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "second memory arriving later") {
		t.Errorf("read after a completed write must see it: %q", got)
	}
}

func TestContextCache_Forget(t *testing.T) {
	store, cache, metrics := newCacheFixture(t)

	if err := store.Put(NewRecord("alice", "conv-0", "a memory", TierShort)); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Context("alice", "conv-1"); err != nil {
		t.Fatal(err)
	}

	cache.Forget("alice", "conv-1")

	if _, err := cache.Context("alice", "conv-1"); err != nil {
		t.Fatal(err)
	}
	if got := metrics.GetSummary()["cache_misses"].(int64); got != 2 {
		t.Errorf("misses = %d, want 2 after forget", got)
	}
}

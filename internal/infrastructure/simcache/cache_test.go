package simcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/persisttest"
	"github.com/voidws/xcpilot/internal/pkg/logger"
)

func testListing(refreshedAt time.Time) domain.SimulatorListing {
	return domain.SimulatorListing{
		RefreshedAt: refreshedAt,
		DevicesByRuntime: map[string][]domain.SimulatorDevice{
			"iOS-17-0": {
				{UDID: "PHONE-1", Name: "iPhone 15", State: "Shutdown", IsAvailable: true},
				{UDID: "PHONE-2", Name: "iPhone 15 Pro", State: "Booted", IsAvailable: true,
					LastBootedAt: refreshedAt.Add(-time.Minute)},
				{UDID: "PHONE-3", Name: "iPhone 12", State: "Shutdown", IsAvailable: false},
			},
			"tvOS-17-0": {
				{UDID: "TV-1", Name: "Apple TV", State: "Shutdown", IsAvailable: true},
			},
		},
	}
}

func newTestCache(t *testing.T, source *stubSource, store *persisttest.MemStore) *Cache {
	t.Helper()
	if store == nil {
		store = persisttest.NewMemStore(false)
	}
	c := New(source, store, logger.NewStd(false), Options{Staleness: time.Hour})
	<-c.Ready()
	t.Cleanup(c.Close)
	return c
}

func TestListingRefreshesWhenStale(t *testing.T) {
	source := &stubSource{listing: testListing(time.Now())}
	cache := newTestCache(t, source, nil)

	first, err := cache.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if first.Empty() {
		t.Fatal("expected devices in the listing")
	}
	if source.calls() != 1 {
		t.Fatalf("expected one source call, got %d", source.calls())
	}

	// A second call within the staleness window serves the snapshot.
	if _, err := cache.Listing(context.Background()); err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if source.calls() != 1 {
		t.Fatalf("expected cached snapshot, got %d source calls", source.calls())
	}

	cache.Invalidate()
	if _, err := cache.Listing(context.Background()); err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	if source.calls() != 2 {
		t.Fatalf("expected refresh after Invalidate, got %d source calls", source.calls())
	}
}

func TestUsageSurvivesRefresh(t *testing.T) {
	source := &stubSource{listing: testListing(time.Now())}
	cache := newTestCache(t, source, nil)

	if _, err := cache.Listing(context.Background()); err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	cache.RecordUsage("PHONE-1", "/proj")
	cache.RecordUsage("PHONE-1", "/proj")

	// Replace the snapshot wholesale; counters are keyed on UDID and must
	// carry over.
	source.set(testListing(time.Now().Add(time.Minute)))
	cache.Invalidate()

	listing, err := cache.Listing(context.Background())
	if err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	for _, dev := range listing.DevicesByRuntime["iOS-17-0"] {
		if dev.UDID == "PHONE-1" {
			if dev.Usage("/proj") != 2 {
				t.Fatalf("expected usage 2 after refresh, got %d", dev.Usage("/proj"))
			}
			return
		}
	}
	t.Fatal("PHONE-1 missing from refreshed listing")
}

func TestRefreshFailureServesStaleSnapshot(t *testing.T) {
	source := &stubSource{listing: testListing(time.Now())}
	cache := newTestCache(t, source, nil)

	if _, err := cache.Listing(context.Background()); err != nil {
		t.Fatalf("Listing() error = %v", err)
	}

	source.fail(errors.New("simctl unavailable"))
	cache.Invalidate()

	listing, err := cache.Listing(context.Background())
	if err != nil {
		t.Fatalf("expected stale snapshot, got error %v", err)
	}
	if listing.Empty() {
		t.Fatal("expected stale snapshot to be served")
	}
}

func TestRefreshFailureWithoutSnapshotErrors(t *testing.T) {
	source := &stubSource{}
	source.fail(errors.New("simctl unavailable"))
	cache := newTestCache(t, source, nil)

	if _, err := cache.Listing(context.Background()); err == nil {
		t.Fatal("expected error when no snapshot exists")
	}
}

func TestPreferredSimulatorPicksHighestUsage(t *testing.T) {
	source := &stubSource{listing: testListing(time.Now())}
	cache := newTestCache(t, source, nil)
	ctx := context.Background()

	if _, ok := cache.PreferredSimulator(ctx, "/proj"); ok {
		t.Fatal("expected no preference before any usage")
	}

	cache.RecordUsage("PHONE-1", "/proj")
	cache.RecordUsage("TV-1", "/proj")
	cache.RecordUsage("TV-1", "/proj")

	dev, ok := cache.PreferredSimulator(ctx, "/proj")
	if !ok || dev.UDID != "TV-1" {
		t.Fatalf("expected TV-1 as preferred, got %+v (ok=%t)", dev, ok)
	}

	// Usage of an unavailable device never wins.
	cache.RecordUsage("PHONE-3", "/proj")
	cache.RecordUsage("PHONE-3", "/proj")
	cache.RecordUsage("PHONE-3", "/proj")
	dev, ok = cache.PreferredSimulator(ctx, "/proj")
	if !ok || dev.UDID != "TV-1" {
		t.Fatalf("unavailable device must not be preferred, got %+v", dev)
	}
}

func TestBestSimulatorFallbackChain(t *testing.T) {
	source := &stubSource{listing: testListing(time.Now())}
	cache := newTestCache(t, source, nil)
	ctx := context.Background()

	// No usage: the most recently booted available device wins.
	dev, ok := cache.BestSimulator(ctx, "/proj")
	if !ok || dev.UDID != "PHONE-2" {
		t.Fatalf("expected most-recently-booted PHONE-2, got %+v", dev)
	}

	// Usage overrides the boot-time fallback.
	cache.RecordUsage("TV-1", "/proj")
	dev, ok = cache.BestSimulator(ctx, "/proj")
	if !ok || dev.UDID != "TV-1" {
		t.Fatalf("expected preferred TV-1, got %+v", dev)
	}
}

func TestBestSimulatorFirstAvailableWhenNeverBooted(t *testing.T) {
	listing := domain.SimulatorListing{
		RefreshedAt: time.Now(),
		DevicesByRuntime: map[string][]domain.SimulatorDevice{
			"iOS-17-0": {
				{UDID: "A", Name: "iPhone", State: "Shutdown", IsAvailable: false},
				{UDID: "B", Name: "iPhone Pro", State: "Shutdown", IsAvailable: true},
			},
		},
	}
	source := &stubSource{listing: listing}
	cache := newTestCache(t, source, nil)

	dev, ok := cache.BestSimulator(context.Background(), "/proj")
	if !ok || dev.UDID != "B" {
		t.Fatalf("expected first available device B, got %+v", dev)
	}
}

func TestFindByUDID(t *testing.T) {
	source := &stubSource{listing: testListing(time.Now())}
	cache := newTestCache(t, source, nil)
	ctx := context.Background()

	dev, ok := cache.FindByUDID(ctx, "TV-1")
	if !ok || dev.Name != "Apple TV" {
		t.Fatalf("FindByUDID(TV-1) = %+v, %t", dev, ok)
	}
	if _, ok := cache.FindByUDID(ctx, "NOPE"); ok {
		t.Fatal("expected miss for unknown UDID")
	}
}

func TestUsagePersistRoundTrip(t *testing.T) {
	store := persisttest.NewMemStore(true)
	source := &stubSource{listing: testListing(time.Now())}

	first := newTestCache(t, source, store)
	if _, err := first.Listing(context.Background()); err != nil {
		t.Fatalf("Listing() error = %v", err)
	}
	first.RecordUsage("PHONE-1", "/proj")
	first.Flush()

	second := newTestCache(t, source, store)
	dev, ok := second.PreferredSimulator(context.Background(), "/proj")
	if !ok || dev.UDID != "PHONE-1" {
		t.Fatalf("expected usage to survive restart, got %+v (ok=%t)", dev, ok)
	}
}

type stubSource struct {
	mu      sync.Mutex
	listing domain.SimulatorListing
	err     error
	n       int
}

func (s *stubSource) List(context.Context) (domain.SimulatorListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if s.err != nil {
		return domain.SimulatorListing{}, s.err
	}
	return s.listing, nil
}

func (s *stubSource) set(listing domain.SimulatorListing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listing = listing
	s.err = nil
}

func (s *stubSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubSource) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

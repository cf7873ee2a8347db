// Package simcache maintains the known simulator targets, per-project usage
// counters, and the usage-based ranking behind "pick the best target
// automatically".
package simcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/pkg/schedule"
	"github.com/voidws/xcpilot/internal/ports"
)

// Options bound the cache.
type Options struct {
	Staleness time.Duration
	Debounce  time.Duration
}

// Cache holds the current listing snapshot plus usage counters that survive
// refreshes keyed on device UDID. Snapshots are replaced wholesale, never
// merged.
type Cache struct {
	mu       sync.Mutex
	listing  domain.SimulatorListing
	usage    map[string]map[string]int
	lastUsed map[string]time.Time

	staleness time.Duration
	now       func() time.Time

	source  ports.SimulatorSource
	store   ports.StateStore
	log     ports.Logger
	persist *schedule.Debouncer
	ready   chan struct{}
	group   singleflight.Group
}

type persistedState struct {
	Version  int                       `json:"version"`
	Usage    map[string]map[string]int `json:"usage"`
	LastUsed map[string]time.Time      `json:"last_used"`
}

// New builds the cache and starts a best-effort asynchronous load of usage
// counters.
func New(source ports.SimulatorSource, store ports.StateStore, log ports.Logger, opts Options) *Cache {
	if opts.Staleness <= 0 {
		opts.Staleness = domain.DefaultSimulatorStaleness
	}
	if opts.Debounce <= 0 {
		opts.Debounce = domain.DefaultPersistDebounce
	}

	c := &Cache{
		usage:     make(map[string]map[string]int),
		lastUsed:  make(map[string]time.Time),
		staleness: opts.Staleness,
		now:       time.Now,
		source:    source,
		store:     store,
		log:       log,
		ready:     make(chan struct{}),
	}
	c.persist = schedule.NewDebouncer(opts.Debounce, c.persistNow)

	go c.load()
	return c
}

// Ready is closed once the initial state load has finished (or been skipped).
func (c *Cache) Ready() <-chan struct{} {
	return c.ready
}

// Listing returns the current snapshot, refreshing from the source when the
// snapshot is absent or stale. Concurrent refreshes are deduplicated.
func (c *Cache) Listing(ctx context.Context) (domain.SimulatorListing, error) {
	c.mu.Lock()
	stale := c.listing.Stale(c.now(), c.staleness)
	c.mu.Unlock()

	if stale {
		if _, err, _ := c.group.Do("refresh", func() (interface{}, error) {
			return nil, c.refresh(ctx)
		}); err != nil {
			// A stale snapshot is still better than none.
			c.mu.Lock()
			old := c.listing
			c.mu.Unlock()
			if old.RefreshedAt.IsZero() {
				return domain.SimulatorListing{}, err
			}
			c.log.Warn("simulator refresh failed, serving stale snapshot", map[string]interface{}{"error": err.Error()})
			return c.decorated(old), nil
		}
	}

	c.mu.Lock()
	current := c.listing
	c.mu.Unlock()
	return c.decorated(current), nil
}

// Invalidate forces the next Listing call to refresh.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.listing.RefreshedAt = time.Time{}
	c.mu.Unlock()
}

// RecordUsage increments the per-(device, project) usage counter and stamps
// last-used time. Devices are never removed here; counters only grow while
// a record exists.
func (c *Cache) RecordUsage(udid, projectPath string) {
	if udid == "" {
		return
	}

	c.mu.Lock()
	if c.usage[udid] == nil {
		c.usage[udid] = make(map[string]int)
	}
	c.usage[udid][projectPath]++
	c.lastUsed[udid] = c.now()
	c.mu.Unlock()

	c.schedulePersist()
}

// PreferredSimulator returns the available device with the highest usage
// counter for a project, or false when the project has no usage yet.
func (c *Cache) PreferredSimulator(ctx context.Context, projectPath string) (domain.SimulatorDevice, bool) {
	listing, err := c.Listing(ctx)
	if err != nil {
		return domain.SimulatorDevice{}, false
	}

	var best domain.SimulatorDevice
	bestCount := 0
	forEachDevice(listing, func(d domain.SimulatorDevice) {
		if !d.IsAvailable {
			return
		}
		if count := d.Usage(projectPath); count > bestCount {
			best = d
			bestCount = count
		}
	})
	return best, bestCount > 0
}

// BestSimulator picks a device deterministically given the same snapshot:
// the project's preferred device if available, else the most-recently-booted
// available device, else the first available device in listing order.
func (c *Cache) BestSimulator(ctx context.Context, projectPath string) (domain.SimulatorDevice, bool) {
	if preferred, ok := c.PreferredSimulator(ctx, projectPath); ok {
		return preferred, true
	}

	listing, err := c.Listing(ctx)
	if err != nil {
		return domain.SimulatorDevice{}, false
	}

	var recent domain.SimulatorDevice
	forEachDevice(listing, func(d domain.SimulatorDevice) {
		if !d.IsAvailable || d.LastBootedAt.IsZero() {
			return
		}
		if d.LastBootedAt.After(recent.LastBootedAt) {
			recent = d
		}
	})
	if recent.UDID != "" {
		return recent, true
	}

	var first domain.SimulatorDevice
	forEachDevice(listing, func(d domain.SimulatorDevice) {
		if first.UDID == "" && d.IsAvailable {
			first = d
		}
	})
	return first, first.UDID != ""
}

// FindByUDID linearly searches all runtime buckets in the snapshot.
func (c *Cache) FindByUDID(ctx context.Context, udid string) (domain.SimulatorDevice, bool) {
	listing, err := c.Listing(ctx)
	if err != nil {
		return domain.SimulatorDevice{}, false
	}

	var found domain.SimulatorDevice
	forEachDevice(listing, func(d domain.SimulatorDevice) {
		if d.UDID == udid {
			found = d
		}
	})
	return found, found.UDID != ""
}

// Flush forces any pending persist to run now.
func (c *Cache) Flush() {
	c.persist.Flush()
}

// Close stops the persist scheduler after flushing pending state.
func (c *Cache) Close() {
	c.persist.Flush()
	c.persist.Stop()
}

func (c *Cache) refresh(ctx context.Context) error {
	fresh, err := c.source.List(ctx)
	if err != nil {
		return err
	}
	if fresh.RefreshedAt.IsZero() {
		fresh.RefreshedAt = c.now()
	}

	c.mu.Lock()
	c.listing = fresh
	c.mu.Unlock()
	return nil
}

// decorated returns a copy of the snapshot with usage counters and last-used
// times projected onto the devices. The stored snapshot is never mutated.
func (c *Cache) decorated(listing domain.SimulatorListing) domain.SimulatorListing {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := domain.SimulatorListing{
		DevicesByRuntime: make(map[string][]domain.SimulatorDevice, len(listing.DevicesByRuntime)),
		RefreshedAt:      listing.RefreshedAt,
	}
	for runtime, devices := range listing.DevicesByRuntime {
		copied := make([]domain.SimulatorDevice, len(devices))
		copy(copied, devices)
		for i := range copied {
			if counts, ok := c.usage[copied[i].UDID]; ok {
				projected := make(map[string]int, len(counts))
				for project, n := range counts {
					projected[project] = n
				}
				copied[i].UsageByProject = projected
			}
			if used, ok := c.lastUsed[copied[i].UDID]; ok {
				copied[i].LastUsedAt = used
			}
		}
		out.DevicesByRuntime[runtime] = copied
	}
	return out
}

// forEachDevice visits devices in deterministic runtime order.
func forEachDevice(listing domain.SimulatorListing, visit func(domain.SimulatorDevice)) {
	for _, runtime := range listing.Runtimes() {
		for _, device := range listing.DevicesByRuntime[runtime] {
			visit(device)
		}
	}
}

func (c *Cache) schedulePersist() {
	if !c.store.Enabled() {
		return
	}
	c.persist.Schedule()
}

func (c *Cache) persistNow() {
	c.mu.Lock()
	state := persistedState{Version: 1, Usage: make(map[string]map[string]int, len(c.usage)), LastUsed: make(map[string]time.Time, len(c.lastUsed))}
	for udid, counts := range c.usage {
		projected := make(map[string]int, len(counts))
		for project, n := range counts {
			projected[project] = n
		}
		state.Usage[udid] = projected
	}
	for udid, used := range c.lastUsed {
		state.LastUsed[udid] = used
	}
	c.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		c.log.Warn("simulator cache serialize failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := c.store.Save(context.Background(), domain.StateKeySimulators, data); err != nil {
		c.log.Warn("simulator cache persist failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Cache) load() {
	defer close(c.ready)

	if !c.store.Enabled() {
		return
	}
	data, ok, err := c.store.Load(context.Background(), domain.StateKeySimulators)
	if err != nil {
		c.log.Warn("simulator cache load failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if !ok {
		return
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		c.log.Warn("simulator cache state corrupt", map[string]interface{}{"error": err.Error()})
		return
	}

	c.mu.Lock()
	for udid, counts := range state.Usage {
		if udid == "" {
			continue
		}
		c.usage[udid] = counts
	}
	for udid, used := range state.LastUsed {
		c.lastUsed[udid] = used
	}
	c.mu.Unlock()
}

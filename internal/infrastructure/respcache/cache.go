// Package respcache implements the bounded, time-expiring response store.
//
// Full tool output is stashed once under a generated handle, a cheap summary
// is handed back immediately, and the full detail stays retrievable by handle
// until it expires or is evicted for capacity.
package respcache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/pkg/schedule"
	"github.com/voidws/xcpilot/internal/ports"
)

// Options bound the cache.
type Options struct {
	MaxEntries int
	MaxAge     time.Duration
	Debounce   time.Duration
}

// Cache stores captured command executions by handle. Expiry is enforced
// lazily on read and write; capacity eviction is strictly oldest-first.
type Cache struct {
	mu      sync.Mutex
	entries map[string]domain.CachedResponse

	maxEntries int
	maxAge     time.Duration
	now        func() time.Time

	store   ports.StateStore
	log     ports.Logger
	persist *schedule.Debouncer
	ready   chan struct{}
}

type persistedState struct {
	Version   int                     `json:"version"`
	Responses []domain.CachedResponse `json:"responses"`
}

// New builds the cache and kicks off a best-effort asynchronous load of
// prior state. Load failures are swallowed with a warning; the cache simply
// starts empty.
func New(store ports.StateStore, log ports.Logger, opts Options) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = domain.DefaultMaxResponses
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = domain.DefaultResponseMaxAge
	}
	if opts.Debounce <= 0 {
		opts.Debounce = domain.DefaultPersistDebounce
	}

	c := &Cache{
		entries:    make(map[string]domain.CachedResponse),
		maxEntries: opts.MaxEntries,
		maxAge:     opts.MaxAge,
		now:        time.Now,
		store:      store,
		log:        log,
		ready:      make(chan struct{}),
	}
	c.persist = schedule.NewDebouncer(opts.Debounce, c.persistNow)

	go c.load()
	return c
}

// Ready is closed once the initial state load has finished (or been skipped).
func (c *Cache) Ready() <-chan struct{} {
	return c.ready
}

// Store inserts a captured execution under a fresh handle, runs cleanup,
// schedules a debounced persist, and returns the handle. Never blocks on
// persistence.
func (c *Cache) Store(resp domain.CachedResponse) string {
	resp.Handle = uuid.NewString()
	resp.CreatedAt = c.now()

	c.mu.Lock()
	c.entries[resp.Handle] = resp
	c.cleanupLocked()
	c.mu.Unlock()

	c.schedulePersist()
	return resp.Handle
}

// Get returns the entry for a handle if present and not expired. A lookup
// that finds an expired entry removes it as a side effect.
func (c *Cache) Get(handle string) (domain.CachedResponse, bool) {
	c.mu.Lock()
	entry, ok := c.entries[handle]
	if !ok {
		c.mu.Unlock()
		return domain.CachedResponse{}, false
	}
	if entry.Expired(c.now(), c.maxAge) {
		delete(c.entries, handle)
		c.mu.Unlock()
		c.schedulePersist()
		return domain.CachedResponse{}, false
	}
	c.mu.Unlock()
	return entry, true
}

// RecentByTool returns non-expired entries for a tool, newest first,
// truncated to limit (default 5).
func (c *Cache) RecentByTool(tool string, limit int) []domain.CachedResponse {
	if limit <= 0 {
		limit = domain.DefaultRecentLimit
	}
	now := c.now()

	c.mu.Lock()
	var matches []domain.CachedResponse
	for _, entry := range c.entries {
		if entry.Tool == tool && !entry.Expired(now, c.maxAge) {
			matches = append(matches, entry)
		}
	}
	c.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Delete removes an entry explicitly and triggers a persist.
func (c *Cache) Delete(handle string) bool {
	c.mu.Lock()
	_, ok := c.entries[handle]
	delete(c.entries, handle)
	c.mu.Unlock()

	if ok {
		c.schedulePersist()
	}
	return ok
}

// Clear removes all entries and triggers a persist.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]domain.CachedResponse)
	c.mu.Unlock()

	c.schedulePersist()
}

// Entries returns a snapshot of all non-expired entries, newest first.
func (c *Cache) Entries() []domain.CachedResponse {
	now := c.now()

	c.mu.Lock()
	all := make([]domain.CachedResponse, 0, len(c.entries))
	for _, entry := range c.entries {
		if !entry.Expired(now, c.maxAge) {
			all = append(all, entry)
		}
	}
	c.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

// Len returns the current entry count, expired entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
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

// cleanupLocked purges expired entries first, then evicts strictly
// oldest-first until at the capacity limit.
func (c *Cache) cleanupLocked() {
	now := c.now()
	for handle, entry := range c.entries {
		if entry.Expired(now, c.maxAge) {
			delete(c.entries, handle)
		}
	}

	if len(c.entries) <= c.maxEntries {
		return
	}

	ordered := make([]domain.CachedResponse, 0, len(c.entries))
	for _, entry := range c.entries {
		ordered = append(ordered, entry)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	for _, entry := range ordered {
		if len(c.entries) <= c.maxEntries {
			break
		}
		delete(c.entries, entry.Handle)
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
	state := persistedState{Version: 1, Responses: make([]domain.CachedResponse, 0, len(c.entries))}
	for _, entry := range c.entries {
		state.Responses = append(state.Responses, entry)
	}
	c.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		c.log.Warn("response cache serialize failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := c.store.Save(context.Background(), domain.StateKeyResponses, data); err != nil {
		c.log.Warn("response cache persist failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Cache) load() {
	defer close(c.ready)

	if !c.store.Enabled() {
		return
	}
	data, ok, err := c.store.Load(context.Background(), domain.StateKeyResponses)
	if err != nil {
		c.log.Warn("response cache load failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if !ok {
		return
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		c.log.Warn("response cache state corrupt", map[string]interface{}{"error": err.Error()})
		return
	}

	now := c.now()
	c.mu.Lock()
	for _, entry := range state.Responses {
		if entry.Handle == "" || entry.Expired(now, c.maxAge) {
			continue
		}
		c.entries[entry.Handle] = entry
	}
	c.cleanupLocked()
	c.mu.Unlock()
}

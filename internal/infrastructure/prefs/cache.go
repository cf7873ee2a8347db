// Package prefs implements the per-project preference cache: the last
// known-good build configuration plus a bounded outcome history, used to
// pre-fill future requests.
package prefs

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/pkg/schedule"
	"github.com/voidws/xcpilot/internal/ports"
)

// Options bound the cache.
type Options struct {
	HistoryLimit int
	Debounce     time.Duration
}

// Cache remembers which build configuration succeeded per project. The
// preferred configuration is replaced only after a successful outcome, so a
// single regression never erases a previously-working default.
type Cache struct {
	mu       sync.Mutex
	projects map[string]*domain.ProjectPreferences

	historyLimit int
	now          func() time.Time

	store    ports.StateStore
	settings ports.ProjectSettingsStore
	outcomes ports.OutcomeStore
	log      ports.Logger
	persist  *schedule.Debouncer
	ready    chan struct{}
}

type persistedState struct {
	Version  int                                   `json:"version"`
	Projects map[string]*domain.ProjectPreferences `json:"projects"`
}

// New builds the cache and starts a best-effort asynchronous state load.
// The settings and outcomes collaborators may be nil; both are invoked
// best-effort and their failures never roll back in-memory recording.
func New(store ports.StateStore, settings ports.ProjectSettingsStore, outcomes ports.OutcomeStore, log ports.Logger, opts Options) *Cache {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = domain.DefaultOutcomeRetention
	}
	if opts.Debounce <= 0 {
		opts.Debounce = domain.DefaultPersistDebounce
	}

	c := &Cache{
		projects:     make(map[string]*domain.ProjectPreferences),
		historyLimit: opts.HistoryLimit,
		now:          time.Now,
		store:        store,
		settings:     settings,
		outcomes:     outcomes,
		log:          log,
		ready:        make(chan struct{}),
	}
	c.persist = schedule.NewDebouncer(opts.Debounce, c.persistNow)

	go c.load()
	return c
}

// Ready is closed once the initial state load has finished (or been skipped).
func (c *Cache) Ready() <-chan struct{} {
	return c.ready
}

// PreferredBuildConfig returns the last successful build configuration for
// a project, or false if never recorded.
func (c *Cache) PreferredBuildConfig(projectPath string) (domain.BuildConfig, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.projects[projectPath]
	if !ok || p.Preferred == nil {
		return domain.BuildConfig{}, false
	}
	return *p.Preferred, true
}

// RecordBuildResult appends an outcome to the project's bounded history and,
// on success, replaces the preferred configuration with cfg.
func (c *Cache) RecordBuildResult(ctx context.Context, projectPath string, cfg domain.BuildConfig, outcome domain.BuildOutcome) {
	if outcome.Timestamp.IsZero() {
		outcome.Timestamp = c.now()
	}

	c.mu.Lock()
	p, ok := c.projects[projectPath]
	if !ok {
		p = &domain.ProjectPreferences{ProjectPath: projectPath}
		c.projects[projectPath] = p
	}
	p.History = append(p.History, outcome)
	if len(p.History) > c.historyLimit {
		p.History = p.History[len(p.History)-c.historyLimit:]
	}
	if outcome.Success {
		preferred := cfg
		p.Preferred = &preferred
	}
	p.UpdatedAt = outcome.Timestamp
	c.mu.Unlock()

	c.schedulePersist()

	// Both collaborators are best-effort; the in-memory record above is
	// already committed.
	if outcome.Success && c.settings != nil && outcome.DeviceUDID != "" {
		if err := c.settings.RecordSuccessfulBuild(ctx, projectPath, outcome.DeviceUDID, outcome.DeviceName); err != nil {
			c.log.Warn("project settings update failed", map[string]interface{}{
				"project": projectPath,
				"error":   err.Error(),
			})
		}
	}
	if c.outcomes != nil {
		record := domain.BuildRecord{
			Timestamp:    outcome.Timestamp,
			ProjectPath:  projectPath,
			Scheme:       cfg.Scheme,
			Config:       cfg.Configuration,
			Destination:  cfg.Destination,
			Success:      outcome.Success,
			DurationMS:   outcome.DurationMS,
			ErrorCount:   outcome.ErrorCount,
			WarningCount: outcome.WarningCount,
		}
		if err := c.outcomes.Save(record); err != nil {
			c.log.Warn("outcome history save failed", map[string]interface{}{
				"project": projectPath,
				"error":   err.Error(),
			})
		}
	}
}

// History returns the recorded outcomes for a project, oldest first.
func (c *Cache) History(projectPath string) []domain.BuildOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.projects[projectPath]
	if !ok {
		return nil
	}
	out := make([]domain.BuildOutcome, len(p.History))
	copy(out, p.History)
	return out
}

// Projects lists the known project paths, sorted.
func (c *Cache) Projects() []string {
	c.mu.Lock()
	paths := make([]string, 0, len(c.projects))
	for path := range c.projects {
		paths = append(paths, path)
	}
	c.mu.Unlock()

	sort.Strings(paths)
	return paths
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

func (c *Cache) schedulePersist() {
	if !c.store.Enabled() {
		return
	}
	c.persist.Schedule()
}

func (c *Cache) persistNow() {
	c.mu.Lock()
	state := persistedState{Version: 1, Projects: make(map[string]*domain.ProjectPreferences, len(c.projects))}
	for path, p := range c.projects {
		clone := *p
		clone.History = append([]domain.BuildOutcome(nil), p.History...)
		if p.Preferred != nil {
			preferred := *p.Preferred
			clone.Preferred = &preferred
		}
		state.Projects[path] = &clone
	}
	c.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		c.log.Warn("preference cache serialize failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := c.store.Save(context.Background(), domain.StateKeyProjects, data); err != nil {
		c.log.Warn("preference cache persist failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Cache) load() {
	defer close(c.ready)

	if !c.store.Enabled() {
		return
	}
	data, ok, err := c.store.Load(context.Background(), domain.StateKeyProjects)
	if err != nil {
		c.log.Warn("preference cache load failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if !ok {
		return
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		c.log.Warn("preference cache state corrupt", map[string]interface{}{"error": err.Error()})
		return
	}

	c.mu.Lock()
	for path, p := range state.Projects {
		if p == nil || path == "" {
			continue
		}
		c.projects[path] = p
	}
	c.mu.Unlock()
}

package domain

import (
	"sort"
	"time"
)

// Simulator power states as reported by simctl.
const (
	SimStateBooted   = "Booted"
	SimStateShutdown = "Shutdown"
)

// SimulatorDevice is one simulator target known to the cache.
//
// UDID is stable across listing refreshes; usage counters and last-used
// times are carried over keyed on UDID when a stale listing is replaced.
type SimulatorDevice struct {
	UDID           string         `json:"udid"`
	Name           string         `json:"name"`
	Runtime        string         `json:"runtime"`
	IsAvailable    bool           `json:"is_available"`
	State          string         `json:"state"`
	LastBootedAt   time.Time      `json:"last_booted_at,omitempty"`
	LastUsedAt     time.Time      `json:"last_used_at,omitempty"`
	UsageByProject map[string]int `json:"usage_by_project,omitempty"`
}

// Booted reports whether the device is currently powered on.
func (d SimulatorDevice) Booted() bool {
	return d.State == SimStateBooted
}

// Usage returns the usage counter for a project.
func (d SimulatorDevice) Usage(projectPath string) int {
	return d.UsageByProject[projectPath]
}

// SimulatorListing is a point-in-time snapshot of the simulator inventory,
// keyed by runtime identifier. Snapshots are replaced wholesale on refresh,
// never mutated in place.
type SimulatorListing struct {
	DevicesByRuntime map[string][]SimulatorDevice `json:"devices_by_runtime"`
	RefreshedAt      time.Time                    `json:"refreshed_at"`
}

// Empty reports whether the snapshot holds no devices.
func (l SimulatorListing) Empty() bool {
	for _, devices := range l.DevicesByRuntime {
		if len(devices) > 0 {
			return false
		}
	}
	return true
}

// Runtimes returns the runtime identifiers present in the snapshot in
// sorted order, so iteration over the map is deterministic.
func (l SimulatorListing) Runtimes() []string {
	runtimes := make([]string, 0, len(l.DevicesByRuntime))
	for runtime := range l.DevicesByRuntime {
		runtimes = append(runtimes, runtime)
	}
	sort.Strings(runtimes)
	return runtimes
}

// Stale reports whether the snapshot is older than the staleness window.
func (l SimulatorListing) Stale(now time.Time, window time.Duration) bool {
	return l.RefreshedAt.IsZero() || now.Sub(l.RefreshedAt) >= window
}

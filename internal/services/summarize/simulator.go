package summarize

import (
	"sort"

	"github.com/voidws/xcpilot/internal/domain"
)

// Simulators computes counts and convenience views over a listing snapshot.
func Simulators(listing domain.SimulatorListing) domain.SimulatorSummary {
	summary := domain.SimulatorSummary{}
	typeSet := map[string]struct{}{}
	runtimeSet := map[string]struct{}{}

	var available []domain.SimulatorDevice

	for _, runtime := range listing.Runtimes() {
		devices := listing.DevicesByRuntime[runtime]
		if len(devices) > 0 {
			runtimeSet[domain.RuntimeLabel(runtime)] = struct{}{}
		}
		for _, d := range devices {
			summary.Total++
			typeSet[domain.DeviceTypeLabel(d.Name)] = struct{}{}
			if d.IsAvailable {
				summary.Available++
				available = append(available, d)
			}
			if d.Booted() {
				summary.BootedCount++
				summary.Booted = append(summary.Booted, d)
			}
		}
	}

	for label := range typeSet {
		summary.DeviceTypes = append(summary.DeviceTypes, label)
	}
	sort.Strings(summary.DeviceTypes)
	for label := range runtimeSet {
		summary.ActiveRuntimes = append(summary.ActiveRuntimes, label)
	}
	sort.Strings(summary.ActiveRuntimes)

	// Most-recently-used available devices, capped to a small fixed count.
	var used []domain.SimulatorDevice
	for _, d := range available {
		if !d.LastUsedAt.IsZero() {
			used = append(used, d)
		}
	}
	sort.Slice(used, func(i, j int) bool {
		return used[i].LastUsedAt.After(used[j].LastUsedAt)
	})
	if len(used) > domain.RecentlyUsedLimit {
		used = used[:domain.RecentlyUsedLimit]
	}
	summary.RecentlyUsed = used

	return summary
}

// Package resolve picks the build destination for a request by combining
// explicit arguments, cached project preferences, and the simulator cache.
package resolve

import (
	"context"
	"fmt"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/ports"
)

// Source identifies which rule produced the resolved destination.
type Source string

const (
	SourceExplicit   Source = "explicit"
	SourcePreference Source = "preference"
	SourceSuggestion Source = "suggestion"
	SourceNone       Source = "none"
)

// PreferenceSource is the slice of the project cache the resolver reads.
type PreferenceSource interface {
	PreferredBuildConfig(projectPath string) (domain.BuildConfig, bool)
}

// SimulatorProvider is the slice of the simulator cache the resolver reads.
type SimulatorProvider interface {
	PreferredSimulator(ctx context.Context, projectPath string) (domain.SimulatorDevice, bool)
	Listing(ctx context.Context) (domain.SimulatorListing, error)
}

// Request carries the caller-supplied inputs for one resolution.
type Request struct {
	ProjectPath string
	Destination string
	SDK         string
}

// Resolution is the outcome of a resolve pass.
type Resolution struct {
	Destination string
	Source      Source
	DeviceUDID  string
	DeviceName  string
}

// UsedSmartDestination reports whether the destination came from cached
// state rather than the caller.
func (r Resolution) UsedSmartDestination() bool {
	return r.Source == SourcePreference || r.Source == SourceSuggestion
}

// Resolver holds no state of its own; it only reads from the caches.
type Resolver struct {
	prefs PreferenceSource
	sims  SimulatorProvider
	log   ports.Logger
}

func New(prefs PreferenceSource, sims SimulatorProvider, log ports.Logger) *Resolver {
	return &Resolver{prefs: prefs, sims: sims, log: log}
}

// Resolve applies the precedence rules in order; the first applicable
// rule wins.
func (r *Resolver) Resolve(ctx context.Context, req Request) Resolution {
	// An explicit destination is never overridden.
	if req.Destination != "" {
		return Resolution{Destination: req.Destination, Source: SourceExplicit}
	}

	hint := domain.PlatformFromSDK(req.SDK)

	// Reuse the cached preferred destination when its platform does not
	// conflict with the requested SDK.
	if r.prefs != nil {
		if cfg, ok := r.prefs.PreferredBuildConfig(req.ProjectPath); ok && cfg.Destination != "" {
			cached := domain.PlatformFromDestination(cfg.Destination)
			if cached.Compatible(hint) {
				r.log.Debug("reusing cached destination", map[string]interface{}{
					"project":     req.ProjectPath,
					"destination": cfg.Destination,
				})
				return Resolution{Destination: cfg.Destination, Source: SourcePreference}
			}
		}
	}

	// macOS builds must never inherit a simulator destination.
	if hint == domain.PlatformMacOS {
		return Resolution{Source: SourceNone}
	}

	// A physical-device SDK must not default onto a simulator.
	if req.SDK != "" && hint != domain.PlatformUnknown && !domain.IsSimulatorSDK(req.SDK) {
		return Resolution{Source: SourceNone}
	}

	if res, ok := r.suggestSimulator(ctx, req.ProjectPath, hint); ok {
		return res
	}

	// Let the underlying tool apply its own default.
	return Resolution{Source: SourceNone}
}

func (r *Resolver) suggestSimulator(ctx context.Context, projectPath string, hint domain.Platform) (Resolution, bool) {
	if r.sims == nil {
		return Resolution{}, false
	}

	if dev, ok := r.sims.PreferredSimulator(ctx, projectPath); ok {
		if domain.RuntimePlatform(dev.Runtime).Compatible(hint) {
			return r.simulatorResolution(dev), true
		}
	}

	listing, err := r.sims.Listing(ctx)
	if err != nil {
		r.log.Warn("simulator listing unavailable", map[string]interface{}{"error": err.Error()})
		return Resolution{}, false
	}
	for _, runtime := range listing.Runtimes() {
		if !domain.RuntimePlatform(runtime).Compatible(hint) {
			continue
		}
		for _, dev := range listing.DevicesByRuntime[runtime] {
			if dev.IsAvailable {
				return r.simulatorResolution(dev), true
			}
		}
	}
	return Resolution{}, false
}

func (r *Resolver) simulatorResolution(dev domain.SimulatorDevice) Resolution {
	platform := domain.RuntimePlatform(dev.Runtime)
	dest := fmt.Sprintf("platform=%s,id=%s", platform.SimulatorLabel(), dev.UDID)
	return Resolution{
		Destination: dest,
		Source:      SourceSuggestion,
		DeviceUDID:  dev.UDID,
		DeviceName:  dev.Name,
	}
}

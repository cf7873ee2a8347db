// Package simctl adapts `xcrun simctl` as the simulator listing source and
// device control surface.
package simctl

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/infrastructure/executor"
	"github.com/voidws/xcpilot/internal/ports"
)

const listTimeout = 30 * time.Second

// Source queries simctl for the current device inventory.
type Source struct {
	exec  *executor.Executor
	xcrun string
	log   ports.Logger
}

// NewSource builds a source, xcrun defaults to "xcrun".
func NewSource(exec *executor.Executor, xcrun string, log ports.Logger) *Source {
	if xcrun == "" {
		xcrun = "xcrun"
	}
	return &Source{exec: exec, xcrun: xcrun, log: log}
}

type simctlDevice struct {
	UDID                 string `json:"udid"`
	Name                 string `json:"name"`
	State                string `json:"state"`
	IsAvailable          bool   `json:"isAvailable"`
	DeviceTypeIdentifier string `json:"deviceTypeIdentifier"`
	LastBootedAt         string `json:"lastBootedAt,omitempty"`
}

type simctlList struct {
	Devices map[string][]simctlDevice `json:"devices"`
}

// List implements ports.SimulatorSource.
func (s *Source) List(ctx context.Context) (domain.SimulatorListing, error) {
	command := fmt.Sprintf("%s simctl list devices --json", s.xcrun)
	result, err := s.exec.Run(ctx, command, executor.Options{Timeout: listTimeout})
	if err != nil {
		return domain.SimulatorListing{}, fmt.Errorf("simctl list: %w", err)
	}
	if result.TimedOut {
		return domain.SimulatorListing{}, fmt.Errorf("simctl list timed out")
	}
	if result.ExitCode != 0 {
		return domain.SimulatorListing{}, fmt.Errorf("simctl list exited %d: %s", result.ExitCode, firstLine(result.Stderr))
	}

	var raw simctlList
	if err := json.Unmarshal([]byte(result.Stdout), &raw); err != nil {
		return domain.SimulatorListing{}, fmt.Errorf("parse simctl listing: %w", err)
	}

	listing := domain.SimulatorListing{
		DevicesByRuntime: make(map[string][]domain.SimulatorDevice, len(raw.Devices)),
		RefreshedAt:      time.Now(),
	}
	for runtime, devices := range raw.Devices {
		converted := make([]domain.SimulatorDevice, 0, len(devices))
		for _, d := range devices {
			device := domain.SimulatorDevice{
				UDID:        d.UDID,
				Name:        d.Name,
				Runtime:     runtime,
				IsAvailable: d.IsAvailable,
				State:       d.State,
			}
			if d.LastBootedAt != "" {
				if booted, err := time.Parse(time.RFC3339, d.LastBootedAt); err == nil {
					device.LastBootedAt = booted
				}
			}
			converted = append(converted, device)
		}
		listing.DevicesByRuntime[runtime] = converted
	}
	return listing, nil
}

// Boot powers on a simulator. Booting an already-booted device is treated
// as success.
func (s *Source) Boot(ctx context.Context, udid string) error {
	command := fmt.Sprintf("%s simctl boot %s", s.xcrun, udid)
	result, err := s.exec.Run(ctx, command, executor.Options{Timeout: listTimeout})
	if err != nil {
		return fmt.Errorf("simctl boot: %w", err)
	}
	if result.ExitCode != 0 && !strings.Contains(result.Stderr, "current state: Booted") {
		return fmt.Errorf("simctl boot exited %d: %s", result.ExitCode, firstLine(result.Stderr))
	}
	return nil
}

// Install installs an app bundle onto a booted simulator.
func (s *Source) Install(ctx context.Context, udid, appPath string) error {
	command := fmt.Sprintf("%s simctl install %s %q", s.xcrun, udid, appPath)
	result, err := s.exec.Run(ctx, command, executor.Options{Timeout: listTimeout})
	if err != nil {
		return fmt.Errorf("simctl install: %w", err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("simctl install exited %d: %s", result.ExitCode, firstLine(result.Stderr))
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

var _ ports.SimulatorSource = (*Source)(nil)

// Package doctor runs environment diagnostics.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/ports"
)

// Service checks that the tool's external collaborators are reachable.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Store          ports.StateStore
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("format version %s", cfg.ConfigFormatVersion)))

	checks = append(checks, toolCheck("xcodebuild", cfg.Tools.Xcodebuild))
	checks = append(checks, toolCheck("xcrun", cfg.Tools.Xcrun))

	if s.Store != nil && s.Store.Enabled() {
		checks = append(checks, stateDirCheck(cfg.Persistence.StateDir))
	} else {
		checks = append(checks, warn("State directory", "persistence disabled"))
	}

	return domain.HealthReport{Checks: checks}, nil
}

func toolCheck(name, path string) domain.HealthCheck {
	if path == "" {
		path = name
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return fail(name, fmt.Sprintf("not found: %v", err))
	}
	return ok(name, resolved)
}

func stateDirCheck(dir string) domain.HealthCheck {
	if dir == "" {
		return warn("State directory", "not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail("State directory", err.Error())
	}
	probe := filepath.Join(dir, ".doctor_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fail("State directory", fmt.Sprintf("not writable: %v", err))
	}
	os.Remove(probe)
	return ok("State directory", dir)
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthFail, Details: details}
}

// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the application core and
// external adapters (infrastructure). Following the Ports and Adapters
// (Hexagonal) pattern, these interfaces keep the caching and resolution
// engine independent of the concrete command-line tools, the filesystem,
// and the CLI framework.
//
// Key architectural concepts:
//   - Ports: interfaces defined here (e.g. CommandRunner, StateStore)
//   - Adapters: concrete implementations in the infrastructure layer
//   - Dependency inversion: services depend on abstractions, not implementations
package ports

import (
	"context"
	"io"

	"github.com/voidws/xcpilot/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.xcpilot/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// CommandRunner spawns external tool processes. The executor only requires
// "spawn, stream output, support forced termination"; everything above that
// (timeouts, buffer limits, fatal patterns) lives in the executor itself.
type CommandRunner interface {
	Start(ctx context.Context, dir string, name string, args ...string) (Process, error)
}

// Process is a running child process whose output can be streamed and which
// can be killed before it exits on its own.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits and returns its exit code.
	// A non-zero exit is not an error; only reaping failures are.
	Wait() (int, error)
	Kill() error
}

// StateStore persists cache state as opaque blobs keyed by component name.
// The caches treat it as best-effort: a disabled or failing store never
// prevents cache operation.
type StateStore interface {
	Enabled() bool
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
}

// SimulatorSource returns the current raw device/runtime snapshot. The
// simulator cache treats it as the sole source of truth on refresh.
type SimulatorSource interface {
	List(ctx context.Context) (domain.SimulatorListing, error)
}

// ProjectSettingsStore remembers per-project choices that worked. Callers
// invoke it best-effort and ignore failures.
type ProjectSettingsStore interface {
	RecordSuccessfulBuild(ctx context.Context, projectPath, deviceUDID, deviceName string) error
}

// OutcomeStore durably records build outcomes for trend inspection.
type OutcomeStore interface {
	Save(record domain.BuildRecord) error
	Records(limit int, search string) ([]domain.BuildRecord, error)
	Clear() error
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

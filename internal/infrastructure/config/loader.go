package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/voidws/xcpilot/assets"
	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/pkg/filesystem"
	"github.com/voidws/xcpilot/internal/ports"
)

// FileLoader loads YAML configuration from ~/.xcpilot/config.yaml
// (overridable via XCPILOT_CONFIG).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions); err != nil {
				return domain.Config{}, err
			}
			data = assets.DefaultConfigYAML
		} else {
			return domain.Config{}, err
		}
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return l.overridePath
	}
	if custom := os.Getenv("XCPILOT_CONFIG"); custom != "" {
		return filesystem.ExpandTilde(custom)
	}
	return filesystem.AppDir("config.yaml")
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Cache.MaxResponses <= 0 {
		cfg.Cache.MaxResponses = domain.DefaultMaxResponses
	}
	if cfg.Cache.ResponseTTLMinutes <= 0 {
		cfg.Cache.ResponseTTLMinutes = int(domain.DefaultResponseMaxAge.Minutes())
	}
	if cfg.Cache.SimulatorTTLMinutes <= 0 {
		cfg.Cache.SimulatorTTLMinutes = int(domain.DefaultSimulatorStaleness.Minutes())
	}
	if cfg.Cache.OutcomeRetention <= 0 {
		cfg.Cache.OutcomeRetention = domain.DefaultOutcomeRetention
	}
	if cfg.Execution.Shell == "" {
		cfg.Execution.Shell = "/bin/sh"
	}
	if cfg.Execution.TimeoutSeconds <= 0 {
		cfg.Execution.TimeoutSeconds = int(domain.DefaultCommandTimeout.Seconds())
	}
	if cfg.Execution.MaxOutputBytes <= 0 {
		cfg.Execution.MaxOutputBytes = domain.DefaultMaxOutputBytes
	}
	if cfg.Persistence.StateDir == "" {
		cfg.Persistence.StateDir = filesystem.AppDir("state")
	}
	if cfg.Persistence.HistoryDB == "" {
		cfg.Persistence.HistoryDB = filesystem.AppDir("history", "builds.db")
	}
	if cfg.Tools.Xcodebuild == "" {
		cfg.Tools.Xcodebuild = "xcodebuild"
	}
	if cfg.Tools.Xcrun == "" {
		cfg.Tools.Xcrun = "xcrun"
	}
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)

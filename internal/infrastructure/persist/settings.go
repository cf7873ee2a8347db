package persist

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/ports"
)

// SettingsStore remembers, per project, the simulator that last served a
// successful build. It is written best-effort; callers ignore failures.
type SettingsStore struct {
	path string
	mu   sync.Mutex
}

type projectSetting struct {
	DeviceUDID string    `json:"device_udid"`
	DeviceName string    `json:"device_name"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewSettingsStore returns a store backed by a single JSON file under dir.
func NewSettingsStore(dir string) *SettingsStore {
	return &SettingsStore{path: filepath.Join(dir, "project_settings.json")}
}

// RecordSuccessfulBuild implements ports.ProjectSettingsStore.
func (s *SettingsStore) RecordSuccessfulBuild(_ context.Context, projectPath, deviceUDID, deviceName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := map[string]projectSetting{}
	if data, err := os.ReadFile(s.path); err == nil {
		_ = json.Unmarshal(data, &settings)
	}
	settings[projectPath] = projectSetting{
		DeviceUDID: deviceUDID,
		DeviceName: deviceName,
		UpdatedAt:  time.Now(),
	}

	if err := os.MkdirAll(filepath.Dir(s.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// Lookup returns the remembered simulator for a project, if any.
func (s *SettingsStore) Lookup(projectPath string) (udid, name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", "", false
	}
	settings := map[string]projectSetting{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return "", "", false
	}
	setting, ok := settings[projectPath]
	return setting.DeviceUDID, setting.DeviceName, ok
}

var _ ports.ProjectSettingsStore = (*SettingsStore)(nil)

// Package persist provides best-effort state persistence for the caches.
// A store failure never propagates into cache behavior; callers log and
// continue.
package persist

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/ports"
)

// FileStore persists state blobs as JSON files under a state directory,
// one file per component key.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Enabled implements ports.StateStore.
func (s *FileStore) Enabled() bool {
	return true
}

// Load reads the blob for a key. A missing file is not an error.
func (s *FileStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Save writes the blob for a key atomically (write then rename).
func (s *FileStore) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, domain.DirectoryPermissions); err != nil {
		return err
	}
	tmp := s.pathFor(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.pathFor(key))
}

// Dir exposes the state directory path.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// DisabledStore is a StateStore that never loads or saves. The caches
// skip all persistence attempts when the store reports itself disabled.
type DisabledStore struct{}

func (DisabledStore) Enabled() bool { return false }

func (DisabledStore) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (DisabledStore) Save(context.Context, string, []byte) error {
	return nil
}

var _ ports.StateStore = (*FileStore)(nil)
var _ ports.StateStore = DisabledStore{}

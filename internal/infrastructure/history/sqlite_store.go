package history

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/voidws/xcpilot/internal/domain"
	"github.com/voidws/xcpilot/internal/ports"
)

// SQLiteStore persists build outcomes in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the outcome database at path. When the
// database cannot be opened the store degrades to the jsonl file store.
func NewSQLiteStore(path string) *SQLiteStore {
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		return &SQLiteStore{path: path}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT,
		project_path TEXT,
		scheme TEXT,
		configuration TEXT,
		destination TEXT,
		success INTEGER,
		duration_ms INTEGER,
		error_count INTEGER,
		warning_count INTEGER
	);`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(record domain.BuildRecord) error {
	if s.db == nil {
		return (&FileStore{path: fallbackPath(s.path)}).Save(record)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO builds
		(timestamp, project_path, scheme, configuration, destination, success, duration_ms, error_count, warning_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.Format(time.RFC3339),
		record.ProjectPath,
		record.Scheme,
		record.Config,
		record.Destination,
		boolToInt(record.Success),
		record.DurationMS,
		record.ErrorCount,
		record.WarningCount,
	)
	return err
}

// Records returns outcome rows (limit/search optional), newest first.
func (s *SQLiteStore) Records(limit int, search string) ([]domain.BuildRecord, error) {
	if s.db == nil {
		return (&FileStore{path: fallbackPath(s.path)}).Records(limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT timestamp, project_path, scheme, configuration, destination, success, duration_ms, error_count, warning_count FROM builds")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE project_path LIKE ? OR scheme LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY datetime(timestamp) DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.BuildRecord
	for rows.Next() {
		var rec domain.BuildRecord
		var ts string
		var success int
		if err := rows.Scan(&ts, &rec.ProjectPath, &rec.Scheme, &rec.Config, &rec.Destination, &success, &rec.DurationMS, &rec.ErrorCount, &rec.WarningCount); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Success = success == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all outcome rows.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return (&FileStore{path: fallbackPath(s.path)}).Clear()
	}
	_, err := s.db.Exec("DELETE FROM builds")
	return err
}

// ExportJSON writes the builds table to a jsonl file.
func (s *SQLiteStore) ExportJSON(dest string) error {
	records, err := s.Records(0, "")
	if err != nil {
		return err
	}
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := file.Write(append(b, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func fallbackPath(dbPath string) string {
	return strings.TrimSuffix(dbPath, filepath.Ext(dbPath)) + ".jsonl"
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.OutcomeStore = (*SQLiteStore)(nil)

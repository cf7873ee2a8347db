package domain

import "time"

// BuildConfig is the build configuration remembered per project.
type BuildConfig struct {
	Scheme          string `json:"scheme" yaml:"scheme"`
	Configuration   string `json:"configuration" yaml:"configuration"`
	Destination     string `json:"destination" yaml:"destination"`
	SDK             string `json:"sdk" yaml:"sdk"`
	DerivedDataPath string `json:"derived_data_path" yaml:"derived_data_path"`
}

// BuildOutcome records how one build attempt went.
type BuildOutcome struct {
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	DurationMS   int64     `json:"duration_ms"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
	OutputBytes  int       `json:"output_bytes"`
	DeviceUDID   string    `json:"device_udid,omitempty"`
	DeviceName   string    `json:"device_name,omitempty"`
}

// ProjectPreferences is everything remembered about one project, keyed by
// its resolved path. Preferred is replaced only after a successful outcome;
// History is append-only up to the retention cap.
type ProjectPreferences struct {
	ProjectPath string         `json:"project_path"`
	Preferred   *BuildConfig   `json:"preferred,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
	History     []BuildOutcome `json:"history,omitempty"`
}

// BuildRecord is a flattened per-project outcome row for durable history.
type BuildRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	ProjectPath  string    `json:"project_path"`
	Scheme       string    `json:"scheme"`
	Config       string    `json:"configuration"`
	Destination  string    `json:"destination"`
	Success      bool      `json:"success"`
	DurationMS   int64     `json:"duration_ms"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
}

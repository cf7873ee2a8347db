package domain

// Config mirrors ~/.xcpilot/config.yaml.
type Config struct {
	ConfigFormatVersion string              `yaml:"config_format_version"`
	Cache               CacheSettings       `yaml:"cache"`
	Execution           ExecutionSettings   `yaml:"execution"`
	Persistence         PersistenceSettings `yaml:"persistence"`
	Tools               ToolSettings        `yaml:"tools"`
}

// CacheSettings bounds the in-memory caches.
type CacheSettings struct {
	MaxResponses        int `yaml:"max_responses"`
	ResponseTTLMinutes  int `yaml:"response_ttl_minutes"`
	SimulatorTTLMinutes int `yaml:"simulator_ttl_minutes"`
	OutcomeRetention    int `yaml:"outcome_retention"`
}

// ExecutionSettings controls how external tools run.
type ExecutionSettings struct {
	Shell          string `yaml:"shell"`
	TimeoutSeconds int    `yaml:"timeout"`
	MaxOutputBytes int    `yaml:"max_output_bytes"`
	FatalRulesFile string `yaml:"fatal_rules_file"`
}

// PersistenceSettings controls best-effort state snapshots.
type PersistenceSettings struct {
	Enabled   bool   `yaml:"enabled"`
	StateDir  string `yaml:"state_dir"`
	HistoryDB string `yaml:"history_db"`
}

// ToolSettings names the external command-line tools.
type ToolSettings struct {
	Xcodebuild string `yaml:"xcodebuild"`
	Xcrun      string `yaml:"xcrun"`
}

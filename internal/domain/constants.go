package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Timeout and duration constants
const (
	// DefaultResponseMaxAge is how long a cached response stays retrievable
	DefaultResponseMaxAge = 30 * time.Minute
	// DefaultSimulatorStaleness is how long a simulator listing snapshot is trusted
	DefaultSimulatorStaleness = time.Hour
	// DefaultCommandTimeout is the default timeout for tool execution
	DefaultCommandTimeout = 10 * time.Minute
	// DefaultPersistDebounce is the delay before a mutation is flushed to disk
	DefaultPersistDebounce = time.Second
)

// Limit constants
const (
	// DefaultMaxResponses is the maximum number of cached responses retained
	DefaultMaxResponses = 100
	// DefaultMaxOutputBytes caps accumulated stdout for a single execution
	DefaultMaxOutputBytes = 10 * 1024 * 1024
	// DefaultRecentLimit is the default page size for recent-response lookups
	DefaultRecentLimit = 5
	// DefaultOutcomeRetention caps per-project build outcome history
	DefaultOutcomeRetention = 20
	// SummaryListLimit caps the error and warning lists exposed in summaries
	SummaryListLimit = 10
	// RecentlyUsedLimit caps the recently-used device view in listing summaries
	RecentlyUsedLimit = 3
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
	// DefaultHistorySearchLimit is the default number of search results to return
	DefaultHistorySearchLimit = 50
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)

// Persisted state keys
const (
	StateKeyResponses  = "responses"
	StateKeyProjects   = "projects"
	StateKeySimulators = "simulators"
)

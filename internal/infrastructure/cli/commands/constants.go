package commands

// Display formats
const (
	TimestampFormat = "2006-01-02 15:04:05"
)

// Limits
const (
	DefaultHistoryLimit = 20
	DefaultRecentLimit  = 5
)

// Error messages
const (
	ErrOrchestratorUnavailable   = "orchestrator unavailable"
	ErrResponseCacheUnavailable  = "response cache unavailable"
	ErrHistoryStoreUnavailable   = "history store unavailable"
	ErrSimulatorCacheUnavailable = "simulator cache unavailable"
	ErrDoctorServiceUnavailable  = "doctor service unavailable"
	ErrHistoryExportUnsupported  = "history store does not support export"
)

// Informational messages
const (
	MsgNoCachedResponses = "No cached responses."
	MsgNoHistoryRecorded = "No build history recorded yet."
	MsgNoSimulators      = "No simulators found."
)

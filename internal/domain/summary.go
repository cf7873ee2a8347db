package domain

// BuildSummary is the compact view extracted from raw xcodebuild output.
// Errors and Warnings hold at most SummaryListLimit entries while the
// counts report true totals.
type BuildSummary struct {
	Success      bool     `json:"success"`
	ErrorCount   int      `json:"error_count"`
	WarningCount int      `json:"warning_count"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
	Target       string   `json:"target,omitempty"`
	ElapsedTime  string   `json:"elapsed_time,omitempty"`
}

// FirstError returns the leading error line, if any.
func (s BuildSummary) FirstError() string {
	if len(s.Errors) == 0 {
		return ""
	}
	return s.Errors[0]
}

// TestSummary is the compact view extracted from raw test-run output.
// TestCount sums every "<N> tests" occurrence found in the output; when a
// tool reports both per-suite and total counts the sum double-counts.
type TestSummary struct {
	Success      bool     `json:"success"`
	TestCount    int      `json:"test_count"`
	FailureCount int      `json:"failure_count"`
	Failures     []string `json:"failures,omitempty"`
	ElapsedTime  string   `json:"elapsed_time,omitempty"`
}

// SimulatorSummary is the compact view over a listing snapshot.
type SimulatorSummary struct {
	Total          int               `json:"total"`
	Available      int               `json:"available"`
	BootedCount    int               `json:"booted_count"`
	DeviceTypes    []string          `json:"device_types,omitempty"`
	ActiveRuntimes []string          `json:"active_runtimes,omitempty"`
	Booted         []SimulatorDevice `json:"booted,omitempty"`
	RecentlyUsed   []SimulatorDevice `json:"recently_used,omitempty"`
}

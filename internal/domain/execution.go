package domain

// ExecutionResult wraps details from the process executor.
//
// Exactly one of {normal exit, fatal match, timeout} applies to a run:
// FatalMatch is non-empty when a fatal pattern terminated the process,
// TimedOut is true when the timeout did. Neither is an error condition;
// callers inspect the result. Buffer overruns and spawn failures are the
// only hard errors the executor raises.
type ExecutionResult struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	TimedOut   bool
	FatalMatch string
	DurationMS int64
}

// Completed reports whether the process ran to an ordinary exit.
func (r ExecutionResult) Completed() bool {
	return !r.TimedOut && r.FatalMatch == ""
}

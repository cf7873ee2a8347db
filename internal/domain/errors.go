package domain

import "errors"

// Sentinel errors surfaced across the caching and execution layers.
var (
	// ErrBufferExceeded indicates a child process produced more stdout than
	// the configured limit and was terminated.
	ErrBufferExceeded = errors.New("output buffer exceeded")
	// ErrNotFound indicates a cache lookup missed (including expired entries).
	ErrNotFound = errors.New("not found")
	// ErrSpawnFailed indicates the child process could not be started.
	ErrSpawnFailed = errors.New("process spawn failed")
)

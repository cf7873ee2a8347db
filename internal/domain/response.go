package domain

import "time"

// CachedResponse is one captured tool execution, retrievable by handle.
//
// Metadata values are scalars only so the record serializes cheaply; anything
// structured belongs in Stdout/Stderr or in a dedicated field.
type CachedResponse struct {
	Handle    string            `json:"handle"`
	Tool      string            `json:"tool"`
	CreatedAt time.Time         `json:"created_at"`
	Command   string            `json:"command"`
	Stdout    string            `json:"stdout"`
	Stderr    string            `json:"stderr"`
	ExitCode  int               `json:"exit_code"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Expired reports whether the response is past its retention window.
func (r CachedResponse) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(r.CreatedAt) >= maxAge
}

// Size returns the combined output size in bytes.
func (r CachedResponse) Size() int {
	return len(r.Stdout) + len(r.Stderr)
}

package dispatch

import "time"

// Outcome is the structured result of one top-level dispatch call. It is the
// only artifact returned to collaborators; no failure path surfaces as an
// error or panic.
type Outcome struct {
	Success      bool      `json:"success"`
	Provider     string    `json:"provider,omitempty"` // last provider tried
	Attempts     int       `json:"attempts"`           // that provider's own count
	ErrorMessage string    `json:"error,omitempty"`
	At           time.Time `json:"at"`
}

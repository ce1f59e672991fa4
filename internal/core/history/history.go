// Package history defines the operation history domain types and interfaces.
package history

import (
	"context"
	"time"
)

// Status is the outcome of a recorded operation.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Entry represents one pipeline stage or mailbox operation.
type Entry struct {
	ID         string        `json:"id"`
	Stage      string        `json:"stage"`
	Status     Status        `json:"status"`
	SessionDir string        `json:"session_dir,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	Branch     string        `json:"branch,omitempty"`
	Files      []string      `json:"files,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Failed returns true if the operation did not succeed.
func (e *Entry) Failed() bool {
	return e.Status == StatusFailed
}

// Store persists history entries.
type Store interface {
	Record(ctx context.Context, e Entry) error
	// List returns the newest entries first. limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
}

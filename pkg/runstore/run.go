// Package runstore persists the history of install runs.
//
// A [Run] is written once when it starts and again when it finishes. Two
// backends are provided: [FileStore] keeps one JSON document per run in a
// directory, [MongoStore] keeps them in a MongoDB collection. Both list
// runs newest first.
package runstore

import (
	"context"
	"time"

	"github.com/matzehuels/cookgems/pkg/cookbook"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further updates are expected.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Action is what the installer did with a gem.
type Action string

const (
	ActionInstalled Action = "installed"
	ActionUsed      Action = "used"
)

// GemEvent is one per-gem progress report.
type GemEvent struct {
	Action  Action    `json:"action" bson:"action"`
	Name    string    `json:"name" bson:"name"`
	Version string    `json:"version" bson:"version"`
	At      time.Time `json:"at" bson:"at"`
}

// Run is the record of one install.
type Run struct {
	ID         string                    `json:"id" bson:"_id"`
	Status     Status                    `json:"status" bson:"status"`
	Source     string                    `json:"source,omitempty" bson:"source,omitempty"`
	Mode       string                    `json:"mode,omitempty" bson:"mode,omitempty"`
	Cookbooks  []string                  `json:"cookbooks,omitempty" bson:"cookbooks,omitempty"`
	Gems       []cookbook.GemRequirement `json:"gems" bson:"gems"`
	Events     []GemEvent                `json:"events,omitempty" bson:"events,omitempty"`
	Error      string                    `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt  time.Time                 `json:"started_at" bson:"started_at"`
	FinishedAt *time.Time                `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

// Duration is the wall time of a finished run, or zero.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Count returns how many gems were reported with action a.
func (r *Run) Count(a Action) int {
	n := 0
	for _, e := range r.Events {
		if e.Action == a {
			n++
		}
	}
	return n
}

// Store persists runs. Implementations are safe for concurrent use.
type Store interface {
	// Save inserts or replaces the run with r.ID.
	Save(ctx context.Context, r *Run) error
	// Get returns the run with id or an error with code RUN_NOT_FOUND.
	Get(ctx context.Context, id string) (*Run, error)
	// List returns up to limit runs, newest first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]*Run, error)
	// Close releases the backend.
	Close() error
}

// Package progress reports per-file parse progress and builds the CLI logger.
package progress

import (
	"context"
	"errors"
	"time"
)

// ErrNotStarted is returned when a display is used before Start.
var ErrNotStarted = errors.New("display not started")

// Status is the state of one file in a batch.
type Status int

// File states, in the order a file moves through them.
const (
	StatusPending Status = iota
	StatusParsing
	StatusDone
	StatusCached
	StatusFailed
)

// String returns the lower-case state name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusParsing:
		return "parsing"
	case StatusDone:
		return "done"
	case StatusCached:
		return "cached"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// terminal reports whether no further events are expected after s.
func (s Status) terminal() bool {
	return s == StatusDone || s == StatusCached || s == StatusFailed
}

// Event is a state change for a file. IDs and Duration are set on Done and
// Cached; Err is set on Failed.
type Event struct {
	Status   Status
	IDs      int
	Duration time.Duration
	Err      error
}

// Display renders batch parse progress.
//
// Start is called once before any Attach. Attach registers a file and
// consumes its events until ch is closed. Seal declares that no more files
// will be attached, and Wait blocks until every attached stream is drained.
type Display interface {
	Start(ctx context.Context) error
	Attach(ctx context.Context, name string, ch <-chan Event) error
	Seal()
	Wait() error
}

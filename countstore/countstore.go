package countstore

import (
	"context"
	"time"
)

// CountStore tracks timestamped activity events and answers sliding-window
// counts over them. Unlike a calendar-bucketed counter, the window trails
// from the moment of the query: an event exactly window-old is excluded.
type CountStore interface {
	Increment(ctx context.Context, name, val string) error
	// GetCountWithin returns the number of events recorded in the trailing
	// window [now-window, now).
	GetCountWithin(ctx context.Context, name, val string, window time.Duration) (int, error)
}

// Events older than this are eligible for pruning in every implementation;
// callers must not query windows larger than the retention.
const Retention = 24 * time.Hour

func eventKey(name, val string) string {
	return name + "/" + val
}

package countstore

import (
	"context"
	"sync"
	"time"
)

type MemCountStore struct {
	lk     sync.Mutex
	events map[string][]time.Time
}

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{
		events: make(map[string][]time.Time),
	}
}

func (s *MemCountStore) Increment(ctx context.Context, name, val string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	k := eventKey(name, val)
	s.events[k] = append(s.prune(k, time.Now()), time.Now())
	return nil
}

func (s *MemCountStore) GetCountWithin(ctx context.Context, name, val string, window time.Duration) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	now := time.Now()
	k := eventKey(name, val)
	s.events[k] = s.prune(k, now)

	cutoff := now.Add(-window)
	count := 0
	for _, t := range s.events[k] {
		// inclusive lower bound, so an event exactly window-old is excluded
		if t.After(cutoff) {
			count++
		}
	}
	return count, nil
}

// drops events past retention; caller must hold the lock
func (s *MemCountStore) prune(k string, now time.Time) []time.Time {
	evts := s.events[k]
	cutoff := now.Add(-Retention)
	kept := evts[:0]
	for _, t := range evts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

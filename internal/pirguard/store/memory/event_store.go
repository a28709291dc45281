package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pirguard/pirguard/internal/pirguard/store"
)

// EventStore is an in-memory append-only log of security events.
// It is intended for use in tests and the sim role.
type EventStore struct {
	mu     sync.Mutex
	events []store.SecurityEventRecord
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) RecordEvent(_ context.Context, rec store.SecurityEventRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, rec)
	return nil
}

func (s *EventStore) Recent(_ context.Context, limit int) ([]store.SecurityEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]store.SecurityEventRecord, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

func (s *EventStore) PruneOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	var deleted int64
	for _, e := range s.events {
		if e.At.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

// Events returns a copy of all recorded events in insertion order.
// Test-only helper.
func (s *EventStore) Events() []store.SecurityEventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.SecurityEventRecord, len(s.events))
	copy(out, s.events)
	return out
}

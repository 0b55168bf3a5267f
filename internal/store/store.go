// Package store holds the merged per-date event buckets and the assignment
// query views over them. A Store is an explicit handle owned by the host;
// there is no package-level state.
package store

import (
	"errors"
	"sort"
	"sync"

	appLog "studycal/internal/log"
	"studycal/internal/model"
)

var errNoDateKey = errors.New("event has no date key")

// Store maps date keys to the events occurring on that date. All events
// merged in are owned by the store; callers receive copies.
//
// Merges are atomic with respect to each other: the internal mutex
// serializes writers, so concurrent refresh triggers from the host cannot
// interleave within a batch.
type Store struct {
	mu      sync.RWMutex
	buckets map[string][]model.Event
}

// New creates an empty store. It lives for the process lifetime; nothing is
// persisted across restarts.
func New() *Store {
	return &Store{buckets: make(map[string][]model.Event)}
}

// MergeBatch upserts a batch of events from a single source into the store.
//
// For each event, any existing event in the same date bucket with the same
// source and ID is replaced; events from other sources are never touched.
// Dedup is scoped to the event's own bucket: two events sharing an ID but
// landing on different date keys are treated as distinct.
//
// Events without a date key cannot be bucketed and are dropped with a log
// line rather than an error.
func (s *Store) MergeBatch(source model.SourceType, events []model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ev := range events {
		ev.Source = source
		if ev.DateKey == "" {
			appLog.Error("merge: dropping event", errNoDateKey, "id", ev.ID, "title", ev.Title)
			continue
		}
		if ev.ID == "" {
			ev.ID = model.FallbackID(source, ev.Title, ev.DateKey, ev.StartTime)
		}
		if ev.Title == "" {
			ev.Title = model.PlaceholderTitle
		}

		bucket := s.buckets[ev.DateKey]
		kept := bucket[:0]
		for _, existing := range bucket {
			if existing.Source == source && existing.ID == ev.ID {
				continue
			}
			kept = append(kept, existing)
		}
		s.buckets[ev.DateKey] = append(kept, ev)
	}
}

// Events returns a copy of the bucket for the given date key.
func (s *Store) Events(dateKey string) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.buckets[dateKey]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]model.Event, len(bucket))
	copy(out, bucket)
	return out
}

// Range returns copies of every bucket with from <= dateKey <= to. Empty
// bounds are open on that side.
func (s *Store) Range(from, to string) map[string][]model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]model.Event)
	for key, bucket := range s.buckets {
		if from != "" && key < from {
			continue
		}
		if to != "" && key > to {
			continue
		}
		events := make([]model.Event, len(bucket))
		copy(events, bucket)
		out[key] = events
	}
	return out
}

// Dates returns all bucket keys in ascending order.
func (s *Store) Dates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.buckets))
	for key := range s.buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len reports the total number of events across all buckets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}

// flatten returns events of the given sources in deterministic order:
// ascending date key, insertion order within a bucket. Callers hold no lock.
func (s *Store) flatten(keep func(model.Event) bool) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.buckets))
	for key := range s.buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]model.Event, 0)
	for _, key := range keys {
		for _, ev := range s.buckets[key] {
			if keep(ev) {
				out = append(out, ev)
			}
		}
	}
	return out
}

// StudyBlocks returns all generated study blocks in date order.
func (s *Store) StudyBlocks() []model.Event {
	return s.flatten(func(ev model.Event) bool {
		return ev.Source == model.SourceStudyBlock
	})
}

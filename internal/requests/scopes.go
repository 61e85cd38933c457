package requests

import (
	"context"
	"sync"
)

// Scopes keeps one Tracker per key, typically a browser session id.
type Scopes struct {
	root *Tracker

	mu       sync.Mutex
	trackers map[string]*Tracker
}

func NewScopes(parent context.Context) *Scopes {
	return &Scopes{root: NewTracker(parent), trackers: make(map[string]*Tracker)}
}

func (s *Scopes) Get(key string) *Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tracker, ok := s.trackers[key]; ok && !tracker.Closed() {
		return tracker
	}
	tracker := s.root.Child()
	s.trackers[key] = tracker
	return tracker
}

func (s *Scopes) End(key string) {
	s.mu.Lock()
	tracker, ok := s.trackers[key]
	delete(s.trackers, key)
	s.mu.Unlock()
	if ok {
		tracker.Close()
	}
}

func (s *Scopes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trackers)
}

func (s *Scopes) Close() {
	s.root.Close()
	s.mu.Lock()
	s.trackers = make(map[string]*Tracker)
	s.mu.Unlock()
}

// Package fetch models the live, per-provider results of one media query.
//
// A Session is written by whatever drives the providers (a real fetcher or
// a scripted scenario) and read by the selection layer. Readers never block
// without a context: they take a snapshot, and if it is not what they want
// they wait on Changed and look again.
package fetch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vmunix/mediasel/internal/media"
)

// Request identifies what a Session is fetching.
type Request struct {
	SubjectID    string
	EpisodeID    string
	EpisodeSort  string   // Absolute episode number, e.g. "13"
	EpisodeEp    string   // In-season episode number, e.g. "01"
	SubjectNames []string // Every known name of the subject
	EpisodeName  string
}

// Session holds every provider Result of one query, in discovery order.
type Session struct {
	Request Request

	tiers media.SourceTiers
	log   *slog.Logger

	mu      sync.RWMutex
	results []*Result

	signal Signal
}

// NewSession creates an empty session.
func NewSession(req Request, tiers media.SourceTiers, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		Request: req,
		tiers:   tiers,
		log:     logger,
	}
}

// AddResult registers a provider instance. initial must be StateWorking or
// StateDisabled.
func (s *Session) AddResult(instanceID, sourceID string, kind media.Kind, initial State) *Result {
	if initial != StateDisabled {
		initial = StateWorking
	}
	r := &Result{
		InstanceID: instanceID,
		SourceID:   sourceID,
		Kind:       kind,
		Tier:       s.tiers.Get(sourceID),
		state:      initial,
		session:    s,
	}

	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()

	s.signal.Notify()
	return r
}

// Results returns the provider results in discovery order.
func (s *Session) Results() []*Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Result, len(s.results))
	copy(out, s.results)
	return out
}

// Result finds a result by source id. Returns nil if absent.
func (s *Session) Result(sourceID string) *Result {
	for _, r := range s.Results() {
		if r.SourceID == sourceID {
			return r
		}
	}
	return nil
}

// Snapshots returns a snapshot of every result, in discovery order.
func (s *Session) Snapshots() []Snapshot {
	results := s.Results()
	out := make([]Snapshot, len(results))
	for i, r := range results {
		out[i] = r.Snapshot()
	}
	return out
}

// CumulativeMedia returns every candidate so far: provider discovery order,
// then the order each provider emitted them.
func (s *Session) CumulativeMedia() []*media.Media {
	var out []*media.Media
	for _, snap := range s.Snapshots() {
		out = append(out, snap.Media...)
	}
	return out
}

// Changed returns a channel closed on the next change to any result.
func (s *Session) Changed() <-chan struct{} {
	return s.signal.Changed()
}

// Version counts changes so far. Readers use it to cache derived views.
func (s *Session) Version() uint64 {
	return s.signal.Version()
}

// AwaitCompletion blocks until done reports true for the current snapshots,
// or ctx is done.
func (s *Session) AwaitCompletion(ctx context.Context, done func([]Snapshot) bool) error {
	for {
		changed := s.Changed()
		if done(s.Snapshots()) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// AllSettled reports whether every snapshot is settled. A session with no
// providers yet is not settled: they may still register.
func AllSettled(snaps []Snapshot) bool {
	if len(snaps) == 0 {
		return false
	}
	for _, snap := range snaps {
		if !snap.State.IsSettled() {
			return false
		}
	}
	return true
}

// KindSettled reports whether every snapshot of kind is settled. The second
// value is false when no provider of that kind exists.
func KindSettled(snaps []Snapshot, kind media.Kind) (settled, found bool) {
	settled = true
	for _, snap := range snaps {
		if snap.Kind != kind {
			continue
		}
		found = true
		if !snap.State.IsSettled() {
			settled = false
		}
	}
	return settled, found
}

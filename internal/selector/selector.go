// Package selector resolves user preferences against the live candidates of
// a fetch session and owns the single selected media slot.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vmunix/mediasel/internal/events"
	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
)

// Options configures a Selector.
type Options struct {
	PreferKind media.Kind  // Kind TrySelectDefault tries first; empty for none
	Bus        *events.Bus // Optional
	RunID      string      // Stamped on published events
	Logger     *slog.Logger
}

// BeforeSelect is passed to hooks right before a selection is committed.
type BeforeSelect struct {
	Previous *media.Media // Nil for the first selection
	Media    *media.Media
	Manual   bool
}

// SelectEvent is passed to hooks after a selection is committed.
type SelectEvent struct {
	Previous *media.Media
	Media    *media.Media
	Manual   bool
	Strategy string // Empty for manual selections
}

// Selector owns the selected media of one fetch session.
//
// Writers are serialized by writeMu, so checking the slot and committing
// to it is atomic with respect to other writers. Hooks run synchronously
// under writeMu and must not call back into Select.
type Selector struct {
	session *fetch.Session
	prefs   *Preferences
	opts    Options
	log     *slog.Logger

	writeMu sync.Mutex
	viewMu  sync.Mutex // Serializes view recomputes; taken before mu

	mu       sync.Mutex
	selected *media.Media
	manual   bool
	cache    viewCache
	before   []func(BeforeSelect)
	after    []func(SelectEvent)

	prefVersion atomic.Uint64
	signal      fetch.Signal
}

type viewCache struct {
	valid          bool
	sessionVersion uint64
	prefVersion    uint64
	view           []media.MaybeExcluded
}

// New creates a Selector over session. prefs may be nil for empty preferences.
func New(session *fetch.Session, prefs *Preferences, opts Options) *Selector {
	if prefs == nil {
		prefs = NewPreferences()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Selector{
		session: session,
		prefs:   prefs,
		opts:    opts,
		log:     logger.With("component", "selector"),
	}
	prefs.each(func(item *PreferenceItem[string]) {
		item.setOnChange(s.preferenceChanged)
	})
	return s
}

// Session returns the fetch session the selector reads.
func (s *Selector) Session() *fetch.Session { return s.session }

// Preferences returns the selector's preference items.
func (s *Selector) Preferences() *Preferences { return s.prefs }

// PreferKind returns the configured preferred kind.
func (s *Selector) PreferKind() media.Kind { return s.opts.PreferKind }

// Changed returns a channel closed on the next preference or selection
// change. Session changes are signalled by the session itself.
func (s *Selector) Changed() <-chan struct{} {
	return s.signal.Changed()
}

// Selected returns the current selection, or nil.
func (s *Selector) Selected() *media.Media {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// IsManual reports whether the current selection was made by the user.
func (s *Selector) IsManual() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manual
}

// OnBeforeSelect registers a hook run before every commit.
func (s *Selector) OnBeforeSelect(fn func(BeforeSelect)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.before = append(s.before, fn)
}

// OnSelect registers a hook run after every commit.
func (s *Selector) OnSelect(fn func(SelectEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.after = append(s.after, fn)
}

// Filtered returns the candidate view for the current session and
// preferences. Views are cached until either changes. Recomputes are
// serialized, so neither the cache nor the available values of the
// preference items ever move back to an older state.
func (s *Selector) Filtered() []media.MaybeExcluded {
	if view, ok := s.cached(s.session.Version(), s.prefVersion.Load()); ok {
		return view
	}

	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	// Versions are read before the state they describe, so a view is never
	// keyed newer than what it was computed from.
	sv, pv := s.session.Version(), s.prefVersion.Load()
	if view, ok := s.cached(sv, pv); ok {
		return view
	}
	view := s.compute()

	s.mu.Lock()
	if !s.cache.valid || (sv >= s.cache.sessionVersion && pv >= s.cache.prefVersion) {
		s.cache = viewCache{valid: true, sessionVersion: sv, prefVersion: pv, view: view}
	}
	s.mu.Unlock()
	return view
}

func (s *Selector) cached(sv, pv uint64) ([]media.MaybeExcluded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.valid && s.cache.sessionVersion == sv && s.cache.prefVersion == pv {
		return s.cache.view, true
	}
	return nil, false
}

func (s *Selector) compute() []media.MaybeExcluded {
	snaps := s.session.Snapshots()
	req := s.session.Request

	var cands []Candidate
	working := false
	for _, snap := range snaps {
		if snap.State == fetch.StateWorking {
			working = true
		}
		for _, m := range snap.Media {
			cands = append(cands, Candidate{Media: m, Metadata: Match(req, m)})
		}
	}

	// Available values come from candidates the request itself accepts, so
	// one preference never hides the values of another.
	var langs, alliances, resolutions, sources []string
	for _, c := range cands {
		if c.Metadata.Subject == media.SubjectMatchNone || c.Metadata.Episode == media.EpisodeMatchNone {
			continue
		}
		langs = append(langs, c.Media.SubtitleLanguages...)
		if c.Media.Alliance != "" {
			alliances = append(alliances, c.Media.Alliance)
		}
		if c.Media.Resolution != "" {
			resolutions = append(resolutions, c.Media.Resolution)
		}
		sources = append(sources, c.Media.SourceID)
	}
	s.prefs.SubtitleLanguage.SetAvailable(langs)
	s.prefs.Alliance.SetAvailable(alliances)
	s.prefs.Resolution.SetAvailable(resolutions)
	s.prefs.MediaSource.SetAvailable(sources)
	s.prefs.each(func(item *PreferenceItem[string]) { item.SetWorking(working) })

	return Filter(cands, s.prefs.Criteria())
}

// Included returns the included candidates of the current view.
func (s *Selector) Included() []media.MaybeExcluded {
	included, _ := Partition(s.Filtered())
	return included
}

// Select commits an explicit user pick. It fails with ErrStaleSelection if
// m is not currently included. A manual selection is never replaced by an
// automatic one.
func (s *Selector) Select(ctx context.Context, m *media.Media) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if m == nil || !containsIncluded(s.Filtered(), m) {
		return fmt.Errorf("select %v: %w", m, ErrStaleSelection)
	}
	s.commit(ctx, m, true, "")
	return nil
}

// RemovePreferencesUntilFirstCandidate clears items, least specific first,
// until some candidate is included or every item is cleared. It returns the
// number of items cleared.
func (s *Selector) RemovePreferencesUntilFirstCandidate() int {
	steps := 0
	for _, attr := range removalOrder {
		if len(s.Included()) > 0 {
			break
		}
		if s.prefs.Item(attr).Reset() {
			steps++
			s.log.Debug("preference removed to recover candidates", "attribute", attr)
		}
	}
	return steps
}

func (s *Selector) commit(ctx context.Context, m *media.Media, manual bool, strategy string) {
	explicit := s.explicitPreferences()

	s.mu.Lock()
	prev := s.selected
	before := append([]func(BeforeSelect){}, s.before...)
	after := append([]func(SelectEvent){}, s.after...)
	s.mu.Unlock()

	for _, fn := range before {
		fn(BeforeSelect{Previous: prev, Media: m, Manual: manual})
	}
	s.publish(ctx, &events.SelectionBefore{
		BaseEvent:        s.baseEvent(events.EventSelectionBefore),
		PreviousMediaID:  mediaID(prev),
		PreviousSourceID: sourceID(prev),
		MediaID:          m.ID,
		SourceID:         m.SourceID,
		Manual:           manual,
	})

	s.mu.Lock()
	s.selected = m
	s.manual = manual
	s.mu.Unlock()
	s.signal.Notify()

	s.log.Info("media selected", "media", m.ID, "source", m.SourceID, "manual", manual, "strategy", strategy)

	for _, fn := range after {
		fn(SelectEvent{Previous: prev, Media: m, Manual: manual, Strategy: strategy})
	}
	s.publish(ctx, &events.SelectionMade{
		BaseEvent:         s.baseEvent(events.EventSelectionMade),
		SubjectID:         s.session.Request.SubjectID,
		MediaID:           m.ID,
		SourceID:          m.SourceID,
		Kind:              string(m.Kind),
		Alliance:          m.Alliance,
		Resolution:        m.Resolution,
		SubtitleLanguages: m.SubtitleLanguages,
		PreviousMediaID:   mediaID(prev),
		Manual:            manual,
		Strategy:          strategy,
		Preferences:       explicit,
	})
}

// explicitPreferences snapshots the user's explicit choices.
func (s *Selector) explicitPreferences() []events.PreferenceValue {
	var out []events.PreferenceValue
	for _, attr := range Attributes {
		if v, ok := s.prefs.Item(attr).Explicit(); ok {
			out = append(out, events.PreferenceValue{Attribute: string(attr), Value: v})
		}
	}
	return out
}

func (s *Selector) preferenceChanged(c PreferenceChange) {
	s.prefVersion.Add(1)
	s.signal.Notify()
	s.publish(context.Background(), &events.PreferenceChanged{
		BaseEvent: s.baseEvent(events.EventPreferenceChange),
		Attribute: string(c.Attribute),
		Value:     c.Value,
		Removed:   c.Removed,
	})
}

func (s *Selector) publish(ctx context.Context, e events.Event) {
	if s.opts.Bus == nil {
		return
	}
	// Events outlive a cancelled strategy.
	if err := s.opts.Bus.Publish(context.WithoutCancel(ctx), e); err != nil {
		s.log.Warn("publish event failed", "type", e.EventType(), "error", err)
	}
}

func (s *Selector) baseEvent(eventType string) events.BaseEvent {
	return events.NewBaseEvent(eventType, events.EntityEpisode, s.session.Request.EpisodeID, s.opts.RunID)
}

func containsIncluded(view []media.MaybeExcluded, m *media.Media) bool {
	for _, c := range view {
		if c.IsIncluded() && sameMedia(c.Media, m) {
			return true
		}
	}
	return false
}

func sameMedia(a, b *media.Media) bool {
	return a == b || (a.ID == b.ID && a.SourceID == b.SourceID)
}

func mediaID(m *media.Media) string {
	if m == nil {
		return ""
	}
	return m.ID
}

func sourceID(m *media.Media) string {
	if m == nil {
		return ""
	}
	return m.SourceID
}

package selector

import (
	"context"
	"slices"

	"github.com/vmunix/mediasel/internal/media"
)

type strategyKey struct{}

// WithStrategy tags ctx with the name of the strategy selecting under it.
// The name is recorded on selection hooks and events.
func WithStrategy(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, strategyKey{}, name)
}

func strategyFrom(ctx context.Context) string {
	name, _ := ctx.Value(strategyKey{}).(string)
	return name
}

// SourceQuery restricts an automatic selection to some providers.
type SourceQuery struct {
	SourceIDs             []string
	OverrideUserSelection bool     // Replace an automatic selection; manual ones are kept regardless
	Blacklist             []string // Media ids never to pick
	AllowNonPreferred     bool     // Fall back to candidates only preferences exclude

	// Guard, if set, is checked under the write lock right before
	// committing. Returning false abandons the attempt.
	Guard func() bool
}

// SelectFromSources picks one candidate from q.SourceIDs and commits it.
// Candidates matching every preference come first; if there are none and
// q.AllowNonPreferred is set, candidates excluded only by preferences are
// eligible. Ties go to the lower tier, then the better episode match, then
// discovery order. It returns nil without side effects when a selection
// exists and may not be replaced, or when nothing is eligible.
func (s *Selector) SelectFromSources(ctx context.Context, q SourceQuery) (*media.Media, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.replaceable(q.OverrideUserSelection) {
		return nil, nil
	}

	eligible := func(c media.MaybeExcluded) bool {
		return slices.Contains(q.SourceIDs, c.Media.SourceID) && !slices.Contains(q.Blacklist, c.Media.ID)
	}
	view := s.Filtered()
	pick := best(view, func(c media.MaybeExcluded) bool { return c.IsIncluded() && eligible(c) }, bySourcePriority)
	if pick == nil && q.AllowNonPreferred {
		pick = best(view, func(c media.MaybeExcluded) bool { return !c.Reason.Structural() && eligible(c) }, bySourcePriority)
	}
	if pick == nil {
		return nil, nil
	}
	if q.Guard != nil && !q.Guard() {
		return nil, nil
	}

	s.commit(ctx, pick, false, strategyFrom(ctx))
	return pick, nil
}

// TrySelectDefault commits the best included candidate, using preferences
// only: the preferred kind first, then the better episode match, then
// discovery order. No-op if anything is selected.
func (s *Selector) TrySelectDefault(ctx context.Context) (*media.Media, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.replaceable(false) {
		return nil, nil
	}

	kind := s.opts.PreferKind
	pick := best(s.Filtered(), media.MaybeExcluded.IsIncluded, func(a, b media.MaybeExcluded) bool {
		if kind != "" && (a.Media.Kind == kind) != (b.Media.Kind == kind) {
			return a.Media.Kind == kind
		}
		return a.Metadata.Episode > b.Metadata.Episode
	})
	if pick == nil {
		return nil, nil
	}

	s.commit(ctx, pick, false, strategyFrom(ctx))
	return pick, nil
}

// TrySelectCached commits a local cache candidate, preferring included
// ones over those excluded only by preferences. No-op if anything is selected.
func (s *Selector) TrySelectCached(ctx context.Context) (*media.Media, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.replaceable(false) {
		return nil, nil
	}

	cached := func(c media.MaybeExcluded) bool { return c.Media.Kind == media.KindLocalCache }
	view := s.Filtered()
	pick := best(view, func(c media.MaybeExcluded) bool { return cached(c) && c.IsIncluded() }, byEpisode)
	if pick == nil {
		pick = best(view, func(c media.MaybeExcluded) bool { return cached(c) && !c.Reason.Structural() }, byEpisode)
	}
	if pick == nil {
		return nil, nil
	}

	s.commit(ctx, pick, false, strategyFrom(ctx))
	return pick, nil
}

// replaceable reports whether an automatic selection may commit now.
// Must be called with writeMu held.
func (s *Selector) replaceable(override bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return true
	}
	return override && !s.manual
}

// best returns the first candidate accepted by keep that no later
// candidate beats by less.
func best(view []media.MaybeExcluded, keep func(media.MaybeExcluded) bool, less func(a, b media.MaybeExcluded) bool) *media.Media {
	var pick *media.MaybeExcluded
	for i := range view {
		c := &view[i]
		if !keep(*c) {
			continue
		}
		if pick == nil || less(*c, *pick) {
			pick = c
		}
	}
	if pick == nil {
		return nil
	}
	return pick.Media
}

func bySourcePriority(a, b media.MaybeExcluded) bool {
	if a.Media.Tier != b.Media.Tier {
		return a.Media.Tier < b.Media.Tier
	}
	return byEpisode(a, b)
}

func byEpisode(a, b media.MaybeExcluded) bool {
	return a.Metadata.Episode > b.Metadata.Episode
}

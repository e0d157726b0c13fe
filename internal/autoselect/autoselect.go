// Package autoselect races background strategies that try to pick a media
// for the user while provider results are still arriving.
//
// Every strategy checks the selection slot first and never replaces a
// manual pick. All of them block only on a context, a session change or a
// timer, and return nil when there is nothing for them to do.
package autoselect

import (
	"context"
	"log/slog"

	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
	"github.com/vmunix/mediasel/internal/selector"
)

// Strategy names, recorded on selection events.
const (
	StrategyAwaitCompleted = "await_completed_select_default"
	StrategyFastSelectWeb  = "fast_select_web"
	StrategyPreferredWeb   = "select_preferred_web"
	StrategyCached         = "select_cached"
	StrategyAutoEnable     = "auto_enable_last_selected"
	StrategyRecoverDeadEnd = "recover_dead_end"
)

// Options configures an AutoSelect.
type Options struct {
	// LastSelectedSource is enabled by AutoEnableLastSelected when the
	// media source preference has no value.
	LastSelectedSource string
	Logger             *slog.Logger
}

// AutoSelect runs selection strategies against one selector.
type AutoSelect struct {
	sel     *selector.Selector
	session *fetch.Session
	opts    Options
	log     *slog.Logger
}

// New creates an AutoSelect for sel.
func New(sel *selector.Selector, opts Options) *AutoSelect {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AutoSelect{
		sel:     sel,
		session: sel.Session(),
		opts:    opts,
		log:     logger.With("component", "autoselect"),
	}
}

// AwaitCompletedAndSelectDefault waits until every provider of waitForKind
// has settled, or every provider when waitForKind is empty or has no
// providers, then selects by preferences alone. A session with no
// providers is never complete.
func (a *AutoSelect) AwaitCompletedAndSelectDefault(ctx context.Context, waitForKind media.Kind) (*media.Media, error) {
	ctx = selector.WithStrategy(ctx, StrategyAwaitCompleted)
	if a.sel.Selected() != nil {
		return nil, nil
	}

	err := a.session.AwaitCompletion(ctx, func(snaps []fetch.Snapshot) bool {
		if waitForKind != "" {
			if settled, found := fetch.KindSettled(snaps, waitForKind); found {
				return settled
			}
		}
		return fetch.AllSettled(snaps)
	})
	if err != nil {
		return nil, err
	}

	m, err := a.sel.TrySelectDefault(ctx)
	if err != nil {
		return nil, err
	}
	a.log.Debug("completed providers selected default", "kind", waitForKind, "media", m != nil)
	return m, nil
}

// SelectPreferredWebSource waits for the named web provider to settle, then
// selects from it alone. Preferences may be ignored for it: the user picked
// this source before.
func (a *AutoSelect) SelectPreferredWebSource(ctx context.Context, sourceID string) (*media.Media, error) {
	ctx = selector.WithStrategy(ctx, StrategyPreferredWeb)
	if sourceID == "" {
		return nil, nil
	}
	r := a.session.Result(sourceID)
	if r == nil || r.Kind != media.KindWeb {
		return nil, nil
	}

	snap, err := r.AwaitCompletion(ctx)
	if err != nil {
		return nil, err
	}
	if snap.State != fetch.StateSucceeded {
		a.log.Debug("preferred web source did not succeed", "source", sourceID, "state", snap.State)
		return nil, nil
	}

	return a.sel.SelectFromSources(ctx, selector.SourceQuery{
		SourceIDs:         []string{sourceID},
		AllowNonPreferred: true,
	})
}

// SelectCached selects a local cache media as soon as one is discovered.
// It gives up after maxAttempts evaluations (0 for no limit), when a
// selection appears, once every cache provider has settled, or when the
// registered providers include no cache provider. While no provider is
// registered at all it waits.
func (a *AutoSelect) SelectCached(ctx context.Context, maxAttempts int) (*media.Media, error) {
	ctx = selector.WithStrategy(ctx, StrategyCached)

	for attempts := 1; ; attempts++ {
		changed := a.session.Changed()
		if a.sel.Selected() != nil {
			return nil, nil
		}
		snaps := a.session.Snapshots()
		settled, found := fetch.KindSettled(snaps, media.KindLocalCache)
		switch {
		case found:
			m, err := a.sel.TrySelectCached(ctx)
			if err != nil || m != nil {
				return m, err
			}
			if settled || (maxAttempts > 0 && attempts >= maxAttempts) {
				return nil, nil
			}
		case len(snaps) > 0:
			return nil, nil
		default:
			// Nothing registered yet.
			attempts--
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
		}
	}
}

// AutoEnableLastSelected enables the provider the user last chose, so it
// takes part in this session without being turned on by hand. It reports
// whether a provider was enabled. It never selects.
func (a *AutoSelect) AutoEnableLastSelected(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	sourceID, ok := a.sel.Preferences().MediaSource.Preferred()
	if !ok {
		sourceID = a.opts.LastSelectedSource
	}
	if sourceID == "" {
		return false, nil
	}
	r := a.session.Result(sourceID)
	if r == nil {
		return false, nil
	}
	enabled := r.Enable()
	if enabled {
		a.log.Info("enabled last selected source", "source", sourceID)
	}
	return enabled, nil
}

// RecoverDeadEnd clears preferences until some candidate is included, then
// selects by preferences. Used once every provider has settled with nothing
// selected.
func (a *AutoSelect) RecoverDeadEnd(ctx context.Context) (*media.Media, error) {
	ctx = selector.WithStrategy(ctx, StrategyRecoverDeadEnd)
	if a.sel.Selected() != nil || len(a.sel.Filtered()) == 0 {
		return nil, nil
	}
	if steps := a.sel.RemovePreferencesUntilFirstCandidate(); steps > 0 {
		a.log.Info("cleared preferences that excluded every candidate", "steps", steps)
	}
	return a.sel.TrySelectDefault(ctx)
}

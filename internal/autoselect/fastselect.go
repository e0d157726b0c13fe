package autoselect

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
	"github.com/vmunix/mediasel/internal/selector"
)

// DefaultLowTierTolerance is how long fast select waits for a low tier
// provider before accepting any succeeded web provider.
const DefaultLowTierTolerance = 5 * time.Second

// FastSelectOptions tunes FastSelectWebSources.
type FastSelectOptions struct {
	OverrideUserSelection      bool
	Blacklist                  []string
	LowTierTolerance           time.Duration
	InstantSelectTierThreshold media.Tier
}

// FastSelectWebSources selects a web media without waiting for every
// provider.
//
// Succeeded low tier web providers (tier <= InstantSelectTierThreshold) with
// at least one result are tried as soon as they appear. Each change of that
// set starts a new attempt and abandons the previous one; a stale attempt
// never commits. Once LowTierTolerance has passed, every succeeded web
// provider is eligible. High tier providers are never tried before then.
//
// It returns nil when a selection is made elsewhere, when the registered
// providers include no web provider, or when every web provider has
// settled and nothing could be selected. While no provider is registered
// at all it waits.
func (a *AutoSelect) FastSelectWebSources(ctx context.Context, opts FastSelectOptions) (*media.Media, error) {
	ctx = selector.WithStrategy(ctx, StrategyFastSelectWeb)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &race{auto: a, opts: opts, wake: make(chan struct{}, 1)}
	defer r.stop()

	timer := time.NewTimer(opts.LowTierTolerance)
	defer timer.Stop()
	timedOut := false

	for {
		sessionChanged := a.session.Changed()
		selectorChanged := a.sel.Changed()

		if m := r.committed.Load(); m != nil {
			return m, nil
		}
		if !opts.OverrideUserSelection && a.sel.Selected() != nil {
			r.stop()
			// An attempt may have committed just before it was stopped.
			return r.committed.Load(), nil
		}

		snaps := a.session.Snapshots()
		v := webView(snaps, opts.InstantSelectTierThreshold)
		if !v.any && len(snaps) > 0 {
			return nil, nil
		}

		if v.any && v.settled && !v.hasMedia {
			a.log.Debug("fast select: no web provider produced results")
			return nil, nil
		}
		if v.any && v.settled && timedOut {
			// Nothing can change any more; one last try, then give up.
			r.stop()
			if m := r.committed.Load(); m != nil {
				return m, nil
			}
			return a.sel.SelectFromSources(ctx, r.query(v.succeeded, r.gen.Load()))
		}

		sources := v.instant
		if timedOut {
			sources = v.succeeded
		}
		r.restart(ctx, sources)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			timedOut = true
			a.log.Debug("fast select: low tier tolerance elapsed", "tolerance", opts.LowTierTolerance)
		case <-r.wake:
		case <-sessionChanged:
		case <-selectorChanged:
		}
	}
}

// webSources is the fast select view of the web providers.
type webSources struct {
	any       bool     // At least one web provider exists
	settled   bool     // Every web provider has settled
	hasMedia  bool     // Some succeeded web provider has results
	instant   []string // Succeeded low tier providers with results
	succeeded []string // Every succeeded web provider
}

func webView(snaps []fetch.Snapshot, threshold media.Tier) webSources {
	v := webSources{settled: true}
	for _, snap := range snaps {
		if snap.Kind != media.KindWeb {
			continue
		}
		v.any = true
		if !snap.State.IsSettled() {
			v.settled = false
		}
		if snap.State != fetch.StateSucceeded {
			continue
		}
		v.succeeded = append(v.succeeded, snap.SourceID)
		if len(snap.Media) == 0 {
			continue
		}
		v.hasMedia = true
		if snap.Tier <= threshold {
			v.instant = append(v.instant, snap.SourceID)
		}
	}
	return v
}

// race runs at most one selection attempt at a time. Every restart bumps
// the generation; an attempt may only commit while its generation is
// current, which the selector checks under its write lock.
type race struct {
	auto *AutoSelect
	opts FastSelectOptions

	gen       atomic.Uint64
	committed atomic.Pointer[media.Media]
	wake      chan struct{}

	key    string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// restart starts an attempt for sources unless one for the same set is
// already running. An empty set only stops the current attempt.
func (r *race) restart(ctx context.Context, sources []string) {
	key := strings.Join(sources, "\x00")
	if r.cancel != nil && key == r.key {
		return
	}
	r.stop()
	r.key = key
	if len(sources) == 0 {
		r.cancel = func() {}
		return
	}

	gen := r.gen.Load()
	actx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.attempt(actx, r.query(slices.Clone(sources), gen))
	}()
	r.auto.log.Debug("fast select: attempt started", "sources", sources, "generation", gen)
}

// stop abandons the running attempt and waits for it to exit.
func (r *race) stop() {
	r.gen.Add(1)
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.wg.Wait()
}

func (r *race) query(sources []string, gen uint64) selector.SourceQuery {
	return selector.SourceQuery{
		SourceIDs:             sources,
		OverrideUserSelection: r.opts.OverrideUserSelection,
		Blacklist:             r.opts.Blacklist,
		AllowNonPreferred:     true,
		Guard:                 func() bool { return r.gen.Load() == gen },
	}
}

// attempt retries q on every change until it commits or is abandoned.
// Preference edits can make a candidate eligible without a session change.
func (r *race) attempt(ctx context.Context, q selector.SourceQuery) {
	for {
		sessionChanged := r.auto.session.Changed()
		selectorChanged := r.auto.sel.Changed()

		m, err := r.auto.sel.SelectFromSources(ctx, q)
		if err != nil {
			return
		}
		if m != nil {
			r.committed.Store(m)
			select {
			case r.wake <- struct{}{}:
			default:
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-sessionChanged:
		case <-selectorChanged:
		}
	}
}

package scenario

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
	"github.com/vmunix/mediasel/internal/selector"
)

// Simulation is a scenario bound to a live fetch session.
type Simulation struct {
	Session *fetch.Session

	scenario *Scenario
	results  []*fetch.Result
	log      *slog.Logger
}

// NewSimulation creates the session and registers every provider in
// declaration order. Nothing is emitted until Play.
func (s *Scenario) NewSimulation(tiers media.SourceTiers, logger *slog.Logger) *Simulation {
	if logger == nil {
		logger = slog.Default()
	}
	session := fetch.NewSession(s.FetchRequest(), tiers, logger.With("component", "session"))
	sim := &Simulation{
		Session:  session,
		scenario: s,
		log:      logger.With("component", "scenario", "scenario", s.Name),
	}
	for _, p := range s.Providers {
		initial := fetch.StateWorking
		if p.Disabled {
			initial = fetch.StateDisabled
		}
		sim.results = append(sim.results, session.AddResult(p.Instance, p.Source, p.kind, initial))
	}
	return sim
}

// Play runs every provider timeline concurrently. It returns once every
// timeline has finished or ctx is done; the first failing timeline stops
// the others. Disabled providers that are never enabled keep Play running
// until ctx is done.
func (sim *Simulation) Play(ctx context.Context) error {
	timelines := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	for i, p := range sim.scenario.Providers {
		r := sim.results[i]
		timelines.Go(func(ctx context.Context) error { return sim.play(ctx, p, r) })
	}
	return timelines.Wait()
}

func (sim *Simulation) play(ctx context.Context, p Provider, r *fetch.Result) error {
	if !waitEnabled(ctx, r) {
		return nil
	}
	start := time.Now()

	releases := slices.Clone(p.Releases)
	slices.SortStableFunc(releases, func(a, b Release) int { return cmp.Compare(a.At, b.At) })
	for _, rel := range releases {
		if !sleepUntil(ctx, start.Add(rel.At)) {
			return nil
		}
		if err := r.Emit(rel.Media()); err != nil {
			if errors.Is(err, fetch.ErrNotWorking) {
				sim.log.Debug("provider stopped before emitting", "instance", p.Instance, "state", r.State())
				return nil
			}
			return fmt.Errorf("play %s: %w", p.Instance, err)
		}
	}

	if p.State == StateNever || !sleepUntil(ctx, start.Add(p.Finish)) {
		return nil
	}
	var cause error
	if p.Error != "" {
		cause = errors.New(p.Error)
	}
	if err := r.Finish(fetch.State(p.State), cause); err != nil && !errors.Is(err, fetch.ErrInvalidTransition) {
		return fmt.Errorf("play %s: %w", p.Instance, err)
	}
	return nil
}

// Act performs the scripted user actions against sel. Stale picks and
// unknown media are logged and skipped.
func (sim *Simulation) Act(ctx context.Context, sel *selector.Selector) error {
	actions := slices.Clone(sim.scenario.Actions)
	slices.SortStableFunc(actions, func(a, b Action) int { return cmp.Compare(a.At, b.At) })

	start := time.Now()
	for _, a := range actions {
		if !sleepUntil(ctx, start.Add(a.At)) {
			return nil
		}
		switch {
		case a.Pick != "":
			sim.pick(ctx, sel, a.Pick)
		case a.Prefer != "":
			attr, value, err := parsePrefer(a.Prefer)
			if err != nil {
				return err
			}
			sel.Preferences().Item(attr).Prefer(value)
			sim.log.Info("user preferred", "attribute", attr, "value", value)
		case a.Remove != "":
			attr, err := selector.ParseAttribute(a.Remove)
			if err != nil {
				return err
			}
			sel.Preferences().Item(attr).RemovePreference()
			sim.log.Info("user removed preference", "attribute", attr)
		}
	}
	return nil
}

func (sim *Simulation) pick(ctx context.Context, sel *selector.Selector, mediaID string) {
	for _, c := range sel.Filtered() {
		if c.Media.ID != mediaID {
			continue
		}
		if err := sel.Select(ctx, c.Media); err != nil {
			sim.log.Warn("user pick rejected", "media", mediaID, "reason", c.Reason, "error", err)
			return
		}
		sim.log.Info("user picked", "media", mediaID, "source", c.Media.SourceID)
		return
	}
	sim.log.Warn("user pick not found", "media", mediaID)
}

// waitEnabled blocks while r is disabled. It reports false if ctx ended
// first.
func waitEnabled(ctx context.Context, r *fetch.Result) bool {
	for {
		changed := r.Changed()
		if r.State() != fetch.StateDisabled {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-changed:
		}
	}
}

// sleepUntil waits for t. It reports false if ctx ended first.
func sleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

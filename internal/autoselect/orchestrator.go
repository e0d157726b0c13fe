package autoselect

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/mediasel/internal/events"
	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
)

// Settings selects and tunes the strategies an Orchestrator runs.
type Settings struct {
	PreferKind             media.Kind // Empty for no preference
	FastSelectWeb          bool       // Only used when PreferKind is web
	FastSelect             FastSelectOptions
	PreferredWebSource     string // Learned preferred web source of the subject
	AutoEnableLastSelected bool
	CacheMaxAttempts       int  // 0 for no limit
	RecoverDeadEnd         bool // Clear preferences if nothing could be selected
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		PreferKind:    media.KindWeb,
		FastSelectWeb: true,
		FastSelect: FastSelectOptions{
			LowTierTolerance:           DefaultLowTierTolerance,
			InstantSelectTierThreshold: media.InstantSelectTierThreshold,
		},
		AutoEnableLastSelected: true,
		RecoverDeadEnd:         true,
	}
}

// Orchestrator runs every strategy of one playback session under a single
// cancellation scope.
type Orchestrator struct {
	auto     *AutoSelect
	settings Settings
	bus      *events.Bus
	runID    string
	log      *slog.Logger
}

// NewOrchestrator creates an orchestrator. bus may be nil.
func NewOrchestrator(auto *AutoSelect, settings Settings, bus *events.Bus, runID string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		auto:     auto,
		settings: settings,
		bus:      bus,
		runID:    runID,
		log:      logger.With("component", "orchestrator", "run_id", runID),
	}
}

// Run starts every enabled strategy and returns the final selection, which
// may be nil. The last selected provider is enabled first. The fast web
// path is always joined before the completion fallback starts waiting.
// Any selection, manual or automatic, cancels whatever is still running.
// Providers may register after Run starts: until the first one does, every
// strategy waits. Cancellation of ctx is not an error.
func (o *Orchestrator) Run(ctx context.Context) (*media.Media, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := o.run(ctx, cancel)

	selected := o.auto.sel.Selected()
	o.publish(ctx, &events.RunFinished{
		BaseEvent:  o.baseEvent(events.EventRunFinished),
		MediaID:    mediaID(selected),
		SourceID:   sourceID(selected),
		Manual:     o.auto.sel.IsManual(),
		DurationMS: time.Since(start).Milliseconds(),
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		return selected, err
	}
	o.log.Info("auto select finished", "media", mediaID(selected), "duration_ms", time.Since(start).Milliseconds())
	return selected, nil
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc) error {
	s := o.settings

	if err := o.auto.session.AwaitCompletion(ctx, hasProviders); err != nil {
		o.log.Debug("run ended before any provider registered", "error", err)
		return nil
	}

	// Enabling runs before anything reads provider states, so no strategy
	// mistakes the last selected provider for an idle one.
	if s.AutoEnableLastSelected {
		if err := o.runStrategy(ctx, StrategyAutoEnable, func(ctx context.Context) (*media.Media, error) {
			_, err := o.auto.AutoEnableLastSelected(ctx)
			return nil, err
		}); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	o.spawn(g, gctx, StrategyCached, func(ctx context.Context) (*media.Media, error) {
		return o.auto.SelectCached(ctx, s.CacheMaxAttempts)
	})
	if s.PreferredWebSource != "" {
		o.spawn(g, gctx, StrategyPreferredWeb, func(ctx context.Context) (*media.Media, error) {
			return o.auto.SelectPreferredWebSource(ctx, s.PreferredWebSource)
		})
	}
	g.Go(func() error {
		if s.FastSelectWeb && s.PreferKind == media.KindWeb {
			if err := o.runStrategy(gctx, StrategyFastSelectWeb, func(ctx context.Context) (*media.Media, error) {
				return o.auto.FastSelectWebSources(ctx, s.FastSelect)
			}); err != nil {
				return err
			}
		}
		if err := o.runStrategy(gctx, StrategyAwaitCompleted, func(ctx context.Context) (*media.Media, error) {
			return o.auto.AwaitCompletedAndSelectDefault(ctx, s.PreferKind)
		}); err != nil {
			return err
		}
		if s.RecoverDeadEnd {
			return o.runStrategy(gctx, StrategyRecoverDeadEnd, o.auto.RecoverDeadEnd)
		}
		return nil
	})

	// Stop the rest as soon as anything is selected.
	watchCtx, stopWatch := context.WithCancel(ctx)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		if o.awaitSelection(watchCtx) == nil {
			cancel()
		}
	}()

	err := g.Wait()
	stopWatch()
	<-watched
	return err
}

func hasProviders(snaps []fetch.Snapshot) bool { return len(snaps) > 0 }

func (o *Orchestrator) spawn(g *errgroup.Group, ctx context.Context, name string, fn func(context.Context) (*media.Media, error)) {
	g.Go(func() error { return o.runStrategy(ctx, name, fn) })
}

// runStrategy runs one strategy and records how it ended. Cancellation is
// reported as success so it never cancels sibling strategies.
func (o *Orchestrator) runStrategy(ctx context.Context, name string, fn func(context.Context) (*media.Media, error)) error {
	start := time.Now()
	m, err := fn(ctx)
	canceled := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)

	o.publish(ctx, &events.StrategyFinished{
		BaseEvent:  o.baseEvent(events.EventStrategyFinished),
		Strategy:   name,
		MediaID:    mediaID(m),
		DurationMS: time.Since(start).Milliseconds(),
		Canceled:   canceled,
	})

	switch {
	case canceled:
		o.log.Debug("strategy canceled", "strategy", name)
		return nil
	case err != nil:
		o.log.Error("strategy failed", "strategy", name, "error", err)
		return err
	case m != nil:
		o.log.Info("strategy selected media", "strategy", name, "media", m.ID, "source", m.SourceID,
			"duration_ms", time.Since(start).Milliseconds())
	default:
		o.log.Debug("strategy finished without selecting", "strategy", name)
	}
	return nil
}

func (o *Orchestrator) awaitSelection(ctx context.Context) error {
	for {
		changed := o.auto.sel.Changed()
		if o.auto.sel.Selected() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (o *Orchestrator) publish(ctx context.Context, e events.Event) {
	if o.bus == nil {
		return
	}
	if err := o.bus.Publish(context.WithoutCancel(ctx), e); err != nil {
		o.log.Warn("publish event failed", "type", e.EventType(), "error", err)
	}
}

func (o *Orchestrator) baseEvent(eventType string) events.BaseEvent {
	req := o.auto.session.Request
	return events.NewBaseEvent(eventType, events.EntityEpisode, req.EpisodeID, o.runID)
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

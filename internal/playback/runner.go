package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vmunix/mediasel/internal/autoselect"
	"github.com/vmunix/mediasel/internal/events"
	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
	"github.com/vmunix/mediasel/internal/selector"
	"github.com/vmunix/mediasel/internal/store"
)

// Runner starts one Playback per episode. Starting a new one stops the
// previous playback first.
type Runner struct {
	store    Store
	bus      *events.Bus
	settings autoselect.Settings
	logger   *slog.Logger

	mu      sync.Mutex
	current *Playback
}

// NewRunner creates a runner. bus must not be nil.
func NewRunner(store Store, bus *events.Bus, settings autoselect.Settings, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:    store,
		bus:      bus,
		settings: settings,
		logger:   logger,
	}
}

// Playback is the auto-select run of one episode plus the preference
// learning that outlives it.
type Playback struct {
	RunID string

	sel    *selector.Selector
	cancel context.CancelFunc

	autoDone chan struct{}
	auto     *media.Media
	autoErr  error

	done chan struct{}
	err  error
}

// Start stops the current playback, if any, and starts auto-selection for
// session. The playback runs until Stop is called or ctx is canceled.
func (r *Runner) Start(ctx context.Context, session *fetch.Session) (*Playback, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil {
		_ = r.current.Stop()
		r.current = nil
	}

	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "episode", session.Request.EpisodeID)

	prefs := selector.NewPreferences()
	if err := prefs.LoadSavedDefaults(ctx, r.store); err != nil {
		return nil, err
	}

	settings := r.settings
	if subject := session.Request.SubjectID; subject != "" {
		source, err := r.store.PreferredWebSource(ctx, subject)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("load preferred web source: %w", err)
		default:
			settings.PreferredWebSource = source
		}
	}

	lastSelected, err := r.store.LastSelectedSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("load last selected source: %w", err)
	}

	sel := selector.New(session, prefs, selector.Options{
		PreferKind: settings.PreferKind,
		Bus:        r.bus,
		RunID:      runID,
		Logger:     logger.With("component", "selector"),
	})
	auto := autoselect.New(sel, autoselect.Options{
		LastSelectedSource: lastSelected,
		Logger:             logger.With("component", "autoselect"),
	})
	orch := autoselect.NewOrchestrator(auto, settings, r.bus, runID, logger)
	learner := NewPreferenceLearner(r.store, sel, settings.PreferredWebSource, logger)

	// Subscribe before anything can be selected.
	sub := r.bus.SubscribeRun(runID, 64)

	ctx, cancel := context.WithCancel(ctx)
	p := &Playback{
		RunID:    runID,
		sel:      sel,
		cancel:   cancel,
		autoDone: make(chan struct{}),
		done:     make(chan struct{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(p.autoDone)
		p.auto, p.autoErr = orch.Run(gctx)
		return p.autoErr
	})
	g.Go(func() error {
		return learner.Run(gctx, sub)
	})
	g.Go(func() error {
		return watchSettled(gctx, session, r.bus, runID)
	})

	go func() {
		p.err = g.Wait()
		r.bus.Unsubscribe(sub)
		cancel()
		close(p.done)
	}()

	logger.Info("playback started", "subject", session.Request.SubjectID,
		"preferred_web_source", settings.PreferredWebSource, "last_selected_source", lastSelected)
	r.current = p
	return p, nil
}

// Run starts a playback for session and blocks until ctx is done. It
// returns the final selection, which may be nil.
func (r *Runner) Run(ctx context.Context, session *fetch.Session) (*media.Media, error) {
	p, err := r.Start(ctx, session)
	if err != nil {
		return nil, err
	}
	<-ctx.Done()
	if err := p.Stop(); err != nil {
		return p.Selector().Selected(), err
	}
	return p.Selector().Selected(), nil
}

// Selector returns the playback's selector, for manual picks and
// presentation.
func (p *Playback) Selector() *selector.Selector { return p.sel }

// AutoSelected waits for the orchestrator to finish and returns what it
// selected.
func (p *Playback) AutoSelected(ctx context.Context) (*media.Media, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.autoDone:
		return p.auto, p.autoErr
	}
}

// Done is closed once every goroutine of the playback has exited.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Stop cancels the playback and waits for it to exit.
func (p *Playback) Stop() error {
	p.cancel()
	<-p.done
	if errors.Is(p.err, context.Canceled) {
		return nil
	}
	return p.err
}

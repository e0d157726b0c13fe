package playback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/vmunix/mediasel/internal/events"
	"github.com/vmunix/mediasel/internal/fetch"
	"github.com/vmunix/mediasel/internal/media"
	"github.com/vmunix/mediasel/internal/selector"
	"github.com/vmunix/mediasel/internal/store"
)

// Writes that hit a locked database are retried a few times before the
// failure is logged.
const (
	busyAttempts = 3
	busyDelay    = 25 * time.Millisecond
)

// PreferenceLearner persists what selections teach about the user:
//   - every selection records the last selected source
//   - a manual selection saves the explicit preferences it was made under
//     as defaults
//   - a manual web selection becomes the subject's preferred web source
//   - the preferred web source is forgotten when it fails
type PreferenceLearner struct {
	store     Store
	subjectID string
	log       *slog.Logger

	preferredWeb string // Only touched by Run
}

// NewPreferenceLearner creates a learner for one playback. preferredWeb is
// the subject's currently persisted preferred web source, if any.
func NewPreferenceLearner(store Store, sel *selector.Selector, preferredWeb string, logger *slog.Logger) *PreferenceLearner {
	if logger == nil {
		logger = slog.Default()
	}
	subjectID := sel.Session().Request.SubjectID
	return &PreferenceLearner{
		store:        store,
		subjectID:    subjectID,
		preferredWeb: preferredWeb,
		log:          logger.With("component", "learner", "subject", subjectID),
	}
}

// Run consumes events until ctx is done or ch is closed.
func (l *PreferenceLearner) Run(ctx context.Context, ch <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			l.handle(ctx, e)
		}
	}
}

func (l *PreferenceLearner) handle(ctx context.Context, e events.Event) {
	switch e := e.(type) {
	case *events.SelectionMade:
		l.selectionMade(ctx, e)
	case *events.ProviderSettled:
		l.providerSettled(ctx, e)
	}
}

func (l *PreferenceLearner) selectionMade(ctx context.Context, e *events.SelectionMade) {
	err := l.persist(ctx, func(ctx context.Context) error {
		return l.store.SetLastSelectedSource(ctx, e.SourceID)
	})
	if err != nil {
		l.log.Warn("save last selected source failed", "source", e.SourceID, "error", err)
	}
	if !e.Manual {
		return
	}

	// The event carries the choices made for this selection; the live
	// items may have moved on since.
	for _, p := range e.Preferences {
		err := l.persist(ctx, func(ctx context.Context) error {
			return l.store.SetSavedDefault(ctx, p.Attribute, p.Value)
		})
		if err != nil {
			l.log.Warn("save default failed", "attribute", p.Attribute, "error", err)
		}
	}

	if e.Kind != string(media.KindWeb) || l.subjectID == "" || e.SourceID == l.preferredWeb {
		return
	}
	err = l.persist(ctx, func(ctx context.Context) error {
		return l.store.SetPreferredWebSource(ctx, l.subjectID, e.SourceID)
	})
	if err != nil {
		l.log.Warn("save preferred web source failed", "source", e.SourceID, "error", err)
		return
	}
	l.preferredWeb = e.SourceID
	l.log.Info("learned preferred web source", "source", e.SourceID)
}

func (l *PreferenceLearner) providerSettled(ctx context.Context, e *events.ProviderSettled) {
	if l.preferredWeb == "" || e.SourceID != l.preferredWeb {
		return
	}
	if !fetch.State(e.State).IsFailedOrAbandoned() {
		return
	}
	err := l.persist(ctx, func(ctx context.Context) error {
		return l.store.ClearPreferredWebSource(ctx, l.subjectID)
	})
	if err != nil {
		l.log.Warn("clear preferred web source failed", "source", e.SourceID, "error", err)
		return
	}
	l.log.Info("forgot preferred web source", "source", e.SourceID, "state", e.State)
	l.preferredWeb = ""
}

// persist runs one store write, retrying while the database is busy.
func (l *PreferenceLearner) persist(ctx context.Context, write func(context.Context) error) error {
	return retry.Do(
		func() error { return write(ctx) },
		retry.Context(ctx),
		retry.Attempts(busyAttempts),
		retry.Delay(busyDelay),
		retry.DelayType(retry.FixedDelay),
		retry.RetryIf(func(err error) bool { return errors.Is(err, store.ErrBusy) }),
		retry.LastErrorOnly(true),
	)
}

package fetch

import (
	"context"
	"fmt"
	"sync"

	"github.com/vmunix/mediasel/internal/media"
)

// Snapshot is an immutable copy of a Result at one point in time.
type Snapshot struct {
	InstanceID string
	SourceID   string
	Kind       media.Kind
	Tier       media.Tier
	State      State
	Media      []*media.Media
	Err        error
}

// Result is one provider instance's live outcome within a Session.
// Only the producer (the provider driver) mutates it; everyone else reads
// snapshots and waits on Changed.
type Result struct {
	InstanceID string
	SourceID   string
	Kind       media.Kind
	Tier       media.Tier

	mu       sync.RWMutex
	state    State
	media    []*media.Media
	err      error
	onEnable func()

	signal  Signal
	session *Session
}

// Snapshot returns the current state and candidates.
func (r *Result) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		InstanceID: r.InstanceID,
		SourceID:   r.SourceID,
		Kind:       r.Kind,
		Tier:       r.Tier,
		State:      r.state,
		Media:      r.media[:len(r.media):len(r.media)],
		Err:        r.err,
	}
}

// State returns the current lifecycle state.
func (r *Result) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Changed returns a channel closed on the next state or candidate change.
func (r *Result) Changed() <-chan struct{} {
	return r.signal.Changed()
}

// Start moves a disabled result to working.
func (r *Result) Start() error {
	return r.transition(StateWorking, nil)
}

// Emit appends candidates. Media are copied and stamped with this
// provider's source id, kind and tier.
func (r *Result) Emit(ms ...*media.Media) error {
	r.mu.Lock()
	if r.state != StateWorking {
		r.mu.Unlock()
		return fmt.Errorf("emit from %s (%s): %w", r.InstanceID, r.state, ErrNotWorking)
	}
	for _, m := range ms {
		c := *m
		c.SourceID = r.SourceID
		c.Kind = r.Kind
		c.Tier = r.Tier
		r.media = append(r.media, &c)
	}
	r.mu.Unlock()

	r.notify()
	return nil
}

// Finish moves the result to a terminal state.
func (r *Result) Finish(state State, err error) error {
	if !state.IsTerminal() {
		return fmt.Errorf("finish %s with %s: %w", r.InstanceID, state, ErrInvalidTransition)
	}
	return r.transition(state, err)
}

// SetOnEnable registers the callback Enable runs for a disabled result.
func (r *Result) SetOnEnable(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEnable = fn
}

// Enable asks a disabled provider to start querying. It reports whether
// the provider was disabled. The result is already working when the
// callback runs, so nothing observes a pending enable as disabled.
// Enabling an already running provider is a no-op.
func (r *Result) Enable() bool {
	if r.transition(StateWorking, nil) != nil {
		return false
	}
	r.mu.RLock()
	fn := r.onEnable
	r.mu.RUnlock()
	if fn != nil {
		fn()
	}
	return true
}

// AwaitCompletion blocks until the result is settled or ctx is done.
func (r *Result) AwaitCompletion(ctx context.Context) (Snapshot, error) {
	for {
		changed := r.Changed()
		snap := r.Snapshot()
		if snap.State.IsSettled() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-changed:
		}
	}
}

func (r *Result) transition(to State, err error) error {
	r.mu.Lock()
	from := r.state
	if !from.CanTransitionTo(to) {
		r.mu.Unlock()
		return fmt.Errorf("%s: %s -> %s: %w", r.InstanceID, from, to, ErrInvalidTransition)
	}
	r.state = to
	r.err = err
	r.mu.Unlock()

	if r.session != nil {
		r.session.log.Debug("provider state changed",
			"instance", r.InstanceID, "source", r.SourceID, "prev", from, "state", to, "results", len(r.Snapshot().Media))
	}
	r.notify()
	return nil
}

func (r *Result) notify() {
	r.signal.Notify()
	if r.session != nil {
		r.session.signal.Notify()
	}
}

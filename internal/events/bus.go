package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// subscription is one subscriber channel and what it wants to receive.
// Empty filters match everything.
type subscription struct {
	ch        chan Event
	eventType string
	runID     string
}

func (s *subscription) wants(e Event) bool {
	if s.eventType != "" && s.eventType != e.EventType() {
		return false
	}
	return s.runID == "" || s.runID == e.RunID()
}

// Bus fans events out to in-process subscribers and, when it has an
// EventLog, persists them first.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    *EventLog // may be nil
	logger *slog.Logger
	closed bool
}

// NewBus creates a bus. log may be nil to disable persistence.
func NewBus(log *EventLog, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{log: log, logger: logger}
}

// Publish persists e and delivers it to every matching subscriber.
// Delivery never blocks: a full subscriber drops the event. A failed
// append is logged and delivery still happens.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return nil
	}

	if b.log != nil {
		if _, err := b.log.Append(ctx, e); err != nil {
			b.logger.Error("failed to persist event", "type", e.EventType(), "run_id", e.RunID(), "error", err)
		}
	}

	// Unsubscribe closes channels under the write lock, so sending under
	// the read lock never hits a closed channel.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil
	}
	for _, s := range b.subs {
		if !s.wants(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event",
				"type", e.EventType(),
				"run_id", e.RunID(),
				"entity_id", e.EntityID())
		}
	}
	return nil
}

// Subscribe returns a channel for events of one type.
func (b *Bus) Subscribe(eventType string, bufferSize int) <-chan Event {
	return b.subscribe(&subscription{eventType: eventType}, bufferSize)
}

// SubscribeAll returns a channel for every event.
func (b *Bus) SubscribeAll(bufferSize int) <-chan Event {
	return b.subscribe(&subscription{}, bufferSize)
}

// SubscribeRun returns a channel for the events of one playback run.
func (b *Bus) SubscribeRun(runID string, bufferSize int) <-chan Event {
	return b.subscribe(&subscription{runID: runID}, bufferSize)
}

// subscribe registers s. After Close it returns an already closed channel.
func (b *Bus) subscribe(s *subscription, bufferSize int) <-chan Event {
	s.ch = make(chan Event, bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	return s.ch
}

// Unsubscribe removes and closes a subscription channel. Unknown channels
// are ignored.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.subs, func(s *subscription) bool { return s.ch == ch })
	if i < 0 {
		return
	}
	close(b.subs[i].ch)
	b.subs = slices.Delete(b.subs, i, i+1)
}

// Close shuts down the bus and closes every subscriber channel. Publishing
// after Close is a no-op.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	return nil
}

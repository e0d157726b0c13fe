package fetch

import "sync"

// Signal is a broadcast change notification. Waiters grab the channel from
// Changed, read whatever state they need, then block on the channel; it is
// closed by the next Notify. Grabbing the channel before reading state means
// no change can be missed.
type Signal struct {
	mu      sync.Mutex
	ch      chan struct{}
	version uint64
}

// Changed returns a channel closed on the next Notify.
func (s *Signal) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// Notify wakes every current waiter.
func (s *Signal) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	if s.ch != nil {
		close(s.ch)
		s.ch = nil
	}
}

// Version returns the number of notifications so far.
func (s *Signal) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

package dispatch

import "sync"

// Serializer runs functions one at a time, in submission order, without a
// dedicated goroutine. Whoever finds it idle drains it, including work that
// the drained functions submit themselves. Submitting while another
// goroutine drains returns at once and the work runs on the drainer.
//
// The zero value is ready to use.
type Serializer struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

// Do submits fn and, if nobody is draining, runs the backlog before
// returning.
func (s *Serializer) Do(fn func()) {
	if s.Enqueue(fn) {
		s.Drain()
	}
}

// Enqueue submits fn without running anything. When it returns true the
// caller has taken the drain role and must call Drain. Splitting the two lets
// a caller fix the submission order under its own lock and drain after
// releasing it.
func (s *Serializer) Enqueue(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Drain runs the backlog. Only the caller that got true from Enqueue may
// call it.
func (s *Serializer) Drain() {
	finished := false
	defer func() {
		if !finished {
			// a panicking fn gives up the drain role; the rest of the
			// backlog runs on the next Do
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.pending = nil
			s.running = false
			s.mu.Unlock()
			finished = true
			return
		}
		fn := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		fn()
	}
}

// Busy reports whether a goroutine is currently draining.
func (s *Serializer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

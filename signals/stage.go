package signals

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/delaneyj/relay/dispatch"
	"github.com/delaneyj/relay/lifetime"
	"github.com/delaneyj/relay/modifier"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage binds one upstream observable to its own subscribers through one
// modifier. It subscribes a forwarding slot upstream, runs the modifier on
// its modifier context one message at a time, and sends whatever the
// modifier notifies to its own subscribers.
//
// A stage detaches from upstream when its last subscriber leaves, when the
// upstream drops it, or when it is invalidated. Detaching clears its own
// subscribers too, so teardown travels the chain in both directions.
//
// The forwarding slot only reaches the stage weakly. While the stage has
// subscribers the slot also pins it; without subscribers it lives only as
// long as its Chain or owner Container does, and once collected its forwarder
// is unsubscribed from upstream.
type Stage[In, Out any] struct {
	id   uuid.UUID
	opts *options
	mod  modifier.Modifier[In, Out]

	ser     dispatch.Serializer
	event   *Event[Out]
	token   *lifetime.Token
	forward *Slot[In]

	mu       sync.Mutex
	upstream Observable[In]
}

// forwarder is what the collection cleanup needs; it must not reach the
// stage.
type forwarder[In any] struct {
	id       uuid.UUID
	opts     *options
	upstream Observable[In]
	slot     *Slot[In]
	token    *lifetime.Token
}

// NewStage attaches mod to source.
func NewStage[In, Out any](source Observable[In], mod modifier.Modifier[In, Out], opts ...Option) *Stage[In, Out] {
	return newStage(source, mod, buildOptions(opts))
}

func newStage[In, Out any](source Observable[In], mod modifier.Modifier[In, Out], o *options) *Stage[In, Out] {
	s := &Stage[In, Out]{
		id:       uuid.New(),
		opts:     o,
		mod:      mod,
		token:    lifetime.NewToken(),
		upstream: source,
	}
	s.event = newEvent[Out](o, &dispatch.Serializer{})
	s.event.emptied = s.detach
	s.event.occupied = s.pin

	ref := lifetime.NewWeak(s)
	s.forward = NewSlot(dispatch.Immediate, s.token, func(msg In) {
		if st, ok := ref.Value(); ok {
			st.process(msg)
		}
	})
	s.forward.unsubscribed = func() {
		if st, ok := ref.Value(); ok {
			st.detach()
		}
	}

	runtime.AddCleanup(s, collected[In], forwarder[In]{
		id:       s.id,
		opts:     o,
		upstream: source,
		slot:     s.forward,
		token:    s.token,
	})

	o.logger.Debug("stage attached",
		zap.String("signal", o.name),
		zap.Stringer("stage", s.id),
	)
	source.Subscribe(s.forward)
	return s
}

func collected[In any](f forwarder[In]) {
	if !f.token.Alive() {
		return
	}
	f.token.Release()
	f.opts.metrics.Detached()
	f.opts.logger.Debug("stage collected",
		zap.String("signal", f.opts.name),
		zap.Stringer("stage", f.id),
	)
	f.upstream.Unsubscribe(f.slot)
}

// pin makes the upstream registry keep the stage alive while it has
// subscribers.
func (s *Stage[In, Out]) pin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upstream != nil {
		s.forward.keep.Store(&anchor{s})
	}
}

func (s *Stage[In, Out]) process(msg In) {
	s.opts.modifierContext().Invoke(func() {
		s.ser.Do(func() {
			var passed atomic.Bool
			s.mod.Process(msg, func(out Out) {
				passed.Store(true)
				s.event.Send(out)
			})
			if !passed.Load() {
				s.event.prune()
			}
		})
	})
}

func (s *Stage[In, Out]) detach() {
	s.mu.Lock()
	up := s.upstream
	s.upstream = nil
	s.forward.keep.Store(nil)
	s.mu.Unlock()
	if up == nil {
		return
	}

	s.token.Release()
	s.opts.metrics.Detached()
	s.opts.logger.Debug("stage detached",
		zap.String("signal", s.opts.name),
		zap.Stringer("stage", s.id),
	)

	up.Unsubscribe(s.forward)
	s.event.UnsubscribeAll()
}

func (s *Stage[In, Out]) Subscribe(slot *Slot[Out]) {
	s.event.Subscribe(slot)
}

func (s *Stage[In, Out]) Unsubscribe(slot *Slot[Out]) {
	s.event.Unsubscribe(slot)
}

func (s *Stage[In, Out]) SubscriberCount() int {
	return s.event.SubscriberCount()
}

// Invalidate detaches the stage from upstream and drops its subscribers.
func (s *Stage[In, Out]) Invalidate() {
	s.detach()
}

// Close is Invalidate.
func (s *Stage[In, Out]) Close() {
	s.detach()
}

// Detached reports whether the stage has let go of its upstream.
func (s *Stage[In, Out]) Detached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upstream == nil
}

// Last returns the most recent message the stage sent to its subscribers.
func (s *Stage[In, Out]) Last() (Out, bool) {
	return s.event.Last()
}

package lifetime

import (
	"sync/atomic"
	"weak"
)

// Receiver is the liveness side of a subscriber. Subscriptions bound to a
// receiver stop delivering once it reports dead; nothing here keeps the
// receiver itself alive.
type Receiver interface {
	Alive() bool
}

// Token is an explicit liveness flag created alongside a receiver-like object
// and released when that object is done.
type Token struct {
	dead atomic.Bool
}

func NewToken() *Token {
	return &Token{}
}

func (t *Token) Alive() bool {
	return !t.dead.Load()
}

// Release marks the token dead. Releasing twice is harmless.
func (t *Token) Release() {
	t.dead.Store(true)
}

// Weak is a receiver that stays alive exactly as long as the object it was
// made from is reachable.
type Weak[T any] struct {
	p weak.Pointer[T]
}

func NewWeak[T any](p *T) Weak[T] {
	return Weak[T]{p: weak.Make(p)}
}

func (w Weak[T]) Alive() bool {
	return w.p.Value() != nil
}

// Value returns the object if it is still reachable.
func (w Weak[T]) Value() (*T, bool) {
	v := w.p.Value()
	return v, v != nil
}

type forever struct{}

func (forever) Alive() bool {
	return true
}

// Forever never dies; subscriptions bound to it end only by invalidation.
var Forever Receiver = forever{}

package signals

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// registry is the unsynchronized subscriber list behind Event. Insertion
// order is delivery order.
type registry[T any] struct {
	slots   []*Slot[T]
	members mapset.Set[*Slot[T]]
	last    T
	hasLast bool
}

func newRegistry[T any]() registry[T] {
	return registry[T]{
		members: mapset.NewThreadUnsafeSet[*Slot[T]](),
	}
}

func (r *registry[T]) subscribe(s *Slot[T]) bool {
	if !r.members.Add(s) {
		return false
	}
	r.slots = append(r.slots, s)
	if r.hasLast {
		s.Invoke(r.last)
	}
	return true
}

// unsubscribe removes s and, in the same pass, every dead slot.
func (r *registry[T]) unsubscribe(s *Slot[T]) (removed bool, pruned int) {
	kept := r.slots[:0]
	for _, slot := range r.slots {
		switch {
		case slot == s:
			removed = true
		case !slot.Valid():
			pruned++
		default:
			kept = append(kept, slot)
			continue
		}
		r.members.Remove(slot)
	}
	clear(r.slots[len(kept):])
	r.slots = kept
	return removed, pruned
}

// send records msg as the last message and hands it to every live slot. The
// live slots are copied out first so delivery never walks a list that a
// callback is changing.
func (r *registry[T]) send(msg T) (delivered, pruned int) {
	r.last, r.hasLast = msg, true
	pruned = r.prune()

	snapshot := make([]*Slot[T], len(r.slots))
	copy(snapshot, r.slots)
	for _, slot := range snapshot {
		if slot.Invoke(msg) {
			delivered++
		}
	}
	return delivered, pruned
}

// prune drops every dead slot and reports how many went.
func (r *registry[T]) prune() (pruned int) {
	live := r.slots[:0]
	for _, slot := range r.slots {
		if slot.Valid() {
			live = append(live, slot)
			continue
		}
		r.members.Remove(slot)
		pruned++
	}
	clear(r.slots[len(live):])
	r.slots = live
	return pruned
}

func (r *registry[T]) removeAll() []*Slot[T] {
	slots := r.slots
	r.slots = nil
	r.members.Clear()
	return slots
}

func (r *registry[T]) len() int {
	return len(r.slots)
}

package dispatch

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Queue is a serial FIFO executor backed by a single worker goroutine.
// Posting never blocks: the backlog is unbounded.
type Queue struct {
	name string

	mu     sync.Mutex
	tasks  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
	gid  atomic.Int64
}

// NewQueue starts a queue and its worker.
func NewQueue(name string) *Queue {
	q := &Queue{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	started := make(chan struct{})
	go q.run(started)
	<-started
	return q
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) run(started chan struct{}) {
	defer close(q.done)
	q.gid.Store(goid.Get())
	close(started)

	for {
		q.mu.Lock()
		for len(q.tasks) == 0 {
			if q.closed {
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			<-q.wake
			q.mu.Lock()
		}
		tasks := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		for _, task := range tasks {
			task()
		}
	}
}

// Post appends fn to the queue. Posts to a closed queue are dropped.
func (q *Queue) Post(fn func()) {
	q.post(fn)
}

func (q *Queue) post(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// IsCurrent reports whether the caller is running on the queue's worker.
func (q *Queue) IsCurrent() bool {
	return goid.Get() == q.gid.Load()
}

// Flush blocks until every task posted before the call has run. It returns
// immediately when called from the queue itself or after Close.
func (q *Queue) Flush() {
	if q.IsCurrent() {
		return
	}
	flushed := make(chan struct{})
	if !q.post(func() { close(flushed) }) {
		return
	}
	<-flushed
}

// Close stops accepting tasks, lets the worker drain the backlog and waits
// for it to exit unless called from the worker.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	if !q.IsCurrent() {
		<-q.done
	}
}

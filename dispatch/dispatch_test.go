package dispatch_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/delaneyj/relay/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImmediateRunsInline(t *testing.T) {
	ran := false
	dispatch.Immediate.Invoke(func() {
		ran = true
	})
	assert.True(t, ran)
}

func TestBackgroundRunsEventually(t *testing.T) {
	var ran atomic.Bool
	dispatch.Background.Invoke(func() {
		ran.Store(true)
	})
	require.Eventually(t, ran.Load, time.Second, time.Millisecond)
}

func TestQueueKeepsFIFOOrder(t *testing.T) {
	q := dispatch.NewQueue("fifo")
	defer q.Close()

	var got []int
	for i := 0; i < 100; i++ {
		q.Post(func() {
			got = append(got, i)
		})
	}
	q.Flush()

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueueIsCurrent(t *testing.T) {
	q := dispatch.NewQueue("current")
	defer q.Close()

	assert.False(t, q.IsCurrent())

	var onQueue atomic.Bool
	q.Post(func() {
		onQueue.Store(q.IsCurrent())
	})
	q.Flush()
	assert.True(t, onQueue.Load())
}

func TestOnQueueAlwaysDefers(t *testing.T) {
	q := dispatch.NewQueue("explicit")
	defer q.Close()
	ctx := dispatch.OnQueue(q)

	var order []string
	q.Post(func() {
		ctx.Invoke(func() {
			order = append(order, "inner")
		})
		order = append(order, "outer")
	})
	q.Flush()

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestDeferToRunsInlineOnTheQueue(t *testing.T) {
	q := dispatch.NewQueue("main")
	defer q.Close()
	ctx := dispatch.DeferTo(q)

	var order []string
	q.Post(func() {
		ctx.Invoke(func() {
			order = append(order, "inner")
		})
		order = append(order, "outer")
	})
	q.Flush()
	assert.Equal(t, []string{"inner", "outer"}, order)

	var ran atomic.Bool
	ctx.Invoke(func() {
		ran.Store(q.IsCurrent())
	})
	q.Flush()
	assert.True(t, ran.Load(), "callers off the queue are posted to it")
}

func TestQueueDropsPostsAfterClose(t *testing.T) {
	q := dispatch.NewQueue("closed")
	var count atomic.Int32
	q.Post(func() { count.Add(1) })
	q.Close()
	q.Post(func() { count.Add(1) })
	q.Flush()

	assert.EqualValues(t, 1, count.Load())
}

func TestSerializerRunsReentrantWorkAfterCurrent(t *testing.T) {
	var s dispatch.Serializer
	var order []string

	s.Do(func() {
		order = append(order, "first")
		s.Do(func() {
			order = append(order, "nested")
		})
		order = append(order, "first done")
	})
	s.Do(func() {
		order = append(order, "second")
	})

	assert.Equal(t, []string{"first", "first done", "nested", "second"}, order)
	assert.False(t, s.Busy())
}

func TestSerializerNeverOverlaps(t *testing.T) {
	var (
		s       dispatch.Serializer
		active  atomic.Int32
		overlap atomic.Bool
		total   atomic.Int32
		wg      sync.WaitGroup
	)

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Do(func() {
					if active.Add(1) > 1 {
						overlap.Store(true)
					}
					total.Add(1)
					active.Add(-1)
				})
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		return total.Load() == 1600
	}, time.Second, time.Millisecond)
	assert.False(t, overlap.Load())
}

func TestSerializerRecoversDrainRoleAfterPanic(t *testing.T) {
	var s dispatch.Serializer
	assert.Panics(t, func() {
		s.Do(func() {
			panic("boom")
		})
	})

	ran := false
	s.Do(func() {
		ran = true
	})
	assert.True(t, ran)
}

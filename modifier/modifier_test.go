package modifier_test

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/delaneyj/relay/lifetime"
	"github.com/delaneyj/relay/modifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run[In, Out any](m modifier.Modifier[In, Out], msgs ...In) []Out {
	var out []Out
	for _, msg := range msgs {
		m.Process(msg, func(o Out) {
			out = append(out, o)
		})
	}
	return out
}

func TestMap(t *testing.T) {
	m := modifier.Map(strconv.Itoa)
	assert.Equal(t, []string{"1", "2", "3"}, run(m, 1, 2, 3))
}

func TestFilter(t *testing.T) {
	m := modifier.Filter(func(v int) bool {
		return v%2 == 0
	})
	assert.Equal(t, []int{2, 4}, run(m, 1, 2, 3, 4, 5))
}

func TestDistinct(t *testing.T) {
	out := run(modifier.Distinct[int](), 2, 2, 2, 3, 3, 10)
	assert.Equal(t, []int{2, 3, 10}, out)

	sum := 0
	for _, v := range out {
		sum += v
	}
	assert.Equal(t, 15, sum)
}

func TestDistinctLetsEarlierValuesBackIn(t *testing.T) {
	out := run(modifier.Distinct[string](), "a", "a", "b", "a")
	assert.Equal(t, []string{"a", "b", "a"}, out)
}

func TestDistinctFunc(t *testing.T) {
	sameLength := func(a, b string) bool {
		return len(a) == len(b)
	}
	out := run(modifier.DistinctFunc(sameLength), "ab", "cd", "efg", "hi")
	assert.Equal(t, []string{"ab", "efg", "hi"}, out)
}

func TestDiscard(t *testing.T) {
	m := modifier.Discard[int](3)
	assert.Equal(t, []int{4, 5}, run(m, 1, 2, 3, 4, 5))
	assert.Equal(t, []int{6, 7}, run(m, 6, 7), "the counter never resets")
}

func TestDiscardNothing(t *testing.T) {
	assert.Equal(t, []int{1, 2}, run(modifier.Discard[int](0), 1, 2))
	assert.Equal(t, []int{1, 2}, run(modifier.Discard[int](-4), 1, 2))
}

func TestTap(t *testing.T) {
	var seen []int
	m := modifier.Tap(func(v int) {
		seen = append(seen, v*10)
	})
	assert.Equal(t, []int{1, 2}, run(m, 1, 2))
	assert.Equal(t, []int{10, 20}, seen)
}

func TestTapWithDeadReceiverStillPasses(t *testing.T) {
	tok := lifetime.NewToken()
	calls := 0
	m := modifier.TapWith(tok, func(int) {
		calls++
	})

	assert.Equal(t, []int{1}, run(m, 1))
	tok.Release()
	assert.Equal(t, []int{2}, run(m, 2))
	assert.Equal(t, 1, calls)
}

func TestFuncFanOut(t *testing.T) {
	split := modifier.Func[string, rune](func(msg string, notify func(rune)) {
		for _, r := range msg {
			notify(r)
		}
	})
	assert.Equal(t, []rune{'h', 'i', '!'}, run[string, rune](split, "hi", "", "!"))
}

func TestThrottle(t *testing.T) {
	mock := clock.NewMock()
	m := modifier.Throttle[int](mock, 2) // one every 500ms

	var out []int
	send := func(v int) {
		m.Process(v, func(o int) {
			out = append(out, o)
		})
	}

	send(1)
	mock.Add(100 * time.Millisecond)
	send(2)
	mock.Add(399 * time.Millisecond)
	send(3)
	mock.Add(1 * time.Millisecond)
	send(4)
	mock.Add(200 * time.Millisecond)
	send(5)
	mock.Add(300 * time.Millisecond)
	send(6)

	assert.Equal(t, []int{1, 4, 6}, out)
}

func TestThrottleWithoutRatePassesEverything(t *testing.T) {
	m := modifier.Throttle[int](clock.NewMock(), 0)
	assert.Equal(t, []int{1, 2, 3}, run(m, 1, 2, 3))
}

type collector[T any] struct {
	mu  sync.Mutex
	got []T
}

func (c *collector[T]) add(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, v)
}

func (c *collector[T]) values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.got...)
}

func TestDebounceDeliversLastOfBurst(t *testing.T) {
	mock := clock.NewMock()
	m := modifier.Debounce[int](mock, 2*time.Second)
	c := &collector[int]{}

	for i := 0; i <= 10; i++ {
		m.Process(i, c.add)
		mock.Add(100 * time.Millisecond)
	}
	assert.Empty(t, c.values(), "nothing before the quiet period")

	mock.Add(1800 * time.Millisecond)
	assert.Empty(t, c.values())

	mock.Add(100 * time.Millisecond)
	require.Eventually(t, func() bool {
		return len(c.values()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, []int{10}, c.values())

	mock.Add(10 * time.Second)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, []int{10}, c.values())
}

func TestDebounceSeparateBursts(t *testing.T) {
	mock := clock.NewMock()
	m := modifier.Debounce[string](mock, time.Second)
	c := &collector[string]{}

	m.Process("a", c.add)
	m.Process("b", c.add)
	mock.Add(time.Second)
	require.Eventually(t, func() bool {
		return len(c.values()) == 1
	}, time.Second, time.Millisecond)

	m.Process("c", c.add)
	mock.Add(time.Second)
	require.Eventually(t, func() bool {
		return len(c.values()) == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"b", "c"}, c.values())
}

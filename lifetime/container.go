package lifetime

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Invalidatable is anything that can be switched off for good.
type Invalidatable interface {
	Invalidate()
}

// Container groups invalidatables so they can be switched off with one call.
// It is safe for concurrent use and can be refilled after Invalidate.
type Container struct {
	mu      sync.Mutex
	items   []Invalidatable
	members mapset.Set[Invalidatable]
}

func NewContainer() *Container {
	return &Container{
		members: mapset.NewThreadUnsafeSet[Invalidatable](),
	}
}

// Add puts x under the container. Adding the same x twice is a no-op.
func (c *Container) Add(x Invalidatable) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.members.Add(x) {
		c.items = append(c.items, x)
	}
}

// Invalidate switches every member off in the order they were added and
// empties the container.
func (c *Container) Invalidate() {
	c.mu.Lock()
	items := c.items
	c.items = nil
	c.members.Clear()
	c.mu.Unlock()

	for _, x := range items {
		x.Invalidate()
	}
}

func (c *Container) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

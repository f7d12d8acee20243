// Package observe provides a value holder that pushes every write to its
// subscribers.
package observe

import "sync"

// Cell holds a value of type T and notifies subscribers synchronously on
// every Set, in subscription order, before Set returns.
//
// Broadcasts on one cell are serialized. A subscriber must not call Set on
// the cell that is notifying it.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T

	bcast sync.Mutex

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(T)
	order     []int
}

// NewCell returns a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set stores v and delivers it to every current subscriber.
func (c *Cell[T]) Set(v T) {
	c.bcast.Lock()
	defer c.bcast.Unlock()

	c.mu.Lock()
	c.value = v
	c.mu.Unlock()

	for _, id := range c.snapshotOrder() {
		fn, ok := c.lookup(id)
		if !ok {
			// Unsubscribed by an earlier subscriber in this broadcast.
			continue
		}
		fn(v)
	}
}

// Subscribe registers fn and returns a cancel func. Once cancel returns, fn
// receives no value from any later Set. Cancel may be called more than once,
// including from inside fn.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.subMu.Lock()
	c.nextSubID++
	id := c.nextSubID
	c.subs[id] = fn
	c.order = append(c.order, id)
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.remove(id) })
	}
}

// Subscribers returns the number of registered subscribers.
func (c *Cell[T]) Subscribers() int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	return len(c.subs)
}

func (c *Cell[T]) snapshotOrder() []int {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	out := make([]int, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Cell[T]) lookup(id int) (func(T), bool) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	fn, ok := c.subs[id]
	return fn, ok
}

func (c *Cell[T]) remove(id int) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	delete(c.subs, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

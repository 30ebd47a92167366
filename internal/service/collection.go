package service

import (
	"sync"
	"time"
)

// Snapshot is an immutable view of a store's collection. Err holds the last
// refresh failure; Items is empty whenever Err is set.
type Snapshot[T any] struct {
	Items     []T       `json:"items"`
	Err       error     `json:"-"`
	Loaded    bool      `json:"loaded"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// collection owns a store's items. It is only ever replaced wholesale.
type collection[T any] struct {
	mu        sync.RWMutex
	items     []T
	err       error
	loaded    bool
	updatedAt time.Time
	listeners map[int]func(Snapshot[T])
	nextID    int
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{listeners: make(map[int]func(Snapshot[T]))}
}

// replace swaps in items and notifies listeners outside the lock.
func (c *collection[T]) replace(items []T, err error, now time.Time) {
	c.set(items, err, err == nil, now)
}

// reset empties the collection and marks it as never loaded.
func (c *collection[T]) reset(now time.Time) {
	c.set(nil, nil, false, now)
}

func (c *collection[T]) set(items []T, err error, loaded bool, now time.Time) {
	if items == nil {
		items = []T{}
	}
	c.mu.Lock()
	c.items = items
	c.err = err
	c.loaded = loaded
	c.updatedAt = now
	snap := c.snapshotLocked()
	fns := c.listenersLocked()
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (c *collection[T]) snapshot() Snapshot[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *collection[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{Items: items, Err: c.err, Loaded: c.loaded, UpdatedAt: c.updatedAt}
}

func (c *collection[T]) listenersLocked() []func(Snapshot[T]) {
	fns := make([]func(Snapshot[T]), 0, len(c.listeners))
	for i := 0; i < c.nextID; i++ {
		if fn, ok := c.listeners[i]; ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// find returns the first item matching pred.
func (c *collection[T]) find(pred func(T) bool) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *collection[T]) filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []T{}
	for _, item := range c.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func (c *collection[T]) subscribe(fn func(Snapshot[T])) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

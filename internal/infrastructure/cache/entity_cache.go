// Package cache provides the client-side mirror of fetched records.
//
// Each session (acting user) owns one EntityCache holding the last fetched
// list and an optional selected record. Lifecycle operations update the
// mirror in place after the store write succeeded, without a re-fetch.
package cache

import (
	"sync"

	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
)

// EntityCache mirrors the last known state of a list of records plus an
// optional selected record. All accessors return copies.
type EntityCache[T entity.Deletable] struct {
	mu       sync.RWMutex
	items    []T
	selected T
	hasSel   bool
	clone    func(T) T
}

// NewEntityCache creates an empty cache. clone must return a deep copy.
func NewEntityCache[T entity.Deletable](clone func(T) T) *EntityCache[T] {
	return &EntityCache[T]{clone: clone}
}

// Replace swaps the list for freshly fetched items. A selected record that
// is part of items is refreshed too.
func (c *EntityCache[T]) Replace(items []T) {
	fresh := make([]T, len(items))
	for i, it := range items {
		fresh[i] = c.clone(it)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = fresh
	if c.hasSel {
		for _, it := range fresh {
			if it.GetID() == c.selected.GetID() {
				c.selected = c.clone(it)
				break
			}
		}
	}
}

// Select sets the selected record.
func (c *EntityCache[T]) Select(e T) {
	cp := c.clone(e)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = cp
	c.hasSel = true
}

// ClearSelection drops the selected record.
func (c *EntityCache[T]) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.selected = zero
	c.hasSel = false
}

// Items returns a copy of the list.
func (c *EntityCache[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = c.clone(it)
	}
	return out
}

// Selected returns a copy of the selected record.
func (c *EntityCache[T]) Selected() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasSel {
		var zero T
		return zero, false
	}
	return c.clone(c.selected), true
}

// Contains reports whether the record is in the list or selected.
func (c *EntityCache[T]) Contains(entityID id.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.hasSel && c.selected.GetID() == entityID {
		return true
	}
	for _, it := range c.items {
		if it.GetID() == entityID {
			return true
		}
	}
	return false
}

// Apply replaces the record with the same id in the list and in the
// selected slot. Records not held by the cache are ignored.
func (c *EntityCache[T]) Apply(e T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, it := range c.items {
		if it.GetID() == e.GetID() {
			c.items[i] = c.clone(e)
		}
	}
	if c.hasSel && c.selected.GetID() == e.GetID() {
		c.selected = c.clone(e)
	}
}

// Remove drops the record from the list and clears the selection if it
// pointed to it.
func (c *EntityCache[T]) Remove(entityID id.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	for _, it := range c.items {
		if it.GetID() != entityID {
			kept = append(kept, it)
		}
	}
	c.items = kept
	if c.hasSel && c.selected.GetID() == entityID {
		var zero T
		c.selected = zero
		c.hasSel = false
	}
}

package cache

import (
	"sync"

	"portfolio/internal/core/entity"
	"portfolio/internal/core/id"
	"portfolio/internal/domain/lifecycle"
)

// Sessions holds one EntityCache per session key (the acting user id).
// It implements lifecycle.Observer: a persisted change is applied to every
// session that currently mirrors the record.
type Sessions[T entity.Deletable] struct {
	mu       sync.RWMutex
	sessions map[string]*EntityCache[T]
	clone    func(T) T
}

// NewSessions creates an empty session registry.
func NewSessions[T entity.Deletable](clone func(T) T) *Sessions[T] {
	return &Sessions[T]{
		sessions: make(map[string]*EntityCache[T]),
		clone:    clone,
	}
}

var _ lifecycle.Observer[*entity.BaseEntity] = (*Sessions[*entity.BaseEntity])(nil)

// For returns the cache of a session, creating it on first use.
func (s *Sessions[T]) For(key string) *EntityCache[T] {
	s.mu.RLock()
	c, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.sessions[key]; ok {
		return c
	}
	c = NewEntityCache(s.clone)
	s.sessions[key] = c
	return c
}

// Drop forgets a session (logout).
func (s *Sessions[T]) Drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// Len returns the number of live sessions.
func (s *Sessions[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Sessions[T]) Applied(e T) {
	for _, c := range s.snapshot() {
		c.Apply(e)
	}
}

func (s *Sessions[T]) Removed(entityID id.ID) {
	for _, c := range s.snapshot() {
		c.Remove(entityID)
	}
}

func (s *Sessions[T]) snapshot() []*EntityCache[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*EntityCache[T], 0, len(s.sessions))
	for _, c := range s.sessions {
		out = append(out, c)
	}
	return out
}

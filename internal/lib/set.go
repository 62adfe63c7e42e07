package lib

import (
	"sync"
)

// Set is thread-safe and can be passed by value.
type Set[T comparable] struct {
	data map[T]struct{}
	mu   *sync.RWMutex
}

func NewSet[T comparable]() Set[T] {
	return Set[T]{
		data: make(map[T]struct{}),
		mu:   &sync.RWMutex{},
	}
}

// Add inserts elem and reports whether it was not already present.
func (s Set[T]) Add(elem T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[elem]; exists {
		return false
	}
	s.data[elem] = struct{}{}
	return true
}

func (s Set[T]) Contains(elem T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.data[elem]
	return exists
}

func (s Set[T]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Package session keeps short-lived per-identity state in memory.
package session

import "sync"

// Store is a mutex-guarded map. Writes for the same key are last-write-wins.
type Store[K comparable, V any] struct {
	mu    sync.Mutex
	items map[K]V
}

func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{items: make(map[K]V)}
}

func (s *Store[K, V]) Put(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	return v, ok
}

// Delete removes key and reports whether it was present.
func (s *Store[K, V]) Delete(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[key]
	delete(s.items, key)
	return ok
}

// DeleteIf removes key only when pred accepts its current value.
func (s *Store[K, V]) DeleteIf(key K, pred func(V) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok || !pred(v) {
		return false
	}
	delete(s.items, key)
	return true
}

// Update applies fn to the current value under the lock. fn returns the new
// value and whether to keep it; returning false deletes the key.
func (s *Store[K, V]) Update(key K, fn func(v V, exists bool) (V, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	next, keep := fn(v, ok)
	if keep {
		s.items[key] = next
		return
	}
	delete(s.items, key)
}

func (s *Store[K, V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Keys returns a copy of the current keys in no particular order.
func (s *Store[K, V]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]K, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	return keys
}

package property

import (
	"errors"
	"maps"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidKey indicates a property key is empty or only whitespace.
	ErrInvalidKey = errors.New("property keys must be non-empty")
)

// Source looks up a single property value. Sources make no ordering
// guarantee across keys.
type Source interface {
	Lookup(key string) (string, bool)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(key string) (string, bool)

// Lookup calls f(key).
func (f SourceFunc) Lookup(key string) (string, bool) {
	return f(key)
}

// Map is an immutable Source backed by a copy of the given map.
type Map struct {
	values map[string]string
}

// NewMap copies values into a new Map.
func NewMap(values map[string]string) Map {
	return Map{values: maps.Clone(values)}
}

// Lookup returns the value stored under key.
func (m Map) Lookup(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Store is a mutable Source holding context properties. It guards access
// with a RWMutex so lookups can run concurrently with updates.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore initialises a store with a copy of initial.
func NewStore(initial map[string]string) *Store {
	values := maps.Clone(initial)
	if values == nil {
		values = map[string]string{}
	}
	return &Store{values: values}
}

// Lookup returns the current value stored under key.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Set stores a single property.
func (s *Store) Set(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}

	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	return nil
}

// Replace validates and swaps in a complete new property set.
func (s *Store) Replace(values map[string]string) error {
	for key := range values {
		if strings.TrimSpace(key) == "" {
			return ErrInvalidKey
		}
	}
	next := maps.Clone(values)
	if next == nil {
		next = map[string]string{}
	}

	s.mu.Lock()
	s.values = next
	s.mu.Unlock()

	return nil
}

// Snapshot returns a copy of all stored properties.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.values)
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

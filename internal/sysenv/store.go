package sysenv

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"
)

// maxPlatformKeyLen mirrors the key limit of constrained platform property
// services.
const maxPlatformKeyLen = 31

// Reader is the read half of a property store.
type Reader interface {
	Get(key string) (string, bool, error)
}

// Store is a process-scoped key/value store for system properties.
// Concurrent writers race; the last write wins.
type Store interface {
	Reader
	Set(key, value string) error
	All() (map[string]string, error)
}

// MemoryStore is the default Store. Keys under a restricted prefix are
// rejected with ErrPermissionDenied for reads and writes alike.
type MemoryStore struct {
	mu         sync.RWMutex
	values     map[string]string
	restricted []string
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithRestrictedPrefixes denies access to every key starting with one of prefixes.
func WithRestrictedPrefixes(prefixes ...string) MemoryStoreOption {
	return func(s *MemoryStore) {
		for _, p := range prefixes {
			if p = strings.TrimSpace(p); p != "" {
				s.restricted = append(s.restricted, p)
			}
		}
	}
}

// NewMemoryStore creates a store seeded with a copy of initial.
func NewMemoryStore(initial map[string]string, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{values: maps.Clone(initial)}
	if s.values == nil {
		s.values = map[string]string{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	if s.denied(key) {
		return "", false, fmt.Errorf("read %q: %w", key, ErrPermissionDenied)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	if s.denied(key) {
		return fmt.Errorf("write %q: %w", key, ErrPermissionDenied)
	}

	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()

	return nil
}

// All returns a snapshot of the readable properties. Restricted keys are left out.
func (s *MemoryStore) All() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		if !s.denied(k) {
			out[k] = v
		}
	}
	return out, nil
}

func (s *MemoryStore) denied(key string) bool {
	for _, p := range s.restricted {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// PlatformStore is a read-only secondary property store, queried when the
// primary store has no value. It only accepts short keys without whitespace.
type PlatformStore struct {
	values map[string]string
}

// NewPlatformStore copies values into a new PlatformStore.
func NewPlatformStore(values map[string]string) *PlatformStore {
	return &PlatformStore{values: maps.Clone(values)}
}

// LoadPlatformStore reads a flat YAML mapping of key to value.
func LoadPlatformStore(path string) (*PlatformStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var values map[string]string
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return NewPlatformStore(values), nil
}

func (p *PlatformStore) Get(key string) (string, bool, error) {
	if err := validatePlatformKey(key); err != nil {
		return "", false, err
	}
	v, ok := p.values[key]
	return v, ok, nil
}

func validatePlatformKey(key string) error {
	if key == "" || len(key) > maxPlatformKeyLen {
		return fmt.Errorf("%q: %w", key, ErrMalformedKey)
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%q: %w", key, ErrMalformedKey)
	}
	return nil
}

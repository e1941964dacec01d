// Package params implements the string-keyed configuration store effects
// read their settings from.
package params

import "sync"

// Store holds heterogeneous named values: ints, floats, bools, strings
// and packed colors. Every mutation that changes a value bumps a
// revision counter, so an effect can compare revisions to decide whether
// its compiled scripts and lookup tables are stale without comparing
// every key.
type Store struct {
	mu  sync.RWMutex
	m   map[string]any
	rev uint64
}

// NewStore returns an empty store at revision 0.
func NewStore() *Store {
	return &Store{m: make(map[string]any)}
}

// Revision returns the current change counter.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func (s *Store) set(key string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.m[key]; ok && old == v {
		return
	}
	s.m[key] = v
	s.rev++
}

// SetInt stores an integer value.
func (s *Store) SetInt(key string, v int) { s.set(key, v) }

// SetFloat stores a float value.
func (s *Store) SetFloat(key string, v float64) { s.set(key, v) }

// SetBool stores a boolean value.
func (s *Store) SetBool(key string, v bool) { s.set(key, v) }

// SetString stores a string value.
func (s *Store) SetString(key string, v string) { s.set(key, v) }

// SetColor stores a packed 0xAARRGGBB color.
func (s *Store) SetColor(key string, v uint32) { s.set(key, v) }

// Int returns the integer stored under key, or def when the key is
// absent or holds another type.
func (s *Store) Int(key string, def int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.m[key].(int); ok {
		return v
	}
	return def
}

// Float returns the float stored under key, or def. An int value is
// widened so numeric keys written either way read back consistently.
func (s *Store) Float(key string, def float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch v := s.m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// Bool returns the boolean stored under key, or def.
func (s *Store) Bool(key string, def bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.m[key].(bool); ok {
		return v
	}
	return def
}

// String returns the string stored under key, or def.
func (s *Store) String(key string, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.m[key].(string); ok {
		return v
	}
	return def
}

// Color returns the packed color stored under key, or def.
func (s *Store) Color(key string, def uint32) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.m[key].(uint32); ok {
		return v
	}
	return def
}

// Keys returns the stored key names in no particular order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	return keys
}

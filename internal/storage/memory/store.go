package memory

import (
	"sort"
	"sync"

	"github.com/PhantomXD-nepal/KrishnaBackend/pkg/resp"
)

// Entry is a key and its value.
type Entry struct {
	Key   string
	Value resp.Value
}

// Store is the authoritative key space.
type Store struct {
	mu   sync.RWMutex
	data map[string]resp.Value

	initialCapacity int
}

// Option configures the Store.
type Option func(*Store)

// WithInitialCapacity pre-sizes the map, useful when loading a large snapshot.
func WithInitialCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.initialCapacity = n
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	s.data = make(map[string]resp.Value, s.initialCapacity)
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (resp.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	return v, ok
}

// Set stores v under key, replacing any previous value.
func (s *Store) Set(key string, v resp.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = v
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	return true
}

// Flush removes every key and returns how many were removed.
func (s *Store) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.data)
	s.data = make(map[string]resp.Value, s.initialCapacity)
	return n
}

// Edit overwrites an existing key. It never creates one: when key is
// absent nothing changes and ok is false. The replaced value is returned.
func (s *Store) Edit(key string, v resp.Value) (old resp.Value, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok = s.data[key]
	if !ok {
		return resp.Value{}, false
	}
	s.data[key] = v
	return old, true
}

// MGet looks up keys under one read lock. Results follow the order of
// keys; found[i] is false for a missing key.
func (s *Store) MGet(keys []string) (values []resp.Value, found []bool) {
	values = make([]resp.Value, len(keys))
	found = make([]bool, len(keys))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, k := range keys {
		values[i], found[i] = s.data[k]
	}
	return values, found
}

// MSet stores all entries atomically. Later entries win over earlier
// ones with the same key.
func (s *Store) MSet(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.data[e.Key] = e.Value
	}
}

// Len returns the number of keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Snapshot returns a point-in-time copy of the key space.
// Values are immutable, so only the map itself is copied.
func (s *Store) Snapshot() map[string]resp.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]resp.Value, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// LoadFromSnapshot replaces the whole key space with data.
func (s *Store) LoadFromSnapshot(data map[string]resp.Value) {
	fresh := make(map[string]resp.Value, max(len(data), s.initialCapacity))
	for k, v := range data {
		fresh[k] = v
	}

	s.mu.Lock()
	s.data = fresh
	s.mu.Unlock()
}

package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Store is the in-memory fragment store: an id→fragment map guarded by a
// RWMutex. Writes are atomic per id (concurrent re-adds resolve
// last-write-wins); reads take snapshots so Search never observes a
// half-written fragment.
type Store struct {
	mu    sync.RWMutex
	frags map[string]*Fragment
	seq   int64
	dims  int // embedding dimensionality, fixed by the first embedded add
}

// NewStore creates an empty fragment store.
func NewStore() *Store {
	return &Store{frags: make(map[string]*Fragment)}
}

// Put inserts or overwrites a fragment. On overwrite the original insertion
// sequence is kept so ranking tie-breaks stay stable across re-adds.
func (s *Store) Put(f Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(f.Embedding) > 0 {
		if s.dims == 0 {
			s.dims = len(f.Embedding)
		} else if len(f.Embedding) != s.dims {
			return fmt.Errorf("embedding dimension %d, store uses %d", len(f.Embedding), s.dims)
		}
	}

	if existing, ok := s.frags[f.ID]; ok {
		f.seq = existing.seq
	} else {
		s.seq++
		f.seq = s.seq
	}
	s.frags[f.ID] = &f
	return nil
}

// Get returns a copy of the fragment, or nil if not found. Not-found is not
// an error.
func (s *Store) Get(id string) *Fragment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.frags[id]
	if !ok {
		return nil
	}
	out := f.clone()
	return &out
}

// Delete physically removes a fragment. Returns true if it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.frags[id]
	delete(s.frags, id)
	return ok
}

// Count returns the current number of stored fragments.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frags)
}

// Dimensions returns the store's embedding dimensionality (0 until the first
// embedded fragment lands).
func (s *Store) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dims
}

// UpdateMetadata shallow-merges a patch into one fragment's metadata. Other
// fragments are never touched. Returns false for an unknown id.
func (s *Store) UpdateMetadata(id string, patch MetadataPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.frags[id]
	if !ok {
		return false
	}
	patch.apply(&f.Meta)
	return true
}

// mutateMeta applies fn to one fragment's metadata under the write lock.
// Used by the engine to fold outcome stats back onto fragments.
func (s *Store) mutateMeta(id string, fn func(*Metadata)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.frags[id]
	if !ok {
		return false
	}
	fn(&f.Meta)
	return true
}

// All returns a snapshot of every fragment in insertion order.
func (s *Store) All() []Fragment {
	s.mu.RLock()
	out := make([]Fragment, 0, len(s.frags))
	for _, f := range s.frags {
		out = append(out, f.clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

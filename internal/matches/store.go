package matches

import (
	"sync"

	"snipd/internal/logging"
)

// Snapshot is an immutable, fully-resolved view of all loaded matches and
// global variables. Consumers hold one snapshot per event and never observe
// a partially-updated store.
type Snapshot struct {
	ordered    []*Match
	byID       map[int]*Match
	globalVars []Variable
}

// Get returns the match with the given id, O(1).
func (s *Snapshot) Get(id int) (*Match, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// Matches returns all matches in load order.
func (s *Snapshot) Matches() []*Match {
	return s.ordered
}

// GlobalVars returns the global variables in load order.
func (s *Snapshot) GlobalVars() []Variable {
	return s.globalVars
}

// GlobalVar looks up a global variable by name.
func (s *Snapshot) GlobalVar(name string) (Variable, bool) {
	for _, v := range s.globalVars {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Len returns the number of loaded matches.
func (s *Snapshot) Len() int {
	return len(s.ordered)
}

// NewSnapshot builds a snapshot directly from in-memory matches and global
// variables, bypassing the file loader. Used by manual loads and tests.
func NewSnapshot(ms []Match, globals []Variable) *Snapshot {
	snap := &Snapshot{byID: make(map[int]*Match, len(ms)), globalVars: globals}
	for i := range ms {
		m := &ms[i]
		snap.ordered = append(snap.ordered, m)
		snap.byID[m.ID] = m
	}
	return snap
}

// Store aggregates match groups into id-indexed snapshots. Reload replaces
// the active snapshot atomically; a failed reload keeps the previous
// snapshot active.
type Store struct {
	mu      sync.RWMutex
	current *Snapshot
}

// NewStore returns a store with an empty snapshot.
func NewStore() *Store {
	return &Store{current: &Snapshot{byID: map[int]*Match{}}}
}

// Snapshot returns the currently active snapshot.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload builds a fresh snapshot from the given definition paths and their
// transitive imports, then swaps it in. The old snapshot stays valid (and
// in use by in-flight events) until the swap.
func (s *Store) Reload(paths []string) (*Snapshot, error) {
	snapshot, err := buildSnapshot(paths)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()

	logging.Store("snapshot reloaded: %d matches, %d global vars", snapshot.Len(), len(snapshot.globalVars))
	return snapshot, nil
}

// buildSnapshot flattens the import closure of the given paths into one
// snapshot. Each file is loaded at most once; import cycles terminate
// through the visited set. Ids are allocated by a session-scoped allocator.
func buildSnapshot(paths []string) (*Snapshot, error) {
	alloc := NewIDAllocator(0)
	visited := make(map[string]bool)

	snapshot := &Snapshot{byID: map[int]*Match{}}

	queue := append([]string(nil), paths...)
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if visited[path] {
			continue
		}
		visited[path] = true

		group, err := LoadGroup(path, alloc)
		if err != nil {
			return nil, err
		}

		for i := range group.Matches {
			m := &group.Matches[i]
			snapshot.ordered = append(snapshot.ordered, m)
			snapshot.byID[m.ID] = m
		}
		snapshot.globalVars = append(snapshot.globalVars, group.GlobalVars...)
		queue = append(queue, group.Imports...)
	}

	return snapshot, nil
}

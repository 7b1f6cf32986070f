package feature

const minCapacity = 16

// Store is an append-only collection of features. Positions are assigned
// in insertion order and stay fixed until Clear.
type Store struct {
	recs   []Feature
	lookup Lookup
	byID   map[int]int // only for LookupMap
	sorted idIndex     // only for LookupSearch

	// OnSort is called right before the id index is (re)built, with the
	// number of records that will be sorted. May be nil.
	OnSort func(n int)
}

// NewStore creates an empty store using the given lookup strategy.
// capacity is a hint for the number of features that will be added.
func NewStore(lookup Lookup, capacity int) *Store {
	if capacity < minCapacity {
		capacity = minCapacity
	}
	s := &Store{
		recs:   make([]Feature, 0, capacity),
		lookup: lookup,
	}
	if lookup == LookupMap {
		s.byID = make(map[int]int, capacity)
	}
	return s
}

// Lookup returns the id lookup strategy of the store
func (s *Store) Lookup() Lookup {
	return s.lookup
}

// Count returns the number of features in the store
func (s *Store) Count() int {
	return len(s.recs)
}

// Add appends a feature. It returns false, and leaves the store
// unchanged, if a feature with the same id is already present.
func (s *Store) Add(id int, name string, mass float64, net float32) bool {
	if s.exists(id) {
		return false
	}
	if len(s.recs) == cap(s.recs) {
		s.grow()
	}
	s.recs = append(s.recs, Feature{ID: id, Name: name, Mass: mass, NET: net})
	if s.byID != nil {
		s.byID[id] = len(s.recs) - 1
	}
	return true
}

// grow doubles the capacity of the backing slice
func (s *Store) grow() {
	newCap := 2 * cap(s.recs)
	if newCap < minCapacity {
		newCap = minCapacity
	}
	recs := make([]Feature, len(s.recs), newCap)
	copy(recs, s.recs)
	s.recs = recs
}

// exists is the duplicate check of Add. Unlike position it does not
// force a full sort of the id index.
func (s *Store) exists(id int) bool {
	if s.lookup == LookupMap {
		_, ok := s.byID[id]
		return ok
	}
	return s.sorted.find(s.recs, id, s.OnSort) >= 0
}

// Contains reports whether a feature with the given id is present
func (s *Store) Contains(id int) bool {
	return s.position(id) >= 0
}

// ByID returns the feature with the given id
func (s *Store) ByID(id int) (Feature, bool) {
	pos := s.position(id)
	if pos < 0 {
		return Feature{}, false
	}
	return s.recs[pos], true
}

// PositionOf returns the store position of the feature with the given id,
// or -1 if it is not present.
func (s *Store) PositionOf(id int) int {
	return s.position(id)
}

func (s *Store) position(id int) int {
	if len(s.recs) == 0 {
		return -1
	}
	if s.lookup == LookupMap {
		pos, ok := s.byID[id]
		if !ok {
			return -1
		}
		return pos
	}
	s.sorted.ensure(s.recs, s.OnSort)
	return s.sorted.search(s.recs, id)
}

// ByPosition returns the feature at position pos
func (s *Store) ByPosition(pos int) (Feature, bool) {
	if pos < 0 || pos >= len(s.recs) {
		return Feature{}, false
	}
	return s.recs[pos], true
}

// MassSlice returns the masses of the features in positions [start, end).
// The range is clamped to the valid positions; an empty or inverted range
// results in an empty slice.
func (s *Store) MassSlice(start, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(s.recs) {
		end = len(s.recs)
	}
	if start >= end {
		return []float64{}
	}
	masses := make([]float64, end-start)
	for i := start; i < end; i++ {
		masses[i-start] = s.recs[i].Mass
	}
	return masses
}

// Clear removes all features but keeps the allocated capacity
func (s *Store) Clear() {
	s.recs = s.recs[:0]
	if s.byID != nil {
		clear(s.byID)
	}
	s.sorted.reset()
}

// Sorts returns how many times the id index has been rebuilt
func (s *Store) Sorts() int {
	return s.sorted.rebuilt
}

// Package massindex implements a sorted index over the masses of a
// feature store, for fast "all masses within a window" queries.
package massindex

import (
	"errors"
	"sort"
)

// BlockSize is the number of masses that is fetched from the source
// store at once while building the index
const BlockSize = 50000

var (
	ErrEmptyIndex = errors.New("massindex: index is empty")
	ErrNoMatch    = errors.New("massindex: no mass within tolerance")
)

// MassSource is the part of a feature store that the index is built from
type MassSource interface {
	Count() int
	MassSlice(start, end int) []float64
}

// Index holds the masses of a store in ascending order, together with the
// store position each mass came from.
type Index struct {
	masses []float64
	origin []int
}

// Build creates an index over all masses in src
func Build(src MassSource) *Index {
	x := &Index{}
	x.Rebuild(src)
	return x
}

// Rebuild discards the current content and loads all masses of src
func (x *Index) Rebuild(src MassSource) {
	n := src.Count()
	masses := make([]float64, 0, n)
	for start := 0; start < n; start += BlockSize {
		masses = append(masses, src.MassSlice(start, start+BlockSize)...)
	}
	x.finalize(masses)
}

// finalize sorts the loaded masses. Equal masses keep their store order.
func (x *Index) finalize(masses []float64) {
	origin := make([]int, len(masses))
	for i := range origin {
		origin[i] = i
	}
	sort.SliceStable(origin, func(i, j int) bool {
		return masses[origin[i]] < masses[origin[j]]
	})
	x.masses = make([]float64, len(masses))
	for i, o := range origin {
		x.masses[i] = masses[o]
	}
	x.origin = origin
}

// Count returns the number of masses in the index
func (x *Index) Count() int {
	if x == nil {
		return 0
	}
	return len(x.masses)
}

// FindRange returns the first and last index position (inclusive) of the
// masses within [center-halfWidth, center+halfWidth].
func (x *Index) FindRange(center, halfWidth float64) (int, int, error) {
	if x.Count() == 0 {
		return 0, -1, ErrEmptyIndex
	}
	lo := center - halfWidth
	hi := center + halfWidth
	i1 := sort.Search(len(x.masses), func(i int) bool { return x.masses[i] >= lo })
	i2 := sort.Search(len(x.masses), func(i int) bool { return x.masses[i] > hi })
	if i1 >= i2 {
		return 0, -1, ErrNoMatch
	}
	return i1, i2 - 1, nil
}

// OriginalIndex converts an index position into the position of the mass
// in the store the index was built from
func (x *Index) OriginalIndex(i int) (int, bool) {
	if i < 0 || i >= x.Count() {
		return -1, false
	}
	return x.origin[i], true
}

// Mass returns the mass at index position i
func (x *Index) Mass(i int) (float64, bool) {
	if i < 0 || i >= x.Count() {
		return 0, false
	}
	return x.masses[i], true
}

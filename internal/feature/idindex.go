package feature

import "sort"

// Adding features with LookupSearch scans the unsorted tail for duplicate
// ids; once the tail is longer than this, it is merged into the index first.
const maxUnsortedTail = 4096

// idIndex is a permutation of store positions ordered by feature id.
// The backing records are never reordered. order covers the first
// len(order) records; records added later form an unsorted tail and make
// the index invalid until the next rebuild.
type idIndex struct {
	order   []int
	scratch []int
	rebuilt int // number of rebuilds, used by tests
}

func (x *idIndex) valid(recs []Feature) bool {
	return len(x.order) == len(recs)
}

func (x *idIndex) reset() {
	x.order = x.order[:0]
}

// ensure merges the unsorted tail into the index if there is one.
// onSort, if set, is called just before sorting.
func (x *idIndex) ensure(recs []Feature, onSort func(n int)) {
	if x.valid(recs) {
		return
	}
	if onSort != nil {
		onSort(len(recs))
	}
	n := len(x.order)
	tail := make([]int, len(recs)-n)
	for i := range tail {
		tail[i] = n + i
	}
	sort.SliceStable(tail, func(i, j int) bool {
		return recs[tail[i]].ID < recs[tail[j]].ID
	})

	merged := x.scratch[:0]
	i, j := 0, 0
	for i < len(x.order) && j < len(tail) {
		if recs[tail[j]].ID < recs[x.order[i]].ID {
			merged = append(merged, tail[j])
			j++
		} else {
			merged = append(merged, x.order[i])
			i++
		}
	}
	merged = append(merged, x.order[i:]...)
	merged = append(merged, tail[j:]...)
	x.scratch = x.order
	x.order = merged
	x.rebuilt++
}

// search returns the position of the record with the given id in the
// sorted part of the index, or -1 if not present.
func (x *idIndex) search(recs []Feature, id int) int {
	n := len(x.order)
	i := sort.Search(n, func(i int) bool { return recs[x.order[i]].ID >= id })
	if i < n && recs[x.order[i]].ID == id {
		return x.order[i]
	}
	return -1
}

// find looks up id without requiring a valid index: the sorted part is
// searched, the unsorted tail is scanned.
func (x *idIndex) find(recs []Feature, id int, onSort func(n int)) int {
	if len(recs)-len(x.order) > maxUnsortedTail {
		x.ensure(recs, onSort)
	}
	if pos := x.search(recs, id); pos >= 0 {
		return pos
	}
	for pos := len(x.order); pos < len(recs); pos++ {
		if recs[pos].ID == id {
			return pos
		}
	}
	return -1
}

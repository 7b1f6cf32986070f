package match

import (
	"sort"
	"sync"
	"time"
)

// Result is one scored correspondence between a feature to identify and a
// comparison feature
type Result struct {
	MatchingID    int     `json:"matchingID" msgpack:"matchingID"` // id of the comparison feature
	SLiCScore     float64 `json:"slicScore" msgpack:"slicScore"`
	DelSLiC       float64 `json:"delSLiC" msgpack:"delSLiC"`
	MassErr       float64 `json:"massErr" msgpack:"massErr"` // Da, feature minus comparison
	NETErr        float64 `json:"netErr" msgpack:"netErr"`   // feature minus comparison
	MultiHitCount int     `json:"multiHitCount" msgpack:"multiHitCount"`
}

type entry struct {
	featureID int
	seq       int // append order
	res       Result
}

// RunStats describes how a matching run went
type RunStats struct {
	Features  int           // features to identify
	Processed int           // features processed before completion or cancellation
	Matched   int           // features with at least one stored result
	Stored    int           // stored results
	Elapsed   time.Duration // wall clock time of the run
	Completed bool          // false if the run was cancelled
}

// ResultStore collects (feature id, Result) pairs. Appends are safe for
// concurrent use. The pairs are sorted by feature id and matching id the
// first time they are read after an append.
type ResultStore struct {
	mu      sync.Mutex
	entries []entry
	next    int
	sorted  bool
	sorts   int
	stats   RunStats
}

// NewResultStore returns an empty result store
func NewResultStore() *ResultStore {
	return &ResultStore{sorted: true}
}

// Append adds results for featureID
func (s *ResultStore) Append(featureID int, results ...Result) {
	if len(results) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		s.entries = append(s.entries, entry{featureID: featureID, seq: s.next, res: r})
		s.next++
	}
	s.sorted = false
}

// Count returns the number of stored results
func (s *ResultStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear removes all results
func (s *ResultStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
	s.next = 0
	s.sorted = true
	s.stats = RunStats{}
}

// ensureSorted must be called with s.mu held
func (s *ResultStore) ensureSorted() {
	if s.sorted {
		return
	}
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if a.featureID != b.featureID {
			return a.featureID < b.featureID
		}
		return a.res.MatchingID < b.res.MatchingID
	})
	s.sorted = true
	s.sorts++
}

// Matches returns all results for featureID, best SLiC score first. Equal
// scores keep the order in which they were appended. The result is a copy.
func (s *ResultStore) Matches(featureID int) []Result {
	s.mu.Lock()
	first, last := s.run(featureID)
	var run []entry
	if first <= last {
		run = append(run, s.entries[first:last+1]...)
	}
	s.mu.Unlock()

	sort.Slice(run, func(i, j int) bool {
		if run[i].res.SLiCScore != run[j].res.SLiCScore {
			return run[i].res.SLiCScore > run[j].res.SLiCScore
		}
		return run[i].seq < run[j].seq
	})
	out := make([]Result, len(run))
	for i, e := range run {
		out[i] = e.res
	}
	return out
}

// run returns the inclusive range of entries for featureID, first > last
// if there are none. Must be called with s.mu held.
func (s *ResultStore) run(featureID int) (int, int) {
	s.ensureSorted()
	n := len(s.entries)
	i := sort.Search(n, func(i int) bool { return s.entries[i].featureID >= featureID })
	if i >= n || s.entries[i].featureID != featureID {
		return 0, -1
	}
	j := i
	for j+1 < n && s.entries[j+1].featureID == featureID {
		j++
	}
	return i, j
}

// FeatureIDs returns the distinct feature ids that have results, ascending
func (s *ResultStore) FeatureIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureSorted()
	var ids []int
	for i, e := range s.entries {
		if i == 0 || e.featureID != s.entries[i-1].featureID {
			ids = append(ids, e.featureID)
		}
	}
	return ids
}

// FeatureCount returns the number of distinct feature ids with results
func (s *ResultStore) FeatureCount() int {
	return len(s.FeatureIDs())
}

// Each calls fn for every stored result in (feature id, matching id)
// order until fn returns false. fn must not modify the store.
func (s *ResultStore) Each(fn func(featureID int, r Result) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureSorted()
	for _, e := range s.entries {
		if !fn(e.featureID, e.res) {
			return
		}
	}
}

// Stats returns the statistics of the run that filled the store
func (s *ResultStore) Stats() RunStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *ResultStore) setStats(st RunStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = st
}

// Sorts returns how often the store has been sorted
func (s *ResultStore) Sorts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorts
}

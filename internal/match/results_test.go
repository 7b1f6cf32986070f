package match

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestResultStoreRangeRetrieval(t *testing.T) {
	s := NewResultStore()
	s.Append(20, Result{MatchingID: 5, SLiCScore: 0.2}, Result{MatchingID: 1, SLiCScore: 0.8})
	s.Append(10, Result{MatchingID: 9, SLiCScore: 1})
	s.Append(20, Result{MatchingID: 3, SLiCScore: 0.8})
	s.Append(30)

	assert.Equal(t, 4, s.Count())
	assert.Equal(t, []int{10, 20}, s.FeatureIDs())

	got := s.Matches(20)
	want := []Result{
		{MatchingID: 1, SLiCScore: 0.8},
		{MatchingID: 3, SLiCScore: 0.8},
		{MatchingID: 5, SLiCScore: 0.2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Matches(20) mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, s.Matches(10), 1)
	assert.Empty(t, s.Matches(15))
	assert.Empty(t, s.Matches(30))
	assert.Empty(t, s.Matches(99))
}

func TestResultStoreTiesKeepAppendOrder(t *testing.T) {
	s := NewResultStore()
	s.Append(1, Result{MatchingID: 8, SLiCScore: 0.5}, Result{MatchingID: 2, SLiCScore: 0.5})
	got := s.Matches(1)
	assert.Equal(t, []int{8, 2}, []int{got[0].MatchingID, got[1].MatchingID})
}

func TestResultStoreEachOrder(t *testing.T) {
	s := NewResultStore()
	s.Append(2, Result{MatchingID: 4})
	s.Append(1, Result{MatchingID: 7}, Result{MatchingID: 6})
	s.Append(2, Result{MatchingID: 3})

	type pair struct{ f, m int }
	var got []pair
	s.Each(func(featureID int, r Result) bool {
		got = append(got, pair{featureID, r.MatchingID})
		return true
	})
	assert.Equal(t, []pair{{1, 6}, {1, 7}, {2, 3}, {2, 4}}, got)

	n := 0
	s.Each(func(int, Result) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)
}

func TestResultStoreLazySort(t *testing.T) {
	s := NewResultStore()
	assert.Empty(t, s.Matches(1))
	assert.Equal(t, 0, s.Sorts())

	s.Append(2, Result{MatchingID: 1})
	s.Append(1, Result{MatchingID: 1})
	assert.Equal(t, 0, s.Sorts())

	s.Matches(1)
	s.FeatureIDs()
	assert.Equal(t, 1, s.Sorts())

	s.Append(3, Result{MatchingID: 1})
	s.Each(func(int, Result) bool { return true })
	assert.Equal(t, 2, s.Sorts())

	s.Clear()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.FeatureIDs())
	assert.Equal(t, 2, s.Sorts())
}

func TestResultStoreConcurrentAppend(t *testing.T) {
	s := NewResultStore()
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				s.Append(g*100+i, Result{MatchingID: i})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, s.Count())
	assert.Len(t, s.FeatureIDs(), 800)
}

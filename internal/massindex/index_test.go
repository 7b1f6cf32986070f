package massindex

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource is a MassSource over a plain slice that records the
// requested blocks
type sliceSource struct {
	masses []float64
	calls  [][2]int
}

func (s *sliceSource) Count() int { return len(s.masses) }

func (s *sliceSource) MassSlice(start, end int) []float64 {
	s.calls = append(s.calls, [2]int{start, end})
	if end > len(s.masses) {
		end = len(s.masses)
	}
	out := make([]float64, end-start)
	copy(out, s.masses[start:end])
	return out
}

func TestFindRange(t *testing.T) {
	src := &sliceSource{masses: []float64{1200.5, 800.25, 1000.0, 1000.0002, 999.9, 1500}}
	x := Build(src)
	require.Equal(t, 6, x.Count())

	first, last, err := x.FindRange(1000.0001, 0.005)
	require.NoError(t, err)
	assert.Equal(t, 2, last-first+1)
	var got []int
	for i := first; i <= last; i++ {
		pos, ok := x.OriginalIndex(i)
		require.True(t, ok)
		got = append(got, pos)
	}
	if diff := cmp.Diff([]int{2, 3}, got); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}

	_, _, err = x.FindRange(2000, 1)
	assert.True(t, errors.Is(err, ErrNoMatch))
	_, _, err = x.FindRange(100, 1)
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestFindRangeInclusiveBounds(t *testing.T) {
	x := Build(&sliceSource{masses: []float64{99, 100, 101, 102}})
	first, last, err := x.FindRange(100.5, 0.5)
	require.NoError(t, err)
	m1, _ := x.Mass(first)
	m2, _ := x.Mass(last)
	assert.Equal(t, 100.0, m1)
	assert.Equal(t, 101.0, m2)
}

func TestEmptyIndex(t *testing.T) {
	x := Build(&sliceSource{})
	_, _, err := x.FindRange(1000, 10)
	assert.True(t, errors.Is(err, ErrEmptyIndex))

	var nilIndex *Index
	assert.Equal(t, 0, nilIndex.Count())
	_, _, err = nilIndex.FindRange(1000, 10)
	assert.True(t, errors.Is(err, ErrEmptyIndex))
}

func TestEqualMassesKeepStoreOrder(t *testing.T) {
	x := Build(&sliceSource{masses: []float64{500, 400, 500, 400, 500}})
	var got []int
	for i := 0; i < x.Count(); i++ {
		pos, _ := x.OriginalIndex(i)
		got = append(got, pos)
	}
	assert.Equal(t, []int{1, 3, 0, 2, 4}, got)
	_, ok := x.OriginalIndex(5)
	assert.False(t, ok)
}

func TestBuildLoadsInBlocks(t *testing.T) {
	n := 2*BlockSize + 17
	src := &sliceSource{masses: make([]float64, n)}
	for i := range src.masses {
		src.masses[i] = float64(n - i)
	}
	x := Build(src)
	assert.Equal(t, n, x.Count())
	assert.Equal(t, [][2]int{{0, BlockSize}, {BlockSize, 2 * BlockSize}, {2 * BlockSize, 3 * BlockSize}}, src.calls)
	m, _ := x.Mass(0)
	assert.Equal(t, 1.0, m)
	pos, _ := x.OriginalIndex(0)
	assert.Equal(t, n-1, pos)

	// Rebuild picks up a changed source
	src.masses = src.masses[:10]
	x.Rebuild(src)
	assert.Equal(t, 10, x.Count())
}

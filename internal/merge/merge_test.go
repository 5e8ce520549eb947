package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

func rng(sr, sc, er, ec int) coord.Range {
	return coord.Range{
		Start: coord.Coordinate{Row: coord.RowIndex(sr), Col: coord.ColIndex(sc)},
		End: coord.Coordinate{Row: coord.RowIndex(er), Col: coord.ColIndex(ec)},
	}
}

func TestMergeAndContains(t *testing.T) {
	ix := New()
	assert.True(t, ix.Merge(rng(1, 1, 1, 3))) // A1:C1

	_, ok := ix.Contains(1, 1)
	assert.True(t, ok)
	_, ok = ix.Contains(1, 2)
	assert.True(t, ok)
	_, ok = ix.Contains(2, 1)
	assert.False(t, ok)
}

func TestReject1x1(t *testing.T) {
	ix := New()
	assert.False(t, ix.Merge(rng(1, 1, 1, 1)))
}

func TestRejectOverlap(t *testing.T) {
	ix := New()
	assert.True(t, ix.Merge(rng(1, 1, 2, 2)))
	assert.False(t, ix.Merge(rng(2, 2, 3, 3)))
}

func TestUnmergeIsMergeInverse(t *testing.T) {
	ix := New()
	ix.Merge(rng(1, 1, 1, 3))
	assert.True(t, ix.Unmerge(1, 2))
	assert.Equal(t, 0, ix.Len())
	_, ok := ix.Contains(1, 1)
	assert.False(t, ok)
}

func TestUnmergeInRange(t *testing.T) {
	ix := New()
	ix.Merge(rng(1, 1, 2, 2))
	ix.Merge(rng(10, 10, 11, 11))
	n := ix.UnmergeInRange(rng(1, 1, 5, 5))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, ix.Len())
}

package cellstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

func c(row, col int) coord.Coordinate {
	return coord.Coordinate{Row: coord.RowIndex(row), Col: coord.ColIndex(col)}
}

func TestSetAndGetValue(t *testing.T) {
	s := New(NewArena(DefaultCeiling))
	require.NoError(t, s.SetRecord(NewNumber(c(1, 1), 3.5)))

	rec, ok := s.Get(c(1, 1))
	require.True(t, ok)
	assert.Equal(t, 3.5, rec.NumberValue())
	assert.True(t, rec.Coord() == c(1, 1))

	_, ok = s.Get(c(2, 2))
	assert.False(t, ok)
}

func TestRemoveIsLogicalUntilCompact(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.SetRecord(NewInteger(c(1, 1), 7)))
	assert.Equal(t, 1, s.Count())
	assert.True(t, s.Remove(c(1, 1)))
	assert.Equal(t, 1, s.Count()) // tombstone still occupies a slot
	assert.Equal(t, 0, s.NonEmptyCount())

	s.Compact()
	assert.Equal(t, 0, s.Count())
}

func TestUsedRangeEmptyStore(t *testing.T) {
	s := New(nil)
	assert.True(t, s.UsedRange().IsInvalid())
}

func TestUsedRangeBounds(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.SetRecord(NewNumber(c(3, 2), 1)))
	require.NoError(t, s.SetRecord(NewNumber(c(1, 5), 1)))
	r := s.UsedRange()
	assert.Equal(t, c(1, 2), r.Start)
	assert.Equal(t, c(3, 5), r.End)
}

func TestTransformShiftsCoordinates(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.SetRecord(NewNumber(c(1, 1), 10)))
	require.NoError(t, s.SetRecord(NewNumber(c(5, 1), 20)))

	// shift every row >= 2 down by one, matching insert_rows(2, 1)
	s.Transform(func(co coord.Coordinate) (coord.Coordinate, bool) {
		if co.Row >= 2 {
			co.Row++
		}
		return co, true
	})

	v1, ok := s.Get(c(1, 1))
	require.True(t, ok)
	assert.Equal(t, 10.0, v1.NumberValue())

	v2, ok := s.Get(c(6, 1))
	require.True(t, ok)
	assert.Equal(t, 20.0, v2.NumberValue())

	// every live record's coord maps back to its own index (invariant #2)
	for co := range map[coord.Coordinate]bool{c(1, 1): true, c(6, 1): true} {
		idx, ok := s.IndexOf(co)
		require.True(t, ok)
		assert.Equal(t, co, s.Records()[idx].Coord())
	}
}

func TestBatchSetValuesPreservesCount(t *testing.T) {
	s := New(nil)
	recs := make([]Record, 0, 1000)
	for i := 1; i <= 1000; i++ {
		recs = append(recs, NewInteger(c(i, 1), int64(i)))
	}
	require.NoError(t, s.SetValues(recs))
	assert.Equal(t, 1000, s.NonEmptyCount())
	for i := 1; i <= 1000; i++ {
		rec, ok := s.Get(c(i, 1))
		require.True(t, ok)
		assert.Equal(t, int64(i), rec.IntegerValue())
	}
}

func TestArenaCeilingRejectsOverflow(t *testing.T) {
	s := New(NewArena(32)) // room for exactly 2 records
	require.NoError(t, s.SetRecord(NewNumber(c(1, 1), 1)))
	require.NoError(t, s.SetRecord(NewNumber(c(1, 2), 1)))
	_, err := s.GetOrCreate(c(1, 3))
	assert.Error(t, err)
}

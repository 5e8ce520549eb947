package xlcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetColumnNumbersAndStats(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	values := []float64{1, 2, 3, 4, 5}
	require.NoError(t, s.SetColumnNumbers(1, 1, values))

	got := s.ColumnNumbers(1, 1, len(values))
	assert.Equal(t, values, got)

	sum := s.SumColumn(1, 1, len(values))
	assert.Equal(t, 15.0, sum)

	stats := s.StatsForColumn(1, 1, len(values))
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, 3.0, stats.Mean)
}

func TestAddImageRejectsGarbageBlob(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	_, _, _, err := s.AddImage("rId1", []byte("not an image"))
	assert.Error(t, err)
}

func TestAddImageDecodesPNGHeader(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	png1x1 := []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53,
		0xde,
	}
	_, w, h, err := s.AddImage("rId1", png1x1)
	require.NoError(t, err)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

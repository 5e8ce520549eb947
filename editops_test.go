package xlcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertRowsShiftsCellsHeightsAndFormulas(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(1, 1), NumberValue(1)))
	require.NoError(t, s.SetCellValue(Cell(5, 1), NumberValue(5)))
	require.True(t, s.SetRowHeight(5, 30))
	require.NoError(t, s.SetCellFormula(Cell(6, 1), "=A5+1"))

	require.NoError(t, s.InsertRows(2, 3))

	v1 := s.GetCellValue(Cell(1, 1))
	assert.Equal(t, 1.0, v1.Num)

	v2 := s.GetCellValue(Cell(8, 1))
	assert.Equal(t, 5.0, v2.Num)
	assert.Equal(t, 30.0, s.rowcols.RowHeight(8))

	formulaText, ok := s.GetCellFormula(Cell(9, 1))
	require.True(t, ok)
	assert.Equal(t, "A8+1", formulaText)
}

func TestDeleteRowsDropsWindowAndShiftsTail(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(2, 1), NumberValue(2)))
	require.NoError(t, s.SetCellValue(Cell(10, 1), NumberValue(10)))

	require.NoError(t, s.DeleteRows(2, 3))

	assert.Equal(t, KindEmpty, s.GetCellValue(Cell(2, 1)).Kind)
	got := s.GetCellValue(Cell(7, 1))
	assert.Equal(t, 10.0, got.Num)
}

func TestInsertColumnsShiftsCells(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(1, 3), StringValue("c3")))
	require.NoError(t, s.InsertColumns(2, 2))

	got := s.GetCellValue(Cell(1, 5))
	assert.Equal(t, "c3", got.Str)
	assert.Equal(t, KindEmpty, s.GetCellValue(Cell(1, 3)).Kind)
}

func TestDeleteColumnsShiftsTail(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(1, 1), NumberValue(1)))
	require.NoError(t, s.SetCellValue(Cell(1, 5), NumberValue(5)))
	require.NoError(t, s.DeleteColumns(2, 2))

	assert.Equal(t, 1.0, s.GetCellValue(Cell(1, 1)).Num)
	assert.Equal(t, 5.0, s.GetCellValue(Cell(1, 3)).Num)
}

func TestRemoveCellAndCompact(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(1, 1), NumberValue(1)))
	require.True(t, s.RemoveCell(Cell(1, 1)))
	assert.False(t, s.RemoveCell(Cell(1, 1)))

	s.Compact()
	assert.Equal(t, KindEmpty, s.GetCellValue(Cell(1, 1)).Kind)
}

func TestRemoveInRange(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(1, 1), NumberValue(1)))
	require.NoError(t, s.SetCellValue(Cell(1, 2), NumberValue(2)))
	require.NoError(t, s.SetCellValue(Cell(5, 5), NumberValue(3)))

	n := s.RemoveInRange(Range{Start: Cell(1, 1), End: Cell(1, 2)})
	assert.Equal(t, 2, n)
	assert.Equal(t, 3.0, s.GetCellValue(Cell(5, 5)).Num)
}

func TestRowColumnHiddenFlags(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	assert.True(t, s.SetRowHidden(3, true))
	assert.True(t, s.IsRowHidden(3))
	assert.True(t, s.SetColumnHidden(2, true))
	assert.True(t, s.IsColumnHidden(2))
}

func TestAutoFitColumnAndRow(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(1, 1), StringValue("a reasonably long piece of text")))
	assert.True(t, s.AutoFitColumn(1, 11))
	assert.Greater(t, s.rowcols.ColumnWidth(1), 8.43)

	assert.True(t, s.AutoFitRow(1, 11, 0))
}

func TestIsMerged(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.MergeCells(Range{Start: Cell(1, 1), End: Cell(2, 2)}))
	assert.True(t, s.IsMerged(Cell(1, 2)))
	assert.False(t, s.IsMerged(Cell(3, 3)))
}

func TestWorkbookDetectCircularReferences(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellFormula(Cell(1, 1), "=A2+1"))
	require.NoError(t, s.SetCellFormula(Cell(2, 1), "=A1+1"))

	cycles := wb.DetectCircularReferences()
	assert.NotEmpty(t, cycles)
}

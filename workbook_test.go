package xlcore

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkbookHasDefaultSheet(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	assert.Equal(t, []string{"Sheet1"}, wb.SheetNames())
	assert.NotNil(t, wb.Sheet("Sheet1"))
}

func TestAddRemoveRenameSheet(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()

	s, err := wb.AddSheet("Data")
	require.NoError(t, err)
	assert.Equal(t, "Data", s.Name())

	_, err = wb.AddSheet("Data")
	assert.ErrorIs(t, err, ErrSheetExists)

	require.NoError(t, wb.RenameSheet("Data", "Data2"))
	assert.Nil(t, wb.Sheet("Data"))
	assert.NotNil(t, wb.Sheet("Data2"))

	require.NoError(t, wb.RemoveSheet("Sheet1"))
	err = wb.RemoveSheet("Data2")
	assert.ErrorIs(t, err, ErrNoSheets)
}

func TestSetGetCellValueRoundTrip(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	cases := []struct {
		name string
		c Coordinate
		v CellValue
	}{
		{"string", Cell(1, 1), StringValue("hello")},
		{"number", Cell(1, 2), NumberValue(3.5)},
		{"integer", Cell(1, 3), IntegerValue(42)},
		{"bool", Cell(1, 4), BoolValue(true)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, s.SetCellValue(tc.c, tc.v))
			got := s.GetCellValue(tc.c)
			assert.Equal(t, tc.v.Kind, got.Kind)
		})
	}

	empty := s.GetCellValue(Cell(50, 50))
	assert.Equal(t, KindEmpty, empty.Kind)
}

func TestSetCellValueRejectsOutOfRangeCoordinate(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	err := s.SetCellValue(Cell(0, 0), NumberValue(1))
	var argErr *ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestFormulaCalculateAllSingleSheet(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(1, 1), NumberValue(2)))
	require.NoError(t, s.SetCellValue(Cell(1, 2), NumberValue(3)))
	require.NoError(t, s.SetCellFormula(Cell(1, 3), "=A1+B1"))

	changed := wb.CalculateAll()
	assert.GreaterOrEqual(t, changed, 1)

	result := s.GetCellValue(Cell(1, 3))
	assert.Equal(t, KindNumber, result.Kind)
	assert.Equal(t, 5.0, result.Num)
}

func TestFormulaResolvesAcrossSheets(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s1 := wb.Sheet("Sheet1")
	s2, err := wb.AddSheet("Sheet2")
	require.NoError(t, err)

	require.NoError(t, s2.SetCellValue(Cell(1, 1), NumberValue(10)))
	require.NoError(t, s1.SetCellFormula(Cell(1, 1), "=Sheet2!A1*2"))

	wb.CalculateAll()
	result := s1.GetCellValue(Cell(1, 1))
	assert.Equal(t, KindNumber, result.Kind)
	assert.Equal(t, 20.0, result.Num)
}

func TestMergeCells(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.MergeCells(Range{Start: Cell(1, 1), End: Cell(1, 3)}))
	err := s.MergeCells(Range{Start: Cell(1, 2), End: Cell(2, 2)})
	assert.Error(t, err)

	assert.True(t, s.UnmergeCells(Cell(1, 1)))
}

func TestSetCellStyleAndOverflow(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellStyle(Cell(1, 1), Style{Font: Font{Name: "Calibri", Size: 11}}))
	h1 := s.CellStyleHandle(Cell(1, 1))

	for i := 0; i < 300; i++ {
		st := Style{Font: Font{Name: "Calibri", Size: float64(i + 1)}}
		require.NoError(t, s.SetCellStyle(Cell(RowIndex(2+i), 1), st))
	}
	last := s.CellStyleHandle(Cell(RowIndex(2+299), 1))
	assert.NotEqual(t, h1, last)
}

func TestProtectUnprotect(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.Protect("secret", 0))
	assert.True(t, s.IsProtected())

	err := s.Unprotect("wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, s.Unprotect("secret"))
	assert.False(t, s.IsProtected())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	wb := NewWorkbook(DefaultWorkbookOptions())
	defer wb.Close()
	s := wb.Sheet("Sheet1")

	require.NoError(t, s.SetCellValue(Cell(1, 1), StringValue("hello")))
	require.NoError(t, s.SetCellValue(Cell(1, 2), NumberValue(1.5)))
	require.NoError(t, s.SetCellFormula(Cell(1, 3), "=B1*2"))
	require.NoError(t, s.MergeCells(Range{Start: Cell(2, 1), End: Cell(2, 3)}))

	var buf bytes.Buffer
	require.NoError(t, wb.Save(&buf, DefaultSaveOptions()))
	assert.Greater(t, buf.Len(), 0)

	loaded, err := Load(bytes.NewReader(buf.Bytes()), int64(buf.Len()), OpenOptions{})
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, []string{"Sheet1"}, loaded.SheetNames())
	ls := loaded.Sheet("Sheet1")
	require.NotNil(t, ls)

	v := ls.GetCellValue(Cell(1, 1))
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "hello", v.Str)

	formulaText, ok := ls.GetCellFormula(Cell(1, 3))
	assert.True(t, ok)
	assert.Equal(t, "B1*2", formulaText)
}

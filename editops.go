package xlcore

import (
	"strconv"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
	"github.com/wuxianggujun/tinaxlsx-go/internal/formula"
	"github.com/wuxianggujun/tinaxlsx-go/internal/rowcol"
)

// InsertRows shifts every row >= pos down by n: the cell store, the row
// height/hidden maps, and every formula (on this sheet or referencing it)
// all move in lockstep so the grid, its metadata, and its formulas stay
// consistent with each other.
func (s *Sheet) InsertRows(pos RowIndex, n int) error {
	s.clearErr()
	if n <= 0 || !coord.RowIndex(pos).Valid() {
		return s.fail(&ArgumentError{Op: "InsertRows", Msg: "invalid row or count"})
	}
	shift := func(c coord.Coordinate) (coord.Coordinate, bool) {
		if c.Row >= coord.RowIndex(pos) {
			c.Row += coord.RowIndex(n)
		}
		return c, true
	}
	s.store.Transform(shift)
	s.rowcols.InsertRows(coord.RowIndex(pos), n)
	s.wb.formulas.ShiftCells(s.name, shift)
	s.wb.formulas.ShiftReferences(s.name, formula.AxisRow, int(pos), n)
	s.wb.touch()
	return nil
}

// DeleteRows discards rows in [pos, pos+n) and shifts rows >= pos+n up by
// n, across the cell store, row metadata, and formulas alike.
func (s *Sheet) DeleteRows(pos RowIndex, n int) error {
	s.clearErr()
	if n <= 0 || !coord.RowIndex(pos).Valid() {
		return s.fail(&ArgumentError{Op: "DeleteRows", Msg: "invalid row or count"})
	}
	end := coord.RowIndex(int(pos) + n)
	shift := func(c coord.Coordinate) (coord.Coordinate, bool) {
		if c.Row >= pos && c.Row < end {
			return c, false
		}
		if c.Row >= end {
			c.Row -= coord.RowIndex(n)
		}
		return c, true
	}
	s.store.Transform(shift)
	s.rowcols.DeleteRows(coord.RowIndex(pos), n)
	s.wb.formulas.ShiftCells(s.name, shift)
	s.wb.formulas.ShiftReferences(s.name, formula.AxisRow, int(pos), -n)
	s.wb.touch()
	return nil
}

// InsertColumns / DeleteColumns are InsertRows/DeleteRows' column-symmetric
// operations.
func (s *Sheet) InsertColumns(pos ColIndex, n int) error {
	s.clearErr()
	if n <= 0 || !coord.ColIndex(pos).Valid() {
		return s.fail(&ArgumentError{Op: "InsertColumns", Msg: "invalid column or count"})
	}
	shift := func(c coord.Coordinate) (coord.Coordinate, bool) {
		if c.Col >= coord.ColIndex(pos) {
			c.Col += coord.ColIndex(n)
		}
		return c, true
	}
	s.store.Transform(shift)
	s.rowcols.InsertColumns(coord.ColIndex(pos), n)
	s.wb.formulas.ShiftCells(s.name, shift)
	s.wb.formulas.ShiftReferences(s.name, formula.AxisCol, int(pos), n)
	s.wb.touch()
	return nil
}

func (s *Sheet) DeleteColumns(pos ColIndex, n int) error {
	s.clearErr()
	if n <= 0 || !coord.ColIndex(pos).Valid() {
		return s.fail(&ArgumentError{Op: "DeleteColumns", Msg: "invalid column or count"})
	}
	end := coord.ColIndex(int(pos) + n)
	shift := func(c coord.Coordinate) (coord.Coordinate, bool) {
		if c.Col >= pos && c.Col < end {
			return c, false
		}
		if c.Col >= end {
			c.Col -= coord.ColIndex(n)
		}
		return c, true
	}
	s.store.Transform(shift)
	s.rowcols.DeleteColumns(coord.ColIndex(pos), n)
	s.wb.formulas.ShiftCells(s.name, shift)
	s.wb.formulas.ShiftReferences(s.name, formula.AxisCol, int(pos), -n)
	s.wb.touch()
	return nil
}

// RemoveCell tombstones the cell at c; physical reclaim happens at the next
// Compact.
func (s *Sheet) RemoveCell(c Coordinate) bool {
	s.clearErr()
	removed := s.store.Remove(coord.Coordinate(c))
	if removed {
		s.wb.formulas.RemoveFormula(s.name, coord.Coordinate(c))
		s.wb.touch()
	}
	return removed
}

// RemoveInRange tombstones every cell contained in r, returning the count
// removed.
func (s *Sheet) RemoveInRange(r Range) int {
	s.clearErr()
	n := s.store.RemoveInRange(coord.Range(r))
	if n > 0 {
		s.wb.touch()
	}
	return n
}

// Compact physically reclaims tombstoned cell-store slots. Idempotent.
func (s *Sheet) Compact() {
	s.store.Compact()
}

// SetRowHidden / IsRowHidden and the column equivalents toggle and query a
// row or column's visibility flag.
func (s *Sheet) SetRowHidden(row RowIndex, hidden bool) bool {
	return s.rowcols.SetRowHidden(coord.RowIndex(row), hidden)
}

func (s *Sheet) IsRowHidden(row RowIndex) bool {
	return s.rowcols.IsRowHidden(coord.RowIndex(row))
}

func (s *Sheet) SetColumnHidden(col ColIndex, hidden bool) bool {
	return s.rowcols.SetColumnHidden(coord.ColIndex(col), hidden)
}

func (s *Sheet) IsColumnHidden(col ColIndex) bool {
	return s.rowcols.IsColumnHidden(coord.ColIndex(col))
}

// AutoFitColumn / AutoFitRow size a column/row from its live cell text,
// using s itself as the rowcol.CellWidthMeasurer.
func (s *Sheet) AutoFitColumn(col ColIndex, fontSize float64) bool {
	return rowcol.AutoFitColumn(s.rowcols, s, coord.ColIndex(col), fontSize)
}

func (s *Sheet) AutoFitRow(row RowIndex, fontSize, lineHeight float64) bool {
	return rowcol.AutoFitRow(s.rowcols, s, coord.RowIndex(row), fontSize, lineHeight)
}

// CellText, MaxUsedRow and MaxUsedColumn implement rowcol.CellWidthMeasurer.
func (s *Sheet) CellText(row coord.RowIndex, col coord.ColIndex) string {
	return cellDisplayText(s.GetCellValue(Coordinate{Row: RowIndex(row), Col: ColIndex(col)}))
}

func (s *Sheet) MaxUsedRow() coord.RowIndex { return s.store.MaxUsedRow() }

func (s *Sheet) MaxUsedColumn() coord.ColIndex { return s.store.MaxUsedColumn() }

// cellDisplayText renders a CellValue the way auto-fit measures it: plain
// text, no number-format applied (that renderer is out of scope).
func cellDisplayText(v CellValue) string {
	switch v.Kind {
		case KindString:
			return v.Str
		case KindNumber:
			return strconv.FormatFloat(v.Num, 'g', -1, 64)
		case KindInteger:
			return strconv.FormatInt(v.Int, 10)
		case KindBoolean:
			if v.Bool {
				return "TRUE"
			}
			return "FALSE"
		case KindError:
			return string(v.ErrCode)
		default:
			return ""
	}
}

// IsMerged reports whether c falls inside any merged region on s.
func (s *Sheet) IsMerged(c Coordinate) bool {
	_, ok := s.merges.Contains(coord.RowIndex(c.Row), coord.ColIndex(c.Col))
	return ok
}

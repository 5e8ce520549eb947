// Package rowcol implements a sparse row/column metadata manager:
// non-default row heights, column widths, hidden flags, and the
// insert/delete shift logic that keeps them anchored to the right row or
// column as the grid is edited.
package rowcol

import (
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

const (
	// DefaultRowHeight and DefaultColWidth are the  defaults.
	DefaultRowHeight = 15.0
	DefaultColWidth = 8.43

	minRowHeight = 0.0
	maxRowHeight = 409.0
	minColWidth = 0.0
	maxColWidth = 255.0

	autoFitMinWidth = 1.0
	autoFitMaxWidth = 255.0
)

// CellWidthMeasurer is implemented by whatever owns the cell store; it
// measures a cell's display text so auto-fit can estimate width without
// rowcol depending on cellstore or the number-format renderer collaborator.
type CellWidthMeasurer interface {
	// CellText returns the display text for (row, col), or "" if empty.
	CellText(row coord.RowIndex, col coord.ColIndex) string
	// MaxUsedRow / MaxUsedColumn bound the scan.
	MaxUsedRow() coord.RowIndex
	MaxUsedColumn() coord.ColIndex
}

// Manager owns the three sparse maps plus the shift operations. It is not
// safe for concurrent mutation, matching the cell store it is always
// mutated alongside.
type Manager struct {
	rowHeight map[coord.RowIndex]float64
	colWidth map[coord.ColIndex]float64
	rowHidden map[coord.RowIndex]bool
	colHidden map[coord.ColIndex]bool
}

// New creates an empty row/column manager.
func New() *Manager {
	return &Manager{
		rowHeight: make(map[coord.RowIndex]float64),
		colWidth: make(map[coord.ColIndex]float64),
		rowHidden: make(map[coord.RowIndex]bool),
		colHidden: make(map[coord.ColIndex]bool),
	}
}

// RowHeight returns the configured height for row, or DefaultRowHeight.
func (m *Manager) RowHeight(row coord.RowIndex) float64 {
	if h, ok := m.rowHeight[row]; ok {
		return h
	}
	return DefaultRowHeight
}

// SetRowHeight validates 0 <= h <= 409.0 ; returns false
// without mutating state on an invalid row or height.
func (m *Manager) SetRowHeight(row coord.RowIndex, h float64) bool {
	if !row.Valid() || h < minRowHeight || h > maxRowHeight {
		return false
	}
	m.rowHeight[row] = h
	return true
}

// ColumnWidth returns the configured width for col, or DefaultColWidth.
func (m *Manager) ColumnWidth(col coord.ColIndex) float64 {
	if w, ok := m.colWidth[col]; ok {
		return w
	}
	return DefaultColWidth
}

// SetColumnWidth validates 0 <= w <= 255.0.
func (m *Manager) SetColumnWidth(col coord.ColIndex, w float64) bool {
	if !col.Valid() || w < minColWidth || w > maxColWidth {
		return false
	}
	m.colWidth[col] = w
	return true
}

// SetRowHidden / IsRowHidden and the column equivalents.
func (m *Manager) SetRowHidden(row coord.RowIndex, hidden bool) bool {
	if !row.Valid() {
		return false
	}
	if hidden {
		m.rowHidden[row] = true
	} else {
		delete(m.rowHidden, row)
	}
	return true
}

func (m *Manager) IsRowHidden(row coord.RowIndex) bool { return m.rowHidden[row] }

func (m *Manager) SetColumnHidden(col coord.ColIndex, hidden bool) bool {
	if !col.Valid() {
		return false
	}
	if hidden {
		m.colHidden[col] = true
	} else {
		delete(m.colHidden, col)
	}
	return true
}

func (m *Manager) IsColumnHidden(col coord.ColIndex) bool { return m.colHidden[col] }

// shiftRowMap rebuilds a row-keyed map, applying shift to every key >= pos by
// delta, and dropping keys in the deleted window (for delete, window is
// non-empty; for insert, window is empty so nothing is dropped).
func shiftRowMap(in map[coord.RowIndex]float64, pos coord.RowIndex, delta int, dropFrom, dropTo coord.RowIndex) map[coord.RowIndex]float64 {
	out := make(map[coord.RowIndex]float64, len(in))
	for k, v := range in {
		if dropTo > dropFrom && k >= dropFrom && k < dropTo {
			continue
		}
		if k >= pos {
			k = coord.RowIndex(int(k) + delta)
		}
		out[k] = v
	}
	return out
}

func shiftRowBoolMap(in map[coord.RowIndex]bool, pos coord.RowIndex, delta int, dropFrom, dropTo coord.RowIndex) map[coord.RowIndex]bool {
	out := make(map[coord.RowIndex]bool, len(in))
	for k, v := range in {
		if dropTo > dropFrom && k >= dropFrom && k < dropTo {
			continue
		}
		if k >= pos {
			k = coord.RowIndex(int(k) + delta)
		}
		out[k] = v
	}
	return out
}

func shiftColMap(in map[coord.ColIndex]float64, pos coord.ColIndex, delta int, dropFrom, dropTo coord.ColIndex) map[coord.ColIndex]float64 {
	out := make(map[coord.ColIndex]float64, len(in))
	for k, v := range in {
		if dropTo > dropFrom && k >= dropFrom && k < dropTo {
			continue
		}
		if k >= pos {
			k = coord.ColIndex(int(k) + delta)
		}
		out[k] = v
	}
	return out
}

func shiftColBoolMap(in map[coord.ColIndex]bool, pos coord.ColIndex, delta int, dropFrom, dropTo coord.ColIndex) map[coord.ColIndex]bool {
	out := make(map[coord.ColIndex]bool, len(in))
	for k, v := range in {
		if dropTo > dropFrom && k >= dropFrom && k < dropTo {
			continue
		}
		if k >= pos {
			k = coord.ColIndex(int(k) + delta)
		}
		out[k] = v
	}
	return out
}

// InsertRows shifts every row >= pos down by n.
// The caller is responsible for shifting the cell store via its own
// Transform using the same (pos, n); rowcol only owns the height/hidden
// maps.
func (m *Manager) InsertRows(pos coord.RowIndex, n int) bool {
	if !pos.Valid() || n <= 0 {
		return false
	}
	m.rowHeight = shiftRowMap(m.rowHeight, pos, n, 0, 0)
	m.rowHidden = shiftRowBoolMap(m.rowHidden, pos, n, 0, 0)
	return true
}

// DeleteRows discards rows in [pos, pos+n) and shifts rows >= pos+n up by n.
func (m *Manager) DeleteRows(pos coord.RowIndex, n int) bool {
	if !pos.Valid() || n <= 0 {
		return false
	}
	end := coord.RowIndex(int(pos) + n)
	m.rowHeight = shiftRowMap(m.rowHeight, end, -n, pos, end)
	m.rowHidden = shiftRowBoolMap(m.rowHidden, end, -n, pos, end)
	return true
}

// InsertColumns / DeleteColumns are the column-symmetric operations.
func (m *Manager) InsertColumns(pos coord.ColIndex, n int) bool {
	if !pos.Valid() || n <= 0 {
		return false
	}
	m.colWidth = shiftColMap(m.colWidth, pos, n, 0, 0)
	m.colHidden = shiftColBoolMap(m.colHidden, pos, n, 0, 0)
	return true
}

func (m *Manager) DeleteColumns(pos coord.ColIndex, n int) bool {
	if !pos.Valid() || n <= 0 {
		return false
	}
	end := coord.ColIndex(int(pos) + n)
	m.colWidth = shiftColMap(m.colWidth, end, -n, pos, end)
	m.colHidden = shiftColBoolMap(m.colHidden, end, -n, pos, end)
	return true
}

// AutoFitColumn iterates live cells in col (via measurer), estimates each
// cell's display width with the plain approximation from 
// (char_count * font_size * 0.6 / 7), and clamps to [min, max], defaulting
// to [1.0, 255.0]. fontSize defaults to 11 (Excel's Calibri 11 default) when
// 0 is passed.
func AutoFitColumn(m *Manager, measurer CellWidthMeasurer, col coord.ColIndex, fontSize float64) bool {
	if !col.Valid() {
		return false
	}
	if fontSize <= 0 {
		fontSize = 11
	}
	maxWidth := autoFitMinWidth
	for row := coord.RowIndex(1); row <= measurer.MaxUsedRow(); row++ {
		text := measurer.CellText(row, col)
		if text == "" {
			continue
		}
		w := float64(len([]rune(text))) * fontSize * 0.6 / 7.0
		if w > maxWidth {
			maxWidth = w
		}
	}
	if maxWidth < autoFitMinWidth {
		maxWidth = autoFitMinWidth
	}
	if maxWidth > autoFitMaxWidth {
		maxWidth = autoFitMaxWidth
	}
	return m.SetColumnWidth(col, maxWidth)
}

// AutoFitRow estimates row height from the widest cell's wrapped line
// count, approximated as text-width / column-width.
func AutoFitRow(m *Manager, measurer CellWidthMeasurer, row coord.RowIndex, fontSize, lineHeight float64) bool {
	if !row.Valid() {
		return false
	}
	if fontSize <= 0 {
		fontSize = 11
	}
	if lineHeight <= 0 {
		lineHeight = DefaultRowHeight
	}
	maxLines := 1.0
	for col := coord.ColIndex(1); col <= measurer.MaxUsedColumn(); col++ {
		text := measurer.CellText(row, col)
		if text == "" {
			continue
		}
		width := float64(len([]rune(text))) * fontSize * 0.6 / 7.0
		colWidth := m.ColumnWidth(col)
		if colWidth <= 0 {
			colWidth = DefaultColWidth
		}
		lines := width / colWidth
		if lines > maxLines {
			maxLines = lines
		}
	}
	h := maxLines * lineHeight
	if h > maxRowHeight {
		h = maxRowHeight
	}
	return m.SetRowHeight(row, h)
}

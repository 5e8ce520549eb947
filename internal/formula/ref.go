package formula

import (
	"strings"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// Reference is a parsed formula reference: either a single cell or a range,
// optionally qualified with a sheet name.
type Reference struct {
	Sheet string // "" means "same sheet as the formula"
	IsRange bool
	Cell coord.Coordinate
	RangeRef coord.Range
	// RowAbsolute/ColAbsolute record whether each half was '$'-anchored;
	// carried for completeness (future relative-copy support) even though
	// the dependency graph itself only needs the resolved coordinates.
	RowAbsolute, ColAbsolute bool
}

// Cells expands the reference to every coordinate it touches: one cell for
// a single reference, every cell in the rectangle for a range.
func (r Reference) Cells() []coord.Coordinate {
	if !r.IsRange {
		return []coord.Coordinate{r.Cell}
	}
	var out []coord.Coordinate
	for row := r.RangeRef.Start.Row; row <= r.RangeRef.End.Row; row++ {
		for col := r.RangeRef.Start.Col; col <= r.RangeRef.End.Col; col++ {
			out = append(out, coord.Coordinate{Row: row, Col: col})
		}
	}
	return out
}

// parseOneCell parses a single "$A$1"-style token, returning the
// coordinate plus which halves were absolute.
func parseOneCell(tok string) (c coord.Coordinate, rowAbs, colAbs bool, ok bool) {
	i := 0
	if i < len(tok) && tok[i] == '$' {
		colAbs = true
		i++
	}
	start := i
	for i < len(tok) && tok[i] >= 'A' && tok[i] <= 'Z' {
		i++
	}
	if i == start {
		return coord.Coordinate{}, false, false, false
	}
	colStr := tok[start:i]
	if i < len(tok) && tok[i] == '$' {
		rowAbs = true
		i++
	}
	rowStart := i
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == rowStart || i != len(tok) {
		return coord.Coordinate{}, false, false, false
	}
	col, err := coord.ColumnIndex(colStr)
	if err != nil {
		return coord.Coordinate{}, false, false, false
	}
	row := 0
	for _, r := range tok[rowStart:i] {
		row = row*10 + int(r-'0')
	}
	if row < 1 || row > coord.MaxRow {
		return coord.Coordinate{}, false, false, false
	}
	return coord.Coordinate{Row: coord.RowIndex(row), Col: col}, rowAbs, colAbs, true
}

// ParseReference parses one formula reference token, which may carry a
// "Sheet!" prefix and/or a ":" range separator.
func ParseReference(token string) (Reference, bool) {
	sheet := ""
	rest := token
	if idx := strings.LastIndex(token, "!"); idx >= 0 {
		sheet = strings.Trim(token[:idx], "'")
		rest = token[idx+1:]
	}
	parts := strings.SplitN(rest, ":", 2)
	first, rowAbs1, colAbs1, ok := parseOneCell(parts[0])
	if !ok {
		return Reference{}, false
	}
	if len(parts) == 1 {
		return Reference{Sheet: sheet, Cell: first, RowAbsolute: rowAbs1, ColAbsolute: colAbs1}, true
	}
	second, _, _, ok2 := parseOneCell(parts[1])
	if !ok2 {
		return Reference{}, false
	}
	return Reference{
		Sheet: sheet,
		IsRange: true,
		RangeRef: coord.Normalize(first, second),
	}, true
}

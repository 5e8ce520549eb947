package xlcore

import "github.com/wuxianggujun/tinaxlsx-go/internal/coord"

// FormatRange renders a Range as an "A1:C5" address.
func FormatRange(r Range) string { return coord.FormatRangeRef(coord.Range(r)) }

// ParseRangeRef parses an "A1:C5" or bare "A1" address into a Range.
func ParseRangeRef(s string) (Range, error) {
	r, err := coord.ParseRangeRef(s)
	if err != nil {
		return Range{}, &ArgumentError{Op: "ParseRangeRef", Msg: err.Error()}
	}
	return Range(r), nil
}

// ParseCellRef parses an A1 address such as "B7" into a Coordinate.
func ParseCellRef(s string) (Coordinate, error) {
	c, err := coord.ParseCellName(s)
	if err != nil {
		return Coordinate{}, &ArgumentError{Op: "ParseCellRef", Msg: err.Error()}
	}
	return Coordinate(c), nil
}

// CellName formats a Coordinate as an A1 address.
func CellName(c Coordinate) string { return coord.CellName(coord.Coordinate(c)) }

package xlcore

import (
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
	"github.com/wuxianggujun/tinaxlsx-go/internal/formula"
	"github.com/wuxianggujun/tinaxlsx-go/internal/style"
)

// Style is the public (font, fill, border, alignment, number-format)
// tuple, re-exported directly from internal/style so callers never
// construct cellstore records or style handles by hand. Font, Fill, Border, Alignment and BorderLine are re-exported the
// same way.
type Style = style.Style
type Font = style.Font
type Fill = style.Fill
type Border = style.Border
type BorderLine = style.BorderLine
type Alignment = style.Alignment

// RowIndex, ColIndex, Coordinate and Range are re-exported as aliases of
// internal/coord's grid primitives, so callers never need to import an
// internal package to address a cell; they are the same types, so no
// conversion is needed between the two.
type RowIndex = coord.RowIndex
type ColIndex = coord.ColIndex
type Coordinate = coord.Coordinate
type Range = coord.Range

// Cell addresses a coordinate from a row/column pair.
func Cell(row RowIndex, col ColIndex) Coordinate { return Coordinate{Row: row, Col: col} }

// ValueKind tags a CellValue the way internal/formula.Kind tags a formula
// evaluation result; kept as a distinct type so the public API does not
// leak an internal package's exported names directly.
type ValueKind uint8

const (
	KindEmpty ValueKind = iota
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindError
)

// CellValue is the public, typed view of one cell's content, independent
// of the 16-byte on-disk record cellstore.Record uses internally.
type CellValue struct {
	Kind ValueKind
	Str string
	Num float64
	Int int64
	Bool bool
	ErrCode formula.ErrorSentinel
}

func EmptyValue() CellValue { return CellValue{Kind: KindEmpty} }
func StringValue(s string) CellValue { return CellValue{Kind: KindString, Str: s} }
func NumberValue(n float64) CellValue { return CellValue{Kind: KindNumber, Num: n} }
func IntegerValue(n int64) CellValue { return CellValue{Kind: KindInteger, Int: n} }
func BoolValue(b bool) CellValue { return CellValue{Kind: KindBoolean, Bool: b} }
func ErrorValue(e formula.ErrorSentinel) CellValue {
	return CellValue{Kind: KindError, ErrCode: e}
}

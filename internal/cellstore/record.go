// Package cellstore implements the 16-byte tagged-union cell record and the
// per-worksheet cell store built on top of it. It is the single authority
// for cell existence within one worksheet.
package cellstore

import (
	"encoding/binary"
	"math"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// Type is the cell-record type tag.
type Type uint8

const (
	TypeEmpty Type = iota
	TypeString
	TypeNumber
	TypeInteger
	TypeBoolean
	TypeFormula
	TypeError
	typeReserved
)

// Flag bits recorded alongside the type tag.
type Flag uint8

const (
	FlagHasStyle Flag = 1 << iota
	FlagIsFormula
	FlagIsMerged
	FlagIsLocked
)

// Record is one cell, packed into exactly 16 bytes: an 8-bit type tag and a
// 15-byte payload whose layout is fixed regardless of Type:
//
// byte 0: Type
// byte 1: style handle (255 means "look in extended data")
// byte 2: Flag bits
// bytes 3-5: row, 24-bit little-endian
// bytes 6-7: column, 16-bit little-endian
// bytes 8-15: an 8-byte value slot, reinterpreted per Type below
//
// Value-slot interpretation: Number stores math.Float64bits, Integer stores
// a two's-complement uint64, Boolean uses the low bit of byte 8, String
// stores a uint32 string-pool offset in bytes 8-11 (the pool itself knows
// each string's length), Error stores an error-sentinel code in byte 8, and
// Formula leaves the slot unused. Record being a plain [16]byte means the
// compiler guarantees its size; every field above is reached only through
// the typed accessors below, never raw indexing from outside this file.
//
// A style handle that overflows the inline byte (the 255th+ distinct
// style) is addressed by coordinate through the owning Store rather than an
// offset carried in the record itself. Keeping Record fixed at 16 bytes
// leaves no room for a fourth pointer-sized field alongside the value slot.
type Record [16]byte

const (
	offType  = 0
	offStyle = 1
	offFlags = 2
	offRow   = 3
	offCol   = 6
	offValue = 8
)

// StyleOverflow is the StyleHandle sentinel meaning "look in extended data".
const StyleOverflow uint8 = 255

func newRecord(typ Type, c coord.Coordinate) Record {
	var r Record
	r[offType] = uint8(typ)
	r.SetCoord(c)
	return r
}

// NewEmpty returns a tombstone-eligible empty record placed at c.
func NewEmpty(c coord.Coordinate) Record {
	return newRecord(TypeEmpty, c)
}

// NewNumber returns a Number record.
func NewNumber(c coord.Coordinate, v float64) Record {
	r := newRecord(TypeNumber, c)
	r.setValueUint64(math.Float64bits(v))
	return r
}

// NewInteger returns an Integer record.
func NewInteger(c coord.Coordinate, v int64) Record {
	r := newRecord(TypeInteger, c)
	r.setValueUint64(uint64(v))
	return r
}

// NewBoolean returns a Boolean record.
func NewBoolean(c coord.Coordinate, v bool) Record {
	r := newRecord(TypeBoolean, c)
	if v {
		r[offValue] = 1
	}
	return r
}

// NewString returns a String record referencing an interned string handle
// in the owning workbook's string pool; the pool resolves the handle back
// to its bytes and length together, so the record only needs the offset.
func NewString(c coord.Coordinate, offset uint32) Record {
	r := newRecord(TypeString, c)
	binary.LittleEndian.PutUint32(r[offValue:offValue+4], offset)
	return r
}

// NewError returns an Error-sentinel record; payload encodes which of the
// fixed error sentinels (#DIV/0!, #NAME?,...) applies, see internal/formula.
func NewError(c coord.Coordinate, code uint8) Record {
	r := newRecord(TypeError, c)
	r[offValue] = code
	return r
}

// NewFormulaPlaceholder returns a Formula-tagged record for c. The formula
// text itself lives in internal/formula.Manager, keyed by sheet+coord, not
// in this record. The record only marks the cell as formula-bearing so
// the XML writer knows to ask the formula manager for the <f> body.
func NewFormulaPlaceholder(c coord.Coordinate) Record {
	r := newRecord(TypeFormula, c)
	r.SetFlags(FlagIsFormula)
	return r
}

// Type returns the record's type tag.
func (r Record) Type() Type { return Type(r[offType]) }

// SetType overwrites the type tag in place.
func (r *Record) SetType(t Type) { r[offType] = uint8(t) }

// Coord decodes the packed (row, col) pair.
func (r Record) Coord() coord.Coordinate {
	row := uint32(r[offRow]) | uint32(r[offRow+1])<<8 | uint32(r[offRow+2])<<16
	col := binary.LittleEndian.Uint16(r[offCol : offCol+2])
	return coord.Coordinate{Row: coord.RowIndex(row), Col: coord.ColIndex(col)}
}

// SetCoord packs c into the record in place. Row fits in 24 bits and Col in
// 16, both with room to spare over coord.MaxRow/MaxCol.
func (r *Record) SetCoord(c coord.Coordinate) {
	row := uint32(c.Row)
	r[offRow] = byte(row)
	r[offRow+1] = byte(row >> 8)
	r[offRow+2] = byte(row >> 16)
	binary.LittleEndian.PutUint16(r[offCol:offCol+2], uint16(c.Col))
}

// StyleHandle returns the inline style handle; StyleOverflow means the
// effective handle lives in the extended-data pool instead.
func (r Record) StyleHandle() uint8 { return r[offStyle] }

// SetStyleHandle overwrites the inline style handle in place.
func (r *Record) SetStyleHandle(h uint8) { r[offStyle] = h }

// Flags returns the record's flag bits.
func (r Record) Flags() Flag { return Flag(r[offFlags]) }

// SetFlags overwrites the flag bits in place.
func (r *Record) SetFlags(f Flag) { r[offFlags] = uint8(f) }

// HasFlag reports whether flag is set.
func (r Record) HasFlag(flag Flag) bool { return r.Flags()&flag != 0 }

// WithFlag returns a copy of r with flag set or cleared.
func (r Record) WithFlag(flag Flag, on bool) Record {
	if on {
		r[offFlags] |= uint8(flag)
	} else {
		r[offFlags] &^= uint8(flag)
	}
	return r
}

func (r Record) valueUint64() uint64 {
	return binary.LittleEndian.Uint64(r[offValue : offValue+8])
}

func (r *Record) setValueUint64(v uint64) {
	binary.LittleEndian.PutUint64(r[offValue:offValue+8], v)
}

// IsEmpty reports whether r is a tombstone / never-set cell.
func (r Record) IsEmpty() bool { return r.Type() == TypeEmpty }

// NumberValue returns the Number payload, or 0 if r is not a Number
// (type-mismatched getters return a type-specific default, never an error).
func (r Record) NumberValue() float64 {
	if r.Type() != TypeNumber {
		return 0
	}
	return math.Float64frombits(r.valueUint64())
}

// IntegerValue returns the Integer payload, or 0 if r is not an Integer.
func (r Record) IntegerValue() int64 {
	if r.Type() != TypeInteger {
		return 0
	}
	return int64(r.valueUint64())
}

// BooleanValue returns the Boolean payload, or false if r is not a Boolean.
func (r Record) BooleanValue() bool {
	if r.Type() != TypeBoolean {
		return false
	}
	return r[offValue]&1 == 1
}

// StrOffset returns the string-pool offset for a String record.
func (r Record) StrOffset() uint32 {
	return binary.LittleEndian.Uint32(r[offValue : offValue+4])
}

// ErrorCode returns the error-sentinel ordinal for an Error record.
func (r Record) ErrorCode() uint8 { return r[offValue] }

// AsFloat64 coerces any numeric-ish record to a float64, used by the SIMD
// numeric-reduction kernels.
func (r Record) AsFloat64() float64 {
	switch r.Type() {
		case TypeNumber:
			return r.NumberValue()
		case TypeInteger:
			return float64(r.IntegerValue())
		default:
			return 0
	}
}

// Equal implements structural equality. Record's every field lives in its
// 16 raw bytes, so byte equality already is structural equality.
func (r Record) Equal(o Record) bool { return r == o }

package simdkernel

import (
	"math"

	"github.com/wuxianggujun/tinaxlsx-go/internal/cellstore"
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// ConvertDoublesToCells bulk-converts a float64 slice into Number records
// at consecutive coordinates starting at origin, column-major within the
// row.
func ConvertDoublesToCells(values []float64, origin coord.Coordinate) []cellstore.Record {
	out := make([]cellstore.Record, len(values))
	width := unrollWidth(probe())
	i := 0
	for ; i+width <= len(values); i += width {
		for j := 0; j < width; j++ {
			out[i+j] = cellstore.NewNumber(coord.Coordinate{Row: origin.Row, Col: origin.Col + coord.ColIndex(i+j)}, values[i+j])
		}
	}
	for ; i < len(values); i++ {
		out[i] = cellstore.NewNumber(coord.Coordinate{Row: origin.Row, Col: origin.Col + coord.ColIndex(i)}, values[i])
	}
	return out
}

// ConvertInt64sToCells is ConvertDoublesToCells' Integer-tagged sibling.
func ConvertInt64sToCells(values []int64, origin coord.Coordinate) []cellstore.Record {
	out := make([]cellstore.Record, len(values))
	for i, v := range values {
		out[i] = cellstore.NewInteger(coord.Coordinate{Row: origin.Row, Col: origin.Col + coord.ColIndex(i)}, v)
	}
	return out
}

// ConvertInt32sToCells coerces 32-bit integers up to the Integer tag.
func ConvertInt32sToCells(values []int32, origin coord.Coordinate) []cellstore.Record {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return ConvertInt64sToCells(out, origin)
}

// ConvertFloatsToCells coerces float32 up to the Number tag.
func ConvertFloatsToCells(values []float32, origin coord.Coordinate) []cellstore.Record {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return ConvertDoublesToCells(out, origin)
}

// ConvertCellsToDoubles is the reduction-input inverse: every record's
// AsFloat64 (0 for non-numeric), preserving index order.
func ConvertCellsToDoubles(recs []cellstore.Record) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = r.AsFloat64()
	}
	return out
}

// Clear overwrites every record in recs with an Empty record at its own
// coordinate, a bulk in-place tombstone.
func Clear(recs []cellstore.Record) {
	for i := range recs {
		recs[i] = cellstore.NewEmpty(recs[i].Coord())
	}
}

// Copy duplicates src's values into dst element-wise, re-stamping each
// with dst's own coordinate so the copy can be placed at a new location.
func Copy(dst, src []cellstore.Record) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		rec := src[i]
		rec.SetCoord(dst[i].Coord())
		dst[i] = rec
	}
}

// Fill overwrites every slot in recs with value, re-stamped at each slot's
// own coordinate.
func Fill(recs []cellstore.Record, value cellstore.Record) {
	for i := range recs {
		v := value
		v.SetCoord(recs[i].Coord())
		recs[i] = v
	}
}

// Compare reports, index by index, whether recs[i].Equal(other[i]),
// short-circuiting on length mismatch.
func Compare(a, b []cellstore.Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// GetCoordinates extracts every record's coordinate, preserving order.
func GetCoordinates(recs []cellstore.Record) []coord.Coordinate {
	out := make([]coord.Coordinate, len(recs))
	for i, r := range recs {
		out[i] = r.Coord()
	}
	return out
}

// SetCoordinates re-stamps each record's coordinate from coords, which
// must be the same length as recs.
func SetCoordinates(recs []cellstore.Record, coords []coord.Coordinate) {
	n := len(recs)
	if len(coords) < n {
		n = len(coords)
	}
	for i := 0; i < n; i++ {
		recs[i].SetCoord(coords[i])
	}
}

// TransformCoordinates applies f to every record's coordinate in place,
// replacing any record f rejects with an Empty record at its original
// coordinate; the slot itself stays in recs. Store.Transform is the
// separate path that removes rejected records from a store.
func TransformCoordinates(recs []cellstore.Record, f func(coord.Coordinate) (coord.Coordinate, bool)) {
	for i := range recs {
		nc, keep := f(recs[i].Coord())
		if !keep {
			recs[i] = cellstore.NewEmpty(recs[i].Coord())
			continue
		}
		recs[i].SetCoord(nc)
	}
}

// SumNumbers reduces recs to a single float64 sum using Kahan compensated
// summation, processing unrollWidth elements per iteration at the selected
// dispatch level before falling back to the scalar remainder.
func SumNumbers(recs []cellstore.Record) float64 {
	sum, c := 0.0, 0.0
	add := func(v float64) {
		y := v - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	width := unrollWidth(probe())
	i := 0
	for ; i+width <= len(recs); i += width {
		for j := 0; j < width; j++ {
			add(recs[i+j].AsFloat64())
		}
	}
	for ; i < len(recs); i++ {
		add(recs[i].AsFloat64())
	}
	return sum
}

// Stats is the two-pass mean/variance statistics kernel: count, sum, min,
// max, mean, and sample variance/stddev over the numeric records in recs
// (non-numeric records are skipped, matching the formula AVERAGE/aggregate
// convention in internal/formula).
type Stats struct {
	Count int
	Sum float64
	Min float64
	Max float64
	Mean float64
	Variance float64
	StdDev float64
}

// ComputeStats runs the two-pass algorithm: first the mean, then the
// sum-of-squared-deviations, for numerical stability over a naive
// single-pass sum-of-squares.
func ComputeStats(recs []cellstore.Record) Stats {
	var nums []float64
	for _, r := range recs {
		if r.Type() == cellstore.TypeNumber || r.Type() == cellstore.TypeInteger {
			nums = append(nums, r.AsFloat64())
		}
	}
	if len(nums) == 0 {
		return Stats{}
	}
	sum, min, max := 0.0, nums[0], nums[0]
	for _, v := range nums {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(nums))
	sq := 0.0
	for _, v := range nums {
		d := v - mean
		sq += d * d
	}
	variance := 0.0
	if len(nums) > 1 {
		variance = sq / float64(len(nums)-1)
	}
	return Stats{Count: len(nums), Sum: sum, Min: min, Max: max, Mean: mean, Variance: variance, StdDev: math.Sqrt(variance)}
}

// ScalarOp applies a scalar arithmetic op uniformly across every numeric
// record in recs, returning new Number records.
type ScalarOp int

const (
	OpAdd ScalarOp = iota
	OpSub
	OpMul
	OpDiv
)

func ApplyScalarOp(recs []cellstore.Record, op ScalarOp, operand float64) []cellstore.Record {
	out := make([]cellstore.Record, len(recs))
	for i, r := range recs {
		if r.Type() != cellstore.TypeNumber && r.Type() != cellstore.TypeInteger {
			out[i] = r
			continue
		}
		v := r.AsFloat64()
		var res float64
		switch op {
			case OpAdd:
				res = v + operand
			case OpSub:
				res = v - operand
			case OpMul:
				res = v * operand
			case OpDiv:
				if operand == 0 {
					out[i] = r
					continue
				}
				res = v / operand
		}
		out[i] = cellstore.NewNumber(r.Coord(), res)
	}
	return out
}

// FilterWhere returns the coordinates of every record for which pred holds.
func FilterWhere(recs []cellstore.Record, pred func(cellstore.Record) bool) []coord.Coordinate {
	var out []coord.Coordinate
	for _, r := range recs {
		if pred(r) {
			out = append(out, r.Coord())
		}
	}
	return out
}

// CountWhere is FilterWhere's count-only form, avoiding the allocation.
func CountWhere(recs []cellstore.Record, pred func(cellstore.Record) bool) int {
	n := 0
	for _, r := range recs {
		if pred(r) {
			n++
		}
	}
	return n
}

// FindEqual returns the coordinates of every Number/Integer record whose
// AsFloat64 equals target exactly.
func FindEqual(recs []cellstore.Record, target float64) []coord.Coordinate {
	return FilterWhere(recs, func(r cellstore.Record) bool {
		return (r.Type() == cellstore.TypeNumber || r.Type() == cellstore.TypeInteger) && r.AsFloat64() == target
	})
}

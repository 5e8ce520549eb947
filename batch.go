package xlcore

import (
	"github.com/wuxianggujun/tinaxlsx-go/internal/cellstore"
	"github.com/wuxianggujun/tinaxlsx-go/internal/charts"
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
	"github.com/wuxianggujun/tinaxlsx-go/internal/simdkernel"
)

// ColumnStats is the public view of internal/simdkernel's two-pass
// mean/variance summary.
type ColumnStats = simdkernel.Stats

// SetColumnNumbers bulk-writes values as Number records down col, starting
// at startRow, using the batch/SIMD conversion kernel rather than one
// SetCellValue call per element.
func (s *Sheet) SetColumnNumbers(startRow RowIndex, col ColIndex, values []float64) error {
	s.clearErr()
	origin := coord.Coordinate{Row: coord.RowIndex(startRow), Col: coord.ColIndex(col)}
	recs := simdkernel.ConvertDoublesToCells(values, origin)
	// ConvertDoublesToCells lays values out across columns starting at
	// origin; re-target each record down the column instead.
	for i := range recs {
		recs[i].SetCoord(coord.Coordinate{Row: origin.Row + coord.RowIndex(i), Col: origin.Col})
	}
	if err := s.store.SetValues(recs); err != nil {
		return s.fail(&ResourceError{Op: "SetColumnNumbers", Err: err})
	}
	s.wb.touch()
	return nil
}

// ColumnNumbers reads col from startRow through startRow+n-1 back out as a
// float64 slice via the batch kernel's reverse conversion.
func (s *Sheet) ColumnNumbers(startRow RowIndex, col ColIndex, n int) []float64 {
	return simdkernel.ConvertCellsToDoubles(s.columnRecords(startRow, col, n))
}

// SumColumn sums the numeric records in col over [startRow, startRow+n)
// using the kernel's Kahan-compensated reduction, rather than a naive
// per-cell accumulation loop.
func (s *Sheet) SumColumn(startRow RowIndex, col ColIndex, n int) float64 {
	return simdkernel.SumNumbers(s.columnRecords(startRow, col, n))
}

// StatsForColumn computes count/mean/variance/stddev over col's numeric
// records in [startRow, startRow+n).
func (s *Sheet) StatsForColumn(startRow RowIndex, col ColIndex, n int) ColumnStats {
	return simdkernel.ComputeStats(s.columnRecords(startRow, col, n))
}

func (s *Sheet) columnRecords(startRow RowIndex, col ColIndex, n int) []cellstore.Record {
	recs := make([]cellstore.Record, n)
	for i := 0; i < n; i++ {
		c := coord.Coordinate{Row: coord.RowIndex(startRow) + coord.RowIndex(i), Col: coord.ColIndex(col)}
		rec, _ := s.store.Get(c)
		recs[i] = rec
	}
	return recs
}

// DrawingRef is the public view of the worksheet-level drawing placeholder
// internal/charts emits; chart/drawing layout itself is out of scope, this
// only carries the relationship id through to the XML writer.
type DrawingRef = charts.DrawingRef

// AddImage decodes blob far enough to report its pixel size and registers
// a <drawing> relationship placeholder for it at relID. Actual drawing
// layout is out of scope; this exists so embedding a picture at least
// produces a valid, referenceable part.
func (s *Sheet) AddImage(relID string, blob []byte) (DrawingRef, int, int, error) {
	s.clearErr()
	w, h, _, err := charts.DecodeMediaPreview(blob)
	if err != nil {
		return DrawingRef{}, 0, 0, s.fail(&ParseError{Part: "xl/media", Err: err})
	}
	ref := charts.DrawingRef{RelationshipID: relID}
	s.drawings = append(s.drawings, ref)
	return ref, w, h, nil
}

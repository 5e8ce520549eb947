// Package merge implements the merged-region index: an ordered set of
// non-overlapping rectangular regions plus a cell->region map for O(1)
// membership tests.
package merge

import (
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// Index owns the region set and the auxiliary cell->region map. Not safe
// for concurrent mutation.
type Index struct {
	regions []coord.Range
	byCell map[uint64]int // coord.Key() -> index into regions
}

// New creates an empty merge index.
func New() *Index {
	return &Index{byCell: make(map[uint64]int)}
}

func is1x1(r coord.Range) bool { return r.Start == r.End }

func (ix *Index) overlapsAny(r coord.Range) bool {
	for _, existing := range ix.regions {
		if r.Overlaps(existing) {
			return true
		}
	}
	return false
}

// Merge inserts region r, rejecting invalid regions, 1x1 regions, and
// regions overlapping any existing region. On success the
// cell->region map is updated for every cell in r.
func (ix *Index) Merge(r coord.Range) bool {
	if r.Start.Row == 0 || r.Start.Col == 0 || r.End.Row < r.Start.Row || r.End.Col < r.Start.Col {
		return false
	}
	if is1x1(r) {
		return false
	}
	if ix.overlapsAny(r) {
		return false
	}
	idx := len(ix.regions)
	ix.regions = append(ix.regions, r)
	ix.indexCells(r, idx)
	return true
}

func (ix *Index) indexCells(r coord.Range, idx int) {
	for row := r.Start.Row; row <= r.End.Row; row++ {
		for col := r.Start.Col; col <= r.End.Col; col++ {
			ix.byCell[coord.Coordinate{Row: row, Col: col}.Key()] = idx
		}
	}
}

// Contains returns the unique region containing (row, col), if any.
func (ix *Index) Contains(row coord.RowIndex, col coord.ColIndex) (coord.Range, bool) {
	idx, ok := ix.byCell[(coord.Coordinate{Row: row, Col: col}).Key()]
	if !ok {
		return coord.Range{}, false
	}
	return ix.regions[idx], true
}

// Unmerge finds the unique region containing (row, col) and deletes it,
// returning false if none is found. This is the identity-law partner of
// Merge: Unmerge(some cell in R) undoes Merge(R).
func (ix *Index) Unmerge(row coord.RowIndex, col coord.ColIndex) bool {
	idx, ok := ix.byCell[(coord.Coordinate{Row: row, Col: col}).Key()]
	if !ok {
		return false
	}
	ix.removeAt(idx)
	return true
}

// removeAt deletes regions[idx], compacting the slice and rewriting the
// cell->region map for the region that gets moved into idx's slot.
func (ix *Index) removeAt(idx int) {
	removed := ix.regions[idx]
	for row := removed.Start.Row; row <= removed.End.Row; row++ {
		for col := removed.Start.Col; col <= removed.End.Col; col++ {
			delete(ix.byCell, (coord.Coordinate{Row: row, Col: col}).Key())
		}
	}
	last := len(ix.regions) - 1
	if idx != last {
		moved := ix.regions[last]
		ix.regions[idx] = moved
		ix.indexCells(moved, idx)
	}
	ix.regions = ix.regions[:last]
}

// UnmergeInRange deletes every region overlapping r, returning the count
// removed.
func (ix *Index) UnmergeInRange(r coord.Range) int {
	n := 0
	for i := 0; i < len(ix.regions); {
		if ix.regions[i].Overlaps(r) {
			ix.removeAt(i)
			n++
			continue
		}
		i++
	}
	return n
}

// All returns a snapshot of every region, for XML emission of
// <mergeCells>.
func (ix *Index) All() []coord.Range {
	out := make([]coord.Range, len(ix.regions))
	copy(out, ix.regions)
	return out
}

// Len returns the number of merged regions.
func (ix *Index) Len() int { return len(ix.regions) }

// ValidateBatch checks a batch of candidate regions against each other and
// against existing regions without mutating the index: batch variants
// validate all regions against each other and existing regions before any
// mutation.
func (ix *Index) ValidateBatch(candidates []coord.Range) error {
	for i, r := range candidates {
		if r.Start.Row == 0 || r.Start.Col == 0 || r.End.Row < r.Start.Row || r.End.Col < r.Start.Col {
			return &InvalidRegionError{Region: r}
		}
		if is1x1(r) {
			return &InvalidRegionError{Region: r, Reason: "1x1 region"}
		}
		if ix.overlapsAny(r) {
			return &OverlapError{Region: r}
		}
		for j, other := range candidates {
			if i != j && r.Overlaps(other) {
				return &OverlapError{Region: r, With: &other}
			}
		}
	}
	return nil
}

// MergeBatch applies ValidateBatch then merges every candidate, or merges
// none at all on validation failure (atomic-looking batch semantics).
func (ix *Index) MergeBatch(candidates []coord.Range) error {
	if err := ix.ValidateBatch(candidates); err != nil {
		return err
	}
	for _, r := range candidates {
		ix.Merge(r)
	}
	return nil
}

// InvalidRegionError and OverlapError are the StateError-class failures of
//  for malformed/overlapping merge requests.
type InvalidRegionError struct {
	Region coord.Range
	Reason string
}

func (e *InvalidRegionError) Error() string {
	if e.Reason != "" {
		return "merge: invalid region " + coord.FormatRangeRef(e.Region) + ": " + e.Reason
	}
	return "merge: invalid region " + coord.FormatRangeRef(e.Region)
}

type OverlapError struct {
	Region coord.Range
	With *coord.Range
}

func (e *OverlapError) Error() string {
	msg := "merge: region " + coord.FormatRangeRef(e.Region) + " overlaps an existing region"
	if e.With != nil {
		msg += " " + coord.FormatRangeRef(*e.With)
	}
	return msg
}

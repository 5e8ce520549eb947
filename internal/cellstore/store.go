package cellstore

import (
	"fmt"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// Store is the per-worksheet cell store: a dense slice of Records plus a
// coordinate->index map. It is the single authority for cell existence
// within one worksheet and is not safe for concurrent mutation; parallel
// kernels must partition by non-overlapping index ranges instead.
type Store struct {
	records []Record
	index map[uint64]int // coord.Key() -> index into records
	ext map[uint64]uint32 // coord.Key() -> extended-data-pool offset, only for style-overflow cells
	arena *Arena
	tombs int // count of Empty records eligible for compaction
}

// New creates an empty store backed by the given arena (nil means
// unlimited memory).
func New(arena *Arena) *Store {
	return &Store{
		index: make(map[uint64]int),
		arena: arena,
	}
}

// Get returns the record at coord and whether it is present and non-empty.
func (s *Store) Get(c coord.Coordinate) (Record, bool) {
	idx, ok := s.index[c.Key()]
	if !ok {
		return Record{}, false
	}
	r := s.records[idx]
	return r, !r.IsEmpty()
}

// GetOrCreate returns a pointer to the live record at coord, creating an
// empty one if absent. The returned pointer is valid until the next
// mutating call on s (compact/transform/insert may relocate records).
func (s *Store) GetOrCreate(c coord.Coordinate) (*Record, error) {
	if idx, ok := s.index[c.Key()]; ok {
		return &s.records[idx], nil
	}
	if err := s.arena.Reserve(1); err != nil {
		return nil, err
	}
	s.records = append(s.records, NewEmpty(c))
	idx := len(s.records) - 1
	s.index[c.Key()] = idx
	s.tombs++
	return &s.records[idx], nil
}

// SetRecord writes rec at its own Coord, O(1), creating the slot if absent.
func (s *Store) SetRecord(rec Record) error {
	c := rec.Coord()
	if !c.Valid() || c == coord.Zero {
		return fmt.Errorf("cellstore: invalid coordinate %v", c)
	}
	if idx, ok := s.index[c.Key()]; ok {
		wasEmpty := s.records[idx].IsEmpty()
		s.records[idx] = rec
		if wasEmpty && !rec.IsEmpty() {
			s.tombs--
		} else if !wasEmpty && rec.IsEmpty() {
			s.tombs++
		}
		return nil
	}
	if err := s.arena.Reserve(1); err != nil {
		return err
	}
	s.records = append(s.records, rec)
	s.index[c.Key()] = len(s.records) - 1
	if rec.IsEmpty() {
		s.tombs++
	}
	return nil
}

// SetValues performs a batch upsert, reserving capacity for
// existing+len(pairs) up front, preserving the relative order of
// pre-existing entries (append-only growth for new ones).
func (s *Store) SetValues(recs []Record) error {
	if err := s.arena.Reserve(len(recs)); err != nil {
		// Batch operations either succeed fully or skip the attempted
		// cell, never leaving corrupt state.
		return err
	}
	// We've already reserved optimistically for len(recs) new records;
	// give back accounting for any that turn out to be in-place updates.
	applied := 0
	for _, rec := range recs {
		c := rec.Coord()
		if !c.Valid() || c == coord.Zero {
			continue
		}
		if idx, ok := s.index[c.Key()]; ok {
			wasEmpty := s.records[idx].IsEmpty()
			s.records[idx] = rec
			if wasEmpty && !rec.IsEmpty() {
				s.tombs--
			}
			s.arena.Release(1)
			continue
		}
		s.records = append(s.records, rec)
		s.index[c.Key()] = len(s.records) - 1
		applied++
	}
	s.arena.Release(len(recs) - applied)
	return nil
}

// Remove logically deletes the record at coord by marking it Empty;
// physical removal is deferred to Compact. Returns false if coord was
// absent or already empty.
func (s *Store) Remove(c coord.Coordinate) bool {
	idx, ok := s.index[c.Key()]
	if !ok || s.records[idx].IsEmpty() {
		return false
	}
	s.records[idx] = NewEmpty(c)
	s.ClearExtOffset(c)
	s.tombs++
	return true
}

// RemoveInRange deletes every cell contained in r, returning the count
// removed.
func (s *Store) RemoveInRange(r coord.Range) int {
	n := 0
	for _, idx := range s.index {
		rec := s.records[idx]
		if rec.IsEmpty() {
			continue
		}
		c := rec.Coord()
		if r.Contains(c) {
			s.records[idx] = NewEmpty(c)
			s.ClearExtOffset(c)
			s.tombs++
			n++
		}
	}
	return n
}

// SetExtOffset records the extended-data-pool offset backing a cell whose
// style handle overflowed the inline byte (the 255th+ distinct style).
func (s *Store) SetExtOffset(c coord.Coordinate, off uint32) {
	if s.ext == nil {
		s.ext = make(map[uint64]uint32)
	}
	s.ext[c.Key()] = off
}

// ExtOffset returns the extended-data-pool offset recorded for c, if any.
func (s *Store) ExtOffset(c coord.Coordinate) (uint32, bool) {
	off, ok := s.ext[c.Key()]
	return off, ok
}

// ClearExtOffset forgets the recorded offset for c, e.g. once its style no
// longer overflows or the cell is removed.
func (s *Store) ClearExtOffset(c coord.Coordinate) {
	if s.ext != nil {
		delete(s.ext, c.Key())
	}
}

// Count returns the total number of slots, including tombstones.
func (s *Store) Count() int { return len(s.records) }

// NonEmptyCount returns the number of live (non-tombstone) records.
func (s *Store) NonEmptyCount() int { return len(s.records) - s.tombs }

// UsedRange returns the smallest bounding rectangle of non-empty records,
// or the Invalid sentinel if the store has none.
func (s *Store) UsedRange() coord.Range {
	first := true
	var rr coord.Range
	for _, rec := range s.records {
		if rec.IsEmpty() {
			continue
		}
		c := rec.Coord()
		if first {
			rr = coord.Range{Start: c, End: c}
			first = false
			continue
		}
		if c.Row < rr.Start.Row {
			rr.Start.Row = c.Row
		}
		if c.Col < rr.Start.Col {
			rr.Start.Col = c.Col
		}
		if c.Row > rr.End.Row {
			rr.End.Row = c.Row
		}
		if c.Col > rr.End.Col {
			rr.End.Col = c.Col
		}
	}
	if first {
		return coord.Invalid
	}
	return rr
}

// MaxUsedRow and MaxUsedColumn scan the live records for the largest
// occupied row/column, returning 0 for an empty store.
func (s *Store) MaxUsedRow() coord.RowIndex {
	r := s.UsedRange()
	if r.IsInvalid() {
		return 0
	}
	return r.End.Row
}

func (s *Store) MaxUsedColumn() coord.ColIndex {
	r := s.UsedRange()
	if r.IsInvalid() {
		return 0
	}
	return r.End.Col
}

// Transform applies f to every live record's coordinate: a false keep
// result deletes the record, otherwise it is relocated to the returned
// coordinate. The map is rebuilt in a single
// pass to guarantee the store's post-condition invariant.
func (s *Store) Transform(f func(coord.Coordinate) (coord.Coordinate, bool)) {
	newRecords := make([]Record, 0, len(s.records))
	newIndex := make(map[uint64]int, len(s.index))
	var newExt map[uint64]uint32
	if len(s.ext) > 0 {
		newExt = make(map[uint64]uint32, len(s.ext))
	}
	tombs := 0
	for _, rec := range s.records {
		if rec.IsEmpty() {
			continue
		}
		oc := rec.Coord()
		nc, keep := f(oc)
		if !keep {
			continue
		}
		rec.SetCoord(nc)
		newIndex[nc.Key()] = len(newRecords)
		newRecords = append(newRecords, rec)
		if off, ok := s.ext[oc.Key()]; ok {
			newExt[nc.Key()] = off
		}
	}
	s.arena.Release(len(s.records) - len(newRecords))
	s.records = newRecords
	s.index = newIndex
	s.ext = newExt
	s.tombs = tombs
}

// Compact physically removes tombstone records, preserving (coord, value)
// pairs of live cells. Idempotent.
func (s *Store) Compact() {
	if s.tombs == 0 {
		return
	}
	newRecords := make([]Record, 0, len(s.records)-s.tombs)
	newIndex := make(map[uint64]int, len(newRecords))
	for _, rec := range s.records {
		if rec.IsEmpty() {
			continue
		}
		newIndex[rec.Coord().Key()] = len(newRecords)
		newRecords = append(newRecords, rec)
	}
	s.arena.Release(len(s.records) - len(newRecords))
	s.records = newRecords
	s.index = newIndex
	s.tombs = 0
}

// Records returns the live backing slice for bulk SIMD-kernel consumption.
// Callers must not retain the slice across a mutating call.
func (s *Store) Records() []Record { return s.records }

// IndexOf returns the slice index for coord, used by code that wants to
// mutate in place without a second map lookup.
func (s *Store) IndexOf(c coord.Coordinate) (int, bool) {
	idx, ok := s.index[c.Key()]
	return idx, ok
}

// Arena exposes the backing arena for diagnostic/Stats use.
func (s *Store) Arena() *Arena { return s.arena }

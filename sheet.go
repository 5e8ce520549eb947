package xlcore

import (
	"github.com/wuxianggujun/tinaxlsx-go/internal/cellstore"
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
	"github.com/wuxianggujun/tinaxlsx-go/internal/merge"
	"github.com/wuxianggujun/tinaxlsx-go/internal/pool"
	"github.com/wuxianggujun/tinaxlsx-go/internal/protect"
	"github.com/wuxianggujun/tinaxlsx-go/internal/rowcol"
)

// Sheet is one worksheet: a cell store, row/column metadata, a merged-
// region index and a protection manager, all scoped to this sheet. The
// formula graph and the string/style pools are workbook-scoped and
// reached through wb.
type Sheet struct {
	wb *Workbook
	name string

	store *cellstore.Store
	rowcols *rowcol.Manager
	merges *merge.Index
	prot *protect.Manager

	drawings []DrawingRef

	lastErr error
}

func newSheet(wb *Workbook, name string) *Sheet {
	return &Sheet{
		wb: wb,
		name: name,
		store: cellstore.New(wb.arena),
		rowcols: rowcol.New(),
		merges: merge.New(),
		prot: protect.New(),
	}
}

// Name returns the sheet's name.
func (s *Sheet) Name() string { return s.name }

// LastError returns the diagnostic error set by the most recent failing
// operation on s, cleared at the start of every public call.
func (s *Sheet) LastError() error { return s.lastErr }

func (s *Sheet) fail(err error) error {
	s.lastErr = err
	return err
}

func (s *Sheet) clearErr() { s.lastErr = nil }

// SetCellValue writes v at c, interning strings into the workbook's
// shared string pool and routing error values through the error-sentinel
// record type.
func (s *Sheet) SetCellValue(c Coordinate, v CellValue) error {
	s.clearErr()
	if !coord.Coordinate(c).Valid() {
		return s.fail(&ArgumentError{Op: "SetCellValue", Msg: "coordinate out of range"})
	}
	rec, err := s.buildRecord(c, v)
	if err != nil {
		return s.fail(err)
	}
	if err := s.store.SetRecord(rec); err != nil {
		return s.fail(&ResourceError{Op: "SetCellValue", Err: err})
	}
	s.wb.touch()
	return nil
}

func (s *Sheet) buildRecord(c Coordinate, v CellValue) (cellstore.Record, error) {
	cc := coord.Coordinate(c)
	switch v.Kind {
		case KindEmpty:
			return cellstore.NewEmpty(cc), nil
		case KindString:
			offset, err := s.wb.strings.Intern(v.Str)
			if err != nil {
				return cellstore.Record{}, &ResourceError{Op: "SetCellValue", Err: err}
			}
			return cellstore.NewString(cc, offset), nil
		case KindNumber:
			return cellstore.NewNumber(cc, v.Num), nil
		case KindInteger:
			return cellstore.NewInteger(cc, v.Int), nil
		case KindBoolean:
			return cellstore.NewBoolean(cc, v.Bool), nil
		case KindError:
			return cellstore.NewError(cc, errorCodeOf(v.ErrCode)), nil
		default:
			return cellstore.Record{}, &ArgumentError{Op: "SetCellValue", Msg: "unknown value kind"}
	}
}

// GetCellValue returns the value stored at c, or an empty CellValue if c
// has never been set. Formula cells return their most recently calculated result,
// or empty if never calculated.
func (s *Sheet) GetCellValue(c Coordinate) CellValue {
	rec, ok := s.store.Get(coord.Coordinate(c))
	if !ok {
		return EmptyValue()
	}
	switch rec.Type() {
		case cellstore.TypeString:
			str, _ := s.wb.strings.Resolve(rec.StrOffset())
			return StringValue(str)
		case cellstore.TypeNumber:
			return NumberValue(rec.NumberValue())
		case cellstore.TypeInteger:
			return IntegerValue(rec.IntegerValue())
		case cellstore.TypeBoolean:
			return BoolValue(rec.BooleanValue())
		case cellstore.TypeError:
			return ErrorValue(errorSentinelOf(rec.ErrorCode()))
		case cellstore.TypeFormula:
			if fv, ok := s.wb.formulaValues[formulaKey(s.name, cc2(c))]; ok {
				return valueToCellValue(fv)
			}
			return EmptyValue()
		default:
			return EmptyValue()
	}
}

func cc2(c Coordinate) coord.Coordinate { return coord.Coordinate(c) }

// SetCellFormula installs body as a formula at c, replacing any existing
// value, and registers it with the workbook's dependency graph. A leading '=' is accepted and stripped; the formula is not
// evaluated until the next CalculateAll (or, if wb's options enable
// AutoCalculate, at the next Save).
func (s *Sheet) SetCellFormula(c Coordinate, body string) error {
	s.clearErr()
	if len(body) > 0 && body[0] == '=' {
		body = body[1:]
	}
	if err := s.wb.formulas.SetCellFormula(s.name, cc2(c), body); err != nil {
		return s.fail(&FormulaError{Sheet: s.name, Cell: CellName(c), Err: err})
	}
	rec := cellstore.NewFormulaPlaceholder(cc2(c))
	if err := s.store.SetRecord(rec); err != nil {
		return s.fail(&ResourceError{Op: "SetCellFormula", Err: err})
	}
	s.wb.touch()
	return nil
}

// GetCellFormula returns the formula text at c (without the leading '='),
// if any.
func (s *Sheet) GetCellFormula(c Coordinate) (string, bool) {
	return s.wb.formulas.GetCellFormula(s.name, cc2(c))
}

// MergeCells merges r, rejecting invalid/overlapping/1x1 regions.
func (s *Sheet) MergeCells(r Range) error {
	s.clearErr()
	if !s.prot.IsOperationAllowed(protect.OpObjects) {
		return s.fail(&StateError{Op: "MergeCells", Msg: "operation not permitted on a protected sheet"})
	}
	if !s.merges.Merge(coord.Range(r)) {
		return s.fail(&StateError{Op: "MergeCells", Msg: "invalid or overlapping region " + FormatRange(r)})
	}
	return nil
}

// UnmergeCells removes the merged region containing (row, col).
func (s *Sheet) UnmergeCells(c Coordinate) bool {
	return s.merges.Unmerge(coord.RowIndex(c.Row), coord.ColIndex(c.Col))
}

// SetRowHeight sets row's height in points.
func (s *Sheet) SetRowHeight(row RowIndex, height float64) bool {
	return s.rowcols.SetRowHeight(coord.RowIndex(row), height)
}

// SetColumnWidth sets col's width in the OOXML character-width unit.
func (s *Sheet) SetColumnWidth(col ColIndex, width float64) bool {
	return s.rowcols.SetColumnWidth(coord.ColIndex(col), width)
}

// Protect enables protection on s with the given allowed-operations mask
// and password (empty password means structural-only protection).
func (s *Sheet) Protect(password string, allowed protect.Operation) error {
	s.clearErr()
	if s.prot.IsProtected() {
		return s.fail(ErrAlreadyProtected)
	}
	if err := s.prot.Protect(password, allowed, 0); err != nil {
		return s.fail(&ResourceError{Op: "Protect", Err: err})
	}
	return nil
}

// Unprotect disables protection if password matches (or no password was
// ever set).
func (s *Sheet) Unprotect(password string) error {
	s.clearErr()
	if !s.prot.Unprotect(password) {
		return s.fail(ErrWrongPassword)
	}
	return nil
}

// IsProtected reports s's protection state.
func (s *Sheet) IsProtected() bool { return s.prot.IsProtected() }

// UsedRange returns the smallest rectangle containing every non-empty
// cell.
func (s *Sheet) UsedRange() Range { return Range(s.store.UsedRange()) }

// SetCellStyle assigns st to c, deduplicating it in the workbook's shared
// style catalogue. Handles up to 254 fit inline in the record's style-handle
// byte; the 255th distinct style onward spills into the extended-data
// pool, addressed by coordinate through the store rather than an inline
// offset, via the StyleOverflow sentinel.
func (s *Sheet) SetCellStyle(c Coordinate, st Style) error {
	s.clearErr()
	handle := s.wb.styles.GetOrInsert(st)
	cc := cc2(c)
	rec, err := s.store.GetOrCreate(cc)
	if err != nil {
		return s.fail(&ResourceError{Op: "SetCellStyle", Err: err})
	}
	if handle < uint32(cellstore.StyleOverflow) {
		rec.SetStyleHandle(uint8(handle))
		s.store.ClearExtOffset(cc)
	} else {
		off := s.wb.ext.Allocate()
		s.wb.ext.Set(off, pool.ExtendedData{StyleHandle: handle})
		rec.SetStyleHandle(cellstore.StyleOverflow)
		s.store.SetExtOffset(cc, off)
	}
	*rec = rec.WithFlag(cellstore.FlagHasStyle, true)
	return nil
}

// CellStyleHandle resolves the effective style handle at c, following the
// extended-data overflow indirection when present.
func (s *Sheet) CellStyleHandle(c Coordinate) uint32 {
	cc := cc2(c)
	idx, ok := s.store.IndexOf(cc)
	if !ok {
		return 0
	}
	rec := s.store.Records()[idx]
	if rec.StyleHandle() != cellstore.StyleOverflow {
		return uint32(rec.StyleHandle())
	}
	off, ok := s.store.ExtOffset(cc)
	if !ok {
		return 0
	}
	if ext, ok := s.wb.ext.Get(off); ok {
		return ext.StyleHandle
	}
	return 0
}

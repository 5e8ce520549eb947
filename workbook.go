package xlcore

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"github.com/wuxianggujun/tinaxlsx-go/internal/cellstore"
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
	"github.com/wuxianggujun/tinaxlsx-go/internal/formula"
	"github.com/wuxianggujun/tinaxlsx-go/internal/ooxml"
	"github.com/wuxianggujun/tinaxlsx-go/internal/pool"
	"github.com/wuxianggujun/tinaxlsx-go/internal/scheduler"
	"github.com/wuxianggujun/tinaxlsx-go/internal/style"
	"github.com/wuxianggujun/tinaxlsx-go/internal/xmlio"
)

// Workbook is the top-level object of this package: a set of named sheets
// sharing a string pool, an extended-data pool, a style catalogue and a
// single cross-sheet formula dependency graph, analogous to excelize.File
// but backed by the cellstore/formula engine underneath.
type Workbook struct {
	mu sync.Mutex

	opts WorkbookOptions
	arena *cellstore.Arena
	strings *pool.StringPool
	ext *pool.ExtendedPool
	styles *style.Catalogue
	formulas *formula.Manager

	sheetOrder []string
	sheets map[string]*Sheet

	formulaValues map[formula.NodeKey]formula.Value

	sched *scheduler.Scheduler

	dirty bool
	lastErr error
}

// NewWorkbook creates an empty workbook with one default sheet named
// "Sheet1".
func NewWorkbook(opts WorkbookOptions) *Workbook {
	if opts.MemoryCeiling == 0 {
		opts.MemoryCeiling = cellstore.DefaultCeiling
	}
	wb := &Workbook{
		opts: opts,
		arena: cellstore.NewArena(opts.MemoryCeiling),
		strings: pool.New(opts.StringPoolCeiling),
		ext: pool.NewExtended(),
		styles: style.New(),
		formulas: formula.NewManager(),
		sheets: make(map[string]*Sheet),
		formulaValues: make(map[formula.NodeKey]formula.Value),
		sched: scheduler.New(opts.Workers, scheduler.DefaultResourceThreshold),
	}
	calcOpts := formula.DefaultCalculationOptions()
	calcOpts.AutoCalculate = opts.AutoCalculate
	calcOpts.DateSystem1904 = opts.Date1904
	wb.formulas.SetOptions(calcOpts)
	wb.addSheetLocked("Sheet1")
	emit("workbook_created", "sheets", 1)
	return wb
}

// LastError returns the diagnostic error from the most recently failing
// workbook-level operation.
func (wb *Workbook) LastError() error { return wb.lastErr }

func (wb *Workbook) fail(err error) error {
	wb.lastErr = err
	return err
}

func (wb *Workbook) touch() { wb.dirty = true }

// Close shuts down the workbook's internal work-stealing pool. A Workbook
// that will not be saved again should be closed to release its goroutines.
func (wb *Workbook) Close() { wb.sched.Shutdown() }

// AddSheet creates a new, empty sheet named name.
func (wb *Workbook) AddSheet(name string) (*Sheet, error) {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.lastErr = nil
	if name == "" {
		return nil, wb.fail(&ArgumentError{Op: "AddSheet", Msg: "empty sheet name"})
	}
	if _, exists := wb.sheets[name]; exists {
		return nil, wb.fail(ErrSheetExists)
	}
	s := wb.addSheetLocked(name)
	emit("sheet_added", "name", name)
	return s, nil
}

func (wb *Workbook) addSheetLocked(name string) *Sheet {
	s := newSheet(wb, name)
	wb.sheets[name] = s
	wb.sheetOrder = append(wb.sheetOrder, name)
	return s
}

// Sheet returns the named sheet, or nil if it does not exist.
func (wb *Workbook) Sheet(name string) *Sheet {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return wb.sheets[name]
}

// SheetNames returns every sheet name in creation order.
func (wb *Workbook) SheetNames() []string {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	out := make([]string, len(wb.sheetOrder))
	copy(out, wb.sheetOrder)
	return out
}

// RemoveSheet deletes a sheet by name. Removing the workbook's last
// remaining sheet is rejected.
func (wb *Workbook) RemoveSheet(name string) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.lastErr = nil
	if _, ok := wb.sheets[name]; !ok {
		return wb.fail(ErrSheetNotExist)
	}
	if len(wb.sheetOrder) == 1 {
		return wb.fail(ErrNoSheets)
	}
	delete(wb.sheets, name)
	for i, n := range wb.sheetOrder {
		if n == name {
			wb.sheetOrder = append(wb.sheetOrder[:i], wb.sheetOrder[i+1:]...)
			break
		}
	}
	return nil
}

// RenameSheet renames a sheet, rejecting a target name already in use.
func (wb *Workbook) RenameSheet(oldName, newName string) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.lastErr = nil
	s, ok := wb.sheets[oldName]
	if !ok {
		return wb.fail(ErrSheetNotExist)
	}
	if _, exists := wb.sheets[newName]; exists {
		return wb.fail(ErrSheetExists)
	}
	delete(wb.sheets, oldName)
	s.name = newName
	wb.sheets[newName] = s
	for i, n := range wb.sheetOrder {
		if n == oldName {
			wb.sheetOrder[i] = newName
			break
		}
	}
	return nil
}

// --- formula.Resolver -------------------------------------------------

// ResolveCell implements formula.Resolver across every sheet in the
// workbook: an unqualified reference (ref.Sheet == "") resolves against
// defaultSheet, the formula's own sheet.
func (wb *Workbook) ResolveCell(defaultSheet string, ref formula.Reference) formula.Value {
	sheetName := ref.Sheet
	if sheetName == "" {
		sheetName = defaultSheet
	}
	s, ok := wb.sheets[sheetName]
	if !ok {
		return formula.Err(formula.ErrRef)
	}
	if ref.IsRange {
		return formula.Err(formula.ErrValue)
	}
	c := Coordinate(ref.Cell)
	if rec, present := s.store.Get(coord.Coordinate(c)); present && rec.Type() == cellstore.TypeFormula {
		if v, ok := wb.formulaValues[formulaKey(sheetName, coord.Coordinate(c))]; ok {
			return v
		}
		return formula.Empty()
	}
	return cellValueToFormulaValue(s.GetCellValue(c))
}

// CalculateAll recomputes every formula in the workbook in dependency
// order, writing results back into each sheet's calculated-value cache.
// Returns the number of formulas whose result changed kind or value from
// their previous calculation.
func (wb *Workbook) CalculateAll() int {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	results := wb.formulas.CalculateAll(wb)
	changed := 0
	for k, v := range results {
		if old, ok := wb.formulaValues[k]; !ok || old != v {
			changed++
		}
		wb.formulaValues[k] = v
	}
	emit("calculate_all", "formulas", len(results), "changed", changed)
	return changed
}

// DetectCircularReferences returns every cycle currently present in the
// workbook's formula dependency graph, across all sheets.
func (wb *Workbook) DetectCircularReferences() [][]formula.NodeKey {
	return wb.formulas.DetectCircularReferences()
}

// --- Save ---------------------------------------------------------------

// Save writes the workbook as a complete OOXML package to w. If the workbook's calculation options enable AutoCalculate, a
// CalculateAll pass runs first so formula cells serialize their current
// result.
func (wb *Workbook) Save(w io.Writer, opts SaveOptions) error {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	wb.lastErr = nil

	if opts.DeflateLevel == 0 {
		opts = DefaultSaveOptions()
	}
	if wb.formulas.Options().AutoCalculate {
		results := wb.formulas.CalculateAll(wb)
		for k, v := range results {
			wb.formulaValues[k] = v
		}
	}

	metas := make([]ooxml.SheetMeta, len(wb.sheetOrder))
	for i, name := range wb.sheetOrder {
		metas[i] = ooxml.SheetMeta{Name: name, ID: i + 1, Visible: true}
	}

	sheetXML := make([][]byte, len(wb.sheetOrder))
	if opts.Parallel && len(wb.sheetOrder) > 1 {
		if err := wb.renderSheetsParallel(metas, sheetXML); err != nil {
			return wb.fail(err)
		}
	} else {
		for i, name := range wb.sheetOrder {
			xml, err := wb.renderSheet(name)
			if err != nil {
				return wb.fail(err)
			}
			sheetXML[i] = xml
		}
	}

	storage := ooxml.NewZipStorage(w, opts.DeflateLevel)

	parts := map[string][]byte{}
	var err error
	if parts["[Content_Types].xml"], err = ooxml.BuildContentTypes(metas); err != nil {
		return wb.fail(&ParseError{Part: "[Content_Types].xml", Err: err})
	}
	if parts["_rels/.rels"], err = ooxml.BuildRootRels(); err != nil {
		return wb.fail(&ParseError{Part: "_rels/.rels", Err: err})
	}
	if parts["xl/workbook.xml"], err = ooxml.BuildWorkbookXML(metas, wb.opts.Date1904); err != nil {
		return wb.fail(&ParseError{Part: "xl/workbook.xml", Err: err})
	}
	if parts["xl/_rels/workbook.xml.rels"], err = ooxml.BuildWorkbookRels(metas); err != nil {
		return wb.fail(&ParseError{Part: "xl/_rels/workbook.xml.rels", Err: err})
	}
	if parts["xl/styles.xml"], err = wb.styles.MarshalXML(); err != nil {
		return wb.fail(&ParseError{Part: "xl/styles.xml", Err: err})
	}
	parts["xl/sharedStrings.xml"] = buildSharedStrings(wb.strings)
	parts["xl/calcChain.xml"], err = ooxml.BuildCalcChain(wb.calcChainEntries())
	if err != nil {
		return wb.fail(&ParseError{Part: "xl/calcChain.xml", Err: err})
	}

	for path, data := range parts {
		if err := storage.WritePart(path, data); err != nil {
			return wb.fail(&ResourceError{Op: "Save", Err: err})
		}
	}
	for i, meta := range metas {
		if err := storage.WritePart(ooxml.WorksheetPartPath(meta.ID), sheetXML[i]); err != nil {
			return wb.fail(&ResourceError{Op: "Save", Err: err})
		}
	}
	if err := storage.Close(); err != nil {
		return wb.fail(&ResourceError{Op: "Save", Err: err})
	}
	wb.dirty = false
	emit("save_finished", "sheets", len(metas))
	return nil
}

func (wb *Workbook) renderSheetsParallel(metas []ooxml.SheetMeta, out [][]byte) error {
	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup
	for i, meta := range metas {
		i, meta := i, meta
		wg.Add(1)
		wb.sched.Submit(&scheduler.TaskSpec{
			ID: fmt.Sprintf("render-sheet-%d", meta.ID),
			Type: scheduler.TaskXMLGeneration,
			Run: func(ctx context.Context) error {
				defer wg.Done()
				xml, err := wb.renderSheet(meta.Name)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					return err
				}
				out[i] = xml
				return nil
			},
		})
	}
	if err := wb.sched.Drain(context.Background()); err != nil && firstErr == nil {
		firstErr = err
	}
	wg.Wait()
	return firstErr
}

func (wb *Workbook) renderSheet(name string) ([]byte, error) {
	s := wb.sheets[name]
	sw := xmlio.NewSheetWriter()
	err := sw.WriteAll(s.store, wb.strings, func(c coord.Coordinate) (string, bool) {
		return wb.formulas.GetCellFormula(name, c)
	})
	if err != nil {
		return nil, &ResourceError{Op: "renderSheet", Err: err}
	}
	sw.WriteMergeCells(s.merges)
	return sw.Close()
}

func buildSharedStrings(sp *pool.StringPool) []byte {
	strs := sp.All()
	var b []byte
	b = append(b, []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n")...)
	b = append(b, []byte(fmt.Sprintf(`<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="%d" uniqueCount="%d">`, len(strs), len(strs)))...)
	for _, s := range strs {
		b = append(b, []byte(`<si><t>`)...)
		b = append(b, []byte(escapeXMLText(s))...)
		b = append(b, []byte(`</t></si>`)...)
	}
	b = append(b, []byte(`</sst>`)...)
	return b
}

func escapeXMLText(s string) string {
	var b []byte
	for _, r := range s {
		switch r {
			case '&':
				b = append(b, []byte("&amp;")...)
			case '<':
				b = append(b, []byte("&lt;")...)
			case '>':
				b = append(b, []byte("&gt;")...)
			default:
				b = append(b, []byte(string(r))...)
		}
	}
	return string(b)
}

func (wb *Workbook) calcChainEntries() []ooxml.CalcChainEntry {
	var entries []ooxml.CalcChainEntry
	for _, name := range wb.sheetOrder {
		s := wb.sheets[name]
		for _, rec := range s.store.Records() {
			if rec.Type() != cellstore.TypeFormula {
				continue
			}
			entries = append(entries, ooxml.CalcChainEntry{
				SheetID: sheetIDOf(wb.sheetOrder, name),
				CellRef: coord.CellName(rec.Coord()),
			})
		}
	}
	return entries
}

func sheetIDOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i + 1
		}
	}
	return 0
}

// --- Load -----------------------------------------------------------------

// Load reads a complete OOXML package from ra.
func Load(ra io.ReaderAt, size int64, opts OpenOptions) (*Workbook, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, &ParseError{Part: "package", Err: err}
	}
	reader := ooxml.OpenReader(zr)

	wbOpts := DefaultWorkbookOptions()
	if opts.MemoryCeiling != 0 {
		wbOpts.MemoryCeiling = opts.MemoryCeiling
	}
	wb := NewWorkbook(wbOpts)
	wb.sheets = make(map[string]*Sheet)
	wb.sheetOrder = nil

	sheetNames, sheetIDs, err := loadWorkbookXML(reader)
	if err != nil {
		return nil, err
	}
	for _, name := range sheetNames {
		wb.addSheetLocked(name)
	}

	if data, err := reader.ReadPart("xl/sharedStrings.xml"); err == nil {
		if err := xmlio.ReadSharedStrings(bytesReader(data), func(idx int, s string) error {
			_, internErr := wb.strings.Intern(s)
			return internErr
		}); err != nil {
			return nil, &ParseError{Part: "xl/sharedStrings.xml", Err: err}
		}
	}

	for i, name := range sheetNames {
		part := ooxml.WorksheetPartPath(sheetIDs[i])
		data, err := reader.ReadPart(part)
		if err != nil {
			return nil, &ParseError{Part: part, Err: err}
		}
		if err := wb.loadSheet(name, data); err != nil {
			return nil, &ParseError{Part: part, Err: err}
		}
	}
	return wb, nil
}

func (wb *Workbook) loadSheet(name string, data []byte) error {
	s := wb.sheets[name]
	strs := wb.strings.All()
	return xmlio.ReadWorksheet(bytesReader(data), func(_ int, cells []xmlio.CellXML) error {
		for _, c := range cells {
			coordRef, err := coord.ParseCellName(c.Ref)
			if err != nil {
				continue // malformed cell ref: skip rather than fail the whole load
			}
			if c.Formula != "" {
				if err := wb.formulas.SetCellFormula(name, coordRef, c.Formula); err != nil {
					return err
				}
				if err := s.store.SetRecord(cellstore.NewFormulaPlaceholder(coordRef)); err != nil {
					return err
				}
				continue
			}
			rec, err := decodeCellXML(coordRef, c, strs)
			if err != nil {
				return err
			}
			if err := s.store.SetRecord(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeCellXML(c coord.Coordinate, cx xmlio.CellXML, strs []string) (cellstore.Record, error) {
	switch cx.Type {
		case "s":
			idx, err := strconv.Atoi(cx.Value)
			if err != nil || idx < 0 || idx >= len(strs) {
				return cellstore.Record{}, &ArgumentError{Op: "Load", Msg: "bad shared-string index " + cx.Value}
			}
			return cellstore.NewString(c, uint32(idx)), nil
		case "b":
			return cellstore.NewBoolean(c, cx.Value == "1"), nil
		case "e":
			return cellstore.NewError(c, errorCodeOf(formula.ErrorSentinel(cx.Value))), nil
		default:
			n, err := strconv.ParseFloat(cx.Value, 64)
			if err != nil {
				return cellstore.Record{}, &ArgumentError{Op: "Load", Msg: "bad numeric value " + cx.Value}
			}
			return cellstore.NewNumber(c, n), nil
	}
}

func loadWorkbookXML(reader *ooxml.Reader) (names []string, ids []int, err error) {
	data, err := reader.ReadPart("xl/workbook.xml")
	if err != nil {
		return nil, nil, &ParseError{Part: "xl/workbook.xml", Err: err}
	}
	parsed, err := parseWorkbookSheets(data)
	if err != nil {
		return nil, nil, &ParseError{Part: "xl/workbook.xml", Err: err}
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].ID < parsed[j].ID })
	for _, p := range parsed {
		names = append(names, p.Name)
		ids = append(ids, p.ID)
	}
	return names, ids, nil
}

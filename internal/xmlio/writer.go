package xmlio

import (
	"encoding/xml"
	"fmt"
	"sort"

	"github.com/wuxianggujun/tinaxlsx-go/internal/cellstore"
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
	"github.com/wuxianggujun/tinaxlsx-go/internal/merge"
	"github.com/wuxianggujun/tinaxlsx-go/internal/pool"
)

// xmlHeader and the spreadsheetML namespace declarations that every
// worksheet part opens with.
const (
	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	worksheetNamespace = ` xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
)

// SheetWriter streams one worksheet's XML part: writes accumulate in a
// bufferedWriter that spills to a temp file past spillChunk bytes, so a
// very large sheet never requires holding the full XML blob in memory.
type SheetWriter struct {
	out bufferedWriter
}

// NewSheetWriter opens the <worksheet><sheetData> preamble.
func NewSheetWriter() *SheetWriter {
	sw := &SheetWriter{}
	sw.out.WriteString(xmlHeader + `<worksheet` + worksheetNamespace + `>`)
	sw.out.WriteString(`<sheetData>`)
	return sw
}

// WriteAll emits every live cell in store as <row>/<c> elements, sorted by
// (row, col) per OOXML's ascending-order requirement, resolving string
// cells against strings and formula cells against formulaText.
func (sw *SheetWriter) WriteAll(store *cellstore.Store, strings *pool.StringPool, formulaText func(coord.Coordinate) (string, bool)) error {
	records := append([]cellstore.Record(nil), store.Records()...)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Coord().Less(records[j].Coord())
	})

	curRow := coord.RowIndex(0)
	open := false
	for _, rec := range records {
		if rec.IsEmpty() {
			continue
		}
		if rec.Coord().Row != curRow {
			if open {
				sw.out.WriteString(`</row>`)
			}
			fmt.Fprintf(&sw.out, `<row r="%d">`, rec.Coord().Row)
			curRow = rec.Coord().Row
			open = true
		}
		if err := writeCell(&sw.out, rec, strings, formulaText); err != nil {
			return err
		}
		if err := sw.out.Sync(); err != nil {
			return err
		}
	}
	if open {
		sw.out.WriteString(`</row>`)
	}
	return nil
}

// WriteMergeCells emits the <mergeCells> element for every region in idx.
func (sw *SheetWriter) WriteMergeCells(idx *merge.Index) {
	regions := idx.All()
	if len(regions) == 0 {
		return
	}
	fmt.Fprintf(&sw.out, `<mergeCells count="%d">`, len(regions))
	for _, r := range regions {
		fmt.Fprintf(&sw.out, `<mergeCell ref="%s"/>`, coord.FormatRangeRef(r))
	}
	sw.out.WriteString(`</mergeCells>`)
}

// Close finishes the worksheet element and returns the full XML bytes.
func (sw *SheetWriter) Close() ([]byte, error) {
	sw.out.WriteString(`</sheetData>`)
	sw.out.WriteString(`</worksheet>`)
	if err := sw.out.Flush(); err != nil {
		return nil, err
	}
	defer sw.out.Close()
	return sw.out.Bytes()
}

func writeCell(w *bufferedWriter, rec cellstore.Record, strings *pool.StringPool, formulaText func(coord.Coordinate) (string, bool)) error {
	ref := coord.CellName(rec.Coord())
	w.WriteString(`<c r="`)
	w.WriteString(ref)
	w.WriteString(`"`)
	if rec.StyleHandle() != 0 {
		fmt.Fprintf(w, ` s="%d"`, rec.StyleHandle())
	}

	switch rec.Type() {
		case cellstore.TypeString:
			s, _ := strings.Resolve(rec.StrOffset())
			idx, err := strings.Intern(s)
			if err != nil {
				return err
			}
			w.WriteString(` t="s"><v>`)
			fmt.Fprintf(w, "%d", idx)
			w.WriteString(`</v></c>`)
		case cellstore.TypeNumber:
			w.WriteString(`><v>`)
			fmt.Fprintf(w, "%g", rec.NumberValue())
			w.WriteString(`</v></c>`)
		case cellstore.TypeInteger:
			w.WriteString(`><v>`)
			fmt.Fprintf(w, "%d", rec.IntegerValue())
			w.WriteString(`</v></c>`)
		case cellstore.TypeBoolean:
			w.WriteString(` t="b"><v>`)
			if rec.BooleanValue() {
				w.WriteString("1")
			} else {
				w.WriteString("0")
			}
			w.WriteString(`</v></c>`)
		case cellstore.TypeFormula:
			body, _ := formulaText(rec.Coord())
			w.WriteString(`><f>`)
			xml.EscapeText(w, []byte(body))
			w.WriteString(`</f></c>`)
		case cellstore.TypeError:
			w.WriteString(` t="e"><v>`)
			xml.EscapeText(w, []byte(errorText(rec.ErrorCode())))
			w.WriteString(`</v></c>`)
		default:
			w.WriteString(`/>`)
	}
	return nil
}

// errorCodes mirrors internal/formula's ErrorSentinel constants by ordinal,
// kept independent of that package to avoid an xmlio -> formula import
// (the wire-format encoding of a formula error does not need the
// evaluator's types, only the five fixed strings requires).
var errorCodes = [...]string{"#DIV/0!", "#NAME?", "#VALUE!", "#REF!", "#CIRCULAR!"}

func errorText(code uint8) string {
	if int(code) < len(errorCodes) {
		return errorCodes[code]
	}
	return "#VALUE!"
}

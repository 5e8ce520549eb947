// Package ooxml assembles the ZIP-packaged XML parts of an XLSX file
// : [Content_Types].xml, _rels/.rels, xl/workbook.xml,
// xl/workbook.xml.rels, xl/worksheets/sheetN.xml, xl/calcChain.xml and the
// ZIP container itself.
package ooxml

import "encoding/xml"

// calcChain directly maps the <calcChain> element (ECMA-376 §18.6): the
// root of the calculation chain hint Excel uses to order recalculation,
// rebuilt from the workbook's formula cells on every save rather than
// persisted incrementally against a dirty set.
type calcChain struct {
	XMLName xml.Name `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main calcChain"`
	C []calcChainCell `xml:"c"`
}

// calcChainCell maps one <c> entry: a sheet id and cell reference, in the
// order the chain recommends recalculating them.
type calcChainCell struct {
	R string `xml:"r,attr"`
	I int `xml:"i,attr,omitempty"`
}

// CalcChainEntry is the input shape the workbook orchestrator supplies:
// one formula cell's sheet id and A1 reference. The workbook lists them
// sheet by sheet, in each sheet's cell-store order; they are not sorted by
// formula dependencies.
type CalcChainEntry struct {
	SheetID int
	CellRef string
}

// BuildCalcChain marshals entries, in the order given, into the
// calcChain.xml bytes, omitting the sheet id attribute when it repeats the
// previous entry's, exactly as ECMA-376 permits and as Excel itself emits.
func BuildCalcChain(entries []CalcChainEntry) ([]byte, error) {
	cc := calcChain{C: make([]calcChainCell, len(entries))}
	prev := 0
	for i, e := range entries {
		cell := calcChainCell{R: e.CellRef}
		if i == 0 || e.SheetID != prev {
			cell.I = e.SheetID
		}
		prev = e.SheetID
		cc.C[i] = cell
	}
	body, err := xml.Marshal(cc)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

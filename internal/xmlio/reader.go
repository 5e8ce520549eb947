package xmlio

import (
	"encoding/xml"
	"io"
	"strconv"

	"golang.org/x/net/html/charset"
)

// CellXML is the wire-level shape of a <c> element, before any coercion
// into a cellstore.Record (that coercion lives above this package, in the
// workbook orchestrator, which also owns the style/string pools needed to
// resolve handles).
type CellXML struct {
	Ref string // "B7"
	Type string // "", "s", "n", "b", "e", "str"
	Style string // raw "s" attribute, numeric string or ""
	Value string // <v> text
	Formula string // <f> text, if present
}

// RowCallback receives one decoded row at a time, in document order.
type RowCallback func(row int, cells []CellXML) error

// StringCallback receives one shared-string pool entry at a time, by its
// 0-based index.
type StringCallback func(index int, s string) error

// newDecoder wires golang.org/x/net/html/charset's CharsetReader so that a
// worksheet part which misdeclares or omits its encoding (OOXML mandates
// UTF-8, but legacy producers sometimes emit Windows-125x) still decodes
// instead of failing outright; golang.org/x/text/encoding backs the actual
// transcoding charset.NewReaderLabel delegates to.
func newDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	return dec
}

// ReadWorksheet streams <row> elements from a sheetN.xml part, invoking
// onRow once per row with its decoded cells. It never buffers the whole document in memory.
func ReadWorksheet(r io.Reader, onRow RowCallback) error {
	dec := newDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row xmlRow
		if err := dec.DecodeElement(&row, &se); err != nil {
			return err
		}
		rowNum, _ := strconv.Atoi(row.R)
		cells := make([]CellXML, len(row.C))
		for i, c := range row.C {
			cells[i] = CellXML{Ref: c.R, Type: c.T, Style: c.S, Value: c.V, Formula: c.F}
		}
		if err := onRow(rowNum, cells); err != nil {
			return err
		}
	}
}

// ReadSharedStrings streams <si> entries from sharedStrings.xml, handling
// both the plain <t> form and the rich-text <r><t>...</t></r> run form by
// concatenating run text, matching how Excel itself flattens rich strings
// on read.
func ReadSharedStrings(r io.Reader, onString StringCallback) error {
	dec := newDecoder(r)
	idx := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "si" {
			continue
		}
		var si xmlSI
		if err := dec.DecodeElement(&si, &se); err != nil {
			return err
		}
		text := si.T
		for _, run := range si.R {
			text += run.T
		}
		if err := onString(idx, text); err != nil {
			return err
		}
		idx++
	}
}

type xmlRow struct {
	R string `xml:"r,attr"`
	C []xmlCell `xml:"c"`
}

type xmlCell struct {
	R string `xml:"r,attr"`
	T string `xml:"t,attr"`
	S string `xml:"s,attr"`
	V string `xml:"v"`
	F string `xml:"f"`
}

type xmlSI struct {
	T string `xml:"t"`
	R []xmlRun `xml:"r"`
}

type xmlRun struct {
	T string `xml:"t"`
}

// Package style implements a deduplicating style/format catalogue,
// modeled on the xlsxStyleSheet/xlsxFont/xlsxFill/xlsxBorder/xlsxAlignment
// XML structs OOXML styles.xml is built from, with styles addressed by a
// dense handle rather than repeating the full tuple per cell.
package style

import (
	"encoding/xml"
	"sync"

	"github.com/mohae/deepcopy"
)

// Font, Fill, Border, Alignment and NumberFormat are the nested fields of a
// style tuple : deduplicated by structural content.
type Font struct {
	Name string
	Size float64
	Bold bool
	Italic bool
	Color string
}

type Fill struct {
	PatternType string
	FgColor string
	BgColor string
}

type BorderLine struct {
	Style string
	Color string
}

type Border struct {
	Left, Right, Top, Bottom BorderLine
}

type Alignment struct {
	Horizontal string
	Vertical string
	WrapText bool
	Indent int
}

// Style is the full (font, fill, border, alignment, number-format) tuple a
// handle resolves to.
type Style struct {
	Font Font
	Fill Fill
	Border Border
	Alignment Alignment
	NumberFormat string // e.g. "0.00%", "" meaning General
}

// key returns a value usable as a Go map key; Style is already comparable
// (no slices/maps inside), so it can serve as its own key.
func (s Style) key() Style { return s }

// DefaultHandle is always present after construction without explicit
// insertion.
const DefaultHandle uint32 = 0

// Catalogue deduplicates Style tuples behind dense uint32 handles starting
// at 0. Internally synchronised.
type Catalogue struct {
	mu sync.Mutex
	byValue map[Style]uint32
	byIndex []Style
}

// New creates a catalogue with the default style already present at
// handle 0.
func New() *Catalogue {
	c := &Catalogue{byValue: make(map[Style]uint32)}
	def := Style{NumberFormat: "General"}
	c.byValue[def.key()] = DefaultHandle
	c.byIndex = append(c.byIndex, def)
	return c
}

// GetOrInsert deduplicates s by structural equality across all nested
// fields and returns a stable handle.
func (c *Catalogue) GetOrInsert(s Style) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.byValue[s.key()]; ok {
		return h
	}
	// A defensive deep copy before inserting guards against a caller
	// later mutating a Style value it passed in by value containing
	// pointer-ish nested data.
	snap := deepcopy.Copy(s).(Style)
	h := uint32(len(c.byIndex))
	c.byIndex = append(c.byIndex, snap)
	c.byValue[snap.key()] = h
	return h
}

// Resolve returns the Style for handle.
func (c *Catalogue) Resolve(handle uint32) (Style, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(handle) >= len(c.byIndex) {
		return Style{}, false
	}
	return c.byIndex[handle], true
}

// Len returns the number of distinct styles, including the default.
func (c *Catalogue) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byIndex)
}

// numberFormats collects the distinct custom number formats across every
// registered style, assigning them OOXML format IDs starting at 164 (the
// first ID not reserved for a builtin format).
func (c *Catalogue) numberFormats() (ids map[string]int, order []string) {
	ids = make(map[string]int)
	next := 164
	for _, s := range c.byIndex {
		if s.NumberFormat == "" || s.NumberFormat == "General" {
			continue
		}
		if _, ok := ids[s.NumberFormat]; ok {
			continue
		}
		ids[s.NumberFormat] = next
		order = append(order, s.NumberFormat)
		next++
	}
	return ids, order
}

// --- XML emission ---

type xlsxNumFmt struct {
	NumFmtID int `xml:"numFmtId,attr"`
	FormatCode string `xml:"formatCode,attr"`
}

type xlsxNumFmts struct {
	Count int `xml:"count,attr"`
	NumFmt []xlsxNumFmt `xml:"numFmt"`
}

type xlsxFontXML struct {
	Sz float64 `xml:"sz>val,omitempty"`
	Name string `xml:"name>val,omitempty"`
	B *bool `xml:"b,omitempty"`
	I *bool `xml:"i,omitempty"`
}

type xlsxFonts struct {
	Count int `xml:"count,attr"`
	Font []xlsxFontXML `xml:"font"`
}

type xlsxXf struct {
	NumFmtID int `xml:"numFmtId,attr"`
	FontID int `xml:"fontId,attr"`
	FillID int `xml:"fillId,attr"`
	BorderID int `xml:"borderId,attr"`
	ApplyNumFmt bool `xml:"applyNumberFormat,attr,omitempty"`
	ApplyFont bool `xml:"applyFont,attr,omitempty"`
}

type xlsxCellXfs struct {
	Count int `xml:"count,attr"`
	Xf []xlsxXf `xml:"xf"`
}

// StyleSheetXML is the root <styleSheet> element written to xl/styles.xml.
type StyleSheetXML struct {
	XMLName xml.Name `xml:"http://schemas.openxmlformats.org/spreadsheetml/2006/main styleSheet"`
	NumFmts *xlsxNumFmts `xml:"numFmts,omitempty"`
	Fonts xlsxFonts `xml:"fonts"`
	CellXfs xlsxCellXfs `xml:"cellXfs"`
}

// MarshalXML builds the styles.xml content for every registered style.
func (c *Catalogue) MarshalXML() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	numFmtIDs, order := c.numberFormats()
	var sheet StyleSheetXML
	if len(order) > 0 {
		nf := &xlsxNumFmts{Count: len(order)}
		for _, code := range order {
			nf.NumFmt = append(nf.NumFmt, xlsxNumFmt{NumFmtID: numFmtIDs[code], FormatCode: code})
		}
		sheet.NumFmts = nf
	}

	sheet.Fonts.Count = len(c.byIndex)
	sheet.CellXfs.Count = len(c.byIndex)
	for _, s := range c.byIndex {
		b := s.Font.Bold
		it := s.Font.Italic
		sheet.Fonts.Font = append(sheet.Fonts.Font, xlsxFontXML{
			Sz: s.Font.Size, Name: s.Font.Name, B: boolPtr(b), I: boolPtr(it),
		})
		numFmtID := 0
		applyNumFmt := false
		if id, ok := numFmtIDs[s.NumberFormat]; ok {
			numFmtID = id
			applyNumFmt = true
		}
		sheet.CellXfs.Xf = append(sheet.CellXfs.Xf, xlsxXf{
			NumFmtID: numFmtID,
			ApplyNumFmt: applyNumFmt,
			ApplyFont: true,
		})
	}
	return xml.Marshal(sheet)
}

func boolPtr(b bool) *bool {
	if !b {
		return nil
	}
	return &b
}

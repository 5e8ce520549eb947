package ooxml

import (
	"encoding/xml"
	"fmt"
)

// SheetMeta describes one worksheet's identity within the package.
type SheetMeta struct {
	Name string
	ID int // 1-based sheet id, also used in xl/worksheets/sheetN.xml
	Visible bool
}

// BuildContentTypes emits [Content_Types].xml, declaring the workbook,
// shared strings, styles and calc chain defaults plus one override per
// worksheet part.
func BuildContentTypes(sheets []SheetMeta) ([]byte, error) {
	const (
		ctWorkbook = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
		ctWorksheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
		ctStyles = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
		ctSharedStr = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
		ctCalcChain = "application/vnd.openxmlformats-officedocument.spreadsheetml.calcChain+xml"
	)
	ct := contentTypes{
		Xmlns: contentTypesNamespace,
		Defaults: []ctDefault{
			{Extension: "rels", ContentType: "application/vnd.openxmlformats-package.relationships+xml"},
			{Extension: "xml", ContentType: "application/xml"},
		},
		Overrides: []ctOverride{
			{PartName: "/xl/workbook.xml", ContentType: ctWorkbook},
			{PartName: "/xl/styles.xml", ContentType: ctStyles},
			{PartName: "/xl/sharedStrings.xml", ContentType: ctSharedStr},
			{PartName: "/xl/calcChain.xml", ContentType: ctCalcChain},
		},
	}
	for _, s := range sheets {
		ct.Overrides = append(ct.Overrides, ctOverride{
			PartName: fmt.Sprintf("/xl/worksheets/sheet%d.xml", s.ID),
			ContentType: ctWorksheet,
		})
	}
	body, err := xml.Marshal(ct)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

const contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

type contentTypes struct {
	XMLName xml.Name `xml:"Types"`
	Xmlns string `xml:"xmlns,attr"`
	Defaults []ctDefault `xml:"Default"`
	Overrides []ctOverride `xml:"Override"`
}

type ctDefault struct {
	Extension string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverride struct {
	PartName string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// BuildRootRels emits _rels/.rels, the single relationship that points the
// package at xl/workbook.xml.
func BuildRootRels() ([]byte, error) {
	rels := relationships{
		Xmlns: relsNamespace,
		Rel: []relationship{
			{ID: "rId1", Type: relTypeOfficeDocument, Target: "xl/workbook.xml"},
		},
	}
	body, err := xml.Marshal(rels)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// BuildWorkbookRels emits xl/_rels/workbook.xml.rels: one relationship per
// worksheet plus fixed ones for styles/sharedStrings/calcChain.
func BuildWorkbookRels(sheets []SheetMeta) ([]byte, error) {
	rels := relationships{Xmlns: relsNamespace}
	nextID := 1
	for _, s := range sheets {
		rels.Rel = append(rels.Rel, relationship{
			ID: fmt.Sprintf("rId%d", nextID),
			Type: relTypeWorksheet,
			Target: fmt.Sprintf("worksheets/sheet%d.xml", s.ID),
		})
		nextID++
	}
	rels.Rel = append(rels.Rel,
		relationship{ID: fmt.Sprintf("rId%d", nextID), Type: relTypeStyles, Target: "styles.xml"})
	nextID++
	rels.Rel = append(rels.Rel,
		relationship{ID: fmt.Sprintf("rId%d", nextID), Type: relTypeSharedStrings, Target: "sharedStrings.xml"})
	nextID++
	rels.Rel = append(rels.Rel,
		relationship{ID: fmt.Sprintf("rId%d", nextID), Type: relTypeCalcChain, Target: "calcChain.xml"})

	body, err := xml.Marshal(rels)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

const (
	relsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeWorksheet = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"
	relTypeStyles = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relTypeSharedStrings = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"
	relTypeCalcChain = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/calcChain"
)

type relationships struct {
	XMLName xml.Name `xml:"Relationships"`
	Xmlns string `xml:"xmlns,attr"`
	Rel []relationship `xml:"Relationship"`
}

type relationship struct {
	ID string `xml:"Id,attr"`
	Type string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// BuildWorkbookXML emits xl/workbook.xml, the <sheets> index mapping each
// worksheet name/id to its relationship id.
func BuildWorkbookXML(sheets []SheetMeta, date1904 bool) ([]byte, error) {
	wb := workbookXML{Xmlns: worksheetNamespaceConst, XmlnsR: relationshipNamespace}
	if date1904 {
		wb.CalcPr = &calcPr{CalcID: 0, FullCalcOnLoad: true}
	}
	for i, s := range sheets {
		wb.Sheets.Sheet = append(wb.Sheets.Sheet, sheetEntry{
			Name: s.Name,
			SheetID: s.ID,
			RID: fmt.Sprintf("rId%d", i+1),
		})
	}
	body, err := xml.Marshal(wb)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

const (
	worksheetNamespaceConst = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	relationshipNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

type workbookXML struct {
	XMLName xml.Name `xml:"workbook"`
	Xmlns string `xml:"xmlns,attr"`
	XmlnsR string `xml:"xmlns:r,attr"`
	CalcPr *calcPr `xml:"calcPr,omitempty"`
	Sheets sheetsBlock `xml:"sheets"`
}

type sheetsBlock struct {
	Sheet []sheetEntry `xml:"sheet"`
}

type sheetEntry struct {
	Name string `xml:"name,attr"`
	SheetID int `xml:"sheetId,attr"`
	RID string `xml:"r:id,attr"`
}

type calcPr struct {
	CalcID int `xml:"calcId,attr"`
	FullCalcOnLoad bool `xml:"fullCalcOnLoad,attr,omitempty"`
}

// WorksheetPartPath returns the package-relative path for worksheet id n.
func WorksheetPartPath(id int) string { return fmt.Sprintf("xl/worksheets/sheet%d.xml", id) }

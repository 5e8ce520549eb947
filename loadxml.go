package xlcore

import (
	"bytes"
	"encoding/xml"
	"io"
)

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }

type workbookSheetEntry struct {
	Name string `xml:"name,attr"`
	ID int `xml:"sheetId,attr"`
}

type workbookSheetsXML struct {
	XMLName xml.Name `xml:"workbook"`
	Sheets []workbookSheetEntry `xml:"sheets>sheet"`
}

// parseWorkbookSheets extracts the sheet name/id list from a raw
// xl/workbook.xml part, the minimum a Load needs to carry the sheet list.
func parseWorkbookSheets(data []byte) ([]workbookSheetEntry, error) {
	var wb workbookSheetsXML
	if err := xml.Unmarshal(data, &wb); err != nil {
		return nil, err
	}
	return wb.Sheets, nil
}

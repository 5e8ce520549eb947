package xmlio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxianggujun/tinaxlsx-go/internal/cellstore"
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
	"github.com/wuxianggujun/tinaxlsx-go/internal/merge"
	"github.com/wuxianggujun/tinaxlsx-go/internal/pool"
)

func TestSheetWriterEmitsRowsInOrder(t *testing.T) {
	store := cellstore.New(cellstore.NewArena(cellstore.DefaultCeiling))
	strs := pool.New(0)
	h, err := strs.Intern("hello")
	require.NoError(t, err)

	require.NoError(t, store.SetRecord(cellstore.NewNumber(coord.Coordinate{Row: 2, Col: 1}, 3.5)))
	require.NoError(t, store.SetRecord(cellstore.NewString(coord.Coordinate{Row: 1, Col: 1}, h)))

	sw := NewSheetWriter()
	require.NoError(t, sw.WriteAll(store, strs, func(coord.Coordinate) (string, bool) { return "", false }))
	out, err := sw.Close()
	require.NoError(t, err)

	xmlStr := string(out)
	assert.True(t, strings.Index(xmlStr, `r="A1"`) < strings.Index(xmlStr, `r="A2"`))
	assert.Contains(t, xmlStr, `t="s"`)
}

func TestSheetWriterMergeCells(t *testing.T) {
	idx := merge.New()
	require.True(t, idx.Merge(coord.Range{Start: coord.Coordinate{Row: 1, Col: 1}, End: coord.Coordinate{Row: 2, Col: 2}}))

	sw := NewSheetWriter()
	sw.WriteMergeCells(idx)
	out, err := sw.Close()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<mergeCell ref="A1:B2"/>`)
}

func TestReadWorksheetRoundTrip(t *testing.T) {
	xmlDoc := `<?xml version="1.0"?><worksheet><sheetData>` +
	`<row r="1"><c r="A1" t="s"><v>0</v></c></row>` +
	`<row r="2"><c r="A2"><f>A1+1</f><v>2</v></c></row>` +
	`</sheetData></worksheet>`

	var rows []int
	err := ReadWorksheet(strings.NewReader(xmlDoc), func(row int, cells []CellXML) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, rows)
}

func TestReadSharedStringsFlattensRichText(t *testing.T) {
	xmlDoc := `<?xml version="1.0"?><sst>` +
	`<si><t>plain</t></si>` +
	`<si><r><t>rich</t></r><r><t>text</t></r></si>` +
	`</sst>`
	var out []string
	err := ReadSharedStrings(strings.NewReader(xmlDoc), func(idx int, s string) error {
		out = append(out, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", "richtext"}, out)
}

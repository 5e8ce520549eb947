package formula

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// Axis selects which half of a reference ShiftReferences adjusts.
type Axis int

const (
	AxisRow Axis = iota
	AxisCol
)

// refToken matches a single A1 reference, optionally sheet-qualified and
// optionally a range, directly against formula source text: an optional
// "Name!" prefix, then "$?COL$?ROW", then optionally ":$?COL$?ROW".
var refToken = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*!)?(\$?)([A-Z]{1,3})(\$?)([0-9]+)(:(\$?)([A-Z]{1,3})(\$?)([0-9]+))?`)

var stringLiteral = regexp.MustCompile(`"[^"]*"`)

// ShiftReferences rewrites every stored formula's text and dependency edges
// so that a reference to sheet at or past pos along axis is adjusted by
// delta, keeping formulas pointed at the same logical cells after a row or
// column insert/delete on sheet. Formulas on other sheets, and references
// to other sheets, are left untouched.
func (m *Manager) ShiftReferences(sheet string, axis Axis, pos, delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.formulas {
		newText, changed := shiftFormulaText(e.text, e.sheet, sheet, axis, pos, delta)
		if !changed {
			continue
		}
		ast, err := Parse(newText)
		if err != nil {
			// A rewrite that fails to re-parse is left as-is rather than
			// risk corrupting a formula the caller cannot see.
			continue
		}
		e.text = newText
		e.ast = ast
		var deps []NodeKey
		for _, ref := range References(ast) {
			refSheet := ref.Sheet
			if refSheet == "" {
				refSheet = e.sheet
			}
			for _, c := range ref.Cells() {
				deps = append(deps, nodeKey(refSheet, c))
			}
		}
		m.graph.setEdges(key, deps)
	}
}

// shiftFormulaText applies the shift to every reference token in text that
// targets targetSheet (formulaSheet when a token carries no sheet prefix of
// its own). String literals are masked out first so a reference-shaped
// substring inside a quoted string is never mistaken for a real one.
func shiftFormulaText(text, formulaSheet, targetSheet string, axis Axis, pos, delta int) (string, bool) {
	masked, literals := maskStringLiterals(text)
	changed := false
	out := refToken.ReplaceAllStringFunc(masked, func(tok string) string {
		parts := refToken.FindStringSubmatch(tok)
		sheetPrefix := parts[1]
		refSheet := formulaSheet
		if sheetPrefix != "" {
			refSheet = strings.TrimSuffix(sheetPrefix, "!")
		}
		if refSheet != targetSheet {
			return tok
		}
		first, ok := shiftOneCell(parts[2], parts[3], parts[4], parts[5], axis, pos, delta)
		if !ok {
			return tok
		}
		if parts[6] == "" {
			out := sheetPrefix + first
			if out != tok {
				changed = true
			}
			return out
		}
		second, ok2 := shiftOneCell(parts[7], parts[8], parts[9], parts[10], axis, pos, delta)
		if !ok2 {
			second = parts[7] + parts[8] + parts[9] + parts[10]
		}
		out := sheetPrefix + first + ":" + second
		if out != tok {
			changed = true
		}
		return out
	})
	return unmaskStringLiterals(out, literals), changed
}

// shiftOneCell shifts a single "$?COL$?ROW" token by delta along axis if
// its position is >= pos, preserving the '$' anchors and the rest of the
// reference verbatim. ok is false when colLetters/rowDigits don't parse as
// a real reference (e.g. the regex matched something else entirely).
func shiftOneCell(colMark, colLetters, rowMark, rowDigits string, axis Axis, pos, delta int) (string, bool) {
	row, err := strconv.Atoi(rowDigits)
	if err != nil {
		return "", false
	}
	col, err := coord.ColumnIndex(colLetters)
	if err != nil {
		return "", false
	}
	switch axis {
		case AxisRow:
			if row < pos {
				return colMark + colLetters + rowMark + rowDigits, true
			}
			row += delta
			if row < 1 {
				row = 1
			}
		case AxisCol:
			if int(col) < pos {
				return colMark + colLetters + rowMark + rowDigits, true
			}
			col = coord.ColIndex(int(col) + delta)
			if col < 1 {
				col = 1
			}
	}
	return colMark + coord.ColumnName(col) + rowMark + strconv.Itoa(row), true
}

// maskStringLiterals replaces every "..." literal in text with a
// placeholder token, returning the replaced text plus the literals in
// order so unmaskStringLiterals can restore them.
func maskStringLiterals(text string) (string, []string) {
	var literals []string
	masked := stringLiteral.ReplaceAllStringFunc(text, func(lit string) string {
		literals = append(literals, lit)
		return "\x00" + strconv.Itoa(len(literals)-1) + "\x00"
	})
	return masked, literals
}

func unmaskStringLiterals(text string, literals []string) string {
	for i, lit := range literals {
		text = strings.ReplaceAll(text, "\x00"+strconv.Itoa(i)+"\x00", lit)
	}
	return text
}

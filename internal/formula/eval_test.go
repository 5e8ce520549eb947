package formula

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// fakeResolver backs a tiny in-memory sheet -> cell -> Value map, standing
// in for the workbook-level cell store during evaluator tests.
type fakeResolver struct {
	cells map[string]map[coord.Coordinate]Value
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{cells: make(map[string]map[coord.Coordinate]Value)}
}

func (f *fakeResolver) set(sheet string, c coord.Coordinate, v Value) {
	if f.cells[sheet] == nil {
		f.cells[sheet] = make(map[coord.Coordinate]Value)
	}
	f.cells[sheet][c] = v
}

func (f *fakeResolver) ResolveCell(defaultSheet string, ref Reference) Value {
	sheet := ref.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}
	m, ok := f.cells[sheet]
	if !ok {
		return Empty()
	}
	v, ok := m[ref.Cell]
	if !ok {
		return Empty()
	}
	return v
}

func mustParse(t *testing.T, body string) *expr {
	t.Helper()
	e, err := Parse(body)
	require.NoError(t, err)
	return e
}

func cellAt(a1 string) coord.Coordinate {
	c, err := coord.ParseCellName(a1)
	if err != nil {
		panic(err)
	}
	return c
}

func TestEvalUnqualifiedReferenceUsesFormulaSheet(t *testing.T) {
	res := newFakeResolver()
	res.set("Sheet1", cellAt("A1"), Num(42))
	v := Eval(mustParse(t, "A1"), "Sheet1", res)
	assert.Equal(t, 42.0, v.Num)
}

func TestEvalQualifiedReferenceUsesItsOwnSheet(t *testing.T) {
	res := newFakeResolver()
	res.set("Sheet2", cellAt("A1"), Num(7))
	v := Eval(mustParse(t, "Sheet2!A1"), "Sheet1", res)
	assert.Equal(t, 7.0, v.Num)
}

func TestEvalDivisionByZero(t *testing.T) {
	v := Eval(mustParse(t, "1/0"), "Sheet1", nil)
	assert.Equal(t, KindError, v.Kind)
	assert.Equal(t, ErrDivZero, v.ErrVal)
}

func TestEvalSumOverRange(t *testing.T) {
	res := newFakeResolver()
	res.set("Sheet1", cellAt("A1"), Num(1))
	res.set("Sheet1", cellAt("A2"), Num(2))
	res.set("Sheet1", cellAt("A3"), Num(3))
	v := Eval(mustParse(t, "SUM(A1:A3)"), "Sheet1", res)
	assert.Equal(t, 6.0, v.Num)
}

func TestEvalAverageSkipsEmptyCells(t *testing.T) {
	res := newFakeResolver()
	res.set("Sheet1", cellAt("A1"), Num(10))
	res.set("Sheet1", cellAt("A3"), Num(20))
	v := Eval(mustParse(t, "AVERAGE(A1:A3)"), "Sheet1", res)
	assert.Equal(t, 15.0, v.Num)
}

func TestEvalIfBranches(t *testing.T) {
	v := Eval(mustParse(t, "IF(1,2,3)"), "Sheet1", nil)
	assert.Equal(t, 2.0, v.Num)
	v = Eval(mustParse(t, "IF(0,2,3)"), "Sheet1", nil)
	assert.Equal(t, 3.0, v.Num)
}

func TestEvalConcatenateAndLen(t *testing.T) {
	v := Eval(mustParse(t, `CONCATENATE("ab","cd")`), "Sheet1", nil)
	assert.Equal(t, "abcd", v.Str)
	v = Eval(mustParse(t, `LEN("hello")`), "Sheet1", nil)
	assert.Equal(t, 5.0, v.Num)
}

func TestEvalRound(t *testing.T) {
	v := Eval(mustParse(t, "ROUND(3.14159,2)"), "Sheet1", nil)
	assert.Equal(t, 3.14, v.Num)
}

func TestEvalUnknownFunctionIsNameError(t *testing.T) {
	v := Eval(mustParse(t, "BOGUS(1)"), "Sheet1", nil)
	assert.Equal(t, ErrName, v.ErrVal)
}

func TestEvalTodayIsMidnightSerial(t *testing.T) {
	fixed := time.Date(2024, time.March, 1, 15, 30, 0, 0, time.UTC)
	old := clockFunc
	clockFunc = func() time.Time { return fixed }
	defer func() { clockFunc = old }()

	v := Eval(mustParse(t, "TODAY()"), "Sheet1", nil)
	_, frac := splitSerial(v.Num)
	assert.InDelta(t, 0, frac, 1e-9)
}

func splitSerial(n float64) (whole float64, frac float64) {
	whole = float64(int64(n))
	frac = n - whole
	return
}

func TestEvalErrorPropagatesThroughArithmetic(t *testing.T) {
	res := newFakeResolver()
	res.set("Sheet1", cellAt("A1"), Err(ErrRef))
	v := Eval(mustParse(t, "A1+1"), "Sheet1", res)
	assert.Equal(t, ErrRef, v.ErrVal)
}

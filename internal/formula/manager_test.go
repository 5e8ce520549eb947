package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSetAndGetFormula(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A3"), "A1+A2"))
	text, ok := m.GetCellFormula("Sheet1", cellAt("A3"))
	require.True(t, ok)
	assert.Equal(t, "A1+A2", text)
	assert.True(t, m.HasFormula("Sheet1", cellAt("A3")))
}

func TestManagerRemoveFormula(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A1"), "1+1"))
	m.RemoveFormula("Sheet1", cellAt("A1"))
	assert.False(t, m.HasFormula("Sheet1", cellAt("A1")))
}

func TestManagerCalculateAllSimpleSum(t *testing.T) {
	m := NewManager()
	res := newFakeResolver()
	res.set("Sheet1", cellAt("A1"), Num(1))
	res.set("Sheet1", cellAt("A2"), Num(2))
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A3"), "SUM(A1:A2)"))

	out := m.CalculateAll(res)
	v := out[nodeKey("Sheet1", cellAt("A3"))]
	assert.Equal(t, 3.0, v.Num)
}

func TestManagerDetectsDirectCircularReference(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A1"), "A2+1"))
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A2"), "A1+1"))

	cycles := m.DetectCircularReferences()
	require.NotEmpty(t, cycles)

	out := m.CalculateAll(newFakeResolver())
	assert.Equal(t, ErrCircular, out[nodeKey("Sheet1", cellAt("A1"))].ErrVal)
	assert.Equal(t, ErrCircular, out[nodeKey("Sheet1", cellAt("A2"))].ErrVal)
}

func TestManagerDetectsThreeCellCircularReference(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A1"), "A2+1"))
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A2"), "A3+1"))
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A3"), "A1+1"))

	assert.True(t, len(m.DetectCircularReferences()) > 0)
}

func TestManagerSelfReferenceIsCircular(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A1"), "A1+1"))
	assert.True(t, len(m.DetectCircularReferences()) > 0)
}

func TestManagerRecalcDependentsOrder(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("B1"), "A1*2"))
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("C1"), "B1+1"))

	deps := m.RecalcDependents("Sheet1", cellAt("A1"))
	require.Len(t, deps, 2)
	pos := make(map[NodeKey]int)
	for i, n := range deps {
		pos[n] = i
	}
	assert.Less(t, pos[nodeKey("Sheet1", cellAt("B1"))], pos[nodeKey("Sheet1", cellAt("C1"))])
}

func TestManagerNamedRangeLifecycle(t *testing.T) {
	m := NewManager()
	ref, ok := ParseReference("Sheet1!A1:A10")
	require.True(t, ok)
	require.NoError(t, m.AddNamedRange("SalesRange", ref))
	assert.True(t, m.HasNamedRange("SalesRange"))

	err := m.AddNamedRange("SalesRange", ref)
	assert.Error(t, err)

	require.NoError(t, m.RenameNamedRange("SalesRange", "Sales"))
	assert.False(t, m.HasNamedRange("SalesRange"))
	assert.True(t, m.HasNamedRange("Sales"))

	m.RemoveNamedRange("Sales")
	assert.False(t, m.HasNamedRange("Sales"))
}

func TestManagerValidateFormulaRejectsSyntaxError(t *testing.T) {
	assert.NoError(t, ValidateFormula("1+2"))
	assert.Error(t, ValidateFormula("1+"))
}

func TestManagerGetFormulaErrorsAfterCalculateAll(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A1"), "1/0"))
	m.CalculateAll(newFakeResolver())

	errs := m.GetFormulaErrors()
	assert.Equal(t, ErrDivZero, errs[nodeKey("Sheet1", cellAt("A1"))])
}

func TestParseFormulaRangeReferencesFiltersToRanges(t *testing.T) {
	refs, err := ParseFormulaRangeReferences("A1+SUM(B1:B3)")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].IsRange)
}

func TestManagerStatsReflectState(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.SetCellFormula("Sheet1", cellAt("A1"), "1+1"))
	ref, _ := ParseReference("Sheet1!A1")
	require.NoError(t, m.AddNamedRange("X", ref))

	stats := m.Stats()
	assert.Equal(t, 1, stats.FormulaCount)
	assert.Equal(t, 1, stats.NamedRangeCount)
	assert.Equal(t, 0, stats.CircularCount)
}

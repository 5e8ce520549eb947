package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArithmeticPrecedence(t *testing.T) {
	e, err := Parse("1+2*3")
	require.NoError(t, err)
	v := Eval(e, "Sheet1", nil)
	assert.Equal(t, KindNumber, v.Kind)
	assert.Equal(t, 7.0, v.Num)
}

func TestParseUnqualifiedReference(t *testing.T) {
	e, err := Parse("A1")
	require.NoError(t, err)
	require.Equal(t, exprRef, e.kind)
	assert.Equal(t, "", e.ref.Sheet)
}

func TestParseQualifiedRange(t *testing.T) {
	e, err := Parse("Sheet2!A1:B2")
	require.NoError(t, err)
	require.Equal(t, exprRange, e.kind)
	assert.Equal(t, "Sheet2", e.ref.Sheet)
	assert.True(t, e.ref.IsRange)
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := Parse("1+2)")
	assert.Error(t, err)
}

func TestParseFunctionCall(t *testing.T) {
	e, err := Parse(`CONCATENATE("a","b")`)
	require.NoError(t, err)
	require.Equal(t, exprCall, e.kind)
	assert.Equal(t, "CONCATENATE", e.name)
	assert.Len(t, e.args, 2)
}

func TestReferencesCollectsAllNodes(t *testing.T) {
	e, err := Parse("A1+SUM(B1:B3)")
	require.NoError(t, err)
	refs := References(e)
	require.Len(t, refs, 2)
	assert.False(t, refs[0].IsRange)
	assert.True(t, refs[1].IsRange)
}

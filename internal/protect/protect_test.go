package protect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

func TestUnprotectNoPassword(t *testing.T) {
	m := New()
	require.NoError(t, m.Protect("", 0, 0))
	assert.True(t, m.IsProtected())
	assert.True(t, m.Unprotect(""))
	assert.False(t, m.IsProtected())
}

func TestUnprotectWrongPasswordFails(t *testing.T) {
	m := New()
	require.NoError(t, m.Protect("secret", 0, 0))
	assert.False(t, m.Unprotect("wrong"))
	assert.True(t, m.IsProtected())
	assert.True(t, m.Unprotect("secret"))
}

func TestReprotectWithDifferentPasswordRequiresUnprotectFirst(t *testing.T) {
	m := New()
	require.NoError(t, m.Protect("first", 0, 0))
	err := m.Protect("second", 0, 0)
	assert.Error(t, err)
}

func TestCellEditability(t *testing.T) {
	m := New()
	c := coord.Coordinate{Row: 1, Col: 1}
	require.NoError(t, m.Protect("", OpSelectLocked, 0))
	assert.False(t, m.IsCellEditable(c)) // locked by default, sheet protected

	m.SetCellLocked(c, false)
	assert.True(t, m.IsCellEditable(c))
}

func TestIsOperationAllowedUnprotected(t *testing.T) {
	m := New()
	assert.True(t, m.IsOperationAllowed(OpSort))
}

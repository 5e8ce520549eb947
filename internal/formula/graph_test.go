package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

func TestGraphDetectsDirectCycle(t *testing.T) {
	g := newGraph()
	a := nodeKey("Sheet1", cellAt("A1"))
	b := nodeKey("Sheet1", cellAt("A2"))
	g.setEdges(a, []NodeKey{b})
	g.setEdges(b, []NodeKey{a})

	assert.True(t, g.HasCycle())
	cycles := g.DetectCycles()
	require.NotEmpty(t, cycles)
}

func TestGraphNoCycleOnDag(t *testing.T) {
	g := newGraph()
	a := nodeKey("Sheet1", cellAt("A1"))
	b := nodeKey("Sheet1", cellAt("A2"))
	c := nodeKey("Sheet1", cellAt("A3"))
	g.setEdges(a, []NodeKey{b})
	g.setEdges(b, []NodeKey{c})

	assert.False(t, g.HasCycle())
}

func TestGraphCalculationOrderRespectsDependencies(t *testing.T) {
	g := newGraph()
	a := nodeKey("Sheet1", cellAt("A1")) // A1 = A2 + A3
	b := nodeKey("Sheet1", cellAt("A2"))
	c := nodeKey("Sheet1", cellAt("A3"))
	g.setEdges(a, []NodeKey{b, c})

	order := g.CalculationOrder()
	pos := make(map[NodeKey]int)
	for i, n := range order {
		pos[n] = i
	}
	assert.Less(t, pos[b], pos[a])
	assert.Less(t, pos[c], pos[a])
}

func TestGraphReverseReachableFindsDependents(t *testing.T) {
	g := newGraph()
	a := nodeKey("Sheet1", cellAt("A1"))
	b := nodeKey("Sheet1", cellAt("A2"))
	c := nodeKey("Sheet1", cellAt("A3"))
	g.setEdges(b, []NodeKey{a}) // A2 depends on A1
	g.setEdges(c, []NodeKey{b}) // A3 depends on A2

	deps := g.ReverseReachable(a)
	assert.Contains(t, deps, b)
	assert.Contains(t, deps, c)
}

func TestGraphSetEdgesReplacesPriorEdges(t *testing.T) {
	g := newGraph()
	a := nodeKey("Sheet1", cellAt("A1"))
	b := nodeKey("Sheet1", cellAt("A2"))
	c := nodeKey("Sheet1", cellAt("A3"))
	g.setEdges(a, []NodeKey{b})
	g.setEdges(a, []NodeKey{c})

	assert.ElementsMatch(t, []NodeKey{c}, g.Dependencies(a))
	assert.Empty(t, g.Dependents(b))
	assert.ElementsMatch(t, []NodeKey{a}, g.Dependents(c))
}

func TestNodeKeyFormat(t *testing.T) {
	k := nodeKey("Sheet1", coord.Coordinate{Row: 7, Col: 2})
	assert.Equal(t, NodeKey("Sheet1!B7"), k)
}

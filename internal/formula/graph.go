package formula

import (
	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// NodeKey uniquely identifies a cell across sheets within one workbook's
// formula graph: "Sheet!A1".
type NodeKey string

func nodeKey(sheet string, c coord.Coordinate) NodeKey {
	return NodeKey(sheet + "!" + coord.CellName(c))
}

// Graph is the directed dependency graph: nodes are formula-bearing
// coordinates, edges point from a formula cell to each coordinate it
// textually references (ranges pre-expanded to their enumeration).
type Graph struct {
	edges map[NodeKey][]NodeKey // node -> its dependencies
	reverse map[NodeKey][]NodeKey // dependency -> dependents
}

func newGraph() *Graph {
	return &Graph{edges: make(map[NodeKey][]NodeKey), reverse: make(map[NodeKey][]NodeKey)}
}

// setEdges replaces node's outgoing edges, maintaining the reverse index.
func (g *Graph) setEdges(node NodeKey, deps []NodeKey) {
	g.clearEdges(node)
	g.edges[node] = deps
	for _, d := range deps {
		g.reverse[d] = append(g.reverse[d], node)
	}
}

func (g *Graph) clearEdges(node NodeKey) {
	for _, d := range g.edges[node] {
		lst := g.reverse[d]
		for i, n := range lst {
			if n == node {
				g.reverse[d] = append(lst[:i], lst[i+1:]...)
				break
			}
		}
	}
	delete(g.edges, node)
}

// Dependencies returns node's direct dependencies (what it reads from).
func (g *Graph) Dependencies(node NodeKey) []NodeKey { return append([]NodeKey{}, g.edges[node]...) }

// Dependents returns the nodes that directly depend on node.
func (g *Graph) Dependents(node NodeKey) []NodeKey { return append([]NodeKey{}, g.reverse[node]...) }

type color int

const (
	white color = iota
	gray
	black
)

// DetectCycles runs a three-colour DFS from every formula node, returning
// every distinct cycle found as the stack-prefix starting at the discovered
// grey node.
func (g *Graph) DetectCycles() [][]NodeKey {
	colors := make(map[NodeKey]color)
	var cycles [][]NodeKey
	var stack []NodeKey

	var visit func(n NodeKey)
	visit = func(n NodeKey) {
		colors[n] = gray
		stack = append(stack, n)
		for _, dep := range g.edges[n] {
			switch colors[dep] {
				case white:
					visit(dep)
				case gray:
					// Found a back-edge into the stack; record the cycle
					// starting at dep's position.
					start := 0
					for i, s := range stack {
						if s == dep {
							start = i
							break
						}
					}
					cyc := append([]NodeKey{}, stack[start:]...)
					cycles = append(cycles, cyc)
				case black:
					// cross/forward edge, ignore
			}
		}
		stack = stack[:len(stack)-1]
		colors[n] = black
	}

	// Map iteration order is not guaranteed in Go, but cycle membership is
	// order-independent; only the chosen start node of a reported cycle
	// varies between runs.
	for n := range g.edges {
		if colors[n] == white {
			visit(n)
		}
	}
	return cycles
}

// HasCycle is a cheap boolean form of DetectCycles.
func (g *Graph) HasCycle() bool { return len(g.DetectCycles()) > 0 }

// topoOrder returns a DFS post-order traversal of the subgraph reachable
// from roots, which is a valid linear extension of the edges whenever no
// cycle is present. Nodes inside a cycle are
// still visited (each once) but the resulting order is not meaningful for
// them; callers should have already checked HasCycle.
func (g *Graph) topoOrder(roots []NodeKey) []NodeKey {
	visited := make(map[NodeKey]bool)
	var order []NodeKey
	var visit func(n NodeKey)
	visit = func(n NodeKey) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, dep := range g.edges[n] {
			visit(dep)
		}
		order = append(order, n)
	}
	for _, r := range roots {
		visit(r)
	}
	return order
}

// CalculationOrder returns the topological order over every formula node in
// the graph.
func (g *Graph) CalculationOrder() []NodeKey {
	roots := make([]NodeKey, 0, len(g.edges))
	for n := range g.edges {
		roots = append(roots, n)
	}
	return g.topoOrder(roots)
}

// ReverseReachable returns every node reachable by following dependent
// edges from node (i.e. everything that transitively depends on node),
// used by recalc_dependents.
func (g *Graph) ReverseReachable(node NodeKey) []NodeKey {
	visited := make(map[NodeKey]bool)
	var order []NodeKey
	var queue []NodeKey
	queue = append(queue, g.reverse[node]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}
		visited[n] = true
		order = append(order, n)
		queue = append(queue, g.reverse[n]...)
	}
	// Order dependents topologically among themselves so recompute walks
	// them in a safe order too. topoOrder also visits their precedents
	// (node itself included), so keep only the dependents found above.
	var out []NodeKey
	for _, n := range g.topoOrder(order) {
		if visited[n] {
			out = append(out, n)
		}
	}
	return out
}

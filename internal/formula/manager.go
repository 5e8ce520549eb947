package formula

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// CalculationOptions holds the workbook's calculation settings: automatic
// vs manual recalculation, iterative-calculation support for intentional
// circularities, and the 1900/1904 date system switch that affects
// NOW()/TODAY() rendering.
type CalculationOptions struct {
	AutoCalculate bool
	Iterative bool
	MaxIterations int
	MaxChange float64
	PrecisionAsDisplayed bool
	DateSystem1904 bool
}

// DefaultCalculationOptions returns Excel's own iterative-calculation
// defaults.
func DefaultCalculationOptions() CalculationOptions {
	return CalculationOptions{
		AutoCalculate: true,
		MaxIterations: 100,
		MaxChange: 1e-3,
	}
}

// FormulaStats snapshots manager-wide counters.
type FormulaStats struct {
	FormulaCount int
	NamedRangeCount int
	CircularCount int
}

type formulaEntry struct {
	sheet string
	cell coord.Coordinate
	text string // body without leading '='
	ast *expr
}

// Manager owns every formula in a workbook: the raw text, the parsed AST,
// the dependency graph, and named ranges. One Manager per workbook.
type Manager struct {
	mu sync.RWMutex
	formulas map[NodeKey]*formulaEntry
	named map[string]Reference // case-sensitive name -> target
	graph *Graph
	opts CalculationOptions
	lastErrors map[NodeKey]ErrorSentinel
}

// NewManager constructs an empty formula manager with default calculation
// options.
func NewManager() *Manager {
	return &Manager{
		formulas: make(map[NodeKey]*formulaEntry),
		named: make(map[string]Reference),
		graph: newGraph(),
		opts: DefaultCalculationOptions(),
		lastErrors: make(map[NodeKey]ErrorSentinel),
	}
}

// SetOptions replaces the calculation options wholesale.
func (m *Manager) SetOptions(o CalculationOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opts = o
}

// Options returns the current calculation options.
func (m *Manager) Options() CalculationOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

// SetCellFormula parses body (without the leading '=') and registers it at
// sheet!cell, rebuilding that node's dependency edges.
func (m *Manager) SetCellFormula(sheet string, cell coord.Coordinate, body string) error {
	ast, err := Parse(body)
	if err != nil {
		return fmt.Errorf("formula: %s!%s: %w", sheet, coord.CellName(cell), err)
	}
	key := nodeKey(sheet, cell)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.formulas[key] = &formulaEntry{sheet: sheet, cell: cell, text: body, ast: ast}
	deps := make([]NodeKey, 0)
	for _, ref := range References(ast) {
		refSheet := ref.Sheet
		if refSheet == "" {
			refSheet = sheet
		}
		for _, c := range ref.Cells() {
			deps = append(deps, nodeKey(refSheet, c))
		}
	}
	m.graph.setEdges(key, deps)
	delete(m.lastErrors, key)
	return nil
}

// GetCellFormula returns the stored formula text (without '=') at sheet!cell.
func (m *Manager) GetCellFormula(sheet string, cell coord.Coordinate) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.formulas[nodeKey(sheet, cell)]
	if !ok {
		return "", false
	}
	return e.text, true
}

// HasFormula reports whether sheet!cell carries a formula.
func (m *Manager) HasFormula(sheet string, cell coord.Coordinate) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.formulas[nodeKey(sheet, cell)]
	return ok
}

// ShiftCells relocates every formula's own coordinate on sheet through f,
// mirroring cellstore.Store.Transform's contract: a false keep result drops
// the formula, otherwise its node is renamed to the new coordinate.
// Used by row/column insert/delete to keep a formula cell's own node
// anchored to the same logical cell as the grid shifts; callers still need
// ShiftReferences for formulas that merely point at the shifted sheet.
func (m *Manager) ShiftCells(sheet string, f func(coord.Coordinate) (coord.Coordinate, bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	moved := make(map[NodeKey]*formulaEntry)
	for key, e := range m.formulas {
		if e.sheet != sheet {
			continue
		}
		nc, keep := f(e.cell)
		m.graph.clearEdges(key)
		delete(m.formulas, key)
		delete(m.lastErrors, key)
		if !keep {
			continue
		}
		e.cell = nc
		moved[nodeKey(sheet, nc)] = e
	}
	for newKey, e := range moved {
		m.formulas[newKey] = e
		var deps []NodeKey
		for _, ref := range References(e.ast) {
			refSheet := ref.Sheet
			if refSheet == "" {
				refSheet = sheet
			}
			for _, c := range ref.Cells() {
				deps = append(deps, nodeKey(refSheet, c))
			}
		}
		m.graph.setEdges(newKey, deps)
	}
}

// RemoveFormula deletes the formula at sheet!cell and its outgoing edges.
func (m *Manager) RemoveFormula(sheet string, cell coord.Coordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := nodeKey(sheet, cell)
	m.graph.clearEdges(key)
	delete(m.formulas, key)
	delete(m.lastErrors, key)
}

// AddNamedRange registers name -> ref, rejecting redefinition without an
// explicit Remove first (mirrors Style/Protect's re-registration guard).
func (m *Manager) AddNamedRange(name string, ref Reference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.named[name]; exists {
		return fmt.Errorf("formula: named range %q already defined", name)
	}
	m.named[name] = ref
	return nil
}

// RemoveNamedRange deletes a named range; it is not an error to remove one
// that does not exist.
func (m *Manager) RemoveNamedRange(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.named, name)
}

// RenameNamedRange moves a definition from oldName to newName.
func (m *Manager) RenameNamedRange(oldName, newName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref, ok := m.named[oldName]
	if !ok {
		return fmt.Errorf("formula: named range %q not found", oldName)
	}
	if _, exists := m.named[newName]; exists {
		return fmt.Errorf("formula: named range %q already defined", newName)
	}
	delete(m.named, oldName)
	m.named[newName] = ref
	return nil
}

// ResolveNamedRange looks up a named range by name.
func (m *Manager) ResolveNamedRange(name string) (Reference, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.named[name]
	return ref, ok
}

// HasNamedRange reports whether name is defined.
func (m *Manager) HasNamedRange(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.named[name]
	return ok
}

// DetectCircularReferences returns every cycle currently present in the
// dependency graph.
func (m *Manager) DetectCircularReferences() [][]NodeKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph.DetectCycles()
}

// GetCircularReferences is an alias for DetectCircularReferences, kept for
// callers that expect the getter-style name.
func (m *Manager) GetCircularReferences() [][]NodeKey { return m.DetectCircularReferences() }

// CalculateAll recalculates every formula in dependency order, writing
// #CIRCULAR! into any node caught in a cycle instead of evaluating it.
// The result map is keyed by "Sheet!A1" and handed to writeback by the
// caller (the workbook orchestrator), since Manager does not itself own
// cell storage.
func (m *Manager) CalculateAll(res Resolver) map[NodeKey]Value {
	m.mu.Lock()
	cyclic := make(map[NodeKey]bool)
	for _, cyc := range m.graph.DetectCycles() {
		for _, n := range cyc {
			cyclic[n] = true
		}
	}
	order := m.graph.CalculationOrder()
	entries := make(map[NodeKey]*formulaEntry, len(m.formulas))
	for k, e := range m.formulas {
		entries[k] = e
	}
	m.mu.Unlock()

	out := make(map[NodeKey]Value, len(order))
	errs := make(map[NodeKey]ErrorSentinel)
	for _, n := range order {
		e, ok := entries[n]
		if !ok {
			continue // dependency-only node, not itself a formula
		}
		var v Value
		if cyclic[n] {
			v = Err(ErrCircular)
			errs[n] = ErrCircular
		} else {
			v = Eval(e.ast, e.sheet, res)
			if v.Kind == KindError {
				errs[n] = v.ErrVal
			}
		}
		out[n] = v
	}

	m.mu.Lock()
	m.lastErrors = errs
	m.mu.Unlock()
	return out
}

// CalculateFormula evaluates a single formula cell without touching the
// rest of the graph, for callers that already know its dependents are
// current.
func (m *Manager) CalculateFormula(sheet string, cell coord.Coordinate, res Resolver) (Value, error) {
	key := nodeKey(sheet, cell)
	m.mu.RLock()
	e, ok := m.formulas[key]
	hasCycle := false
	for _, cyc := range m.graph.DetectCycles() {
		for _, n := range cyc {
			if n == key {
				hasCycle = true
			}
		}
	}
	m.mu.RUnlock()
	if !ok {
		return Value{}, fmt.Errorf("formula: no formula at %s!%s", sheet, coord.CellName(cell))
	}
	if hasCycle {
		return Err(ErrCircular), nil
	}
	return Eval(e.ast, e.sheet, res), nil
}

// CalculateFormulasInRange recalculates only the formula cells whose
// coordinate falls within rng on sheet.
func (m *Manager) CalculateFormulasInRange(sheet string, rng coord.Range, res Resolver) map[NodeKey]Value {
	m.mu.RLock()
	var targets []NodeKey
	for k, e := range m.formulas {
		if e.sheet == sheet && rng.Contains(e.cell) {
			targets = append(targets, k)
		}
	}
	cyclic := make(map[NodeKey]bool)
	for _, cyc := range m.graph.DetectCycles() {
		for _, n := range cyc {
			cyclic[n] = true
		}
	}
	entries := m.formulas
	m.mu.RUnlock()

	out := make(map[NodeKey]Value, len(targets))
	for _, k := range targets {
		e := entries[k]
		if cyclic[k] {
			out[k] = Err(ErrCircular)
			continue
		}
		out[k] = Eval(e.ast, e.sheet, res)
	}
	return out
}

// RecalcDependents returns, in safe recomputation order, every formula node
// that transitively depends on sheet!cell, for callers doing incremental
// recalculation after a single cell edit instead of a full CalculateAll
// pass.
func (m *Manager) RecalcDependents(sheet string, cell coord.Coordinate) []NodeKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.graph.ReverseReachable(nodeKey(sheet, cell))
}

// ValidateFormula parses body without registering it, surfacing a syntax
// error the caller can reject before SetCellFormula.
func ValidateFormula(body string) error {
	_, err := Parse(body)
	return err
}

// GetFormulaErrors returns the error sentinel recorded for every formula
// node that evaluated to an error on the most recent CalculateAll pass, as
// a fresh map keyed by node key (map iteration order is unspecified).
func (m *Manager) GetFormulaErrors() map[NodeKey]ErrorSentinel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[NodeKey]ErrorSentinel, len(m.lastErrors))
	for k, v := range m.lastErrors {
		out[k] = v
	}
	return out
}

// ParseFormulaReferences returns every reference (single cell or range) a
// formula body touches, in source order.
func ParseFormulaReferences(body string) ([]Reference, error) {
	ast, err := Parse(body)
	if err != nil {
		return nil, err
	}
	return References(ast), nil
}

// ParseFormulaRangeReferences is ParseFormulaReferences filtered to the
// range-valued references only.
func ParseFormulaRangeReferences(body string) ([]Reference, error) {
	refs, err := ParseFormulaReferences(body)
	if err != nil {
		return nil, err
	}
	var out []Reference
	for _, r := range refs {
		if r.IsRange {
			out = append(out, r)
		}
	}
	return out, nil
}

// Stats snapshots manager-wide counters.
func (m *Manager) Stats() FormulaStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return FormulaStats{
		FormulaCount: len(m.formulas),
		NamedRangeCount: len(m.named),
		CircularCount: len(m.graph.DetectCycles()),
	}
}

// NamedRangeNames returns every defined name in sorted order, useful for
// deterministic serialization of the workbook's <definedNames> part.
func (m *Manager) NamedRangeNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.named))
	for n := range m.named {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Package protect implements per-sheet protection: an allowed-operations
// mask, a per-cell locked flag, and an optional password. Protection here
// is structural metadata, not a security boundary: it deters accidental
// edits in a spreadsheet UI, not a determined attacker. The password, when
// set, is still hashed with a salted, iterated SHA-512 rather than stored
// or compared in the clear.
package protect

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"

	"github.com/wuxianggujun/tinaxlsx-go/internal/coord"
)

// Operation is one bit of the closed enumeration of protectable sheet
// actions.
type Operation uint32

const (
	OpSelectLocked Operation = 1 << iota
	OpSelectUnlocked
	OpFormatCells
	OpFormatColumns
	OpFormatRows
	OpInsertColumns
	OpInsertRows
	OpDeleteColumns
	OpDeleteRows
	OpInsertHyperlinks
	OpSort
	OpAutoFilter
	OpPivotTables
	OpObjects
	OpScenarios
)

// defaultAllowed mirrors Excel's own default-protected-sheet behavior:
// selecting cells is allowed, structural/content-mutating operations are not.
const defaultAllowed = OpSelectLocked | OpSelectUnlocked

const (
	hashAlgorithm = "SHA-512"
	defaultSpin = 100000
	saltSize = 16
)

// PasswordHash is the stored salted-iterated-hash record, consistent with
// OOXML's documented protection scheme.
type PasswordHash struct {
	Algorithm string
	Salt []byte
	Hash []byte
	SpinCount int
}

// Manager is the per-worksheet protection state.
type Manager struct {
	protected bool
	password *PasswordHash
	allowed Operation
	locked map[uint64]bool // coord.Key() -> locked flag override; default true
}

// New creates an unprotected manager with every cell defaulting to locked
// (: "Per-cell locked flag (default true)").
func New() *Manager {
	return &Manager{allowed: defaultAllowed, locked: make(map[uint64]bool)}
}

func computeHash(password string, salt []byte, spin int) []byte {
	// Hash salt+password once, then iterate spin times, feeding the running
	// digest back in together with the little-endian round counter, matching the documented OOXML iterated-hash
	// construction (ECMA-376 password protection, hashed N times).
	cur := append(append([]byte{}, salt...), []byte(password)...)
	sum := sha512.Sum512(cur)
	cur = sum[:]
	for i := 0; i < spin; i++ {
		buf := make([]byte, 0, len(cur)+4)
		buf = append(buf, cur...)
		buf = append(buf, byte(i), byte(i>>8), byte(i>>16), byte(i>>24))
		s := sha512.Sum512(buf)
		cur = s[:]
	}
	return cur
}

// Protect stores options and, if password is non-empty, computes a salted
// iterated hash. spinCount <= 0 uses the default of 100,000
// iterations.
func (m *Manager) Protect(password string, allowed Operation, spinCount int) error {
	if m.protected && m.password != nil {
		return fmt.Errorf("protect: sheet is already protected; unprotect first")
	}
	if spinCount <= 0 {
		spinCount = defaultSpin
	}
	m.protected = true
	m.allowed = allowed
	if password == "" {
		m.password = nil
		return nil
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("protect: generating salt: %w", err)
	}
	m.password = &PasswordHash{
		Algorithm: hashAlgorithm,
		Salt: salt,
		Hash: computeHash(password, salt, spinCount),
		SpinCount: spinCount,
	}
	return nil
}

// Unprotect succeeds iff no hash is stored, or the supplied password's hash
// matches the stored one.
func (m *Manager) Unprotect(password string) bool {
	if m.password == nil {
		m.protected = false
		return true
	}
	candidate := computeHash(password, m.password.Salt, m.password.SpinCount)
	if subtle.ConstantTimeCompare(candidate, m.password.Hash) == 1 {
		m.protected = false
		m.password = nil
		return true
	}
	return false
}

// IsProtected reports the sheet's current protection state.
func (m *Manager) IsProtected() bool { return m.protected }

// IsOperationAllowed returns true if the sheet is not protected, else the
// bit for op.
func (m *Manager) IsOperationAllowed(op Operation) bool {
	if !m.protected {
		return true
	}
	return m.allowed&op != 0
}

// SetCellLocked writes the per-cell locked flag.
func (m *Manager) SetCellLocked(c coord.Coordinate, locked bool) {
	m.locked[c.Key()] = locked
}

// IsCellLocked returns the cell's locked flag, true by default.
func (m *Manager) IsCellLocked(c coord.Coordinate) bool {
	if v, ok := m.locked[c.Key()]; ok {
		return v
	}
	return true
}

// IsCellEditable reports !protected || !locked.
func (m *Manager) IsCellEditable(c coord.Coordinate) bool {
	return !m.protected || !m.IsCellLocked(c)
}

package cellstore

import (
	"fmt"
	"sync/atomic"
)

// recordSize is the accounting unit used for ceiling tracking: one Record
// is exactly 16 bytes, matching unsafe.Sizeof(Record{}), since Record is a
// plain [16]byte with no padding.
const recordSize = 16

// Arena tracks allocation against a workbook-wide memory ceiling. One Arena
// is normally shared by every worksheet's Store in a workbook, giving the
// whole workbook a single process-wide memory budget scoped per instance.
type Arena struct {
	ceiling int64 // bytes, 0 = unlimited
	used int64 // atomic
}

// NewArena creates an arena with the given byte ceiling. A ceiling <= 0
// means unlimited (still tracked for Stats, never rejected).
func NewArena(ceiling int64) *Arena {
	return &Arena{ceiling: ceiling}
}

// DefaultCeiling is the 4 GiB default memory ceiling used when a workbook
// is opened without an explicit override.
const DefaultCeiling int64 = 4 << 30

// Reserve accounts for n additional records. Returns an error without
// mutating the counter if the ceiling would be exceeded.
func (a *Arena) Reserve(n int) error {
	if a == nil {
		return nil
	}
	want := int64(n) * recordSize
	if a.ceiling > 0 {
		if atomic.LoadInt64(&a.used)+want > a.ceiling {
			return fmt.Errorf("cellstore: allocation of %d bytes would exceed the %d byte memory ceiling", want, a.ceiling)
		}
	}
	atomic.AddInt64(&a.used, want)
	return nil
}

// Release gives back n records' worth of accounting, e.g. after compact().
func (a *Arena) Release(n int) {
	if a == nil {
		return
	}
	atomic.AddInt64(&a.used, -int64(n)*recordSize)
	if atomic.LoadInt64(&a.used) < 0 {
		atomic.StoreInt64(&a.used, 0)
	}
}

// Used returns the currently accounted byte usage.
func (a *Arena) Used() int64 {
	if a == nil {
		return 0
	}
	return atomic.LoadInt64(&a.used)
}

// Ceiling returns the configured ceiling (0 = unlimited).
func (a *Arena) Ceiling() int64 {
	if a == nil {
		return 0
	}
	return a.ceiling
}

package pool

import "sync"

// NoExtension is the reserved slot-vector index meaning "no extended data".
// Slot 0 is reserved as "no extension".
const NoExtension uint32 = 0

// ExtendedData is the out-of-band per-cell side state referenced from a
// CellRecord's extended-data offset: a formula object, a custom number
// format, and/or a style handle too large to fit inline.
type ExtendedData struct {
	FormulaText string
	NumberFormat string
	StyleHandle uint32
	InUse bool
}

// ExtendedPool is a slot vector with a stack-based free list: allocate()
// returns a reused free slot when available, otherwise grows the vector.
type ExtendedPool struct {
	mu sync.Mutex
	slots []ExtendedData
	freeList []uint32
}

// NewExtended creates a pool with slot 0 pre-reserved as "no extension".
func NewExtended() *ExtendedPool {
	return &ExtendedPool{
		slots: []ExtendedData{{}}, // slot 0, reserved
	}
}

// Allocate returns an index into the slot vector that remains valid until
// explicitly Released. Freed offsets are reused first (LIFO).
func (p *ExtendedPool) Allocate() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.slots[idx] = ExtendedData{InUse: true}
		return idx
	}
	p.slots = append(p.slots, ExtendedData{InUse: true})
	return uint32(len(p.slots) - 1)
}

// Release returns offset to the free list. The caller must have already
// cleared the offset from any CellRecord referencing it; accessing a
// released offset afterwards is undefined.
func (p *ExtendedPool) Release(offset uint32) {
	if offset == NoExtension {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(offset) >= len(p.slots) {
		return
	}
	p.slots[offset] = ExtendedData{}
	p.freeList = append(p.freeList, offset)
}

// Get returns a copy of the extended data at offset. The bool is false for
// the reserved "no extension" slot or an out-of-range offset.
func (p *ExtendedPool) Get(offset uint32) (ExtendedData, bool) {
	if offset == NoExtension {
		return ExtendedData{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(offset) >= len(p.slots) || !p.slots[offset].InUse {
		return ExtendedData{}, false
	}
	return p.slots[offset], true
}

// Set overwrites the extended data at offset in place.
func (p *ExtendedPool) Set(offset uint32, data ExtendedData) {
	if offset == NoExtension {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(offset) >= len(p.slots) {
		return
	}
	data.InUse = true
	p.slots[offset] = data
}

// Len returns the number of allocated slots, including released-but-not-
// reused ones and the reserved slot 0.
func (p *ExtendedPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

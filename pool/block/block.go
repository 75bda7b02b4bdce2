package block

import (
	"unsafe"

	"github.com/joshuapare/poolkit/internal/format"
)

// State records where a Block currently lives.
type State uint8

const (
	// StateOwned means a pool holds the Block in its ring.
	StateOwned State = iota + 1
	// StateFree means the Block sits in one of its allocator's buckets.
	StateFree
	// StateReleased means the memory went back to the system source.
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateOwned:
		return "owned"
	case StateFree:
		return "free"
	case StateReleased:
		return "released"
	default:
		return "invalid"
	}
}

// Block is a fixed-granularity memory region with a bump cursor.
//
// Invariant: 0 <= cursor <= len(buf).
type Block struct {
	buf       []byte
	cursor    int
	index     int // size in boundary units minus one
	freeIndex int // whole units still free, refreshed by UpdateFreeIndex
	state     State
	owner     *Allocator
}

// Size returns the total size of the Block in bytes.
func (b *Block) Size() int { return len(b.buf) }

// Used returns the number of bytes bumped so far.
func (b *Block) Used() int { return b.cursor }

// Avail returns the number of bytes left behind the cursor.
func (b *Block) Avail() int { return len(b.buf) - b.cursor }

// Index returns the Block's size class.
func (b *Block) Index() int { return b.index }

// State returns where the Block currently lives.
func (b *Block) State() State { return b.state }

// Allocator returns the allocator that created the Block.
func (b *Block) Allocator() *Allocator { return b.owner }

// FreeIndex returns the free-space estimate recorded by the last
// UpdateFreeIndex call.
func (b *Block) FreeIndex() int { return b.freeIndex }

// UpdateFreeIndex recomputes the free-space estimate in whole boundary units.
func (b *Block) UpdateFreeIndex() int {
	b.freeIndex = format.FreeUnits(b.Avail(), b.owner.unit)
	return b.freeIndex
}

// Bump advances the cursor by n bytes and returns the skipped-over region with
// len and cap both n. The caller must have checked n <= Avail().
func (b *Block) Bump(n int) []byte {
	start := b.cursor
	b.cursor += n
	return b.buf[start:b.cursor:b.cursor]
}

// Contains reports whether x, up to its capacity, lies inside the Block.
func (b *Block) Contains(x []byte) bool {
	if cap(x) == 0 || cap(x) > len(b.buf) {
		return false
	}
	lo := uintptr(unsafe.Pointer(unsafe.SliceData(b.buf)))
	p := uintptr(unsafe.Pointer(unsafe.SliceData(x[:cap(x)])))
	return p >= lo && p-lo <= uintptr(len(b.buf)-cap(x))
}

// Reset rewinds the cursor so the whole Block is available again. Previous
// contents are left in place.
func (b *Block) Reset() {
	b.cursor = 0
	b.freeIndex = format.FreeUnits(len(b.buf), b.owner.unit)
}

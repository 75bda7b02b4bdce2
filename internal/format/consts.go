// Package format holds the sizing constants and alignment arithmetic shared by
// the pool packages. Everything here is a default; the allocator and pool
// constructors accept their own values.
package format

const (
	// BoundaryUnit is the granularity of every Block handed out by a block
	// allocator. Block sizes are always a multiple of this value.
	BoundaryUnit = 4096

	// MinUnits is the smallest Block, in boundary units. A 4KB unit gives an
	// 8KB minimum Block.
	MinUnits = 2

	// MaxIndex is the number of exact-size buckets kept by a block allocator.
	// Blocks with an index at or above it go to the sink bucket (index 0).
	MaxIndex = 20

	// Alignment is the default alignment of every bump allocation.
	Alignment = 8

	// BigObjectThreshold is the size at which allocations stop using the bump
	// path and go through the large-object recycler.
	BigObjectThreshold = 256

	// MaxFreeUnlimited disables the block allocator's free-byte budget.
	MaxFreeUnlimited = 0

	// StackDepth is the capacity of a pool context stack.
	StackDepth = 16
)

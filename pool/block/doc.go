// Package block provides Blocks and the size-classed allocator that recycles
// them between pools.
//
// # Overview
//
// A Block is a raw memory region whose size is a multiple of the allocator's
// boundary unit (4KB by default, never smaller than two units). Pools
// bump-allocate from Blocks; when a pool clears or is destroyed, its Blocks
// come back here and are kept for reuse rather than returned to the system.
//
// # Buckets
//
// Recycled Blocks are kept in exact-size buckets indexed by size in units
// minus one:
//
//	Index  0:  sink (Blocks larger than 80KB, sorted by size)
//	Index  1:  8KB
//	Index  2: 12KB
//	...
//	Index 19: 80KB
//
// A request is rounded up to the boundary unit and served from the first
// non-empty bucket at or above its index, so a small request may receive a
// larger Block before the allocator maps fresh memory.
//
// # Budget
//
// Config.MaxFree caps the bytes held in buckets. Blocks that would push the
// free count above the cap are unmapped instead, outside the lock.
//
// # Thread Safety
//
// With Config.Threaded set, every bucket mutation happens under a mutex and the
// Allocator may be shared by pools on different goroutines. Without it the
// Allocator must stay on one goroutine. Blocks themselves are never safe for
// concurrent use.
package block

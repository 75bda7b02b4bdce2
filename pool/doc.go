// Package pool provides hierarchical memory pools with bump allocation,
// large-object recycling, and deterministic cleanup.
//
// # Overview
//
// A Pool owns a ring of Blocks obtained from a block.Allocator. Small
// allocations advance a cursor in the active Block; allocations at or above
// the big-object threshold (256 bytes by default) first try the pool's
// recycler, which holds regions handed back with Free. Nothing is freed one
// object at a time: memory comes back when the pool is cleared or destroyed.
//
// Pools form a tree. Destroying a pool destroys its children first, and every
// pool may register cleanup callbacks that run at teardown:
//
//	pre-cleanups  → child pools destroyed (newest first) → cleanups
//
// Each list runs newest first.
//
// # Usage Example
//
//	root, err := pool.New(nil)
//	if err != nil {
//	    return err
//	}
//	defer root.Destroy()
//
//	req, err := root.NewChild(pool.WithTag("request"))
//	if err != nil {
//	    return err
//	}
//	buf, err := req.Alloc(1000)
//	if err != nil {
//	    return err
//	}
//	_, _ = req.RegisterCleanup(conn, closeConn)
//
//	// Later: runs closeConn, recycles every Block req held.
//	err = req.Destroy()
//
// # Lifecycle
//
// A pool is Active until Clear or Destroy moves it to Clearing. Clear returns
// it to Active with only its first Block; Destroy ends in Destroyed, after
// which every operation fails with ErrDestroyed. Allocation is still allowed
// from inside cleanup callbacks, but registering cleanups or creating children
// during teardown fails with ErrClearing.
//
// # Thread Safety
//
// A Pool belongs to one goroutine. The block.Allocator underneath may be
// shared by pools on different goroutines when it is threaded. Pools created
// WithLocking (such as Global) serialize allocation, free, registration and
// child linking, but their teardown must not race with other users.
package pool

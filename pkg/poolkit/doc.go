/*
Package poolkit is the flat entry point to the hierarchical pool allocator.

Pools form a tree. Each pool bump-allocates from Blocks supplied by a shared
block allocator, recycles its large regions, and runs registered cleanups
when it is cleared or destroyed. Destroying a pool destroys its whole
subtree.

# Quick Start

	root, err := poolkit.Create(nil)
	if err != nil {
	    return err
	}
	defer poolkit.Destroy(root)

	req, _ := poolkit.Create(root)
	buf, size, err := poolkit.Alloc(req, 1000)

# Cleanups

Cleanups run newest first when their pool is cleared or destroyed, after the
pool's children are gone:

	f, _ := os.Open(name)
	poolkit.CleanupRegister(req, f, func(data any) error {
	    return data.(*os.File).Close()
	})

# Current Pool

Code that does not take a pool argument can find the pool in scope through a
context:

	ctx = poolkit.NewContext(ctx)
	poolkit.PushTagged(ctx, req, "request", id)
	defer poolkit.Pop(ctx)

	p := poolkit.Current(ctx)

DiagnosticWalk lists the tagged pushes, newest first.

# Lower Level

The pool, pool/block, pool/cleanup, pool/recycle and pool/scope packages hold
the pieces this package wraps, for callers that need allocator sharing,
budgets or RAII-style guards.
*/
package poolkit

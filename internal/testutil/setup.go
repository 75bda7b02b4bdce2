// Package testutil holds helpers shared by tests of packages built on pool.
package testutil

import (
	"testing"

	"github.com/joshuapare/poolkit/internal/sysmem"
	"github.com/joshuapare/poolkit/pool"
	"github.com/joshuapare/poolkit/pool/block"
)

// SetupPool creates a root pool and destroys it when the test ends.
// Calls t.Fatal if the pool cannot be created.
//
// Example:
//
//	p := testutil.SetupPool(t, pool.WithTag("req"))
func SetupPool(t testing.TB, opts ...pool.Option) *pool.Pool {
	t.Helper()
	p, err := pool.New(nil, opts...)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(func() {
		if p.State() != pool.StateDestroyed {
			_ = p.Destroy()
		}
	})
	return p
}

// SetupChild creates a child of parent. It is destroyed with parent.
func SetupChild(t testing.TB, parent *pool.Pool, opts ...pool.Option) *pool.Pool {
	t.Helper()
	c, err := parent.NewChild(opts...)
	if err != nil {
		t.Fatalf("create child of %s: %v", parent, err)
	}
	return c
}

// LimitedConfig returns block.DefaultConfig whose source refuses to keep more
// than maxBytes mapped, along with that source for inspection.
func LimitedConfig(maxBytes int) (block.Config, *sysmem.Limited) {
	src := sysmem.NewLimited(sysmem.Heap{}, maxBytes)
	cfg := block.DefaultConfig
	cfg.Name = "limited"
	cfg.Source = src
	return cfg, src
}

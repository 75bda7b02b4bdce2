package pool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/poolkit/pool/block"
)

// newTestRoot creates a root pool that is destroyed when the test ends.
func newTestRoot(t testing.TB, opts ...Option) *Pool {
	t.Helper()
	p, err := New(nil, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if p.State() != StateDestroyed {
			_ = p.Destroy()
		}
	})
	return p
}

// newSharedAllocator creates a threaded allocator destroyed at test end.
func newSharedAllocator(t testing.TB, maxFree int) *block.Allocator {
	t.Helper()
	cfg := block.DefaultConfig
	cfg.MaxFree = maxFree
	a, err := block.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Destroy() })
	return a
}

// trace collects cleanup invocations in order.
type trace struct {
	calls []string
}

func (tr *trace) mark(name string) func(any) error {
	return func(any) error {
		tr.calls = append(tr.calls, name)
		return nil
	}
}

func (tr *trace) count(name string) int {
	n := 0
	for _, c := range tr.calls {
		if c == name {
			n++
		}
	}
	return n
}

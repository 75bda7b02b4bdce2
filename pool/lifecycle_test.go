package pool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroy_RootRunsDescendantCleanupOnce(t *testing.T) {
	root, err := New(nil, WithTag("R"))
	require.NoError(t, err)
	child, err := root.NewChild(WithTag("C"))
	require.NoError(t, err)

	_, err = child.Alloc(1000)
	require.NoError(t, err)

	executed := 0
	_, err = child.RegisterCleanup(nil, func(any) error {
		executed++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, root.Destroy())
	assert.Equal(t, 1, executed)

	_, err = child.Alloc(8)
	require.ErrorIs(t, err, ErrDestroyed)
	_, err = root.Alloc(8)
	require.ErrorIs(t, err, ErrDestroyed)
	require.ErrorIs(t, root.Destroy(), ErrDestroyed)
	require.ErrorIs(t, child.Destroy(), ErrDestroyed)
	assert.Equal(t, 1, executed)

	assert.Nil(t, child.Parent())
	assert.Equal(t, StateDestroyed, child.State())
}

func TestDestroy_CleanupsRunNewestFirst(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)

	var tr trace
	for _, name := range []string{"a", "b", "c"} {
		_, err := p.RegisterCleanup(nil, tr.mark(name))
		require.NoError(t, err)
	}
	require.NoError(t, p.Destroy())
	assert.Equal(t, []string{"c", "b", "a"}, tr.calls)
}

func TestDestroy_TeardownOrder(t *testing.T) {
	var tr trace
	root, err := New(nil)
	require.NoError(t, err)
	c1, err := root.NewChild()
	require.NoError(t, err)
	g, err := c1.NewChild()
	require.NoError(t, err)
	c2, err := root.NewChild()
	require.NoError(t, err)

	_, err = root.RegisterCleanup(nil, tr.mark("R"))
	require.NoError(t, err)
	_, err = root.PreRegisterCleanup(nil, tr.mark("R.pre"))
	require.NoError(t, err)
	_, err = c1.RegisterCleanup(nil, tr.mark("C1"))
	require.NoError(t, err)
	_, err = g.RegisterCleanup(nil, tr.mark("G"))
	require.NoError(t, err)
	_, err = c2.RegisterCleanup(nil, tr.mark("C2"))
	require.NoError(t, err)

	require.NoError(t, root.Destroy())

	// Pre-cleanups, then children newest first (each fully torn down), then
	// the pool's own cleanups.
	assert.Equal(t, []string{"R.pre", "C2", "G", "C1", "R"}, tr.calls)
	for _, name := range []string{"R.pre", "C2", "G", "C1", "R"} {
		assert.Equal(t, 1, tr.count(name), name)
	}
	for _, p := range []*Pool{root, c1, g, c2} {
		assert.Equal(t, StateDestroyed, p.State())
	}
}

func TestDestroy_PreCleanupSeesLiveChildren(t *testing.T) {
	root, err := New(nil)
	require.NoError(t, err)
	child, err := root.NewChild()
	require.NoError(t, err)

	var preSaw, postSaw State
	_, err = root.PreRegisterCleanup(nil, func(any) error {
		preSaw = child.State()
		return nil
	})
	require.NoError(t, err)
	_, err = root.RegisterCleanup(nil, func(any) error {
		postSaw = child.State()
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, root.Destroy())
	assert.Equal(t, StateActive, preSaw)
	assert.Equal(t, StateDestroyed, postSaw)
}

func TestDestroy_ChildDestroyedFromPreCleanup(t *testing.T) {
	root, err := New(nil)
	require.NoError(t, err)
	child, err := root.NewChild()
	require.NoError(t, err)

	ran := 0
	_, err = child.RegisterCleanup(nil, func(any) error {
		ran++
		return nil
	})
	require.NoError(t, err)
	_, err = root.PreRegisterCleanup(child, func(data any) error {
		return data.(*Pool).Destroy()
	})
	require.NoError(t, err)

	require.NoError(t, root.Destroy())
	assert.Equal(t, 1, ran)
}

func TestTeardown_RejectsNewWorkWhileClearing(t *testing.T) {
	p := newTestRoot(t, WithTag("busy"))

	var regErr, childErr, clearErr, destroyErr, allocErr error
	_, err := p.RegisterCleanup(nil, func(any) error {
		_, regErr = p.RegisterCleanup(nil, func(any) error { return nil })
		_, childErr = p.NewChild()
		clearErr = p.Clear()
		destroyErr = p.Destroy()
		_, allocErr = p.Alloc(64)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, p.Clear())
	require.ErrorIs(t, regErr, ErrClearing)
	require.ErrorIs(t, childErr, ErrClearing)
	require.ErrorIs(t, clearErr, ErrClearing)
	require.ErrorIs(t, destroyErr, ErrClearing)
	require.NoError(t, allocErr, "cleanups may still allocate")
	assert.Contains(t, regErr.Error(), `pool "busy"`)

	assert.Equal(t, StateActive, p.State())
	_, err = p.RegisterCleanup(nil, func(any) error { return nil })
	require.NoError(t, err, "cleared pool accepts registrations again")
}

func TestDestroy_JoinsCleanupErrors(t *testing.T) {
	errA := errors.New("close a")
	errB := errors.New("close b")

	root, err := New(nil)
	require.NoError(t, err)
	child, err := root.NewChild()
	require.NoError(t, err)

	_, err = child.RegisterCleanup(nil, func(any) error { return errA })
	require.NoError(t, err)
	_, err = root.RegisterCleanup(nil, func(any) error { return errB })
	require.NoError(t, err)

	err = root.Destroy()
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
	assert.Equal(t, StateDestroyed, root.State())
	assert.Equal(t, StateDestroyed, child.State())
}

func TestClear_EmptyPoolIsIdempotent(t *testing.T) {
	p := newTestRoot(t)
	a := p.Allocator()

	require.NoError(t, p.Clear())
	require.NoError(t, p.Clear())

	s := p.Stats()
	assert.Equal(t, StateActive, s.State)
	assert.Equal(t, 1, s.Blocks)
	assert.Zero(t, s.BytesUsed)
	assert.Zero(t, a.Stats().FreeBlocks, "nothing to give back")
	assert.Equal(t, 1, a.Stats().LiveBlocks)
}

func TestClear_ReturnsBlocksAndKeepsPoolUsable(t *testing.T) {
	p := newTestRoot(t, WithThreshold(1<<20))
	child, err := p.NewChild()
	require.NoError(t, err)
	self := p.blocks[0]

	for range 4 {
		_, err := p.Alloc(6000)
		require.NoError(t, err)
	}
	require.Equal(t, 4, p.Stats().Blocks)

	ran := false
	_, err = p.RegisterCleanup(nil, func(any) error {
		ran = true
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, p.Clear())
	assert.True(t, ran)
	assert.Equal(t, StateDestroyed, child.State())
	assert.Empty(t, p.Children())

	s := p.Stats()
	assert.Equal(t, 1, s.Blocks)
	assert.Zero(t, s.BytesUsed)
	assert.Zero(t, s.Cleanups)
	assert.Same(t, self, p.blocks[0], "the first Block survives")
	// Three ring Blocks plus the child's Block went back to the allocator.
	assert.Equal(t, 4, p.Allocator().Stats().FreeBlocks)

	b, err := p.Alloc(6000)
	require.NoError(t, err)
	assert.Len(t, b, 6000)
	assert.Equal(t, 1, p.Stats().Blocks)
}

func TestClear_DropsRecycledRegions(t *testing.T) {
	p := newTestRoot(t)
	b, err := p.Alloc(4096)
	require.NoError(t, err)
	require.NoError(t, p.Free(b))
	require.Equal(t, 1, p.Stats().RecyclerRegions)

	require.NoError(t, p.Clear())
	assert.Zero(t, p.Stats().RecyclerRegions)
}

func TestCleanup_KillAndRun(t *testing.T) {
	p := newTestRoot(t)
	var tr trace

	killed, err := p.RegisterCleanup(nil, tr.mark("killed"))
	require.NoError(t, err)
	early, err := p.RegisterCleanup("payload", func(data any) error {
		tr.calls = append(tr.calls, data.(string))
		return nil
	})
	require.NoError(t, err)
	_, err = p.RegisterCleanup(nil, tr.mark("kept"))
	require.NoError(t, err)

	assert.True(t, p.KillCleanup(killed))
	assert.False(t, p.KillCleanup(killed), "second kill is a no-op")

	ok, err := p.RunCleanup(early)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"payload"}, tr.calls)

	ok, err = p.RunCleanup(early)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Destroy())
	assert.Equal(t, []string{"payload", "kept"}, tr.calls)

	assert.False(t, p.KillCleanup(early))
	_, err = p.RunCleanup(early)
	require.ErrorIs(t, err, ErrDestroyed)
}

func TestCleanup_RejectsNilFunc(t *testing.T) {
	p := newTestRoot(t)
	_, err := p.RegisterCleanup(nil, nil)
	require.ErrorIs(t, err, ErrNilCleanup)
	_, err = p.PreRegisterCleanup(nil, nil)
	require.ErrorIs(t, err, ErrNilCleanup)
}

func TestCleanup_RegisterAfterDestroy(t *testing.T) {
	p, err := New(nil)
	require.NoError(t, err)
	require.NoError(t, p.Destroy())

	_, err = p.RegisterCleanup(nil, func(any) error { return nil })
	require.ErrorIs(t, err, ErrDestroyed)
}

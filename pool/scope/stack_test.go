package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/testutil"
	"github.com/joshuapare/poolkit/pool"
)

func TestStack_PushPop(t *testing.T) {
	var s Stack
	a := testutil.SetupPool(t, pool.WithTag("a"))
	b := testutil.SetupPool(t, pool.WithTag("b"))

	assert.Nil(t, s.Current())
	require.NoError(t, s.Push(a))
	require.NoError(t, s.Push(b))
	assert.Same(t, b, s.Current())
	assert.Equal(t, 2, s.Depth())

	got, err := s.Pop()
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Same(t, a, s.Current())

	got, err = s.Pop()
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = s.Pop()
	require.ErrorIs(t, err, ErrUnderflow)
	assert.Nil(t, s.Current())
}

func TestStack_Overflow(t *testing.T) {
	s := New()
	p := testutil.SetupPool(t, pool.WithTag("p"))
	for range format.StackDepth {
		require.NoError(t, s.Push(p))
	}
	require.ErrorIs(t, s.Push(p), ErrOverflow)
	require.ErrorIs(t, s.PushTagged(p, "extra", nil), ErrOverflow)
	assert.Equal(t, format.StackDepth, s.Depth())
	assert.Zero(t, s.Frames(), "failed tagged push leaves no frame")
}

func TestStack_RejectsNil(t *testing.T) {
	var s Stack
	require.ErrorIs(t, s.Push(nil), ErrNilPool)
	assert.Zero(t, s.Depth())
}

func TestStack_TaggedFramesFollowTheirPush(t *testing.T) {
	var s Stack
	a := testutil.SetupPool(t, pool.WithTag("a"))
	b := testutil.SetupPool(t, pool.WithTag("b"))
	c := testutil.SetupPool(t, pool.WithTag("c"))

	require.NoError(t, s.PushTagged(a, "request", 42))
	require.NoError(t, s.Push(b))
	require.NoError(t, s.PushTagged(c, "parse", "doc.html"))
	assert.Equal(t, 2, s.Frames())

	var tags []string
	s.Walk(func(f Frame) bool {
		tags = append(tags, f.Tag)
		return true
	})
	assert.Equal(t, []string{"parse", "request"}, tags)

	// Popping c takes its frame.
	_, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Frames())

	// b was an untagged push: the "request" frame stays.
	_, err = s.Pop()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Frames())

	var top Frame
	s.Walk(func(f Frame) bool {
		top = f
		return false
	})
	assert.Same(t, a, top.Pool)
	assert.Equal(t, 42, top.Opaque)
	assert.Equal(t, 1, top.Depth())

	_, err = s.Pop()
	require.NoError(t, err)
	assert.Zero(t, s.Frames())
}

func TestStack_SamePoolTaggedAndUntagged(t *testing.T) {
	var s Stack
	p := testutil.SetupPool(t, pool.WithTag("p"))

	require.NoError(t, s.PushTagged(p, "outer", nil))
	require.NoError(t, s.Push(p))

	// The inner untagged push of the same pool must not take the outer frame.
	_, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Frames())
}

func TestStack_WalkStops(t *testing.T) {
	var s Stack
	p := testutil.SetupPool(t, pool.WithTag("p"))
	for _, tag := range []string{"one", "two", "three"} {
		require.NoError(t, s.PushTagged(p, tag, nil))
	}
	n := 0
	s.Walk(func(Frame) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)
}

func TestGuard_PopsOnce(t *testing.T) {
	var s Stack
	a := testutil.SetupPool(t, pool.WithTag("a"))
	b := testutil.SetupPool(t, pool.WithTag("b"))
	require.NoError(t, s.Push(a))

	g, err := s.EnterTagged(b, "work", nil)
	require.NoError(t, err)
	assert.Same(t, b, g.Pool())
	assert.Same(t, b, s.Current())

	require.NoError(t, g.Close())
	require.NoError(t, g.Close())
	assert.Same(t, a, s.Current(), "second close must not pop a")
	assert.Zero(t, s.Frames())

	var nilGuard *Guard
	require.NoError(t, nilGuard.Close())
}

func TestGuard_DeferOnEarlyReturn(t *testing.T) {
	var s Stack
	p := testutil.SetupPool(t, pool.WithTag("p"))

	work := func() error {
		g, err := s.Enter(p)
		if err != nil {
			return err
		}
		defer g.Close()
		return assert.AnError
	}
	require.ErrorIs(t, work(), assert.AnError)
	assert.Zero(t, s.Depth())
}

func TestGuard_OutOfOrderClose(t *testing.T) {
	var s Stack
	a := testutil.SetupPool(t, pool.WithTag("a"))
	b := testutil.SetupPool(t, pool.WithTag("b"))

	ga, err := s.Enter(a)
	require.NoError(t, err)
	gb, err := s.Enter(b)
	require.NoError(t, err)

	require.ErrorIs(t, ga.Close(), ErrMismatch)
	assert.Equal(t, 2, s.Depth(), "mismatched close pops nothing")

	require.NoError(t, gb.Close())
	assert.Same(t, a, s.Current())
}

func TestGuard_StaleAfterManualPop(t *testing.T) {
	var s Stack
	p := testutil.SetupPool(t, pool.WithTag("p"))

	g, err := s.Enter(p)
	require.NoError(t, err)
	_, err = s.Pop()
	require.NoError(t, err)

	// Same pool at the same depth, but a different push.
	require.NoError(t, s.PushTagged(p, "again", nil))
	require.ErrorIs(t, g.Close(), ErrMismatch)
	assert.Equal(t, 1, s.Depth())
	assert.Equal(t, 1, s.Frames())

	fresh, err := s.Enter(p)
	require.NoError(t, err)
	require.NoError(t, fresh.Close())
	assert.Equal(t, 1, s.Depth())
}

func TestGuard_EnterOverflow(t *testing.T) {
	var s Stack
	p := testutil.SetupPool(t, pool.WithTag("p"))
	for range format.StackDepth {
		require.NoError(t, s.Push(p))
	}
	g, err := s.Enter(p)
	require.ErrorIs(t, err, ErrOverflow)
	assert.Nil(t, g)
}

package recycle

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecycler_ZeroValueMisses(t *testing.T) {
	var r Recycler
	_, ok := r.Get(512)
	assert.False(t, ok)
	assert.Equal(t, int64(1), r.Stats().Misses)
	assert.Zero(t, r.Len())
}

func TestRecycler_PutKeepsAscendingOrder(t *testing.T) {
	r := New()
	for _, n := range []int{1024, 256, 4096, 512, 256} {
		r.Put(make([]byte, n))
	}
	assert.Equal(t, []int{256, 256, 512, 1024, 4096}, r.Sizes())
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, 256+256+512+1024+4096, r.Bytes())
}

func TestRecycler_GetSameAddress(t *testing.T) {
	r := New()
	buf := make([]byte, 300)
	r.Put(buf)

	got, ok := r.Get(300)
	require.True(t, ok)
	assert.Same(t, &buf[0], &got[0])
	assert.Zero(t, r.Len())
}

func TestRecycler_GetReportsActualSize(t *testing.T) {
	r := New()
	r.Put(make([]byte, 700))

	got, ok := r.Get(400)
	require.True(t, ok)
	assert.Len(t, got, 700, "caller sees the recycled size")
}

func TestRecycler_UsesCapacity(t *testing.T) {
	r := New()
	buf := make([]byte, 300, 512)
	r.Put(buf)
	assert.Equal(t, []int{512}, r.Sizes())
}

func TestRecycler_SkipsTooSmall(t *testing.T) {
	r := New()
	r.Put(make([]byte, 256))
	r.Put(make([]byte, 300))
	r.Put(make([]byte, 600))

	got, ok := r.Get(500)
	require.True(t, ok)
	assert.Len(t, got, 600)
	assert.Equal(t, []int{256, 300}, r.Sizes())
}

func TestRecycler_SlackWindowStopsScan(t *testing.T) {
	r := New()
	r.Put(make([]byte, 2048))

	_, ok := r.Get(1000)
	assert.False(t, ok, "2048 > 2*1000, must fall through")
	assert.Equal(t, int64(1), r.Stats().SlackStops)

	got, ok := r.Get(1024)
	require.True(t, ok, "exactly twice the request is inside the window")
	assert.Len(t, got, 2048)
}

func TestRecycler_EqualSizesFIFO(t *testing.T) {
	r := New()
	a := make([]byte, 512)
	b := make([]byte, 512)
	r.Put(a)
	r.Put(b)

	got, ok := r.Get(512)
	require.True(t, ok)
	assert.Same(t, &a[0], &got[0])
}

func TestRecycler_ReusesRecordNodes(t *testing.T) {
	r := New()
	for range 100 {
		r.Put(make([]byte, 1024))
		_, ok := r.Get(1024)
		require.True(t, ok)
	}
	assert.Len(t, r.recs, 1, "bookkeeping nodes must be recycled")
}

func TestRecycler_Reset(t *testing.T) {
	r := New()
	r.Put(make([]byte, 256))
	r.Put(make([]byte, 1024))
	r.Reset()

	assert.Zero(t, r.Len())
	assert.Zero(t, r.Bytes())
	assert.Empty(t, r.Sizes())
	_, ok := r.Get(256)
	assert.False(t, ok)

	r.Put(make([]byte, 256))
	assert.Equal(t, []int{256}, r.Sizes())
}

func TestRecycler_RandomizedInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := New()
	held := 0
	heldBytes := 0

	for range 5000 {
		if rng.IntN(2) == 0 {
			n := 256 + rng.IntN(8192)
			r.Put(make([]byte, n))
			held++
			heldBytes += n
		} else {
			want := 256 + rng.IntN(8192)
			if got, ok := r.Get(want); ok {
				require.GreaterOrEqual(t, len(got), want)
				require.LessOrEqual(t, len(got), 2*want)
				held--
				heldBytes -= len(got)
			}
		}
		require.Equal(t, held, r.Len())
		require.Equal(t, heldBytes, r.Bytes())
	}
	assert.True(t, slices.IsSorted(r.Sizes()))
}

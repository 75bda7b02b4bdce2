package pool

import "github.com/joshuapare/poolkit/pool/cleanup"

// counters are cumulative over the pool's life.
type counters struct {
	issued      int64 // bytes handed out by the bump path (aligned)
	acquired    int64 // bytes of Blocks obtained from the allocator
	smallAllocs int64
	largeAllocs int64
	recycleHits int64
	largeFrees  int64
}

// Stats is a snapshot of one pool.
type Stats struct {
	Tag   string
	State State

	Blocks        int // Blocks currently in the ring
	BytesReserved int // Total size of those Blocks
	BytesUsed     int // Bytes bumped in those Blocks

	BytesIssued   int64 // Cumulative bytes handed out by the bump path
	BytesAcquired int64 // Cumulative bytes of Blocks taken from the allocator

	SmallAllocs int64 // Requests routed to the bump path
	LargeAllocs int64 // Requests routed to the recycler first
	RecycleHits int64 // Large requests served by the recycler
	LargeFrees  int64 // Regions handed to the recycler

	RecyclerRegions int // Regions waiting for reuse
	RecyclerBytes   int // Bytes waiting for reuse

	Children    int
	Cleanups    int
	PreCleanups int
}

// Stats returns a snapshot of the pool. It does not include descendants; see
// TreeStats.
func (p *Pool) Stats() Stats {
	p.lock()
	defer p.unlock()

	s := Stats{
		Tag:             p.tag,
		State:           p.state,
		Blocks:          len(p.blocks),
		BytesIssued:     p.stats.issued,
		BytesAcquired:   p.stats.acquired,
		SmallAllocs:     p.stats.smallAllocs,
		LargeAllocs:     p.stats.largeAllocs,
		RecycleHits:     p.stats.recycleHits,
		LargeFrees:      p.stats.largeFrees,
		RecyclerRegions: p.large.Len(),
		RecyclerBytes:   p.large.Bytes(),
		Cleanups:        p.cleanups.Len(cleanup.Post),
		PreCleanups:     p.cleanups.Len(cleanup.Pre),
	}
	for _, b := range p.blocks {
		s.BytesReserved += b.Size()
		s.BytesUsed += b.Used()
	}
	for c := p.child; c != nil; c = c.sibling {
		s.Children++
	}
	return s
}

// TreeStats sums BytesReserved and BytesUsed over p and every descendant.
func (p *Pool) TreeStats() (pools, reserved, used int) {
	p.Walk(func(q *Pool) bool {
		s := q.Stats()
		pools++
		reserved += s.BytesReserved
		used += s.BytesUsed
		return true
	})
	return pools, reserved, used
}

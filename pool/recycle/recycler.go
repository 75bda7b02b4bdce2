// Package recycle keeps a pool's freed large objects for reuse.
//
// Freed regions are held in a singly linked list sorted ascending by size.
// Get walks from the smallest region and takes the first one that fits, but
// gives up as soon as it meets a region more than twice the request, so a
// small request never consumes a much larger region and the walk stays short.
//
// List nodes live in an index-addressed slice with a spare-index list, so
// repeated Put/Get cycles do not allocate bookkeeping. A Recycler is not safe
// for concurrent use; it belongs to exactly one pool.
package recycle

// slackFactor bounds how much larger than the request a reused region may be.
const slackFactor = 2

// record is one freed region. next is the index+1 of the successor; 0 ends
// the list.
type record struct {
	buf  []byte
	next int32
}

// Stats counts recycler activity.
type Stats struct {
	Puts       int64 // Regions handed back
	Hits       int64 // Requests served from the list
	Misses     int64 // Requests that fell through to fresh allocation
	SlackStops int64 // Misses caused by the slack window
}

// Recycler is a size-sorted free list. The zero value is ready to use.
type Recycler struct {
	recs  []record
	spare []int32 // free record indices (index+1)
	head  int32   // index+1 of the smallest region, 0 when empty

	count int
	bytes int
	stats Stats
}

// New returns an empty Recycler.
func New() *Recycler { return &Recycler{} }

// Get returns a freed region of at least size bytes. The region keeps its
// full recycled length, which may exceed size. ok is false on a miss.
func (r *Recycler) Get(size int) (buf []byte, ok bool) {
	var prev int32
	for cur := r.head; cur != 0; {
		rec := &r.recs[cur-1]
		n := len(rec.buf)
		if n > slackFactor*size {
			r.stats.SlackStops++
			break
		}
		if n >= size {
			r.unlink(prev, cur)
			return r.take(cur), true
		}
		prev = cur
		cur = rec.next
	}
	r.stats.Misses++
	return nil, false
}

func (r *Recycler) unlink(prev, cur int32) {
	next := r.recs[cur-1].next
	if prev == 0 {
		r.head = next
	} else {
		r.recs[prev-1].next = next
	}
}

func (r *Recycler) take(cur int32) []byte {
	rec := &r.recs[cur-1]
	buf := rec.buf
	rec.buf = nil
	rec.next = 0
	r.spare = append(r.spare, cur)
	r.count--
	r.bytes -= len(buf)
	r.stats.Hits++
	return buf
}

// Put hands a region back. The region is extended to its capacity before it
// is recorded. Regions of equal size are reused in the order they were put.
func (r *Recycler) Put(buf []byte) {
	buf = buf[:cap(buf)]
	n := len(buf)
	if n == 0 {
		return
	}

	idx := r.node()
	r.recs[idx-1].buf = buf

	var prev int32
	cur := r.head
	for cur != 0 && len(r.recs[cur-1].buf) <= n {
		prev = cur
		cur = r.recs[cur-1].next
	}
	r.recs[idx-1].next = cur
	if prev == 0 {
		r.head = idx
	} else {
		r.recs[prev-1].next = idx
	}

	r.count++
	r.bytes += n
	r.stats.Puts++
}

// node returns a free record index, reusing spares first.
func (r *Recycler) node() int32 {
	if n := len(r.spare); n > 0 {
		idx := r.spare[n-1]
		r.spare = r.spare[:n-1]
		return idx
	}
	r.recs = append(r.recs, record{})
	return int32(len(r.recs))
}

// Reset forgets every region. Used when the memory behind them is recycled
// wholesale by the owning pool.
func (r *Recycler) Reset() {
	clear(r.recs)
	r.recs = r.recs[:0]
	r.spare = r.spare[:0]
	r.head = 0
	r.count = 0
	r.bytes = 0
}

// Len returns the number of held regions.
func (r *Recycler) Len() int { return r.count }

// Bytes returns the total size of held regions.
func (r *Recycler) Bytes() int { return r.bytes }

// Stats returns the activity counters.
func (r *Recycler) Stats() Stats { return r.stats }

// Sizes returns held region sizes in list order.
func (r *Recycler) Sizes() []int {
	sizes := make([]int, 0, r.count)
	for cur := r.head; cur != 0; cur = r.recs[cur-1].next {
		sizes = append(sizes, len(r.recs[cur-1].buf))
	}
	return sizes
}

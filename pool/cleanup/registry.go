// Package cleanup implements the per-pool registry of deferred release
// callbacks.
//
// A Registry holds two LIFO lists: cleanups, which run after a pool's children
// are torn down, and pre-cleanups, which run before. Records live in an
// index-addressed slice and are recycled through a spare list, so kill and
// re-register cycles allocate nothing once the slice has grown.
//
// Registration returns a Handle. A Handle stays valid until its record is
// killed or run; after that it is inert, even if the slot is reused.
package cleanup

import "errors"

// Func releases the resource behind data.
type Func func(data any) error

// Kind selects one of the two cleanup lists.
type Kind uint8

const (
	// Post cleanups run after child pools are destroyed.
	Post Kind = iota
	// Pre cleanups run before child pools are destroyed.
	Pre
)

func (k Kind) String() string {
	if k == Pre {
		return "pre"
	}
	return "post"
}

// Handle identifies one registered callback.
type Handle struct {
	idx int32 // index+1 into recs; 0 is the invalid handle
	gen uint32
}

// Valid reports whether h was returned by a registration.
func (h Handle) Valid() bool { return h.idx != 0 }

type record struct {
	data any
	fn   Func
	next int32 // index+1 of the next record in the same list
	gen  uint32
	kind Kind
	live bool
}

// Registry is a pair of LIFO cleanup lists. The zero value is ready to use.
// It is not safe for concurrent use.
type Registry struct {
	recs  []record
	spare []int32
	heads [2]int32
	lens  [2]int
}

// Register pushes a cleanup that runs after child teardown.
func (r *Registry) Register(data any, fn Func) Handle {
	return r.push(Post, data, fn)
}

// PreRegister pushes a cleanup that runs before child teardown.
func (r *Registry) PreRegister(data any, fn Func) Handle {
	return r.push(Pre, data, fn)
}

func (r *Registry) push(kind Kind, data any, fn Func) Handle {
	idx := r.node()
	rec := &r.recs[idx-1]
	rec.data = data
	rec.fn = fn
	rec.kind = kind
	rec.live = true
	rec.next = r.heads[kind]
	r.heads[kind] = idx
	r.lens[kind]++
	return Handle{idx: idx, gen: rec.gen}
}

func (r *Registry) node() int32 {
	if n := len(r.spare); n > 0 {
		idx := r.spare[n-1]
		r.spare = r.spare[:n-1]
		return idx
	}
	r.recs = append(r.recs, record{})
	return int32(len(r.recs))
}

func (r *Registry) lookup(h Handle) *record {
	if h.idx <= 0 || int(h.idx) > len(r.recs) {
		return nil
	}
	rec := &r.recs[h.idx-1]
	if !rec.live || rec.gen != h.gen {
		return nil
	}
	return rec
}

// Kill removes the callback without invoking it. It reports whether h was
// still registered.
func (r *Registry) Kill(h Handle) bool {
	rec := r.lookup(h)
	if rec == nil {
		return false
	}
	kind := rec.kind

	var prev int32
	for cur := r.heads[kind]; cur != 0; cur = r.recs[cur-1].next {
		if cur == h.idx {
			if prev == 0 {
				r.heads[kind] = rec.next
			} else {
				r.recs[prev-1].next = rec.next
			}
			r.release(cur)
			return true
		}
		prev = cur
	}
	return false
}

// Take removes the callback without invoking it and hands back what was
// registered, so the caller can invoke it outside its own lock.
func (r *Registry) Take(h Handle) (data any, fn Func, ok bool) {
	rec := r.lookup(h)
	if rec == nil {
		return nil, nil, false
	}
	data, fn = rec.data, rec.fn
	if !r.Kill(h) {
		return nil, nil, false
	}
	return data, fn, true
}

// Run removes the callback and invokes it immediately.
func (r *Registry) Run(h Handle) (bool, error) {
	data, fn, ok := r.Take(h)
	if !ok {
		return false, nil
	}
	if fn == nil {
		return true, nil
	}
	return true, fn(data)
}

func (r *Registry) release(idx int32) {
	rec := &r.recs[idx-1]
	r.lens[rec.kind]--
	rec.data = nil
	rec.fn = nil
	rec.next = 0
	rec.live = false
	rec.gen++
	r.spare = append(r.spare, idx)
}

// RunPre pops and invokes every pre-cleanup, newest first.
func (r *Registry) RunPre() error { return r.runList(Pre) }

// RunPost pops and invokes every cleanup, newest first.
func (r *Registry) RunPost() error { return r.runList(Post) }

// runList drains one list. A callback that registers another callback of the
// same kind sees it run in the same pass. Every callback runs even if an
// earlier one failed; the errors are joined.
func (r *Registry) runList(kind Kind) error {
	var errs []error
	for r.heads[kind] != 0 {
		idx := r.heads[kind]
		rec := &r.recs[idx-1]
		data, fn := rec.data, rec.fn
		r.heads[kind] = rec.next
		r.release(idx)
		if fn == nil {
			continue
		}
		if err := fn(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of callbacks registered on one list.
func (r *Registry) Len(kind Kind) int { return r.lens[kind] }

// Reset drops every callback without invoking it.
func (r *Registry) Reset() {
	clear(r.recs)
	r.recs = r.recs[:0]
	r.spare = r.spare[:0]
	r.heads = [2]int32{}
	r.lens = [2]int{}
}

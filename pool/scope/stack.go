// Package scope tracks the pool currently in scope for a unit of work.
//
// A Stack is owned by one goroutine. It holds up to format.StackDepth pools,
// plus a parallel stack of tagged frames used only for diagnostics. Code that
// wants ambient access carries the Stack through a context.Context; see Use
// and Current.
//
//	g, err := st.Enter(p)
//	if err != nil {
//	    return err
//	}
//	defer g.Close()
package scope

import (
	"errors"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/pool"
)

var (
	// ErrOverflow is returned when pushing onto a full stack.
	ErrOverflow = errors.New("scope: stack overflow")

	// ErrUnderflow is returned when popping an empty stack.
	ErrUnderflow = errors.New("scope: stack underflow")

	// ErrMismatch is returned when a Guard closes while a later push is
	// still on the stack.
	ErrMismatch = errors.New("scope: guard closed out of order")

	// ErrNilPool is returned when pushing a nil pool.
	ErrNilPool = errors.New("scope: nil pool")
)

// Frame is one tagged push.
type Frame struct {
	Pool   *pool.Pool
	Tag    string
	Opaque any

	depth int // plain stack depth right after the push
}

// Depth returns the stack depth at which the frame was pushed, counting from 1.
func (f Frame) Depth() int { return f.depth }

// Stack is a fixed-capacity stack of pools. The zero value is empty and ready
// to use. It is not safe for concurrent use.
type Stack struct {
	pools [format.StackDepth]*pool.Pool
	seqs  [format.StackDepth]uint64 // push number of each entry
	n     int
	seq   uint64

	frames [format.StackDepth]Frame
	nf     int
}

// New returns an empty Stack.
func New() *Stack { return &Stack{} }

// Push makes p the current pool.
func (s *Stack) Push(p *pool.Pool) error {
	if p == nil {
		return ErrNilPool
	}
	if s.n == len(s.pools) {
		logger.Debug("scope: overflow", "pool", p.Tag(), "depth", s.n)
		return ErrOverflow
	}
	s.seq++
	s.pools[s.n] = p
	s.seqs[s.n] = s.seq
	s.n++
	return nil
}

// PushTagged is Push that also records a diagnostic frame.
func (s *Stack) PushTagged(p *pool.Pool, tag string, opaque any) error {
	if err := s.Push(p); err != nil {
		return err
	}
	s.frames[s.nf] = Frame{Pool: p, Tag: tag, Opaque: opaque, depth: s.n}
	s.nf++
	return nil
}

// Pop removes and returns the current pool. The top diagnostic frame goes
// with it only if it was recorded by the same push.
func (s *Stack) Pop() (*pool.Pool, error) {
	if s.n == 0 {
		return nil, ErrUnderflow
	}
	p := s.pools[s.n-1]
	if s.nf > 0 {
		if top := s.frames[s.nf-1]; top.depth == s.n && top.Pool == p {
			s.nf--
			s.frames[s.nf] = Frame{}
		}
	}
	s.n--
	s.pools[s.n] = nil
	s.seqs[s.n] = 0
	return p, nil
}

// Current returns the pool on top of the stack, or nil.
func (s *Stack) Current() *pool.Pool {
	if s == nil || s.n == 0 {
		return nil
	}
	return s.pools[s.n-1]
}

// Depth returns the number of pushed pools.
func (s *Stack) Depth() int { return s.n }

// Frames returns the number of diagnostic frames.
func (s *Stack) Frames() int { return s.nf }

// Walk visits the diagnostic frames from the most recent push to the oldest.
// Returning false from fn stops the walk.
func (s *Stack) Walk(fn func(Frame) bool) {
	for i := s.nf - 1; i >= 0; i-- {
		if !fn(s.frames[i]) {
			return
		}
	}
}

// Guard pops its push when closed.
type Guard struct {
	s      *Stack
	p      *pool.Pool
	depth  int
	seq    uint64
	closed bool
}

// Enter pushes p and returns a Guard that pops it.
func (s *Stack) Enter(p *pool.Pool) (*Guard, error) {
	if err := s.Push(p); err != nil {
		return nil, err
	}
	return s.guard(p), nil
}

// EnterTagged is Enter with a diagnostic frame.
func (s *Stack) EnterTagged(p *pool.Pool, tag string, opaque any) (*Guard, error) {
	if err := s.PushTagged(p, tag, opaque); err != nil {
		return nil, err
	}
	return s.guard(p), nil
}

// guard ties a Guard to the push just made.
func (s *Stack) guard(p *pool.Pool) *Guard {
	return &Guard{s: s, p: p, depth: s.n, seq: s.seqs[s.n-1]}
}

// Pool returns the guarded pool.
func (g *Guard) Pool() *pool.Pool { return g.p }

// Close pops the guarded push. Only the first call has an effect. If the
// guarded push is no longer on top, including when it was popped by hand and
// the same pool pushed again, nothing is popped and ErrMismatch is returned.
// A nil Guard is a no-op.
func (g *Guard) Close() error {
	if g == nil || g.closed {
		return nil
	}
	g.closed = true
	if g.s.n != g.depth || g.s.seqs[g.depth-1] != g.seq {
		logger.Warn("scope: guard mismatch", "pool", g.p.Tag(), "want_depth", g.depth, "depth", g.s.n)
		return ErrMismatch
	}
	_, err := g.s.Pop()
	return err
}

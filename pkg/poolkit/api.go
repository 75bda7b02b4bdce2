package poolkit

import (
	"context"
	"errors"

	"github.com/joshuapare/poolkit/pool"
	"github.com/joshuapare/poolkit/pool/block"
	"github.com/joshuapare/poolkit/pool/cleanup"
	"github.com/joshuapare/poolkit/pool/scope"
)

type (
	// Pool is a hierarchical memory arena.
	Pool = pool.Pool

	// Option configures Create.
	Option = pool.Option

	// CleanupFunc releases a resource registered with a pool.
	CleanupFunc = cleanup.Func

	// Handle identifies a registered cleanup.
	Handle = cleanup.Handle

	// Frame is a tagged entry on the context stack.
	Frame = scope.Frame
)

// Options for Create.
var (
	WithAllocator   = pool.WithAllocator
	WithBlockConfig = pool.WithBlockConfig
	WithThreshold   = pool.WithThreshold
	WithAlignment   = pool.WithAlignment
	WithTag         = pool.WithTag
	WithLocking     = pool.WithLocking
)

// Errors returned by this package.
var (
	ErrDestroyed   = pool.ErrDestroyed
	ErrClearing    = pool.ErrClearing
	ErrOutOfMemory = block.ErrOutOfMemory
	ErrOverflow    = scope.ErrOverflow
	ErrUnderflow   = scope.ErrUnderflow

	// ErrNoContext is returned by the context operations when ctx was not
	// prepared with NewContext.
	ErrNoContext = errors.New("poolkit: context has no pool stack")
)

// Create makes a pool under parent, or a root pool when parent is nil.
func Create(parent *Pool, opts ...Option) (*Pool, error) {
	return pool.New(parent, opts...)
}

// Global returns the process-wide root pool.
func Global() (*Pool, error) { return pool.Global() }

// Destroy tears down p and its subtree.
func Destroy(p *Pool) error { return p.Destroy() }

// Clear empties p in place: its children are destroyed, its cleanups run and
// its memory is reset, but p stays usable.
func Clear(p *Pool) error { return p.Clear() }

// Alloc returns n bytes from p and the usable size actually reserved, which
// may exceed n when a recycled region is reused.
func Alloc(p *Pool, n int) ([]byte, int, error) {
	b, err := p.Alloc(n)
	if err != nil {
		return nil, 0, err
	}
	return b, cap(b), nil
}

// Free hands a region from Alloc back to p for reuse.
func Free(p *Pool, b []byte) error { return p.Free(b) }

// CleanupRegister runs fn(data) when p is cleared or destroyed.
func CleanupRegister(p *Pool, data any, fn CleanupFunc) (Handle, error) {
	return p.RegisterCleanup(data, fn)
}

// CleanupPreRegister runs fn(data) before p's children are destroyed.
func CleanupPreRegister(p *Pool, data any, fn CleanupFunc) (Handle, error) {
	return p.PreRegisterCleanup(data, fn)
}

// CleanupKill drops a registered cleanup without running it.
func CleanupKill(p *Pool, h Handle) bool { return p.KillCleanup(h) }

// CleanupRun drops a registered cleanup and runs it now.
func CleanupRun(p *Pool, h Handle) (bool, error) { return p.RunCleanup(h) }

// NewContext returns ctx with an empty pool stack attached. A ctx that
// already carries one is returned unchanged.
func NewContext(ctx context.Context) context.Context {
	if _, ok := scope.FromContext(ctx); ok {
		return ctx
	}
	return scope.WithStack(ctx, scope.New())
}

func stackOf(ctx context.Context) (*scope.Stack, error) {
	s, ok := scope.FromContext(ctx)
	if !ok {
		return nil, ErrNoContext
	}
	return s, nil
}

// Push makes p the current pool of ctx.
func Push(ctx context.Context, p *Pool) error {
	s, err := stackOf(ctx)
	if err != nil {
		return err
	}
	return s.Push(p)
}

// PushTagged is Push that also records a frame for DiagnosticWalk.
func PushTagged(ctx context.Context, p *Pool, tag string, opaque any) error {
	s, err := stackOf(ctx)
	if err != nil {
		return err
	}
	return s.PushTagged(p, tag, opaque)
}

// Pop removes and returns the current pool of ctx.
func Pop(ctx context.Context) (*Pool, error) {
	s, err := stackOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.Pop()
}

// Current returns the current pool of ctx, or nil.
func Current(ctx context.Context) *Pool { return scope.Current(ctx) }

// Enter pushes p on ctx's stack, attaching one if needed, and returns a
// guard whose Close pops it.
func Enter(ctx context.Context, p *Pool) (context.Context, *scope.Guard, error) {
	return scope.Use(ctx, p)
}

// DiagnosticWalk visits the tagged pushes on ctx's stack, newest first,
// until fn returns false.
func DiagnosticWalk(ctx context.Context, fn func(Frame) bool) {
	if s, ok := scope.FromContext(ctx); ok {
		s.Walk(fn)
	}
}

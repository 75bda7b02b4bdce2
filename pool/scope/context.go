package scope

import (
	"context"

	"github.com/joshuapare/poolkit/pool"
)

type ctxKey struct{}

// WithStack returns a copy of ctx carrying s.
func WithStack(ctx context.Context, s *Stack) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the Stack carried by ctx.
func FromContext(ctx context.Context) (*Stack, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Stack)
	return s, ok && s != nil
}

// Use enters p on the Stack carried by ctx, attaching a new Stack on first
// use. The returned context carries that Stack.
func Use(ctx context.Context, p *pool.Pool) (context.Context, *Guard, error) {
	s, ok := FromContext(ctx)
	if !ok {
		s = New()
		ctx = WithStack(ctx, s)
	}
	g, err := s.Enter(p)
	if err != nil {
		return ctx, nil, err
	}
	return ctx, g, nil
}

// Current returns the current pool of the Stack carried by ctx, or nil.
func Current(ctx context.Context) *pool.Pool {
	s, _ := FromContext(ctx)
	return s.Current()
}

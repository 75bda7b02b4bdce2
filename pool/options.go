package pool

import (
	"fmt"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/pool/block"
)

// Option configures a pool at creation.
type Option func(*options)

type options struct {
	allocator   *block.Allocator
	blockConfig *block.Config
	threshold   int
	alignment   int
	tag         string
	locked      bool
}

// WithAllocator makes the pool draw Blocks from a. The pool does not own a
// and never destroys it.
func WithAllocator(a *block.Allocator) Option {
	return func(o *options) { o.allocator = a }
}

// WithBlockConfig gives the pool its own allocator built from cfg. The pool
// owns it and destroys it with the pool. This is how a subtree gets an
// independent, separately budgeted arena.
func WithBlockConfig(cfg block.Config) Option {
	return func(o *options) { o.blockConfig = &cfg }
}

// WithThreshold sets the big-object threshold. Children inherit it.
func WithThreshold(n int) Option {
	return func(o *options) { o.threshold = n }
}

// WithAlignment sets the bump-path alignment, a power of two. Children
// inherit it.
func WithAlignment(n int) Option {
	return func(o *options) { o.alignment = n }
}

// WithTag names the pool in logs, stats and diagnostics.
func WithTag(tag string) Option {
	return func(o *options) { o.tag = tag }
}

// WithLocking serializes the pool's allocation and registration paths with a
// mutex.
func WithLocking() Option {
	return func(o *options) { o.locked = true }
}

func (o *options) resolve(parent *Pool) error {
	if o.allocator != nil && o.blockConfig != nil {
		return fmt.Errorf("%w: allocator and block config are exclusive", ErrOption)
	}
	if o.threshold == 0 {
		o.threshold = format.BigObjectThreshold
		if parent != nil {
			o.threshold = parent.threshold
		}
	}
	if o.threshold < 0 {
		return fmt.Errorf("%w: threshold %d", ErrOption, o.threshold)
	}
	if o.alignment == 0 {
		o.alignment = format.Alignment
		if parent != nil {
			o.alignment = parent.align
		}
	}
	if !format.IsPow2(o.alignment) {
		return fmt.Errorf("%w: alignment %d is not a power of two", ErrOption, o.alignment)
	}
	return nil
}

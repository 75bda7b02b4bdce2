package pool

import (
	"fmt"
	"sync"

	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/pool/block"
	"github.com/joshuapare/poolkit/pool/cleanup"
	"github.com/joshuapare/poolkit/pool/recycle"
)

// State is a pool's position in its lifecycle.
type State uint8

const (
	// StateActive accepts allocations, cleanups and children.
	StateActive State = iota
	// StateClearing is running cleanups and destroying children.
	StateClearing
	// StateDestroyed is terminal.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateClearing:
		return "clearing"
	case StateDestroyed:
		return "destroyed"
	default:
		return "invalid"
	}
}

// Pool is a hierarchical arena. See the package documentation.
type Pool struct {
	parent      *Pool
	child       *Pool // newest child
	sibling     *Pool // next older sibling
	prevSibling *Pool // next newer sibling, nil for the newest child

	allocator     *block.Allocator
	ownsAllocator bool

	// self is the first Block, acquired at creation and kept until Destroy.
	self *block.Block
	// blocks[0] is the active Block. The rest are ordered by descending
	// free-space estimate.
	blocks []*block.Block

	cleanups cleanup.Registry
	large    recycle.Recycler

	threshold int
	align     int
	tag       string
	state     State
	global    bool

	locked bool
	mu     sync.Mutex

	stats counters
}

// New creates a pool. A nil parent makes a root pool; a root without
// WithAllocator gets its own allocator built from block.DefaultConfig (or
// WithBlockConfig) and destroys it when the pool is destroyed.
func New(parent *Pool, opts ...Option) (*Pool, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.resolve(parent); err != nil {
		return nil, err
	}

	if parent != nil {
		if err := parent.checkAccepting("create child"); err != nil {
			return nil, err
		}
	}

	alloc, owns, err := chooseAllocator(parent, &o)
	if err != nil {
		return nil, err
	}

	self, err := alloc.Alloc(0)
	if err != nil {
		if owns {
			_ = alloc.Destroy()
		}
		return nil, fmt.Errorf("pool %q: create: %w", o.tag, err)
	}

	p := &Pool{
		allocator:     alloc,
		ownsAllocator: owns,
		self:          self,
		blocks:        []*block.Block{self},
		threshold:     o.threshold,
		align:         o.alignment,
		tag:           o.tag,
		locked:        o.locked,
	}
	p.stats.acquired = int64(self.Size())

	if parent != nil {
		if err := parent.link(p); err != nil {
			p.releaseBlocks()
			if owns {
				_ = alloc.Destroy()
			}
			return nil, err
		}
	}

	logger.Debug("pool: created", "tag", p.tag, "root", parent == nil, "owns_allocator", owns)
	return p, nil
}

func chooseAllocator(parent *Pool, o *options) (*block.Allocator, bool, error) {
	switch {
	case o.allocator != nil:
		return o.allocator, false, nil
	case o.blockConfig != nil:
		a, err := block.New(*o.blockConfig)
		if err != nil {
			return nil, false, err
		}
		return a, true, nil
	case parent != nil:
		return parent.allocator, false, nil
	default:
		a, err := block.New(block.DefaultConfig)
		if err != nil {
			return nil, false, err
		}
		return a, true, nil
	}
}

// NewChild creates a child pool sharing p's allocator unless opts supply
// another one.
func (p *Pool) NewChild(opts ...Option) (*Pool, error) {
	return New(p, opts...)
}

func (p *Pool) lock() {
	if p.locked {
		p.mu.Lock()
	}
}

func (p *Pool) unlock() {
	if p.locked {
		p.mu.Unlock()
	}
}

// checkAccepting reports whether the pool may take new cleanups or children.
func (p *Pool) checkAccepting(op string) error {
	p.lock()
	defer p.unlock()
	return p.acceptingLocked(op)
}

func (p *Pool) acceptingLocked(op string) error {
	switch p.state {
	case StateDestroyed:
		return fmt.Errorf("pool %q: %s: %w", p.tag, op, ErrDestroyed)
	case StateClearing:
		return fmt.Errorf("pool %q: %s: %w", p.tag, op, ErrClearing)
	}
	return nil
}

// Tag returns the pool's name.
func (p *Pool) Tag() string { return p.tag }

// SetTag renames the pool.
func (p *Pool) SetTag(tag string) { p.tag = tag }

// State returns the lifecycle state.
func (p *Pool) State() State {
	p.lock()
	defer p.unlock()
	return p.state
}

// Parent returns the parent pool, nil for a root.
func (p *Pool) Parent() *Pool { return p.parent }

// Allocator returns the block allocator the pool draws from.
func (p *Pool) Allocator() *block.Allocator { return p.allocator }

// OwnsAllocator reports whether destroying the pool destroys its allocator.
func (p *Pool) OwnsAllocator() bool { return p.ownsAllocator }

// Threshold returns the big-object threshold.
func (p *Pool) Threshold() int { return p.threshold }

func (p *Pool) String() string {
	if p.tag == "" {
		return fmt.Sprintf("pool(%p)", p)
	}
	return "pool(" + p.tag + ")"
}

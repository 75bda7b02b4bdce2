package pool

import (
	"errors"
	"fmt"

	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/pool/block"
)

// Clear runs the pool's pre-cleanups, destroys its children, runs its
// cleanups, and then returns every Block except the first to the allocator.
// The pool stays usable. Errors from cleanup callbacks are joined and
// returned after teardown completes.
func (p *Pool) Clear() error {
	if err := p.beginTeardown("clear"); err != nil {
		return err
	}
	err := p.teardown()

	p.lock()
	p.resetLocked()
	p.state = StateActive
	p.unlock()

	logger.Debug("pool: cleared", "tag", p.tag)
	return err
}

// Destroy tears the pool down like Clear, detaches it from its parent, and
// returns all of its Blocks. An allocator owned by the pool is destroyed
// last. The pool cannot be used afterwards.
func (p *Pool) Destroy() error {
	if p.global {
		return fmt.Errorf("pool %q: destroy: %w", p.tag, ErrGlobal)
	}
	if err := p.beginTeardown("destroy"); err != nil {
		return err
	}
	return p.finish(p.teardown())
}

// beginTeardown moves an active pool to Clearing.
func (p *Pool) beginTeardown(op string) error {
	p.lock()
	defer p.unlock()
	if err := p.acceptingLocked(op); err != nil {
		return err
	}
	p.state = StateClearing
	return nil
}

// teardown runs the fixed sequence: pre-cleanups, children, cleanups.
func (p *Pool) teardown() error {
	errPre := p.cleanups.RunPre()
	errChildren := p.destroyChildren()
	errPost := p.cleanups.RunPost()
	return errors.Join(errPre, errChildren, errPost)
}

func (p *Pool) destroyChildren() error {
	var errs []error
	for {
		c := p.firstChild()
		if c == nil {
			break
		}
		if err := c.destroyFromParent(); err != nil {
			errs = append(errs, err)
		}
		if p.firstChild() == c {
			p.unlink(c)
		}
	}
	return errors.Join(errs...)
}

// destroyFromParent is Destroy for a child whose parent is tearing down. A
// child that is already mid-teardown is left to finish on its own stack.
func (p *Pool) destroyFromParent() error {
	p.lock()
	switch p.state {
	case StateDestroyed:
		p.unlock()
		return nil
	case StateClearing:
		p.unlock()
		return fmt.Errorf("pool %q: destroy: %w", p.tag, ErrClearing)
	}
	p.state = StateClearing
	p.unlock()
	return p.finish(p.teardown())
}

// finish completes Destroy once teardown has run.
func (p *Pool) finish(err error) error {
	if p.parent != nil {
		p.parent.unlink(p)
	}

	p.lock()
	if relErr := p.releaseBlocksLocked(); relErr != nil {
		err = errors.Join(err, relErr)
	}
	p.large.Reset()
	p.cleanups.Reset()
	p.state = StateDestroyed
	p.unlock()

	if p.ownsAllocator {
		if aerr := p.allocator.Destroy(); aerr != nil {
			err = errors.Join(err, aerr)
		}
	}

	logger.Debug("pool: destroyed", "tag", p.tag, "issued", p.stats.issued, "acquired", p.stats.acquired)
	return err
}

// resetLocked returns every Block except self and rewinds self.
func (p *Pool) resetLocked() {
	rest := make([]*block.Block, 0, len(p.blocks))
	for _, b := range p.blocks {
		if b != p.self {
			rest = append(rest, b)
		}
	}
	if len(rest) > 0 {
		if err := p.allocator.Free(rest...); err != nil {
			logger.Warn("pool: returning blocks", "tag", p.tag, "err", err)
		}
	}
	p.self.Reset()
	clear(p.blocks)
	p.blocks = append(p.blocks[:0], p.self)
	p.large.Reset()
}

func (p *Pool) releaseBlocks() {
	p.lock()
	defer p.unlock()
	_ = p.releaseBlocksLocked()
}

func (p *Pool) releaseBlocksLocked() error {
	if len(p.blocks) == 0 {
		return nil
	}
	err := p.allocator.Free(p.blocks...)
	clear(p.blocks)
	p.blocks = nil
	p.self = nil
	return err
}

package pool

import (
	"fmt"

	"github.com/joshuapare/poolkit/pool/cleanup"
)

// RegisterCleanup arranges for fn(data) to run when the pool is cleared or
// destroyed, after its children are gone. Cleanups run newest first.
func (p *Pool) RegisterCleanup(data any, fn cleanup.Func) (cleanup.Handle, error) {
	return p.register(cleanup.Post, data, fn)
}

// PreRegisterCleanup arranges for fn(data) to run before the pool's children
// are destroyed. Use it for resources the children's own cleanups rely on.
func (p *Pool) PreRegisterCleanup(data any, fn cleanup.Func) (cleanup.Handle, error) {
	return p.register(cleanup.Pre, data, fn)
}

func (p *Pool) register(kind cleanup.Kind, data any, fn cleanup.Func) (cleanup.Handle, error) {
	if fn == nil {
		return cleanup.Handle{}, fmt.Errorf("pool %q: register %s cleanup: %w", p.tag, kind, ErrNilCleanup)
	}
	p.lock()
	defer p.unlock()
	if err := p.acceptingLocked("register " + kind.String() + " cleanup"); err != nil {
		return cleanup.Handle{}, err
	}
	if kind == cleanup.Pre {
		return p.cleanups.PreRegister(data, fn), nil
	}
	return p.cleanups.Register(data, fn), nil
}

// KillCleanup unregisters a cleanup without running it, for resources that
// were released some other way. It reports whether h was still registered.
func (p *Pool) KillCleanup(h cleanup.Handle) bool {
	p.lock()
	defer p.unlock()
	if p.state == StateDestroyed {
		return false
	}
	return p.cleanups.Kill(h)
}

// RunCleanup unregisters a cleanup and runs it now, leaving the pool alive.
func (p *Pool) RunCleanup(h cleanup.Handle) (bool, error) {
	p.lock()
	if p.state == StateDestroyed {
		p.unlock()
		return false, fmt.Errorf("pool %q: run cleanup: %w", p.tag, ErrDestroyed)
	}
	// Remove under the lock, invoke outside it so the callback may use the pool.
	data, fn, ok := p.cleanups.Take(h)
	p.unlock()
	if !ok || fn == nil {
		return ok, nil
	}
	return true, fn(data)
}

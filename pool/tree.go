package pool

// link inserts c at the head of p's child list.
func (p *Pool) link(c *Pool) error {
	p.lock()
	defer p.unlock()
	if err := p.acceptingLocked("create child"); err != nil {
		return err
	}
	c.parent = p
	c.sibling = p.child
	if p.child != nil {
		p.child.prevSibling = c
	}
	p.child = c
	return nil
}

// unlink removes c from p's child list in O(1). Unlinking a pool that is not
// p's child is a no-op.
func (p *Pool) unlink(c *Pool) {
	p.lock()
	defer p.unlock()
	if c.parent != p {
		return
	}
	if c.prevSibling != nil {
		c.prevSibling.sibling = c.sibling
	} else if p.child == c {
		p.child = c.sibling
	}
	if c.sibling != nil {
		c.sibling.prevSibling = c.prevSibling
	}
	c.parent = nil
	c.sibling = nil
	c.prevSibling = nil
}

func (p *Pool) firstChild() *Pool {
	p.lock()
	defer p.unlock()
	return p.child
}

// Children returns the live children, newest first.
func (p *Pool) Children() []*Pool {
	p.lock()
	defer p.unlock()
	var out []*Pool
	for c := p.child; c != nil; c = c.sibling {
		out = append(out, c)
	}
	return out
}

// IsAncestor reports whether p is other or one of other's ancestors.
func (p *Pool) IsAncestor(other *Pool) bool {
	for q := other; q != nil; q = q.parent {
		if q == p {
			return true
		}
	}
	return false
}

// Walk visits p and its descendants depth first, parents before children and
// newer children before older ones. Returning false from fn stops the walk.
func (p *Pool) Walk(fn func(*Pool) bool) {
	p.walk(fn)
}

func (p *Pool) walk(fn func(*Pool) bool) bool {
	if !fn(p) {
		return false
	}
	for _, c := range p.Children() {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

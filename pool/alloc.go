package pool

import (
	"fmt"
	"os"
	"slices"
	"unsafe"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/pool/block"
)

// Allocation tracing, controlled by the POOLKIT_LOG_ALLOC environment variable.
var logAlloc = os.Getenv(logger.EnvAllocLog) != ""

// Alloc returns n bytes from the pool. The slice has len n. For large
// requests its cap is the usable size actually reserved, which for a recycled
// region may be up to twice n; small requests are capped at n. Contents are
// not zeroed.
//
// Requests below the big-object threshold use the bump path. Requests at or
// above it try the recycler first and fall back to the bump path.
func (p *Pool) Alloc(n int) ([]byte, error) {
	p.lock()
	defer p.unlock()
	return p.allocLocked(n)
}

func (p *Pool) allocLocked(n int) ([]byte, error) {
	if p.state == StateDestroyed {
		return nil, fmt.Errorf("pool %q: alloc: %w", p.tag, ErrDestroyed)
	}
	if n <= 0 {
		return nil, fmt.Errorf("pool %q: alloc %d bytes: %w", p.tag, n, ErrBadSize)
	}

	if n >= p.threshold {
		p.stats.largeAllocs++
		if buf, ok := p.large.Get(n); ok {
			p.stats.recycleHits++
			if logAlloc {
				logger.Debug("pool: recycled", "tag", p.tag, "size", n, "actual", len(buf))
			}
			return buf[:n], nil
		}
		return p.bump(n)
	}
	p.stats.smallAllocs++
	b, err := p.bump(n)
	if err != nil {
		return nil, err
	}
	return b[:n:n], nil
}

// Calloc is Alloc with the returned bytes zeroed.
func (p *Pool) Calloc(n int) ([]byte, error) {
	b, err := p.Alloc(n)
	if err != nil {
		return nil, err
	}
	clear(b)
	return b, nil
}

// bump carves n bytes out of the Block ring. The result has len n and cap
// n rounded up to the pool alignment.
func (p *Pool) bump(n int) ([]byte, error) {
	size, ok := format.AlignUp(n, p.align)
	if !ok {
		return nil, fmt.Errorf("pool %q: alloc %d bytes: %w", p.tag, n, ErrBadSize)
	}

	active := p.blocks[0]
	if size <= active.Avail() {
		p.stats.issued += int64(size)
		return active.Bump(size)[:n], nil
	}

	// The next Block has the most free space of the rest; promote it if it
	// fits, otherwise take a new Block.
	var node *block.Block
	if len(p.blocks) > 1 && size <= p.blocks[1].Avail() {
		node = p.blocks[1]
		p.blocks = slices.Delete(p.blocks, 1, 2)
	} else {
		b, err := p.allocator.Alloc(size)
		if err != nil {
			return nil, fmt.Errorf("pool %q: alloc %d bytes: %w", p.tag, n, err)
		}
		node = b
		p.stats.acquired += int64(b.Size())
		if logAlloc {
			logger.Debug("pool: new block", "tag", p.tag, "size", b.Size(), "request", n, "ring", len(p.blocks)+1)
		}
	}

	// Re-insert the old active Block before the first Block with no more
	// free space than it has, keeping the tail in descending order.
	freeIndex := active.UpdateFreeIndex()
	rest := p.blocks[1:]
	pos := len(rest)
	for i, b := range rest {
		if b.FreeIndex() <= freeIndex {
			pos = i
			break
		}
	}
	p.blocks[0] = node
	p.blocks = slices.Insert(p.blocks, 1+pos, active)

	p.stats.issued += int64(size)
	return node.Bump(size)[:n], nil
}

// Free hands a region back to the pool. Regions whose capacity reaches the
// big-object threshold are kept for reuse by later large allocations; smaller
// ones are reclaimed only when the pool is cleared. A large region that does
// not lie in one of this pool's Blocks is refused with ErrForeignRegion. The
// region must not be used afterwards.
func (p *Pool) Free(b []byte) error {
	p.lock()
	defer p.unlock()

	if p.state == StateDestroyed {
		return fmt.Errorf("pool %q: free: %w", p.tag, ErrDestroyed)
	}
	if cap(b) < p.threshold || cap(b) == 0 {
		return nil
	}
	if !p.ownsLocked(b) {
		return fmt.Errorf("pool %q: free %d bytes: %w", p.tag, cap(b), ErrForeignRegion)
	}
	p.large.Put(b)
	p.stats.largeFrees++
	return nil
}

func (p *Pool) ownsLocked(b []byte) bool {
	for _, blk := range p.blocks {
		if blk.Contains(b) {
			return true
		}
	}
	return false
}

// Dup copies b into pool memory.
func (p *Pool) Dup(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, nil
	}
	dst, err := p.Alloc(len(b))
	if err != nil {
		return nil, err
	}
	copy(dst, b)
	return dst, nil
}

// DupString copies s into pool memory. The result is only valid until the
// pool is cleared or destroyed.
func (p *Pool) DupString(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	dst, err := p.Alloc(len(s))
	if err != nil {
		return "", err
	}
	copy(dst, s)
	return unsafe.String(&dst[0], len(dst)), nil
}

package block

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/logger"
	"github.com/joshuapare/poolkit/internal/sysmem"
)

// Allocator recycles Blocks in size-classed buckets.
type Allocator struct {
	cfg     Config
	src     sysmem.Source
	unit    int
	shift   int
	minSize int

	mu sync.Mutex

	// buckets[0] is the sink, sorted ascending by size. buckets[i] for i >= 1
	// holds Blocks of exactly i+1 units and is used as a stack.
	buckets  [format.MaxIndex][]*Block
	maxIndex int // highest non-empty exact bucket, 0 when none

	freeBytes int
	maxFree   int
	destroyed bool

	stats Stats
}

// New creates an allocator from cfg.
func New(cfg Config) (*Allocator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	src := cfg.Source
	if src == nil {
		src = sysmem.Default()
	}
	return &Allocator{
		cfg:     cfg,
		src:     src,
		unit:    cfg.BoundaryUnit,
		shift:   format.Log2(cfg.BoundaryUnit),
		minSize: cfg.MinUnits * cfg.BoundaryUnit,
		maxFree: cfg.MaxFree,
	}, nil
}

// MustNew is New for configurations known to be valid.
func MustNew(cfg Config) *Allocator {
	a, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

// Config returns the configuration the allocator was built with.
func (a *Allocator) Config() Config { return a.cfg }

// BoundaryUnit returns the Block granularity in bytes.
func (a *Allocator) BoundaryUnit() int { return a.unit }

// Threaded reports whether the allocator locks its buckets.
func (a *Allocator) Threaded() bool { return a.cfg.Threaded }

func (a *Allocator) lock() {
	if a.cfg.Threaded {
		a.mu.Lock()
	}
}

func (a *Allocator) unlock() {
	if a.cfg.Threaded {
		a.mu.Unlock()
	}
}

// Alloc returns a Block with at least requested bytes available.
//
// The size is rounded up to the boundary unit and clamped to the minimum
// Block. A recycled Block from the first non-empty bucket at or above the
// target index is preferred; otherwise fresh memory is mapped.
func (a *Allocator) Alloc(requested int) (*Block, error) {
	if requested < 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadSize, requested)
	}
	size, ok := format.AlignUp(requested, a.unit)
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, requested)
	}
	if size < a.minSize {
		size = a.minSize
	}
	index := size>>a.shift - 1

	a.lock()
	if a.destroyed {
		a.unlock()
		return nil, ErrDestroyed
	}
	if b := a.takeLocked(index); b != nil {
		a.freeBytes -= b.Size()
		a.stats.Reuses++
		b.state = StateOwned
		b.Reset()
		a.unlock()
		return b, nil
	}
	a.unlock()

	buf, err := a.src.Map(size)
	if err != nil {
		logger.Warn("block: source exhausted", "size", size, "err", err)
		return nil, fmt.Errorf("%w: %d bytes: %w", ErrOutOfMemory, size, err)
	}

	a.lock()
	a.stats.Maps++
	a.stats.LiveBlocks++
	a.stats.MappedBytes += int64(size)
	a.unlock()

	logger.Debug("block: mapped", "allocator", a.cfg.Name, "size", size, "index", index)

	b := &Block{buf: buf, index: index, state: StateOwned, owner: a}
	b.UpdateFreeIndex()
	return b, nil
}

// takeLocked removes the best recycled Block for index, or returns nil.
func (a *Allocator) takeLocked(index int) *Block {
	if index <= a.maxIndex {
		i := index
		for i < a.maxIndex && len(a.buckets[i]) == 0 {
			i++
		}
		bucket := a.buckets[i]
		if len(bucket) == 0 {
			return nil
		}
		b := bucket[len(bucket)-1]
		bucket[len(bucket)-1] = nil
		a.buckets[i] = bucket[:len(bucket)-1]
		if i == a.maxIndex && len(a.buckets[i]) == 0 {
			for a.maxIndex > 0 && len(a.buckets[a.maxIndex]) == 0 {
				a.maxIndex--
			}
		}
		return b
	}

	sink := a.buckets[0]
	if len(sink) == 0 {
		return nil
	}
	pos, _ := slices.BinarySearchFunc(sink, index, func(b *Block, target int) int {
		return b.index - target
	})
	if pos == len(sink) {
		return nil
	}
	b := sink[pos]
	a.buckets[0] = slices.Delete(sink, pos, pos+1)
	return b
}

// Free hands Blocks back for reuse. Blocks beyond the budget are released to
// the source after the lock is dropped. Blocks that are not currently owned,
// or that belong to another allocator, are skipped and reported.
func (a *Allocator) Free(blocks ...*Block) error {
	var (
		release []*Block
		errs    []error
	)

	a.lock()
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if b.owner != a || b.state != StateOwned {
			errs = append(errs, fmt.Errorf("%w: %s block of %d bytes", ErrBlockState, b.state, len(b.buf)))
			continue
		}
		size := b.Size()
		if a.destroyed || (a.maxFree > 0 && a.freeBytes+size > a.maxFree) {
			b.state = StateReleased
			release = append(release, b)
			continue
		}
		a.insertLocked(b)
		a.freeBytes += size
	}
	a.noteReleasedLocked(release)
	a.unlock()

	if err := a.unmap(release); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *Allocator) insertLocked(b *Block) {
	b.state = StateFree
	b.cursor = 0
	if b.index < format.MaxIndex {
		a.buckets[b.index] = append(a.buckets[b.index], b)
		if b.index > a.maxIndex {
			a.maxIndex = b.index
		}
		return
	}
	sink := a.buckets[0]
	pos, _ := slices.BinarySearchFunc(sink, b.index, func(s *Block, target int) int {
		if s.index <= target {
			return -1
		}
		return 1
	})
	a.buckets[0] = slices.Insert(sink, pos, b)
}

func (a *Allocator) noteReleasedLocked(release []*Block) {
	for _, b := range release {
		b.state = StateReleased
		a.stats.Releases++
		a.stats.LiveBlocks--
		a.stats.MappedBytes -= int64(len(b.buf))
	}
}

func (a *Allocator) unmap(release []*Block) error {
	var errs []error
	for _, b := range release {
		logger.Debug("block: released", "allocator", a.cfg.Name, "size", len(b.buf))
		if err := a.src.Unmap(b.buf); err != nil {
			errs = append(errs, err)
		}
		b.buf = nil
		b.cursor = 0
	}
	return errors.Join(errs...)
}

// MaxFree returns the current budget in bytes (0 = unlimited).
func (a *Allocator) MaxFree() int {
	a.lock()
	defer a.unlock()
	return a.maxFree
}

// SetMaxFree changes the budget. Lowering it releases idle Blocks, largest
// first, until the free count fits.
func (a *Allocator) SetMaxFree(maxFree int) error {
	if maxFree < 0 {
		return fmt.Errorf("%w: negative max free %d", ErrConfig, maxFree)
	}
	var release []*Block

	a.lock()
	a.maxFree = maxFree
	if maxFree > 0 {
		for a.freeBytes > maxFree {
			b := a.popLargestLocked()
			if b == nil {
				break
			}
			a.freeBytes -= b.Size()
			release = append(release, b)
		}
	}
	a.noteReleasedLocked(release)
	a.unlock()

	return a.unmap(release)
}

func (a *Allocator) popLargestLocked() *Block {
	if sink := a.buckets[0]; len(sink) > 0 {
		b := sink[len(sink)-1]
		a.buckets[0] = sink[:len(sink)-1]
		return b
	}
	if a.maxIndex == 0 {
		return nil
	}
	return a.takeLocked(a.maxIndex)
}

// Destroy unmaps every idle Block. Blocks still held by pools are unmapped
// when they are freed. Further Alloc calls fail with ErrDestroyed.
func (a *Allocator) Destroy() error {
	var release []*Block

	a.lock()
	if a.destroyed {
		a.unlock()
		return nil
	}
	a.destroyed = true
	for i := range a.buckets {
		release = append(release, a.buckets[i]...)
		a.buckets[i] = nil
	}
	a.maxIndex = 0
	a.freeBytes = 0
	a.noteReleasedLocked(release)
	a.unlock()

	return a.unmap(release)
}

// Destroyed reports whether Destroy has been called.
func (a *Allocator) Destroyed() bool {
	a.lock()
	defer a.unlock()
	return a.destroyed
}

// FreeBytes returns the bytes currently held in buckets.
func (a *Allocator) FreeBytes() int {
	a.lock()
	defer a.unlock()
	return a.freeBytes
}

// Stats returns a snapshot of allocator activity.
func (a *Allocator) Stats() Stats {
	a.lock()
	defer a.unlock()

	s := a.stats
	s.FreeBytes = a.freeBytes
	s.MaxFree = a.maxFree
	s.MaxIndex = a.maxIndex
	s.SinkBlocks = len(a.buckets[0])
	for i := range a.buckets {
		s.FreeBlocks += len(a.buckets[i])
	}
	return s
}

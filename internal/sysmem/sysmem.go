// Package sysmem provides the system-level memory sources that back pool
// Blocks. A Source hands out raw byte regions and takes them back; it knows
// nothing about Blocks, buckets, or pools.
package sysmem

import (
	"errors"
	"fmt"
	"sync"
)

// ErrExhausted indicates the source could not provide the requested memory.
var ErrExhausted = errors.New("sysmem: memory exhausted")

// MaxMapSize is the largest region any Source maps in one call: 1TB on 64-bit
// platforms, 1GB on 32-bit ones.
const MaxMapSize = 1 << (30 + 10*(^uint(0)>>63))

// checkSize rejects sizes no Source can serve.
func checkSize(size int) error {
	if size <= 0 {
		return fmt.Errorf("sysmem: invalid size %d: %w", size, ErrExhausted)
	}
	if size > MaxMapSize {
		return fmt.Errorf("sysmem: %d bytes exceeds the %d byte map limit: %w", size, MaxMapSize, ErrExhausted)
	}
	return nil
}

// Source is the underlying system allocator.
type Source interface {
	// Map returns a zeroed region of exactly size bytes.
	Map(size int) ([]byte, error)

	// Unmap returns a region previously obtained from Map. The region must not
	// be touched afterwards.
	Unmap(b []byte) error
}

// Heap is a Source backed by the Go heap. Unmap only drops the reference.
type Heap struct{}

// Map allocates size bytes with make.
func (Heap) Map(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	return make([]byte, size), nil
}

// Unmap is a no-op for heap memory.
func (Heap) Unmap([]byte) error { return nil }

// Default returns the Source used when nothing else is configured.
func Default() Source { return Heap{} }

// Limited wraps a Source and refuses to keep more than Max bytes mapped at
// once. It is safe for concurrent use.
type Limited struct {
	Src Source
	Max int

	mu   sync.Mutex
	live int
	peak int
}

// NewLimited returns a Limited source over src.
func NewLimited(src Source, maxBytes int) *Limited {
	if src == nil {
		src = Default()
	}
	return &Limited{Src: src, Max: maxBytes}
}

// Map forwards to the wrapped source unless the limit would be exceeded.
func (l *Limited) Map(size int) ([]byte, error) {
	l.mu.Lock()
	if l.live+size > l.Max {
		live := l.live
		l.mu.Unlock()
		return nil, fmt.Errorf("sysmem: %d bytes requested with %d of %d live: %w",
			size, live, l.Max, ErrExhausted)
	}
	l.live += size
	if l.live > l.peak {
		l.peak = l.live
	}
	l.mu.Unlock()

	b, err := l.Src.Map(size)
	if err != nil {
		l.mu.Lock()
		l.live -= size
		l.mu.Unlock()
		return nil, err
	}
	return b, nil
}

// Unmap forwards to the wrapped source and credits the limit.
func (l *Limited) Unmap(b []byte) error {
	size := len(b)
	if err := l.Src.Unmap(b); err != nil {
		return err
	}
	l.mu.Lock()
	l.live -= size
	l.mu.Unlock()
	return nil
}

// Live returns the number of bytes currently mapped through l.
func (l *Limited) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

// Peak returns the highest Live value observed.
func (l *Limited) Peak() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peak
}

//go:build unix

package sysmem

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Anon is a Source backed by anonymous private mappings. Mapped memory lives
// outside the Go heap, so it must never hold Go pointers.
type Anon struct{}

// Map creates a read-write anonymous mapping of size bytes.
func (Anon) Map(size int) ([]byte, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	b, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("sysmem: mmap %d bytes: %w: %w", size, ErrExhausted, err)
	}
	return b, nil
}

// Unmap releases a mapping created by Map.
func (Anon) Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	err := unix.Munmap(b)
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}

//go:build !unix && !windows

package sysmem

// Anon falls back to heap memory when the platform has no anonymous mappings.
type Anon struct{}

// Map allocates size bytes on the Go heap.
func (Anon) Map(size int) ([]byte, error) { return Heap{}.Map(size) }

// Unmap is a no-op.
func (Anon) Unmap([]byte) error { return nil }

package block

import (
	"fmt"

	"github.com/joshuapare/poolkit/internal/format"
	"github.com/joshuapare/poolkit/internal/sysmem"
)

// Config defines an allocator's sizing, budget and locking.
type Config struct {
	// Name for this configuration (for logs and benchmarks)
	Name string

	// BoundaryUnit is the Block granularity in bytes. Must be a power of two.
	BoundaryUnit int

	// MinUnits is the smallest Block, in boundary units. Must be at least 2
	// because bucket 0 is the sink.
	MinUnits int

	// MaxFree caps the bytes kept in buckets. 0 means unlimited.
	MaxFree int

	// Threaded guards bucket mutation with a mutex. Leave it off only for an
	// allocator that never leaves its goroutine.
	Threaded bool

	// Source provides the raw memory. nil selects sysmem.Default().
	Source sysmem.Source
}

// Predefined configurations.
var (
	// DefaultConfig matches the classic tuning: 4KB units, 8KB minimum Block,
	// no budget, shared between goroutines.
	DefaultConfig = Config{
		Name:         "Default",
		BoundaryUnit: format.BoundaryUnit,
		MinUnits:     format.MinUnits,
		MaxFree:      format.MaxFreeUnlimited,
		Threaded:     true,
	}

	// ConfigSingleOwner drops the mutex for allocators owned by one goroutine,
	// such as a worker's private subtree.
	ConfigSingleOwner = Config{
		Name:         "SingleOwner",
		BoundaryUnit: format.BoundaryUnit,
		MinUnits:     format.MinUnits,
		MaxFree:      format.MaxFreeUnlimited,
		Threaded:     false,
	}

	// ConfigBudgeted keeps at most 1MB of idle Blocks.
	ConfigBudgeted = Config{
		Name:         "Budgeted",
		BoundaryUnit: format.BoundaryUnit,
		MinUnits:     format.MinUnits,
		MaxFree:      1 << 20,
		Threaded:     true,
	}
)

func (c Config) validate() error {
	if !format.IsPow2(c.BoundaryUnit) {
		return fmt.Errorf("%w: boundary unit %d is not a power of two", ErrConfig, c.BoundaryUnit)
	}
	if c.MinUnits < 2 {
		return fmt.Errorf("%w: min units %d < 2", ErrConfig, c.MinUnits)
	}
	if c.MaxFree < 0 {
		return fmt.Errorf("%w: negative max free %d", ErrConfig, c.MaxFree)
	}
	return nil
}

package pool

import (
	"sync"

	"github.com/joshuapare/poolkit/pool/block"
)

var (
	globalOnce sync.Once
	globalPool *Pool
	globalErr  error
)

// Global returns the process-wide root pool, creating it on first use. It is
// locked, draws from a threaded allocator, and cannot be destroyed.
func Global() (*Pool, error) {
	globalOnce.Do(func() {
		globalPool, globalErr = New(nil,
			WithTag("global"),
			WithBlockConfig(block.DefaultConfig),
			WithLocking(),
		)
		if globalErr == nil {
			globalPool.global = true
		}
	})
	return globalPool, globalErr
}

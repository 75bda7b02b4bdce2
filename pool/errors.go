package pool

import "errors"

var (
	// ErrDestroyed indicates use of a pool after Destroy.
	ErrDestroyed = errors.New("pool: already destroyed")

	// ErrClearing indicates an operation not allowed while the pool's
	// cleanups and children are being torn down.
	ErrClearing = errors.New("pool: teardown in progress")

	// ErrBadSize indicates a non-positive or overflowing allocation size.
	ErrBadSize = errors.New("pool: invalid allocation size")

	// ErrForeignRegion indicates a Free of memory the pool did not hand out.
	ErrForeignRegion = errors.New("pool: region not from this pool")

	// ErrNilCleanup indicates a cleanup registration without a callback.
	ErrNilCleanup = errors.New("pool: nil cleanup func")

	// ErrGlobal indicates an attempt to destroy the process-wide pool.
	ErrGlobal = errors.New("pool: global pool cannot be destroyed")

	// ErrOption indicates an invalid pool option.
	ErrOption = errors.New("pool: invalid option")
)

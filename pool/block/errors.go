package block

import "errors"

var (
	// ErrBadSize indicates a negative request size.
	ErrBadSize = errors.New("block: invalid size")

	// ErrTooLarge indicates a request whose rounded size overflows int.
	ErrTooLarge = errors.New("block: request too large")

	// ErrOutOfMemory indicates the system source could not provide a Block.
	// There is no recovery path; callers treat it as fatal.
	ErrOutOfMemory = errors.New("block: out of memory")

	// ErrBlockState indicates a Block was freed while not owned, or freed to an
	// allocator that did not create it.
	ErrBlockState = errors.New("block: block not owned by caller")

	// ErrDestroyed indicates use of an allocator after Destroy.
	ErrDestroyed = errors.New("block: allocator destroyed")

	// ErrConfig indicates an invalid allocator configuration.
	ErrConfig = errors.New("block: invalid config")
)

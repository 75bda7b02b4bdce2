package block

// Stats is a snapshot of allocator activity.
type Stats struct {
	FreeBytes  int // Bytes held in buckets
	FreeBlocks int // Blocks held in buckets
	SinkBlocks int // Blocks held in the sink bucket
	MaxFree    int // Budget in bytes (0 = unlimited)
	MaxIndex   int // Highest non-empty exact bucket

	Maps     int64 // Fresh Blocks obtained from the source
	Reuses   int64 // Requests served from a bucket
	Releases int64 // Blocks returned to the source

	LiveBlocks  int   // Blocks mapped and not yet released (owned + free)
	MappedBytes int64 // Bytes mapped and not yet released
}

// Package cdferr holds the sentinel error values shared across the
// core's components (§7), so callers can test outcomes with errors.Is
// regardless of which package actually returned the wrapped error.
package cdferr

import "errors"

var (
	// ErrNoShards: shard discovery (C4) found no candidate NetCDF files
	// under a path. Fatal for the dataset.
	ErrNoShards = errors.New("no NetCDF files found")

	// ErrNoVolume: the volume-variable selector (C5) found nothing
	// eligible in the header. Not fatal — the orchestrator emits no
	// slices and reports nothing.
	ErrNoVolume = errors.New("no volume variable found")

	// ErrVolumeMismatch: a later shard's header disagrees with the
	// volume descriptor established by the first shard (C6). Fatal for
	// the volume.
	ErrVolumeMismatch = errors.New("volume descriptor mismatch between shards")

	// ErrShortSlab: a shard ended mid-plane. Reported as a warning on
	// the z-slab stream, not fatal — streaming stops for that shard only.
	ErrShortSlab = errors.New("insufficient data")

	// ErrCacheStale: a file's mtime/size changed between the header
	// cache opening it and a later read (C2). Fatal for the read.
	ErrCacheStale = errors.New("file changed on disk")

	// ErrCacheLimitExceeded: a read through the header cache targeted an
	// offset beyond its configured limit (C2) — a caller attempting to
	// stream volume body data through the header cache, which is never
	// correct.
	ErrCacheLimitExceeded = errors.New("cache limit exceeded")

	// ErrBadMagic: the first four bytes of a file were not "CDF\001" (C3).
	ErrBadMagic = errors.New("not a NetCDF classic-format file")

	// ErrFormat: a structural decode failure in the header (C3): a
	// negative length, an unexpected tag with non-zero count, or a
	// premature EOF. Fatal for the enclosing dataset.
	ErrFormat = errors.New("malformed NetCDF header")
)

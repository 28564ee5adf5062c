package cdfkit

import "github.com/bgrewell/cdf-kit/pkg/cdferr"

// Re-exported so callers of the top-level package can write
// errors.Is(err, cdfkit.ErrNoVolume) without importing pkg/cdferr directly.
var (
	ErrNoShards           = cdferr.ErrNoShards
	ErrNoVolume           = cdferr.ErrNoVolume
	ErrVolumeMismatch     = cdferr.ErrVolumeMismatch
	ErrCacheStale         = cdferr.ErrCacheStale
	ErrCacheLimitExceeded = cdferr.ErrCacheLimitExceeded
)

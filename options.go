package cdfkit

import "github.com/bgrewell/cdf-kit/pkg/option"

// Option and its configuration surface are re-exported from pkg/option
// so a caller of this package never has to import it directly.
type (
	Option           = option.Option
	Options          = option.Options
	Phase            = option.Phase
	ProgressCallback = option.ProgressCallback
)

// Re-exported phase names, for WithProgress callers.
const (
	PhaseDiscover   = option.PhaseDiscover
	PhaseDecode     = option.PhaseDecode
	PhaseDataRange  = option.PhaseDataRange
	PhaseStream     = option.PhaseStream
	PhaseEncode     = option.PhaseEncode
	PhaseProvenance = option.PhaseProvenance
)

// Re-exported option constructors.
var (
	WithCacheLocation  = option.WithCacheLocation
	WithCacheRoot      = option.WithCacheRoot
	WithCacheLimit     = option.WithCacheLimit
	WithThumbnailSizes = option.WithThumbnailSizes
	WithReplace        = option.WithReplace
	WithDryRun         = option.WithDryRun
	WithLogger         = option.WithLogger
	WithProgress       = option.WithProgress
)

// LoadDefaults reads a YAML defaults document and returns the Options
// it describes (see pkg/option.LoadDefaults).
func LoadDefaults(path string) (*Options, error) {
	return option.LoadDefaults(path)
}

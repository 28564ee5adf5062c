// Package option implements the functional-options pattern used to
// configure the root orchestrator (C12): cache location/limit,
// thumbnail sizes, replace/dry-run behavior, logging, and progress
// reporting, following the `Option func(*Options)` / `With...`
// convention used throughout the teacher's option packages.
package option

import (
	"os"

	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/bgrewell/cdf-kit/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Phase identifies which stage of orchestration a ProgressCallback
// report describes.
type Phase string

const (
	PhaseDiscover  Phase = "discover"
	PhaseDecode    Phase = "decode"
	PhaseDataRange Phase = "data_range"
	PhaseStream    Phase = "stream"
	PhaseEncode    Phase = "encode"
	PhaseProvenance Phase = "provenance"
)

// ProgressCallback is called as the orchestrator moves through an
// operation, current/total being whatever unit makes sense for phase
// (shards for PhaseDiscover, z-planes for PhaseStream, and so on).
type ProgressCallback func(phase Phase, current, total int)

// Options carries the root orchestrator's full configuration.
type Options struct {
	CacheLocation string
	CacheRoot     string
	CacheLimit    int64

	ThumbnailSizes []int

	Replace bool
	DryRun  bool

	Logger   *logging.Logger
	Progress ProgressCallback
}

// Option mutates an Options in place.
type Option func(*Options)

// Defaults returns the orchestrator's baseline configuration: no cache
// persistence, no thumbnails, additive (non-replacing) writes, a
// discarding logger, and no progress reporting.
func Defaults() *Options {
	return &Options{
		CacheLimit: consts.DefaultCacheLimit,
		Logger:     logging.Discard(),
	}
}

// Build applies opts over Defaults() and returns the resulting Options.
func Build(opts ...Option) *Options {
	o := Defaults()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithCacheLocation sets the on-disk path of the persistent header
// cache. An empty location (the default) disables the cache.
func WithCacheLocation(location string) Option {
	return func(o *Options) {
		o.CacheLocation = location
	}
}

// WithCacheRoot sets the path prefix stripped from a shard's path
// before it is used as a cache key (§4.2).
func WithCacheRoot(root string) Option {
	return func(o *Options) {
		o.CacheRoot = root
	}
}

// WithCacheLimit overrides the header cache's maximum entry size.
func WithCacheLimit(limit int64) Option {
	return func(o *Options) {
		o.CacheLimit = limit
	}
}

// WithThumbnailSizes sets the square thumbnail dimensions produced
// alongside each full-size slice image.
func WithThumbnailSizes(sizes ...int) Option {
	return func(o *Options) {
		o.ThumbnailSizes = sizes
	}
}

// WithReplace makes the orchestrator overwrite existing output files
// instead of skipping them.
func WithReplace(replace bool) Option {
	return func(o *Options) {
		o.Replace = replace
	}
}

// WithDryRun makes the orchestrator emit dummy placeholder images
// instead of decoding and rendering real volume data.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}

// WithLogger sets the logger every component is constructed with.
func WithLogger(logger *logging.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithProgress sets the callback invoked as the orchestrator advances
// through discovery, decoding, streaming, and encoding.
func WithProgress(cb ProgressCallback) Option {
	return func(o *Options) {
		o.Progress = cb
	}
}

// defaultsFile mirrors the on-disk defaults document loaded by
// LoadDefaults.
type defaultsFile struct {
	CacheLocation  string `yaml:"cache_location"`
	CacheRoot      string `yaml:"cache_root"`
	CacheLimit     int64  `yaml:"cache_limit"`
	ThumbnailSizes []int  `yaml:"thumbnail_sizes"`
	Replace        bool   `yaml:"replace"`
	DryRun         bool   `yaml:"dry_run"`
}

// LoadDefaults reads a YAML defaults document (the same role YAML
// config plays for comparable CLI tools in the pack) and returns the
// Options it describes, for a cmd/ front-end to layer flag overrides
// on top of.
func LoadDefaults(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var df defaultsFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, err
	}

	o := Defaults()
	if df.CacheLocation != "" {
		o.CacheLocation = df.CacheLocation
	}
	if df.CacheRoot != "" {
		o.CacheRoot = df.CacheRoot
	}
	if df.CacheLimit != 0 {
		o.CacheLimit = df.CacheLimit
	}
	if len(df.ThumbnailSizes) > 0 {
		o.ThumbnailSizes = df.ThumbnailSizes
	}
	o.Replace = df.Replace
	o.DryRun = df.DryRun
	return o, nil
}

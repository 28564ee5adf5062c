// Package cdfkit is the root orchestrator (§4.12 / C12): given one
// dataset path, it discovers its shards, decodes the first shard's
// header, and either assembles a provenance record or renders the
// volume's three centre slices (plus thumbnails) as PNGs, resolving
// each output name's action against a caller-supplied set of names that
// already exist downstream.
package cdfkit

import (
	"errors"
	"fmt"
	"time"

	"github.com/bgrewell/cdf-kit/pkg/cdferr"
	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/bgrewell/cdf-kit/pkg/histogram"
	"github.com/bgrewell/cdf-kit/pkg/imageenc"
	"github.com/bgrewell/cdf-kit/pkg/logging"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/cache"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/header"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/shard"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/slab"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/volume"
	"github.com/bgrewell/cdf-kit/pkg/option"
	"github.com/bgrewell/cdf-kit/pkg/provenance/assemble"
	"github.com/bgrewell/cdf-kit/pkg/sliceset"
)

// Action describes what an emitted output represents relative to a
// caller-provided set of names already known to exist downstream.
type Action int

const (
	ActionAdd Action = iota
	ActionReplace
	ActionSkip
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "ADD"
	case ActionReplace:
		return "REPLACE"
	case ActionSkip:
		return "SKIP"
	default:
		return "?"
	}
}

// Image is one rendered (or dummy) output: its bytes, output name, and
// resolved action against the caller's existing set.
type Image struct {
	Bytes  []byte
	Name   string
	Action Action
}

// Kit decodes one dataset path's header once and exposes both the
// provenance and slice-rendering operations over it. Construct with
// Open.
type Kit struct {
	path   string
	header *header.Header
	opts   *Options
	log    *logging.Logger
}

// Open runs shard discovery (C4), opens the first shard through the
// header cache (C1+C2), and decodes its header (C3). The returned Kit
// can be used to assemble provenance or render slices; both read from
// the same decoded header.
func Open(path string, opts ...Option) (*Kit, error) {
	o := option.Build(opts...)
	log := o.Logger.Named("cdfkit")

	shards, err := shard.Discover(path)
	if err != nil {
		return nil, fmt.Errorf("cdfkit: discovering shards of %s: %w", path, err)
	}
	report(o, option.PhaseDiscover, len(shards), len(shards))
	log.Debug("shards discovered", "path", path, "count", len(shards))

	var store cache.Store
	if o.CacheLocation != "" {
		store = cache.NewFileJSONStore(o.CacheLocation, true)
	}
	c, err := cache.Open(shards[0], store, o.CacheRoot, o.CacheLimit)
	if err != nil {
		return nil, fmt.Errorf("cdfkit: opening %s: %w", shards[0], err)
	}
	h, err := header.Decode(c)
	closeErr := c.Close()
	if err != nil {
		return nil, fmt.Errorf("cdfkit: decoding header of %s: %w", shards[0], err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("cdfkit: closing %s: %w", shards[0], closeErr)
	}
	report(o, option.PhaseDecode, 1, 1)

	return &Kit{path: path, header: h, opts: o, log: log}, nil
}

// Header returns the decoded header of the first shard.
func (k *Kit) Header() *header.Header { return k.header }

// Shards re-runs shard discovery, returning every shard path composing
// this dataset.
func (k *Kit) Shards() ([]string, error) {
	return shard.Discover(k.path)
}

// Provenance runs the provenance assembler (C11) over the decoded
// header and returns its pretty-printed, sorted JSON array.
func (k *Kit) Provenance(datasetName string, creationTime time.Time) ([]byte, error) {
	report(k.opts, option.PhaseProvenance, 0, 1)
	hist := assemble.Assemble(k.header, datasetName, creationTime)
	data, err := hist.AsJSON()
	report(k.opts, option.PhaseProvenance, 1, 1)
	return data, err
}

// maskValue returns the dtype-specific sentinel excluded from the
// histogram and rendered as masked pixels (§4.12).
func maskValue(dtype volume.Dtype) float64 {
	switch dtype {
	case volume.U8:
		return consts.MaskU8
	case volume.U16:
		return consts.MaskU16
	case volume.I32:
		return consts.MaskI32
	default:
		return consts.MaskF32
	}
}

// Slices runs C5 through C9: it selects the dataset's volume variable,
// streams every shard, and renders the three centre slices (and their
// thumbnails, at every configured size) as PNGs. datasetName drives
// output naming and, via its "tom"-prefixed basename, the choice between
// percentile and full-range contrast stretching. existing names output
// files the caller already has; Replace (an Option) decides whether
// those are re-emitted or skipped.
//
// Returns a nil slice (not an error) when the header has no eligible
// volume variable — per §7, NoVolume is not fatal.
func (k *Kit) Slices(datasetName string, existing map[string]bool) ([]Image, error) {
	desc, _, ok := volume.Select(k.header)
	if !ok {
		k.log.Debug("no volume variable", "path", k.path)
		return nil, nil
	}

	shards, err := shard.Discover(k.path)
	if err != nil {
		return nil, fmt.Errorf("cdfkit: discovering shards of %s: %w", k.path, err)
	}

	set := sliceset.New(desc)
	slices := set.Slices()
	if len(slices) == 0 {
		return nil, nil
	}

	origins := make([]int64, len(slices))
	for i, sl := range slices {
		origins[i] = set.Origin(sl.Axis)
	}

	plan := planOutputs(slices, origins, datasetName, k.opts.ThumbnailSizes, existing, k.opts.Replace)
	if allSkipped(plan) {
		k.log.Debug("all outputs skipped", "path", k.path)
		return nil, nil
	}

	if k.opts.DryRun {
		return renderDummies(plan), nil
	}

	mv := maskValue(desc.Dtype)

	var hist *histogram.Histogram
	if desc.Dtype == volume.F32 {
		report(k.opts, option.PhaseDataRange, 0, len(shards))
		min, max, err := slab.DataRange(shards, desc)
		if err != nil {
			return nil, fmt.Errorf("cdfkit: scanning data range: %w", err)
		}
		report(k.opts, option.PhaseDataRange, len(shards), len(shards))
		hist = histogram.NewFloat(float64(min), float64(max), mv)
	} else {
		hist = histogram.NewInt(mv)
	}

	if err := k.stream(shards, desc, hist, set); err != nil {
		return nil, err
	}

	lo, hi := contrastRange(hist, datasetName)
	mode := imageenc.SelectMode(desc.Dtype, hi)

	images, err := renderPlan(plan, desc.Dtype, lo, hi, mode)
	if err != nil {
		return nil, fmt.Errorf("cdfkit: encoding slices of %s: %w", k.path, err)
	}
	report(k.opts, option.PhaseEncode, len(images), len(images))
	return images, nil
}

// stream drives C6 across every shard in order, folding each plane into
// the histogram and slice set in lockstep (§4.12, §5).
func (k *Kit) stream(shards []string, desc volume.Descriptor, hist *histogram.Histogram, set *sliceset.Set) error {
	total := int(desc.SizeZ)
	done := 0
	for _, path := range shards {
		err := slab.Stream(path, desc, func(p slab.Plane) error {
			addPlane(hist, p.Data, desc.Dtype)
			set.Add(p.Z, p.Data)
			done++
			report(k.opts, option.PhaseStream, done, total)
			return nil
		})
		if err != nil {
			if errors.Is(err, cdferr.ErrShortSlab) {
				k.log.Info("insufficient data, stopping shard", "path", path, "error", err)
				continue
			}
			return fmt.Errorf("cdfkit: streaming %s: %w", path, err)
		}
	}
	return nil
}

func report(o *Options, phase Phase, current, total int) {
	if o != nil && o.Progress != nil {
		o.Progress(phase, current, total)
	}
}

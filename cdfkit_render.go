package cdfkit

import (
	"fmt"
	"math"
	"strings"

	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/bgrewell/cdf-kit/pkg/histogram"
	"github.com/bgrewell/cdf-kit/pkg/imageenc"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/volume"
	"github.com/bgrewell/cdf-kit/pkg/sliceset"
)

// planItem is one resolved output name and its action.
type planItem struct {
	Name   string
	Action Action
	Size   int // 0 for the full-resolution image
}

// axisPlan groups one slice's full-resolution output with its
// thumbnails, in the order they'll be emitted.
type axisPlan struct {
	Slice  sliceset.Slice
	Full   planItem
	Thumbs []planItem
}

// resolveAction implements §4.12's action table: REPLACE if name is in
// existing and replace is set, SKIP if in existing and it isn't, else ADD.
func resolveAction(name string, existing map[string]bool, replace bool) Action {
	if existing[name] {
		if replace {
			return ActionReplace
		}
		return ActionSkip
	}
	return ActionAdd
}

// planOutputs resolves every output name this volume will produce, in
// the order (axis X,Y,Z) x (full-resolution, then each requested
// thumbnail size in caller order) required by §5's ordering guarantee.
func planOutputs(slices []sliceset.Slice, origins []int64, datasetName string, thumbSizes []int, existing map[string]bool, replace bool) []axisPlan {
	plan := make([]axisPlan, len(slices))
	for i, sl := range slices {
		origin := origins[i]
		fullName := sliceset.Name(sl, origin, datasetName)
		ap := axisPlan{
			Slice: sl,
			Full:  planItem{Name: fullName, Action: resolveAction(fullName, existing, replace)},
		}
		for _, sz := range thumbSizes {
			name := sliceset.ThumbName(sl, origin, datasetName, sz, sz)
			ap.Thumbs = append(ap.Thumbs, planItem{Name: name, Action: resolveAction(name, existing, replace), Size: sz})
		}
		plan[i] = ap
	}
	return plan
}

// allSkipped reports whether every planned output resolved to SKIP,
// the stop-early condition of §4.12.
func allSkipped(plan []axisPlan) bool {
	for _, ap := range plan {
		if ap.Full.Action != ActionSkip {
			return false
		}
		for _, th := range ap.Thumbs {
			if th.Action != ActionSkip {
				return false
			}
		}
	}
	return true
}

// renderDummies emits grey placeholder PNGs for every non-skipped
// output, used by dry-run mode where no real sample data is streamed.
func renderDummies(plan []axisPlan) []Image {
	var out []Image
	for _, ap := range plan {
		if ap.Full.Action != ActionSkip {
			bytes, err := imageenc.MakeDummy(ap.Full.Name, ap.Slice.Width, ap.Slice.Height)
			if err == nil {
				out = append(out, Image{Bytes: bytes, Name: ap.Full.Name, Action: ap.Full.Action})
			}
		}
		for _, th := range ap.Thumbs {
			if th.Action == ActionSkip {
				continue
			}
			bytes, err := imageenc.MakeDummy(th.Name, th.Size, th.Size)
			if err == nil {
				out = append(out, Image{Bytes: bytes, Name: th.Name, Action: th.Action})
			}
		}
	}
	return out
}

// f32MaskSentinel stands in for consts.MaskF32 (1e30) in the int64
// sample space imageenc.Encode operates on — the real sentinel overflows
// int64 on conversion, so float32 samples equal to it are remapped to
// this reserved value instead of cast directly.
const f32MaskSentinel = int64(1) << 62

// maskInt64 returns the sentinel value imageenc.Encode should treat as
// masked for dtype.
func maskInt64(dtype volume.Dtype) int64 {
	switch dtype {
	case volume.U8:
		return consts.MaskU8
	case volume.U16:
		return consts.MaskU16
	case volume.I32:
		return consts.MaskI32
	default:
		return f32MaskSentinel
	}
}

// samplesFromPlane decodes one assembled slice's raw big-endian bytes
// into the []int64 sample array imageenc.Encode consumes.
func samplesFromPlane(data []byte, dtype volume.Dtype) []int64 {
	switch dtype {
	case volume.U8:
		out := make([]int64, len(data))
		for i, b := range data {
			out[i] = int64(b)
		}
		return out
	case volume.U16:
		n := len(data) / 2
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			out[i] = int64(uint16(data[2*i])<<8 | uint16(data[2*i+1]))
		}
		return out
	case volume.I32:
		n := len(data) / 4
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			bits := uint32(data[4*i])<<24 | uint32(data[4*i+1])<<16 | uint32(data[4*i+2])<<8 | uint32(data[4*i+3])
			out[i] = int64(int32(bits))
		}
		return out
	default: // F32
		n := len(data) / 4
		out := make([]int64, n)
		for i := 0; i < n; i++ {
			bits := uint32(data[4*i])<<24 | uint32(data[4*i+1])<<16 | uint32(data[4*i+2])<<8 | uint32(data[4*i+3])
			v := float64(math.Float32frombits(bits))
			if v == consts.MaskF32 {
				out[i] = f32MaskSentinel
			} else {
				out[i] = int64(math.Round(v))
			}
		}
		return out
	}
}

// addPlane folds every raw sample of one streamed plane into hist,
// decoding it according to dtype's on-disk element layout.
func addPlane(hist *histogram.Histogram, data []byte, dtype volume.Dtype) {
	switch dtype {
	case volume.U8:
		for _, b := range data {
			hist.Add(float64(b))
		}
	case volume.U16:
		for i := 0; i+2 <= len(data); i += 2 {
			hist.Add(float64(uint16(data[i])<<8 | uint16(data[i+1])))
		}
	case volume.I32:
		for i := 0; i+4 <= len(data); i += 4 {
			bits := uint32(data[i])<<24 | uint32(data[i+1])<<16 | uint32(data[i+2])<<8 | uint32(data[i+3])
			hist.Add(float64(int32(bits)))
		}
	case volume.F32:
		for i := 0; i+4 <= len(data); i += 4 {
			bits := uint32(data[i])<<24 | uint32(data[i+1])<<16 | uint32(data[i+2])<<8 | uint32(data[i+3])
			hist.Add(float64(math.Float32frombits(bits)))
		}
	}
}

// contrastRange picks the (lo, hi) input range C9 stretches to full
// display range: percentile-based for "tom"-prefixed basenames, else
// the histogram's full bin range (§4.12).
func contrastRange(hist *histogram.Histogram, datasetName string) (lo, hi float64) {
	if strings.HasPrefix(sliceset.Basename(datasetName), "tom") {
		return hist.BottomPercentile(consts.ContrastPercentile), hist.TopPercentile(consts.ContrastPercentile)
	}
	return 0, float64(len(hist.Counts()) - 1)
}

// renderPlan encodes every non-skipped output in plan, in order: for
// each axis, the full-resolution PNG, then each requested thumbnail
// resampled from it.
func renderPlan(plan []axisPlan, dtype volume.Dtype, lo, hi float64, mode imageenc.Mode) ([]Image, error) {
	mv := maskInt64(dtype)
	var out []Image
	for _, ap := range plan {
		samples := samplesFromPlane(ap.Slice.Data, dtype)
		full, err := imageenc.Encode(samples, ap.Slice.Width, ap.Slice.Height, lo, hi, mv, mode)
		if err != nil {
			return nil, fmt.Errorf("encoding slice %s%d: %w", ap.Slice.Axis, ap.Slice.Pos, err)
		}
		if ap.Full.Action != ActionSkip {
			out = append(out, Image{Bytes: full, Name: ap.Full.Name, Action: ap.Full.Action})
		}
		for _, th := range ap.Thumbs {
			if th.Action == ActionSkip {
				continue
			}
			thumb, err := imageenc.Thumbnail(full, th.Size, th.Size)
			if err != nil {
				return nil, fmt.Errorf("thumbnailing slice %s%d at %dx%d: %w", ap.Slice.Axis, ap.Slice.Pos, th.Size, th.Size, err)
			}
			out = append(out, Image{Bytes: thumb, Name: th.Name, Action: th.Action})
		}
	}
	return out, nil
}

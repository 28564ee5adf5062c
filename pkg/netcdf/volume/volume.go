// Package volume implements the volume-variable selector (§4.5 / C5): it
// picks the one 3-D variable in a header worth slicing, and derives the
// size/origin/dtype descriptor that every shard of a multi-shard volume
// must agree on.
package volume

import (
	"fmt"

	"github.com/bgrewell/cdf-kit/pkg/cdferr"
	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/header"
)

// Dtype identifies the element type of a volume, restricted to the four
// types eligible for slicing — CHAR and DOUBLE never are (§3).
type Dtype int

const (
	U8 Dtype = iota
	U16
	I32
	F32
)

// String renders the dtype name used in log messages and CDL-adjacent output.
func (d Dtype) String() string {
	switch d {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case I32:
		return "i32"
	case F32:
		return "f32"
	default:
		return "unknown"
	}
}

// ElementSize returns the on-disk size in bytes of one element.
func (d Dtype) ElementSize() int {
	switch d {
	case U8:
		return 1
	case U16:
		return 2
	case I32, F32:
		return 4
	default:
		return 0
	}
}

func dtypeFromNcType(t consts.NcType) (Dtype, bool) {
	switch t {
	case consts.NC_BYTE:
		return U8, true
	case consts.NC_SHORT:
		return U16, true
	case consts.NC_LONG:
		return I32, true
	case consts.NC_FLOAT:
		return F32, true
	default:
		return 0, false
	}
}

// Descriptor (V in the specification) identifies a volume variable and
// its logical shape, shared by every shard that contributes to it.
type Descriptor struct {
	Name   string
	SizeX  int64
	SizeY  int64
	SizeZ  int64
	OrigX  int64
	OrigY  int64
	OrigZ  int64
	Dtype  Dtype
	NcType consts.NcType
}

// Equal reports whether two descriptors agree on every field the
// multi-shard invariant requires to hold (§3: "every shard's header MUST
// yield an identical V").
func (d Descriptor) Equal(o Descriptor) bool {
	return d.Name == o.Name &&
		d.SizeX == o.SizeX && d.SizeY == o.SizeY && d.SizeZ == o.SizeZ &&
		d.OrigX == o.OrigX && d.OrigY == o.OrigY && d.OrigZ == o.OrigZ &&
		d.Dtype == o.Dtype
}

// ZRange returns the inclusive z-range a given shard's variable
// contributes, from its zdim_range attribute, defaulting to the full
// [0, SizeZ-1] span when absent.
func ZRange(h *header.Header, v *header.Variable, d Descriptor) (lo, hi int64) {
	if a, ok := v.Attribute("zdim_range"); ok && len(a.Ints()) >= 2 {
		ints := a.Ints()
		return ints[0], ints[1]
	}
	return 0, d.SizeZ - 1
}

// Select scans h.Variables in order and returns the descriptor for the
// first variable eligible for slicing, or ok=false if none qualifies
// (§4.5): exactly 3 dimensions, a leading dimension with value > 1, and
// an nc_type in {BYTE, SHORT, LONG, FLOAT}.
func Select(h *header.Header) (Descriptor, *header.Variable, bool) {
	for _, v := range h.Variables {
		if len(v.Dimensions) != 3 {
			continue
		}
		if v.Dimensions[0].Value <= 1 {
			continue
		}
		dtype, ok := dtypeFromNcType(v.NcType)
		if !ok {
			continue
		}
		return build(h, v, dtype), v, true
	}
	return Descriptor{}, nil, false
}

// Describe builds the descriptor for the named variable in h, used by
// C6 to re-derive V for the second and later shards of a volume without
// re-running the eligibility scan (the variable name is already known
// from the first shard).
func Describe(h *header.Header, name string) (Descriptor, *header.Variable, error) {
	v, ok := h.Variable(name)
	if !ok {
		return Descriptor{}, nil, fmt.Errorf("volume: variable %q not present in shard header", name)
	}
	dtype, ok := dtypeFromNcType(v.NcType)
	if !ok {
		return Descriptor{}, nil, fmt.Errorf("volume: variable %q has non-volume-eligible type %s", name, v.NcType)
	}
	return build(h, v, dtype), v, nil
}

// build derives a Descriptor for v per §3: size from dimensions[0..2]
// (Z,Y,X order), overridden by zdim_total if present; origin from
// coordinate_origin_xyz, variable-level taking precedence over file-level.
func build(h *header.Header, v *header.Variable, dtype Dtype) Descriptor {
	d := Descriptor{
		Name:   v.Name,
		SizeZ:  v.Dimensions[0].Value,
		SizeY:  v.Dimensions[1].Value,
		SizeX:  v.Dimensions[2].Value,
		Dtype:  dtype,
		NcType: v.NcType,
	}
	if a, ok := v.Attribute("zdim_total"); ok {
		if ints := a.Ints(); len(ints) > 0 {
			d.SizeZ = ints[0]
		}
	}
	if a, ok := header.Lookup(h, v, "coordinate_origin_xyz"); ok {
		if ints := a.Ints(); len(ints) >= 3 {
			d.OrigX, d.OrigY, d.OrigZ = ints[0], ints[1], ints[2]
		}
	}
	return d
}

// CheckEquivalent returns an error wrapping cdferr.ErrVolumeMismatch if
// got does not match want, the invariant every shard past the first must
// satisfy (§3, §4.6).
func CheckEquivalent(want, got Descriptor) error {
	if want.Equal(got) {
		return nil
	}
	return fmt.Errorf("volume %q: shard descriptor %+v disagrees with %+v: %w", want.Name, got, want, cdferr.ErrVolumeMismatch)
}

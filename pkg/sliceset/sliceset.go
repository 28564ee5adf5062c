// Package sliceset implements the slice assembler (§4.8 / C8): it
// accumulates three orthogonal centre slices while planes stream past,
// deciding up front which axes are even worth keeping.
package sliceset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/volume"
)

// Axis identifies one of the three orthogonal slice planes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// Slice is one assembled 2-D plane, element-size bytes per sample, in
// the row-major shape documented per axis in §3.
type Slice struct {
	Axis Axis
	Pos  int64
	// Width/Height are the slice's column/row counts: Y/Z for X, X/Z
	// for Y, X/Y for Z (row-major shapes (Z,Y), (Z,X), (Y,X)).
	Width, Height int
	Data          []byte
}

// Set assembles the (up to) three centre slices of one volume as planes
// stream past via Add.
type Set struct {
	desc volume.Descriptor
	elem int

	wantX, wantY, wantZ bool
	posX, posY, posZ    int64

	xSlice, ySlice, zSlice []byte
}

// New constructs a Set for desc. Axes whose perpendicular extents are
// both > consts.SliceSuppressDelta are kept; the rest are suppressed
// entirely and never appear in Slices().
func New(desc volume.Descriptor) *Set {
	s := &Set{desc: desc, elem: desc.Dtype.ElementSize()}
	s.posX = (desc.SizeX - 1) / 2
	s.posY = (desc.SizeY - 1) / 2
	s.posZ = (desc.SizeZ - 1) / 2

	s.wantX = desc.SizeY > consts.SliceSuppressDelta && desc.SizeZ > consts.SliceSuppressDelta
	s.wantY = desc.SizeX > consts.SliceSuppressDelta && desc.SizeZ > consts.SliceSuppressDelta
	s.wantZ = desc.SizeX > consts.SliceSuppressDelta && desc.SizeY > consts.SliceSuppressDelta

	if s.wantX {
		s.xSlice = make([]byte, int(desc.SizeZ)*int(desc.SizeY)*s.elem)
	}
	if s.wantY {
		s.ySlice = make([]byte, int(desc.SizeZ)*int(desc.SizeX)*s.elem)
	}
	if s.wantZ {
		s.zSlice = make([]byte, int(desc.SizeY)*int(desc.SizeX)*s.elem)
	}
	return s
}

// Add folds one streamed plane (shape (Y,X) at the volume's z, per §4.6)
// into whichever slice buffers are active.
func (s *Set) Add(z int64, plane []byte) {
	x, y := int(s.desc.SizeX), int(s.desc.SizeY)
	e := s.elem

	if s.wantX {
		row := int(z) * y * e
		col := int(s.posX) * e
		for yy := 0; yy < y; yy++ {
			src := plane[yy*x*e+col : yy*x*e+col+e]
			dst := s.xSlice[row+yy*e : row+yy*e+e]
			copy(dst, src)
		}
	}
	if s.wantY {
		row := int(z) * x * e
		src := plane[int(s.posY)*x*e : int(s.posY)*x*e+x*e]
		copy(s.ySlice[row:row+x*e], src)
	}
	if s.wantZ && z == s.posZ {
		copy(s.zSlice, plane)
	}
}

// Slices returns the slices that were not suppressed, in axis order
// X, Y, Z, each with its centre position; the position is not
// origin-adjusted (see Origin and Name).
func (s *Set) Slices() []Slice {
	var out []Slice
	if s.wantX {
		out = append(out, Slice{Axis: AxisX, Pos: s.posX, Width: int(s.desc.SizeY), Height: int(s.desc.SizeZ), Data: s.xSlice})
	}
	if s.wantY {
		out = append(out, Slice{Axis: AxisY, Pos: s.posY, Width: int(s.desc.SizeX), Height: int(s.desc.SizeZ), Data: s.ySlice})
	}
	if s.wantZ {
		out = append(out, Slice{Axis: AxisZ, Pos: s.posZ, Width: int(s.desc.SizeX), Height: int(s.desc.SizeY), Data: s.zSlice})
	}
	return out
}

// Origin returns the origin component to add to a slice's position when
// naming it, per axis (§4.8).
func (s *Set) Origin(a Axis) int64 {
	switch a {
	case AxisX:
		return s.desc.OrigX
	case AxisY:
		return s.desc.OrigY
	default:
		return s.desc.OrigZ
	}
}

// Name returns the output filename for sl, e.g. "sliceX12_tom_dataset.png".
func Name(sl Slice, origin int64, datasetName string) string {
	return fmt.Sprintf("slice%s%d_%s.png", sl.Axis, sl.Pos+origin, Basename(datasetName))
}

// ThumbName returns the thumbnail variant of Name, prefixed __WxH__ (§4.9).
func ThumbName(sl Slice, origin int64, datasetName string, w, h int) string {
	return fmt.Sprintf("__%dx%d__%s", w, h, Name(sl, origin, datasetName))
}

// Basename derives the output basename from a dataset path per §4.8:
// strip a trailing slash, strip a trailing "[._]nc" suffix, then replace
// a leading "tomo" with "tom" or a leading "segmented" with "seg".
func Basename(datasetName string) string {
	name := strings.TrimRight(datasetName, "/")
	name = filepath.Base(name)
	for _, suffix := range []string{".nc", "_nc"} {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	switch {
	case strings.HasPrefix(name, "tomo"):
		name = "tom" + strings.TrimPrefix(name, "tomo")
	case strings.HasPrefix(name, "segmented"):
		name = "seg" + strings.TrimPrefix(name, "segmented")
	}
	return name
}

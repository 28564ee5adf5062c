// Package header implements the NetCDF-3 classic-format header decoder
// (§4.3 / C3): magic, dimension list, attribute list, variable list, and
// the streaming MD5 fingerprint over every byte consumed.
package header

import "github.com/bgrewell/cdf-kit/pkg/consts"

// Dimension is one entry of the header's dimension list (§3).
type Dimension struct {
	Name  string
	Value int64
}

// Attribute is one name/value pair attached to either the file itself or
// a single variable (§3). CHAR-typed attributes carry their payload as a
// raw string in Text; every other type carries Values, one float64 per
// element (exact for BYTE/SHORT/LONG, faithful for FLOAT/DOUBLE).
type Attribute struct {
	Name   string
	Type   consts.NcType
	Text   string
	Values []float64
}

// IsChar reports whether this attribute's payload is a CHAR string.
func (a Attribute) IsChar() bool {
	return a.Type == consts.NC_CHAR
}

// Ints returns Values truncated toward zero to int64, or nil for a CHAR
// attribute. Used by callers extracting integer sequences such as
// zdim_total, zdim_range, or coordinate_origin_xyz.
func (a Attribute) Ints() []int64 {
	if a.IsChar() {
		return nil
	}
	out := make([]int64, len(a.Values))
	for i, v := range a.Values {
		out[i] = int64(v)
	}
	return out
}

// Variable is one entry of the header's variable list (§3). Dimensions
// holds pointers into the owning Header's Dimensions slice — never
// copies — so that a variable's shape always reflects the header it was
// parsed from.
type Variable struct {
	Name       string
	Dimensions []*Dimension
	Attributes []Attribute
	NcType     consts.NcType
	DataSize   int64
	DataStart  int64
}

// Attribute looks up a named attribute on the variable.
func (v *Variable) Attribute(name string) (Attribute, bool) {
	for _, a := range v.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// ElementSize returns the on-disk size of one data element.
func (v *Variable) ElementSize() int {
	return v.NcType.ElementSize()
}

// Header is the complete decoded header of one NetCDF-3 classic file
// (§3). Dimensions, Attributes and Variables preserve file order.
type Header struct {
	NumRecords  int64
	Dimensions  []*Dimension
	Attributes  []Attribute
	Variables   []*Variable
	HeaderSize  int64
	Fingerprint string
}

// Attribute looks up a file-level (global) attribute by name.
func (h *Header) Attribute(name string) (Attribute, bool) {
	for _, a := range h.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Variable looks up a variable by name.
func (h *Header) Variable(name string) (*Variable, bool) {
	for _, v := range h.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Lookup looks up name first on v (if non-nil), falling back to the
// header's global attributes — the lookup order used throughout §4.5/4.6
// for variable-level-wins attributes like coordinate_origin_xyz.
func Lookup(h *Header, v *Variable, name string) (Attribute, bool) {
	if v != nil {
		if a, ok := v.Attribute(name); ok {
			return a, true
		}
	}
	return h.Attribute(name)
}

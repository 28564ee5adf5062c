// Package consts holds the wire-format constants for the NetCDF-3
// classic ("CDF\001") header format: type tags, list tags, element
// sizes, and the dtype-dependent mask sentinels used by the histogram
// and image encoder.
package consts

// NetCDF magic and version.
const (
	NC_MAGIC   = "CDF"
	NC_VERSION = 0x01
)

// NcType identifies the element type of an attribute or variable, per
// the on-disk tag.
type NcType int32

const (
	NC_BYTE   NcType = 1
	NC_CHAR   NcType = 2
	NC_SHORT  NcType = 3
	NC_LONG   NcType = 4
	NC_FLOAT  NcType = 5
	NC_DOUBLE NcType = 6
)

// String renders the human-readable CDL type name.
func (t NcType) String() string {
	switch t {
	case NC_BYTE:
		return "byte"
	case NC_CHAR:
		return "char"
	case NC_SHORT:
		return "short"
	case NC_LONG:
		return "int"
	case NC_FLOAT:
		return "float"
	case NC_DOUBLE:
		return "double"
	default:
		return "unknown"
	}
}

// ElementSize returns the on-disk size in bytes of one element of this type.
func (t NcType) ElementSize() int {
	switch t {
	case NC_BYTE, NC_CHAR:
		return 1
	case NC_SHORT:
		return 2
	case NC_LONG, NC_FLOAT:
		return 4
	case NC_DOUBLE:
		return 8
	default:
		return 0
	}
}

// Valid reports whether t is one of the six known NetCDF-3 element types.
func (t NcType) Valid() bool {
	return t >= NC_BYTE && t <= NC_DOUBLE
}

// ListTag identifies which kind of list (dimension/variable/attribute)
// follows in the header stream.
type ListTag int32

const (
	TAG_ABSENT    ListTag = 0
	TAG_DIMENSION ListTag = 10
	TAG_VARIABLE  ListTag = 11
	TAG_ATTRIBUTE ListTag = 12
)

// Header cache defaults (§4.2): only headers should ever flow through
// the cache, never bulk volume data.
const DefaultCacheLimit = 512 * 1024

// Percentile used for contrast stretching of "tom*"-named datasets (§4.12).
const ContrastPercentile = 0.1

// Dtype-dependent mask sentinel values (§4.12).
const (
	MaskU8  = 0xFF
	MaskU16 = 0xFFFF
	MaskI32 = 0x7FFFFFFF
)

// MaskF32 is the sentinel for float32 volumes.
const MaskF32 = 1.0e30

// SliceSuppressDelta is the extent (in either in-plane dimension) at or
// below which a slice on an axis is suppressed (§4.8).
const SliceSuppressDelta = 10

package header

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bgrewell/cdf-kit/pkg/consts"
)

// CDL renders h as a CDL-like text dump, with name used for the dataset
// name in the header line. The format is not meant to round-trip through
// any external tool — only to be stable across repeated decodes of the
// same file, so operators can diff two dumps to see what changed.
func (h *Header) CDL(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "netcdf %s {\n", name)

	if len(h.Dimensions) > 0 {
		b.WriteString("dimensions:\n")
		for _, d := range h.Dimensions {
			fmt.Fprintf(&b, "\t%s = %d ;\n", d.Name, d.Value)
		}
	}

	if len(h.Variables) > 0 {
		b.WriteString("variables:\n")
		for _, v := range h.Variables {
			names := make([]string, len(v.Dimensions))
			for i, d := range v.Dimensions {
				names[i] = d.Name
			}
			fmt.Fprintf(&b, "\t%s %s(%s) ;\n", v.NcType, v.Name, strings.Join(names, ", "))
			for _, a := range v.Attributes {
				fmt.Fprintf(&b, "\t\t%s:%s = %s ;\n", v.Name, a.Name, formatAttrValue(a))
			}
		}
	}

	if len(h.Attributes) > 0 {
		b.WriteString("\n// global attributes:\n")
		for _, a := range h.Attributes {
			fmt.Fprintf(&b, "\t\t:%s = %s ;\n", a.Name, formatAttrValue(a))
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// formatAttrValue renders one attribute's payload the way CDL would:
// a quoted, escaped string for CHAR attributes, or a comma-joined list
// of numeric literals otherwise.
func formatAttrValue(a Attribute) string {
	if a.IsChar() {
		return quoteCDLString(a.Text)
	}
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = formatNumber(a.Type, v)
	}
	return strings.Join(parts, ", ")
}

func formatNumber(t consts.NcType, v float64) string {
	switch t {
	case consts.NC_FLOAT, consts.NC_DOUBLE:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}

// quoteCDLString escapes embedded double quotes and splits embedded
// newlines into successive quoted lines joined by a backslash-n, the way
// ncdump lays out multi-line CHAR attributes.
func quoteCDLString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString("\\n\",\n\t\t\t\"")
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

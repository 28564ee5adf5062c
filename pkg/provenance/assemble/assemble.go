package assemble

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bgrewell/cdf-kit/pkg/netcdf/header"
)

var historyKeyRe = regexp.MustCompile(`^history_`)
var underscoreRunRe = regexp.MustCompile(`_+`)
var identifierStripRe = regexp.MustCompile(`^history_+(UTC_+)?`)
var digitsOnlyRe = regexp.MustCompile(`^\d+$`)

// History is the full provenance lineage extracted from one dataset's
// header (§4.11 / C11).
type History struct {
	Name         string
	CreationTime time.Time
	Processes    []*Process

	byName map[string]*Process
	byID   map[string]*Process
}

// Assemble extracts every history_* attribute from h, builds one
// Process per entry, resolves inter-process inputs, and attaches domain
// metadata and the data-file record to the main process.
func Assemble(h *header.Header, name string, creationTime time.Time) *History {
	attrs := extractAttributes(h)

	hh := &History{Name: name, CreationTime: creationTime}
	hh.Processes = extractProcesses(attrs)
	hh.resolveInputs()

	if main := hh.mainProcess(); main != nil {
		main.Domain = extractDomain(attrs)
		main.DataFile = map[string]string{
			"name":        strippedName(hh.Name),
			"date":        formatTime(hh.CreationTime),
			"fingerprint": h.Fingerprint,
		}
		if main.Name == "" {
			main.Name = main.DataFile["name"]
		}
	}
	return hh
}

// attrString renders an attribute's value as a plain string, joining
// multi-valued numeric attributes with a single space.
func attrString(a header.Attribute) string {
	if a.IsChar() {
		return a.Text
	}
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = trimFloat(v)
	}
	return strings.Join(parts, " ")
}

// trimFloat renders v without a trailing ".0" for whole numbers, so
// that integer-typed attributes round-trip through attrString cleanly.
func trimFloat(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// extractAttributes collects every global attribute, plus the attributes
// of every 3-D variable whose leading dimension exceeds 1 (§4.11's
// "extract_attributes"). The first occurrence of a name wins (globals
// first, then variables in file order); later duplicates are dropped.
func extractAttributes(h *header.Header) map[string]string {
	result := map[string]string{}
	for _, a := range h.Attributes {
		if _, exists := result[a.Name]; !exists {
			result[a.Name] = attrString(a)
		}
	}
	for _, v := range h.Variables {
		if len(v.Dimensions) != 3 || v.Dimensions[0].Value <= 1 {
			continue
		}
		for _, a := range v.Attributes {
			if _, exists := result[a.Name]; !exists {
				result[a.Name] = attrString(a)
			}
		}
	}
	return result
}

// extractProcesses builds one Process per "history_*" attribute that is
// not itself an "_output" sibling (§4.11's "extract_processes").
func extractProcesses(attrs map[string]string) []*Process {
	var result []*Process
	for key := range attrs {
		if !historyKeyRe.MatchString(key) {
			continue
		}
		fields := underscoreRunRe.Split(strings.TrimSpace(key), -1)
		if fields[len(fields)-1] == "output" {
			continue
		}

		identifier := identifierStripRe.ReplaceAllString(key, "")

		if len(fields) > 1 && fields[1] == "UTC" {
			fields = fields[2:]
		} else {
			fields = fields[1:]
		}

		var ts time.Time
		hasTime := false
		if len(fields) >= 2 && digitsOnlyRe.MatchString(fields[0]) {
			if t, err := time.Parse("20060102_150405", fields[0]+"_"+fields[1]); err == nil {
				ts = t
				hasTime = true
			}
			fields = fields[2:]
		}

		var name string
		if len(fields) > 0 {
			name = trailingNCRe.ReplaceAllString(strings.Join(fields, "_"), "")
		}

		text := attrs[key]
		output := attrs[key+"_output"]

		result = append(result, newProcess(identifier, hasTime, ts, name, text, output))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return processLess(result[i], result[j])
	})
	return result
}

// processLess implements Process.__cmp__'s ordering key: (time,
// identifier, name, result_type, text, output), with an absent
// timestamp sorting before any present one.
func processLess(a, b *Process) bool {
	if a.HasTime != b.HasTime {
		return !a.HasTime
	}
	if a.HasTime && !a.Time.Equal(b.Time) {
		return a.Time.Before(b.Time)
	}
	if a.Identifier != b.Identifier {
		return a.Identifier < b.Identifier
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if ra, rb := a.ResultType(), b.ResultType(); ra != rb {
		return ra < rb
	}
	if a.Text != b.Text {
		return a.Text < b.Text
	}
	return a.Output < b.Output
}

func (hh *History) processByName(name string) *Process {
	if name == "" {
		return nil
	}
	if hh.byName == nil {
		hh.byName = map[string]*Process{}
		for _, p := range hh.Processes {
			if p.Name == "" {
				continue
			}
			if _, exists := hh.byName[p.Name]; exists {
				p.logError("Duplicate name within history.")
				continue
			}
			hh.byName[p.Name] = p
		}
	}
	return hh.byName[name]
}

func (hh *History) processByID(id string) *Process {
	if id == "" {
		return nil
	}
	if hh.byID == nil {
		hh.byID = map[string]*Process{}
		for _, p := range hh.Processes {
			if p.Identifier == "" {
				continue
			}
			if _, exists := hh.byID[p.Identifier]; exists {
				p.logError("Duplicate identifier within history.")
				continue
			}
			hh.byID[p.Identifier] = p
		}
	}
	return hh.byID[id]
}

func (hh *History) findProcess(in Input) *Process {
	if in.Identifier != "" {
		return hh.processByID(in.Identifier)
	}
	if in.Name != "" {
		return hh.processByName(in.Name)
	}
	return nil
}

// resolveInputs replaces every by-name input reference with the
// predecessor process's identifier where one resolves, leaving
// unresolved names flagged with a "History entry missing" message
// (§4.11's "resolve_inputs").
func (hh *History) resolveInputs() {
	for _, p := range hh.Processes {
		names := map[string]bool{}
		idents := map[string]bool{}
		for _, in := range p.Inputs {
			switch {
			case in.Identifier != "":
				idents[in.Identifier] = true
			case in.Name != "":
				pred := hh.findProcess(in)
				if pred == nil {
					names[in.Name] = true
				} else if p.Identifier != pred.Identifier {
					idents[pred.Identifier] = true
				}
			}
		}
		var resolved []Input
		for name := range names {
			resolved = append(resolved, Input{Name: name, Message: "History entry missing"})
		}
		for id := range idents {
			resolved = append(resolved, Input{Identifier: id})
		}
		sort.Slice(resolved, func(i, j int) bool {
			return resolved[i].Identifier+resolved[i].Name < resolved[j].Identifier+resolved[j].Name
		})
		p.Inputs = resolved
	}
}

// mainProcess selects the process that best describes the dataset
// itself (§4.11's "main_process"): first by matching the dataset's own
// stripped name, else the most recent unreferenced process of the
// dataset's inferred type, else the most recent unreferenced process
// of any type.
func (hh *History) mainProcess() *Process {
	if hh.Name != "" {
		if main := hh.processByName(strippedName(hh.Name)); main != nil {
			return main
		}
	}

	used := map[string]bool{}
	for _, p := range hh.Processes {
		for _, in := range p.Inputs {
			if r := hh.findProcess(in); r != nil && r.Identifier != p.Identifier {
				used[r.Identifier] = true
			}
		}
	}

	var eligible []*Process
	for _, p := range hh.Processes {
		if !used[p.Identifier] {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return processLess(eligible[j], eligible[i])
	})

	targetType := typeForName(strippedName(hh.Name))
	for _, p := range eligible {
		if p.ResultType() == targetType {
			return p
		}
	}
	if len(eligible) > 0 {
		return eligible[0]
	}
	return nil
}

var mmUnitRe = regexp.MustCompile(`^mm$|^millimet(re|er)`)
var micronUnitRe = regexp.MustCompile(`^micro(metre|meter|n)`)

// extractDomain derives the physical-space metadata block of the main
// process (§4.11's "extract_domain"): grid size, origin, and voxel size
// with units normalized to micron.
func extractDomain(attrs map[string]string) map[string]interface{} {
	result := map[string]interface{}{}

	if t := firstNonEmpty(attrs["total_grid_size"], attrs["total_grid_size_xyz"]); t != "" {
		setXYZ(result, "domain_size", parseFloats(t))
	}
	if t := firstNonEmpty(attrs["coordinate_origin"], attrs["coordinate_origin_xyz"]); t != "" {
		setXYZ(result, "domain_origin", parseFloats(t))
	}

	voxelSizeStr := firstNonEmpty(attrs["voxel_size"], attrs["voxel_size_xyz"])
	voxelUnit := attrs["voxel_unit"]
	voxelSize := parseFloats(voxelSizeStr)

	switch {
	case mmUnitRe.MatchString(voxelUnit):
		voxelUnit = "micron"
		for i := range voxelSize {
			voxelSize[i] *= 1000.0
		}
	case micronUnitRe.MatchString(voxelUnit):
		voxelUnit = "micron"
	}

	if len(voxelSize) > 0 {
		setXYZ(result, "voxel_size", voxelSize)
	}
	if voxelUnit != "" {
		result["voxel_unit"] = voxelUnit
	}
	return result
}

func setXYZ(target map[string]interface{}, name string, vec []float64) {
	if len(vec) < 3 {
		return
	}
	axes := [3]string{"x", "y", "z"}
	for i, axis := range axes {
		target[name+"_"+axis] = vec[i]
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseFloats(s string) []float64 {
	if s == "" {
		return nil
	}
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// AsJSON renders every process's record as a JSON array, sorted keys,
// 4-space indent, matching the Plexus import file format (§4.11's
// "as_json").
func (hh *History) AsJSON() ([]byte, error) {
	records := make([]map[string]interface{}, 0, len(hh.Processes))
	for _, p := range hh.Processes {
		records = append(records, p.record())
	}
	return json.MarshalIndent(records, "", "    ")
}

package history

import (
	"path/filepath"
	"regexp"
	"strings"
)

// TypePrefix maps a Mango "Data_Type" value to the short prefix used in
// dataset basenames and back (§4.11's "Prefix ↔ type table").
var TypePrefix = map[string]string{
	"Projection_Set":                  "proj",
	"Tomographic_Data":                "tomo",
	"Tomographic_Data_Floating_Point": "tomo_float",
	"Tomographic_Data_Container":      "cntr_tomo",
	"Segmented_Data":                  "segmented",
	"Distance_Map_Data":               "distance_map",
	"Medial_Axis_Data":                "medial_axis",
	"Label_Data":                      "labels",
}

// PrefixType is the inverse of TypePrefix.
var PrefixType = func() map[string]string {
	m := map[string]string{}
	for k, v := range TypePrefix {
		m[v] = k
	}
	return m
}()

var runSectionRe = regexp.MustCompile(`^Run(_\d+)?$`)
var ioSectionRe = regexp.MustCompile(`^(MPI|Input_Data_File|Output_Data_File)$`)

// Analysis is the result of inspecting one history text's raw tree for
// the process it describes (§4.10's "Mango post-analysis" /
// "Acquisition post-analysis").
type Analysis struct {
	Process string
	Data    map[string]string
	Inputs  []string
	Name    string
	Time    string
	User    string
	Errors  []string
}

// Analyze dispatches to the Mango or acquisition post-analysis
// depending on dialect (a "mixed" text is analysed as Mango — it
// already contains at least one BeginSection block, the higher-fidelity
// source).
func Analyze(raw *Node, dialect Dialect) Analysis {
	var a Analysis
	if dialect == DialectAcquisition {
		a = analyzeAcquisition(raw)
	} else {
		a = analyzeMango(raw)
	}
	a.Data = PostProcess(a.Data)
	return a
}

// PostProcess applies the leaf post-processing chain of §4.10 to every
// value in data, dropping any that coerce to empty.
func PostProcess(data map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range data {
		if c := coerce(v); c != "" {
			out[k] = c
		}
	}
	return out
}

func analyzeMango(raw *Node) Analysis {
	a := Analysis{Data: map[string]string{}}
	if raw == nil || raw.Kind != KindSection {
		a.Errors = append(a.Errors, "No Mango run section found.")
		return a
	}

	var runKey string
	var run *Node
	for _, k := range raw.Order {
		v := raw.Section[k]
		if v == nil || v.Kind != KindSection {
			continue
		}
		if !runSectionRe.MatchString(k) {
			continue
		}
		if strings.EqualFold(v.Get("enabled").String(), "false") {
			continue
		}
		if v.Get("Grid_Of_Images") != nil {
			continue
		}
		// last qualifying match wins, per §4.10
		runKey, run = k, v
	}
	if run == nil {
		for _, k := range raw.Order {
			v := raw.Section[k]
			if v == nil || v.Kind != KindSection || ioSectionRe.MatchString(k) {
				continue
			}
			runKey, run = k, v
		}
	}
	if run == nil {
		a.Errors = append(a.Errors, "No Mango run section found.")
		return a
	}

	var processes []string
	for _, k := range run.Order {
		v := run.Section[k]
		if v != nil && v.Kind == KindSection && !ioInputOutputRe.MatchString(k) {
			processes = append(processes, k)
		}
	}
	switch {
	case len(processes) == 0:
		a.Errors = append(a.Errors, "No Mango module name.")
	case len(processes) > 1:
		a.Errors = append(a.Errors, "Multiple Mango module names.")
	}
	if len(processes) > 0 {
		a.Process = processes[0]
	}

	dataType := run.Get("input_data_type").String()
	var prefix string
	if dataType != "" {
		var ok bool
		prefix, ok = TypePrefix[dataType]
		if !ok {
			a.Errors = append(a.Errors, "Unknown Mango type "+dataType+".")
		}
	} else {
		prefix = globalInputPrefix(raw)
		if prefix == "" {
			if runSectionRe.MatchString(runKey) {
				a.Errors = append(a.Errors, "No input prefix found in Mango section.")
			} else {
				prefix = TypePrefix[runKey]
			}
		}
	}

	var inputs []string
	if prefix != "" {
		suffix := run.Get("suffix").String()
		if suffix == "" {
			suffix = raw.Get("file_name_suffix").String()
		}
		inputs = append(inputs, prefix+suffix)
	}

	if a.Process != "" {
		for key, val := range Flatten(run.Get(a.Process), "") {
			switch {
			case strings.HasSuffix(key, "_file_name"):
				inputs = append(inputs, filepath.Base(val))
			case key == "Input_Data_File.format" || key == "Output_Data_File.format":
				// dropped, per §4.10
			default:
				a.Data[key] = val
			}
		}
	}
	for i, name := range inputs {
		inputs[i] = stripTrailingNC(name)
	}
	a.Inputs = inputs
	return a
}

// globalInputPrefix searches every top-level section's direct children
// for one named "Input_Data_File" carrying a "file_name_base" leaf,
// returning the first match in section order. This is the fallback the
// Mango dialect uses for the synthetic input prefix when the run
// section itself has no "input_data_type" (§4.10's "or the global input
// prefix").
func globalInputPrefix(raw *Node) string {
	for _, k := range raw.Order {
		mid := raw.Section[k]
		if mid == nil || mid.Kind != KindSection {
			continue
		}
		for _, name := range mid.Order {
			if name != "Input_Data_File" {
				continue
			}
			inner := mid.Section[name]
			if inner == nil || inner.Kind != KindSection {
				continue
			}
			if fnb := inner.Get("file_name_base"); fnb != nil {
				return fnb.String()
			}
		}
	}
	return ""
}

var ioInputOutputRe = regexp.MustCompile(`^(Input_Data_File|Output_Data_File)$`)
var ncTrailRe = regexp.MustCompile(`[_.?]nc/*$`)
var controlKeyRe = regexp.MustCompile(`^(DATE|TIME|COMMAND|VERSION|USER|FUNCTION|RELEASE)$`)
var controlSuffixRe = regexp.MustCompile(`\.(DATE|TIME|VERSION|FAST_LOOPS)$`)

func stripTrailingNC(name string) string {
	return ncTrailRe.ReplaceAllString(name, "")
}

func analyzeAcquisition(raw *Node) Analysis {
	a := Analysis{Data: map[string]string{}}
	if raw == nil || raw.Kind != KindSection {
		return a
	}

	command := raw.Get("COMMAND").String()
	args := strings.Fields(command)
	if len(args) > 0 {
		a.Process = filepath.Base(args[0])
	}

	var files []string
	for _, arg := range args[minInt(1, len(args)):] {
		if ncTrailRe.MatchString(arg) {
			files = append(files, filepath.Base(stripTrailingNC(arg)))
		}
	}
	if len(files) > 0 {
		a.Inputs = files[:len(files)-1]
		a.Name = files[len(files)-1]
	}

	a.Time = raw.Get("DATE").String()
	a.User = raw.Get("USER").String()

	progDot := ""
	if a.Process != "" {
		progDot = a.Process + "."
	}
	for _, k := range raw.Order {
		v := raw.Section[k]
		if controlKeyRe.MatchString(k) || controlSuffixRe.MatchString(k) {
			continue
		}
		if v != nil && v.Kind == KindSection {
			for fk, fv := range Flatten(v, k) {
				a.Data[fk] = angleQuote(fv)
			}
			continue
		}
		val := angleQuote(v.String())
		key := k
		if progDot != "" && strings.HasPrefix(k, progDot) {
			key = strings.TrimPrefix(k, progDot)
		}
		a.Data[key] = val
	}
	return a
}

var angleBracketRe = regexp.MustCompile(`<([^<>]+)>`)

func angleQuote(s string) string {
	return angleBracketRe.ReplaceAllString(s, "'$1'")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Package assemble implements the provenance assembler (§4.11 / C11): it
// turns a decoded header's history_* attributes into an ordered list of
// Process records describing the processing lineage of a dataset, ready
// for JSON serialization into a Plexus-style import file.
package assemble

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bgrewell/cdf-kit/pkg/provenance/history"
)

var namePrefixRe = regexp.MustCompile(`^[a-z_]*[a-z]`)

// typeForName derives a Mango data-type name from a dataset name's
// leading lowercase-prefix, via the TypePrefix/PrefixType table (§4.11).
func typeForName(name string) string {
	m := namePrefixRe.FindString(name)
	if m == "" {
		return ""
	}
	if t, ok := history.PrefixType[m]; ok {
		return t
	}
	return m
}

var trailingNCRe = regexp.MustCompile(`[_.?]nc$`)
var trailingHeaderRe = regexp.MustCompile(`_header$`)

// strippedName removes a trailing "_header" suffix, then a trailing
// "[_.?]nc" suffix, then reduces to the base name (§4.11).
func strippedName(name string) string {
	base := trailingHeaderRe.ReplaceAllString(name, "")
	base = trailingNCRe.ReplaceAllString(base, "")
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	return base
}

const timeFormat = "2006/01/02 15:04:05 UTC"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// ctimeLayout matches Python's time.strptime(date) with no explicit
// format, which defaults to ctime's layout — the shape of the
// acquisition dialect's DATE field.
const ctimeLayout = "Mon Jan 2 15:04:05 2006"

// parseAnalysisTime parses the acquisition dialect's DATE field,
// reporting ok=false on any failure exactly like Python's bare
// except around time.strptime (history.py's analyse_other).
func parseAnalysisTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(ctimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Input identifies one predecessor of a Process, either by the
// identifier of another process in the same history or (before
// resolution) by name alone.
type Input struct {
	Identifier string
	Name       string
	Message    string
}

func (i Input) asMap() map[string]interface{} {
	m := map[string]interface{}{}
	if i.Identifier != "" {
		m["identifier"] = i.Identifier
	}
	if i.Name != "" {
		m["name"] = i.Name
	}
	if i.Message != "" {
		m["message"] = i.Message
	}
	return m
}

var inputDatasetIDRe = regexp.MustCompile(`^input dataset ID:\s+(\S+)`)

// Process is one history_* attribute's worth of processing lineage
// (§3's Process data model / §4.11).
type Process struct {
	Identifier string
	Time       time.Time
	HasTime    bool
	Name       string
	Text       string
	Output     string

	Process    string
	Data       map[string]string
	Inputs     []Input
	User       string
	Errors     []string
	Dialect    history.Dialect

	Domain   map[string]interface{}
	DataFile map[string]string
}

// newProcess parses text/output and builds a Process, mirroring
// Parser/Process.__init__ in history.py.
func newProcess(identifier string, hasTime bool, ts time.Time, name, text, output string) *Process {
	raw, dialect := history.Parse(text)
	a := history.Analyze(raw, dialect)

	// Mirrors Process.time in history.py: the attribute-key-derived
	// timestamp wins when present, else fall back to the DATE field the
	// parser recovered from the history text itself.
	if !hasTime {
		if t, ok := parseAnalysisTime(a.Time); ok {
			ts = t
			hasTime = true
		}
	}

	p := &Process{
		Identifier: identifier,
		Time:       ts,
		HasTime:    hasTime,
		Name:       name,
		Text:       text,
		Output:     output,
		Process:    a.Process,
		Data:       a.Data,
		User:       a.User,
		Errors:     append([]string{}, a.Errors...),
		Dialect:    dialect,
	}
	if p.Name == "" {
		p.Name = a.Name
	}
	p.Inputs = p.collectInputs(a.Inputs)
	return p
}

// collectInputs merges inputs named in the output log ("input dataset
// ID: ...", excluding UTC_-prefixed ones) with inputs the parser found
// in the history text itself (§4.11).
func (p *Process) collectInputs(parserInputs []string) []Input {
	var res []Input
	for _, line := range strings.Split(p.Output, "\n") {
		line = strings.TrimSpace(line)
		m := inputDatasetIDRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.HasPrefix(m[1], "UTC_") {
			continue
		}
		res = append(res, Input{Identifier: m[1]})
	}
	for _, name := range parserInputs {
		res = append(res, Input{Name: name})
	}
	return res
}

// ResultType derives the dataset-type classification of this process's
// output name.
func (p *Process) ResultType() string {
	return typeForName(p.Name)
}

// FormattedTime renders this process's timestamp per §4.11's time
// format, or "" if it has none.
func (p *Process) FormattedTime() string {
	if !p.HasTime {
		return ""
	}
	return formatTime(p.Time)
}

func (p *Process) logError(text string) {
	p.Errors = append(p.Errors, text)
}

// record builds this process's JSON-serializable record (§4.11's
// "record" view — field names match the Plexus import file format).
func (p *Process) record() map[string]interface{} {
	inputs := make([]map[string]interface{}, 0, len(p.Inputs))
	for _, in := range p.Inputs {
		inputs = append(inputs, in.asMap())
	}
	rec := map[string]interface{}{
		"process":      nilIfEmpty(p.Process),
		"data_type":    nilIfEmpty(p.ResultType()),
		"name":         nilIfEmpty(p.Name),
		"date":         nilIfEmpty(p.FormattedTime()),
		"identifier":   p.Identifier,
		"run_by":       nilIfEmpty(p.User),
		"parameters":   p.Data,
		"predecessors": inputs,
		"source_text":  p.Text,
		"output_log":   p.Output,
		"parse_errors": p.Errors,
		"domain":       p.Domain,
		"data_file":    p.DataFile,
	}
	return rec
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func (p *Process) String() string {
	return fmt.Sprintf("Process{%s %s}", p.Identifier, p.Name)
}

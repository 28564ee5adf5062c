package assemble

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bgrewell/cdf-kit/pkg/consts"
	"github.com/bgrewell/cdf-kit/pkg/netcdf/header"
	"github.com/stretchr/testify/require"
)

func charAttr(name, text string) header.Attribute {
	return header.Attribute{Name: name, Type: consts.NC_CHAR, Text: text}
}

func TestAssembleParsesIdentifierTimestampAndName(t *testing.T) {
	h := &header.Header{
		Attributes: []header.Attribute{
			charAttr("history_20230115_120000", "COMMAND: recon input_a.nc output_b.nc\nUSER: alice\n"),
		},
		Fingerprint: "deadbeef",
	}

	hh := Assemble(h, "output_b.nc", time.Date(2023, 1, 16, 0, 0, 0, 0, time.UTC))
	require.Len(t, hh.Processes, 1)

	p := hh.Processes[0]
	require.Equal(t, "20230115_120000", p.Identifier)
	require.True(t, p.HasTime)
	require.Equal(t, "recon", p.Process)
	require.Equal(t, "output_b", p.Name)
	require.Equal(t, "alice", p.User)

	require.NotEmpty(t, p.Inputs)
	foundMissing := false
	for _, in := range p.Inputs {
		if in.Name == "input_a" {
			require.Equal(t, "History entry missing", in.Message)
			foundMissing = true
		}
	}
	require.True(t, foundMissing)
}

func TestAssembleSelectsMainProcessByDatasetName(t *testing.T) {
	h := &header.Header{
		Attributes: []header.Attribute{
			charAttr("history_20230115_120000", "COMMAND: recon input_a.nc output_b.nc\nUSER: alice\n"),
		},
		Fingerprint: "cafef00d",
	}

	hh := Assemble(h, "output_b.nc", time.Date(2023, 1, 16, 0, 0, 0, 0, time.UTC))
	p := hh.Processes[0]
	require.NotNil(t, p.DataFile)
	require.Equal(t, "output_b", p.DataFile["name"])
	require.Equal(t, "cafef00d", p.DataFile["fingerprint"])
}

func TestExtractDomainNormalizesMillimetresToMicron(t *testing.T) {
	attrs := map[string]string{
		"voxel_size_xyz": "1.0 1.0 1.0",
		"voxel_unit":     "mm",
	}
	d := extractDomain(attrs)
	require.Equal(t, "micron", d["voxel_unit"])
	require.Equal(t, 1000.0, d["voxel_size_x"])
	require.Equal(t, 1000.0, d["voxel_size_y"])
	require.Equal(t, 1000.0, d["voxel_size_z"])
}

func TestExtractDomainPassesThroughMicronUnit(t *testing.T) {
	attrs := map[string]string{
		"voxel_size_xyz": "2.5 2.5 2.5",
		"voxel_unit":     "micron",
	}
	d := extractDomain(attrs)
	require.Equal(t, "micron", d["voxel_unit"])
	require.Equal(t, 2.5, d["voxel_size_x"])
}

func TestAsJSONProducesSortedArray(t *testing.T) {
	h := &header.Header{
		Attributes: []header.Attribute{
			charAttr("history_20230115_120000", "COMMAND: recon a.nc b.nc\nUSER: alice\n"),
		},
	}
	hh := Assemble(h, "b.nc", time.Now().UTC())
	out, err := hh.AsJSON()
	require.NoError(t, err)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &records))
	require.Len(t, records, 1)
	require.Contains(t, records[0], "identifier")
	require.Contains(t, records[0], "predecessors")
}

func TestProcessTimeFallsBackToParsedDateField(t *testing.T) {
	h := &header.Header{
		Attributes: []header.Attribute{
			charAttr("history_recon", "DATE: Sun Jan 15 12:00:00 2023\nCOMMAND: recon a.nc b.nc\n"),
		},
	}
	hh := Assemble(h, "b.nc", time.Date(2023, 1, 16, 0, 0, 0, 0, time.UTC))
	require.Len(t, hh.Processes, 1)

	p := hh.Processes[0]
	require.True(t, p.HasTime)
	require.True(t, p.Time.Equal(time.Date(2023, 1, 15, 12, 0, 0, 0, time.UTC)))
}

func TestSkipsOutputSiblingAttributes(t *testing.T) {
	h := &header.Header{
		Attributes: []header.Attribute{
			charAttr("history_20230115_120000_recon", "COMMAND: recon a.nc b.nc\n"),
			charAttr("history_20230115_120000_recon_output", "input dataset ID: 999\ndone\n"),
		},
	}
	hh := Assemble(h, "b.nc", time.Now().UTC())
	require.Len(t, hh.Processes, 1)
	require.Equal(t, "input dataset ID: 999\ndone\n", hh.Processes[0].Output)
}

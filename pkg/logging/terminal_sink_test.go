package logging

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"
)

func TestNewTerminalSinkDefaultsToStdout(t *testing.T) {
	s := newTerminalSink(nil, 1, true)
	require.Equal(t, os.Stdout, s.out)
}

func TestTerminalSinkEnabledRespectsVerbosity(t *testing.T) {
	s := newTerminalSink(&bytes.Buffer{}, LEVEL_DEBUG, true)
	require.True(t, s.Enabled(LEVEL_INFO))
	require.True(t, s.Enabled(LEVEL_DEBUG))
	require.False(t, s.Enabled(LEVEL_TRACE))
}

func TestTerminalSinkInfoWritesLabelAndKeyValues(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newTerminalSink(buf, LEVEL_DEBUG, false)
	s.Info(LEVEL_INFO, "shard discovered", "count", 3)
	out := buf.String()

	require.Contains(t, out, "[INFO]")
	require.Contains(t, out, "shard discovered")
	require.Contains(t, out, "count: 3")
}

func TestTerminalSinkSuppressesLevelsAboveVerbosity(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newTerminalSink(buf, LEVEL_INFO, false)
	s.Info(LEVEL_DEBUG, "should not appear")
	require.Empty(t, buf.String())
}

func TestTerminalSinkErrorIncludesErrorKeyValue(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newTerminalSink(buf, LEVEL_INFO, false)
	s.Error(errors.New("boom"), "decode failed", "path", "a_nc")
	out := buf.String()

	require.Contains(t, out, "[ERROR]")
	require.Contains(t, out, "decode failed")
	require.Contains(t, out, "path: a_nc")
	require.Contains(t, out, "error: boom")
}

func TestTerminalSinkWithNameChains(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newTerminalSink(buf, LEVEL_INFO, false)
	named := s.WithName("cdfkit").WithName("cache")
	named.Info(LEVEL_INFO, "hit")

	require.Contains(t, buf.String(), "[cdfkit.cache] hit")
}

func TestTerminalSinkWithValuesPersistsAcrossCalls(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newTerminalSink(buf, LEVEL_INFO, false)
	withVals := s.WithValues("dataset", "tomo_0001").(*terminalSink)
	withVals.Info(LEVEL_INFO, "rendering slice", "axis", "Z")
	out := buf.String()

	require.Contains(t, out, "dataset: tomo_0001")
	require.Contains(t, out, "axis: Z")
}

func TestTerminalSinkVPreservesNameAndValues(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newTerminalSink(buf, LEVEL_DEBUG, false)
	verbose := s.WithName("stream").WithValues("axis", "Z").(*terminalSink).V(LEVEL_DEBUG)
	verbose.Info(LEVEL_DEBUG, "streaming plane")

	require.Contains(t, buf.String(), "[stream] streaming plane")
	require.Contains(t, buf.String(), "axis: Z")
}

func TestTerminalSinkNonStringKeyIsLabeled(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newTerminalSink(buf, LEVEL_INFO, false)
	s.Info(LEVEL_INFO, "odd key", 123, "value")
	require.Contains(t, buf.String(), "arg0: value")
}

func TestTerminalSinkColorDisabledOmitsEscapeCodes(t *testing.T) {
	buf := &bytes.Buffer{}
	s := newTerminalSink(buf, LEVEL_INFO, false)
	s.Info(LEVEL_INFO, "plain")
	require.False(t, strings.Contains(buf.String(), "\x1b["))
}

func TestTerminalSinkSatisfiesLogrLogSink(t *testing.T) {
	var _ logr.LogSink = newTerminalSink(&bytes.Buffer{}, LEVEL_INFO, false)
}

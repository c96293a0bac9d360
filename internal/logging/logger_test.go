package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("staging ready", slog.String("dir", "/tmp/assignment2A"), slog.Int("files", 3))
	logger.With(slog.String("part", "A")).Warn("clean step failed", slog.String("stderr", "no rule"))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO staging ready dir=/tmp/assignment2A files=3", lines[0])
	assert.Equal(t, `WARN clean step failed part=A stderr="no rule"`, lines[1])
}

func TestNew_ConsoleGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Writer: &buf})
	require.NoError(t, err)

	logger.WithGroup("archive").Info("written", slog.Int64("bytes", 42))
	assert.Equal(t, "INFO written archive.bytes=42\n", buf.String())
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "JSON", Writer: &buf})
	require.NoError(t, err)

	logger.Debug("selected", slog.Int("files", 5))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "debug", record["level"])
	assert.Equal(t, "selected", record["msg"])
	assert.EqualValues(t, 5, record["files"])
	assert.Contains(t, record, "ts")
}

func TestNew_Verbose(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "error", Writer: &buf, Verbose: true})
	require.NoError(t, err)

	logger.Debug("visible")
	assert.Equal(t, "DEBUG visible\n", buf.String())
}

func TestNew_UnsupportedFormat(t *testing.T) {
	_, err := New(Options{Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported value "xml"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), tt.input)
	}
}

func TestWithRun(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(Options{Writer: &buf})
	require.NoError(t, err)

	logger, runID := WithRun(base, "B")
	require.Len(t, runID, 36)
	logger.Info("start")
	assert.Equal(t, "INFO start run_id="+runID+" part=B\n", buf.String())

	_, other := WithRun(nil, "A")
	assert.NotEqual(t, runID, other)
}

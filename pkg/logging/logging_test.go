package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(level)
	l.SetOutput(&buf)
	return l, &buf
}

func TestLogger_JSONEntry(t *testing.T) {
	l, buf := newBufLogger(LevelInfo)
	l.Info("copy started", map[string]any{"from": "a", "to": "b"})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, LevelInfo, entry.Level)
	assert.Equal(t, "copy started", entry.Message)
	assert.Equal(t, "a", entry.Fields["from"])
	assert.Equal(t, "b", entry.Fields["to"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestLogger_NoFieldsOmitted(t *testing.T) {
	l, buf := newBufLogger(LevelInfo)
	l.Info("bare")
	assert.NotContains(t, buf.String(), `"fields"`)
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{LevelDebug, []string{"d", "i", "w", "e"}},
		{LevelInfo, []string{"i", "w", "e"}},
		{LevelWarn, []string{"w", "e"}},
		{LevelError, []string{"e"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			l, buf := newBufLogger(tt.level)
			l.Debug("d")
			l.Info("i")
			l.Warn("w")
			l.Error("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, len(tt.want))
			for i, msg := range tt.want {
				assert.Contains(t, lines[i], `"message":"`+msg+`"`)
			}
		})
	}
}

func TestLogger_WithFieldsMerges(t *testing.T) {
	l, buf := newBufLogger(LevelInfo)
	child := l.WithFields(map[string]any{"copy_id": "abc"})
	child.Info("chunk", map[string]any{"bytes": 10})

	out := buf.String()
	assert.Contains(t, out, `"copy_id":"abc"`)
	assert.Contains(t, out, `"bytes":10`)

	buf.Reset()
	l.Info("parent")
	assert.NotContains(t, buf.String(), "copy_id")
}

func TestLogger_ErrorErr(t *testing.T) {
	l, buf := newBufLogger(LevelInfo)
	l.ErrorErr("copy failed", errors.New("disk full"), map[string]any{"to": "x"})
	out := buf.String()
	assert.Contains(t, out, `"error":"disk full"`)
	assert.Contains(t, out, `"to":"x"`)
}

func TestLogger_WarnErr(t *testing.T) {
	l, buf := newBufLogger(LevelWarn)
	l.WarnErr("cleanup failed", errors.New("busy"))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"error":"busy"`)
}

func TestLogger_TextFormat(t *testing.T) {
	l, buf := newBufLogger(LevelInfo)
	l.SetFormat(FormatText)
	l.Info("copy finished", map[string]any{"status": "completed", "to": "my file"})

	out := buf.String()
	assert.Contains(t, out, " INFO copy finished status=completed to=\"my file\"\n")
}

func TestLogger_TextFormatSortsKeys(t *testing.T) {
	l, buf := newBufLogger(LevelInfo)
	l.SetFormat(FormatText)
	l.Info("m", map[string]any{"b": 2, "a": 1})
	assert.Contains(t, buf.String(), "m a=1 b=2")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" WARN ")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.NotPanics(t, func() { l.Error("nothing") })
}

func TestGlobal_Info(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	l, buf := newBufLogger(LevelInfo)
	SetGlobal(l)
	Info("global info message")
	WithFields(map[string]any{"k": "v"}).Warn("global warn")

	out := buf.String()
	assert.Contains(t, out, `"message":"global info message"`)
	assert.Contains(t, out, `"k":"v"`)
}

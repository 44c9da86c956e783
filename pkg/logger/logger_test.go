package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igtracker/pkg/config"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "igtracker.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.WithField("username", "natgeo").
		WithFields(map[string]interface{}{"owner": "u1", "posts": 5}).
		WithError(errors.New("boom")).
		InfoWithFields("profile tracked", map[string]interface{}{"took": 2 * time.Second})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	line := lines[0]
	assert.Equal(t, "profile tracked", line["message"])
	assert.Equal(t, "igtracker", line["app"])
	assert.Equal(t, "natgeo", line["username"])
	assert.Equal(t, "u1", line["owner"])
	assert.Equal(t, float64(5), line["posts"])
	assert.Equal(t, "boom", line["error"])
	assert.Contains(t, line, "took")
}

func TestWriterLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestChildLoggersDoNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, zerolog.InfoLevel)

	_ = base.WithField("stage", "fetch")
	base.Info("plain")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "stage")
}

func TestHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogPipelineStage(tl, "fetch", "natgeo", time.Millisecond, nil)
	LogPipelineStage(tl, "persist", "natgeo", time.Millisecond, errors.New("locked"))
	LogInference(tl, "image", "ABC", time.Millisecond, errors.New("timeout"))
	LogComponentStart(tl, "scheduler", map[string]interface{}{"cron": "@hourly"})
	LogComponentStop(tl, "scheduler", "shutdown")

	assert.True(t, tl.HasMessage("pipeline stage completed"))
	assert.True(t, tl.HasError())

	warns := tl.GetMessagesByLevel("WARN")
	require.Len(t, warns, 1)
	assert.Equal(t, "image", warns[0].Fields["inference"])
	assert.EqualError(t, warns[0].Error, "timeout")

	infos := tl.GetMessagesByLevel("INFO")
	require.Len(t, infos, 2)
	assert.Equal(t, "scheduler", infos[0].Fields["component"])
	assert.Equal(t, "@hourly", infos[0].Fields["cron"])
}

func TestTestLoggerChildrenShareSink(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("a", 1).WithField("b", 2)
	child.Info("from child")
	tl.Info("from parent")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, 1, msgs[0].Fields["a"])
	assert.Equal(t, 2, msgs[0].Fields["b"])
	assert.Empty(t, msgs[1].Fields)

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	tl := NewTestLogger()
	assert.Same(t, tl, OrNop(tl))
	assert.NotNil(t, NewNopLogger().GetZerolog())
}

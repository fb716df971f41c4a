package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Level: "info", Format: "json"}.Validate())
	assert.NoError(t, Config{Level: "debug", Format: "console"}.Validate())
	assert.Error(t, Config{Level: "loud", Format: "json"}.Validate())
	assert.Error(t, Config{Level: "info", Format: "xml"}.Validate())
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	l.Debug("hidden")
	l.Named("scan").Info("analyzed", zap.Int("broken", 2))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "analyzed", line["msg"])
	assert.Equal(t, "scan", line["logger"])
	assert.EqualValues(t, 2, line["broken"])
	assert.Contains(t, line, "ts")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewTestLogger(t *testing.T) {
	l, logs := NewTestLogger()
	l.Warn("fallback", zap.String("path", "a.txt"))

	entries := logs.FilterMessage("fallback").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].ContextMap()["path"])
}

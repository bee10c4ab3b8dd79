package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_DevelopmentIsTextWithDebug(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(baseHandler(&buf, true))

	l.Debug("dbg", "k", "v")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "k=v")
}

func TestBaseHandler_ProductionIsJSONWithoutDebug(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(baseHandler(&buf, false))

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.Info("shown", "file_id", "f1")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "f1", line["file_id"])
}

func TestInit_SetsDefaultWithProcess(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	l := Init(false, "", "worker")

	require.NotNil(t, l)
	assert.Same(t, Log, l)
}

package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/samvad-hq/restclient/internal/config"
)

func TestInitWriterEmitsJSONObjects(t *testing.T) {
	t.Cleanup(func() { S = nil })

	var buf bytes.Buffer
	_, err := InitWriter(&config.Config{AppName: "restclient", Env: "test", LogLevel: "info"}, &buf)
	require.NoError(t, err)

	ZapLogger{}.InfoObj("dispatched", "exchange", map[string]any{"status_code": 201})
	ZapLogger{}.DebugObj("hidden", "exchange", nil)
	require.NoError(t, Close())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "dispatched", entry["msg"])
	assert.Equal(t, "restclient", entry["app"])
	assert.Contains(t, entry, "ts")
	assert.Equal(t, map[string]any{"status_code": float64(201)}, entry["exchange"])
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	S = nil
	assert.NotPanics(t, func() {
		InfoObj("a", "k", 1)
		ErrorObj("b", "k", 2)
		_ = Close()
	})
	assert.Equal(t, NopLogger{}, Ensure(nil))
	assert.Equal(t, ZapLogger{}, Ensure(ZapLogger{}))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

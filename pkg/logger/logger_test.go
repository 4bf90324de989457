package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	Info("bill generated", map[string]interface{}{
		"address_id": 42,
		"period":     "2026-09",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "bill generated", entry["message"])
	assert.Equal(t, float64(42), entry["address_id"])
	assert.Equal(t, "2026-09", entry["period"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestLogger_ErrorAndContext(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "info", Format: "json", Output: &buf})

	l := WithContext(map[string]interface{}{"request_id": "abc"})
	l.Error("db failed", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "abc", entry["request_id"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "warn", Format: "json", Output: &buf})

	Debug("hidden")
	Info("hidden too")
	assert.Empty(t, buf.String())

	Warn("shown")
	assert.Contains(t, buf.String(), "shown")

	Initialize(Config{Level: "info", Format: "json", Output: &bytes.Buffer{}})
}

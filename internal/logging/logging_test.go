package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug", "json")
	log.Debug().Str("symbol", "PETR4").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "PETR4", line["symbol"])
	assert.Equal(t, "stocksentinel", line["service"])
	assert.Contains(t, line, "time")
}

func TestNewWithWriter_LevelFallback(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "chatty", "json")
	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	log.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	log = NewWithWriter(&buf, "", "json")
	log.Info().Msg("default")
	assert.Contains(t, buf.String(), "default")
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "WARN", "console")
	log.Info().Msg("hidden")
	log.Warn().Msg("careful")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "careful")
	assert.False(t, strings.HasPrefix(out, "{"))
}

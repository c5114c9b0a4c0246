package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNew_AutoFormatIsJSONForBuffers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "auto", Output: &buf})
	log.Debug().Msg("hidden")
	log.Info().Str("game", "pokemon").Msg("catalog loaded")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "catalog loaded", entry["message"])
	assert.Equal(t, "pokemon", entry["game"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "console", Output: &buf, NoColor: true})
	log.Warn().Msg("skipping card file")
	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "skipping card file")
}

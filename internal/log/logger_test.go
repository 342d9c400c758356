package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configureBuffer(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	plain := false
	Configure(Config{Level: level, Output: &buf, Console: &plain})
	t.Cleanup(func() { Configure(Config{}) })
	return &buf
}

func TestWithComponentAddsField(t *testing.T) {
	buf := configureBuffer(t, "debug")

	WithComponent("docs").Info().Str("file", "a.py").Msg("documented")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "docs", entry["component"])
	assert.Equal(t, "a.py", entry["file"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "documented", entry["message"])
}

func TestConfigureLevel(t *testing.T) {
	buf := configureBuffer(t, "warn")

	WithComponent("uml").Info().Msg("hidden")
	assert.Empty(t, buf.String())

	WithComponent("uml").Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigureLevelFromEnv(t *testing.T) {
	t.Setenv("REPODOC_LOG_LEVEL", "error")
	buf := configureBuffer(t, "")

	Base().Warn().Msg("hidden")
	assert.Empty(t, buf.String())
	assert.Equal(t, zerolog.ErrorLevel, Base().GetLevel())
}

func TestDerive(t *testing.T) {
	buf := configureBuffer(t, "info")

	Derive(func(c *zerolog.Context) { *c = c.Str("run", "42") }).Info().Msg("x")
	assert.Contains(t, buf.String(), `"run":"42"`)
}

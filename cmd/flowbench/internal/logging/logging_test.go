package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:     "debug",
		EnvLogTimestamp: "false",
		EnvLogNoColor:   "1",
	}
	cfg := DefaultConfig()
	applyEnvOverrides(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, zerolog.DebugLevel, cfg.Level)
	assert.False(t, cfg.Timestamp)
	assert.True(t, cfg.NoColor)
}

func TestInvalidOverridesAreIgnored(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:     "loud",
		EnvLogTimestamp: "maybe",
	}
	cfg := DefaultConfig()
	applyEnvOverrides(&cfg, func(k string) string { return env[k] })
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"WARN", zerolog.WarnLevel, true},
		{" trace ", zerolog.TraceLevel, true},
		{"off", zerolog.Disabled, true},
		{"nope", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
	}
}

func TestFlagLevelWins(t *testing.T) {
	t.Setenv(EnvLogLevel, "debug")
	var buf bytes.Buffer
	log := New(&buf, Config{Level: zerolog.InfoLevel, NoColor: true}, "error")

	log.Warn().Msg("hidden")
	assert.Empty(t, buf.String())
	log.Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

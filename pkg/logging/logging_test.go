package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setGlobalLevel lowers the package default (error) for the duration of a test.
func setGlobalLevel(t *testing.T, level zerolog.Level) {
	t.Helper()
	prev := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(level)
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

func TestNewLoggerWithWriter(t *testing.T) {
	setGlobalLevel(t, zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := NewLoggerWithWriter("test", zerolog.DebugLevel, &buf)

	logger.Debug().Msg("test debug message")
	assert.Contains(t, buf.String(), "test debug message")
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}

func TestNewLoggerLevel(t *testing.T) {
	setGlobalLevel(t, zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := NewLoggerWithWriter("test", zerolog.InfoLevel, &buf)

	logger.Debug().Msg("debug message")
	assert.NotContains(t, buf.String(), "debug message")

	logger.Warn().Msg("warn message")
	assert.Contains(t, buf.String(), "warn message")
}

func TestNewLoggerCappedByGlobalLevel(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel(), "package default")

	var buf bytes.Buffer
	logger := NewLoggerWithWriter("test", zerolog.DebugLevel, &buf)
	logger.Warn().Msg("below global")
	assert.Empty(t, buf.String())

	logger.Error().Msg("at global")
	assert.Contains(t, buf.String(), "at global")
}

func TestConfigureGlobalLogging_JSON(t *testing.T) {
	prevLogger, prevLevel, prevWriter := log.Logger, zerolog.GlobalLevel(), getLogWriter()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		SetLogWriter(prevWriter)
	})

	var buf bytes.Buffer
	SetLogWriter(&buf)
	require.NoError(t, ConfigureGlobalLogging("warn", FormatJSON))

	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestConfigureGlobalLogging_UnknownFormat(t *testing.T) {
	err := ConfigureGlobalLogging("info", "xml")
	require.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":      zerolog.ErrorLevel,
		"DEBUG": zerolog.DebugLevel,
		"warn":  zerolog.WarnLevel,
		"bogus": zerolog.ErrorLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), "input %q", in)
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	assert.Equal(t, "warn", LevelFromVerbosity("warn", 0))
	assert.Equal(t, "info", LevelFromVerbosity("warn", 1))
	assert.Equal(t, "debug", LevelFromVerbosity("warn", 2))
	assert.Equal(t, "trace", LevelFromVerbosity("warn", 10))
}

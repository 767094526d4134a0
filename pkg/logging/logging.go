// pkg/logging/logging.go
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats accepted by ConfigureGlobalLogging.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var (
	writerMu sync.RWMutex
	// logWriter stores the current log writer globally
	logWriter io.Writer = os.Stderr
)

// stdLogWriter forwards stdlib log output into zerolog at debug level.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	w.logger.Debug().Msg(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// init sets the global logging level for zerolog to ErrorLevel by default
func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}

// ConfigureGlobalLogging configures the global logger from config values.
// format is "text" (console) or "json".
func ConfigureGlobalLogging(levelStr, format string) error {
	level := parseLogLevel(levelStr)

	var w io.Writer
	switch strings.ToLower(format) {
	case "", FormatText:
		w = zerolog.ConsoleWriter{Out: getLogWriter(), TimeFormat: time.RFC3339}
	case FormatJSON:
		w = getLogWriter()
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", format)
	}

	ConfigureGlobalWithWriter(level, w)
	return nil
}

// ConfigureGlobal sets the global level and logger, writing to the configured writer.
func ConfigureGlobal(level zerolog.Level) {
	ConfigureGlobalWithWriter(level, getLogWriter())
}

// ConfigureGlobalWithWriter sets the global level and logger writing to w.
func ConfigureGlobalWithWriter(level zerolog.Level, w io.Writer) {
	zerolog.SetGlobalLevel(level)

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: log.Logger})
}

// NewLogger returns a logger tagged with component, writing to the configured writer.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	return NewLoggerWithWriter(component, level, getLogWriter())
}

// NewLoggerWithWriter returns a JSON logger tagged with component, writing to w.
// Events are still filtered by the zerolog global level, error until configured.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "error"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to error level.")
		return zerolog.ErrorLevel
	}
	return level
}

// LevelFromVerbosity maps repeated -v flags onto a level, starting from base.
func LevelFromVerbosity(base string, count int) string {
	level := parseLogLevel(base)
	for i := 0; i < count && level > zerolog.TraceLevel; i++ {
		level--
	}
	return level.String()
}

func getLogWriter() io.Writer {
	writerMu.RLock()
	defer writerMu.RUnlock()
	return logWriter
}

// SetLogWriter sets the global log writer
func SetLogWriter(w io.Writer) {
	writerMu.Lock()
	defer writerMu.Unlock()
	logWriter = w
}

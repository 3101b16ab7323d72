/*
Package logx provides a structured logging wrapper based on zerolog.

InitGlobalLogger picks the output format (console in development, JSON otherwise) and the
minimum level. The package helpers take key/value pairs; components derive tagged child
loggers with Component.
*/
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger initializes the global zerolog instance on stdout.
// level is a zerolog level name ("debug", "info", "warn", ...). An empty or unknown
// level selects debug in development and info otherwise.
func InitGlobalLogger(isDevelopment bool, level string) {
	initLogger(os.Stdout, isDevelopment, level)
}

func initLogger(out io.Writer, isDevelopment bool, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if isDevelopment {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).
		Level(parseLevel(level, isDevelopment)).
		With().
		Timestamp().
		Caller().
		Logger()
}

func parseLevel(level string, isDevelopment bool) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if parsed, err := zerolog.ParseLevel(name); err == nil && name != "" {
		return parsed
	}
	if isDevelopment {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// Logger returns a pointer to the global zerolog.Logger instance.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// Component returns a child of the global logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// checkFields drops an odd-length key/value list, which zerolog cannot pair, and warns about it.
func checkFields(level zerolog.Level, fields []any) []any {
	if len(fields)%2 == 0 {
		return fields
	}
	Logger().Warn().
		Int("fields_count", len(fields)).
		Str("log_level", level.String()).
		Msg("logx call received an odd number of fields; fields ignored")
	return nil
}

// emit writes msg at level from a caller two frames up (the exported helper's caller).
func emit(level zerolog.Level, err error, msg string, fields []any) {
	event := Logger().WithLevel(level)
	if err != nil {
		event = event.Err(err)
	}
	event.Fields(checkFields(level, fields)).
		CallerSkipFrame(2).
		Msg(msg)
}

// Info records a log message at the Info level.
func Info(msg string, fields ...any) {
	emit(zerolog.InfoLevel, nil, msg, fields)
}

// Warn records a log message at the Warn level.
func Warn(msg string, fields ...any) {
	emit(zerolog.WarnLevel, nil, msg, fields)
}

// Error records a log message at the Error level together with err.
func Error(err error, msg string, fields ...any) {
	emit(zerolog.ErrorLevel, err, msg, fields)
}

// Fatal records a log message at the Fatal level and then exits with status 1.
func Fatal(err error, msg string, fields ...any) {
	emit(zerolog.FatalLevel, err, msg, fields)
	os.Exit(1)
}

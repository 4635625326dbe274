package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog.Logger with convenience methods
type Logger struct {
	logger zerolog.Logger
}

// New creates a logger using the default level of env
func New(env string) *Logger {
	return NewWithLevel(env, "")
}

// NewWithLevel creates a logger for env; a non-empty level overrides the env-derived default.
// Development gets a colored console writer, every other env writes JSON lines.
func NewWithLevel(env, level string) *Logger {
	zerolog.SetGlobalLevel(levelFor(env, level))
	zerolog.TimeFieldFormat = time.RFC3339Nano

	l := zerolog.New(writerFor(env)).With().Timestamp().Str("env", env).Logger()
	if env == "development" {
		l = l.With().Caller().Logger()
	}
	return &Logger{logger: l}
}

func writerFor(env string) io.Writer {
	if env == "development" {
		return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}
	return os.Stdout
}

func levelFor(env, level string) zerolog.Level {
	if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
		return parsed
	}
	switch env {
	case "development":
		return zerolog.DebugLevel
	case "test":
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string) { l.logger.Debug().Msg(msg) }

func (l *Logger) Debugf(format string, v ...interface{}) { l.logger.Debug().Msgf(format, v...) }

func (l *Logger) Info(msg string) { l.logger.Info().Msg(msg) }

func (l *Logger) Infof(format string, v ...interface{}) { l.logger.Info().Msgf(format, v...) }

func (l *Logger) Warn(msg string) { l.logger.Warn().Msg(msg) }

func (l *Logger) Warnf(format string, v ...interface{}) { l.logger.Warn().Msgf(format, v...) }

// Error logs msg with err attached
func (l *Logger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

// Errorf logs a formatted message with err attached
func (l *Logger) Errorf(err error, format string, v ...interface{}) {
	l.logger.Error().Err(err).Msgf(format, v...)
}

// Fatal logs msg with err attached and exits the process
func (l *Logger) Fatal(msg string, err error) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// Printf logs at info level. It lets the logger stand in wherever a Printf-style logger is expected.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msg(fmt.Sprintf(format, v...))
}

// With returns a child logger carrying one extra field
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger carrying every field of fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{logger: l.logger.With().Fields(fields).Logger()}
}

// Component returns a child logger tagged with the emitting component
func (l *Logger) Component(name string) *Logger {
	return &Logger{logger: l.logger.With().Str("component", name).Logger()}
}

// SetGlobalLogger routes the zerolog global logger through l
func SetGlobalLogger(l *Logger) {
	log.Logger = l.logger
}

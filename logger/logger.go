// Package logger adapts zerolog to the devconnect Logger interface.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	devconnect "github.com/goliatone/go-devconnect"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// Logger wraps zerolog.Logger. Args are key/value pairs.
type Logger struct {
	logger zerolog.Logger
}

var _ devconnect.Logger = (*Logger)(nil)

// New creates a logger from cfg. Unknown levels fall back to info.
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case FormatConsole, FormatPretty:
		zl = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339})
	default:
		zl = zerolog.New(output)
	}

	return &Logger{
		logger: zl.Level(level).With().Timestamp().Logger(),
	}
}

// WithComponent returns a logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{logger: l.logger.With().Str("component", name).Logger()}
}

// GetLogger returns the underlying zerolog.Logger.
func (l *Logger) GetLogger() zerolog.Logger {
	return l.logger
}

func (l *Logger) Debug(msg string, args ...any) {
	addFields(l.logger.Debug(), args...).Msg(msg)
}

func (l *Logger) Info(msg string, args ...any) {
	addFields(l.logger.Info(), args...).Msg(msg)
}

func (l *Logger) Warn(msg string, args ...any) {
	addFields(l.logger.Warn(), args...).Msg(msg)
}

func (l *Logger) Error(msg string, args ...any) {
	addFields(l.logger.Error(), args...).Msg(msg)
}

func addFields(event *zerolog.Event, args ...any) *zerolog.Event {
	for i := 0; i < len(args); i += 2 {
		key := fmt.Sprint(args[i])
		if i+1 >= len(args) {
			event = event.Interface("arg", args[i])
			break
		}

		switch v := args[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		case string:
			event = event.Str(key, v)
		case fmt.Stringer:
			event = event.Stringer(key, v)
		default:
			event = event.Interface(key, v)
		}
	}
	return event
}

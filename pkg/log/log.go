package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, configured by Init.
var Logger zerolog.Logger

// Level represents a log verbosity level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the global logger. Call once at process startup,
// before any session is opened.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

func init() {
	// A sane default so packages that log before Init is called (e.g.
	// in unit tests) don't panic on a zero-value Logger.
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// WithComponent creates a child logger carrying a stable "component" field.
func WithComponent(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

// WithSession creates a child logger carrying a "session" field.
func WithSession(containerName string) zerolog.Logger {
	return Logger.With().Str("session", containerName).Logger()
}

// WithContainer creates a child logger carrying a "container" field,
// distinct from "session": a session spans the whole judging run, while
// the container field marks events scoped to one sandbox's lifecycle
// (create/stop), which may outlive or be recreated within a session.
func WithContainer(containerName string) zerolog.Logger {
	return Logger.With().Str("container", containerName).Logger()
}

// WithTestCase creates a child logger carrying a "test_case" field.
func WithTestCase(logger zerolog.Logger, testCase int) zerolog.Logger {
	return logger.With().Int("test_case", testCase).Logger()
}

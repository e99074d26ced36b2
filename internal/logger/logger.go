package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// The global logger is built at package init so component loggers
// derived before Initialize runs still write somewhere. Initialize only
// adjusts the global level, which zerolog applies to already-derived
// loggers too.
var logger = newLogger()

func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// Initialize sets up the global logger with the specified log level
func Initialize(logLevel string) {
	level := parseLogLevel(logLevel)
	zerolog.SetGlobalLevel(level)

	log.Logger = logger

	logger.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// Get returns the configured logger instance
func Get() zerolog.Logger {
	return logger
}

// GetForComponent returns a logger with a component field
func GetForComponent(component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FileWriter creates a logger that writes to both console and file
func FileWriter(filePath string) (zerolog.Logger, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return logger, err
	}

	consoleOutput := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}

	multiWriter := zerolog.MultiLevelWriter(consoleOutput, file)

	fileLogger := zerolog.New(multiWriter).
		With().
		Timestamp().
		Caller().
		Logger()

	return fileLogger, nil
}

func parseLogLevel(logLevel string) zerolog.Level {
	switch strings.ToLower(logLevel) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

package log

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger
var Logger zerolog.Logger

func init() {
	Setup(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}, zerolog.InfoLevel)
}

// Setup replaces the global logger with one writing to out at the given level
func Setup(out io.Writer, level zerolog.Level) {
	Logger = zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
	log.Logger = Logger
}

// SetLevel parses a level name ("debug", "info", "warn", "error"), falling back to info
func SetLevel(name string) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	Logger = Logger.Level(level)
	log.Logger = Logger
}

// SetDebugMode switches the logger to debug level
func SetDebugMode() {
	Logger = Logger.Level(zerolog.DebugLevel)
	log.Logger = Logger
}

func Info() *zerolog.Event {
	return Logger.Info()
}

func Error() *zerolog.Event {
	return Logger.Error()
}

func Warn() *zerolog.Event {
	return Logger.Warn()
}

func Debug() *zerolog.Event {
	return Logger.Debug()
}

// With returns a child logger carrying the component name
func With(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}

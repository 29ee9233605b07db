// pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance.
var Log zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	// Console output with color for local runs; Setup switches to JSON
	// in release mode.
	Log = newLogger(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	})
}

// Setup configures the global logger for the given server mode.
// Release mode emits plain JSON; anything else keeps the console
// writer and debug level.
func Setup(mode string) {
	if mode == "release" {
		Log = newLogger(os.Stdout)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	Log = Log.Level(zerolog.DebugLevel)
}

// SetLevel sets the log level by name, defaulting to info on bad input.
func SetLevel(levelStr string) {
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
}

func newLogger(out io.Writer) zerolog.Logger {
	return zerolog.New(out).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}

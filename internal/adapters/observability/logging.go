package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog Logger.
// APP_ENV=dev (or development) uses a human-friendly console writer.
// Level comes from LOG_LEVEL (default info).
func NewLogger(env string) zerolog.Logger {
	l := zerolog.New(os.Stdout).Level(parseLevel(os.Getenv("LOG_LEVEL"))).
		With().Timestamp().Logger()
	if env == "dev" || env == "development" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			Level(parseLevel(os.Getenv("LOG_LEVEL"))).
			With().Timestamp().Logger()
	}
	return l
}

func parseLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

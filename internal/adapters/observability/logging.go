package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide zerolog Logger. Dev environments get the
// console writer and debug level; everything else logs JSON at info.
func NewLogger(service, env string) zerolog.Logger {
	level := zerolog.InfoLevel
	out := zerolog.New(os.Stdout)
	if env == "dev" || env == "development" {
		level = zerolog.DebugLevel
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return out.Level(level).With().Timestamp().Str("service", service).Logger()
}

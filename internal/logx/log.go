package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the shared logger used throughout the device client.
var Log = log.Logger

// Configure sets the global log level and output format. Console output is
// human readable; JSON suits devices whose stderr is collected by journald
// or a log shipper.
func Configure(level string, json bool) {
	zerolog.SetGlobalLevel(parseLevel(level))
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if json {
		out = os.Stderr
	}
	Log = zerolog.New(out).With().Timestamp().Logger()
}

// parseLevel converts a string to a zerolog level.
// Accepts: all, trace, debug, info, warn, warning, error, fatal, none.
// Unknown values default to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "all", "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "none", "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func init() {
	Configure(os.Getenv("LOG_LEVEL"), strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"))
}

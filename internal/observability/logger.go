// Package observability configures the process-wide zerolog logger.
package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger sets the global logger level and destination.
// Console output goes to stderr so stdout stays clean for `view -o json`.
// If logFile is not empty, JSON lines are also appended to that file.
func InitLogger(level string, logFile string) {
	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02 15:04:05",
		},
	}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, using console only\n", logFile, err)
		} else {
			writers = append(writers, file)
		}
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	lvl := ParseLevel(level)
	zerolog.SetGlobalLevel(lvl)

	log.Debug().
		Str("level", lvl.String()).
		Str("file", logFile).
		Msg("logger initialized")
}

// ParseLevel maps a config string to a zerolog level. Unknown values mean info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

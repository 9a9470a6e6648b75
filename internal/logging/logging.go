package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options select how the global logger writes
type Options struct {
	Verbose bool
	// JSON writes raw zerolog events instead of the console format, for
	// replay transcripts that are diffed or piped.
	JSON bool
	// Out defaults to stderr.
	Out io.Writer
}

// Init initializes the global logger and returns it
func Init(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	zerolog.SetGlobalLevel(level)

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
		}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

// WithComponent creates a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

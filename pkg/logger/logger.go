// Package logger holds the process-wide zerolog logger.
//
// main calls Init once; everything else asks for Get or, better, a
// Component logger so entries can be filtered by subsystem.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the root logger.
type Options struct {
	// Level is trace, debug, info, warn or error. Anything else means info.
	Level string
	// Pretty switches to the coloured console writer for local runs.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service, when set, is stamped on every entry.
	Service string
}

var (
	mu   sync.RWMutex
	root *zerolog.Logger
)

// Init builds the root logger. Only the first call takes effect; later calls
// return the logger built by the first.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if root == nil {
		l := build(opts)
		root = &l
	}
	return *root
}

func build(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if opts.Output != nil {
		out = opts.Output
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}

	level := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	lc := zerolog.New(out).Level(level).With().Timestamp().Caller()
	if opts.Service != "" {
		lc = lc.Str("service", opts.Service)
	}
	return lc.Logger()
}

// Get returns the root logger. It panics before Init.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if root == nil {
		panic("logger: Get called before Init")
	}
	return *root
}

// Component returns the root logger with a "component" field.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the root logger so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	root = nil
	mu.Unlock()
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	switch level, err := zerolog.ParseLevel(s); {
	case err != nil, level > zerolog.ErrorLevel:
		return zerolog.InfoLevel
	default:
		return level
	}
}

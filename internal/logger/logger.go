// Package logger wraps zerolog with the defaults sqlshift uses on the command line.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Format names accepted by Options.Format.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures the logger.
type Options struct {
	Level  string
	Format string
	Writer io.Writer

	// NoColor disables ANSI colours in console output.
	NoColor bool
}

// Logger is the logging type used across the module.
type Logger = zerolog.Logger

var root atomic.Pointer[zerolog.Logger]

// New builds a logger from opts without touching the process-wide root.
// Logs go to stderr unless opts.Writer is set; stdout is reserved for reports.
func New(opt Options) (Logger, error) {
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.ToLower(opt.Format) != FormatJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: opt.NoColor}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Init replaces the process-wide root logger. The root is left untouched
// when opts are invalid.
func Init(opt Options) error {
	l, err := New(opt)
	if err != nil {
		return err
	}
	root.Store(&l)
	return nil
}

// Get returns the root logger, initialising a warn-level console logger on first use.
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	_ = Init(Options{Level: "warn", Format: FormatConsole})
	return root.Load()
}

// Named returns a child of the root logger tagged with a component name.
func Named(component string) Logger {
	return Get().With().Str("component", component).Logger()
}

// ParseLevel maps a level name to a zerolog level. An empty name means warn.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "", "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "disabled", "off", "none":
		return zerolog.Disabled, nil
	default:
		return zerolog.WarnLevel, fmt.Errorf("unknown log level %q (use trace, debug, info, warn, error or off)", s)
	}
}

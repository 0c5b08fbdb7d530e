package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ccollicutt/sqlshift/internal/logger"
	"github.com/ccollicutt/sqlshift/pkg/config"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	LogLevel  string
	LogFormat string
}

// initLogger resolves the logging settings (flag over config) and installs
// the root logger writing to w.
func initLogger(global *GlobalOptions, lc config.LoggingConfig, w io.Writer) (logger.Logger, error) {
	level, format := lc.Level, lc.Format
	if global != nil && global.LogLevel != "" {
		level = global.LogLevel
	}
	if global != nil && global.LogFormat != "" {
		format = global.LogFormat
	}
	if level == "" {
		level = config.DefaultLogLevel
	}

	err := logger.Init(logger.Options{
		Level:   level,
		Format:  format,
		Writer:  w,
		NoColor: !isTerminal(w),
	})
	if err != nil {
		return logger.Logger{}, fmt.Errorf("--log-level: %w", err)
	}
	return *logger.Get(), nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

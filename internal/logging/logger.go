// Package logging provides structured logging using bolt.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/felixgeelhaar/bolt/v3"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config configures a logger.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string

	// Format is the output format (console or json).
	Format string

	// Output is the destination. Stderr when nil.
	Output io.Writer
}

// DefaultConfig returns console logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatConsole,
		Output: os.Stderr,
	}
}

// ParseLevel converts a level name to a bolt level.
func ParseLevel(s string) (bolt.Level, error) {
	switch strings.ToLower(s) {
	case "trace":
		return bolt.TRACE, nil
	case "debug":
		return bolt.DEBUG, nil
	case "info", "":
		return bolt.INFO, nil
	case "warn", "warning":
		return bolt.WARN, nil
	case "error":
		return bolt.ERROR, nil
	default:
		return bolt.INFO, fmt.Errorf("unknown log level %q", s)
	}
}

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg Config) *bolt.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler bolt.Handler
	if cfg.Format == FormatJSON {
		handler = bolt.NewJSONHandler(output)
	} else {
		handler = bolt.NewConsoleHandler(output)
	}

	level, _ := ParseLevel(cfg.Level)
	return bolt.New(handler).SetLevel(level)
}

// Discard returns a logger that drops everything.
func Discard() *bolt.Logger {
	return bolt.New(bolt.NewJSONHandler(io.Discard)).SetLevel(bolt.ERROR)
}

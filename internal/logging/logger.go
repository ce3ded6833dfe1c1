// Package logging provides the leveled stderr logger used across envsync.
// Every message is passed through the scrubber after formatting, so no call
// site can leak a secret into the terminal even by mistake.
package logging

import (
	"fmt"
	"os"

	"github.com/systmms/envsync/internal/scrub"
)

// Logger writes leveled, scrubbed messages to stderr.
type Logger struct {
	debug    bool
	noColor  bool
	scrubber *scrub.Scrubber
}

// New creates a logger. A nil scrubber gets a default one; there is no
// unscrubbed configuration.
func New(debug, noColor bool, scrubber *scrub.Scrubber) *Logger {
	if scrubber == nil {
		scrubber = scrub.New(scrub.Options{})
	}
	return &Logger{
		debug:    debug,
		noColor:  noColor,
		scrubber: scrubber,
	}
}

// Scrubber returns the scrubber this logger filters through, for callers
// that render their own output (tables, action lists).
func (l *Logger) Scrubber() *scrub.Scrubber {
	return l.scrubber
}

// WithScrubber returns a logger identical to l but filtering through the
// given scrubber. Used once config-supplied whitelist extensions are known.
func (l *Logger) WithScrubber(scrubber *scrub.Scrubber) *Logger {
	if scrubber == nil {
		return l
	}
	return &Logger{debug: l.debug, noColor: l.noColor, scrubber: scrubber}
}

func (l *Logger) emit(colorPrefix, plainPrefix, format string, args ...interface{}) {
	msg := l.scrubber.RedactText(fmt.Sprintf(format, args...))
	if !l.noColor {
		fmt.Fprintf(os.Stderr, "%s %s\n", colorPrefix, msg)
	} else {
		fmt.Fprintf(os.Stderr, "%s %s\n", plainPrefix, msg)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m✓\033[0m", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m⚠\033[0m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args...)
}

// Debug logs a debug message if debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args...)
}

// Secret represents a value that must be redacted wherever it is formatted.
type Secret string

// String implements the Stringer interface, always returning a redacted value.
func (s Secret) String() string {
	return scrub.Redacted
}

// GoString implements the GoStringer interface for %#v formatting.
func (s Secret) GoString() string {
	return scrub.Redacted
}

// Package stdlogger bridges libraries that log through the standard library
// logger, like go-ldap, onto the global zerolog logger.
package stdlogger

import (
	stdlog "log"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Writer forwards every line it receives as one zerolog event.
type Writer struct {
	Component string
	Level     zerolog.Level
}

// Write implements io.Writer.
func (w Writer) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		log.WithLevel(w.Level).Str("component", w.Component).Msg(msg)
	}

	return len(p), nil
}

// New returns a standard library logger writing into zerolog at level.
func New(component string, level zerolog.Level) *stdlog.Logger {
	return stdlog.New(Writer{Component: component, Level: level}, "", 0)
}

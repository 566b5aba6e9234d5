// Package log configures the logrus logger used by the raug command.
package log

import (
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var debug bool

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("RAUG_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance writing to stderr.
func GetLogger() *logrus.Logger {
	return New(os.Stderr)
}

// New returns a logger writing to w. Output that is not a terminal is
// formatted as JSON.
func New(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	if !terminal(w) {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

func terminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

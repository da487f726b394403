// Package monitoring holds the process-wide diagnostic logger indirection so
// the flow pipelines and API handlers log through one seam that tests can
// mute or capture.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture installs a logger that appends formatted messages to sink and
// returns a restore function. Intended for tests asserting on log output.
func Capture(sink *[]string) (restore func()) {
	prev := Logf
	Logf = func(format string, v ...interface{}) {
		*sink = append(*sink, fmt.Sprintf(format, v...))
	}
	return func() { Logf = prev }
}

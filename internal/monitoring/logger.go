// Package monitoring holds the diagnostic logging hook shared by the wait-time
// packages and a log-backed sink for track events.
package monitoring

import "log"

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

// Verbosef logs only when Verbose is set. The frame loop uses it for the
// per-observation chatter that is too noisy for normal runs.
func Verbosef(format string, v ...interface{}) {
	if Verbose {
		Logf(format, v...)
	}
}

// Verbose enables Verbosef output.
var Verbose bool

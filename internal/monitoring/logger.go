// Package monitoring holds the process-wide diagnostic logger used by
// the analysis packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to
// log.Printf but may be replaced with SetLogger; tests typically mute
// it, batch jobs redirect it to their own sink.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Mute silences the package logger and returns a function restoring
// the previous one. Intended for tests.
func Mute() func() {
	prev := Logf
	Logf = func(string, ...interface{}) {}
	return func() { Logf = prev }
}

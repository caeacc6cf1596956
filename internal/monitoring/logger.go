// Package monitoring holds the converter's diagnostic logging and batch
// progress reporting.
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

// Warnf logs a recoverable problem: a skipped file, a failed recording or
// suspicious data that was still converted.
func Warnf(format string, v ...interface{}) {
	Logf("WARNING: "+format, v...)
}

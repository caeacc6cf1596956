// Package output serializes normalized recordings, one file per recording.
package output

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedFormat is returned by ParseFormat for unknown format names.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format is a delimited-text output format.
type Format string

const (
	CSV Format = "csv"
	TSV Format = "tsv"
)

// ValidFormats lists the accepted format names.
var ValidFormats = []Format{CSV, TSV}

// ParseFormat resolves a format name, case-insensitively. It is meant to be
// called before any conversion work starts.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ValidFormats {
		if f == v {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (want csv or tsv)", ErrUnsupportedFormat, s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return "." + string(f) }

// Delimiter returns the field separator.
func (f Format) Delimiter() rune {
	if f == TSV {
		return '\t'
	}
	return ','
}

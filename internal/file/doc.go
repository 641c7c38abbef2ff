// Package file defines the versioned representation of a stored file.
//
// A Record carries content as either a UTF-8 string or a base64 string,
// tagged by Encoding, plus creation and modification timestamps. The
// codec guarantees a lossless round-trip for arbitrary bytes: anything
// that is valid UTF-8 is stored as text, everything else as base64.
//
// Older deployments stored content as an ordered list of line strings
// with no encoding tag. Every unmarshal path accepts that shape
// transparently (lines joined with "\n") and marks the record as legacy
// so callers can emit a deprecation event. New writes always produce
// the unified shape unless a backend is explicitly configured to
// preserve the legacy one.
package file

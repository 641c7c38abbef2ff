package backend

import (
	"errors"
	"fmt"
)

// Kind classifies a contract failure. Every backend returns the same
// kinds for the same situations so callers never need substrate
// detail.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindAmbiguousMatch
	KindPermissionDenied
	KindInvalidPath
	KindSubstrate
	KindMalformedPattern
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindAmbiguousMatch:
		return "ambiguous_match"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidPath:
		return "invalid_path"
	case KindSubstrate:
		return "substrate"
	case KindMalformedPattern:
		return "malformed_pattern"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// Error is a typed contract failure. Message phrasing is part of the
// contract where callers pattern-match on substrings.
type Error struct {
	Kind    Kind
	Path    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match on another *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsKind reports whether err is a contract error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// KindOf returns the kind of a contract error, or 0 for other errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// NotFound reports a missing file.
func NotFound(path string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Path:    path,
		Message: fmt.Sprintf("File not found: %s", path),
	}
}

// NoMatch reports an edit whose old string does not occur in the file.
func NoMatch(path, old string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Path:    path,
		Message: fmt.Sprintf("String not found in %s: %q", path, clip(old)),
	}
}

// AlreadyExists reports a create-only write against an existing path.
func AlreadyExists(path string) *Error {
	return &Error{
		Kind:    KindAlreadyExists,
		Path:    path,
		Message: fmt.Sprintf("File already exists: %s", path),
	}
}

// Ambiguous reports an edit target occurring more than once without
// replace-all. The "appears N times" phrasing is load-bearing.
func Ambiguous(path, old string, count int) *Error {
	return &Error{
		Kind:    KindAmbiguousMatch,
		Path:    path,
		Message: fmt.Sprintf("String %q appears %d times in %s; set replace_all to replace every occurrence", clip(old), count, path),
	}
}

// PermissionDenied reports a substrate-level access failure.
func PermissionDenied(path string) *Error {
	return &Error{
		Kind:    KindPermissionDenied,
		Path:    path,
		Message: fmt.Sprintf("Permission denied: %s", path),
	}
}

// InvalidPath reports a path outside the allowed boundary or a
// malformed namespace variable.
func InvalidPath(path, reason string) *Error {
	return &Error{
		Kind:    KindInvalidPath,
		Path:    path,
		Message: fmt.Sprintf("Invalid path %s: %s", path, reason),
	}
}

// InvalidArgument reports an operation input that is invalid
// regardless of which path it targets, e.g. an empty edit target.
func InvalidArgument(reason string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Message: fmt.Sprintf("Invalid argument: %s", reason),
	}
}

// Substratef reports a failure of the underlying substrate (store
// driver error, execute primitive failure or timeout).
func Substratef(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindSubstrate,
		Message: fmt.Sprintf(format, args...),
	}
}

// MalformedPattern reports an invalid grep or glob pattern. The
// message is the descriptive string the tool layer renders.
func MalformedPattern(pattern, detail string) *Error {
	return &Error{
		Kind:    KindMalformedPattern,
		Message: fmt.Sprintf("Invalid pattern %q: %s", pattern, detail),
	}
}

// clip keeps error messages readable when the edit target is large.
func clip(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

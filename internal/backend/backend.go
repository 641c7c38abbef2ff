package backend

import (
	"context"
	"time"
)

const (
	// DefaultReadLimit is the number of lines Read returns when the
	// caller passes limit <= 0.
	DefaultReadLimit = 2000

	// MaxLineLength is the display cap per line; longer lines are
	// truncated with a marker.
	MaxLineLength = 2000
)

// EmptyFileMessage is the sentinel Read returns for a file that exists
// but has no content. Callers pattern-match on this exact phrasing.
const EmptyFileMessage = "File exists but has empty contents"

// Entry is one list or glob result. Size and ModifiedAt are optional;
// substrates that cannot report them cheaply leave them zero.
type Entry struct {
	Path       string     `json:"path"`
	IsDir      bool       `json:"is_dir"`
	Size       int64      `json:"size,omitempty"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

// Match is one matching line from Grep.
type Match struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Text string `json:"text"`
}

// Backend is the uniform file-operation contract. Implementations must
// behave identically regardless of where the files actually live.
type Backend interface {
	// List returns the non-recursive children of path. A missing or
	// empty directory yields an empty slice, not an error.
	List(ctx context.Context, path string) ([]Entry, error)

	// Read returns up to limit lines starting at 0-indexed line
	// offset, each prefixed with a right-aligned 6-column line number
	// and a tab. Lines longer than MaxLineLength are truncated with a
	// marker. An empty file yields EmptyFileMessage.
	Read(ctx context.Context, path string, offset, limit int) (string, error)

	// Write creates a new file and returns its path. Writing to an
	// existing path fails with KindAlreadyExists and never mutates the
	// existing record. Parent directories are implicit.
	Write(ctx context.Context, path, content string) (string, error)

	// Edit replaces the exact substring old with new and returns the
	// occurrence count. Zero occurrences is KindNotFound; more than
	// one without replaceAll is KindAmbiguousMatch. Occurrences are
	// counted before replacement; text introduced by new is never
	// rescanned.
	Edit(ctx context.Context, path, old, new string, replaceAll bool) (int, error)

	// Grep returns one Match per line matching pattern across files
	// under path (default: everything), optionally restricted to
	// paths matching glob.
	Grep(ctx context.Context, pattern, path, glob string) ([]Match, error)

	// Glob returns entries matching pattern (doublestar semantics,
	// including **) rooted at path.
	Glob(ctx context.Context, pattern, path string) ([]Entry, error)
}

// RawReader is an optional interface for backends that can hand out a
// file's exact bytes, bypassing Read's line formatting. The HTTP
// download surface uses it.
type RawReader interface {
	Raw(ctx context.Context, path string) ([]byte, error)
}

package backend

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// TreeFile is the substrate-independent view of one file that the
// shared list/grep/glob helpers operate on. The in-memory and store
// backends both project their records into it so the three operations
// behave identically.
type TreeFile struct {
	Text       string
	Size       int64
	ModifiedAt time.Time
}

// ListTree returns the non-recursive children of dir, synthesizing
// directory entries from path prefixes. Missing or empty directories
// yield an empty slice.
func ListTree(files map[string]TreeFile, dir string) []Entry {
	prefix := childPrefix(dir)

	seen := make(map[string]bool)
	entries := []Entry{}
	for p, f := range files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rel := p[len(prefix):]
		if rel == "" {
			continue
		}
		seg, _, nested := strings.Cut(rel, "/")
		child := prefix + seg
		if seen[child] {
			continue
		}
		if nested {
			seen[child] = true
			entries = append(entries, Entry{Path: child, IsDir: true})
			continue
		}
		seen[child] = true
		mod := f.ModifiedAt
		entries = append(entries, Entry{Path: child, IsDir: false, Size: f.Size, ModifiedAt: &mod})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// GrepTree returns one Match per line matching pattern across files
// under root, optionally filtered by a doublestar glob on the path
// relative to root.
func GrepTree(files map[string]TreeFile, pattern, root, glob string) ([]Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, MalformedPattern(pattern, err.Error())
	}
	if glob != "" {
		if !doublestar.ValidatePattern(glob) {
			return nil, MalformedPattern(glob, "invalid glob filter")
		}
	}
	prefix := childPrefix(root)

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	matches := []Match{}
	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rel := p[len(prefix):]
		if glob != "" {
			ok, _ := doublestar.Match(glob, rel)
			if !ok {
				continue
			}
		}
		for i, line := range SplitLines(files[p].Text) {
			if re.MatchString(line) {
				matches = append(matches, Match{Path: p, Line: i + 1, Text: line})
			}
		}
	}
	return matches, nil
}

// GlobTree returns files and implied directories under root whose
// relative path matches pattern, ** included.
func GlobTree(files map[string]TreeFile, pattern, root string) ([]Entry, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, MalformedPattern(pattern, "invalid glob pattern")
	}
	prefix := childPrefix(root)

	dirs := make(map[string]bool)
	filePaths := make([]string, 0, len(files))
	for p := range files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		filePaths = append(filePaths, p)
		// every ancestor between root and the file is an implicit dir
		rel := p[len(prefix):]
		for {
			i := strings.LastIndex(rel, "/")
			if i <= 0 {
				break
			}
			rel = rel[:i]
			dirs[prefix+rel] = true
		}
	}
	sort.Strings(filePaths)

	entries := []Entry{}
	for d := range dirs {
		ok, _ := doublestar.Match(pattern, d[len(prefix):])
		if ok {
			entries = append(entries, Entry{Path: d, IsDir: true})
		}
	}
	for _, p := range filePaths {
		ok, _ := doublestar.Match(pattern, p[len(prefix):])
		if ok {
			entries = append(entries, Entry{Path: p, IsDir: false})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// childPrefix converts a directory path to the prefix its children
// share: "/" stays "/", "/a" becomes "/a/".
func childPrefix(dir string) string {
	dir = CleanPath(dir)
	if dir == "/" {
		return "/"
	}
	return dir + "/"
}

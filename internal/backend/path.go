package backend

import (
	"path"
	"strings"
)

// CleanPath normalizes a contract path to an absolute, slash-separated
// form. Relative input is anchored at the root; "." and ".." segments
// are resolved (".." cannot climb above "/").
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// ValidatePath rejects paths no substrate can represent.
func ValidatePath(p string) error {
	if strings.ContainsRune(p, 0) {
		return InvalidPath(p, "contains NUL byte")
	}
	return nil
}

package backend

import "strings"

// EditText applies the contract's exact-substring replacement to text.
// It returns the edited text and the occurrence count, or a typed
// error: NoMatch when old does not occur, Ambiguous when it occurs
// more than once without replaceAll.
//
// Occurrences are counted on the original text, left to right and
// non-overlapping. Text introduced by new is never rescanned, so
// replacements cannot cascade.
func EditText(path, text, old, new string, replaceAll bool) (string, int, error) {
	if old == "" {
		return "", 0, InvalidArgument("edit target must not be empty")
	}
	count := strings.Count(text, old)
	if count == 0 {
		return "", 0, NoMatch(path, old)
	}
	if count > 1 && !replaceAll {
		return "", 0, Ambiguous(path, old, count)
	}
	return strings.ReplaceAll(text, old, new), count, nil
}

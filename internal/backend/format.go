package backend

import (
	"fmt"
	"strings"
)

const truncatedMarker = "... [line truncated]"

// SplitLines splits content for display. A trailing newline does not
// produce a phantom empty last line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// NumberLines renders lines with the contract's read formatting: a
// right-aligned 6-column 1-indexed line number, a tab, then the line,
// truncated at MaxLineLength with a marker. start is the 1-indexed
// number of the first line.
func NumberLines(lines []string, start int) string {
	var b strings.Builder
	for i, line := range lines {
		if len(line) > MaxLineLength {
			line = line[:MaxLineLength] + truncatedMarker
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%6d\t%s", start+i, line)
	}
	return b.String()
}

// FormatRead renders a read of full content at the given offset and
// limit. offset is 0-indexed; limit <= 0 means DefaultReadLimit.
// Callers handle the empty-file sentinel before calling this.
func FormatRead(content string, offset, limit int) string {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultReadLimit
	}
	lines := SplitLines(content)
	if offset >= len(lines) {
		return ""
	}
	end := offset + limit
	if end > len(lines) {
		end = len(lines)
	}
	return NumberLines(lines[offset:end], offset+1)
}

package backend

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorPhrasing(t *testing.T) {
	assert.Equal(t, "File not found: /a/b", NotFound("/a/b").Error())
	assert.Equal(t, "File already exists: /a/b", AlreadyExists("/a/b").Error())
	assert.Contains(t, Ambiguous("/a", "x", 3).Error(), "appears 3 times")
	assert.Equal(t, "Permission denied: /a", PermissionDenied("/a").Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("/x")))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("op failed: %w", AlreadyExists("/x"))
	assert.Equal(t, KindAlreadyExists, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindAlreadyExists))
}

func TestErrorsIsMatchesKind(t *testing.T) {
	assert.True(t, errors.Is(NotFound("/a"), NotFound("/b")))
	assert.False(t, errors.Is(NotFound("/a"), AlreadyExists("/a")))
}

func TestClipLongTarget(t *testing.T) {
	long := strings.Repeat("z", 200)
	msg := NoMatch("/f", long).Error()
	assert.Contains(t, msg, "...")
	assert.Less(t, len(msg), 200)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "malformed_pattern", KindMalformedPattern.String())
	assert.Equal(t, "invalid_argument", KindInvalidArgument.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

package store

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/fileplane/fileplane/internal/backend"
)

var (
	segmentPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	placeholderPattern = regexp.MustCompile(`^\{[A-Za-z0-9_]+\}$`)
)

// Template is an ordered namespace prefix: literal segments plus
// {placeholder} variables resolved from caller context. Segments are
// restricted to an identifier-like alphabet so a resolved namespace
// can never smuggle separators or wildcards into the store.
type Template struct {
	segments []string
}

// NewTemplate validates the segments and builds a template.
func NewTemplate(segments ...string) (Template, error) {
	err := validation.Validate(segments,
		validation.Required.Error("namespace template must have at least one segment"),
		validation.Each(validation.Required, validation.By(checkSegment)),
	)
	if err != nil {
		return Template{}, fmt.Errorf("invalid namespace template: %w", err)
	}
	return Template{segments: append([]string(nil), segments...)}, nil
}

func checkSegment(value interface{}) error {
	s, _ := value.(string)
	if segmentPattern.MatchString(s) || placeholderPattern.MatchString(s) {
		return nil
	}
	return fmt.Errorf("segment %q must match %s or be a {placeholder}", s, segmentPattern)
}

// Resolve substitutes every placeholder from vars and joins the
// namespace. A missing variable is a hard configuration error, never a
// silent default; substituted values must satisfy the same segment
// alphabet as literals.
func (t Template) Resolve(vars map[string]string) (string, error) {
	resolved := make([]string, 0, len(t.segments))
	for _, seg := range t.segments {
		if !placeholderPattern.MatchString(seg) {
			resolved = append(resolved, seg)
			continue
		}
		name := seg[1 : len(seg)-1]
		value, ok := vars[name]
		if !ok {
			return "", backend.InvalidPath(seg, fmt.Sprintf("namespace variable %q not provided", name))
		}
		if !segmentPattern.MatchString(value) {
			return "", backend.InvalidPath(seg, fmt.Sprintf("namespace variable %q has invalid value %q", name, value))
		}
		resolved = append(resolved, value)
	}
	return strings.Join(resolved, "/"), nil
}

// String renders the unresolved template for logs.
func (t Template) String() string {
	return strings.Join(t.segments, "/")
}

package sandbox

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileplane/fileplane/internal/backend"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh on this host")
	}
}

func TestLocalExecutorExitCode(t *testing.T) {
	requireShell(t)
	e := NewLocalExecutor()

	res, err := e.Execute(context.Background(), "exit 17")
	require.NoError(t, err)
	assert.Equal(t, 17, res.ExitCode)
}

func TestLocalExecutorOutput(t *testing.T) {
	requireShell(t)
	e := NewLocalExecutor()

	res, err := e.Execute(context.Background(), "printf 'hello'")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Output)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Truncated)
}

func TestLocalExecutorTruncation(t *testing.T) {
	requireShell(t)
	e := NewLocalExecutor(WithMaxOutput(4))

	res, err := e.Execute(context.Background(), "printf 'abcdefgh'")
	require.NoError(t, err)
	assert.Equal(t, "abcd", res.Output)
	assert.True(t, res.Truncated)
}

// The round-trip below exercises the synthesized scripts against a real
// shell, confined to a temp directory.
func TestLocalSandboxRoundTrip(t *testing.T) {
	requireShell(t)
	s := New(NewLocalExecutor(), WithRoot(t.TempDir()))
	ctx := context.Background()

	path, err := s.Write(ctx, "/dir/f.txt", "alpha\nbeta\n")
	require.NoError(t, err)
	assert.Equal(t, "/dir/f.txt", path)

	_, err = s.Write(ctx, "/dir/f.txt", "other")
	require.Error(t, err)
	assert.Equal(t, "File already exists: /dir/f.txt", err.Error())

	got, err := s.Read(ctx, "/dir/f.txt", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "     1\talpha\n     2\tbeta", got)

	count, err := s.Edit(ctx, "/dir/f.txt", "beta", "gamma", false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err = s.Read(ctx, "/dir/f.txt", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "     2\tgamma", got)

	entries, err := s.List(ctx, "/")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, backend.Entry{Path: "/dir", IsDir: true}, entries[0])

	data, err := s.Raw(ctx, "/dir/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha\ngamma\n", string(data))
}

func TestLocalSandboxEditPreservesNoTrailingNewline(t *testing.T) {
	requireShell(t)
	s := New(NewLocalExecutor(), WithRoot(t.TempDir()))
	ctx := context.Background()

	_, err := s.Write(ctx, "/f", "no trailing newline")
	require.NoError(t, err)

	_, err = s.Edit(ctx, "/f", "trailing", "final", false)
	require.NoError(t, err)

	data, err := s.Raw(ctx, "/f")
	require.NoError(t, err)
	assert.Equal(t, "no final newline", string(data))
}

func TestLocalSandboxReadBeyondOutputCapFails(t *testing.T) {
	requireShell(t)
	s := New(NewLocalExecutor(WithMaxOutput(32)), WithRoot(t.TempDir()))
	ctx := context.Background()

	content := strings.Repeat("0123456789\n", 20)
	_, err := s.Write(ctx, "/big.txt", content)
	require.NoError(t, err)

	// a shortened file must never come back as a successful read
	_, err = s.Read(ctx, "/big.txt", 0, 0)
	require.Error(t, err)
	assert.True(t, backend.IsKind(err, backend.KindSubstrate))
	assert.Contains(t, err.Error(), "truncated")
}

func TestLocalSandboxEditAmbiguous(t *testing.T) {
	requireShell(t)
	s := New(NewLocalExecutor(), WithRoot(t.TempDir()))
	ctx := context.Background()

	_, err := s.Write(ctx, "/f", "foo bar foo")
	require.NoError(t, err)

	_, err = s.Edit(ctx, "/f", "foo", "qux", false)
	require.True(t, backend.IsKind(err, backend.KindAmbiguousMatch))
	assert.Contains(t, err.Error(), "appears 2 times")

	// file unchanged after the ambiguity error
	data, err := s.Raw(ctx, "/f")
	require.NoError(t, err)
	assert.Equal(t, "foo bar foo", string(data))

	count, err := s.Edit(ctx, "/f", "foo", "qux", true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLocalSandboxGrep(t *testing.T) {
	requireShell(t)
	s := New(NewLocalExecutor(), WithRoot(t.TempDir()))
	ctx := context.Background()

	_, err := s.Write(ctx, "/src/a.go", "package a\n// needle\n")
	require.NoError(t, err)
	_, err = s.Write(ctx, "/docs/b.md", "needle in docs\n")
	require.NoError(t, err)

	matches, err := s.Grep(ctx, "needle", "/", "**/*.go")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, backend.Match{Path: "/src/a.go", Line: 2, Text: "// needle"}, matches[0])
}

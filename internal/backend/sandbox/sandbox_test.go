package sandbox

import (
	"context"
	"encoding/base64"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fileplane/fileplane/internal/backend"
)

// scriptedExecutor replays canned results and records every command.
type scriptedExecutor struct {
	results  []Result
	err      error
	commands []string
}

func (e *scriptedExecutor) Execute(ctx context.Context, command string) (Result, error) {
	e.commands = append(e.commands, command)
	if e.err != nil {
		return Result{}, e.err
	}
	if len(e.results) == 0 {
		return Result{}, nil
	}
	res := e.results[0]
	e.results = e.results[1:]
	return res, nil
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, quote("plain"))
	assert.Equal(t, `'it'\''s'`, quote("it's"))
	assert.Equal(t, `'$HOME; rm -rf /'`, quote("$HOME; rm -rf /"))
}

func TestWriteEmbedsContentAsBase64(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: 0}}}
	s := New(exec)

	content := "dangerous $(rm -rf /) `backtick`"
	path, err := s.Write(context.Background(), "/f.txt", content)
	require.NoError(t, err)
	assert.Equal(t, "/f.txt", path)

	require.Len(t, exec.commands, 1)
	cmd := exec.commands[0]
	assert.NotContains(t, cmd, "rm -rf")
	assert.Contains(t, cmd, base64.StdEncoding.EncodeToString([]byte(content)))
	assert.Contains(t, cmd, "base64 -d")
}

func TestWriteQuotesPath(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: 0}}}
	s := New(exec)

	_, err := s.Write(context.Background(), "/dir/o'brien.txt", "x")
	require.NoError(t, err)
	assert.Contains(t, exec.commands[0], `'/dir/o'\''brien.txt'`)
}

func TestWriteExistingMapsExitCode(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: exitExists}}}
	s := New(exec)

	_, err := s.Write(context.Background(), "/f", "x")
	require.Error(t, err)
	assert.Equal(t, "File already exists: /f", err.Error())
	assert.True(t, backend.IsKind(err, backend.KindAlreadyExists))
}

func TestWriteRootConfinement(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: 0}}}
	s := New(exec, WithRoot("/srv/jail/"))

	_, err := s.Write(context.Background(), "/../../etc/passwd", "x")
	require.NoError(t, err)
	assert.Contains(t, exec.commands[0], "'/srv/jail/etc/passwd'")
}

func TestReadFormatsRemoteSlice(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "alpha\nbeta\n", ExitCode: 0}}}
	s := New(exec)

	got, err := s.Read(context.Background(), "/f", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "     1\talpha\n     2\tbeta", got)
	assert.Contains(t, exec.commands[0], "sed -n '1,2000p'")
}

func TestReadOffsetNumbersFromOffset(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "line six\n", ExitCode: 0}}}
	s := New(exec)

	got, err := s.Read(context.Background(), "/f", 5, 1)
	require.NoError(t, err)
	assert.Equal(t, "     6\tline six", got)
	assert.Contains(t, exec.commands[0], "sed -n '6,6p'")
}

func TestReadTruncatedOutputIsError(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "partial", ExitCode: 0, Truncated: true}}}
	s := New(exec)

	_, err := s.Read(context.Background(), "/big.txt", 0, 0)
	require.Error(t, err)
	assert.True(t, backend.IsKind(err, backend.KindSubstrate))
	assert.Contains(t, err.Error(), "truncated")
}

func TestGrepTruncatedOutputIsError(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "./a:1:partial", ExitCode: 0, Truncated: true}}}
	s := New(exec)

	_, err := s.Grep(context.Background(), "partial", "/", "")
	require.Error(t, err)
	assert.True(t, backend.IsKind(err, backend.KindSubstrate))
}

func TestReadHugeLimitClampsSedRange(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "x\n", ExitCode: 0}}}
	s := New(exec)

	_, err := s.Read(context.Background(), "/f", 0, math.MaxInt)
	require.NoError(t, err)
	assert.Contains(t, exec.commands[0], "sed -n '1,2147483647p'")
	assert.NotContains(t, exec.commands[0], ",-")
}

func TestReadHugeOffsetClampsSedRange(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: 0}}}
	s := New(exec)

	_, err := s.Read(context.Background(), "/f", math.MaxInt, math.MaxInt)
	require.NoError(t, err)
	assert.Contains(t, exec.commands[0], "sed -n '2147483647,2147483647p'")
}

func TestReadMissing(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: exitMissing}}}
	s := New(exec)

	_, err := s.Read(context.Background(), "/nope", 0, 0)
	require.Error(t, err)
	assert.Equal(t, "File not found: /nope", err.Error())
}

func TestReadEmptySentinel(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: exitEmpty}}}
	s := New(exec)

	got, err := s.Read(context.Background(), "/empty", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, backend.EmptyFileMessage, got)
}

func TestReadPermissionDenied(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "sh: /f: Permission denied", ExitCode: 2}}}
	s := New(exec)

	_, err := s.Read(context.Background(), "/f", 0, 0)
	assert.True(t, backend.IsKind(err, backend.KindPermissionDenied))
}

func TestExecutorFailureIsSubstrate(t *testing.T) {
	exec := &scriptedExecutor{err: errors.New("connection reset")}
	s := New(exec)

	_, err := s.Read(context.Background(), "/f", 0, 0)
	require.Error(t, err)
	assert.True(t, backend.IsKind(err, backend.KindSubstrate))
}

func TestListParsesEntries(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{
		Output:   "f\t./b.txt\nd\t./sub\nf\t./a.txt\n",
		ExitCode: 0,
	}}}
	s := New(exec)

	entries, err := s.List(context.Background(), "/dir")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, backend.Entry{Path: "/dir/a.txt", IsDir: false}, entries[0])
	assert.Equal(t, backend.Entry{Path: "/dir/b.txt", IsDir: false}, entries[1])
	assert.Equal(t, backend.Entry{Path: "/dir/sub", IsDir: true}, entries[2])
}

func TestListEmptyOutput(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: 0}}}
	s := New(exec)

	entries, err := s.List(context.Background(), "/missing")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestEditEmbedsOperandsAsBase64(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "1\n", ExitCode: 0}}}
	s := New(exec)

	count, err := s.Edit(context.Background(), "/f", "old $(danger)", "new", false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cmd := exec.commands[0]
	assert.NotContains(t, cmd, "$(danger)")
	assert.Contains(t, cmd, base64.StdEncoding.EncodeToString([]byte("old $(danger)")))
	assert.Contains(t, cmd, "awk")
	assert.Contains(t, cmd, `mv "$t/out" "$p"`)
}

func TestEditNoMatch(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: exitNoMatch}}}
	s := New(exec)

	_, err := s.Edit(context.Background(), "/f", "absent", "x", false)
	assert.True(t, backend.IsKind(err, backend.KindNotFound))
	assert.Contains(t, err.Error(), "String not found")
}

func TestEditAmbiguousReportsCount(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "3\n", ExitCode: exitAmbiguous}}}
	s := New(exec)

	_, err := s.Edit(context.Background(), "/f", "dup", "x", false)
	require.True(t, backend.IsKind(err, backend.KindAmbiguousMatch))
	assert.Contains(t, err.Error(), "appears 3 times")
}

func TestEditMissingFile(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: exitMissing}}}
	s := New(exec)

	_, err := s.Edit(context.Background(), "/nope", "a", "b", false)
	assert.Equal(t, "File not found: /nope", err.Error())
}

func TestEditEmptyOldRejectedLocally(t *testing.T) {
	exec := &scriptedExecutor{}
	s := New(exec)

	_, err := s.Edit(context.Background(), "/f", "", "x", false)
	assert.True(t, backend.IsKind(err, backend.KindInvalidArgument))
	assert.Empty(t, exec.commands)
}

func TestGrepParsesMatches(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{
		Output:   "./a.go:3:needle here\n./sub/b.go:1:needle too\nnoise without separators\n",
		ExitCode: 0,
	}}}
	s := New(exec)

	matches, err := s.Grep(context.Background(), "needle", "/src", "")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, backend.Match{Path: "/src/a.go", Line: 3, Text: "needle here"}, matches[0])
	assert.Equal(t, backend.Match{Path: "/src/sub/b.go", Line: 1, Text: "needle too"}, matches[1])

	assert.Contains(t, exec.commands[0], "grep -rnIE -e 'needle'")
}

func TestGrepNoMatches(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: 1}}}
	s := New(exec)

	matches, err := s.Grep(context.Background(), "nothing", "/", "")
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.NotNil(t, matches)
}

func TestGrepMalformedPattern(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "grep: Unmatched ( or \\(", ExitCode: 2}}}
	s := New(exec)

	_, err := s.Grep(context.Background(), "([bad", "/", "")
	assert.True(t, backend.IsKind(err, backend.KindMalformedPattern))
}

func TestGrepGlobFilterAppliedLocally(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{
		Output:   "./a.go:1:match\n./b.md:1:match\n",
		ExitCode: 0,
	}}}
	s := New(exec)

	matches, err := s.Grep(context.Background(), "match", "/", "**/*.go")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "/a.go", matches[0].Path)
}

func TestGlobParsesJSONLines(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{
		Output:   "{\"path\": \"src\", \"is_dir\": true}\n{\"path\": \"src/main.go\", \"is_dir\": false}\nnot json\n",
		ExitCode: 0,
	}}}
	s := New(exec)

	entries, err := s.Glob(context.Background(), "**/*", "/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, backend.Entry{Path: "/src", IsDir: true}, entries[0])
	assert.Equal(t, backend.Entry{Path: "/src/main.go", IsDir: false}, entries[1])
}

func TestGlobInvalidPatternRejectedLocally(t *testing.T) {
	exec := &scriptedExecutor{}
	s := New(exec)

	_, err := s.Glob(context.Background(), "[bad", "/")
	assert.True(t, backend.IsKind(err, backend.KindMalformedPattern))
	assert.Empty(t, exec.commands)
}

func TestDownloadDecodesWrappedBase64(t *testing.T) {
	payload := []byte("downloaded bytes")
	encoded := base64.StdEncoding.EncodeToString(payload)
	// base64(1) wraps long output; simulate a wrapped payload
	wrapped := encoded[:8] + "\n" + encoded[8:] + "\n"
	exec := &scriptedExecutor{results: []Result{{Output: wrapped, ExitCode: 0}}}
	s := New(exec)

	results := s.Download(context.Background(), []string{"/f.bin"})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, payload, results[0].Data)
}

func TestDownloadMissing(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{ExitCode: exitMissing}}}
	s := New(exec)

	results := s.Download(context.Background(), []string{"/nope"})
	require.Len(t, results, 1)
	assert.True(t, backend.IsKind(results[0].Err, backend.KindNotFound))
}

func TestUploadIndependentFailures(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{
		{ExitCode: 0},
		{Output: "sh: Permission denied", ExitCode: 1},
	}}
	s := New(exec)

	results := s.Upload(context.Background(), map[string][]byte{
		"/a.txt": []byte("a"),
		"/b.txt": []byte("b"),
	})
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.True(t, backend.IsKind(results[1].Err, backend.KindPermissionDenied))
}

// transferExecutor fakes an executor with a direct byte channel.
type transferExecutor struct {
	scriptedExecutor
	files map[string][]byte
}

func (e *transferExecutor) Put(ctx context.Context, path string, data []byte) error {
	e.files[path] = data
	return nil
}

func (e *transferExecutor) Fetch(ctx context.Context, path string) ([]byte, error) {
	data, ok := e.files[path]
	if !ok {
		return nil, errors.New("missing")
	}
	return data, nil
}

func TestUploadPrefersTransferer(t *testing.T) {
	exec := &transferExecutor{files: map[string][]byte{}}
	s := New(exec, WithRoot("/jail"))

	results := s.Upload(context.Background(), map[string][]byte{"/f": []byte("bytes")})
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, []byte("bytes"), exec.files["/jail/f"])
	assert.Empty(t, exec.commands)
}

func TestRawUsesTransferer(t *testing.T) {
	exec := &transferExecutor{files: map[string][]byte{"/f": []byte("raw")}}
	s := New(exec)

	data, err := s.Raw(context.Background(), "/f")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), data)
}

func TestEditProgramQuotedIntoScript(t *testing.T) {
	exec := &scriptedExecutor{results: []Result{{Output: "1", ExitCode: 0}}}
	s := New(exec)

	_, err := s.Edit(context.Background(), "/f", "a", "b", false)
	require.NoError(t, err)
	assert.True(t, strings.Contains(exec.commands[0], "tail -c 1"))
}

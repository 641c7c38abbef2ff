package sandbox

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/fileplane/fileplane/internal/backend"
)

// Distinct exit codes the synthesized scripts use so the caller can
// map failures to the error taxonomy without parsing output text.
const (
	exitMissing   = 11 // file does not exist
	exitEmpty     = 12 // read: file exists but is empty
	exitNoMatch   = 12 // edit: old string does not occur
	exitAmbiguous = 13 // edit: multiple occurrences without replace-all
	exitExists    = 17 // write: path already exists
)

// Sandbox implements the contract by synthesizing shell snippets and
// running them through a caller-supplied Executor.
type Sandbox struct {
	exec Executor
	root string
	log  *zap.Logger
}

// Option configures a Sandbox.
type Option func(*Sandbox)

// WithRoot confines all operations under a remote directory. Contract
// paths are resolved beneath it and cannot climb out.
func WithRoot(root string) Option {
	return func(s *Sandbox) { s.root = strings.TrimRight(root, "/") }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(s *Sandbox) { s.log = log }
}

// New builds a sandbox over the execute primitive.
func New(exec Executor, opts ...Option) *Sandbox {
	s := &Sandbox{
		exec: exec,
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolve maps a contract path to the remote path. CleanPath anchors
// at "/" and resolves "..", so the join cannot escape the root.
func (s *Sandbox) resolve(p string) string {
	return s.root + backend.CleanPath(p)
}

func (s *Sandbox) run(ctx context.Context, command string) (Result, error) {
	res, err := s.exec.Execute(ctx, command)
	if err != nil {
		return Result{}, backend.Substratef("execute: %v", err)
	}
	// A clipped result is indistinguishable from a complete one to the
	// caller, so truncation is a failure, never a partial success.
	if res.Truncated {
		s.log.Warn("sandbox output truncated", zap.Int("exit_code", res.ExitCode))
		return Result{}, backend.Substratef("command output truncated by the substrate (exit %d); raise the executor output cap or request a smaller slice", res.ExitCode)
	}
	return res, nil
}

// classify maps an unexpected non-zero exit to the taxonomy. Exit
// codes the script reserves are handled by the caller before this.
func classify(p string, res Result) error {
	if strings.Contains(res.Output, "Permission denied") {
		return backend.PermissionDenied(p)
	}
	return backend.Substratef("command failed (exit %d): %s", res.ExitCode, strings.TrimSpace(res.Output))
}

// Write implements backend.Backend. The existence test and the write
// run inside one command, so the check-then-write race is narrowed to
// the remote shell's own execution.
func (s *Sandbox) Write(ctx context.Context, p, content string) (string, error) {
	cp := backend.CleanPath(p)
	if err := backend.ValidatePath(cp); err != nil {
		return "", err
	}
	target := s.resolve(p)

	script := fmt.Sprintf(`p=%s
if [ -e "$p" ]; then exit %d; fi
d=$(dirname "$p")
mkdir -p "$d" || exit 1
printf '%%s' %s | base64 -d > "$p" || exit 1
`, quote(target), exitExists, b64([]byte(content)))

	res, err := s.run(ctx, script)
	if err != nil {
		return "", err
	}
	switch res.ExitCode {
	case 0:
		return cp, nil
	case exitExists:
		return "", backend.AlreadyExists(cp)
	default:
		return "", classify(cp, res)
	}
}

// Read implements backend.Backend. Only the requested slice is
// transferred; numbering and truncation markers are applied locally by
// the shared formatter so output matches every other backend.
// maxSedLine is the largest line number embedded in a sed range. It
// keeps offset+limit from overflowing int when callers pass a huge
// limit to mean "everything".
const maxSedLine = 1<<31 - 1

func (s *Sandbox) Read(ctx context.Context, p string, offset, limit int) (string, error) {
	cp := backend.CleanPath(p)
	if offset < 0 {
		offset = 0
	}
	if offset > maxSedLine-1 {
		offset = maxSedLine - 1
	}
	if limit <= 0 {
		limit = backend.DefaultReadLimit
	}
	if limit > maxSedLine-offset {
		limit = maxSedLine - offset
	}

	script := fmt.Sprintf(`p=%s
if [ ! -f "$p" ]; then exit %d; fi
if [ ! -s "$p" ]; then exit %d; fi
sed -n '%d,%dp' "$p"
`, quote(s.resolve(p)), exitMissing, exitEmpty, offset+1, offset+limit)

	res, err := s.run(ctx, script)
	if err != nil {
		return "", err
	}
	switch res.ExitCode {
	case 0:
		lines := backend.SplitLines(res.Output)
		return backend.NumberLines(lines, offset+1), nil
	case exitMissing:
		return "", backend.NotFound(cp)
	case exitEmpty:
		return backend.EmptyFileMessage, nil
	default:
		return "", classify(cp, res)
	}
}

// List implements backend.Backend. Missing directories yield an empty
// slice. Size and modification time are omitted; reporting them
// portably would cost one extra process per entry.
func (s *Sandbox) List(ctx context.Context, p string) ([]backend.Entry, error) {
	base := backend.CleanPath(p)

	script := fmt.Sprintf(`p=%s
if [ ! -d "$p" ]; then exit 0; fi
cd "$p" || exit 1
find . -mindepth 1 -maxdepth 1 -exec sh -c 'for x in "$@"; do if [ -d "$x" ]; then printf "d\t%%s\n" "$x"; else printf "f\t%%s\n" "$x"; fi; done' list-fmt {} +
`, quote(s.resolve(p)))

	res, err := s.run(ctx, script)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, classify(base, res)
	}

	entries := []backend.Entry{}
	for _, line := range strings.Split(res.Output, "\n") {
		kind, name, ok := strings.Cut(line, "\t")
		if !ok || (kind != "d" && kind != "f") {
			continue
		}
		name = strings.TrimPrefix(name, "./")
		if name == "" {
			continue
		}
		entries = append(entries, backend.Entry{
			Path:  path.Join(base, name),
			IsDir: kind == "d",
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

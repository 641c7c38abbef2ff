package sandbox

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"

	"github.com/fileplane/fileplane/internal/backend"
)

// Grep implements backend.Backend. The recursive search runs remotely
// with grep -E; the optional glob filter is applied locally with
// doublestar so filter semantics match the other backends exactly.
// Lines that do not parse are skipped rather than failing the result.
func (s *Sandbox) Grep(ctx context.Context, pattern, p, glob string) ([]backend.Match, error) {
	if glob != "" && !doublestar.ValidatePattern(glob) {
		return nil, backend.MalformedPattern(glob, "invalid glob filter")
	}
	base := backend.CleanPath(p)

	script := fmt.Sprintf(`p=%s
if [ ! -d "$p" ]; then exit 1; fi
cd "$p" || exit 1
grep -rnIE -e %s .
`, quote(s.resolve(p)), quote(pattern))

	res, err := s.run(ctx, script)
	if err != nil {
		return nil, err
	}
	switch res.ExitCode {
	case 0:
		// matches below
	case 1:
		return []backend.Match{}, nil
	case 2:
		return nil, backend.MalformedPattern(pattern, strings.TrimSpace(res.Output))
	default:
		return nil, classify(base, res)
	}

	matches := []backend.Match{}
	for _, line := range strings.Split(res.Output, "\n") {
		rel, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lineno, rest, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}
		n, perr := strconv.Atoi(lineno)
		if perr != nil || n < 1 {
			continue
		}
		rel = strings.TrimPrefix(rel, "./")
		if glob != "" {
			ok, _ := doublestar.Match(glob, rel)
			if !ok {
				continue
			}
		}
		matches = append(matches, backend.Match{
			Path: path.Join(base, rel),
			Line: n,
			Text: rest,
		})
	}
	return matches, nil
}

// globEntry is the JSON-line shape the remote snippet prints.
type globEntry struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// Glob implements backend.Backend. Recursive ** semantics are not
// portable to plain shell globbing, so the snippet leans on the
// sandbox's python runtime and streams JSON lines back. Unparseable
// lines are skipped.
func (s *Sandbox) Glob(ctx context.Context, pattern, p string) ([]backend.Entry, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, backend.MalformedPattern(pattern, "invalid glob pattern")
	}
	base := backend.CleanPath(p)

	script := fmt.Sprintf(`p=%s
if [ ! -d "$p" ]; then exit 0; fi
cd "$p" || exit 1
python3 - %s <<'PYEOF'
import glob, json, os, sys
for p in sorted(glob.glob(sys.argv[1], recursive=True)):
    print(json.dumps({"path": p, "is_dir": os.path.isdir(p)}))
PYEOF
`, quote(s.resolve(p)), quote(pattern))

	res, err := s.run(ctx, script)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, classify(base, res)
	}

	entries := []backend.Entry{}
	for _, line := range strings.Split(res.Output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e globEntry
		if err := sonic.UnmarshalString(line, &e); err != nil {
			continue
		}
		entries = append(entries, backend.Entry{
			Path:  path.Join(base, e.Path),
			IsDir: e.IsDir,
		})
	}
	return entries, nil
}

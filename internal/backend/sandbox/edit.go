package sandbox

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fileplane/fileplane/internal/backend"
)

// editProgram is the awk pass behind Edit. It slurps the whole file,
// counts literal occurrences of the old string (left to right,
// non-overlapping, counted before any replacement), and either exits
// with a reserved code or writes the replaced text to a temp file for
// an atomic rename. The occurrence count goes to stdout either way so
// ambiguity errors can report it.
//
// awk's getline strips newlines, so trailing-newline state for the
// file and both operands is captured in the shell and passed as flags.
const editProgram = `function slurp(f, nl,    line, s, first) {
	first = 1; s = ""
	while ((getline line < f) > 0) {
		if (first) { s = line; first = 0 } else { s = s "\n" line }
	}
	close(f)
	if (nl) { s = s "\n" }
	return s
}
BEGIN { oldstr = slurp(of, onl); newstr = slurp(nf, nnl); data = ""; started = 0 }
{ if (started) { data = data "\n" }; data = data $0; started = 1 }
END {
	if (fnl) { data = data "\n" }
	n = 0; out = ""; rest = data
	while ((i = index(rest, oldstr)) > 0) {
		n++
		out = out substr(rest, 1, i - 1) newstr
		rest = substr(rest, i + length(oldstr))
	}
	out = out rest
	if (n == 0) { exit 12 }
	print n
	if (n > 1 && all == 0) { exit 13 }
	printf "%s", out > tf
}`

// Edit implements backend.Backend. The whole
// missing/not-found/ambiguous/replaced decision happens in one round
// trip, distinguished by exit code.
func (s *Sandbox) Edit(ctx context.Context, p, old, new string, replaceAll bool) (int, error) {
	cp := backend.CleanPath(p)
	if old == "" {
		return 0, backend.InvalidArgument("edit target must not be empty")
	}
	all := 0
	if replaceAll {
		all = 1
	}

	script := fmt.Sprintf(`p=%s
if [ ! -f "$p" ]; then exit %d; fi
t=$(mktemp -d) || exit 1
trap 'rm -rf "$t"' EXIT
printf '%%s' %s | base64 -d > "$t/old" || exit 1
printf '%%s' %s | base64 -d > "$t/new" || exit 1
fnl=0; [ -s "$p" ] && [ -z "$(tail -c 1 "$p")" ] && fnl=1
onl=0; [ -s "$t/old" ] && [ -z "$(tail -c 1 "$t/old")" ] && onl=1
nnl=0; [ -s "$t/new" ] && [ -z "$(tail -c 1 "$t/new")" ] && nnl=1
awk -v of="$t/old" -v nf="$t/new" -v tf="$t/out" -v all=%d -v fnl=$fnl -v onl=$onl -v nnl=$nnl %s "$p"
rc=$?
if [ $rc -ne 0 ]; then exit $rc; fi
mv "$t/out" "$p" || exit 1
`, quote(s.resolve(p)), exitMissing, b64([]byte(old)), b64([]byte(new)), all, quote(editProgram))

	res, err := s.run(ctx, script)
	if err != nil {
		return 0, err
	}
	switch res.ExitCode {
	case 0:
		count, perr := strconv.Atoi(strings.TrimSpace(res.Output))
		if perr != nil {
			return 0, backend.Substratef("edit succeeded but count unparseable: %q", res.Output)
		}
		return count, nil
	case exitMissing:
		return 0, backend.NotFound(cp)
	case exitNoMatch:
		return 0, backend.NoMatch(cp, old)
	case exitAmbiguous:
		count, perr := strconv.Atoi(strings.TrimSpace(res.Output))
		if perr != nil {
			count = 2
		}
		return 0, backend.Ambiguous(cp, old, count)
	default:
		return 0, classify(cp, res)
	}
}

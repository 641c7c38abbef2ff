package sandbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/fileplane/fileplane/internal/backend"
)

// UploadResult is the per-file outcome of a batch upload.
type UploadResult struct {
	Path string
	Err  error
}

// DownloadResult is the per-file outcome of a batch download.
type DownloadResult struct {
	Path string
	Data []byte
	Err  error
}

// Upload writes many files into the sandbox, overwriting existing
// ones. Each item succeeds or fails independently of its siblings.
// Executors implementing Transferer move bytes directly; otherwise the
// payload travels as a base64 write command.
func (s *Sandbox) Upload(ctx context.Context, files map[string][]byte) []UploadResult {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	tr, _ := s.exec.(Transferer)
	results := make([]UploadResult, 0, len(paths))
	for _, p := range paths {
		cp := backend.CleanPath(p)
		var err error
		if tr != nil {
			err = tr.Put(ctx, s.resolve(p), files[p])
		} else {
			err = s.uploadOne(ctx, cp, files[p])
		}
		results = append(results, UploadResult{Path: cp, Err: err})
	}
	return results
}

func (s *Sandbox) uploadOne(ctx context.Context, p string, data []byte) error {
	script := fmt.Sprintf(`p=%s
d=$(dirname "$p")
mkdir -p "$d" || exit 1
printf '%%s' %s | base64 -d > "$p" || exit 1
`, quote(s.resolve(p)), b64(data))

	res, err := s.run(ctx, script)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return classify(p, res)
	}
	return nil
}

// Download fetches many files out of the sandbox, each item
// independent of its siblings.
func (s *Sandbox) Download(ctx context.Context, paths []string) []DownloadResult {
	tr, _ := s.exec.(Transferer)
	results := make([]DownloadResult, 0, len(paths))
	for _, p := range paths {
		cp := backend.CleanPath(p)
		var (
			data []byte
			err  error
		)
		if tr != nil {
			data, err = tr.Fetch(ctx, s.resolve(p))
		} else {
			data, err = s.downloadOne(ctx, cp)
		}
		results = append(results, DownloadResult{Path: cp, Data: data, Err: err})
	}
	return results
}

func (s *Sandbox) downloadOne(ctx context.Context, p string) ([]byte, error) {
	script := fmt.Sprintf(`p=%s
if [ ! -f "$p" ]; then exit %d; fi
base64 "$p"
`, quote(s.resolve(p)), exitMissing)

	res, err := s.run(ctx, script)
	if err != nil {
		return nil, err
	}
	switch res.ExitCode {
	case 0:
		// base64 wraps output; strip all whitespace before decoding
		compact := strings.Map(func(r rune) rune {
			if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
				return -1
			}
			return r
		}, res.Output)
		data, derr := base64.StdEncoding.DecodeString(compact)
		if derr != nil {
			return nil, backend.Substratef("download %s: undecodable payload: %v", p, derr)
		}
		return data, nil
	case exitMissing:
		return nil, backend.NotFound(p)
	default:
		return nil, classify(p, res)
	}
}

// Raw implements backend.RawReader as a single-file download.
func (s *Sandbox) Raw(ctx context.Context, p string) ([]byte, error) {
	cp := backend.CleanPath(p)
	if tr, ok := s.exec.(Transferer); ok {
		return tr.Fetch(ctx, s.resolve(p))
	}
	return s.downloadOne(ctx, cp)
}

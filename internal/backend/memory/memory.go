package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fileplane/fileplane/internal/backend"
	"github.com/fileplane/fileplane/internal/file"
)

// Backend serves the contract from an in-memory snapshot and records
// every mutation in a delta.
type Backend struct {
	mu       sync.RWMutex
	snapshot map[string]file.Record
	delta    map[string]file.Record

	log   *zap.Logger
	clock func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(b *Backend) { b.clock = clock }
}

// New builds a backend over the given snapshot. Paths in the snapshot
// are normalized; the map itself is copied so later caller mutations
// cannot leak in.
func New(snapshot map[string]file.Record, opts ...Option) *Backend {
	b := &Backend{
		snapshot: make(map[string]file.Record, len(snapshot)),
		delta:    make(map[string]file.Record),
		log:      zap.NewNop(),
		clock:    time.Now,
	}
	for p, rec := range snapshot {
		b.snapshot[backend.CleanPath(p)] = rec
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Delta returns a copy of the changes made through this instance.
func (b *Backend) Delta() map[string]file.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]file.Record, len(b.delta))
	for p, rec := range b.delta {
		out[p] = rec
	}
	return out
}

// Merge folds deltas into a single state, last writer per distinct
// path wins. Deltas touching disjoint paths all apply, which makes the
// reducer commutative for the concurrent-tool-call case.
func Merge(deltas ...map[string]file.Record) map[string]file.Record {
	out := make(map[string]file.Record)
	for _, d := range deltas {
		for p, rec := range d {
			out[p] = rec
		}
	}
	return out
}

func (b *Backend) lookup(path string) (file.Record, bool) {
	if rec, ok := b.delta[path]; ok {
		return rec, true
	}
	rec, ok := b.snapshot[path]
	return rec, ok
}

// view projects the overlay into the shared tree helpers' shape.
// Records that fail to decode are skipped; legacy records are counted
// so the caller can emit one deprecation event.
func (b *Backend) view() (map[string]backend.TreeFile, bool) {
	files := make(map[string]backend.TreeFile, len(b.snapshot)+len(b.delta))
	legacy := false
	add := func(p string, rec file.Record) {
		data, err := rec.Bytes()
		if err != nil {
			b.log.Warn("skipping undecodable record", zap.String("path", p), zap.Error(err))
			return
		}
		if rec.Legacy() {
			legacy = true
		}
		files[p] = backend.TreeFile{
			Text:       string(data),
			Size:       int64(len(data)),
			ModifiedAt: rec.ModifiedAt,
		}
	}
	for p, rec := range b.snapshot {
		add(p, rec)
	}
	for p, rec := range b.delta {
		add(p, rec)
	}
	return files, legacy
}

func (b *Backend) deprecate(path string) {
	file.Deprecate(file.Deprecation{Path: path, Backend: "memory"})
}

// List implements backend.Backend.
func (b *Backend) List(ctx context.Context, path string) ([]backend.Entry, error) {
	b.mu.RLock()
	files, legacy := b.view()
	b.mu.RUnlock()
	if legacy {
		b.deprecate(backend.CleanPath(path))
	}
	return backend.ListTree(files, path), nil
}

// Read implements backend.Backend.
func (b *Backend) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	path = backend.CleanPath(path)

	b.mu.RLock()
	rec, ok := b.lookup(path)
	b.mu.RUnlock()
	if !ok {
		return "", backend.NotFound(path)
	}
	if rec.Legacy() {
		b.deprecate(path)
	}

	data, err := rec.Bytes()
	if err != nil {
		return "", backend.Substratef("corrupt record at %s: %v", path, err)
	}
	if len(data) == 0 {
		return backend.EmptyFileMessage, nil
	}
	return backend.FormatRead(string(data), offset, limit), nil
}

// Write implements backend.Backend.
func (b *Backend) Write(ctx context.Context, path, content string) (string, error) {
	path = backend.CleanPath(path)
	if err := backend.ValidatePath(path); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.lookup(path); ok {
		return "", backend.AlreadyExists(path)
	}
	b.delta[path] = file.New([]byte(content), b.clock())
	return path, nil
}

// Edit implements backend.Backend.
func (b *Backend) Edit(ctx context.Context, path, old, new string, replaceAll bool) (int, error) {
	path = backend.CleanPath(path)

	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.lookup(path)
	if !ok {
		return 0, backend.NotFound(path)
	}
	if rec.Legacy() {
		b.deprecate(path)
	}

	data, err := rec.Bytes()
	if err != nil {
		return 0, backend.Substratef("corrupt record at %s: %v", path, err)
	}
	edited, count, err := backend.EditText(path, string(data), old, new, replaceAll)
	if err != nil {
		return 0, err
	}
	b.delta[path] = rec.WithContent([]byte(edited), b.clock())
	return count, nil
}

// Grep implements backend.Backend.
func (b *Backend) Grep(ctx context.Context, pattern, path, glob string) ([]backend.Match, error) {
	b.mu.RLock()
	files, legacy := b.view()
	b.mu.RUnlock()
	if legacy {
		b.deprecate(backend.CleanPath(path))
	}
	return backend.GrepTree(files, pattern, path, glob)
}

// Glob implements backend.Backend.
func (b *Backend) Glob(ctx context.Context, pattern, path string) ([]backend.Entry, error) {
	b.mu.RLock()
	files, legacy := b.view()
	b.mu.RUnlock()
	if legacy {
		b.deprecate(backend.CleanPath(path))
	}
	return backend.GlobTree(files, pattern, path)
}

// Raw implements backend.RawReader.
func (b *Backend) Raw(ctx context.Context, path string) ([]byte, error) {
	path = backend.CleanPath(path)

	b.mu.RLock()
	rec, ok := b.lookup(path)
	b.mu.RUnlock()
	if !ok {
		return nil, backend.NotFound(path)
	}
	if rec.Legacy() {
		b.deprecate(path)
	}
	data, err := rec.Bytes()
	if err != nil {
		return nil, backend.Substratef("corrupt record at %s: %v", path, err)
	}
	return data, nil
}

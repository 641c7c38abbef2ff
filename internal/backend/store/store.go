package store

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/fileplane/fileplane/internal/backend"
	"github.com/fileplane/fileplane/internal/file"
)

// zstd frame magic; uncompressed values are JSON and start with '{'.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// Backend serves the contract from a namespaced KV store, one item per
// file keyed by its path.
type Backend struct {
	kv KV
	ns string

	legacyWrites bool
	compress     bool
	log          *zap.Logger
	clock        func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLegacyWrites keeps emitting the deprecated line-array record
// shape, for stores older readers still consume.
func WithLegacyWrites() Option {
	return func(b *Backend) { b.legacyWrites = true }
}

// WithCompression stores record payloads zstd-compressed. Reads accept
// both compressed and plain values, so the option can be toggled on an
// existing store.
func WithCompression() Option {
	return func(b *Backend) { b.compress = true }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(b *Backend) { b.log = log }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(b *Backend) { b.clock = clock }
}

// New resolves the namespace template against vars and builds the
// backend. Resolution is eager: a missing variable fails here, not on
// first use.
func New(kv KV, tmpl Template, vars map[string]string, opts ...Option) (*Backend, error) {
	ns, err := tmpl.Resolve(vars)
	if err != nil {
		return nil, err
	}
	b := &Backend{
		kv:    kv,
		ns:    ns,
		log:   zap.NewNop(),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Namespace returns the resolved namespace this backend operates in.
func (b *Backend) Namespace() string {
	return b.ns
}

func (b *Backend) encodeRecord(rec file.Record) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if b.legacyWrites && rec.Encoding == file.EncodingUTF8 {
		data, err = file.MarshalLegacy(rec)
	} else {
		data, err = file.Marshal(rec)
	}
	if err != nil {
		return nil, err
	}
	if b.compress {
		data = zstdEncoder.EncodeAll(data, nil)
	}
	return data, nil
}

func decodeRecord(value []byte) (file.Record, error) {
	if bytes.HasPrefix(value, zstdMagic) {
		plain, err := zstdDecoder.DecodeAll(value, nil)
		if err != nil {
			return file.Record{}, err
		}
		value = plain
	}
	return file.Unmarshal(value)
}

func (b *Backend) deprecate(path string) {
	file.Deprecate(file.Deprecation{Path: path, Backend: "store"})
}

func (b *Backend) get(ctx context.Context, path string) (file.Record, error) {
	value, err := b.kv.Get(ctx, b.ns, path)
	if errors.Is(err, ErrKeyNotFound) {
		return file.Record{}, backend.NotFound(path)
	}
	if err != nil {
		return file.Record{}, backend.Substratef("store get %s: %v", path, err)
	}
	rec, err := decodeRecord(value)
	if err != nil {
		return file.Record{}, backend.Substratef("corrupt record at %s: %v", path, err)
	}
	return rec, nil
}

func (b *Backend) put(ctx context.Context, path string, rec file.Record) error {
	value, err := b.encodeRecord(rec)
	if err != nil {
		return backend.Substratef("encode record for %s: %v", path, err)
	}
	if err := b.kv.Put(ctx, b.ns, path, value); err != nil {
		return backend.Substratef("store put %s: %v", path, err)
	}
	return nil
}

// scanView loads the whole namespace into the shared tree helpers'
// shape. Corrupt values are skipped rather than failing the call.
func (b *Backend) scanView(ctx context.Context) (map[string]backend.TreeFile, bool, error) {
	items, err := b.kv.Scan(ctx, b.ns)
	if err != nil {
		return nil, false, backend.Substratef("store scan: %v", err)
	}
	files := make(map[string]backend.TreeFile, len(items))
	legacy := false
	for _, item := range items {
		rec, err := decodeRecord(item.Value)
		if err != nil {
			b.log.Warn("skipping corrupt record", zap.String("path", item.Key), zap.Error(err))
			continue
		}
		data, err := rec.Bytes()
		if err != nil {
			b.log.Warn("skipping undecodable record", zap.String("path", item.Key), zap.Error(err))
			continue
		}
		if rec.Legacy() {
			legacy = true
		}
		files[item.Key] = backend.TreeFile{
			Text:       string(data),
			Size:       int64(len(data)),
			ModifiedAt: rec.ModifiedAt,
		}
	}
	return files, legacy, nil
}

// List implements backend.Backend.
func (b *Backend) List(ctx context.Context, path string) ([]backend.Entry, error) {
	files, legacy, err := b.scanView(ctx)
	if err != nil {
		return nil, err
	}
	if legacy {
		b.deprecate(backend.CleanPath(path))
	}
	return backend.ListTree(files, path), nil
}

// Read implements backend.Backend.
func (b *Backend) Read(ctx context.Context, path string, offset, limit int) (string, error) {
	path = backend.CleanPath(path)
	rec, err := b.get(ctx, path)
	if err != nil {
		return "", err
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
	_, err := b.kv.Get(ctx, b.ns, path)
	if err == nil {
		return "", backend.AlreadyExists(path)
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return "", backend.Substratef("store get %s: %v", path, err)
	}
	if err := b.put(ctx, path, file.New([]byte(content), b.clock())); err != nil {
		return "", err
	}
	return path, nil
}

// Edit implements backend.Backend.
func (b *Backend) Edit(ctx context.Context, path, old, new string, replaceAll bool) (int, error) {
	path = backend.CleanPath(path)
	rec, err := b.get(ctx, path)
	if err != nil {
		return 0, err
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
	if err := b.put(ctx, path, rec.WithContent([]byte(edited), b.clock())); err != nil {
		return 0, err
	}
	return count, nil
}

// Grep implements backend.Backend.
func (b *Backend) Grep(ctx context.Context, pattern, path, glob string) ([]backend.Match, error) {
	files, legacy, err := b.scanView(ctx)
	if err != nil {
		return nil, err
	}
	if legacy {
		b.deprecate(backend.CleanPath(path))
	}
	return backend.GrepTree(files, pattern, path, glob)
}

// Glob implements backend.Backend.
func (b *Backend) Glob(ctx context.Context, pattern, path string) ([]backend.Entry, error) {
	files, legacy, err := b.scanView(ctx)
	if err != nil {
		return nil, err
	}
	if legacy {
		b.deprecate(backend.CleanPath(path))
	}
	return backend.GlobTree(files, pattern, path)
}

// Delete removes a file. Missing paths are KindNotFound.
func (b *Backend) Delete(ctx context.Context, path string) error {
	path = backend.CleanPath(path)
	if _, err := b.get(ctx, path); err != nil {
		return err
	}
	if err := b.kv.Delete(ctx, b.ns, path); err != nil {
		return backend.Substratef("store delete %s: %v", path, err)
	}
	return nil
}

// Raw implements backend.RawReader.
func (b *Backend) Raw(ctx context.Context, path string) ([]byte, error) {
	path = backend.CleanPath(path)
	rec, err := b.get(ctx, path)
	if err != nil {
		return nil, err
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

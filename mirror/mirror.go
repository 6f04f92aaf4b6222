package mirror

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/scalareval/blobstore"
	"github.com/hupe1980/scalareval/internal/compress"
	"github.com/hupe1980/scalareval/internal/fs"
	"github.com/hupe1980/scalareval/internal/resource"
)

const copyBufferSize = 1 << 20

// ErrNotFound is returned by Fetch when the mirror does not hold the corpus.
var ErrNotFound = blobstore.ErrNotFound

// Mirror publishes and fetches corpus files.
type Mirror struct {
	store  blobstore.Store
	codec  compress.Codec
	rc     *resource.Controller
	fs     fs.FileSystem
	logger *slog.Logger
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithCodec sets the compression codec for published corpora.
func WithCodec(c compress.Codec) Option {
	return func(m *Mirror) { m.codec = c }
}

// WithController throttles transfers with the controller's IO limit.
func WithController(rc *resource.Controller) Option {
	return func(m *Mirror) { m.rc = rc }
}

// WithFileSystem sets the file system for local corpus files.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(m *Mirror) {
		if fsys != nil {
			m.fs = fsys
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a mirror on store.
func New(store blobstore.Store, optFns ...Option) *Mirror {
	m := &Mirror{
		store:  store,
		fs:     fs.Default,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(m)
	}
	return m
}

// Codec returns the codec used for published corpora.
func (m *Mirror) Codec() compress.Codec { return m.codec }

func (m *Mirror) blobName(name string) string {
	return name + m.codec.Ext()
}

// Has reports whether the mirror holds the named corpus.
func (m *Mirror) Has(ctx context.Context, name string) (bool, error) {
	b, err := m.store.Open(ctx, m.blobName(name))
	if errors.Is(err, blobstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, b.Close()
}

// List returns the corpus names held by the mirror for the current codec.
func (m *Mirror) List(ctx context.Context) ([]string, error) {
	blobs, err := m.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	ext := m.codec.Ext()
	var names []string
	for _, b := range blobs {
		name, ok := strings.CutSuffix(b, ext)
		if !ok || !strings.HasSuffix(name, ".bin") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Fetch downloads the named corpus to dst. It returns ErrNotFound if the
// mirror does not hold it.
func (m *Mirror) Fetch(ctx context.Context, name, dst string) (err error) {
	blob, err := m.store.Open(ctx, m.blobName(name))
	if err != nil {
		return err
	}
	defer blob.Close()

	body, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	defer body.Close()

	dec, err := m.codec.NewReader(bufio.NewReaderSize(resource.NewRateLimitedReader(ctx, body, m.rc), copyBufferSize))
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	defer dec.Close()

	tmp := dst + ".part"
	f, err := fs.Create(m.fs, tmp)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = m.fs.Remove(tmp)
		}
	}()

	n, err := io.Copy(f, dec)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	if err := m.fs.Rename(tmp, dst); err != nil {
		_ = m.fs.Remove(tmp)
		return fmt.Errorf("fetch %s: %w", name, err)
	}

	m.logger.Info("fetched corpus", "name", name, "bytes", n, "stored", blob.Size(), "codec", m.codec)
	return nil
}

// Publish uploads the corpus file at src under name. A failed upload is
// aborted so that no partial blob becomes visible.
func (m *Mirror) Publish(ctx context.Context, src, name string) (err error) {
	f, err := m.fs.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	defer f.Close()

	w, err := m.store.Create(ctx, m.blobName(name))
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = blobstore.Abort(w)
		}
	}()

	enc, err := m.codec.NewWriter(resource.NewRateLimitedWriter(ctx, w, m.rc))
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}

	n, err := io.CopyBuffer(enc, f, make([]byte, copyBufferSize))
	if err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}

	m.logger.Info("published corpus", "name", name, "bytes", n, "codec", m.codec)
	return nil
}

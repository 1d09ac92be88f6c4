// Package file stores cart snapshots as files in a directory, one file per
// key, optionally gzip-compressed.
package file

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"

	"github.com/xenking/pueblos-cart/internal/domain/cart"
)

var _ cart.Storage = (*SnapshotStore)(nil)

// SnapshotStore writes each snapshot to <dir>/<escaped key>.json, or
// .json.gz when compression is on. Writes go through a temporary file and a
// rename so a crash never leaves a torn snapshot behind.
type SnapshotStore struct {
	dir      string
	compress bool
}

// Option configures a SnapshotStore.
type Option func(*SnapshotStore)

// WithCompression turns gzip compression of snapshots on or off.
func WithCompression(on bool) Option {
	return func(s *SnapshotStore) { s.compress = on }
}

// New returns a SnapshotStore rooted at dir, creating it when missing.
func New(dir string, opts ...Option) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "create snapshot dir")
	}
	s := &SnapshotStore{dir: dir}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Path returns the file a key is stored in.
func (s *SnapshotStore) Path(key string) string {
	name := url.PathEscape(key) + ".json"
	if s.compress {
		name += ".gz"
	}
	return filepath.Join(s.dir, name)
}

// Load implements cart.Storage.
func (s *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cart.ErrSnapshotNotFound
		}
		return nil, errors.Wrap(err, "read snapshot")
	}
	if !s.compress {
		return data, nil
	}

	zr, err := pgzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "open gzip snapshot")
	}
	defer func() { _ = zr.Close() }()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "decompress snapshot")
	}
	return out, nil
}

// Save implements cart.Storage.
func (s *SnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := s.write(tmp, data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close snapshot")
	}
	if err := os.Rename(tmpName, s.Path(key)); err != nil {
		return errors.Wrap(err, "rename snapshot")
	}
	return nil
}

func (s *SnapshotStore) write(w io.Writer, data []byte) error {
	if !s.compress {
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, "write snapshot")
		}
		return nil
	}

	zw := pgzip.NewWriter(w)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return errors.Wrap(err, "compress snapshot")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "flush gzip snapshot")
	}
	return nil
}

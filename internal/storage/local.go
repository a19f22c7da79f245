package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// Local stores blobs as flat files in a single directory. Two instances
// exist in a running service: the primary upload directory and the legacy
// one left over from the old naming convention.
type Local struct {
	dir string
}

func NewLocal(dir string) *Local { return &Local{dir: dir} }

// Dir returns the backing directory.
func (l *Local) Dir() string { return l.dir }

// Path returns the absolute path a key resolves to.
func (l *Local) Path(key string) string { return filepath.Join(l.dir, key) }

func (l *Local) Store(ctx context.Context, key string, data []byte, contentType string) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	// O_EXCL: keys are single-writer by construction, never overwritten.
	f, err := os.OpenFile(l.Path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create blob %s: %w", key, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(l.Path(key))
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return f.Close()
}

func (l *Local) Retrieve(ctx context.Context, key string) (*Object, error) {
	data, err := os.ReadFile(l.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Object{
		Data:        data,
		ContentType: ContentTypeByName(key),
		Size:        int64(len(data)),
	}, nil
}

func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (l *Local) Delete(ctx context.Context, key string) error {
	err := os.Remove(l.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// Stat returns the blob size, or ErrNotFound.
func (l *Local) Stat(key string) (int64, error) {
	info, err := os.Stat(l.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return info.Size(), nil
}

// ContentTypeByName infers a MIME type from the filename extension,
// falling back to a generic binary type.
func ContentTypeByName(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

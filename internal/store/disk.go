package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// DiskStore keeps images as files in a local directory.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes r to a new file named name and returns its reference.
func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	if _, err := ImageName(name); err != nil {
		return "", err
	}
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close image: %w", err)
	}
	return ImageRef(name), nil
}

func (s *DiskStore) Open(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	name, err := ImageName(ref)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return f, mime.TypeByExtension(filepath.Ext(name)), nil
}

func (s *DiskStore) Remove(ctx context.Context, ref string) error {
	name, err := ImageName(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

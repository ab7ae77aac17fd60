package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_SaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewDiskStore(dir)
	require.NoError(t, err)

	ref, err := s.Save(ctx, "id-cat.png", strings.NewReader("pixels"), 6, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "images/id-cat.png", ref)
	assert.FileExists(t, filepath.Join(dir, "id-cat.png"))

	rc, ct, err := s.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
	assert.Equal(t, "image/png", ct)

	require.NoError(t, s.Remove(ctx, ref))
	assert.NoFileExists(t, filepath.Join(dir, "id-cat.png"))
	assert.ErrorIs(t, s.Remove(ctx, ref), ErrNotFound)
}

func TestDiskStore_RefusesOverwrite(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(ctx, "dup.png", strings.NewReader("a"), 1, "image/png")
	require.NoError(t, err)
	_, err = s.Save(ctx, "dup.png", strings.NewReader("b"), 1, "image/png")
	assert.Error(t, err)
}

func TestDiskStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewDiskStore(filepath.Join(dir, "images"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644))

	_, _, err = s.Open(ctx, "images/../secret.txt")
	assert.ErrorIs(t, err, ErrInvalidImageRef)
	assert.ErrorIs(t, s.Remove(ctx, "../secret.txt"), ErrInvalidImageRef)
	assert.FileExists(t, filepath.Join(dir, "secret.txt"))
}

func TestDiskStore_OpenMissing(t *testing.T) {
	s, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Open(context.Background(), "images/nope.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

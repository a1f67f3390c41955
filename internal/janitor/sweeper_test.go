package janitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algenord/portfolio-backend/internal/storage/local"
)

type fakeIndex struct {
	urls []string
	err  error
}

func (f *fakeIndex) AllImageURLs(context.Context) ([]string, error) {
	return f.urls, f.err
}

func writeBlob(t *testing.T, root, name string, age time.Duration) {
	t.Helper()
	p := filepath.Join(root, name)
	require.NoError(t, os.WriteFile(p, []byte("blob"), 0o644))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(p, mtime, mtime))
}

func TestSweep_RemovesOldOrphansOnly(t *testing.T) {
	blobs, err := local.New(t.TempDir(), "/uploads")
	require.NoError(t, err)

	writeBlob(t, blobs.Root(), "referenced.png", 48*time.Hour)
	writeBlob(t, blobs.Root(), "orphan.png", 48*time.Hour)
	writeBlob(t, blobs.Root(), "fresh-orphan.png", time.Minute)

	index := &fakeIndex{urls: []string{"/uploads/referenced.png"}}
	s := NewSweeper(index, blobs)

	require.NoError(t, s.Sweep(context.Background()))

	names, err := blobs.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"referenced.png", "fresh-orphan.png"}, names)
}

func TestSweep_EmptyIndexStillHonorsAge(t *testing.T) {
	blobs, err := local.New(t.TempDir(), "/uploads")
	require.NoError(t, err)

	writeBlob(t, blobs.Root(), "old.png", 2*time.Hour)
	writeBlob(t, blobs.Root(), "young.png", time.Minute)

	s := NewSweeper(&fakeIndex{}, blobs)
	require.NoError(t, s.Sweep(context.Background()))

	names, err := blobs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"young.png"}, names)
}

func TestSweep_IndexFailureAborts(t *testing.T) {
	blobs, err := local.New(t.TempDir(), "/uploads")
	require.NoError(t, err)

	writeBlob(t, blobs.Root(), "orphan.png", 48*time.Hour)

	s := NewSweeper(&fakeIndex{err: errors.New("db down")}, blobs)
	require.Error(t, s.Sweep(context.Background()))

	// nothing is deleted when the reference set is unknown
	names, err := blobs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"orphan.png"}, names)
}

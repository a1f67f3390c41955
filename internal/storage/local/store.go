package local

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/algenord/portfolio-backend/internal/storage"
)

// Store writes blobs under a single root directory and serves back location
// references of the form "<publicBase>/<name>". Every resolved path is
// checked against the root before touching the filesystem.
type Store struct {
	root       string
	publicBase string
}

func New(root, publicBase string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &Store{
		root:       abs,
		publicBase: strings.TrimSuffix(publicBase, "/"),
	}, nil
}

// Root returns the absolute root directory. Used by the janitor sweep.
func (s *Store) Root() string {
	return s.root
}

// Store writes the payload to a fresh uuid-named file keeping the original
// extension, and returns its public location. Empty payloads and escaping
// names are rejected before anything is written.
func (s *Store) Store(filename string, r io.Reader) (string, error) {
	if r == nil {
		return "", storage.ErrEmptyFile
	}

	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return "", storage.ErrEmptyFile
		}
		return "", fmt.Errorf("read blob: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(filepath.Base(filename))
	dest := filepath.Join(s.root, name)
	if filepath.Dir(dest) != s.root {
		return "", &storage.PathEscapeError{Name: filename}
	}

	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	_, err = io.Copy(f, io.MultiReader(bytes.NewReader(first[:]), r))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", fmt.Errorf("write blob: %w", err)
	}

	return s.publicBase + "/" + name, nil
}

// Delete removes the blob a location refers to. Missing files are a no-op.
func (s *Store) Delete(location string) error {
	if strings.TrimSpace(location) == "" {
		return nil
	}

	name := path.Base(location)
	if name == "." || name == "/" {
		return nil
	}

	dest := filepath.Join(s.root, name)
	if filepath.Dir(dest) != s.root {
		return &storage.PathEscapeError{Name: location}
	}

	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// List returns the file names currently under the root.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list upload dir: %w", err)
	}

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

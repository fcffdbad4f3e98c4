package media

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store keeps image files on disk under a content addressed name:
// <dir>/<first two hex digits>/<sha256><ext>.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes data and returns its path relative to the store directory and
// whether a new file was created. Saving identical data twice yields the
// same path.
func (s *Store) Save(data []byte, ext string) (string, bool, error) {
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:]) + ext
	rel := filepath.Join(name[:2], name)
	target := filepath.Join(s.dir, rel)

	if _, err := os.Stat(target); err == nil {
		return rel, false, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create image directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return "", false, fmt.Errorf("failed to create temporary image file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", false, fmt.Errorf("failed to write image file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", false, fmt.Errorf("failed to write image file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", false, fmt.Errorf("failed to move image file into place: %w", err)
	}

	return rel, true, nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (s *Store) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.dir, rel))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}

package artifact

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezoic/carprice/pkg/errors"
)

// FSStore keeps artifacts as files under a base directory.
type FSStore struct {
	baseDir string
}

var _ Store = (*FSStore)(nil)

// NewFSStore returns a store rooted at dir. The directory is created on the
// first Put.
func NewFSStore(dir string) (*FSStore, error) {
	baseDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get absolute path for %s", dir)
	}
	return &FSStore{baseDir: baseDir}, nil
}

// BaseDir returns the absolute root directory.
func (s *FSStore) BaseDir() string { return s.baseDir }

func (s *FSStore) fullpath(name string) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(cleaned)), nil
}

// Put writes data to a temporary file next to the target and renames it into
// place.
func (s *FSStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.fullpath(name)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", name)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", name)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to write %s", name)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "failed to sync %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", name)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return errors.Wrapf(err, "failed to move %s into place", name)
	}
	return nil
}

// Get reads the artifact file.
func (s *FSStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := s.fullpath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	return data, nil
}

// Delete removes the artifact file and any directories it leaves empty.
func (s *FSStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.fullpath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "failed to delete %s", name)
	}
	for dir := filepath.Dir(target); dir != s.baseDir && strings.HasPrefix(dir, s.baseDir); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// Close is a no-op.
func (s *FSStore) Close() error { return nil }

// Package artifact persists the fitted statistics and model of a training run.
//
// A Store holds named, opaque artifacts that are written and read whole.
// Names are slash separated paths such as "scaler/year_scaler.msgpack".
package artifact

import (
	"context"
	"path"
	"strings"

	"github.com/ezoic/carprice/pkg/errors"
)

// Store reads and writes whole artifacts by name.
type Store interface {
	// Put stores data under name, replacing any previous artifact. A reader
	// never observes a partially written artifact.
	Put(ctx context.Context, name string, data []byte) error
	// Get returns the artifact stored under name. A missing artifact yields
	// an error wrapping errors.ErrArtifactNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes the artifact stored under name. Deleting a missing
	// artifact is not an error.
	Delete(ctx context.Context, name string) error
	// Close releases the resources held by the store.
	Close() error
}

const (
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
)

// Open creates the Store for backend. dir is used by the fs backend and
// dbPath by the sqlite backend.
func Open(backend, dir, dbPath string) (Store, error) {
	switch backend {
	case BackendFS, "":
		return NewFSStore(dir)
	case BackendSQLite:
		return NewSQLStore(dbPath)
	default:
		return nil, errors.NewValueError("artifact.Open", "unknown backend "+backend)
	}
}

// cleanName validates an artifact name and returns it in canonical form.
func cleanName(name string) (string, error) {
	if name == "" {
		return "", errors.NewValueError("artifact", "empty artifact name")
	}
	cleaned := path.Clean(name)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "\\") {
		return "", errors.NewValueError("artifact", "invalid artifact name "+name)
	}
	return cleaned, nil
}

func notFound(name string) error {
	return errors.Wrapf(errors.ErrArtifactNotFound, "artifact %s", name)
}

package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	domerr "github.com/loom-ml/loom/pkg/domain/errors"
	xe "github.com/loom-ml/loom/pkg/errors"
)

// Store is a filesystem-backed checkpoint blob store.
//
// Blobs are laid out as <root>/<runId>/<name>. Metadata lives in the
// database; this type only moves bytes.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	if err := os.MkdirAll(abs, os.FileMode(0755)); err != nil {
		return nil, xe.Wrap(err)
	}
	return &Store{root: abs}, nil
}

// Put stores the content of r as the checkpoint name of run runId and
// returns the stored size in bytes.
//
// The blob is written into a temporary file first, so readers never
// observe a partially written checkpoint.
func (s *Store) Put(runId string, name string, r io.Reader) (int64, error) {
	if err := VerifyKey(runId); err != nil {
		return 0, err
	}
	if err := VerifyKey(name); err != nil {
		return 0, err
	}

	dir := filepath.Join(s.root, runId)
	if err := os.MkdirAll(dir, os.FileMode(0755)); err != nil {
		return 0, xe.Wrap(err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return 0, xe.Wrap(err)
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, xe.Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return 0, xe.Wrap(err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return 0, xe.Wrap(err)
	}
	return size, nil
}

// Get opens the checkpoint name of run runId.
//
// Returns an error wrapping errors.ErrMissing when no such blob is stored.
func (s *Store) Get(runId string, name string) (io.ReadCloser, error) {
	if err := VerifyKey(runId); err != nil {
		return nil, err
	}
	if err := VerifyKey(name); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.root, runId, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf(
				"%w: checkpoint %s of run %s", domerr.ErrMissing, name, runId,
			)
		}
		return nil, xe.Wrap(err)
	}
	return f, nil
}

// VerifyKey rejects path components that would escape the store root.
func VerifyKey(s string) error {
	if s == "" || s == "." || s == ".." ||
		strings.ContainsAny(s, "/\\") || strings.HasPrefix(s, ".") {
		return fmt.Errorf("invalid store key: %q", s)
	}
	return nil
}

package storage

import (
	"errors"
	"os"
	"path/filepath"

	"quarzo.network/launcher/identity"
)

// Store is a filesystem store for bootstrap artifacts.
//
// Artifacts are immutable and keyed strictly by their network identity:
// an artifact with identity ID lives at <root>/<ID>.bin. Put is idempotent
// and Get re-derives the identity to detect out-of-band corruption.
type Store struct {
	root string
}

// NewStore constructs a store rooted at root, creating the directory if
// needed.
func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Put writes artifact bytes under their derived identity. Re-putting the
// same bytes succeeds; a pre-existing file with different content is an
// immutability violation.
func (s *Store) Put(b []byte) (identity.Identity, error) {
	id := identity.DeriveBytes(b)
	path := s.PathFor(id)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
	if err != nil {
		if os.IsExist(err) {
			existing, rerr := s.Get(id)
			if rerr != nil {
				return "", ErrImmutable
			}
			if string(existing) != string(b) {
				return "", ErrImmutable
			}
			return id, nil
		}
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return id, nil
}

// Get reads the artifact stored under id, verifying its content still
// derives to id.
func (s *Store) Get(id identity.Identity) ([]byte, error) {
	b, err := os.ReadFile(s.PathFor(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if identity.DeriveBytes(b) != id {
		return nil, ErrMismatch
	}
	return b, nil
}

// Has reports whether an artifact is stored under id.
func (s *Store) Has(id identity.Identity) bool {
	_, err := os.Stat(s.PathFor(id))
	return err == nil
}

// PathFor returns the artifact file path for id.
func (s *Store) PathFor(id identity.Identity) string {
	return filepath.Join(s.root, string(id)+".bin")
}

// Package storage keeps bootstrap artifacts on the local filesystem, keyed
// by their derived network identity, and resolves the per-network storage
// namespaces the node process uses.
package storage

import (
	"errors"
	"path/filepath"

	"quarzo.network/launcher/identity"
)

var (
	ErrNotFound  = errors.New("storage: artifact not found")
	ErrImmutable = errors.New("storage: stored artifact mismatch")
	ErrMismatch  = errors.New("storage: identity mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// OfflineNamespace is the fixed storage subdirectory for offline runs.
// It is deliberately not content-derived so that local test runs land in a
// stable, predictable place.
const OfflineNamespace = "offline"

// NamespaceDir returns the storage namespace directory for a network
// identity under root. The directory is not created here; that belongs to
// the node's own storage layer.
func NamespaceDir(root string, id identity.Identity) string {
	return filepath.Join(root, string(id))
}

// OfflineDir returns the fixed offline storage namespace under root.
func OfflineDir(root string) string {
	return filepath.Join(root, OfflineNamespace)
}

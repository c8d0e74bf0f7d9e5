package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"quarzo.network/launcher/identity"
)

func TestStore_PutGet(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	payload := []byte("genesis payload")
	id, err := s.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if id != identity.DeriveBytes(payload) {
		t.Fatalf("Put returned identity %s, want derivation of payload", id)
	}

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Get: got %q want %q", got, payload)
	}
	if !s.Has(id) {
		t.Fatal("Has: false after Put")
	}
}

func TestStore_PutIdempotent(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	payload := []byte("same bytes twice")
	first, err := s.Put(payload)
	if err != nil {
		t.Fatalf("first Put: %v", err)
	}
	second, err := s.Put(payload)
	if err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if first != second {
		t.Fatalf("idempotent Put changed identity: %s vs %s", first, second)
	}
}

func TestStore_DetectsCorruption(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	id, err := s.Put([]byte("original"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	// Corrupt the stored artifact out-of-band.
	path := s.PathFor(id)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := s.Get(id); err != ErrMismatch {
		t.Fatalf("Get after corruption: got %v want ErrMismatch", err)
	}
	if _, err := s.Put([]byte("original")); err != ErrImmutable {
		t.Fatalf("Put after corruption: got %v want ErrImmutable", err)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := s.Get(identity.DeriveBytes([]byte("never stored"))); !IsNotFound(err) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestNamespaceDir(t *testing.T) {
	id := identity.DeriveBytes([]byte("hello"))
	got := NamespaceDir("/var/lib/node", id)
	want := filepath.Join("/var/lib/node", string(id))
	if got != want {
		t.Fatalf("NamespaceDir: got %q want %q", got, want)
	}

	if OfflineDir("/var/lib/node") != filepath.Join("/var/lib/node", OfflineNamespace) {
		t.Fatalf("OfflineDir: got %q", OfflineDir("/var/lib/node"))
	}
}

// Package identity derives the content-addressed network identity from the
// genesis bootstrap artifact.
//
// The identity is the Base58 rendering of a sha2-256 multihash of the raw
// artifact bytes: two header bytes (0x12 hash code, 0x20 digest length)
// followed by the 32-byte digest. Identical bytes always produce the same
// identity; any byte change produces an unrelated one. The Base58 alphabet
// contains no path separators, so the identity is used verbatim as a
// storage-namespace directory component. This package never creates that
// directory; it belongs to the storage layer.
package identity

import (
	"errors"
	"fmt"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"quarzo.network/launcher/base58"
)

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	// KindMissingArtifact means the artifact file does not exist.
	KindMissingArtifact Kind = "MissingArtifact"
	// KindIO means the artifact exists but could not be read.
	KindIO Kind = "IO"
)

// Error is the package's structured error type. Message is for humans;
// branch on Kind, not on strings.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Identity is the Base58-rendered multihash of the bootstrap artifact.
type Identity string

func (id Identity) String() string { return string(id) }

// CID returns the CIDv0 equivalent of the identity. CIDv0 is defined as the
// bare Base58 multihash, so this is a lossless view for interop with
// content-addressed tooling.
func (id Identity) CID() (cid.Cid, error) {
	raw, err := base58.Decode(string(id))
	if err != nil {
		return cid.Undef, fmt.Errorf("identity: not base58: %w", err)
	}
	mh, err := multihash.Cast(raw)
	if err != nil {
		return cid.Undef, fmt.Errorf("identity: not a multihash: %w", err)
	}
	return cid.NewCidV0(mh), nil
}

// Artifact is a bootstrap artifact read into memory, with its derived
// identity. Immutable once read.
type Artifact struct {
	Path     string
	Bytes    []byte
	Identity Identity
}

// DeriveBytes computes the network identity of raw artifact bytes.
func DeriveBytes(b []byte) Identity {
	sum, err := multihash.Sum(b, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum with SHA2_256 and default length cannot fail.
		panic(err)
	}
	return Identity(base58.Encode(sum))
}

// DeriveFile reads the artifact at path and derives its identity.
//
// A missing file is reported as KindMissingArtifact, any other read failure
// as KindIO.
func DeriveFile(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &Error{
				Kind:    KindMissingArtifact,
				Path:    path,
				Message: fmt.Sprintf("bootstrap artifact not found: %s", path),
				Cause:   err,
			}
		}
		return nil, &Error{
			Kind:    KindIO,
			Path:    path,
			Message: fmt.Sprintf("reading bootstrap artifact %s: %v", path, err),
			Cause:   err,
		}
	}
	return &Artifact{Path: path, Bytes: b, Identity: DeriveBytes(b)}, nil
}

// Package keys manages the node's Ed25519 identity keypair.
//
// The root keypair signs as the node's account; a deterministic subkey,
// derived from the root seed with a domain-separated KDF, identifies the
// node on the p2p network. Seeds are stored as hex in 0600 files.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/sha3"

	"quarzo.network/launcher/identity"
)

const p2pDerivationLabel = "quarzo-launcher-p2p-v1"

// KeyPair is an Ed25519 node keypair.
type KeyPair struct {
	priv ed25519.PrivateKey
}

// Generate returns a fresh random keypair.
func Generate() (*KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{priv: priv}, nil
}

// FromSeed builds a keypair from a 32-byte seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keys: seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &KeyPair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// LoadOrGenerate loads the hex seed file at path, or generates a fresh
// keypair when path is empty.
func LoadOrGenerate(path string) (*KeyPair, error) {
	if path == "" {
		return Generate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keys: reading seed file %s: %w", path, err)
	}
	seed, err := parseSeedHex(string(b))
	if err != nil {
		return nil, fmt.Errorf("keys: seed file %s: %w", path, err)
	}
	return FromSeed(seed)
}

// Save writes the keypair's hex seed to path with owner-only permissions.
func (k *KeyPair) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	seed := k.priv.Seed()
	return os.WriteFile(path, []byte(hex.EncodeToString(seed)+"\n"), 0o600)
}

// Public returns the public key.
func (k *KeyPair) Public() ed25519.PublicKey {
	return k.priv.Public().(ed25519.PublicKey)
}

// Private returns the private key.
func (k *KeyPair) Private() ed25519.PrivateKey { return k.priv }

// AccountID renders the public key as a Base58 multihash, the same
// rendering scheme used for network identities.
func (k *KeyPair) AccountID() string {
	return string(identity.DeriveBytes(k.Public()))
}

// DeriveP2P deterministically derives the p2p subkey from the root seed.
// The derivation is domain-separated so the p2p key can never collide with
// a future subkey role.
func (k *KeyPair) DeriveP2P() (*KeyPair, error) {
	h := sha3.New256()
	_, _ = h.Write(k.priv.Seed())
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(p2pDerivationLabel))
	sum := h.Sum(nil)
	return FromSeed(sum[:ed25519.SeedSize])
}

func parseSeedHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected %d-byte seed, got %d", ed25519.SeedSize, len(b))
	}
	return b, nil
}

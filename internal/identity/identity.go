// Package identity defines owner identities and the keypair files that prove them.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
)

// Size is the byte length of an identity.
const Size = 32

// ID is a 32-byte owner identity (an ed25519 public key).
type ID [Size]byte

// ErrInvalidID is returned when text does not decode to a 32-byte identity.
var ErrInvalidID = errors.New("invalid identity")

// Parse decodes a base58 identity.
func Parse(s string) (ID, error) {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != Size {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	var id ID
	copy(id[:], raw)
	return id, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the base58 form.
func (id ID) String() string {
	return base58.Encode(id[:])
}

// IsZero reports whether id is all zeros.
func (id ID) IsZero() bool {
	return id == ID{}
}

// Keypair is an ed25519 signing key together with its identity.
type Keypair struct {
	private ed25519.PrivateKey
}

// Generate creates a new random keypair.
func Generate() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Keypair{private: priv}, nil
}

// FromSeed derives a keypair from a 32-byte seed. Deterministic; used by tests.
func FromSeed(seed []byte) *Keypair {
	return &Keypair{private: ed25519.NewKeyFromSeed(seed)}
}

// ID returns the public identity.
func (k *Keypair) ID() ID {
	var id ID
	copy(id[:], k.private.Public().(ed25519.PublicKey))
	return id
}

// Sign signs msg.
func (k *Keypair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.private, msg)
}

// Verify reports whether sig is a valid signature of msg by id.
func Verify(id ID, msg, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(id[:]), msg, sig)
}

// LoadKeypair reads a keypair file: a JSON array of the 64 private key bytes.
func LoadKeypair(path string) (*Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keypair: %w", err)
	}
	var raw []byte
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("invalid keypair file %s: %w", path, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair file %s: expected %d bytes, got %d", path, ed25519.PrivateKeySize, len(ints))
	}
	raw = make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("invalid keypair file %s: byte %d out of range", path, i)
		}
		raw[i] = byte(v)
	}

	kp := FromSeed(raw[:ed25519.SeedSize])
	if !kp.private.Equal(ed25519.PrivateKey(raw)) {
		return nil, fmt.Errorf("invalid keypair file %s: public key does not match seed", path)
	}
	return kp, nil
}

// SaveKeypair writes the keypair to path with mode 0600.
// The byte array is written as integers to stay compatible with wallet tooling.
func SaveKeypair(path string, k *Keypair) error {
	ints := make([]int, len(k.private))
	for i, b := range k.private {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

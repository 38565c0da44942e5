// Package address derives the record address of an owner's task list.
//
// Addresses are program-derived: a sha256 over the namespace tag, the owner,
// a bump byte, the program identity and a fixed marker, searched downward from
// bump 255 until the digest is not a valid ed25519 point. A point off the curve
// has no private key, so only the program can write there.
package address

import (
	"crypto/sha256"

	"filippo.io/edwards25519"

	"taskledger/internal/identity"
)

// Namespace is the seed that scopes task list records.
const Namespace = "task_list"

const pdaMarker = "ProgramDerivedAddress"

// DefaultProgramID is the identity of the original task manager deployment.
var DefaultProgramID = identity.MustParse("8N5ugPhfbeMakrLqnqoAFHnVdWwjGLWMrQZSw9Ajathk")

// Address is a 32-byte record location. It shares the identity text form.
type Address = identity.ID

// Deriver computes record addresses for one program identity.
type Deriver struct {
	ProgramID identity.ID
}

// NewDeriver returns a Deriver for programID.
func NewDeriver(programID identity.ID) Deriver {
	return Deriver{ProgramID: programID}
}

// Derive returns the record address for owner and the bump that produced it.
func (d Deriver) Derive(owner identity.ID) (Address, uint8) {
	for bump := 255; bump >= 0; bump-- {
		candidate := hashSeeds(d.ProgramID, []byte(Namespace), owner[:], []byte{byte(bump)})
		if !onCurve(candidate) {
			return candidate, uint8(bump)
		}
	}
	// Each bump lands on the curve with probability about one half; exhausting
	// all 256 is not a reachable state for sha256 output.
	panic("address: no off-curve bump found")
}

// Address is Derive without the bump.
func (d Deriver) Address(owner identity.ID) Address {
	addr, _ := d.Derive(owner)
	return addr
}

// Verify reports whether addr is the derived address of owner.
func (d Deriver) Verify(owner identity.ID, addr Address) bool {
	return d.Address(owner) == addr
}

func hashSeeds(programID identity.ID, seeds ...[]byte) Address {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

func onCurve(b Address) bool {
	_, err := new(edwards25519.Point).SetBytes(b[:])
	return err == nil
}

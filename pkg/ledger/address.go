package ledger

import (
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLen is the raw byte length of a ledger address (an ed25519 point
// or a program-derived address, which is deliberately off-curve).
const AddressLen = 32

// Address is a 32-byte ledger account address, rendered as base58 text.
type Address [AddressLen]byte

// ParseAddress decodes a base58 address string. It rejects anything that
// does not decode to exactly 32 bytes.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("ledger: decode address %q: %w", s, err)
	}
	if len(raw) != AddressLen {
		return a, fmt.Errorf("ledger: address %q is %d bytes, want %d", s, len(raw), AddressLen)
	}
	copy(a[:], raw)
	return a, nil
}

// MustAddress parses a base58 address and panics on failure. For the fixed
// well-known program addresses only.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string { return base58.Encode(a[:]) }

// Bytes returns the raw 32-byte form.
func (a Address) Bytes() []byte { return a[:] }

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool { return a == Address{} }

// pdaMarker terminates the seed hash so a derived address can never collide
// with a hash computed over different seed boundaries.
var pdaMarker = []byte("ProgramDerivedAddress")

const maxSeeds = 16

// CreateProgramAddress derives the address for the given seeds under
// program. It fails when the candidate lands on the ed25519 curve, since a
// derived address must have no corresponding private key.
func CreateProgramAddress(seeds [][]byte, program Address) (Address, error) {
	var a Address
	if len(seeds) > maxSeeds {
		return a, fmt.Errorf("ledger: %d seeds exceeds the maximum of %d", len(seeds), maxSeeds)
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > AddressLen {
			return a, fmt.Errorf("ledger: seed of %d bytes exceeds the maximum of %d", len(seed), AddressLen)
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write(pdaMarker)
	sum := h.Sum(nil)
	if isOnCurve(sum) {
		return a, fmt.Errorf("ledger: derived address is on the ed25519 curve")
	}
	copy(a[:], sum)
	return a, nil
}

// FindProgramAddress searches bump seeds from 255 downward until the
// derivation lands off-curve, returning the address and the bump used.
// Exhausting every bump is possible in principle and surfaces as an error.
func FindProgramAddress(seeds [][]byte, program Address) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		candidate, err := CreateProgramAddress(append(seeds, []byte{byte(bump)}), program)
		if err == nil {
			return candidate, uint8(bump), nil
		}
	}
	return Address{}, 0, fmt.Errorf("ledger: no viable bump seed for program %s", program)
}

// AssociatedTokenAddress derives the canonical token account holding
// owner's balance of mint.
func AssociatedTokenAddress(owner, mint Address) (Address, error) {
	addr, _, err := FindProgramAddress(
		[][]byte{owner[:], TokenProgramID[:], mint[:]},
		AssociatedTokenProgramID,
	)
	return addr, err
}

func isOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

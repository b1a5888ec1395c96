package ledger

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// Hash is a 32-byte ledger hash, most importantly the recent blockhash a
// transaction carries as its validity anchor.
type Hash [32]byte

// ParseHash decodes a base58 hash string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	raw, err := base58.Decode(s)
	if err != nil {
		return h, fmt.Errorf("ledger: decode hash %q: %w", s, err)
	}
	if len(raw) != len(h) {
		return h, fmt.Errorf("ledger: hash %q is %d bytes, want %d", s, len(raw), len(h))
	}
	copy(h[:], raw)
	return h, nil
}

func (h Hash) String() string { return base58.Encode(h[:]) }

// IsZero reports whether the hash is unset.
func (h Hash) IsZero() bool { return h == Hash{} }

// Transaction is an ordered list of instructions plus the fee payer and
// recent blockhash. It is assembled unsigned; signing and submission are
// the wallet's job.
type Transaction struct {
	FeePayer        Address
	RecentBlockhash Hash
	Instructions    []Instruction
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction { return &Transaction{} }

// Add appends instructions in order.
func (tx *Transaction) Add(ins ...Instruction) {
	tx.Instructions = append(tx.Instructions, ins...)
}

type compiledKey struct {
	addr     Address
	signer   bool
	writable bool
}

// compileKeys builds the deduplicated account table in the canonical
// order: writable signers first (fee payer at index 0), then read-only
// signers, writable non-signers, and read-only non-signers last.
func (tx *Transaction) compileKeys() []compiledKey {
	index := map[Address]int{}
	var keys []compiledKey

	upsert := func(addr Address, signer, writable bool) {
		if i, ok := index[addr]; ok {
			keys[i].signer = keys[i].signer || signer
			keys[i].writable = keys[i].writable || writable
			return
		}
		index[addr] = len(keys)
		keys = append(keys, compiledKey{addr: addr, signer: signer, writable: writable})
	}

	upsert(tx.FeePayer, true, true)
	for _, ins := range tx.Instructions {
		for _, acc := range ins.Accounts {
			upsert(acc.Pubkey, acc.IsSigner, acc.IsWritable)
		}
		upsert(ins.ProgramID, false, false)
	}

	rank := func(k compiledKey) int {
		switch {
		case k.addr == tx.FeePayer:
			return 0
		case k.signer && k.writable:
			return 1
		case k.signer:
			return 2
		case k.writable:
			return 3
		default:
			return 4
		}
	}
	// stable insertion-order sort within each rank
	sorted := make([]compiledKey, 0, len(keys))
	for r := 0; r <= 4; r++ {
		for _, k := range keys {
			if rank(k) == r {
				sorted = append(sorted, k)
			}
		}
	}
	return sorted
}

// Message serializes the transaction into the legacy wire message that
// gets signed: header, account table, blockhash, compiled instructions.
func (tx *Transaction) Message() ([]byte, error) {
	if tx.FeePayer.IsZero() {
		return nil, errors.New("ledger: transaction has no fee payer")
	}
	if tx.RecentBlockhash.IsZero() {
		return nil, errors.New("ledger: transaction has no recent blockhash")
	}
	if len(tx.Instructions) == 0 {
		return nil, errors.New("ledger: transaction has no instructions")
	}

	keys := tx.compileKeys()
	index := make(map[Address]int, len(keys))
	var numSigners, numReadonlySigned, numReadonlyUnsigned int
	for i, k := range keys {
		index[k.addr] = i
		if k.signer {
			numSigners++
			if !k.writable {
				numReadonlySigned++
			}
		} else if !k.writable {
			numReadonlyUnsigned++
		}
	}

	var out []byte
	out = append(out, byte(numSigners), byte(numReadonlySigned), byte(numReadonlyUnsigned))
	out = appendCompactU16(out, len(keys))
	for _, k := range keys {
		out = append(out, k.addr[:]...)
	}
	out = append(out, tx.RecentBlockhash[:]...)
	out = appendCompactU16(out, len(tx.Instructions))
	for _, ins := range tx.Instructions {
		out = append(out, byte(index[ins.ProgramID]))
		out = appendCompactU16(out, len(ins.Accounts))
		for _, acc := range ins.Accounts {
			out = append(out, byte(index[acc.Pubkey]))
		}
		out = appendCompactU16(out, len(ins.Data))
		out = append(out, ins.Data...)
	}
	return out, nil
}

// Serialize produces the full wire transaction with zeroed signature
// slots, the form a wallet accepts for signing.
func (tx *Transaction) Serialize() ([]byte, error) {
	msg, err := tx.Message()
	if err != nil {
		return nil, err
	}
	numSigners := int(msg[0])
	out := appendCompactU16(nil, numSigners)
	out = append(out, make([]byte, 64*numSigners)...)
	return append(out, msg...), nil
}

// SerializeBase64 renders the unsigned wire transaction as base64, the
// encoding the action protocol returns to clients.
func (tx *Transaction) SerializeBase64() (string, error) {
	raw, err := tx.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// appendCompactU16 encodes v as the variable-length shortvec length prefix.
func appendCompactU16(b []byte, v int) []byte {
	for v >= 0x80 {
		b = append(b, byte(v&0x7f|0x80))
		v >>= 7
	}
	return append(b, byte(v))
}

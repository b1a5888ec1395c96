// Package otc is the client-side boundary to the on-chain OTC program:
// account decoding and unsigned instruction construction. It never
// reimplements the program's own execution semantics.
package otc

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/uhyunpark/otc-actions/pkg/ledger"
)

// Side is the closed order-side variant. Every switch over it must be
// exhaustive.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// ParseSide maps the wire/query spelling to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("otc: unknown side %q", s)
	}
}

// Order is a read-only snapshot of an on-chain order account. All amounts
// are in base units. The program owns and mutates the account; this type
// only observes it.
type Order struct {
	ID         uint64
	TokenID    uint64
	ExToken    ledger.Address
	Side       Side
	Amount     uint64
	Filled     uint64
	Collateral uint64
	Value      uint64
	CreatedAt  int64
}

// Remaining is the unfilled quantity, as a big integer so downstream
// ratio math never overflows.
func (o *Order) Remaining() *big.Int {
	return new(big.Int).SetUint64(o.Amount - o.Filled)
}

// Config is the program's global counters account.
type Config struct {
	Authority   ledger.Address
	LastOrderID uint64
	LastTradeID uint64
}

// anchor-style 8-byte tags identifying account types and methods
func tag(name string) [8]byte {
	sum := sha256.Sum256([]byte(name))
	var t [8]byte
	copy(t[:], sum[:8])
	return t
}

var (
	orderAccountTag  = tag("account:OrderAccount")
	configAccountTag = tag("account:ConfigAccount")
	createOrderTag   = tag("global:create_order")
	fillOrderTag     = tag("global:fill_order")
)

const (
	orderAccountLen  = 8 + 8 + 8 + ledger.AddressLen + 1 + 8 + 8 + 8 + 8 + 8
	configAccountLen = 8 + ledger.AddressLen + 8 + 8
)

// DecodeOrder parses a raw order account. It rejects foreign account
// types and snapshots that violate filled <= amount, which would mean
// corrupted program state.
func DecodeOrder(data []byte) (*Order, error) {
	if len(data) < orderAccountLen {
		return nil, fmt.Errorf("otc: order account is %d bytes, want %d", len(data), orderAccountLen)
	}
	if [8]byte(data[:8]) != orderAccountTag {
		return nil, fmt.Errorf("otc: not an order account")
	}
	o := &Order{}
	off := 8
	o.ID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	o.TokenID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	copy(o.ExToken[:], data[off:])
	off += ledger.AddressLen
	switch Side(data[off]) {
	case Buy, Sell:
		o.Side = Side(data[off])
	default:
		return nil, fmt.Errorf("otc: order %d has invalid side %d", o.ID, data[off])
	}
	off++
	o.Amount = binary.LittleEndian.Uint64(data[off:])
	off += 8
	o.Filled = binary.LittleEndian.Uint64(data[off:])
	off += 8
	o.Collateral = binary.LittleEndian.Uint64(data[off:])
	off += 8
	o.Value = binary.LittleEndian.Uint64(data[off:])
	off += 8
	o.CreatedAt = int64(binary.LittleEndian.Uint64(data[off:]))

	if o.Filled > o.Amount {
		return nil, fmt.Errorf("otc: order %d filled %d exceeds amount %d", o.ID, o.Filled, o.Amount)
	}
	return o, nil
}

// IsOrderAccount reports whether raw account data carries the order tag.
// Used to skip the program's other account types when scanning.
func IsOrderAccount(data []byte) bool {
	return len(data) >= 8 && [8]byte(data[:8]) == orderAccountTag
}

// DecodeConfig parses the program's global config account.
func DecodeConfig(data []byte) (*Config, error) {
	if len(data) < configAccountLen {
		return nil, fmt.Errorf("otc: config account is %d bytes, want %d", len(data), configAccountLen)
	}
	if [8]byte(data[:8]) != configAccountTag {
		return nil, fmt.Errorf("otc: not a config account")
	}
	c := &Config{}
	off := 8
	copy(c.Authority[:], data[off:])
	off += ledger.AddressLen
	c.LastOrderID = binary.LittleEndian.Uint64(data[off:])
	off += 8
	c.LastTradeID = binary.LittleEndian.Uint64(data[off:])
	return c, nil
}

func u64le(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

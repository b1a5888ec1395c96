// Package otctest provides account fixtures and a fake ledger reader for
// exercising the SDK and everything above it without a node.
package otctest

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/uhyunpark/otc-actions/pkg/ledger"
	"github.com/uhyunpark/otc-actions/pkg/otc"
)

func accountTag(name string) []byte {
	sum := sha256.Sum256([]byte("account:" + name))
	return sum[:8]
}

// MarshalOrder encodes an order snapshot in the program's account layout.
func MarshalOrder(o *otc.Order) []byte {
	data := accountTag("OrderAccount")
	data = append(data, u64le(o.ID)...)
	data = append(data, u64le(o.TokenID)...)
	data = append(data, o.ExToken[:]...)
	data = append(data, byte(o.Side))
	data = append(data, u64le(o.Amount)...)
	data = append(data, u64le(o.Filled)...)
	data = append(data, u64le(o.Collateral)...)
	data = append(data, u64le(o.Value)...)
	data = append(data, u64le(uint64(o.CreatedAt))...)
	return data
}

// MarshalConfig encodes the program's global counters account.
func MarshalConfig(c *otc.Config) []byte {
	data := accountTag("ConfigAccount")
	data = append(data, c.Authority[:]...)
	data = append(data, u64le(c.LastOrderID)...)
	data = append(data, u64le(c.LastTradeID)...)
	return data
}

// Reader is an in-memory otc.AccountReader backed by a map of raw
// accounts, plus an optional forced error for failure-path tests.
type Reader struct {
	mu       sync.RWMutex
	accounts map[ledger.Address][]byte
	owner    map[ledger.Address]ledger.Address
	Err      error
}

// NewReader returns an empty fake reader.
func NewReader() *Reader {
	return &Reader{
		accounts: make(map[ledger.Address][]byte),
		owner:    make(map[ledger.Address]ledger.Address),
	}
}

// Put stores raw account data under addr, owned by program.
func (r *Reader) Put(program, addr ledger.Address, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[addr] = data
	r.owner[addr] = program
}

func (r *Reader) GetAccountInfo(_ context.Context, addr ledger.Address) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	data, ok := r.accounts[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, addr)
	}
	return data, nil
}

func (r *Reader) GetProgramAccounts(_ context.Context, program ledger.Address) ([]ledger.KeyedAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []ledger.KeyedAccount
	for addr, data := range r.accounts {
		if r.owner[addr] == program {
			out = append(out, ledger.KeyedAccount{Pubkey: addr, Data: data})
		}
	}
	return out, nil
}

func u64le(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

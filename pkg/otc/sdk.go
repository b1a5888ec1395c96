package otc

import (
	"context"
	"fmt"
	"sort"

	"github.com/uhyunpark/otc-actions/pkg/ledger"
)

// AccountReader is the slice of the ledger RPC surface the SDK needs.
// *ledger.Client satisfies it; tests inject fakes.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, addr ledger.Address) ([]byte, error)
	GetProgramAccounts(ctx context.Context, program ledger.Address) ([]ledger.KeyedAccount, error)
}

// SDK reads OTC program accounts and builds the program's unsigned
// instructions. All collaborators are injected; there is no package-level
// state.
type SDK struct {
	reader    AccountReader
	programID ledger.Address
	authority ledger.Address
}

// NewSDK builds an SDK bound to one program deployment.
func NewSDK(reader AccountReader, programID, authority ledger.Address) *SDK {
	return &SDK{reader: reader, programID: programID, authority: authority}
}

// ProgramID returns the bound program address.
func (s *SDK) ProgramID() ledger.Address { return s.programID }

// ConfigAddress derives the program's global config account address.
func (s *SDK) ConfigAddress() (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress([][]byte{[]byte("config")}, s.programID)
	return addr, err
}

// OrderAddress derives the account address for order id.
func (s *SDK) OrderAddress(id uint64) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress([][]byte{[]byte("order"), u64le(id)}, s.programID)
	return addr, err
}

func (s *SDK) tradeAddress(id uint64) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress([][]byte{[]byte("trade"), u64le(id)}, s.programID)
	return addr, err
}

func (s *SDK) vaultAddress(mint ledger.Address) (ledger.Address, error) {
	addr, _, err := ledger.FindProgramAddress([][]byte{[]byte("vault"), mint[:]}, s.programID)
	return addr, err
}

// FetchOrder reads the current snapshot of one order.
func (s *SDK) FetchOrder(ctx context.Context, id uint64) (*Order, error) {
	addr, err := s.OrderAddress(id)
	if err != nil {
		return nil, err
	}
	data, err := s.reader.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	return DecodeOrder(data)
}

// FetchConfig reads the program's global counters.
func (s *SDK) FetchConfig(ctx context.Context) (*Config, error) {
	addr, err := s.ConfigAddress()
	if err != nil {
		return nil, err
	}
	data, err := s.reader.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	return DecodeConfig(data)
}

// FetchLastOrderID returns the id of the most recently created order.
func (s *SDK) FetchLastOrderID(ctx context.Context) (uint64, error) {
	cfg, err := s.FetchConfig(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.LastOrderID, nil
}

// FetchLastTradeID returns the id of the most recently recorded trade.
func (s *SDK) FetchLastTradeID(ctx context.Context) (uint64, error) {
	cfg, err := s.FetchConfig(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.LastTradeID, nil
}

// ListOrders scans every program account, keeps the order accounts, and
// returns them oldest first.
func (s *SDK) ListOrders(ctx context.Context) ([]*Order, error) {
	accounts, err := s.reader.GetProgramAccounts(ctx, s.programID)
	if err != nil {
		return nil, err
	}
	orders := make([]*Order, 0, len(accounts))
	for _, acc := range accounts {
		if !IsOrderAccount(acc.Data) {
			continue
		}
		order, err := DecodeOrder(acc.Data)
		if err != nil {
			return nil, fmt.Errorf("otc: account %s: %w", acc.Pubkey, err)
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt < orders[j].CreatedAt })
	return orders, nil
}

// CreateOrderParams carries the already-validated arguments for a
// create-order instruction.
type CreateOrderParams struct {
	OrderID      uint64
	TokenID      uint64
	Side         Side
	ExToken      ledger.Address
	Amount       uint64
	Value        uint64
	Deadline     int64
	AllowPartial bool
}

// CreateOrderInstruction builds the unsigned create-order instruction.
// The creator signs and funds the order's collateral vault.
func (s *SDK) CreateOrderInstruction(creator ledger.Address, p CreateOrderParams) (ledger.Instruction, error) {
	configAddr, err := s.ConfigAddress()
	if err != nil {
		return ledger.Instruction{}, err
	}
	orderAddr, err := s.OrderAddress(p.OrderID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	vault, err := s.vaultAddress(p.ExToken)
	if err != nil {
		return ledger.Instruction{}, err
	}
	creatorATA, err := ledger.AssociatedTokenAddress(creator, p.ExToken)
	if err != nil {
		return ledger.Instruction{}, err
	}

	data := createOrderTag[:]
	data = append(data, u64le(p.OrderID)...)
	data = append(data, u64le(p.TokenID)...)
	data = append(data, byte(p.Side))
	data = append(data, u64le(p.Amount)...)
	data = append(data, u64le(p.Value)...)
	data = append(data, u64le(uint64(p.Deadline))...)
	if p.AllowPartial {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}

	return ledger.Instruction{
		ProgramID: s.programID,
		Accounts: []ledger.AccountMeta{
			{Pubkey: configAddr, IsWritable: true},
			{Pubkey: orderAddr, IsWritable: true},
			{Pubkey: creator, IsSigner: true, IsWritable: true},
			{Pubkey: p.ExToken},
			{Pubkey: creatorATA, IsWritable: true},
			{Pubkey: vault, IsWritable: true},
			{Pubkey: ledger.TokenProgramID},
			{Pubkey: ledger.SystemProgramID},
			{Pubkey: ledger.SysvarRentID},
		},
		Data: data,
	}, nil
}

// FillOrderInstruction builds the unsigned fill-order instruction for the
// given trade id and fill amount (base units).
func (s *SDK) FillOrderInstruction(filler, exToken ledger.Address, orderID, tradeID, amount uint64) (ledger.Instruction, error) {
	configAddr, err := s.ConfigAddress()
	if err != nil {
		return ledger.Instruction{}, err
	}
	orderAddr, err := s.OrderAddress(orderID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	tradeAddr, err := s.tradeAddress(tradeID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	vault, err := s.vaultAddress(exToken)
	if err != nil {
		return ledger.Instruction{}, err
	}
	fillerATA, err := ledger.AssociatedTokenAddress(filler, exToken)
	if err != nil {
		return ledger.Instruction{}, err
	}

	data := fillOrderTag[:]
	data = append(data, u64le(orderID)...)
	data = append(data, u64le(tradeID)...)
	data = append(data, u64le(amount)...)

	return ledger.Instruction{
		ProgramID: s.programID,
		Accounts: []ledger.AccountMeta{
			{Pubkey: configAddr, IsWritable: true},
			{Pubkey: orderAddr, IsWritable: true},
			{Pubkey: tradeAddr, IsWritable: true},
			{Pubkey: filler, IsSigner: true, IsWritable: true},
			{Pubkey: exToken},
			{Pubkey: fillerATA, IsWritable: true},
			{Pubkey: vault, IsWritable: true},
			{Pubkey: ledger.TokenProgramID},
			{Pubkey: ledger.SystemProgramID},
		},
		Data: data,
	}, nil
}

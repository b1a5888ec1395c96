package action

import (
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uhyunpark/otc-actions/pkg/ledger"
	"github.com/uhyunpark/otc-actions/pkg/otc"
	"github.com/uhyunpark/otc-actions/pkg/otc/otctest"
)

type fakeChain struct {
	blockhash  ledger.Hash
	minBalance uint64
	hashErr    error
}

func (f *fakeChain) GetLatestBlockhash(context.Context) (ledger.Hash, error) {
	return f.blockhash, f.hashErr
}

func (f *fakeChain) GetMinimumBalanceForRentExemption(context.Context, uint64) (uint64, error) {
	return f.minBalance, nil
}

var (
	testProgram   = ledger.Address{0xAA, 1}
	testAuthority = ledger.Address{0xBB, 2}
	testPayer     = ledger.Address{0xCC, 3}
)

func newTestComposer(t *testing.T, order *otc.Order) (*Composer, *fakeChain) {
	t.Helper()
	reader := otctest.NewReader()
	sdk := otc.NewSDK(reader, testProgram, testAuthority)

	configAddr, err := sdk.ConfigAddress()
	require.NoError(t, err)
	reader.Put(testProgram, configAddr, otctest.MarshalConfig(&otc.Config{
		Authority:   testAuthority,
		LastOrderID: 9,
		LastTradeID: 41,
	}))

	if order != nil {
		orderAddr, err := sdk.OrderAddress(order.ID)
		require.NoError(t, err)
		reader.Put(testProgram, orderAddr, otctest.MarshalOrder(order))
	}

	chain := &fakeChain{blockhash: ledger.Hash{0xFE, 0xED}}
	return NewComposer(sdk, chain, zap.NewNop()), chain
}

func TestComposeFill_WrapsNativeCounterAsset(t *testing.T) {
	order := &otc.Order{
		ID:         5,
		ExToken:    ledger.NativeMint,
		Side:       otc.Buy,
		Amount:     1_000_000_000,
		Collateral: 2_000_000_000,
	}
	composer, chain := newTestComposer(t, order)

	fill := big.NewInt(500_000_000)
	value := big.NewInt(1_000_000_000)
	tx, err := composer.ComposeFill(context.Background(), testPayer, order, fill, value)
	require.NoError(t, err)

	// wrap prefix order is mandatory: create account, fund it, sync, fill
	require.Len(t, tx.Instructions, 4)
	require.Equal(t, ledger.AssociatedTokenProgramID, tx.Instructions[0].ProgramID)
	require.Equal(t, ledger.SystemProgramID, tx.Instructions[1].ProgramID)
	require.Equal(t, ledger.TokenProgramID, tx.Instructions[2].ProgramID)
	require.Equal(t, testProgram, tx.Instructions[3].ProgramID)

	// the transfer moves exactly the proportional value owed
	transfer := tx.Instructions[1].Data
	require.Equal(t, value.Uint64(), binary.LittleEndian.Uint64(transfer[4:12]))

	require.Equal(t, testPayer, tx.FeePayer)
	require.Equal(t, chain.blockhash, tx.RecentBlockhash)
}

func TestComposeFill_SkipsWrapForNonNativeAsset(t *testing.T) {
	order := &otc.Order{
		ID:         5,
		ExToken:    ledger.Address{0x11},
		Side:       otc.Sell,
		Amount:     1_000_000_000,
		Collateral: 2_000_000_000,
	}
	composer, _ := newTestComposer(t, order)

	tx, err := composer.ComposeFill(context.Background(), testPayer, order, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)
	require.Len(t, tx.Instructions, 1)
	require.Equal(t, testProgram, tx.Instructions[0].ProgramID)
}

func TestComposeFill_AnchorFetchFailureAbortsWhole(t *testing.T) {
	order := &otc.Order{ID: 5, ExToken: ledger.NativeMint, Amount: 10, Collateral: 10}
	composer, chain := newTestComposer(t, order)
	chain.hashErr = errors.New("rpc down")

	tx, err := composer.ComposeFill(context.Background(), testPayer, order, big.NewInt(1), big.NewInt(1))
	require.Nil(t, tx)
	require.Equal(t, CodeUpstream, CodeOf(err))
}

func TestComposeCreate(t *testing.T) {
	composer, chain := newTestComposer(t, nil)
	chain.minBalance = 890_880

	tx, err := composer.ComposeCreate(context.Background(), testPayer, CreateParams{
		Side:    otc.Buy,
		ExToken: ledger.NativeMint,
		Amount:  big.NewInt(1_000_000_000),
		Value:   big.NewInt(3_000_000_000),
	})
	require.NoError(t, err)

	// priority fee, wrap prefix, create
	require.Len(t, tx.Instructions, 5)
	require.Equal(t, ledger.ComputeBudgetProgramID, tx.Instructions[0].ProgramID)
	require.Equal(t, testProgram, tx.Instructions[4].ProgramID)
	require.Equal(t, testPayer, tx.FeePayer)
	require.False(t, tx.RecentBlockhash.IsZero())
}

func TestComposeCreate_RejectsValueBelowRentFloor(t *testing.T) {
	composer, chain := newTestComposer(t, nil)
	chain.minBalance = 890_880

	tx, err := composer.ComposeCreate(context.Background(), testPayer, CreateParams{
		Side:    otc.Buy,
		ExToken: ledger.NativeMint,
		Amount:  big.NewInt(1_000_000),
		Value:   big.NewInt(1_000),
	})
	require.Nil(t, tx)
	require.Equal(t, CodeAmountOutOfRange, CodeOf(err))
}

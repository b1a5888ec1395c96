package action

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"github.com/uhyunpark/otc-actions/pkg/ledger"
	"github.com/uhyunpark/otc-actions/pkg/otc"
)

// ChainReader is the slice of the ledger RPC surface composition needs.
type ChainReader interface {
	GetLatestBlockhash(ctx context.Context) (ledger.Hash, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataLen uint64) (uint64, error)
}

// priority fee attached to create-order transactions, micro-lamports per
// compute unit
const computeUnitPrice = 10_000

// Composer assembles unsigned ledger transactions for order actions. It
// never signs, submits, or waits for confirmation. All collaborators are
// injected; two composers never share mutable state.
type Composer struct {
	sdk   *otc.SDK
	chain ChainReader
	log   *zap.Logger
}

// NewComposer builds a composer over the given SDK and chain reader.
func NewComposer(sdk *otc.SDK, chain ChainReader, log *zap.Logger) *Composer {
	return &Composer{sdk: sdk, chain: chain, log: log}
}

// CreateParams carries validated inputs for a create-order transaction.
// Amounts are base units.
type CreateParams struct {
	Side         otc.Side
	TokenID      uint64
	ExToken      ledger.Address
	Amount       *big.Int
	Value        *big.Int
	Deadline     int64
	AllowPartial bool
}

// ComposeFill builds the complete fill transaction: when the counter
// asset is the wrapped native mint, a wrap prefix funds the payer's token
// account with exactly the proportional value owed, then the fill
// instruction consumes it. Any sub-step failure aborts the whole compose;
// a partial transaction is never returned.
func (c *Composer) ComposeFill(ctx context.Context, payer ledger.Address, order *otc.Order, fill, value *big.Int) (*ledger.Transaction, error) {
	if !fill.IsUint64() || !value.IsUint64() {
		return nil, Err(CodeCompose, "Fill amount exceeds the representable range")
	}

	lastTradeID, err := c.sdk.FetchLastTradeID(ctx)
	if err != nil {
		return nil, Wrap(CodeUpstream, "Ledger read failed", err)
	}

	tx := ledger.NewTransaction()
	if err := c.addWrapPrefix(tx, payer, order.ExToken, value.Uint64()); err != nil {
		return nil, err
	}

	fillIx, err := c.sdk.FillOrderInstruction(payer, order.ExToken, order.ID, lastTradeID+1, fill.Uint64())
	if err != nil {
		return nil, Wrap(CodeCompose, "Transaction assembly failed", err)
	}
	tx.Add(fillIx)

	return c.finalize(ctx, tx, payer)
}

// ComposeCreate builds the complete create-order transaction: priority
// fee first, then the wrap prefix sized to the collateral the order
// locks, then the create instruction. The wrapped amount must clear the
// rent-exemption floor or the funded account could be reaped.
func (c *Composer) ComposeCreate(ctx context.Context, payer ledger.Address, p CreateParams) (*ledger.Transaction, error) {
	if !p.Amount.IsUint64() || !p.Value.IsUint64() {
		return nil, Err(CodeCompose, "Order amount exceeds the representable range")
	}

	lastOrderID, err := c.sdk.FetchLastOrderID(ctx)
	if err != nil {
		return nil, Wrap(CodeUpstream, "Ledger read failed", err)
	}

	wrapNative := p.ExToken == ledger.NativeMint
	if wrapNative {
		minBalance, err := c.chain.GetMinimumBalanceForRentExemption(ctx, 0)
		if err != nil {
			return nil, Wrap(CodeUpstream, "Ledger read failed", err)
		}
		if p.Value.Uint64() < minBalance {
			return nil, Err(CodeAmountOutOfRange, "Wrapped amount is below the rent-exempt minimum")
		}
	}

	tx := ledger.NewTransaction()
	tx.Add(ledger.SetComputeUnitPrice(computeUnitPrice))
	if err := c.addWrapPrefix(tx, payer, p.ExToken, p.Value.Uint64()); err != nil {
		return nil, err
	}

	createIx, err := c.sdk.CreateOrderInstruction(payer, otc.CreateOrderParams{
		OrderID:      lastOrderID + 1,
		TokenID:      p.TokenID,
		Side:         p.Side,
		ExToken:      p.ExToken,
		Amount:       p.Amount.Uint64(),
		Value:        p.Value.Uint64(),
		Deadline:     p.Deadline,
		AllowPartial: p.AllowPartial,
	})
	if err != nil {
		return nil, Wrap(CodeCompose, "Transaction assembly failed", err)
	}
	tx.Add(createIx)

	return c.finalize(ctx, tx, payer)
}

// addWrapPrefix appends the currency-wrap steps when mint is the wrapped
// native mint. The order is load-bearing: the token account must exist
// before the transfer, and the sync must run after the transfer lands or
// the wrapped balance stays stale.
func (c *Composer) addWrapPrefix(tx *ledger.Transaction, payer, mint ledger.Address, lamports uint64) error {
	if mint != ledger.NativeMint {
		return nil
	}
	createATA, err := ledger.CreateAssociatedTokenAccount(payer, payer, mint)
	if err != nil {
		return Wrap(CodeCompose, "Transaction assembly failed", err)
	}
	ata, err := ledger.AssociatedTokenAddress(payer, mint)
	if err != nil {
		return Wrap(CodeCompose, "Transaction assembly failed", err)
	}
	tx.Add(
		createATA,
		ledger.SystemTransfer(payer, ata, lamports),
		ledger.SyncNative(ata),
	)
	return nil
}

// finalize stamps the fee payer and a fresh anchor reference immediately
// before returning, so the transaction does not go stale between
// composition and signing.
func (c *Composer) finalize(ctx context.Context, tx *ledger.Transaction, payer ledger.Address) (*ledger.Transaction, error) {
	tx.FeePayer = payer
	blockhash, err := c.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, Wrap(CodeUpstream, "Ledger read failed", err)
	}
	tx.RecentBlockhash = blockhash
	c.log.Debug("transaction_composed",
		zap.String("fee_payer", payer.String()),
		zap.Int("instructions", len(tx.Instructions)),
	)
	return tx, nil
}

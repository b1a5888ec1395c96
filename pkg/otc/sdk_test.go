package otc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/uhyunpark/otc-actions/pkg/ledger"
	"github.com/uhyunpark/otc-actions/pkg/otc"
	"github.com/uhyunpark/otc-actions/pkg/otc/otctest"
)

var (
	program   = ledger.Address{0xAA}
	authority = ledger.Address{0xBB}
	filler    = ledger.Address{0xCC}
)

func newTestSDK(t *testing.T) (*otc.SDK, *otctest.Reader) {
	t.Helper()
	reader := otctest.NewReader()
	sdk := otc.NewSDK(reader, program, authority)

	configAddr, err := sdk.ConfigAddress()
	if err != nil {
		t.Fatalf("ConfigAddress: %v", err)
	}
	reader.Put(program, configAddr, otctest.MarshalConfig(&otc.Config{
		Authority:   authority,
		LastOrderID: 7,
		LastTradeID: 19,
	}))
	return sdk, reader
}

func putOrder(t *testing.T, sdk *otc.SDK, reader *otctest.Reader, order *otc.Order) {
	t.Helper()
	addr, err := sdk.OrderAddress(order.ID)
	if err != nil {
		t.Fatalf("OrderAddress: %v", err)
	}
	reader.Put(program, addr, otctest.MarshalOrder(order))
}

func TestFetchOrder(t *testing.T) {
	sdk, reader := newTestSDK(t)
	putOrder(t, sdk, reader, &otc.Order{ID: 5, Amount: 100, Filled: 40, CreatedAt: 2})

	order, err := sdk.FetchOrder(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchOrder: %v", err)
	}
	if order.ID != 5 || order.Remaining().Uint64() != 60 {
		t.Errorf("order = %+v", order)
	}

	if _, err := sdk.FetchOrder(context.Background(), 6); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("missing order error = %v, want ErrAccountNotFound", err)
	}
}

func TestFetchCounters(t *testing.T) {
	sdk, _ := newTestSDK(t)

	lastOrder, err := sdk.FetchLastOrderID(context.Background())
	if err != nil {
		t.Fatalf("FetchLastOrderID: %v", err)
	}
	lastTrade, err := sdk.FetchLastTradeID(context.Background())
	if err != nil {
		t.Fatalf("FetchLastTradeID: %v", err)
	}
	if lastOrder != 7 || lastTrade != 19 {
		t.Errorf("counters = %d/%d, want 7/19", lastOrder, lastTrade)
	}
}

func TestListOrders_SortedOldestFirst(t *testing.T) {
	sdk, reader := newTestSDK(t)
	putOrder(t, sdk, reader, &otc.Order{ID: 2, Amount: 10, CreatedAt: 300})
	putOrder(t, sdk, reader, &otc.Order{ID: 1, Amount: 10, CreatedAt: 100})
	putOrder(t, sdk, reader, &otc.Order{ID: 3, Amount: 10, CreatedAt: 200})

	orders, err := sdk.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	// config account is skipped, orders come back oldest first
	if len(orders) != 3 {
		t.Fatalf("got %d orders, want 3", len(orders))
	}
	for i, wantID := range []uint64{1, 3, 2} {
		if orders[i].ID != wantID {
			t.Errorf("orders[%d].ID = %d, want %d", i, orders[i].ID, wantID)
		}
	}
}

func TestFillOrderInstruction(t *testing.T) {
	sdk, _ := newTestSDK(t)

	ix, err := sdk.FillOrderInstruction(filler, ledger.NativeMint, 5, 20, 123_456)
	if err != nil {
		t.Fatalf("FillOrderInstruction: %v", err)
	}
	if ix.ProgramID != program {
		t.Errorf("program = %s", ix.ProgramID)
	}
	if len(ix.Data) != 8+8+8+8 {
		t.Errorf("data length = %d", len(ix.Data))
	}
	// the filler is the only signer
	signers := 0
	for _, acc := range ix.Accounts {
		if acc.IsSigner {
			signers++
			if acc.Pubkey != filler {
				t.Errorf("unexpected signer %s", acc.Pubkey)
			}
		}
	}
	if signers != 1 {
		t.Errorf("signers = %d, want 1", signers)
	}
}

func TestCreateOrderInstruction(t *testing.T) {
	sdk, _ := newTestSDK(t)

	ix, err := sdk.CreateOrderInstruction(filler, otc.CreateOrderParams{
		OrderID:      8,
		TokenID:      1,
		Side:         otc.Buy,
		ExToken:      ledger.NativeMint,
		Amount:       1_000,
		Value:        3_000,
		AllowPartial: true,
	})
	if err != nil {
		t.Fatalf("CreateOrderInstruction: %v", err)
	}
	if ix.ProgramID != program {
		t.Errorf("program = %s", ix.ProgramID)
	}
	// tag + orderID + tokenID + side + amount + value + deadline + flag
	if len(ix.Data) != 8+8+8+1+8+8+8+1 {
		t.Errorf("data length = %d", len(ix.Data))
	}
	if ix.Data[len(ix.Data)-1] != 1 {
		t.Error("allow-partial flag not encoded")
	}
}

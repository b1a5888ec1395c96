package otc_test

import (
	"testing"

	"github.com/uhyunpark/otc-actions/pkg/ledger"
	"github.com/uhyunpark/otc-actions/pkg/otc"
	"github.com/uhyunpark/otc-actions/pkg/otc/otctest"
)

func TestDecodeOrder_RoundTrip(t *testing.T) {
	want := &otc.Order{
		ID:         5,
		TokenID:    1,
		ExToken:    ledger.NativeMint,
		Side:       otc.Sell,
		Amount:     1_000_000_000,
		Filled:     250_000_000,
		Collateral: 2_000_000_000,
		Value:      3_000_000_000,
		CreatedAt:  1_700_000_000,
	}
	got, err := otc.DecodeOrder(otctest.MarshalOrder(want))
	if err != nil {
		t.Fatalf("DecodeOrder: %v", err)
	}
	if *got != *want {
		t.Errorf("decoded %+v, want %+v", got, want)
	}
	if got.Remaining().Uint64() != 750_000_000 {
		t.Errorf("Remaining = %s, want 750000000", got.Remaining())
	}
}

func TestDecodeOrder_Rejects(t *testing.T) {
	valid := otctest.MarshalOrder(&otc.Order{ID: 1, Amount: 10, Filled: 2})

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated", data: valid[:20]},
		{name: "foreign account type", data: otctest.MarshalConfig(&otc.Config{})},
		{name: "overfilled order", data: otctest.MarshalOrder(&otc.Order{ID: 1, Amount: 10, Filled: 11})},
		{name: "invalid side", data: func() []byte {
			data := otctest.MarshalOrder(&otc.Order{ID: 1, Amount: 10})
			data[8+8+8+ledger.AddressLen] = 7
			return data
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := otc.DecodeOrder(tt.data); err == nil {
				t.Error("corrupt account accepted")
			}
		})
	}
}

func TestSideString(t *testing.T) {
	if otc.Buy.String() != "buy" || otc.Sell.String() != "sell" {
		t.Errorf("Side strings = %q/%q", otc.Buy, otc.Sell)
	}
	for _, s := range []string{"buy", "sell"} {
		side, err := otc.ParseSide(s)
		if err != nil {
			t.Fatalf("ParseSide(%q): %v", s, err)
		}
		if side.String() != s {
			t.Errorf("ParseSide(%q) = %s", s, side)
		}
	}
	if _, err := otc.ParseSide("hold"); err == nil {
		t.Error("unknown side accepted")
	}
}

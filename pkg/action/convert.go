package action

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/uhyunpark/otc-actions/pkg/otc"
)

// maxBaseUnits caps parsed amounts at the u64 range order quantities live in.
var maxBaseUnits = new(big.Int).SetUint64(math.MaxUint64)

// ToBaseUnits parses a display-unit decimal string into base units
// (display * 10^decimals), truncating anything finer than one base unit.
// The parse is exact decimal arithmetic; no binary floating point touches
// the value. Negative, malformed, or out-of-range input fails with an
// invalid-amount error.
func ToBaseUnits(display string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(display)
	if err != nil {
		return nil, Wrap(CodeInvalidAmount, "Invalid input query parameter: amount", err)
	}
	if d.IsNegative() {
		return nil, Err(CodeInvalidAmount, "Invalid input query parameter: amount")
	}
	base := d.Shift(decimals).Truncate(0).BigInt()
	if base.Cmp(maxBaseUnits) > 0 {
		return nil, Err(CodeInvalidAmount, "Amount exceeds the representable range")
	}
	return base, nil
}

// FormatBaseUnits renders a base-unit amount as a display-unit decimal
// string, trailing zeros trimmed. Boundary formatting only; never feed
// the result back into arithmetic.
func FormatBaseUnits(v *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(v, -decimals).String()
}

// ProportionalValue computes the collateral owed for a partial fill:
// fill * collateral / total, multiplying before dividing so the ratio is
// exact up to final truncation. A zero-total order is corrupted program
// state and fails the request.
func ProportionalValue(fill *big.Int, order *otc.Order) (*big.Int, error) {
	if order.Amount == 0 {
		return nil, Err(CodeZeroTotal, "Order has zero total amount")
	}
	v := new(big.Int).Mul(fill, new(big.Int).SetUint64(order.Collateral))
	return v.Quo(v, new(big.Int).SetUint64(order.Amount)), nil
}

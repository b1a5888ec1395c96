package action

import "math/big"

// AmountPreset is one suggested partial-fill amount, in base units.
// Portion is the fraction it represents, for labeling at the boundary.
type AmountPreset struct {
	Portion string
	Amount  *big.Int
}

// preset fractions, numerator over denominator
var presetFractions = []struct {
	portion  string
	num, den int64
}{
	{"25%", 1, 4},
	{"50%", 1, 2},
	{"75%", 3, 4},
	{"100%", 1, 1},
}

// ComputePresets derives the four fixed partial-fill suggestions from an
// order's remaining quantity. Each value is computed independently from
// remaining, multiplying before dividing, so truncation never compounds.
// A fully filled order yields four zeros; the caller still offers a
// custom-amount input.
func ComputePresets(remaining *big.Int) []AmountPreset {
	presets := make([]AmountPreset, 0, len(presetFractions))
	for _, f := range presetFractions {
		v := new(big.Int).Mul(remaining, big.NewInt(f.num))
		v.Quo(v, big.NewInt(f.den))
		presets = append(presets, AmountPreset{Portion: f.portion, Amount: v})
	}
	return presets
}

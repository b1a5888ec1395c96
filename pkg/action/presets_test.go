package action

import (
	"math/big"
	"testing"
)

func TestComputePresets(t *testing.T) {
	tests := []struct {
		name      string
		remaining int64
		want      []int64
	}{
		{
			name:      "one billion base units",
			remaining: 1_000_000_000,
			want:      []int64{250_000_000, 500_000_000, 750_000_000, 1_000_000_000},
		},
		{
			name:      "fully filled order",
			remaining: 0,
			want:      []int64{0, 0, 0, 0},
		},
		{
			name:      "truncation per preset, no compounding",
			remaining: 7,
			want:      []int64{1, 3, 5, 7},
		},
		{
			name:      "single base unit",
			remaining: 1,
			want:      []int64{0, 0, 0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			presets := ComputePresets(big.NewInt(tt.remaining))
			if len(presets) != 4 {
				t.Fatalf("got %d presets, want 4", len(presets))
			}
			for i, p := range presets {
				if p.Amount.Int64() != tt.want[i] {
					t.Errorf("preset %s = %s, want %d", p.Portion, p.Amount, tt.want[i])
				}
			}
		})
	}
}

func TestComputePresets_Monotonic(t *testing.T) {
	for _, remaining := range []int64{1, 2, 3, 99, 1001, 999_999_999_999} {
		presets := ComputePresets(big.NewInt(remaining))
		for i := 1; i < len(presets); i++ {
			if presets[i].Amount.Cmp(presets[i-1].Amount) < 0 {
				t.Errorf("remaining=%d: preset %s < preset %s", remaining, presets[i].Portion, presets[i-1].Portion)
			}
		}
		if last := presets[len(presets)-1].Amount; last.Int64() != remaining {
			t.Errorf("remaining=%d: full preset = %s", remaining, last)
		}
	}
}

func TestComputePresets_LargeRemaining(t *testing.T) {
	// larger than any float64 can carry exactly
	remaining, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	presets := ComputePresets(remaining)

	half := new(big.Int).Quo(remaining, big.NewInt(2))
	if presets[1].Amount.Cmp(half) != 0 {
		t.Errorf("50%% preset = %s, want %s", presets[1].Amount, half)
	}
	if presets[3].Amount.Cmp(remaining) != 0 {
		t.Errorf("100%% preset = %s, want %s", presets[3].Amount, remaining)
	}
}

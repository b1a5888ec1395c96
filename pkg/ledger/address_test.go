package ledger

import (
	"strings"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "system program", in: "11111111111111111111111111111111"},
		{name: "token program", in: "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"},
		{name: "native mint", in: "So11111111111111111111111111111111111111112"},
		{name: "empty", in: "", wantErr: true},
		{name: "too short", in: "abc", wantErr: true},
		{name: "invalid base58 characters", in: strings.Repeat("0", 44), wantErr: true},
		{name: "wrong decoded length", in: "2vxsx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAddress(%q) = %s, want error", tt.in, addr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.in, err)
			}
			if got := addr.String(); got != tt.in {
				t.Errorf("round trip: %q != %q", got, tt.in)
			}
		})
	}
}

func TestFindProgramAddress(t *testing.T) {
	program := MustAddress("8EMNysnqHuY88H291esnAcEvwjdNXV5N9XZ3FoD7ffFe")
	seeds := [][]byte{[]byte("order"), {5, 0, 0, 0, 0, 0, 0, 0}}

	addr1, bump1, err := FindProgramAddress(seeds, program)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	addr2, bump2, err := FindProgramAddress(seeds, program)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}

	// derivation is deterministic
	if addr1 != addr2 || bump1 != bump2 {
		t.Errorf("derivation not deterministic: %s/%d vs %s/%d", addr1, bump1, addr2, bump2)
	}
	// the chosen address is off the curve on purpose
	if isOnCurve(addr1[:]) {
		t.Errorf("derived address %s is on the curve", addr1)
	}
	// different seeds give different addresses
	other, _, err := FindProgramAddress([][]byte{[]byte("config")}, program)
	if err != nil {
		t.Fatalf("FindProgramAddress: %v", err)
	}
	if other == addr1 {
		t.Error("different seeds derived the same address")
	}
}

func TestCreateProgramAddress_SeedLimits(t *testing.T) {
	program := MustAddress("8EMNysnqHuY88H291esnAcEvwjdNXV5N9XZ3FoD7ffFe")

	if _, err := CreateProgramAddress([][]byte{make([]byte, 33)}, program); err == nil {
		t.Error("oversized seed accepted")
	}
	many := make([][]byte, 17)
	for i := range many {
		many[i] = []byte{byte(i)}
	}
	if _, err := CreateProgramAddress(many, program); err == nil {
		t.Error("too many seeds accepted")
	}
}

func TestAssociatedTokenAddress(t *testing.T) {
	owner := MustAddress("EGN5Sfq1CGsysUY4qhSDyQvgPCBRepqXi8AvChiyeNir")

	ata, err := AssociatedTokenAddress(owner, NativeMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if ata == owner || ata.IsZero() {
		t.Errorf("implausible derived address %s", ata)
	}

	// distinct owners get distinct accounts for the same mint
	other, err := AssociatedTokenAddress(SystemProgramID, NativeMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if other == ata {
		t.Error("two owners derived the same token account")
	}
}

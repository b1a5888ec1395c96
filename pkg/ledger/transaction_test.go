package ledger

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestAppendCompactU16(t *testing.T) {
	tests := []struct {
		in   int
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{255, []byte{0xff, 0x01}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, tt := range tests {
		if got := appendCompactU16(nil, tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("appendCompactU16(%d) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func testTx() *Transaction {
	payer := Address{1}
	recipient := Address{2}
	tx := NewTransaction()
	tx.Add(SystemTransfer(payer, recipient, 1_000_000))
	tx.FeePayer = payer
	tx.RecentBlockhash = Hash{0xAB}
	return tx
}

func TestTransactionMessage(t *testing.T) {
	tx := testTx()
	msg, err := tx.Message()
	if err != nil {
		t.Fatalf("Message: %v", err)
	}

	// header: one writable signer, no readonly signers, one readonly
	// unsigned account (the system program)
	if msg[0] != 1 || msg[1] != 0 || msg[2] != 1 {
		t.Errorf("header = %v, want [1 0 1]", msg[:3])
	}
	// three accounts: payer, recipient, system program
	if msg[3] != 3 {
		t.Errorf("account count = %d, want 3", msg[3])
	}
	// fee payer occupies index 0
	var payer Address
	copy(payer[:], msg[4:36])
	if payer != tx.FeePayer {
		t.Errorf("account 0 = %s, want fee payer %s", payer, tx.FeePayer)
	}
	// blockhash follows the account table
	blockhashOff := 4 + 3*AddressLen
	var blockhash Hash
	copy(blockhash[:], msg[blockhashOff:])
	if blockhash != tx.RecentBlockhash {
		t.Errorf("blockhash = %s, want %s", blockhash, tx.RecentBlockhash)
	}

	// identical input serializes identically
	again, err := tx.Message()
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	if !bytes.Equal(msg, again) {
		t.Error("serialization is not deterministic")
	}
}

func TestTransactionSerialize_ZeroedSignatureSlots(t *testing.T) {
	tx := testTx()
	raw, err := tx.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if raw[0] != 1 {
		t.Fatalf("signature count = %d, want 1", raw[0])
	}
	if !bytes.Equal(raw[1:65], make([]byte, 64)) {
		t.Error("signature slot not zeroed")
	}

	b64, err := tx.SerializeBase64()
	if err != nil {
		t.Fatalf("SerializeBase64: %v", err)
	}
	decoded, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(decoded, raw) {
		t.Error("base64 form does not match raw serialization")
	}
}

func TestTransactionMessage_Validation(t *testing.T) {
	tx := NewTransaction()
	tx.Add(SyncNative(Address{9}))

	if _, err := tx.Message(); err == nil {
		t.Error("missing fee payer accepted")
	}
	tx.FeePayer = Address{1}
	if _, err := tx.Message(); err == nil {
		t.Error("missing blockhash accepted")
	}
	tx.RecentBlockhash = Hash{2}
	if _, err := tx.Message(); err != nil {
		t.Errorf("complete transaction rejected: %v", err)
	}

	empty := NewTransaction()
	empty.FeePayer = Address{1}
	empty.RecentBlockhash = Hash{2}
	if _, err := empty.Message(); err == nil {
		t.Error("empty instruction list accepted")
	}
}

func TestTransactionMessage_MergesDuplicateAccounts(t *testing.T) {
	payer := Address{1}
	ata := Address{3}
	tx := NewTransaction()
	// payer appears as signer in the transfer and again via fee payer;
	// the ata appears in two instructions
	tx.Add(SystemTransfer(payer, ata, 42), SyncNative(ata))
	tx.FeePayer = payer
	tx.RecentBlockhash = Hash{7}

	msg, err := tx.Message()
	if err != nil {
		t.Fatalf("Message: %v", err)
	}
	// payer, ata, system program, token program
	if msg[3] != 4 {
		t.Errorf("account count = %d, want 4", msg[3])
	}
}

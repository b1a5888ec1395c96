package ledger

// AccountMeta names one account an instruction touches, with the access it
// needs. Flags for the same account across instructions are merged with OR
// when the transaction message is built.
type AccountMeta struct {
	Pubkey     Address
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single opaque ledger operation: a program to invoke,
// the accounts it may read or write, and program-specific encoded data.
type Instruction struct {
	ProgramID Address
	Accounts  []AccountMeta
	Data      []byte
}

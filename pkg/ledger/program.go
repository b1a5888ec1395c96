package ledger

import "encoding/binary"

// Well-known program and sysvar addresses. These are protocol constants,
// not configuration.
var (
	SystemProgramID          = MustAddress("11111111111111111111111111111111")
	TokenProgramID           = MustAddress("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = MustAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	ComputeBudgetProgramID   = MustAddress("ComputeBudget111111111111111111111111111111")
	SysvarRentID             = MustAddress("SysvarRent111111111111111111111111111111111")

	// NativeMint is the wrapped representation of the native currency.
	NativeMint = MustAddress("So11111111111111111111111111111111111111112")
)

// system program instruction indexes (little-endian u32 discriminator)
const sysTransferIndex uint32 = 2

// SystemTransfer moves lamports from one system account to another. The
// from account signs.
func SystemTransfer(from, to Address, lamports uint64) Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], sysTransferIndex)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []AccountMeta{
			{Pubkey: from, IsSigner: true, IsWritable: true},
			{Pubkey: to, IsWritable: true},
		},
		Data: data,
	}
}

// CreateAssociatedTokenAccount creates owner's canonical token account for
// mint, paid for by payer. The idempotent variant (discriminator 1) is a
// no-op when the account already exists, so it is safe to prefix every
// wrap sequence with it.
func CreateAssociatedTokenAccount(payer, owner, mint Address) (Instruction, error) {
	ata, err := AssociatedTokenAddress(owner, mint)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{
		ProgramID: AssociatedTokenProgramID,
		Accounts: []AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: ata, IsWritable: true},
			{Pubkey: owner},
			{Pubkey: mint},
			{Pubkey: SystemProgramID},
			{Pubkey: TokenProgramID},
		},
		Data: []byte{1}, // CreateIdempotent
	}, nil
}

// token program instruction index
const tokenSyncNativeIndex byte = 17

// SyncNative reconciles a wrapped-native token account's recorded balance
// with the lamports actually held by it. Must run after the funding
// transfer lands, never before.
func SyncNative(tokenAccount Address) Instruction {
	return Instruction{
		ProgramID: TokenProgramID,
		Accounts: []AccountMeta{
			{Pubkey: tokenAccount, IsWritable: true},
		},
		Data: []byte{tokenSyncNativeIndex},
	}
}

// compute budget instruction index
const computeUnitPriceIndex byte = 3

// SetComputeUnitPrice attaches a priority fee in micro-lamports per
// compute unit.
func SetComputeUnitPrice(microLamports uint64) Instruction {
	data := make([]byte, 9)
	data[0] = computeUnitPriceIndex
	binary.LittleEndian.PutUint64(data[1:9], microLamports)
	return Instruction{
		ProgramID: ComputeBudgetProgramID,
		Data:      data,
	}
}

package multisig

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/multisig-client/pkg/solana"
)

var (
	MultisigPrefix        = []byte("multisig")
	TransactionPrefix     = []byte("transaction")
	VaultPrefix           = []byte("vault")
	EphemeralSignerPrefix = []byte("ephemeral_signer")
)

type GetMultisigPdaArgs struct {
	CreateKey ed25519.PublicKey
	ProgramID ed25519.PublicKey
}

func GetMultisigPda(args *GetMultisigPdaArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.ProgramID),
		MultisigPrefix,
		MultisigPrefix,
		args.CreateKey,
	)
}

type GetTransactionPdaArgs struct {
	MultisigPda ed25519.PublicKey
	Index       uint64
	ProgramID   ed25519.PublicKey
}

// GetTransactionPda derives the address of the transaction record at Index.
// The index is encoded as a little-endian u64 seed.
func GetTransactionPda(args *GetTransactionPdaArgs) (ed25519.PublicKey, uint8, error) {
	index := make([]byte, 8)
	binary.LittleEndian.PutUint64(index, args.Index)

	return solana.FindProgramAddressAndBump(
		programOrDefault(args.ProgramID),
		MultisigPrefix,
		args.MultisigPda,
		TransactionPrefix,
		index,
	)
}

type GetVaultPdaArgs struct {
	MultisigPda ed25519.PublicKey
	Index       uint8
	ProgramID   ed25519.PublicKey
}

func GetVaultPda(args *GetVaultPdaArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.ProgramID),
		MultisigPrefix,
		args.MultisigPda,
		VaultPrefix,
		[]byte{args.Index},
	)
}

type GetEphemeralSignerPdaArgs struct {
	TransactionPda       ed25519.PublicKey
	EphemeralSignerIndex uint8
	ProgramID            ed25519.PublicKey
}

// GetEphemeralSignerPda derives a signer that the program signs for on
// behalf of the transaction during execution.
func GetEphemeralSignerPda(args *GetEphemeralSignerPdaArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.ProgramID),
		MultisigPrefix,
		args.TransactionPda,
		EphemeralSignerPrefix,
		[]byte{args.EphemeralSignerIndex},
	)
}

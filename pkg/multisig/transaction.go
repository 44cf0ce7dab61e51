package multisig

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/solana"
	compute_budget "github.com/code-payments/multisig-client/pkg/solana/computebudget"
)

type VaultTransactionMultiUploadTransactionArgs struct {
	VaultTransactionMultiUploadInstructionArgs

	Blockhash solana.Blockhash
	FeePayer  ed25519.PublicKey

	// Compute budget instructions are prepended when non-zero.
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
}

// NewVaultTransactionMultiUploadTransaction returns an unsigned v0
// transaction carrying a single vault_transaction_multi_upload instruction.
// It must be signed by the fee payer, the creator and the rent payer.
func NewVaultTransactionMultiUploadTransaction(args *VaultTransactionMultiUploadTransactionArgs) (solana.Transaction, error) {
	if len(args.FeePayer) != ed25519.PublicKeySize {
		return solana.Transaction{}, ErrMissingFeePayer
	}

	ix, err := NewVaultTransactionMultiUploadInstruction(&args.VaultTransactionMultiUploadInstructionArgs)
	if err != nil {
		return solana.Transaction{}, err
	}

	var instructions []solana.Instruction
	if args.ComputeUnitLimit > 0 {
		instructions = append(instructions, compute_budget.SetComputeUnitLimit(args.ComputeUnitLimit))
	}
	if args.ComputeUnitPrice > 0 {
		instructions = append(instructions, compute_budget.SetComputeUnitPrice(args.ComputeUnitPrice))
	}
	instructions = append(instructions, ix)

	txn, err := solana.NewVersionedTransaction(args.FeePayer, instructions...)
	if err != nil {
		return solana.Transaction{}, errors.Wrap(err, "error compiling transaction")
	}
	txn.SetBlockhash(args.Blockhash)

	if size := len(txn.Marshal()); size > solana.MaxTransactionSize {
		return solana.Transaction{}, errors.Wrapf(ErrTransactionTooLarge, "%d bytes exceeds %d", size, solana.MaxTransactionSize)
	}

	return txn, nil
}

package multisig

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/solana"
)

var vaultTransactionMultiUploadInstructionDiscriminator = instructionDiscriminator("vault_transaction_multi_upload")

// TransactionMessage is the batch of instructions appended to a vault
// transaction. PayerKey is normally the vault the instructions execute as.
type TransactionMessage struct {
	PayerKey        ed25519.PublicKey
	RecentBlockhash solana.Blockhash
	Instructions    []solana.Instruction
}

// VaultTransactionMultiUploadArgs is the argument layout of the instruction,
// in the order the program deserializes it.
type VaultTransactionMultiUploadArgs struct {
	VaultIndex             uint8
	TransactionIndex       uint64
	EphemeralSigners       uint8
	AdditionalInstructions []MultisigCompiledInstruction
	Memo                   *string
}

type vaultTransactionMultiUploadInstructionData struct {
	Discriminator [8]byte
	Args          VaultTransactionMultiUploadArgs
}

type VaultTransactionMultiUploadInstructionAccounts struct {
	Multisig    ed25519.PublicKey
	Transaction ed25519.PublicKey
	Creator     ed25519.PublicKey
	RentPayer   ed25519.PublicKey
}

type VaultTransactionMultiUploadInstructionArgs struct {
	MultisigPda      ed25519.PublicKey
	TransactionIndex uint64
	Creator          ed25519.PublicKey

	// RentPayer funds the reallocation of the transaction account. Defaults to
	// Creator.
	RentPayer ed25519.PublicKey

	VaultIndex             uint8
	EphemeralSigners       uint8
	AdditionalInstructions TransactionMessage

	// Memo is omitted from the instruction when nil.
	Memo *string

	// ProgramID defaults to PROGRAM_ID.
	ProgramID ed25519.PublicKey
}

// NewVaultTransactionMultiUploadInstruction builds an instruction that
// appends AdditionalInstructions to the existing vault transaction at
// TransactionIndex.
func NewVaultTransactionMultiUploadInstruction(args *VaultTransactionMultiUploadInstructionArgs) (solana.Instruction, error) {
	if len(args.MultisigPda) != ed25519.PublicKeySize {
		return solana.Instruction{}, ErrMissingMultisig
	}
	if len(args.Creator) != ed25519.PublicKeySize {
		return solana.Instruction{}, ErrMissingCreator
	}

	programID := programOrDefault(args.ProgramID)

	transactionPda, _, err := GetTransactionPda(&GetTransactionPdaArgs{
		MultisigPda: args.MultisigPda,
		Index:       args.TransactionIndex,
		ProgramID:   programID,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error deriving transaction address")
	}

	wrapped, err := CompileToWrappedMessage(
		args.AdditionalInstructions.PayerKey,
		args.AdditionalInstructions.RecentBlockhash,
		args.AdditionalInstructions.Instructions,
	)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error compiling additional instructions")
	}

	rentPayer := args.RentPayer
	if len(rentPayer) == 0 {
		rentPayer = args.Creator
	}

	data, err := borsh.Serialize(vaultTransactionMultiUploadInstructionData{
		Discriminator: vaultTransactionMultiUploadInstructionDiscriminator,
		Args: VaultTransactionMultiUploadArgs{
			VaultIndex:             args.VaultIndex,
			TransactionIndex:       args.TransactionIndex,
			EphemeralSigners:       args.EphemeralSigners,
			AdditionalInstructions: wrapped.Instructions,
			Memo:                   args.Memo,
		},
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error serializing instruction args")
	}

	return solana.Instruction{
		Program: programID,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  args.MultisigPda,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  transactionPda,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  args.Creator,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  rentPayer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}, nil
}

// DecodeVaultTransactionMultiUploadInstruction parses an instruction built by
// NewVaultTransactionMultiUploadInstruction. The program is not checked, so
// instructions targeting a custom ProgramID decode as well.
func DecodeVaultTransactionMultiUploadInstruction(ix solana.Instruction) (*VaultTransactionMultiUploadInstructionAccounts, *VaultTransactionMultiUploadArgs, error) {
	if len(ix.Accounts) != 5 {
		return nil, nil, errors.Wrapf(solana.ErrIncorrectInstruction, "expected 5 accounts, got %d", len(ix.Accounts))
	}
	if !bytes.Equal(ix.Accounts[4].PublicKey, SYSTEM_PROGRAM_ID) {
		return nil, nil, errors.Wrap(solana.ErrIncorrectInstruction, "missing system program")
	}
	if len(ix.Data) < len(vaultTransactionMultiUploadInstructionDiscriminator) ||
		!bytes.Equal(ix.Data[:8], vaultTransactionMultiUploadInstructionDiscriminator[:]) {
		return nil, nil, ErrInvalidInstructionData
	}

	var data vaultTransactionMultiUploadInstructionData
	if err := borsh.Deserialize(&data, ix.Data); err != nil {
		return nil, nil, errors.Wrap(ErrInvalidInstructionData, err.Error())
	}

	accounts := &VaultTransactionMultiUploadInstructionAccounts{
		Multisig:    ix.Accounts[0].PublicKey,
		Transaction: ix.Accounts[1].PublicKey,
		Creator:     ix.Accounts[2].PublicKey,
		RentPayer:   ix.Accounts[3].PublicKey,
	}
	return accounts, &data.Args, nil
}

// instructionDiscriminator is the 8 byte prefix the program uses to route
// instructions.
func instructionDiscriminator(name string) [8]byte {
	var discriminator [8]byte
	h := sha256.Sum256([]byte("global:" + name))
	copy(discriminator[:], h[:8])
	return discriminator
}

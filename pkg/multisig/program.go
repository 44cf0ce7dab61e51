package multisig

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/solana/system"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
	ErrIndexOutOfRange        = errors.New("account index out of range")
	ErrTransactionTooLarge    = errors.New("transaction too large")
	ErrMissingCreator         = errors.New("creator is required")
	ErrMissingMultisig        = errors.New("multisig is required")
	ErrMissingFeePayer        = errors.New("fee payer is required")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("SQDS4ep65T869zMMBKyuUq6aD6EgTu8psMjkvj52pCf")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID = system.ProgramKey
)

func programOrDefault(program ed25519.PublicKey) ed25519.PublicKey {
	if len(program) == 0 {
		return PROGRAM_ID
	}
	return program
}

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}

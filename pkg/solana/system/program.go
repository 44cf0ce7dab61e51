package system

import (
	"bytes"
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/solana"
)

// ProgramKey is the system program, 11111111111111111111111111111111.
var ProgramKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

const (
	commandCreateAccount uint32 = iota
	commandAssign
	commandTransfer
)

type createAccountData struct {
	Command  uint32
	Lamports uint64
	Space    uint64
	Owner    [ed25519.PublicKeySize]byte
}

type transferData struct {
	Command  uint32
	Lamports uint64
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	data := createAccountData{
		Command:  commandCreateAccount,
		Lamports: lamports,
		Space:    size,
	}
	copy(data.Owner[:], owner)

	return solana.NewInstruction(
		ProgramKey,
		mustSerialize(data),
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L81-L85
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	return solana.NewInstruction(
		ProgramKey,
		mustSerialize(transferData{
			Command:  commandTransfer,
			Lamports: lamports,
		}),
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

// DecompileCreateAccount parses a CreateAccount instruction.
func DecompileCreateAccount(ix solana.Instruction) (*DecompiledCreateAccount, error) {
	if err := checkInstruction(ix, commandCreateAccount, 2); err != nil {
		return nil, err
	}

	var data createAccountData
	if err := borsh.Deserialize(&data, ix.Data); err != nil {
		return nil, errors.Wrap(err, "invalid instruction data")
	}

	return &DecompiledCreateAccount{
		Funder:   ix.Accounts[0].PublicKey,
		Address:  ix.Accounts[1].PublicKey,
		Lamports: data.Lamports,
		Size:     data.Space,
		Owner:    data.Owner[:],
	}, nil
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

// DecompileTransfer parses a Transfer instruction.
func DecompileTransfer(ix solana.Instruction) (*DecompiledTransfer, error) {
	if err := checkInstruction(ix, commandTransfer, 2); err != nil {
		return nil, err
	}

	var data transferData
	if err := borsh.Deserialize(&data, ix.Data); err != nil {
		return nil, errors.Wrap(err, "invalid instruction data")
	}

	return &DecompiledTransfer{
		From:     ix.Accounts[0].PublicKey,
		To:       ix.Accounts[1].PublicKey,
		Lamports: data.Lamports,
	}, nil
}

func checkInstruction(ix solana.Instruction, command uint32, numAccounts int) error {
	if !bytes.Equal(ix.Program, ProgramKey) {
		return solana.ErrIncorrectProgram
	}

	var prefix struct{ Command uint32 }
	if len(ix.Data) < 4 || borsh.Deserialize(&prefix, ix.Data[:4]) != nil || prefix.Command != command {
		return solana.ErrIncorrectInstruction
	}

	if len(ix.Accounts) != numAccounts {
		return errors.Errorf("invalid number of accounts: %d", len(ix.Accounts))
	}

	return nil
}

func mustSerialize(v interface{}) []byte {
	data, err := borsh.Serialize(v)
	if err != nil {
		panic(err)
	}
	return data
}

package multisig

import (
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/solana"
)

// MultisigCompiledInstruction is an instruction compiled against the account
// key table of a wrapped transaction message, in the layout the program
// persists.
type MultisigCompiledInstruction struct {
	ProgramIDIndex uint8
	AccountIndexes []uint8
	Data           []uint8
}

// WrappedMessage is a batch of instructions compacted for storage in a vault
// transaction.
type WrappedMessage struct {
	Table        solana.AccountKeyTable
	Instructions []MultisigCompiledInstruction
}

// ToMultisigCompiledInstructions re-encodes the instructions of a compiled
// message, preserving their order. Every index must address a key in the
// message's table.
func ToMultisigCompiledInstructions(msg solana.CompiledMessage) ([]MultisigCompiledInstruction, error) {
	numKeys := len(msg.Table.Keys)
	if numKeys > math.MaxUint8+1 {
		return nil, errors.Wrapf(solana.ErrTooManyAccountKeys, "%d keys", numKeys)
	}

	out := make([]MultisigCompiledInstruction, 0, len(msg.Instructions))
	for i, ix := range msg.Instructions {
		if int(ix.ProgramIndex) >= numKeys {
			return nil, errors.Wrapf(ErrIndexOutOfRange, "instruction %d: program index %d", i, ix.ProgramIndex)
		}

		accounts := make([]uint8, len(ix.Accounts))
		for j, index := range ix.Accounts {
			if int(index) >= numKeys {
				return nil, errors.Wrapf(ErrIndexOutOfRange, "instruction %d: account index %d", i, index)
			}
			accounts[j] = index
		}

		out = append(out, MultisigCompiledInstruction{
			ProgramIDIndex: ix.ProgramIndex,
			AccountIndexes: accounts,
			Data:           ix.Data,
		})
	}

	return out, nil
}

// CompileToWrappedMessage compacts instructions against payer and re-encodes
// them for the program.
func CompileToWrappedMessage(payer ed25519.PublicKey, blockhash solana.Blockhash, instructions []solana.Instruction) (WrappedMessage, error) {
	compiled, err := solana.CompileMessage(payer, blockhash, instructions)
	if err != nil {
		return WrappedMessage{}, err
	}

	wrapped, err := ToMultisigCompiledInstructions(compiled)
	if err != nil {
		return WrappedMessage{}, err
	}

	return WrappedMessage{
		Table:        compiled.Table,
		Instructions: wrapped,
	}, nil
}

// DecompileMultisigInstruction resolves a wrapped instruction back into an
// instruction using the table it was compiled against.
func DecompileMultisigInstruction(table solana.AccountKeyTable, ix MultisigCompiledInstruction) (solana.Instruction, error) {
	decompiled, err := table.DecompileInstruction(solana.CompiledInstruction{
		ProgramIndex: ix.ProgramIDIndex,
		Accounts:     ix.AccountIndexes,
		Data:         ix.Data,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(ErrIndexOutOfRange, err.Error())
	}
	return decompiled, nil
}

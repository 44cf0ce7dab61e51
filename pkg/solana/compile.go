package solana

import (
	"bytes"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// MaxAccountKeys is the largest account key table addressable by a single
// byte index.
const MaxAccountKeys = math.MaxUint8 + 1

var (
	ErrTooManyAccountKeys = errors.New("too many account keys")
	ErrInvalidAccountKey  = errors.New("invalid account key")
)

// CompiledKey is a distinct account key in an AccountKeyTable along with the
// permissions it requires across every instruction referencing it.
type CompiledKey struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	IsInvoked  bool
}

// AccountKeyTable is the deduplicated, ordered set of keys referenced by a
// message. Keys are grouped as writable signers, readonly signers, writable
// non-signers and readonly non-signers, in that order. The fee payer is always
// at index 0.
type AccountKeyTable struct {
	Keys []CompiledKey

	NumWritableSigners    int
	NumReadonlySigners    int
	NumWritableNonSigners int
	NumReadonlyNonSigners int
}

// CompiledMessage is the result of compacting a set of instructions against a
// fee payer.
type CompiledMessage struct {
	Table           AccountKeyTable
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

// CompileMessage builds the account key table for the provided instructions
// and compiles each instruction against it.
//
// Keys are ordered by first appearance within their group. For every
// instruction, account references are visited before the program key, so an
// account used only as a program lands after the accounts that instruction
// references.
func CompileMessage(payer ed25519.PublicKey, blockhash Blockhash, instructions []Instruction) (CompiledMessage, error) {
	if len(payer) != ed25519.PublicKeySize {
		return CompiledMessage{}, errors.Wrap(ErrInvalidAccountKey, "invalid payer")
	}

	var seen []CompiledKey
	fold := func(key ed25519.PublicKey, isSigner, isWritable, isInvoked bool) {
		for i := range seen {
			if bytes.Equal(seen[i].PublicKey, key) {
				seen[i].IsSigner = seen[i].IsSigner || isSigner
				seen[i].IsWritable = seen[i].IsWritable || isWritable
				seen[i].IsInvoked = seen[i].IsInvoked || isInvoked
				return
			}
		}

		seen = append(seen, CompiledKey{
			PublicKey:  key,
			IsSigner:   isSigner,
			IsWritable: isWritable,
			IsInvoked:  isInvoked,
		})
	}

	fold(payer, true, true, false)
	for i, ix := range instructions {
		if len(ix.Program) != ed25519.PublicKeySize {
			return CompiledMessage{}, errors.Wrapf(ErrInvalidAccountKey, "instruction %d has invalid program", i)
		}

		for j, account := range ix.Accounts {
			if len(account.PublicKey) != ed25519.PublicKeySize {
				return CompiledMessage{}, errors.Wrapf(ErrInvalidAccountKey, "instruction %d has invalid account at %d", i, j)
			}
			fold(account.PublicKey, account.IsSigner, account.IsWritable, false)
		}

		fold(ix.Program, false, false, true)
	}

	if len(seen) > MaxAccountKeys {
		return CompiledMessage{}, errors.Wrapf(ErrTooManyAccountKeys, "%d keys exceeds %d", len(seen), MaxAccountKeys)
	}

	// The payer was folded first, so it's the first writable signer.
	var writableSigners, readonlySigners, writableNonSigners, readonlyNonSigners []CompiledKey
	for _, key := range seen {
		switch {
		case key.IsSigner && key.IsWritable:
			writableSigners = append(writableSigners, key)
		case key.IsSigner:
			readonlySigners = append(readonlySigners, key)
		case key.IsWritable:
			writableNonSigners = append(writableNonSigners, key)
		default:
			readonlyNonSigners = append(readonlyNonSigners, key)
		}
	}

	table := AccountKeyTable{
		Keys:                  make([]CompiledKey, 0, len(seen)),
		NumWritableSigners:    len(writableSigners),
		NumReadonlySigners:    len(readonlySigners),
		NumWritableNonSigners: len(writableNonSigners),
		NumReadonlyNonSigners: len(readonlyNonSigners),
	}
	table.Keys = append(table.Keys, writableSigners...)
	table.Keys = append(table.Keys, readonlySigners...)
	table.Keys = append(table.Keys, writableNonSigners...)
	table.Keys = append(table.Keys, readonlyNonSigners...)

	compiled := make([]CompiledInstruction, 0, len(instructions))
	for _, ix := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(table.IndexOf(ix.Program)),
			Accounts:     make([]byte, 0, len(ix.Accounts)),
			Data:         ix.Data,
		}

		for _, account := range ix.Accounts {
			c.Accounts = append(c.Accounts, byte(table.IndexOf(account.PublicKey)))
		}

		compiled = append(compiled, c)
	}

	return CompiledMessage{
		Table:           table,
		RecentBlockhash: blockhash,
		Instructions:    compiled,
	}, nil
}

// IndexOf returns the index of the key in the table, or -1 if it isn't present.
func (t AccountKeyTable) IndexOf(key ed25519.PublicKey) int {
	for i, k := range t.Keys {
		if bytes.Equal(k.PublicKey, key) {
			return i
		}
	}

	return -1
}

// PublicKeys returns the ordered keys of the table.
func (t AccountKeyTable) PublicKeys() []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, len(t.Keys))
	for i, k := range t.Keys {
		keys[i] = k.PublicKey
	}
	return keys
}

// Header returns the message header describing the table's layout.
func (t AccountKeyTable) Header() Header {
	return Header{
		NumSignatures:     byte(t.NumWritableSigners + t.NumReadonlySigners),
		NumReadonlySigned: byte(t.NumReadonlySigners),
		NumReadOnly:       byte(t.NumReadonlyNonSigners),
	}
}

// IsSigner reports whether the key at index must sign the message.
func (t AccountKeyTable) IsSigner(index int) bool {
	return index >= 0 && index < t.NumWritableSigners+t.NumReadonlySigners
}

// IsWritable reports whether the key at index is writable.
func (t AccountKeyTable) IsWritable(index int) bool {
	numSigners := t.NumWritableSigners + t.NumReadonlySigners
	if index < 0 || index >= len(t.Keys) {
		return false
	}
	if index < numSigners {
		return index < t.NumWritableSigners
	}
	return index-numSigners < t.NumWritableNonSigners
}

// DecompileInstruction resolves a compiled instruction back into an
// instruction using the permissions recorded in the table.
func (t AccountKeyTable) DecompileInstruction(c CompiledInstruction) (Instruction, error) {
	if int(c.ProgramIndex) >= len(t.Keys) {
		return Instruction{}, errors.Errorf("program index out of range: %d", c.ProgramIndex)
	}

	ix := Instruction{
		Program:  t.Keys[c.ProgramIndex].PublicKey,
		Accounts: make([]AccountMeta, 0, len(c.Accounts)),
		Data:     c.Data,
	}
	for _, index := range c.Accounts {
		if int(index) >= len(t.Keys) {
			return Instruction{}, errors.Errorf("account index out of range: %d", index)
		}

		ix.Accounts = append(ix.Accounts, AccountMeta{
			PublicKey:  t.Keys[index].PublicKey,
			IsSigner:   t.IsSigner(int(index)),
			IsWritable: t.IsWritable(int(index)),
		})
	}

	return ix, nil
}

func (k CompiledKey) String() string {
	return base58.Encode(k.PublicKey)
}

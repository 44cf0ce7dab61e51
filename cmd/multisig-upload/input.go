package main

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/solana"
)

// loadKeypair reads a keypair file in the Solana CLI format (a JSON array of
// the 64 private key bytes), or a file holding the base58 encoded key.
func loadKeypair(path string) (ed25519.PrivateKey, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading keypair %s", path)
	}

	return parseKeypair(contents)
}

func parseKeypair(contents []byte) (ed25519.PrivateKey, error) {
	trimmed := strings.TrimSpace(string(contents))

	var raw []byte
	if strings.HasPrefix(trimmed, "[") {
		var values []int
		if err := json.Unmarshal([]byte(trimmed), &values); err != nil {
			return nil, errors.Wrap(err, "invalid keypair json")
		}
		for _, v := range values {
			if v < 0 || v > 255 {
				return nil, errors.Errorf("invalid keypair byte: %d", v)
			}
			raw = append(raw, byte(v))
		}
	} else {
		decoded, err := base58.Decode(trimmed)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 keypair")
		}
		raw = decoded
	}

	if len(raw) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair length: %d", len(raw))
	}

	key := ed25519.PrivateKey(raw)
	if !key.Public().(ed25519.PublicKey).Equal(ed25519.NewKeyFromSeed(key.Seed()).Public()) {
		return nil, errors.New("keypair public key does not match its seed")
	}
	return key, nil
}

func parsePublicKey(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid public key %q", value)
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid public key length for %q: %d", value, len(decoded))
	}
	return decoded, nil
}

type instructionInput struct {
	Program  string `json:"program"`
	Accounts []struct {
		PublicKey  string `json:"pubkey"`
		IsSigner   bool   `json:"signer"`
		IsWritable bool   `json:"writable"`
	} `json:"accounts"`
	Data string `json:"data"`
}

// loadInstructions reads the instructions to append from a JSON file:
//
//	[{"program": "<base58>", "accounts": [{"pubkey": "<base58>", "signer": false, "writable": true}], "data": "<base64>"}]
func loadInstructions(path string) ([]solana.Instruction, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading instructions %s", path)
	}

	return parseInstructions(contents)
}

func parseInstructions(contents []byte) ([]solana.Instruction, error) {
	var inputs []instructionInput
	if err := json.Unmarshal(contents, &inputs); err != nil {
		return nil, errors.Wrap(err, "invalid instructions json")
	}

	instructions := make([]solana.Instruction, 0, len(inputs))
	for i, input := range inputs {
		program, err := parsePublicKey(input.Program)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}

		data, err := base64.StdEncoding.DecodeString(input.Data)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d: invalid data", i)
		}

		ix := solana.NewInstruction(program, data)
		for j, account := range input.Accounts {
			key, err := parsePublicKey(account.PublicKey)
			if err != nil {
				return nil, errors.Wrapf(err, "instruction %d: account %d", i, j)
			}

			if account.IsWritable {
				ix.Accounts = append(ix.Accounts, solana.NewAccountMeta(key, account.IsSigner))
			} else {
				ix.Accounts = append(ix.Accounts, solana.NewReadonlyAccountMeta(key, account.IsSigner))
			}
		}

		instructions = append(instructions, ix)
	}

	return instructions, nil
}

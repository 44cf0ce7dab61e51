package compute_budget

import (
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/solana"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

var ErrInvalidInstructionData = errors.New("invalid compute budget instruction data")

const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

type setComputeUnitLimitData struct {
	Command uint8
	Units   uint32
}

type setComputeUnitPriceData struct {
	Command       uint8
	MicroLamports uint64
}

// SetComputeUnitLimit caps the compute units the transaction may consume.
func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	return solana.NewInstruction(ProgramKey, mustSerialize(setComputeUnitLimitData{
		Command: commandSetComputeUnitLimit,
		Units:   computeUnitLimit,
	}))
}

// SetComputeUnitPrice sets the priority fee, in micro-lamports per compute
// unit.
func SetComputeUnitPrice(computeUnitPrice uint64) solana.Instruction {
	return solana.NewInstruction(ProgramKey, mustSerialize(setComputeUnitPriceData{
		Command:       commandSetComputeUnitPrice,
		MicroLamports: computeUnitPrice,
	}))
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 || data[0] != commandSetComputeUnitLimit {
		return 0, ErrInvalidInstructionData
	}

	var decoded setComputeUnitLimitData
	if err := borsh.Deserialize(&decoded, data); err != nil {
		return 0, errors.Wrap(err, "failed to decode compute unit limit")
	}
	return decoded.Units, nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 || data[0] != commandSetComputeUnitPrice {
		return 0, ErrInvalidInstructionData
	}

	var decoded setComputeUnitPriceData
	if err := borsh.Deserialize(&decoded, data); err != nil {
		return 0, errors.Wrap(err, "failed to decode compute unit price")
	}
	return decoded.MicroLamports, nil
}

func mustSerialize(v interface{}) []byte {
	data, err := borsh.Serialize(v)
	if err != nil {
		panic(err)
	}
	return data
}

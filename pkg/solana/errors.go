package solana

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// TransactionErrorKey is the string key returned in a transaction error.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
type TransactionErrorKey string

const (
	TransactionErrorInternal                     TransactionErrorKey = "Internal"
	TransactionErrorAccountInUse                 TransactionErrorKey = "AccountInUse"
	TransactionErrorAccountLoadedTwice           TransactionErrorKey = "AccountLoadedTwice"
	TransactionErrorAccountNotFound              TransactionErrorKey = "AccountNotFound"
	TransactionErrorProgramAccountNotFound       TransactionErrorKey = "ProgramAccountNotFound"
	TransactionErrorInsufficientFundsForFee      TransactionErrorKey = "InsufficientFundsForFee"
	TransactionErrorInvalidAccountForFee         TransactionErrorKey = "InvalidAccountForFee"
	TransactionErrorDuplicateSignature           TransactionErrorKey = "DuplicateSignature"
	TransactionErrorBlockhashNotFound            TransactionErrorKey = "BlockhashNotFound"
	TransactionErrorInstructionError             TransactionErrorKey = "InstructionError"
	TransactionErrorCallChainTooDeep             TransactionErrorKey = "CallChainTooDeep"
	TransactionErrorMissingSignatureForFee       TransactionErrorKey = "MissingSignatureForFee"
	TransactionErrorInvalidAccountIndex          TransactionErrorKey = "InvalidAccountIndex"
	TransactionErrorSignatureFailure             TransactionErrorKey = "SignatureFailure"
	TransactionErrorInvalidProgramForExecution   TransactionErrorKey = "InvalidProgramForExecution"
	TransactionErrorSanitizeFailure              TransactionErrorKey = "SanitizeFailure"
	TransactionErrorClusterMaintenance           TransactionErrorKey = "ClusterMaintenance"
	TransactionErrorAccountBorrowOutstanding     TransactionErrorKey = "AccountBorrowOutstanding"
	TransactionErrorWouldExceedMaxBlockCostLimit TransactionErrorKey = "WouldExceedMaxBlockCostLimit"
	TransactionErrorUnsupportedVersion           TransactionErrorKey = "UnsupportedVersion"
	TransactionErrorInvalidWritableAccount       TransactionErrorKey = "InvalidWritableAccount"
)

// InstructionErrorKey is the string keys returned in an instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorGenericError              InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument           InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData    InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData        InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall       InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorInsufficientFunds         InstructionErrorKey = "InsufficientFunds"
	InstructionErrorIncorrectProgramID        InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature  InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount      InstructionErrorKey = "UninitializedAccount"
	InstructionErrorNotEnoughAccountKeys      InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorAccountNotExecutable      InstructionErrorKey = "AccountNotExecutable"
	InstructionErrorCustom                    InstructionErrorKey = "Custom"
	InstructionErrorInvalidError              InstructionErrorKey = "InvalidError"
	InstructionErrorMissingAccount            InstructionErrorKey = "MissingAccount"
	InstructionErrorInvalidSeeds              InstructionErrorKey = "InvalidSeeds"
	InstructionErrorInvalidRealloc            InstructionErrorKey = "InvalidRealloc"
	InstructionErrorComputationalBudget       InstructionErrorKey = "ComputationalBudgetExceeded"
)

// CustomError is the numerical error returned by a non-system program.
type CustomError uint32

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: 0x%x", uint32(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}

	if i.CustomError() != nil {
		return InstructionErrorCustom
	}

	return InstructionErrorKey(i.Err.Error())
}

func (i InstructionError) CustomError() *CustomError {
	if ce, ok := i.Err.(CustomError); ok {
		return &ce
	}
	return nil
}

func (i InstructionError) raw() interface{} {
	if ce := i.CustomError(); ce != nil {
		return []interface{}{i.Index, map[string]interface{}{string(InstructionErrorCustom): uint32(*ce)}}
	}
	return []interface{}{i.Index, i.Err.Error()}
}

// TransactionError is the decoded "err" field of a failed transaction.
type TransactionError struct {
	key              TransactionErrorKey
	instructionError *InstructionError
	raw              interface{}
}

// NewTransactionError returns a TransactionError for a key that carries no
// further details.
func NewTransactionError(key TransactionErrorKey) *TransactionError {
	return &TransactionError{
		key: key,
		raw: string(key),
	}
}

// NewInstructionTransactionError wraps an instruction failure into a
// TransactionError, as the runtime reports it.
func NewInstructionTransactionError(err InstructionError) *TransactionError {
	return &TransactionError{
		key:              TransactionErrorInstructionError,
		instructionError: &err,
		raw: map[string]interface{}{
			string(TransactionErrorInstructionError): err.raw(),
		},
	}
}

// ParseTransactionError parses the JSON error returned from the "err" field in
// various RPC results.
func ParseTransactionError(raw interface{}) (*TransactionError, error) {
	switch t := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return &TransactionError{key: TransactionErrorKey(t), raw: raw}, nil
	case map[string]interface{}:
		if len(t) != 1 {
			return nil, errors.Errorf("invalid transaction error size: %d", len(t))
		}

		for k, v := range t {
			if k != string(TransactionErrorInstructionError) {
				return &TransactionError{key: TransactionErrorKey(k), raw: raw}, nil
			}

			instructionErr, err := parseInstructionError(v)
			if err != nil {
				return nil, errors.Wrap(err, "failed to parse instruction error")
			}

			return &TransactionError{
				key:              TransactionErrorInstructionError,
				instructionError: &instructionErr,
				raw:              raw,
			}, nil
		}
	}

	return nil, errors.Errorf("unhandled transaction error type: %T", raw)
}

func parseInstructionError(v interface{}) (e InstructionError, err error) {
	values, ok := v.([]interface{})
	if !ok {
		return e, errors.New("unexpected instruction error format")
	}
	if len(values) != 2 {
		return e, errors.Errorf("invalid number of entries in InstructionError tuple: %d", len(values))
	}

	e.Index, err = parseJSONNumber(values[0])
	if err != nil {
		return e, err
	}

	switch t := values[1].(type) {
	case string:
		e.Err = errors.New(t)
	case map[string]interface{}:
		if len(t) != 1 {
			return e, errors.Errorf("invalid instruction error size: %d", len(t))
		}

		for k, v := range t {
			if k != string(InstructionErrorCustom) {
				e.Err = errors.New(k)
				continue
			}

			code, err := parseJSONNumber(v)
			if err != nil {
				return e, errors.Wrap(err, "invalid custom error code")
			}
			e.Err = CustomError(code)
		}
	default:
		return e, errors.Errorf("unhandled instruction error type: %T", t)
	}

	return e, nil
}

func (t TransactionError) Error() string {
	if t.instructionError != nil {
		return t.instructionError.Error()
	}
	return string(t.key)
}

func (t TransactionError) ErrorKey() TransactionErrorKey {
	return t.key
}

func (t TransactionError) InstructionError() *InstructionError {
	return t.instructionError
}

// CustomError returns the program error code of the failing instruction, if
// any.
func (t TransactionError) CustomError() *CustomError {
	if t.instructionError == nil {
		return nil
	}
	return t.instructionError.CustomError()
}

func (t TransactionError) JSONString() (string, error) {
	b, err := json.Marshal(t.raw)
	return string(b), err
}

// SendTransactionError is returned when the node rejects a transaction,
// typically during preflight simulation.
type SendTransactionError struct {
	Message string
	Code    int
	Err     *TransactionError
	Logs    []string
}

func (e *SendTransactionError) Error() string {
	var sb strings.Builder
	sb.WriteString("failed to send transaction: ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(" (")
		sb.WriteString(e.Err.Error())
		sb.WriteString(")")
	}
	return sb.String()
}

// Unwrap exposes the decoded transaction error, when present.
func (e *SendTransactionError) Unwrap() error {
	if e.Err == nil {
		return nil
	}
	return e.Err
}

// ParseSendTransactionError decodes the "err" and "logs" fields attached to a
// sendTransaction RPC error.
func ParseSendTransactionError(rpcErr *jsonrpc.RPCError) (*SendTransactionError, error) {
	if rpcErr == nil {
		return nil, nil
	}

	sendErr := &SendTransactionError{
		Message: rpcErr.Message,
		Code:    rpcErr.Code,
	}

	data, ok := rpcErr.Data.(map[string]interface{})
	if !ok {
		return sendErr, nil
	}

	if logs, ok := data["logs"].([]interface{}); ok {
		for _, l := range logs {
			if line, ok := l.(string); ok {
				sendErr.Logs = append(sendErr.Logs, line)
			}
		}
	}

	if raw, ok := data["err"]; ok && raw != nil {
		txErr, err := ParseTransactionError(raw)
		if err != nil {
			return sendErr, err
		}
		sendErr.Err = txErr
	}

	return sendErr, nil
}

func parseJSONNumber(v interface{}) (int, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, errors.Errorf("non int64 value: %v", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, errors.Errorf("non numeric value: %v", v)
		}
		return int(n), nil
	case float64:
		return int(t), nil
	}

	return 0, errors.Errorf("non numeric value: %v", v)
}

package multisig

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"

	"github.com/code-payments/multisig-client/pkg/solana"
)

// ProgramError is a failure reported by the multisig program or by the
// framework validating its accounts.
type ProgramError struct {
	Code    uint32
	Name    string
	Message string

	// Logs emitted by the failed simulation or execution, when available.
	Logs []string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

// Is matches any ProgramError with the same code.
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	return ok && t.Code == e.Code
}

func (e *ProgramError) withLogs(logs []string) *ProgramError {
	cloned := *e
	cloned.Logs = logs
	return &cloned
}

var programErrors = make(map[uint32]*ProgramError)

func newProgramError(code uint32, name, message string) *ProgramError {
	e := &ProgramError{Code: code, Name: name, Message: message}
	programErrors[code] = e
	return e
}

// Multisig program errors
var (
	ErrDuplicateMember                = newProgramError(6000, "DuplicateMember", "Found multiple members with the same pubkey")
	ErrEmptyMembers                   = newProgramError(6001, "EmptyMembers", "Members array is empty")
	ErrTooManyMembers                 = newProgramError(6002, "TooManyMembers", "Too many members, can be up to 65535")
	ErrInvalidThreshold               = newProgramError(6003, "InvalidThreshold", "Invalid threshold, must be between 1 and number of members with Vote permission")
	ErrUnauthorized                   = newProgramError(6004, "Unauthorized", "Attempted to perform an unauthorized action")
	ErrNotAMember                     = newProgramError(6005, "NotAMember", "Provided pubkey is not a member of multisig")
	ErrInvalidTransactionMessage      = newProgramError(6006, "InvalidTransactionMessage", "TransactionMessage is malformed.")
	ErrStaleProposal                  = newProgramError(6007, "StaleProposal", "Proposal is stale")
	ErrInvalidProposalStatus          = newProgramError(6008, "InvalidProposalStatus", "Invalid proposal status")
	ErrInvalidTransactionIndex        = newProgramError(6009, "InvalidTransactionIndex", "Invalid transaction index")
	ErrAlreadyApproved                = newProgramError(6010, "AlreadyApproved", "Member already approved the transaction")
	ErrAlreadyRejected                = newProgramError(6011, "AlreadyRejected", "Member already rejected the transaction")
	ErrAlreadyCancelled               = newProgramError(6012, "AlreadyCancelled", "Member already cancelled the transaction")
	ErrInvalidNumberOfAccounts        = newProgramError(6013, "InvalidNumberOfAccounts", "Wrong number of accounts provided")
	ErrInvalidAccount                 = newProgramError(6014, "InvalidAccount", "Invalid account provided")
	ErrRemoveLastMember               = newProgramError(6015, "RemoveLastMember", "Cannot remove last member")
	ErrNoVoters                       = newProgramError(6016, "NoVoters", "Members don't include any voters")
	ErrNoProposers                    = newProgramError(6017, "NoProposers", "Members don't include any proposers")
	ErrNoExecutors                    = newProgramError(6018, "NoExecutors", "Members don't include any executors")
	ErrInvalidStaleTransactionIndex   = newProgramError(6019, "InvalidStaleTransactionIndex", "`stale_transaction_index` must be <= `transaction_index`")
	ErrNotSupportedForControlled      = newProgramError(6020, "NotSupportedForControlled", "Instruction not supported for controlled multisig")
	ErrTimeLockNotReleased            = newProgramError(6021, "TimeLockNotReleased", "Proposal time lock has not been released")
	ErrNoActions                      = newProgramError(6022, "NoActions", "Config transaction must have at least one action")
	ErrMissingAccount                 = newProgramError(6023, "MissingAccount", "Missing account")
	ErrInvalidMint                    = newProgramError(6024, "InvalidMint", "Invalid mint")
	ErrInvalidDestination             = newProgramError(6025, "InvalidDestination", "Invalid destination")
	ErrSpendingLimitExceeded          = newProgramError(6026, "SpendingLimitExceeded", "Spending limit exceeded")
	ErrDecimalsMismatch               = newProgramError(6027, "DecimalsMismatch", "Decimals don't match the mint")
	ErrUnknownPermission              = newProgramError(6028, "UnknownPermission", "Member has unknown permission")
	ErrProtectedAccount               = newProgramError(6029, "ProtectedAccount", "Account is protected, it cannot be passed into a CPI as writable")
	ErrTimeLockExceedsMaxAllowed      = newProgramError(6030, "TimeLockExceedsMaxAllowed", "Time lock exceeds the maximum allowed (90 days)")
	ErrIllegalAccountOwner            = newProgramError(6031, "IllegalAccountOwner", "Account is not owned by Multisig program")
	ErrRentReclamationDisabled        = newProgramError(6032, "RentReclamationDisabled", "Rent reclamation is disabled for this multisig")
	ErrInvalidRentCollector           = newProgramError(6033, "InvalidRentCollector", "Invalid rent collector address")
	ErrProposalForAnotherMultisig     = newProgramError(6034, "ProposalForAnotherMultisig", "Proposal is for another multisig")
	ErrTransactionForAnotherMultisig  = newProgramError(6035, "TransactionForAnotherMultisig", "Transaction is for another multisig")
	ErrTransactionNotMatchingProposal = newProgramError(6036, "TransactionNotMatchingProposal", "Transaction doesn't match proposal")
	ErrTransactionNotLastInBatch      = newProgramError(6037, "TransactionNotLastInBatch", "Transaction is not last in batch")
	ErrBatchNotEmpty                  = newProgramError(6038, "BatchNotEmpty", "Batch is not empty")
	ErrSpendingLimitInvalidAmount     = newProgramError(6039, "SpendingLimitInvalidAmount", "Invalid SpendingLimit amount")
	ErrTransactionMessageTooLarge     = newProgramError(6040, "TransactionTooLarge", "Transaction message exceeds the maximum size")
)

// Framework errors raised while validating instruction accounts. These
// surface when a derived address or account doesn't match the one the
// program expects.
var (
	ErrInstructionMissing             = newProgramError(100, "InstructionMissing", "8 byte instruction identifier not provided")
	ErrInstructionFallbackNotFound    = newProgramError(101, "InstructionFallbackNotFound", "Fallback functions are not supported")
	ErrInstructionDidNotDeserialize   = newProgramError(102, "InstructionDidNotDeserialize", "The program could not deserialize the given instruction")
	ErrConstraintMut                  = newProgramError(2000, "ConstraintMut", "A mut constraint was violated")
	ErrConstraintHasOne               = newProgramError(2001, "ConstraintHasOne", "A has one constraint was violated")
	ErrConstraintSigner               = newProgramError(2002, "ConstraintSigner", "A signer constraint was violated")
	ErrConstraintSeeds                = newProgramError(2006, "ConstraintSeeds", "A seeds constraint was violated")
	ErrConstraintAddress              = newProgramError(2012, "ConstraintAddress", "An address constraint was violated")
	ErrAccountDiscriminatorNotFound   = newProgramError(3001, "AccountDiscriminatorNotFound", "No 8 byte discriminator was found on the account")
	ErrAccountDiscriminatorMismatch   = newProgramError(3002, "AccountDiscriminatorMismatch", "8 byte discriminator did not match what was expected")
	ErrAccountDidNotDeserialize       = newProgramError(3003, "AccountDidNotDeserialize", "Failed to deserialize the account")
	ErrAccountNotEnoughKeys           = newProgramError(3005, "AccountNotEnoughKeys", "Not enough account keys given to the instruction")
	ErrAccountNotMutable              = newProgramError(3006, "AccountNotMutable", "The given account is not mutable")
	ErrAccountOwnedByWrongProgram     = newProgramError(3007, "AccountOwnedByWrongProgram", "The given account is owned by a different program than expected")
	ErrInvalidProgramId               = newProgramError(3008, "InvalidProgramId", "Program ID was not as expected")
	ErrAccountNotSigner               = newProgramError(3010, "AccountNotSigner", "The given account did not sign")
	ErrAccountNotSystemOwned          = newProgramError(3011, "AccountNotSystemOwned", "The given account is not owned by the system program")
	ErrAccountNotInitialized          = newProgramError(3012, "AccountNotInitialized", "The program expected this account to be already initialized")
	ErrAccountReallocExceedsLimit     = newProgramError(3016, "AccountReallocExceedsLimit", "The account reallocation exceeds the MAX_PERMITTED_DATA_INCREASE limit")
)

var anchorErrorLogPattern = regexp.MustCompile(`Error Code: (\w+)\. Error Number: (\d+)\. Error Message: (.+)`)

// TranslateError maps ledger failures to a *ProgramError where the failing
// program is identifiable, either from a known custom error code or from
// the framework's error log line. Any other error is returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var logs []string
	var txErr *solana.TransactionError

	var sendErr *solana.SendTransactionError
	if errors.As(err, &sendErr) {
		logs = sendErr.Logs
		txErr = sendErr.Err
	} else {
		errors.As(err, &txErr)
	}

	if txErr != nil {
		if code := txErr.CustomError(); code != nil {
			if known, ok := programErrors[uint32(*code)]; ok {
				return known.withLogs(logs)
			}
		}
	}

	if parsed := parseErrorLogs(logs); parsed != nil {
		return parsed
	}

	return err
}

func parseErrorLogs(logs []string) *ProgramError {
	for _, line := range logs {
		matches := anchorErrorLogPattern.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		code, err := strconv.ParseUint(matches[2], 10, 32)
		if err != nil {
			continue
		}

		return &ProgramError{
			Code:    uint32(code),
			Name:    matches[1],
			Message: matches[3],
			Logs:    logs,
		}
	}

	return nil
}

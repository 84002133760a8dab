package ethvm

import (
	"errors"
	"fmt"
)

// List of execution errors. Any of them, raised while a machine runs,
// reverts the enclosing substate and consumes the remaining gas, except
// for ErrExecutionReverted which leaves unused gas with the caller.
var (
	ErrOutOfGas                 = errors.New("out of gas")
	ErrGasUintOverflow          = errors.New("gas uint64 overflow")
	ErrDepth                    = errors.New("max call depth exceeded")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrExecutionReverted        = errors.New("execution reverted")
	ErrMaxCodeSizeExceeded      = errors.New("max code size exceeded")
	ErrInvalidCode              = errors.New("invalid code: must not begin with 0xef")
	ErrCodeStoreOutOfGas        = errors.New("contract creation code storage out of gas")
	ErrInvalidJump              = errors.New("invalid jump destination")
	ErrWriteProtection          = errors.New("write protection")
	ErrReturnDataOutOfBounds    = errors.New("return data out of bounds")
	ErrNonceUintOverflow        = errors.New("nonce uint64 overflow")
	ErrUnhandledInterrupt       = errors.New("unhandled interrupt")
)

// errStepTrapped is returned by a call or create instruction whose
// sub-execution was left to the embedder. It never escapes Step.
var errStepTrapped = errors.New("sub-execution trapped")

// ErrStackUnderflow wraps an evm error when the items on the stack less
// than the minimal requirement.
type ErrStackUnderflow struct {
	stackLen int
	required int
}

func (e *ErrStackUnderflow) Error() string {
	return fmt.Sprintf("stack underflow (%d <=> %d)", e.stackLen, e.required)
}

// ErrStackOverflow wraps an evm error when the items on the stack exceeds
// the maximum allowance.
type ErrStackOverflow struct {
	stackLen int
	limit    int
}

func (e *ErrStackOverflow) Error() string {
	return fmt.Sprintf("stack limit reached %d (%d)", e.stackLen, e.limit)
}

// ErrInvalidOpcode wraps an evm error when an invalid opcode is encountered.
type ErrInvalidOpcode struct {
	opcode byte
}

func (e *ErrInvalidOpcode) Error() string {
	return fmt.Sprintf("invalid opcode: 0x%x", e.opcode)
}

// ExitKind classifies how a run ended.
type ExitKind byte

const (
	// ExitSucceed means the machine ran to a normal stop, return or
	// self destruct.
	ExitSucceed ExitKind = iota
	// ExitRevert means the machine executed REVERT; state changes of
	// the run are rolled back but unused gas is kept.
	ExitRevert
	// ExitError means the run failed with an execution error and
	// consumed its gas.
	ExitError
	// ExitFatal means the run hit a condition the embedder cannot
	// recover from, such as an unresolved host interrupt.
	ExitFatal
)

func (k ExitKind) String() string {
	switch k {
	case ExitSucceed:
		return "succeed"
	case ExitRevert:
		return "revert"
	case ExitError:
		return "error"
	case ExitFatal:
		return "fatal"
	default:
		return fmt.Sprintf("exit kind %d not defined", byte(k))
	}
}

// ExitReason is the terminal classification of a finished run, paired
// with the underlying error for the revert, error and fatal kinds.
type ExitReason struct {
	Kind ExitKind
	Err  error
}

// Succeed builds the exit reason of a normally finished run.
func Succeed() ExitReason {
	return ExitReason{Kind: ExitSucceed}
}

// Revert builds the exit reason of a reverted run.
func Revert() ExitReason {
	return ExitReason{Kind: ExitRevert, Err: ErrExecutionReverted}
}

// Failure builds the exit reason of a run stopped by an execution error.
func Failure(err error) ExitReason {
	return ExitReason{Kind: ExitError, Err: err}
}

// Fatality builds the exit reason of an unrecoverable run.
func Fatality(err error) ExitReason {
	return ExitReason{Kind: ExitFatal, Err: err}
}

// Succeeded reports whether the run finished normally.
func (r ExitReason) Succeeded() bool { return r.Kind == ExitSucceed }

// Reverted reports whether the run ended in REVERT.
func (r ExitReason) Reverted() bool { return r.Kind == ExitRevert }

// Failed reports whether the run ended in an error or fatal condition.
func (r ExitReason) Failed() bool { return r.Kind == ExitError || r.Kind == ExitFatal }

func (r ExitReason) String() string {
	if r.Err == nil {
		return r.Kind.String()
	}
	return fmt.Sprintf("%s: %v", r.Kind, r.Err)
}

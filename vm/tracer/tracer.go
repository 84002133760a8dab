// Package tracer drives an executor one instruction at a time and
// records a step log per executed instruction, for transaction-level
// debugging.
//
// Nested calls intercepted while tracing run with the caller and value
// shaping the apparent context only: no balance moves and the static
// flag is not inherited. A traced run therefore matches plain execution
// exactly for zero-value, non-static call trees.
package tracer

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/ethvm"
)

// TraceExecutor wraps an executor and owns it exclusively for the
// lifetime of one top level call or create. It implements the handler
// contract by forwarding everything to the wrapped executor, except
// nested calls and creates, which it intercepts to trace recursively
// while tracing is enabled.
//
// Whether tracing is enabled or not never changes the outcome of the
// execution, only whether step logs accumulate.
type TraceExecutor struct {
	inner   *ethvm.Executor
	tracing bool
	steps   []StepLog

	logger log.Logger
}

// NewTraceExecutor wraps inner. With tracing disabled the wrapper is
// transparent and records nothing.
func NewTraceExecutor(inner *ethvm.Executor, tracing bool) *TraceExecutor {
	return &TraceExecutor{
		inner:   inner,
		tracing: tracing,
		logger:  log.New("module", "tracer"),
	}
}

// StepLogs returns the steps recorded so far, in execution order.
func (t *TraceExecutor) StepLogs() []StepLog {
	return t.steps
}

// trace steps the machine to completion, appending one step log per
// instruction whose cost computation succeeds.
func (t *TraceExecutor) trace(m *ethvm.Machine) ethvm.ExitReason {
	for {
		instr, stack, ok := m.Inspect()
		if !ok {
			if _, reason := m.Position(); reason != nil {
				return *reason
			}
			// Inspect and Position must agree on whether the machine
			// can still step.
			panic("tracer: no instruction to inspect on a live machine")
		}
		sub := t.inner.InnermostSubstate()
		ctx := m.Context()

		cost, _, err := t.inner.OpcodeCost(ctx, instr, stack, m.Memory(), sub.IsStatic())
		if err != nil {
			return ethvm.Failure(err)
		}
		gasometer := sub.Gasometer().Clone()
		gasCost, err := gasometer.GasCost(cost, gasometer.Gas())
		if err != nil {
			return ethvm.Failure(err)
		}
		pc, exit := m.Position()
		if exit != nil {
			// A machine that cannot be positioned ends the trace with
			// its terminal reason before the step is recorded.
			return *exit
		}

		if t.tracing {
			t.steps = append(t.steps, t.captureStep(m, sub, instr, gasCost, pc))
		}

		done, reason, trapped := m.Step(t)
		if trapped {
			return ethvm.Fatality(ethvm.ErrUnhandledInterrupt)
		}
		if done {
			return reason
		}
	}
}

// captureStep snapshots the machine state ahead of one instruction.
// Memory and stack are copied so later execution cannot mutate the
// recorded step.
func (t *TraceExecutor) captureStep(m *ethvm.Machine, sub *ethvm.Substate, instr ethvm.Instruction, gasCost, pc uint64) StepLog {
	var depth uint64
	if d, ok := sub.Depth(); ok {
		depth = uint64(d)
	}
	storage := t.inner.AccountStorage(m.Context().Address)
	if storage == nil {
		storage = make(map[common.Hash]common.Hash)
	}
	return StepLog{
		Depth:   depth,
		Gas:     t.inner.Gas(),
		GasCost: gasCost,
		Memory:  append([]byte(nil), m.Memory().Data()...),
		Op:      instr.String(),
		Pc:      pc,
		Stack:   append([]uint256.Int(nil), m.Stack().Data()...),
		Storage: storage,
	}
}

// TraceCall runs the code deployed at address in a fresh scope funded
// with gasLimit, stepping it under the tracer. The caller and value
// shape the apparent context only; no balance moves.
func (t *TraceExecutor) TraceCall(caller, address common.Address, value *big.Int, input []byte, gasLimit uint64) ethvm.CallCapture {
	if d, ok := t.inner.InnermostSubstate().Depth(); ok && d+1 >= t.inner.Config().CallCreateDepth {
		return ethvm.CallCapture{Reason: ethvm.Failure(ethvm.ErrDepth)}
	}
	if value == nil {
		value = new(big.Int)
	}
	t.logger.Trace("Tracing call", "to", address, "gas", gasLimit, "input", len(input))

	code := t.inner.Code(address)
	t.inner.EnterSubstate(gasLimit, false)
	t.inner.Touch(address)

	ctx := ethvm.Context{Address: address, Caller: caller, ApparentValue: value}
	machine := ethvm.NewMachine(code, input, ctx, t.inner.Config())

	reason := t.trace(machine)

	switch {
	case reason.Succeeded():
		t.inner.ExitSubstate(ethvm.SubstateCommit)
		return ethvm.CallCapture{Reason: reason, Output: machine.ReturnValue()}
	case reason.Reverted():
		t.inner.ExitSubstate(ethvm.SubstateRevert)
		return ethvm.CallCapture{Reason: reason, Output: machine.ReturnValue()}
	default:
		t.inner.ExitSubstate(ethvm.SubstateDiscard)
		return ethvm.CallCapture{Reason: reason}
	}
}

// TraceCreate deploys initCode with the legacy address scheme in a
// fresh scope funded with gasLimit, stepping it under the tracer. The
// derived address is reported on success and on revert.
func (t *TraceExecutor) TraceCreate(caller common.Address, value *big.Int, initCode []byte, gasLimit uint64) ethvm.CreateCapture {
	if d, ok := t.inner.InnermostSubstate().Depth(); ok && d+1 >= t.inner.Config().CallCreateDepth {
		return ethvm.CreateCapture{Reason: ethvm.Failure(ethvm.ErrDepth)}
	}
	if value == nil {
		value = new(big.Int)
	}
	scheme := ethvm.LegacyCreateScheme(caller)
	address := t.inner.CreateAddress(scheme, initCode)
	t.logger.Trace("Tracing create", "address", address, "gas", gasLimit, "code", len(initCode))

	db := t.inner.StateDB()
	db.SetNonce(caller, db.GetNonce(caller)+1)

	t.inner.EnterSubstate(gasLimit, false)
	db.CreateAccount(address)
	db.SetNonce(address, 1)
	t.inner.Touch(address)

	ctx := ethvm.Context{Address: address, Caller: caller, ApparentValue: value}
	machine := ethvm.NewMachine(initCode, nil, ctx, t.inner.Config())

	reason := t.trace(machine)

	switch {
	case reason.Succeeded():
		db.SetCode(address, machine.ReturnValue())
		t.inner.ExitSubstate(ethvm.SubstateCommit)
		return ethvm.CreateCapture{Reason: reason, Address: &address, Output: machine.ReturnValue()}
	case reason.Reverted():
		t.inner.ExitSubstate(ethvm.SubstateRevert)
		return ethvm.CreateCapture{Reason: reason, Address: &address, Output: machine.ReturnValue()}
	default:
		t.inner.ExitSubstate(ethvm.SubstateDiscard)
		return ethvm.CreateCapture{Reason: reason}
	}
}

// Handler pass-through surface. Every capability a stepped machine
// needs is forwarded to the wrapped executor; only nested calls and
// creates are intercepted while tracing.

func (t *TraceExecutor) Balance(addr common.Address) *big.Int {
	return t.inner.Balance(addr)
}

func (t *TraceExecutor) CodeSize(addr common.Address) int {
	return t.inner.CodeSize(addr)
}

func (t *TraceExecutor) CodeHash(addr common.Address) common.Hash {
	return t.inner.CodeHash(addr)
}

func (t *TraceExecutor) Code(addr common.Address) []byte {
	return t.inner.Code(addr)
}

func (t *TraceExecutor) Storage(addr common.Address, key common.Hash) common.Hash {
	return t.inner.Storage(addr, key)
}

func (t *TraceExecutor) OriginalStorage(addr common.Address, key common.Hash) common.Hash {
	return t.inner.OriginalStorage(addr, key)
}

func (t *TraceExecutor) Exists(addr common.Address) bool {
	return t.inner.Exists(addr)
}

func (t *TraceExecutor) Deleted(addr common.Address) bool {
	return t.inner.Deleted(addr)
}

func (t *TraceExecutor) GasLeft() uint64 { return t.inner.GasLeft() }

func (t *TraceExecutor) GasPrice() *big.Int { return t.inner.GasPrice() }

func (t *TraceExecutor) Origin() common.Address { return t.inner.Origin() }

func (t *TraceExecutor) BlockHash(number uint64) common.Hash {
	return t.inner.BlockHash(number)
}

func (t *TraceExecutor) BlockNumber() *big.Int { return t.inner.BlockNumber() }

func (t *TraceExecutor) BlockCoinbase() common.Address { return t.inner.BlockCoinbase() }

func (t *TraceExecutor) BlockTimestamp() *big.Int { return t.inner.BlockTimestamp() }

func (t *TraceExecutor) BlockDifficulty() *big.Int { return t.inner.BlockDifficulty() }

func (t *TraceExecutor) BlockGasLimit() uint64 { return t.inner.BlockGasLimit() }

func (t *TraceExecutor) ChainID() *big.Int { return t.inner.ChainID() }

func (t *TraceExecutor) CallGasTemp() uint64 { return t.inner.CallGasTemp() }

func (t *TraceExecutor) SetStorage(addr common.Address, key, value common.Hash) error {
	return t.inner.SetStorage(addr, key, value)
}

func (t *TraceExecutor) Log(addr common.Address, topics []common.Hash, data []byte) error {
	return t.inner.Log(addr, topics, data)
}

func (t *TraceExecutor) MarkDelete(addr, target common.Address) error {
	return t.inner.MarkDelete(addr, target)
}

func (t *TraceExecutor) Create(caller common.Address, scheme ethvm.CreateScheme, value *big.Int, initCode []byte, targetGas *uint64) ethvm.CreateCapture {
	if t.tracing {
		gasLimit := uint64(math.MaxUint64)
		if targetGas != nil {
			gasLimit = *targetGas
		}
		return t.TraceCreate(caller, value, initCode, gasLimit)
	}
	return t.inner.Create(caller, scheme, value, initCode, targetGas)
}

func (t *TraceExecutor) Call(codeAddress common.Address, transfer *ethvm.Transfer, input []byte, targetGas *uint64, static bool, ctx ethvm.Context) ethvm.CallCapture {
	if t.tracing {
		caller, value := codeAddress, new(big.Int)
		if transfer != nil {
			caller, value = transfer.Source, transfer.Value
		}
		gasLimit := uint64(math.MaxUint64)
		if targetGas != nil {
			gasLimit = *targetGas
		}
		return t.TraceCall(caller, codeAddress, value, input, gasLimit)
	}
	return t.inner.Call(codeAddress, transfer, input, targetGas, static, ctx)
}

func (t *TraceExecutor) PreValidate(ctx ethvm.Context, instr ethvm.Instruction, stack *ethvm.Stack, mem *ethvm.Memory) (uint64, error) {
	return t.inner.PreValidate(ctx, instr, stack, mem)
}

var _ ethvm.Handler = (*TraceExecutor)(nil)

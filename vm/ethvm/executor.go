package ethvm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
)

var emptyCodeHash = crypto.Keccak256Hash(nil)

// Executor drives machines against a StateDB. It owns the substate
// stack of the ongoing execution and implements Handler for the
// machines it runs, resolving nested calls and creates inline.
//
// The Executor should never be reused across transactions and is not
// safe for concurrent use.
type Executor struct {
	statedb  StateDB
	blockCtx BlockContext
	txCtx    TxContext
	config   *Config

	substates []*Substate

	// storage collects the slots of every account touched by the
	// execution, as the running code reads and writes them.
	storage map[common.Address]map[common.Hash]common.Hash

	// callGasTemp latches the gas forwarded to the call or create whose
	// cost was computed most recently.
	callGasTemp uint64

	logger log.Logger
}

// NewExecutor builds an executor over statedb with gasLimit on its
// transaction scope.
func NewExecutor(statedb StateDB, blockCtx BlockContext, txCtx TxContext, config *Config, gasLimit uint64) *Executor {
	if config == nil {
		config = DefaultConfig()
	}
	root := &Substate{
		gasometer: NewGasometer(gasLimit),
		depth:     -1,
		snapshot:  statedb.Snapshot(),
	}
	return &Executor{
		statedb:   statedb,
		blockCtx:  blockCtx,
		txCtx:     txCtx,
		config:    config,
		substates: []*Substate{root},
		storage:   make(map[common.Address]map[common.Hash]common.Hash),
		logger:    log.New("module", "ethvm"),
	}
}

// Config returns the executor's configuration.
func (e *Executor) Config() *Config { return e.config }

// StateDB returns the executor's backing state.
func (e *Executor) StateDB() StateDB { return e.statedb }

// InnermostSubstate returns the currently executing scope.
func (e *Executor) InnermostSubstate() *Substate {
	return e.substates[len(e.substates)-1]
}

// Gas returns the gas remaining in the currently executing scope.
func (e *Executor) Gas() uint64 {
	return e.InnermostSubstate().Gasometer().Gas()
}

// UsedGas returns the gas spent by the currently executing scope.
func (e *Executor) UsedGas() uint64 {
	return e.InnermostSubstate().Gasometer().UsedGas()
}

// EnterSubstate pushes a new execution scope with its own gas account
// and a state snapshot to roll back to. A static parent forces the
// child static.
func (e *Executor) EnterSubstate(gasLimit uint64, static bool) *Substate {
	parent := e.InnermostSubstate()
	depth := 0
	if d, ok := parent.Depth(); ok {
		depth = d + 1
	}
	sub := &Substate{
		gasometer: NewGasometer(gasLimit),
		static:    parent.static || static,
		depth:     depth,
		snapshot:  e.statedb.Snapshot(),
	}
	e.substates = append(e.substates, sub)
	return sub
}

// ExitSubstate pops the innermost scope and folds it into its parent
// according to mode. Popping the root scope is a programming error.
func (e *Executor) ExitSubstate(mode SubstateExit) {
	if len(e.substates) < 2 {
		panic("ethvm: exit of the transaction scope")
	}
	child := e.substates[len(e.substates)-1]
	e.substates = e.substates[:len(e.substates)-1]
	parent := e.InnermostSubstate()

	switch mode {
	case SubstateCommit:
		parent.gasometer.ReturnGas(child.gasometer.Gas())
	case SubstateRevert:
		e.statedb.RevertToSnapshot(child.snapshot)
		parent.gasometer.ReturnGas(child.gasometer.Gas())
	case SubstateDiscard:
		e.statedb.RevertToSnapshot(child.snapshot)
	}
}

// Touch makes sure addr exists in state and is tracked in the storage
// collection.
func (e *Executor) Touch(addr common.Address) {
	if !e.statedb.Exist(addr) {
		e.statedb.CreateAccount(addr)
	}
	if _, ok := e.storage[addr]; !ok {
		e.storage[addr] = make(map[common.Hash]common.Hash)
	}
}

// AccountStorage returns a copy of the storage slots of addr known to
// this execution, or nil if the account was never touched.
func (e *Executor) AccountStorage(addr common.Address) map[common.Hash]common.Hash {
	slots, ok := e.storage[addr]
	if !ok {
		return nil
	}
	cpy := make(map[common.Hash]common.Hash, len(slots))
	for key, value := range slots {
		cpy[key] = value
	}
	return cpy
}

func (e *Executor) setCallGasTemp(gas uint64) {
	e.callGasTemp = gas
}

// CallGasTemp implements Handler.
func (e *Executor) CallGasTemp() uint64 { return e.callGasTemp }

// OpcodeCost computes the gas an instruction will charge in the given
// scope, along with the memory size the scope must grow to. It also
// performs the stack and write-protection validation that precedes
// charging. Computing a cost has no effect on gas accounting, so the
// same instruction may be costed more than once.
func (e *Executor) OpcodeCost(ctx Context, instr Instruction, stack *Stack, mem *Memory, static bool) (cost, memorySize uint64, err error) {
	op := defaultInstructionSet[instr.Byte()]
	if op == nil {
		return 0, 0, &ErrInvalidOpcode{opcode: instr.Byte()}
	}
	if sLen := stack.Len(); sLen < op.minStack {
		return 0, 0, &ErrStackUnderflow{stackLen: sLen, required: op.minStack}
	} else if sLen > op.maxStack {
		return 0, 0, &ErrStackOverflow{stackLen: sLen, limit: op.maxStack}
	}
	if static {
		if op.writes {
			return 0, 0, ErrWriteProtection
		}
		// CALL is the one non-writing op that can still move value.
		if ext, isExt := instr.External(); isExt && ext == CALL && stack.Back(2).Sign() != 0 {
			return 0, 0, ErrWriteProtection
		}
	}
	if op.memorySize != nil {
		memSize, overflow := op.memorySize(stack)
		if overflow {
			return 0, 0, ErrGasUintOverflow
		}
		// memory is expanded in words of 32 bytes
		if memorySize, overflow = math.SafeMul(toWordSize(memSize), 32); overflow {
			return 0, 0, ErrGasUintOverflow
		}
	}
	cost = op.constantGas
	if op.dynamicGas != nil {
		availableGas := e.Gas()
		if availableGas > op.constantGas {
			availableGas -= op.constantGas
		} else {
			availableGas = 0
		}
		dynamicCost, err := op.dynamicGas(e, ctx, stack, mem, memorySize, availableGas)
		if err != nil {
			return 0, 0, err
		}
		var overflow bool
		if cost, overflow = math.SafeAdd(cost, dynamicCost); overflow {
			return 0, 0, ErrGasUintOverflow
		}
	}
	return cost, memorySize, nil
}

// CreateAddress derives the address a create with the given scheme and
// init code will deploy to.
func (e *Executor) CreateAddress(scheme CreateScheme, initCode []byte) common.Address {
	if scheme.Salt != nil {
		return crypto.CreateAddress2(scheme.Caller, *scheme.Salt, crypto.Keccak256(initCode))
	}
	return crypto.CreateAddress(scheme.Caller, e.statedb.GetNonce(scheme.Caller))
}

// nextDepth returns the depth a scope entered now would run at.
func (e *Executor) nextDepth() int {
	if d, ok := e.InnermostSubstate().Depth(); ok {
		return d + 1
	}
	return 0
}

// run steps the machine to completion against the given handler.
func (e *Executor) run(m *Machine, h Handler) ExitReason {
	for {
		done, reason, trapped := m.Step(h)
		if trapped {
			return Fatality(ErrUnhandledInterrupt)
		}
		if done {
			return reason
		}
	}
}

// CallInner runs the code at codeAddress in a fresh scope funded with
// gasLimit, applying the optional balance transfer first. The scope is
// committed, reverted or discarded according to how the run ends.
func (e *Executor) CallInner(codeAddress common.Address, transfer *Transfer, input []byte, gasLimit uint64, static bool, ctx Context) CallCapture {
	if e.nextDepth() >= e.config.CallCreateDepth {
		e.InnermostSubstate().Gasometer().ReturnGas(gasLimit)
		return CallCapture{Reason: Failure(ErrDepth)}
	}
	e.logger.Trace("Entering call scope", "to", codeAddress, "gas", gasLimit, "static", static, "depth", e.nextDepth())

	e.EnterSubstate(gasLimit, static)
	e.Touch(ctx.Address)

	if transfer != nil {
		if e.statedb.GetBalance(transfer.Source).Cmp(transfer.Value) < 0 {
			e.ExitSubstate(SubstateRevert)
			return CallCapture{Reason: Failure(ErrInsufficientBalance)}
		}
		e.statedb.SubBalance(transfer.Source, transfer.Value)
		e.statedb.AddBalance(transfer.Target, transfer.Value)
	}

	code := e.statedb.GetCode(codeAddress)
	if len(code) == 0 {
		e.ExitSubstate(SubstateCommit)
		return CallCapture{Reason: Succeed()}
	}

	machine := NewMachine(code, input, ctx, e.config)
	reason := e.run(machine, e)
	output := machine.ReturnValue()

	switch {
	case reason.Succeeded():
		e.ExitSubstate(SubstateCommit)
		return CallCapture{Reason: reason, Output: output}
	case reason.Reverted():
		e.ExitSubstate(SubstateRevert)
		return CallCapture{Reason: reason, Output: output}
	default:
		e.ExitSubstate(SubstateDiscard)
		return CallCapture{Reason: reason}
	}
}

// CreateInner deploys a contract from initCode in a fresh scope funded
// with gasLimit. The new address is reported on success and on revert.
func (e *Executor) CreateInner(caller common.Address, scheme CreateScheme, value *big.Int, initCode []byte, gasLimit uint64) CreateCapture {
	parent := e.InnermostSubstate().Gasometer()
	if e.nextDepth() >= e.config.CallCreateDepth {
		parent.ReturnGas(gasLimit)
		return CreateCapture{Reason: Failure(ErrDepth)}
	}
	if e.statedb.GetBalance(caller).Cmp(value) < 0 {
		parent.ReturnGas(gasLimit)
		return CreateCapture{Reason: Failure(ErrInsufficientBalance)}
	}
	nonce := e.statedb.GetNonce(caller)
	if nonce+1 < nonce {
		parent.ReturnGas(gasLimit)
		return CreateCapture{Reason: Failure(ErrNonceUintOverflow)}
	}
	address := e.CreateAddress(scheme, initCode)
	// The caller's nonce advances even if the deployment fails.
	e.statedb.SetNonce(caller, nonce+1)

	if e.statedb.GetNonce(address) != 0 ||
		(e.statedb.GetCodeHash(address) != (common.Hash{}) && e.statedb.GetCodeHash(address) != emptyCodeHash) {
		return CreateCapture{Reason: Failure(ErrContractAddressCollision)}
	}
	e.logger.Trace("Entering create scope", "address", address, "gas", gasLimit, "depth", e.nextDepth())

	e.EnterSubstate(gasLimit, false)
	e.statedb.CreateAccount(address)
	e.statedb.SetNonce(address, 1)
	e.Touch(address)
	e.statedb.SubBalance(caller, value)
	e.statedb.AddBalance(address, value)

	ctx := Context{Address: address, Caller: caller, ApparentValue: value}
	machine := NewMachine(initCode, nil, ctx, e.config)
	reason := e.run(machine, e)

	switch {
	case reason.Succeeded():
		code := machine.ReturnValue()
		if len(code) > e.config.MaxCodeSize {
			e.ExitSubstate(SubstateDiscard)
			return CreateCapture{Reason: Failure(ErrMaxCodeSizeExceeded)}
		}
		if len(code) > 0 && code[0] == 0xEF {
			e.ExitSubstate(SubstateDiscard)
			return CreateCapture{Reason: Failure(ErrInvalidCode)}
		}
		depositGas := uint64(len(code)) * params.CreateDataGas
		if e.InnermostSubstate().Gasometer().RecordCost(depositGas) != nil {
			e.ExitSubstate(SubstateDiscard)
			return CreateCapture{Reason: Failure(ErrCodeStoreOutOfGas)}
		}
		e.statedb.SetCode(address, code)
		e.ExitSubstate(SubstateCommit)
		return CreateCapture{Reason: reason, Address: &address}
	case reason.Reverted():
		e.ExitSubstate(SubstateRevert)
		return CreateCapture{Reason: reason, Address: &address, Output: machine.ReturnValue()}
	default:
		e.ExitSubstate(SubstateDiscard)
		return CreateCapture{Reason: reason}
	}
}

// ExecuteCall runs a top level message call.
func (e *Executor) ExecuteCall(caller, to common.Address, input []byte, value *big.Int, gasLimit uint64) CallCapture {
	if value == nil {
		value = new(big.Int)
	}
	var transfer *Transfer
	if value.Sign() > 0 {
		transfer = &Transfer{Source: caller, Target: to, Value: value}
	}
	e.Touch(caller)
	ctx := Context{Address: to, Caller: caller, ApparentValue: value}
	return e.CallInner(to, transfer, input, gasLimit, false, ctx)
}

// ExecuteCreate runs a top level contract deployment.
func (e *Executor) ExecuteCreate(caller common.Address, initCode []byte, value *big.Int, gasLimit uint64) CreateCapture {
	if value == nil {
		value = new(big.Int)
	}
	e.Touch(caller)
	return e.CreateInner(caller, LegacyCreateScheme(caller), value, initCode, gasLimit)
}

// Handler implementation. Machines run by this executor query state and
// resolve nested executions through these.

func (e *Executor) Balance(addr common.Address) *big.Int {
	return e.statedb.GetBalance(addr)
}

func (e *Executor) CodeSize(addr common.Address) int {
	return e.statedb.GetCodeSize(addr)
}

func (e *Executor) CodeHash(addr common.Address) common.Hash {
	if !e.statedb.Exist(addr) || e.statedb.Empty(addr) {
		return common.Hash{}
	}
	return e.statedb.GetCodeHash(addr)
}

func (e *Executor) Code(addr common.Address) []byte {
	return e.statedb.GetCode(addr)
}

// Storage reads a slot and remembers it in the executor's storage
// collection.
func (e *Executor) Storage(addr common.Address, key common.Hash) common.Hash {
	value := e.statedb.GetState(addr, key)
	if _, ok := e.storage[addr]; !ok {
		e.storage[addr] = make(map[common.Hash]common.Hash)
	}
	e.storage[addr][key] = value
	return value
}

func (e *Executor) OriginalStorage(addr common.Address, key common.Hash) common.Hash {
	return e.statedb.GetCommittedState(addr, key)
}

func (e *Executor) Exists(addr common.Address) bool {
	return e.statedb.Exist(addr)
}

func (e *Executor) Deleted(addr common.Address) bool {
	return e.statedb.HasSuicided(addr)
}

func (e *Executor) GasLeft() uint64 { return e.Gas() }

func (e *Executor) GasPrice() *big.Int { return e.txCtx.GasPrice }

func (e *Executor) Origin() common.Address { return e.txCtx.Origin }

func (e *Executor) BlockHash(number uint64) common.Hash {
	if e.blockCtx.GetHash == nil {
		return common.Hash{}
	}
	return e.blockCtx.GetHash(number)
}

func (e *Executor) BlockNumber() *big.Int { return e.blockCtx.BlockNumber }

func (e *Executor) BlockCoinbase() common.Address { return e.blockCtx.Coinbase }

func (e *Executor) BlockTimestamp() *big.Int { return e.blockCtx.Time }

func (e *Executor) BlockDifficulty() *big.Int { return e.blockCtx.Difficulty }

func (e *Executor) BlockGasLimit() uint64 { return e.blockCtx.GasLimit }

func (e *Executor) ChainID() *big.Int { return e.config.ChainID }

// SetStorage writes a slot, records the legacy clearing refund and
// remembers the written value in the storage collection.
func (e *Executor) SetStorage(addr common.Address, key, value common.Hash) error {
	current := e.statedb.GetState(addr, key)
	if value == (common.Hash{}) && current != (common.Hash{}) {
		e.statedb.AddRefund(params.SstoreRefundGas)
	}
	if err := e.statedb.SetState(addr, key, value); err != nil {
		return err
	}
	if _, ok := e.storage[addr]; !ok {
		e.storage[addr] = make(map[common.Hash]common.Hash)
	}
	e.storage[addr][key] = value
	return nil
}

func (e *Executor) Log(addr common.Address, topics []common.Hash, data []byte) error {
	e.statedb.AddLog(&types.Log{
		Address:     addr,
		Topics:      topics,
		Data:        data,
		BlockNumber: e.blockCtx.BlockNumber.Uint64(),
	})
	return nil
}

// MarkDelete schedules addr for destruction and moves its balance to
// target. The refund is granted only on the first destruction of addr.
func (e *Executor) MarkDelete(addr, target common.Address) error {
	if !e.statedb.HasSuicided(addr) {
		e.statedb.AddRefund(params.SelfdestructRefundGas)
	}
	e.statedb.AddBalance(target, e.statedb.GetBalance(addr))
	e.statedb.Suicide(addr)
	return nil
}

func (e *Executor) Create(caller common.Address, scheme CreateScheme, value *big.Int, initCode []byte, targetGas *uint64) CreateCapture {
	gasLimit := e.Gas()
	if targetGas != nil {
		gasLimit = *targetGas
	}
	return e.CreateInner(caller, scheme, value, initCode, gasLimit)
}

func (e *Executor) Call(codeAddress common.Address, transfer *Transfer, input []byte, targetGas *uint64, static bool, ctx Context) CallCapture {
	gasLimit := e.Gas()
	if targetGas != nil {
		gasLimit = *targetGas
	}
	return e.CallInner(codeAddress, transfer, input, gasLimit, static, ctx)
}

func (e *Executor) PreValidate(ctx Context, instr Instruction, stack *Stack, mem *Memory) (uint64, error) {
	sub := e.InnermostSubstate()
	cost, memorySize, err := e.OpcodeCost(ctx, instr, stack, mem, sub.IsStatic())
	if err != nil {
		return 0, err
	}
	if err := sub.Gasometer().RecordCost(cost); err != nil {
		return 0, err
	}
	return memorySize, nil
}

var _ Handler = (*Executor)(nil)

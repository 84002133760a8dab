package ethvm

import (
	"hash"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// keccakState wraps sha3.state. In addition to the usual hash methods,
// it also supports Read to get a variable amount of data from the hash
// state. Read is faster than Sum because it doesn't copy the internal
// state, but also modifies the internal state.
type keccakState interface {
	hash.Hash
	Read([]byte) (int, error)
}

// Machine is a single execution scope: one code body stepped one
// instruction at a time against a handler supplying world state. It
// carries no gas of its own; charging happens in the handler before
// every step.
type Machine struct {
	code  []byte
	input []byte
	ctx   Context
	cfg   *Config

	pc         uint64
	stack      *Stack
	memory     *Memory
	returnData []byte

	retValue []byte
	exit     *ExitReason

	jumpdests []bool

	hasher    keccakState
	hasherBuf common.Hash
}

// NewMachine readies a machine over code with the given call input and
// scope context. The code is analysed once for valid jump destinations.
func NewMachine(code, input []byte, ctx Context, cfg *Config) *Machine {
	m := &Machine{
		code:   code,
		input:  input,
		ctx:    ctx,
		cfg:    cfg,
		stack:  newstack(),
		memory: NewMemory(),
	}
	m.jumpdests = codeJumpdests(code)
	return m
}

// codeJumpdests marks every JUMPDEST byte that is not part of push data.
func codeJumpdests(code []byte) []bool {
	dests := make([]bool, len(code))
	for i := 0; i < len(code); {
		op := Opcode(code[i])
		if op == JUMPDEST {
			dests[i] = true
			i++
		} else if op.IsPush() {
			i += int(op-PUSH1) + 2
		} else {
			i++
		}
	}
	return dests
}

func (m *Machine) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= uint64(len(m.jumpdests)) {
		return false
	}
	return m.jumpdests[udest]
}

// Inspect peeks at the instruction about to execute and the live stack.
// It reports false once the machine has exited or ran off the end of
// its code.
func (m *Machine) Inspect() (Instruction, *Stack, bool) {
	if m.exit != nil || m.pc >= uint64(len(m.code)) {
		return Instruction{}, nil, false
	}
	return InstructionForByte(m.code[m.pc]), m.stack, true
}

// Position returns the current program counter, or the exit reason if
// the machine can no longer step. Running off the end of the code is a
// normal stop.
func (m *Machine) Position() (uint64, *ExitReason) {
	if m.exit != nil {
		return m.pc, m.exit
	}
	if m.pc >= uint64(len(m.code)) {
		reason := Succeed()
		return m.pc, &reason
	}
	return m.pc, nil
}

// Memory exposes the machine's live memory.
func (m *Machine) Memory() *Memory { return m.memory }

// Stack exposes the machine's live stack.
func (m *Machine) Stack() *Stack { return m.stack }

// Context returns the scope context the machine runs under.
func (m *Machine) Context() Context { return m.ctx }

// ReturnValue returns the data set by RETURN or REVERT, nil otherwise.
func (m *Machine) ReturnValue() []byte { return m.retValue }

func (m *Machine) halt(reason ExitReason) (bool, ExitReason, bool) {
	m.exit = &reason
	return true, reason, false
}

// Step executes a single instruction. It returns done once the machine
// has exited, with the exit reason. A trapped step means a nested call
// or create was declined by the handler; the machine must not be
// stepped again until the embedder resolves it.
func (m *Machine) Step(h Handler) (done bool, reason ExitReason, trapped bool) {
	if m.exit != nil {
		return true, *m.exit, false
	}
	if m.pc >= uint64(len(m.code)) {
		return m.halt(Succeed())
	}

	instr := InstructionForByte(m.code[m.pc])
	memorySize, err := h.PreValidate(m.ctx, instr, m.stack, m.memory)
	if err != nil {
		return m.halt(Failure(err))
	}
	if memorySize > 0 {
		m.memory.Resize(memorySize)
	}

	op := defaultInstructionSet[m.code[m.pc]]
	res, err := op.execute(&m.pc, m, h)

	switch {
	case err == errStepTrapped:
		return false, ExitReason{}, true
	case err == ErrExecutionReverted:
		m.retValue = res
		return m.halt(Revert())
	case err != nil:
		return m.halt(Failure(err))
	case op.halts:
		m.retValue = res
		return m.halt(Succeed())
	case !op.jumps:
		m.pc++
	}
	return false, ExitReason{}, false
}

// finishCall pushes the call's status, copies its output into the
// return region and records it as the scope's return data.
func (m *Machine) finishCall(capture CallCapture, retOffset, retSize uint64) ([]byte, error) {
	if capture.Reason.Succeeded() {
		m.stack.push(new(uint256.Int).SetOne())
	} else {
		m.stack.push(new(uint256.Int))
	}
	if capture.Reason.Succeeded() || capture.Reason.Reverted() {
		m.memory.Set(retOffset, minUint64(retSize, uint64(len(capture.Output))), capture.Output)
	}
	m.returnData = capture.Output
	return capture.Output, nil
}

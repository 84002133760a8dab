package tracer

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// StepLog is the record of one executed instruction: the machine state
// observed immediately before the instruction ran, plus the gas cost
// the instruction was about to realize.
type StepLog struct {
	// Depth is the call nesting depth of the executing scope; the
	// outermost traced scope is depth 0.
	Depth uint64
	// Gas is the gas remaining before the instruction.
	Gas uint64
	// GasCost is the full cost the instruction charges, memory
	// expansion and forwarded call gas included.
	GasCost uint64
	// Memory is a copy of the scope's memory.
	Memory []byte
	// Op is the canonical mnemonic of the instruction.
	Op string
	// Pc is the program counter of the instruction.
	Pc uint64
	// Stack is a bottom-first copy of the operand stack.
	Stack []uint256.Int
	// Storage holds the slots of the executing account known so far.
	Storage map[common.Hash]common.Hash
}

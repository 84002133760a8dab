package ethvm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Context is the execution scope of one machine run: the account whose
// storage the run addresses, the apparent caller and the apparent value
// (both subject to DELEGATECALL rewriting).
type Context struct {
	Address       common.Address
	Caller        common.Address
	ApparentValue *big.Int
}

// Transfer describes a balance movement attached to a call.
type Transfer struct {
	Source common.Address
	Target common.Address
	Value  *big.Int
}

// CreateScheme selects how a contract address is derived. A nil Salt
// selects the legacy caller+nonce scheme; a non-nil Salt selects the
// salted scheme keyed additionally by the init code hash.
type CreateScheme struct {
	Caller common.Address
	Salt   *common.Hash
}

// LegacyCreateScheme returns the caller+nonce derivation scheme.
func LegacyCreateScheme(caller common.Address) CreateScheme {
	return CreateScheme{Caller: caller}
}

// CallCapture is the resolved outcome of a nested call. Trapped is set
// only by handlers that defer resolution to an outer driver instead of
// resolving the call inline; Reason and Output are meaningless then.
type CallCapture struct {
	Reason  ExitReason
	Output  []byte
	Trapped bool
}

// CreateCapture is the resolved outcome of a nested contract creation.
// Address is set on success and, where known, on revert.
type CreateCapture struct {
	Reason  ExitReason
	Address *common.Address
	Output  []byte
	Trapped bool
}

// Handler supplies every capability a running machine needs from its
// host environment. The executor implements it against its own state;
// decorating implementations must forward every operation they do not
// themselves resolve.
type Handler interface {
	// Read-only account and environment queries.
	Balance(addr common.Address) *big.Int
	CodeSize(addr common.Address) int
	CodeHash(addr common.Address) common.Hash
	Code(addr common.Address) []byte
	Storage(addr common.Address, key common.Hash) common.Hash
	OriginalStorage(addr common.Address, key common.Hash) common.Hash
	Exists(addr common.Address) bool
	Deleted(addr common.Address) bool
	GasLeft() uint64
	GasPrice() *big.Int
	Origin() common.Address
	BlockHash(number uint64) common.Hash
	BlockNumber() *big.Int
	BlockCoinbase() common.Address
	BlockTimestamp() *big.Int
	BlockDifficulty() *big.Int
	BlockGasLimit() uint64
	ChainID() *big.Int
	// CallGasTemp returns the gas amount latched for the call or create
	// whose cost was computed most recently, per the 63/64 rule.
	CallGasTemp() uint64

	// State mutations.
	SetStorage(addr common.Address, key, value common.Hash) error
	Log(addr common.Address, topics []common.Hash, data []byte) error
	MarkDelete(addr, target common.Address) error

	// Nested execution. A nil targetGas means all remaining gas.
	Create(caller common.Address, scheme CreateScheme, value *big.Int, initCode []byte, targetGas *uint64) CreateCapture
	Call(codeAddress common.Address, transfer *Transfer, input []byte, targetGas *uint64, static bool, ctx Context) CallCapture

	// PreValidate checks an instruction's legality in the given scope
	// and charges its gas. It returns the memory size the machine must
	// grow to before executing the instruction.
	PreValidate(ctx Context, instr Instruction, stack *Stack, mem *Memory) (memorySize uint64, err error)
}

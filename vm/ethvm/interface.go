package ethvm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
)

// StateDB is the executor's database for full state querying.
type StateDB interface {
	CreateAccount(common.Address)

	SubBalance(common.Address, *big.Int)
	AddBalance(common.Address, *big.Int)
	GetBalance(common.Address) *big.Int

	GetNonce(common.Address) uint64
	SetNonce(common.Address, uint64)

	GetCodeHash(common.Address) common.Hash
	GetCode(common.Address) []byte
	SetCode(common.Address, []byte)
	GetCodeSize(common.Address) int

	AddRefund(uint64)
	GetRefund() uint64

	GetCommittedState(common.Address, common.Hash) common.Hash
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash) error

	Suicide(common.Address) bool
	HasSuicided(common.Address) bool

	// Exist reports whether the given account exists in state.
	// Notably this should also return true for suicided accounts.
	Exist(common.Address) bool
	// Empty returns whether the given account is empty. Empty
	// is defined according to EIP161 (balance = nonce = code = 0).
	Empty(common.Address) bool

	RevertToSnapshot(int)
	Snapshot() int

	AddLog(*types.Log)
}

// GetHashFunc returns the n'th block hash in the blockchain and is used
// by the BLOCKHASH op code.
type GetHashFunc func(uint64) common.Hash

// BlockContext provides the executor with auxiliary information about
// the enclosing block. Once provided it shouldn't be modified.
type BlockContext struct {
	// GetHash returns the hash corresponding to n
	GetHash GetHashFunc

	// Block information
	Coinbase    common.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Time        *big.Int
	Difficulty  *big.Int
	BaseFee     *big.Int
}

// TxContext provides the executor with information about the
// transaction being executed. All fields can change between
// transactions.
type TxContext struct {
	Origin   common.Address
	GasPrice *big.Int
}

// Config holds the chain identity and the structural limits of the
// executor. The zero value is not usable; start from DefaultConfig.
type Config struct {
	ChainID *big.Int
	// CallCreateDepth bounds nesting of calls and creates.
	CallCreateDepth int
	// StackLimit bounds the operand stack of one machine.
	StackLimit int
	// MaxCodeSize bounds the code a create may deposit.
	MaxCodeSize int
}

// DefaultConfig returns a config with mainnet-equivalent limits.
func DefaultConfig() *Config {
	return &Config{
		ChainID:         big.NewInt(1),
		CallCreateDepth: int(params.CallCreateDepth),
		StackLimit:      int(params.StackLimit),
		MaxCodeSize:     params.MaxCodeSize,
	}
}

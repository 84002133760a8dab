package process

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TransactionArgs represents the arguments to construct a message call
// or a contract deployment to trace. A nil To selects deployment.
type TransactionArgs struct {
	From     *common.Address `json:"from"`
	To       *common.Address `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
	Value    *hexutil.Big    `json:"value"`
	Nonce    *hexutil.Uint64 `json:"nonce"`

	Data    *hexutil.Bytes `json:"data"`
	Input   *hexutil.Bytes `json:"input"`
	ChainID *hexutil.Big   `json:"chainId,omitempty"`
}

// from retrieves the transaction sender address.
func (args *TransactionArgs) from() common.Address {
	if args.From == nil {
		return common.Address{}
	}
	return *args.From
}

// data retrieves the transaction calldata. Input field is preferred.
func (args *TransactionArgs) data() []byte {
	if args.Input != nil {
		return *args.Input
	}
	if args.Data != nil {
		return *args.Data
	}
	return nil
}

// gas retrieves the gas limit, effectively unbounded when unset.
func (args *TransactionArgs) gas() uint64 {
	if args.Gas == nil {
		return math.MaxUint64
	}
	return uint64(*args.Gas)
}

// value retrieves the transferred amount, zero when unset.
func (args *TransactionArgs) value() *big.Int {
	if args.Value == nil {
		return new(big.Int)
	}
	return args.Value.ToInt()
}

// gasPrice retrieves the gas price, zero when unset.
func (args *TransactionArgs) gasPrice() *big.Int {
	if args.GasPrice == nil {
		return new(big.Int)
	}
	return args.GasPrice.ToInt()
}

package process

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/ethvm"
)

// ChainContext supplies headers from the chain a trace runs against.
type ChainContext interface {
	// GetHeader returns the header with the given hash and number.
	GetHeader(common.Hash, uint64) *types.Header
}

// NewBlockContext builds the block level execution context from a
// header. A nil chain disables BLOCKHASH resolution.
func NewBlockContext(header *types.Header, chain ChainContext) ethvm.BlockContext {
	var getHash ethvm.GetHashFunc
	if chain != nil {
		getHash = GetHashFn(header, chain)
	}
	return ethvm.BlockContext{
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		GasLimit:    header.GasLimit,
		BlockNumber: new(big.Int).Set(header.Number),
		Time:        new(big.Int).SetUint64(header.Time),
		Difficulty:  new(big.Int).Set(header.Difficulty),
		BaseFee:     header.BaseFee,
	}
}

// GetHashFn returns a GetHashFunc which walks ancestor headers back
// from ref, caching what it has already resolved.
func GetHashFn(ref *types.Header, chain ChainContext) ethvm.GetHashFunc {
	var cache []common.Hash

	return func(n uint64) common.Hash {
		if len(cache) == 0 {
			cache = append(cache, ref.ParentHash)
		}
		if idx := ref.Number.Uint64() - n; idx <= uint64(len(cache)) {
			return cache[idx-1]
		}
		lastKnownHash := cache[len(cache)-1]
		lastKnownNumber := ref.Number.Uint64() - uint64(len(cache))

		for {
			header := chain.GetHeader(lastKnownHash, lastKnownNumber)
			if header == nil {
				break
			}
			cache = append(cache, header.ParentHash)
			lastKnownHash = header.ParentHash
			lastKnownNumber = header.Number.Uint64() - 1
			if n == lastKnownNumber {
				return lastKnownHash
			}
		}
		return common.Hash{}
	}
}

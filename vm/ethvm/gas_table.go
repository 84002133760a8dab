package ethvm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
)

// memoryGasCost calculates the quadratic gas for memory expansion. It does so
// only for the memory region that is expanded, not the total memory. The
// computation is a pure function of the current and the requested size, so
// recomputing the same expansion never changes the result.
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	// The maximum that will fit in a uint64 is max_word_count - 1. Anything above
	// that will result in an overflow. Additionally, a newMemSize which results in
	// a newMemSizeWords larger than 0xFFFFFFFF will cause the square operation to
	// overflow. The constant 0x1FFFFFFFE0 is the highest number that can be used
	// without overflowing the gas calculation.
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newMemSizeWords := toWordSize(newMemSize)
	if newMemSizeWords*32 <= uint64(mem.Len()) {
		return 0, nil
	}
	curMemSizeWords := toWordSize(uint64(mem.Len()))
	newTotalFee := newMemSizeWords*params.MemoryGas + newMemSizeWords*newMemSizeWords/params.QuadCoeffDiv
	curTotalFee := curMemSizeWords*params.MemoryGas + curMemSizeWords*curMemSizeWords/params.QuadCoeffDiv
	return newTotalFee - curTotalFee, nil
}

// memoryCopierGas creates the gas functions for the following opcodes, and takes
// the stack position of the operand which determines the size of the data to copy
// as argument:
// CALLDATACOPY (stack position 2)
// CODECOPY (stack position 2)
// EXTCODECOPY (stack position 3)
// RETURNDATACOPY (stack position 2)
func memoryCopierGas(stackpos int) gasFunc {
	return func(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
		// Gas for expanding the memory
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		// And gas for copying data, charged per word at param.CopyGas
		words, overflow := stack.Back(stackpos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}

		if words, overflow = math.SafeMul(toWordSize(words), params.CopyGas); overflow {
			return 0, ErrGasUintOverflow
		}

		if gas, overflow = math.SafeAdd(gas, words); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

var (
	gasCallDataCopy   = memoryCopierGas(2)
	gasCodeCopy       = memoryCopierGas(2)
	gasExtCodeCopy    = memoryCopierGas(3)
	gasReturnDataCopy = memoryCopierGas(2)
)

// gasSStore follows the legacy metering: it only takes the current state
// of the slot into consideration.
//
// 1. From a zero-value slot to a non-zero value  (NEW VALUE)
// 2. From a non-zero value slot to a zero-value  (DELETE)
// 3. From a non-zero to a non-zero               (CHANGE)
//
// The refund for a delete is recorded when the store executes, not here;
// this function may be evaluated more than once per instruction.
func gasSStore(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	var (
		y, x    = stack.Back(1), stack.Back(0)
		current = e.Storage(ctx.Address, common.Hash(x.Bytes32()))
	)
	value := common.Hash(y.Bytes32())
	switch {
	case current == (common.Hash{}) && value != (common.Hash{}): // 0 => non 0
		return params.SstoreSetGas, nil
	case current != (common.Hash{}) && value == (common.Hash{}): // non 0 => 0
		return params.SstoreClearGas, nil
	default: // non 0 => non 0 (or 0 => 0)
		return params.SstoreResetGas, nil
	}
}

func makeGasLog(n uint64) gasFunc {
	return func(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
		requestedSize, overflow := stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}

		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}

		if gas, overflow = math.SafeAdd(gas, params.LogGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, n*params.LogTopicGas); overflow {
			return 0, ErrGasUintOverflow
		}

		var memorySizeGas uint64
		if memorySizeGas, overflow = math.SafeMul(requestedSize, params.LogDataGas); overflow {
			return 0, ErrGasUintOverflow
		}
		if gas, overflow = math.SafeAdd(gas, memorySizeGas); overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

func gasKeccak256(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = math.SafeMul(toWordSize(wordGas), params.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// pureMemoryGascost is used by several operations, which aside from their
// static cost have a dynamic cost which is solely based on the memory
// expansion
func pureMemoryGascost(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	return memoryGasCost(mem, memorySize)
}

var (
	gasReturn  = pureMemoryGascost
	gasRevert  = pureMemoryGascost
	gasMLoad   = pureMemoryGascost
	gasMStore8 = pureMemoryGascost
	gasMStore  = pureMemoryGascost
)

func gasExp(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	expByteLen := uint64((stack.Back(1).BitLen() + 7) / 8)

	var (
		gas      = expByteLen * params.ExpByteEIP158 // no overflow check required. Max is 256 * ExpByte gas
		overflow bool
	)
	if gas, overflow = math.SafeAdd(gas, params.ExpGas); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// callGas returns the gas forwarded into a nested scope: all but one
// 64th of what remains after the dynamic extras, capped by the amount
// the instruction requested.
func callGas(availableGas, base uint64, callCost *uint256.Int) uint64 {
	if base > availableGas {
		// The charge itself is going to fail; nothing is forwarded.
		return 0
	}
	gas := allButOne64th(availableGas - base)
	if !callCost.IsUint64() || gas < callCost.Uint64() {
		return gas
	}
	return callCost.Uint64()
}

func gasCall(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	var (
		gas            uint64
		transfersValue = !stack.Back(2).IsZero()
		address        = common.Address(stack.Back(1).Bytes20())
	)
	if transfersValue && !e.Exists(address) {
		gas += params.CallNewAccountGas
	}
	if transfersValue {
		gas += params.CallValueTransferGas
	}
	memoryGas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}

	forwarded := callGas(availableGas, gas, stack.Back(0))
	e.setCallGasTemp(forwarded)
	if gas, overflow = math.SafeAdd(gas, forwarded); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCallCode(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	memoryGas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	var (
		gas      uint64
		overflow bool
	)
	if !stack.Back(2).IsZero() {
		gas += params.CallValueTransferGas
	}
	if gas, overflow = math.SafeAdd(gas, memoryGas); overflow {
		return 0, ErrGasUintOverflow
	}
	forwarded := callGas(availableGas, gas, stack.Back(0))
	e.setCallGasTemp(forwarded)
	if gas, overflow = math.SafeAdd(gas, forwarded); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasDelegateCall(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	forwarded := callGas(availableGas, gas, stack.Back(0))
	e.setCallGasTemp(forwarded)
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, forwarded); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasStaticCall(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	forwarded := callGas(availableGas, gas, stack.Back(0))
	e.setCallGasTemp(forwarded)
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, forwarded); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCreate(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	forwarded := callGas(availableGas, gas, uint256.NewInt(0).SetAllOne())
	e.setCallGasTemp(forwarded)
	var overflow bool
	if gas, overflow = math.SafeAdd(gas, forwarded); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCreate2(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	wordGas, overflow := stack.Back(2).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	if wordGas, overflow = math.SafeMul(toWordSize(wordGas), params.Keccak256WordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	if gas, overflow = math.SafeAdd(gas, wordGas); overflow {
		return 0, ErrGasUintOverflow
	}
	forwarded := callGas(availableGas, gas, uint256.NewInt(0).SetAllOne())
	e.setCallGasTemp(forwarded)
	if gas, overflow = math.SafeAdd(gas, forwarded); overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasSelfdestruct(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error) {
	var gas uint64
	address := common.Address(stack.Back(0).Bytes20())
	// if empty and transfers value
	if !e.Exists(address) && e.Balance(ctx.Address).Sign() != 0 {
		gas += params.CreateBySelfdestructGas
	}
	return gas, nil
}

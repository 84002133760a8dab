package ethvm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

func opAdd(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

func opExp(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	base, exponent := m.stack.pop(), m.stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	back, num := m.stack.pop(), m.stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opNot(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x := m.stack.peek()
	x.Not(x)
	return nil, nil
}

func opLt(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x := m.stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y := m.stack.pop(), m.stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opByte(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	th, val := m.stack.pop(), m.stack.peek()
	val.Byte(&th)
	return nil, nil
}

func opAddmod(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y, z := m.stack.pop(), m.stack.pop(), m.stack.peek()
	if z.IsZero() {
		z.Clear()
	} else {
		z.AddMod(&x, &y, z)
	}
	return nil, nil
}

func opMulmod(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x, y, z := m.stack.pop(), m.stack.pop(), m.stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

// opSHL implements Shift Left. The first pop is the shift amount, the
// second the value to shift.
func opSHL(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	shift, value := m.stack.pop(), m.stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSHR implements Logical Shift Right.
func opSHR(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	shift, value := m.stack.pop(), m.stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil, nil
}

// opSAR implements Arithmetic Shift Right.
func opSAR(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	shift, value := m.stack.pop(), m.stack.peek()
	if shift.GtUint64(256) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			value.SetAllOne()
		}
		return nil, nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil, nil
}

func opKeccak256(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	offset, size := m.stack.pop(), m.stack.peek()
	data := m.memory.GetPtr(offset.Uint64(), size.Uint64())

	if m.hasher == nil {
		m.hasher = sha3.NewLegacyKeccak256().(keccakState)
	} else {
		m.hasher.Reset()
	}
	m.hasher.Write(data)
	m.hasher.Read(m.hasherBuf[:])

	size.SetBytes(m.hasherBuf[:])
	return nil, nil
}

func opAddress(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetBytes(m.ctx.Address.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	slot := m.stack.peek()
	address := common.Address(slot.Bytes20())
	balance, _ := uint256.FromBig(h.Balance(address))
	slot.Set(balance)
	return nil, nil
}

func opOrigin(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetBytes(h.Origin().Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetBytes(m.ctx.Caller.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	v, _ := uint256.FromBig(m.ctx.ApparentValue)
	m.stack.push(v)
	return nil, nil
}

func opCallDataLoad(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	x := m.stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(m.input, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil, nil
}

func opCallDataSize(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetUint64(uint64(len(m.input))))
	return nil, nil
}

func opCallDataCopy(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	var (
		memOffset  = m.stack.pop()
		dataOffset = m.stack.pop()
		length     = m.stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = 0xffffffffffffffff
	}
	// these values are checked for overflow during memory expansion
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	m.memory.Set(memOffset64, length64, getData(m.input, dataOffset64, length64))
	return nil, nil
}

func opReturnDataSize(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetUint64(uint64(len(m.returnData))))
	return nil, nil
}

func opReturnDataCopy(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	var (
		memOffset  = m.stack.pop()
		dataOffset = m.stack.pop()
		length     = m.stack.pop()
	)
	offset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		return nil, ErrReturnDataOutOfBounds
	}
	var end = new(uint256.Int).Add(&dataOffset, &length)
	end64, overflow := end.Uint64WithOverflow()
	if overflow || uint64(len(m.returnData)) < end64 {
		return nil, ErrReturnDataOutOfBounds
	}
	m.memory.Set(memOffset.Uint64(), length.Uint64(), m.returnData[offset64:end64])
	return nil, nil
}

func opExtCodeSize(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	slot := m.stack.peek()
	slot.SetUint64(uint64(h.CodeSize(slot.Bytes20())))
	return nil, nil
}

func opCodeSize(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	l := new(uint256.Int)
	l.SetUint64(uint64(len(m.code)))
	m.stack.push(l)
	return nil, nil
}

func opCodeCopy(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	var (
		memOffset  = m.stack.pop()
		codeOffset = m.stack.pop()
		length     = m.stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = 0xffffffffffffffff
	}
	codeCopy := getData(m.code, uint64CodeOffset, length.Uint64())
	m.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

func opExtCodeCopy(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	var (
		a          = m.stack.pop()
		memOffset  = m.stack.pop()
		codeOffset = m.stack.pop()
		length     = m.stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = 0xffffffffffffffff
	}
	addr := common.Address(a.Bytes20())
	codeCopy := getData(h.Code(addr), uint64CodeOffset, length.Uint64())
	m.memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil, nil
}

// opExtCodeHash pushes the keccak hash of the account's code, or zero
// when the account does not exist or is empty.
func opExtCodeHash(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	slot := m.stack.peek()
	address := common.Address(slot.Bytes20())
	slot.SetBytes(h.CodeHash(address).Bytes())
	return nil, nil
}

func opGasprice(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	v, _ := uint256.FromBig(h.GasPrice())
	m.stack.push(v)
	return nil, nil
}

func opBlockhash(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	num := m.stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil, nil
	}
	var upper, lower uint64
	upper = h.BlockNumber().Uint64()
	if upper < 257 {
		lower = 0
	} else {
		lower = upper - 256
	}
	if num64 >= lower && num64 < upper {
		num.SetBytes(h.BlockHash(num64).Bytes())
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetBytes(h.BlockCoinbase().Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	v, _ := uint256.FromBig(h.BlockTimestamp())
	m.stack.push(v)
	return nil, nil
}

func opNumber(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	v, _ := uint256.FromBig(h.BlockNumber())
	m.stack.push(v)
	return nil, nil
}

func opDifficulty(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	v, _ := uint256.FromBig(h.BlockDifficulty())
	m.stack.push(v)
	return nil, nil
}

func opGasLimit(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetUint64(h.BlockGasLimit()))
	return nil, nil
}

func opChainID(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	chainId, _ := uint256.FromBig(h.ChainID())
	m.stack.push(chainId)
	return nil, nil
}

func opSelfBalance(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	balance, _ := uint256.FromBig(h.Balance(m.ctx.Address))
	m.stack.push(balance)
	return nil, nil
}

func opPop(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.pop()
	return nil, nil
}

func opMload(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	v := m.stack.peek()
	offset := v.Uint64()
	v.SetBytes(m.memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	mStart, val := m.stack.pop(), m.stack.pop()
	m.memory.Set32(mStart.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	off, val := m.stack.pop(), m.stack.pop()
	m.memory.store[off.Uint64()] = byte(val.Uint64())
	return nil, nil
}

func opSload(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	loc := m.stack.peek()
	hash := common.Hash(loc.Bytes32())
	val := h.Storage(m.ctx.Address, hash)
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	loc := m.stack.pop()
	val := m.stack.pop()
	err := h.SetStorage(m.ctx.Address, loc.Bytes32(), val.Bytes32())
	return nil, err
}

func opJump(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	pos := m.stack.pop()
	if !m.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	pos, cond := m.stack.pop(), m.stack.pop()
	if !cond.IsZero() {
		if !m.validJumpdest(&pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64()
	} else {
		*pc++
	}
	return nil, nil
}

func opJumpdest(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetUint64(uint64(m.memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.push(new(uint256.Int).SetUint64(h.GasLeft()))
	return nil, nil
}

func opCreate(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	var (
		value  = m.stack.pop()
		offset = m.stack.pop()
		size   = m.stack.pop()
		input  = m.memory.GetCopy(offset.Uint64(), size.Uint64())
		gas    = h.CallGasTemp()
	)
	capture := h.Create(m.ctx.Address, LegacyCreateScheme(m.ctx.Address), value.ToBig(), input, &gas)
	if capture.Trapped {
		return nil, errStepTrapped
	}
	stackvalue := new(uint256.Int)
	if capture.Reason.Succeeded() && capture.Address != nil {
		stackvalue.SetBytes(capture.Address.Bytes())
	}
	m.stack.push(stackvalue)

	if capture.Reason.Reverted() {
		m.returnData = capture.Output
	} else {
		m.returnData = nil
	}
	return capture.Output, nil
}

func opCreate2(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	var (
		value  = m.stack.pop()
		offset = m.stack.pop()
		size   = m.stack.pop()
		salt   = m.stack.pop()
		input  = m.memory.GetCopy(offset.Uint64(), size.Uint64())
		gas    = h.CallGasTemp()
	)
	saltHash := common.Hash(salt.Bytes32())
	scheme := CreateScheme{Caller: m.ctx.Address, Salt: &saltHash}
	capture := h.Create(m.ctx.Address, scheme, value.ToBig(), input, &gas)
	if capture.Trapped {
		return nil, errStepTrapped
	}
	stackvalue := new(uint256.Int)
	if capture.Reason.Succeeded() && capture.Address != nil {
		stackvalue.SetBytes(capture.Address.Bytes())
	}
	m.stack.push(stackvalue)

	if capture.Reason.Reverted() {
		m.returnData = capture.Output
	} else {
		m.returnData = nil
	}
	return capture.Output, nil
}

func opCall(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	// pop gas; the actual amount to forward was computed with the cost
	// and is latched on the executor.
	m.stack.pop()
	var (
		addr      = m.stack.pop()
		value     = m.stack.pop()
		inOffset  = m.stack.pop()
		inSize    = m.stack.pop()
		retOffset = m.stack.pop()
		retSize   = m.stack.pop()
		toAddr    = common.Address(addr.Bytes20())
		args      = m.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())
		gas       = h.CallGasTemp()
		transfer  *Transfer
		bigVal    *big.Int = big0
	)
	if !value.IsZero() {
		gas += params.CallStipend
		bigVal = value.ToBig()
		transfer = &Transfer{Source: m.ctx.Address, Target: toAddr, Value: bigVal}
	}
	ctx := Context{Address: toAddr, Caller: m.ctx.Address, ApparentValue: bigVal}
	capture := h.Call(toAddr, transfer, args, &gas, false, ctx)
	if capture.Trapped {
		return nil, errStepTrapped
	}
	return m.finishCall(capture, retOffset.Uint64(), retSize.Uint64())
}

func opCallCode(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.pop()
	var (
		addr      = m.stack.pop()
		value     = m.stack.pop()
		inOffset  = m.stack.pop()
		inSize    = m.stack.pop()
		retOffset = m.stack.pop()
		retSize   = m.stack.pop()
		toAddr    = common.Address(addr.Bytes20())
		args      = m.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())
		gas       = h.CallGasTemp()
		transfer  *Transfer
		bigVal    *big.Int = big0
	)
	if !value.IsZero() {
		gas += params.CallStipend
		bigVal = value.ToBig()
		// value stays with the executing account, checked against its balance
		transfer = &Transfer{Source: m.ctx.Address, Target: m.ctx.Address, Value: bigVal}
	}
	ctx := Context{Address: m.ctx.Address, Caller: m.ctx.Address, ApparentValue: bigVal}
	capture := h.Call(toAddr, transfer, args, &gas, false, ctx)
	if capture.Trapped {
		return nil, errStepTrapped
	}
	return m.finishCall(capture, retOffset.Uint64(), retSize.Uint64())
}

func opDelegateCall(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.pop()
	var (
		addr      = m.stack.pop()
		inOffset  = m.stack.pop()
		inSize    = m.stack.pop()
		retOffset = m.stack.pop()
		retSize   = m.stack.pop()
		toAddr    = common.Address(addr.Bytes20())
		args      = m.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())
		gas       = h.CallGasTemp()
	)
	// caller context is inherited wholesale
	ctx := Context{Address: m.ctx.Address, Caller: m.ctx.Caller, ApparentValue: m.ctx.ApparentValue}
	capture := h.Call(toAddr, nil, args, &gas, false, ctx)
	if capture.Trapped {
		return nil, errStepTrapped
	}
	return m.finishCall(capture, retOffset.Uint64(), retSize.Uint64())
}

func opStaticCall(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	m.stack.pop()
	var (
		addr      = m.stack.pop()
		inOffset  = m.stack.pop()
		inSize    = m.stack.pop()
		retOffset = m.stack.pop()
		retSize   = m.stack.pop()
		toAddr    = common.Address(addr.Bytes20())
		args      = m.memory.GetCopy(inOffset.Uint64(), inSize.Uint64())
		gas       = h.CallGasTemp()
	)
	ctx := Context{Address: toAddr, Caller: m.ctx.Address, ApparentValue: big0}
	capture := h.Call(toAddr, nil, args, &gas, true, ctx)
	if capture.Trapped {
		return nil, errStepTrapped
	}
	return m.finishCall(capture, retOffset.Uint64(), retSize.Uint64())
}

func opReturn(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	offset, size := m.stack.pop(), m.stack.pop()
	ret := m.memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, nil
}

func opRevert(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	offset, size := m.stack.pop(), m.stack.pop()
	ret := m.memory.GetCopy(offset.Uint64(), size.Uint64())
	return ret, ErrExecutionReverted
}

func opStop(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	return nil, nil
}

func opSelfdestruct(pc *uint64, m *Machine, h Handler) ([]byte, error) {
	beneficiary := m.stack.pop()
	return nil, h.MarkDelete(m.ctx.Address, common.Address(beneficiary.Bytes20()))
}

// makeLog creates a LOGN instruction function.
func makeLog(size int) executionFunc {
	return func(pc *uint64, m *Machine, h Handler) ([]byte, error) {
		topics := make([]common.Hash, size)
		mStart, mSize := m.stack.pop(), m.stack.pop()
		for i := 0; i < size; i++ {
			addr := m.stack.pop()
			topics[i] = addr.Bytes32()
		}
		d := m.memory.GetCopy(mStart.Uint64(), mSize.Uint64())
		return nil, h.Log(m.ctx.Address, topics, d)
	}
}

// makePush creates a PushN instruction function.
func makePush(size uint64, pushByteSize int) executionFunc {
	return func(pc *uint64, m *Machine, h Handler) ([]byte, error) {
		codeLen := len(m.code)

		startMin := codeLen
		if int(*pc+1) < startMin {
			startMin = int(*pc + 1)
		}

		endMin := codeLen
		if startMin+pushByteSize < endMin {
			endMin = startMin + pushByteSize
		}

		integer := new(uint256.Int)
		m.stack.push(integer.SetBytes(common.RightPadBytes(
			m.code[startMin:endMin], pushByteSize)))

		*pc += size
		return nil, nil
	}
}

// makeDup creates a DUPN instruction function.
func makeDup(size int) executionFunc {
	return func(pc *uint64, m *Machine, h Handler) ([]byte, error) {
		m.stack.dup(size)
		return nil, nil
	}
}

// makeSwap creates a SWAPN instruction function.
func makeSwap(size int) executionFunc {
	return func(pc *uint64, m *Machine, h Handler) ([]byte, error) {
		m.stack.swap(size)
		return nil, nil
	}
}

package ethvm

import (
	"github.com/ethereum/go-ethereum/params"
)

type (
	executionFunc func(pc *uint64, m *Machine, h Handler) ([]byte, error)
	// availableGas is the remaining gas minus the operation's constant
	// cost; call-family functions derive the forwarded amount from it.
	gasFunc        func(e *Executor, ctx Context, stack *Stack, mem *Memory, memorySize, availableGas uint64) (uint64, error)
	memorySizeFunc func(*Stack) (size uint64, overflow bool)
)

type operation struct {
	// execute is the operation function
	execute     executionFunc
	constantGas uint64
	// dynamicGas is the dynamic gas function
	dynamicGas gasFunc
	// minStack tells how many stack items are required
	minStack int
	// maxStack specifies the max length the stack can have for this operation
	// to not overflow the stack
	maxStack int
	// memorySize returns the memory size required for the operation
	memorySize memorySizeFunc

	halts  bool // indicates whether the operation should halt further execution
	jumps  bool // indicates whether the program counter should not increment
	writes bool // determines whether this a state modifying operation
}

// Gas tiers of the plain computational operations.
const (
	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20
)

// instructionSet holds one operation per instruction byte; undefined
// bytes hold nil and fail cost computation.
type instructionSet [256]*operation

var defaultInstructionSet = newInstructionSet()

// newInstructionSet returns the executor's instruction table: the
// byzantium/constantinople base set with legacy storage metering.
func newInstructionSet() instructionSet {
	var tbl instructionSet
	tbl[byte(STOP)] = &operation{
		execute:     opStop,
		constantGas: 0,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
		halts:       true,
	}
	tbl[byte(ADD)] = &operation{
		execute:     opAdd,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(MUL)] = &operation{
		execute:     opMul,
		constantGas: GasFastStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(SUB)] = &operation{
		execute:     opSub,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(DIV)] = &operation{
		execute:     opDiv,
		constantGas: GasFastStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(SDIV)] = &operation{
		execute:     opSdiv,
		constantGas: GasFastStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(MOD)] = &operation{
		execute:     opMod,
		constantGas: GasFastStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(SMOD)] = &operation{
		execute:     opSmod,
		constantGas: GasFastStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(ADDMOD)] = &operation{
		execute:     opAddmod,
		constantGas: GasMidStep,
		minStack:    minStack(3, 1),
		maxStack:    maxStack(3, 1),
	}
	tbl[byte(MULMOD)] = &operation{
		execute:     opMulmod,
		constantGas: GasMidStep,
		minStack:    minStack(3, 1),
		maxStack:    maxStack(3, 1),
	}
	tbl[byte(EXP)] = &operation{
		execute:    opExp,
		dynamicGas: gasExp,
		minStack:   minStack(2, 1),
		maxStack:   maxStack(2, 1),
	}
	tbl[byte(SIGNEXTEND)] = &operation{
		execute:     opSignExtend,
		constantGas: GasFastStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(LT)] = &operation{
		execute:     opLt,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(GT)] = &operation{
		execute:     opGt,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(SLT)] = &operation{
		execute:     opSlt,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(SGT)] = &operation{
		execute:     opSgt,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(EQ)] = &operation{
		execute:     opEq,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(ISZERO)] = &operation{
		execute:     opIszero,
		constantGas: GasFastestStep,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[byte(AND)] = &operation{
		execute:     opAnd,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(OR)] = &operation{
		execute:     opOr,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(XOR)] = &operation{
		execute:     opXor,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(NOT)] = &operation{
		execute:     opNot,
		constantGas: GasFastestStep,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[byte(BYTE)] = &operation{
		execute:     opByte,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(SHL)] = &operation{
		execute:     opSHL,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(SHR)] = &operation{
		execute:     opSHR,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(SAR)] = &operation{
		execute:     opSAR,
		constantGas: GasFastestStep,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
	}
	tbl[byte(KECCAK256)] = &operation{
		execute:     opKeccak256,
		constantGas: params.Keccak256Gas,
		dynamicGas:  gasKeccak256,
		minStack:    minStack(2, 1),
		maxStack:    maxStack(2, 1),
		memorySize:  memoryKeccak256,
	}
	tbl[byte(ADDRESS)] = &operation{
		execute:     opAddress,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(BALANCE)] = &operation{
		execute:     opBalance,
		constantGas: params.BalanceGasEIP150,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[byte(ORIGIN)] = &operation{
		execute:     opOrigin,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(CALLER)] = &operation{
		execute:     opCaller,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(CALLVALUE)] = &operation{
		execute:     opCallValue,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(CALLDATALOAD)] = &operation{
		execute:     opCallDataLoad,
		constantGas: GasFastestStep,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[byte(CALLDATASIZE)] = &operation{
		execute:     opCallDataSize,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(CALLDATACOPY)] = &operation{
		execute:     opCallDataCopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasCallDataCopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryCallDataCopy,
	}
	tbl[byte(CODESIZE)] = &operation{
		execute:     opCodeSize,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(CODECOPY)] = &operation{
		execute:     opCodeCopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasCodeCopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryCodeCopy,
	}
	tbl[byte(GASPRICE)] = &operation{
		execute:     opGasprice,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(EXTCODESIZE)] = &operation{
		execute:     opExtCodeSize,
		constantGas: params.ExtcodeSizeGasEIP150,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[byte(EXTCODECOPY)] = &operation{
		execute:     opExtCodeCopy,
		constantGas: params.ExtcodeCopyBaseEIP150,
		dynamicGas:  gasExtCodeCopy,
		minStack:    minStack(4, 0),
		maxStack:    maxStack(4, 0),
		memorySize:  memoryExtCodeCopy,
	}
	tbl[byte(RETURNDATASIZE)] = &operation{
		execute:     opReturnDataSize,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(RETURNDATACOPY)] = &operation{
		execute:     opReturnDataCopy,
		constantGas: GasFastestStep,
		dynamicGas:  gasReturnDataCopy,
		minStack:    minStack(3, 0),
		maxStack:    maxStack(3, 0),
		memorySize:  memoryReturnDataCopy,
	}
	tbl[byte(EXTCODEHASH)] = &operation{
		execute:     opExtCodeHash,
		constantGas: params.ExtcodeHashGasConstantinople,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[byte(BLOCKHASH)] = &operation{
		execute:     opBlockhash,
		constantGas: GasExtStep,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[byte(COINBASE)] = &operation{
		execute:     opCoinbase,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(TIMESTAMP)] = &operation{
		execute:     opTimestamp,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(NUMBER)] = &operation{
		execute:     opNumber,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(DIFFICULTY)] = &operation{
		execute:     opDifficulty,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(GASLIMIT)] = &operation{
		execute:     opGasLimit,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(CHAINID)] = &operation{
		execute:     opChainID,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(SELFBALANCE)] = &operation{
		execute:     opSelfBalance,
		constantGas: GasFastStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(POP)] = &operation{
		execute:     opPop,
		constantGas: GasQuickStep,
		minStack:    minStack(1, 0),
		maxStack:    maxStack(1, 0),
	}
	tbl[byte(MLOAD)] = &operation{
		execute:     opMload,
		constantGas: GasFastestStep,
		dynamicGas:  gasMLoad,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
		memorySize:  memoryMLoad,
	}
	tbl[byte(MSTORE)] = &operation{
		execute:     opMstore,
		constantGas: GasFastestStep,
		dynamicGas:  gasMStore,
		minStack:    minStack(2, 0),
		maxStack:    maxStack(2, 0),
		memorySize:  memoryMStore,
	}
	tbl[byte(MSTORE8)] = &operation{
		execute:     opMstore8,
		constantGas: GasFastestStep,
		dynamicGas:  gasMStore8,
		minStack:    minStack(2, 0),
		maxStack:    maxStack(2, 0),
		memorySize:  memoryMStore8,
	}
	tbl[byte(SLOAD)] = &operation{
		execute:     opSload,
		constantGas: params.SloadGasEIP150,
		minStack:    minStack(1, 1),
		maxStack:    maxStack(1, 1),
	}
	tbl[byte(SSTORE)] = &operation{
		execute:    opSstore,
		dynamicGas: gasSStore,
		minStack:   minStack(2, 0),
		maxStack:   maxStack(2, 0),
		writes:     true,
	}
	tbl[byte(JUMP)] = &operation{
		execute:     opJump,
		constantGas: GasMidStep,
		minStack:    minStack(1, 0),
		maxStack:    maxStack(1, 0),
		jumps:       true,
	}
	tbl[byte(JUMPI)] = &operation{
		execute:     opJumpi,
		constantGas: GasSlowStep,
		minStack:    minStack(2, 0),
		maxStack:    maxStack(2, 0),
		jumps:       true,
	}
	tbl[byte(PC)] = &operation{
		execute:     opPc,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(MSIZE)] = &operation{
		execute:     opMsize,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(GAS)] = &operation{
		execute:     opGas,
		constantGas: GasQuickStep,
		minStack:    minStack(0, 1),
		maxStack:    maxStack(0, 1),
	}
	tbl[byte(JUMPDEST)] = &operation{
		execute:     opJumpdest,
		constantGas: params.JumpdestGas,
		minStack:    minStack(0, 0),
		maxStack:    maxStack(0, 0),
	}
	for i := 0; i < 32; i++ {
		tbl[byte(PUSH1)+byte(i)] = &operation{
			execute:     makePush(uint64(i+1), i+1),
			constantGas: GasFastestStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		}
	}
	for i := 0; i < 16; i++ {
		tbl[byte(DUP1)+byte(i)] = &operation{
			execute:     makeDup(i + 1),
			constantGas: GasFastestStep,
			minStack:    minDupStack(i + 1),
			maxStack:    maxDupStack(i + 1),
		}
		tbl[byte(SWAP1)+byte(i)] = &operation{
			execute:     makeSwap(i + 1),
			constantGas: GasFastestStep,
			minStack:    minSwapStack(i + 2),
			maxStack:    maxSwapStack(i + 2),
		}
	}
	for i := 0; i < 5; i++ {
		tbl[byte(LOG0)+byte(i)] = &operation{
			execute:    makeLog(i),
			dynamicGas: makeGasLog(uint64(i)),
			minStack:   minStack(i+2, 0),
			maxStack:   maxStack(i+2, 0),
			memorySize: memoryLog,
			writes:     true,
		}
	}
	tbl[byte(CREATE)] = &operation{
		execute:     opCreate,
		constantGas: params.CreateGas,
		dynamicGas:  gasCreate,
		minStack:    minStack(3, 1),
		maxStack:    maxStack(3, 1),
		memorySize:  memoryCreate,
		writes:      true,
	}
	tbl[byte(CALL)] = &operation{
		execute:     opCall,
		constantGas: params.CallGasEIP150,
		dynamicGas:  gasCall,
		minStack:    minStack(7, 1),
		maxStack:    maxStack(7, 1),
		memorySize:  memoryCall,
	}
	tbl[byte(CALLCODE)] = &operation{
		execute:     opCallCode,
		constantGas: params.CallGasEIP150,
		dynamicGas:  gasCallCode,
		minStack:    minStack(7, 1),
		maxStack:    maxStack(7, 1),
		memorySize:  memoryCall,
	}
	tbl[byte(RETURN)] = &operation{
		execute:    opReturn,
		dynamicGas: gasReturn,
		minStack:   minStack(2, 0),
		maxStack:   maxStack(2, 0),
		memorySize: memoryReturn,
		halts:      true,
	}
	tbl[byte(DELEGATECALL)] = &operation{
		execute:     opDelegateCall,
		constantGas: params.CallGasEIP150,
		dynamicGas:  gasDelegateCall,
		minStack:    minStack(6, 1),
		maxStack:    maxStack(6, 1),
		memorySize:  memoryDelegateCall,
	}
	tbl[byte(CREATE2)] = &operation{
		execute:     opCreate2,
		constantGas: params.Create2Gas,
		dynamicGas:  gasCreate2,
		minStack:    minStack(4, 1),
		maxStack:    maxStack(4, 1),
		memorySize:  memoryCreate2,
		writes:      true,
	}
	tbl[byte(STATICCALL)] = &operation{
		execute:     opStaticCall,
		constantGas: params.CallGasEIP150,
		dynamicGas:  gasStaticCall,
		minStack:    minStack(6, 1),
		maxStack:    maxStack(6, 1),
		memorySize:  memoryStaticCall,
	}
	tbl[byte(REVERT)] = &operation{
		execute:    opRevert,
		dynamicGas: gasRevert,
		minStack:   minStack(2, 0),
		maxStack:   maxStack(2, 0),
		memorySize: memoryRevert,
	}
	tbl[byte(SELFDESTRUCT)] = &operation{
		execute:     opSelfdestruct,
		constantGas: params.SelfdestructGasEIP150,
		dynamicGas:  gasSelfdestruct,
		minStack:    minStack(1, 0),
		maxStack:    maxStack(1, 0),
		halts:       true,
		writes:      true,
	}
	return tbl
}

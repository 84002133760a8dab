package ethvm

import "fmt"

// Opcode is a single byte of the base instruction set. Instructions that
// cannot complete without host intervention are not Opcodes; they are
// represented by ExternalOpcode instead.
type Opcode byte

// 0x0 range - arithmetic ops.
const (
	STOP       Opcode = 0x00
	ADD        Opcode = 0x01
	MUL        Opcode = 0x02
	SUB        Opcode = 0x03
	DIV        Opcode = 0x04
	SDIV       Opcode = 0x05
	MOD        Opcode = 0x06
	SMOD       Opcode = 0x07
	ADDMOD     Opcode = 0x08
	MULMOD     Opcode = 0x09
	EXP        Opcode = 0x0a
	SIGNEXTEND Opcode = 0x0b
)

// 0x10 range - comparison and bitwise ops.
const (
	LT     Opcode = 0x10
	GT     Opcode = 0x11
	SLT    Opcode = 0x12
	SGT    Opcode = 0x13
	EQ     Opcode = 0x14
	ISZERO Opcode = 0x15
	AND    Opcode = 0x16
	OR     Opcode = 0x17
	XOR    Opcode = 0x18
	NOT    Opcode = 0x19
	BYTE   Opcode = 0x1a
	SHL    Opcode = 0x1b
	SHR    Opcode = 0x1c
	SAR    Opcode = 0x1d
)

// 0x20 range - crypto.
const (
	KECCAK256 Opcode = 0x20
)

// 0x30 range - closure state.
const (
	ADDRESS        Opcode = 0x30
	BALANCE        Opcode = 0x31
	ORIGIN         Opcode = 0x32
	CALLER         Opcode = 0x33
	CALLVALUE      Opcode = 0x34
	CALLDATALOAD   Opcode = 0x35
	CALLDATASIZE   Opcode = 0x36
	CALLDATACOPY   Opcode = 0x37
	CODESIZE       Opcode = 0x38
	CODECOPY       Opcode = 0x39
	GASPRICE       Opcode = 0x3a
	EXTCODESIZE    Opcode = 0x3b
	EXTCODECOPY    Opcode = 0x3c
	RETURNDATASIZE Opcode = 0x3d
	RETURNDATACOPY Opcode = 0x3e
	EXTCODEHASH    Opcode = 0x3f
)

// 0x40 range - block operations.
const (
	BLOCKHASH   Opcode = 0x40
	COINBASE    Opcode = 0x41
	TIMESTAMP   Opcode = 0x42
	NUMBER      Opcode = 0x43
	DIFFICULTY  Opcode = 0x44
	GASLIMIT    Opcode = 0x45
	CHAINID     Opcode = 0x46
	SELFBALANCE Opcode = 0x47
)

// 0x50 range - storage and execution.
const (
	POP      Opcode = 0x50
	MLOAD    Opcode = 0x51
	MSTORE   Opcode = 0x52
	MSTORE8  Opcode = 0x53
	SLOAD    Opcode = 0x54
	SSTORE   Opcode = 0x55
	JUMP     Opcode = 0x56
	JUMPI    Opcode = 0x57
	PC       Opcode = 0x58
	MSIZE    Opcode = 0x59
	GAS      Opcode = 0x5a
	JUMPDEST Opcode = 0x5b
)

// 0x60 range - pushes.
const (
	PUSH1  Opcode = 0x60
	PUSH32 Opcode = 0x7f
)

// 0x80 range - dups.
const (
	DUP1  Opcode = 0x80
	DUP16 Opcode = 0x8f
)

// 0x90 range - swaps.
const (
	SWAP1  Opcode = 0x90
	SWAP16 Opcode = 0x9f
)

// 0xa0 range - logging ops.
const (
	LOG0 Opcode = 0xa0
	LOG1 Opcode = 0xa1
	LOG2 Opcode = 0xa2
	LOG3 Opcode = 0xa3
	LOG4 Opcode = 0xa4
)

// 0xf0 range - closures that stay inside the machine.
const (
	RETURN  Opcode = 0xf3
	REVERT  Opcode = 0xfd
	INVALID Opcode = 0xfe
)

// ExternalOpcode is an instruction whose execution requires the host
// environment: nested calls, contract creation and self destruction.
type ExternalOpcode byte

const (
	CREATE       ExternalOpcode = 0xf0
	CALL         ExternalOpcode = 0xf1
	CALLCODE     ExternalOpcode = 0xf2
	DELEGATECALL ExternalOpcode = 0xf4
	CREATE2      ExternalOpcode = 0xf5
	STATICCALL   ExternalOpcode = 0xfa
	SELFDESTRUCT ExternalOpcode = 0xff
)

var externalOpcodeNames = map[ExternalOpcode]string{
	CREATE:       "CREATE",
	CALL:         "CALL",
	CALLCODE:     "CALLCODE",
	DELEGATECALL: "DELEGATECALL",
	CREATE2:      "CREATE2",
	STATICCALL:   "STATICCALL",
	SELFDESTRUCT: "SELFDESTRUCT",
}

func (op ExternalOpcode) String() string {
	if name, ok := externalOpcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("external opcode 0x%x not defined", byte(op))
}

var opcodeNames = map[Opcode]string{
	STOP:       "STOP",
	ADD:        "ADD",
	MUL:        "MUL",
	SUB:        "SUB",
	DIV:        "DIV",
	SDIV:       "SDIV",
	MOD:        "MOD",
	SMOD:       "SMOD",
	ADDMOD:     "ADDMOD",
	MULMOD:     "MULMOD",
	EXP:        "EXP",
	SIGNEXTEND: "SIGNEXTEND",

	LT:     "LT",
	GT:     "GT",
	SLT:    "SLT",
	SGT:    "SGT",
	EQ:     "EQ",
	ISZERO: "ISZERO",
	AND:    "AND",
	OR:     "OR",
	XOR:    "XOR",
	NOT:    "NOT",
	BYTE:   "BYTE",
	SHL:    "SHL",
	SHR:    "SHR",
	SAR:    "SAR",

	KECCAK256: "KECCAK256",

	ADDRESS:        "ADDRESS",
	BALANCE:        "BALANCE",
	ORIGIN:         "ORIGIN",
	CALLER:         "CALLER",
	CALLVALUE:      "CALLVALUE",
	CALLDATALOAD:   "CALLDATALOAD",
	CALLDATASIZE:   "CALLDATASIZE",
	CALLDATACOPY:   "CALLDATACOPY",
	CODESIZE:       "CODESIZE",
	CODECOPY:       "CODECOPY",
	GASPRICE:       "GASPRICE",
	EXTCODESIZE:    "EXTCODESIZE",
	EXTCODECOPY:    "EXTCODECOPY",
	RETURNDATASIZE: "RETURNDATASIZE",
	RETURNDATACOPY: "RETURNDATACOPY",
	EXTCODEHASH:    "EXTCODEHASH",

	BLOCKHASH:   "BLOCKHASH",
	COINBASE:    "COINBASE",
	TIMESTAMP:   "TIMESTAMP",
	NUMBER:      "NUMBER",
	DIFFICULTY:  "DIFFICULTY",
	GASLIMIT:    "GASLIMIT",
	CHAINID:     "CHAINID",
	SELFBALANCE: "SELFBALANCE",

	POP:      "POP",
	MLOAD:    "MLOAD",
	MSTORE:   "MSTORE",
	MSTORE8:  "MSTORE8",
	SLOAD:    "SLOAD",
	SSTORE:   "SSTORE",
	JUMP:     "JUMP",
	JUMPI:    "JUMPI",
	PC:       "PC",
	MSIZE:    "MSIZE",
	GAS:      "GAS",
	JUMPDEST: "JUMPDEST",

	LOG0: "LOG0",
	LOG1: "LOG1",
	LOG2: "LOG2",
	LOG3: "LOG3",
	LOG4: "LOG4",

	RETURN:  "RETURN",
	REVERT:  "REVERT",
	INVALID: "INVALID",
}

func init() {
	for i := 0; i < 32; i++ {
		opcodeNames[PUSH1+Opcode(i)] = fmt.Sprintf("PUSH%d", i+1)
	}
	for i := 0; i < 16; i++ {
		opcodeNames[DUP1+Opcode(i)] = fmt.Sprintf("DUP%d", i+1)
		opcodeNames[SWAP1+Opcode(i)] = fmt.Sprintf("SWAP%d", i+1)
	}
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("opcode 0x%x not defined", byte(op))
}

// IsPush reports whether the opcode is one of PUSH1 through PUSH32.
func (op Opcode) IsPush() bool {
	return op >= PUSH1 && op <= PUSH32
}

// Instruction tags one code position as either a base opcode or an
// external opcode requiring host intervention. Exactly one side is set.
type Instruction struct {
	op       Opcode
	external ExternalOpcode
	isExt    bool
}

// InstructionForByte classifies a raw code byte.
func InstructionForByte(b byte) Instruction {
	if _, ok := externalOpcodeNames[ExternalOpcode(b)]; ok {
		return Instruction{external: ExternalOpcode(b), isExt: true}
	}
	return Instruction{op: Opcode(b)}
}

// Opcode returns the base opcode side of the tag. The bool is false for
// external instructions.
func (i Instruction) Opcode() (Opcode, bool) {
	return i.op, !i.isExt
}

// External returns the external opcode side of the tag. The bool is
// false for base instructions.
func (i Instruction) External() (ExternalOpcode, bool) {
	return i.external, i.isExt
}

// Byte returns the raw instruction byte regardless of which side of the
// tag is set.
func (i Instruction) Byte() byte {
	if i.isExt {
		return byte(i.external)
	}
	return byte(i.op)
}

// String renders the stable, human readable name of the instruction.
func (i Instruction) String() string {
	if i.isExt {
		return i.external.String()
	}
	return i.op.String()
}

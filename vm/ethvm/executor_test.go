package ethvm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// testStateDB is a map backed StateDB for exercising the executor
// without the state package, which sits above this one.
type testStateDB struct {
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	codes    map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
	original map[common.Address]map[common.Hash]common.Hash
	suicided map[common.Address]bool
	refund   uint64
	logs     []*types.Log

	snaps  []*testSnapshot
	nextID int
}

type testSnapshot struct {
	id       int
	balances map[common.Address]*big.Int
	nonces   map[common.Address]uint64
	codes    map[common.Address][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
	suicided map[common.Address]bool
	refund   uint64
	nlogs    int
}

func newTestStateDB() *testStateDB {
	return &testStateDB{
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
		codes:    make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		original: make(map[common.Address]map[common.Hash]common.Hash),
		suicided: make(map[common.Address]bool),
	}
}

func (db *testStateDB) CreateAccount(addr common.Address) {
	if _, ok := db.balances[addr]; !ok {
		db.balances[addr] = new(big.Int)
	}
	db.storage[addr] = make(map[common.Hash]common.Hash)
}

func (db *testStateDB) SubBalance(addr common.Address, v *big.Int) {
	db.balances[addr] = new(big.Int).Sub(db.GetBalance(addr), v)
}

func (db *testStateDB) AddBalance(addr common.Address, v *big.Int) {
	db.balances[addr] = new(big.Int).Add(db.GetBalance(addr), v)
}

func (db *testStateDB) GetBalance(addr common.Address) *big.Int {
	if b, ok := db.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

func (db *testStateDB) GetNonce(addr common.Address) uint64 { return db.nonces[addr] }

func (db *testStateDB) SetNonce(addr common.Address, n uint64) { db.nonces[addr] = n }

func (db *testStateDB) GetCodeHash(addr common.Address) common.Hash {
	if _, ok := db.balances[addr]; !ok {
		return common.Hash{}
	}
	return emptyCodeHash
}

func (db *testStateDB) GetCode(addr common.Address) []byte { return db.codes[addr] }

func (db *testStateDB) SetCode(addr common.Address, code []byte) { db.codes[addr] = code }

func (db *testStateDB) GetCodeSize(addr common.Address) int { return len(db.codes[addr]) }

func (db *testStateDB) AddRefund(gas uint64) { db.refund += gas }

func (db *testStateDB) GetRefund() uint64 { return db.refund }

func (db *testStateDB) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	if slots, ok := db.original[addr]; ok {
		return slots[key]
	}
	return common.Hash{}
}

func (db *testStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if slots, ok := db.storage[addr]; ok {
		return slots[key]
	}
	return common.Hash{}
}

func (db *testStateDB) SetState(addr common.Address, key, value common.Hash) error {
	if _, ok := db.storage[addr]; !ok {
		db.storage[addr] = make(map[common.Hash]common.Hash)
	}
	db.storage[addr][key] = value
	return nil
}

func (db *testStateDB) Suicide(addr common.Address) bool {
	if _, ok := db.balances[addr]; !ok {
		return false
	}
	db.suicided[addr] = true
	db.balances[addr] = new(big.Int)
	return true
}

func (db *testStateDB) HasSuicided(addr common.Address) bool { return db.suicided[addr] }

func (db *testStateDB) Exist(addr common.Address) bool {
	_, ok := db.balances[addr]
	return ok
}

func (db *testStateDB) Empty(addr common.Address) bool {
	return db.GetBalance(addr).Sign() == 0 && db.nonces[addr] == 0 && len(db.codes[addr]) == 0
}

func (db *testStateDB) Snapshot() int {
	snap := &testSnapshot{
		id:       db.nextID,
		balances: make(map[common.Address]*big.Int),
		nonces:   make(map[common.Address]uint64),
		codes:    make(map[common.Address][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		suicided: make(map[common.Address]bool),
		refund:   db.refund,
		nlogs:    len(db.logs),
	}
	db.nextID++
	for a, b := range db.balances {
		snap.balances[a] = new(big.Int).Set(b)
	}
	for a, n := range db.nonces {
		snap.nonces[a] = n
	}
	for a, c := range db.codes {
		snap.codes[a] = c
	}
	for a, slots := range db.storage {
		cpy := make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			cpy[k] = v
		}
		snap.storage[a] = cpy
	}
	for a, s := range db.suicided {
		snap.suicided[a] = s
	}
	db.snaps = append(db.snaps, snap)
	return snap.id
}

func (db *testStateDB) RevertToSnapshot(id int) {
	for i := len(db.snaps) - 1; i >= 0; i-- {
		if db.snaps[i].id != id {
			continue
		}
		snap := db.snaps[i]
		db.balances = snap.balances
		db.nonces = snap.nonces
		db.codes = snap.codes
		db.storage = snap.storage
		db.suicided = snap.suicided
		db.refund = snap.refund
		db.logs = db.logs[:snap.nlogs]
		db.snaps = db.snaps[:i]
		return
	}
	panic("unknown snapshot")
}

func (db *testStateDB) AddLog(l *types.Log) { db.logs = append(db.logs, l) }

var _ StateDB = (*testStateDB)(nil)

func u256(v uint64) *uint256.Int {
	return new(uint256.Int).SetUint64(v)
}

var (
	testCaller   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testContract = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func newTestExecutor(db *testStateDB, gasLimit uint64) *Executor {
	return NewExecutor(db, BlockContext{
		GasLimit:    30_000_000,
		BlockNumber: big.NewInt(100),
		Time:        big.NewInt(1700000000),
		Difficulty:  big.NewInt(1),
	}, TxContext{Origin: testCaller, GasPrice: big.NewInt(1)}, DefaultConfig(), gasLimit)
}

// PUSH1 0x2a PUSH1 0x01 SSTORE STOP
var storeCode = common.Hex2Bytes("602a60015500")

// PUSH1 0x2a PUSH1 0x00 MSTORE PUSH1 0x20 PUSH1 0x00 RETURN
var returnCode = common.Hex2Bytes("602a60005260206000f3")

// PUSH1 0x00 PUSH1 0x00 REVERT
var revertCode = common.Hex2Bytes("60006000fd")

func TestExecuteCallStoresValue(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testCaller)
	db.CreateAccount(testContract)
	db.SetCode(testContract, storeCode)

	e := newTestExecutor(db, 1_000_000)
	capture := e.ExecuteCall(testCaller, testContract, nil, nil, 100_000)
	if !capture.Reason.Succeeded() {
		t.Fatalf("reason = %v, want success", capture.Reason)
	}
	got := db.GetState(testContract, common.BigToHash(big.NewInt(1)))
	if got != common.BigToHash(big.NewInt(0x2a)) {
		t.Fatalf("slot 1 = %x, want 0x2a", got)
	}
}

func TestExecuteCallReturnsOutput(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testCaller)
	db.CreateAccount(testContract)
	db.SetCode(testContract, returnCode)

	e := newTestExecutor(db, 1_000_000)
	capture := e.ExecuteCall(testCaller, testContract, nil, nil, 100_000)
	if !capture.Reason.Succeeded() {
		t.Fatalf("reason = %v, want success", capture.Reason)
	}
	if len(capture.Output) != 32 || capture.Output[31] != 0x2a {
		t.Fatalf("output = %x, want 32 bytes ending in 0x2a", capture.Output)
	}
}

func TestExecuteCallRevertRollsBack(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testCaller)
	db.CreateAccount(testContract)
	// store then revert: PUSH1 0x2a PUSH1 0x01 SSTORE PUSH1 0x00 PUSH1 0x00 REVERT
	db.SetCode(testContract, common.Hex2Bytes("602a60015560006000fd"))

	e := newTestExecutor(db, 1_000_000)
	capture := e.ExecuteCall(testCaller, testContract, nil, nil, 100_000)
	if !capture.Reason.Reverted() {
		t.Fatalf("reason = %v, want revert", capture.Reason)
	}
	if got := db.GetState(testContract, common.BigToHash(big.NewInt(1))); got != (common.Hash{}) {
		t.Fatalf("slot 1 = %x, want rolled back to zero", got)
	}
}

func TestExecuteCallOutOfGas(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testCaller)
	db.CreateAccount(testContract)
	db.SetCode(testContract, storeCode)

	e := newTestExecutor(db, 1_000_000)
	// SSTORE needs 20000, the two pushes 6
	capture := e.ExecuteCall(testCaller, testContract, nil, nil, 100)
	if capture.Reason.Kind != ExitError || capture.Reason.Err != ErrOutOfGas {
		t.Fatalf("reason = %v, want out of gas error", capture.Reason)
	}
}

func TestExecuteCallInsufficientBalance(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testCaller)
	db.CreateAccount(testContract)

	e := newTestExecutor(db, 1_000_000)
	capture := e.ExecuteCall(testCaller, testContract, nil, big.NewInt(1000), 100_000)
	if capture.Reason.Kind != ExitError || capture.Reason.Err != ErrInsufficientBalance {
		t.Fatalf("reason = %v, want insufficient balance", capture.Reason)
	}
}

func TestExecuteCallDepthLimit(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testCaller)
	db.CreateAccount(testContract)
	db.SetCode(testContract, storeCode)

	e := newTestExecutor(db, 1_000_000)
	e.config.CallCreateDepth = 0
	capture := e.ExecuteCall(testCaller, testContract, nil, nil, 100_000)
	if capture.Reason.Kind != ExitError || capture.Reason.Err != ErrDepth {
		t.Fatalf("reason = %v, want depth error", capture.Reason)
	}
}

func TestExecuteCreateDeploysCode(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testCaller)

	e := newTestExecutor(db, 10_000_000)
	capture := e.ExecuteCreate(testCaller, returnCode, nil, 1_000_000)
	if !capture.Reason.Succeeded() {
		t.Fatalf("reason = %v, want success", capture.Reason)
	}
	if capture.Address == nil {
		t.Fatal("created address missing")
	}
	code := db.GetCode(*capture.Address)
	if len(code) != 32 || code[31] != 0x2a {
		t.Fatalf("deployed code = %x, want 32 bytes ending in 0x2a", code)
	}
	if db.GetNonce(testCaller) != 1 {
		t.Fatalf("caller nonce = %d, want 1", db.GetNonce(testCaller))
	}
	if db.GetNonce(*capture.Address) != 1 {
		t.Fatalf("contract nonce = %d, want 1", db.GetNonce(*capture.Address))
	}
}

func TestExecuteCreateRevertReportsAddress(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testCaller)

	e := newTestExecutor(db, 10_000_000)
	capture := e.ExecuteCreate(testCaller, revertCode, nil, 1_000_000)
	if !capture.Reason.Reverted() {
		t.Fatalf("reason = %v, want revert", capture.Reason)
	}
	if capture.Address == nil {
		t.Fatal("reverted create should still report the derived address")
	}
	if db.GetCode(*capture.Address) != nil {
		t.Fatal("reverted create must not deploy code")
	}
}

func TestOpcodeCostValidation(t *testing.T) {
	db := newTestStateDB()
	e := newTestExecutor(db, 1_000_000)
	e.EnterSubstate(100_000, false)

	mem := NewMemory()
	stack := newstack()
	ctx := Context{Address: testContract, Caller: testCaller, ApparentValue: big.NewInt(0)}

	// ADD on an empty stack underflows.
	_, _, err := e.OpcodeCost(ctx, InstructionForByte(byte(ADD)), stack, mem, false)
	if _, ok := err.(*ErrStackUnderflow); !ok {
		t.Fatalf("err = %v, want stack underflow", err)
	}

	// Undefined byte fails cost lookup.
	_, _, err = e.OpcodeCost(ctx, InstructionForByte(0xfe), stack, mem, false)
	if _, ok := err.(*ErrInvalidOpcode); !ok {
		t.Fatalf("err = %v, want invalid opcode", err)
	}

	// PUSH1 is a plain three gas instruction.
	cost, memSize, err := e.OpcodeCost(ctx, InstructionForByte(byte(PUSH1)), stack, mem, false)
	if err != nil {
		t.Fatalf("push1 cost: %v", err)
	}
	if cost != GasFastestStep || memSize != 0 {
		t.Fatalf("push1 cost = %d memSize = %d, want 3 and 0", cost, memSize)
	}

	// SSTORE in a static scope is rejected before costing.
	stack.push(u256(0x2a))
	stack.push(u256(1))
	_, _, err = e.OpcodeCost(ctx, InstructionForByte(byte(SSTORE)), stack, mem, true)
	if err != ErrWriteProtection {
		t.Fatalf("err = %v, want write protection", err)
	}
}

func TestOpcodeCostIsRepeatable(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testContract)
	e := newTestExecutor(db, 1_000_000)
	e.EnterSubstate(100_000, false)

	mem := NewMemory()
	stack := newstack()
	// MSTORE at offset 64: expansion to 96 bytes.
	stack.push(u256(0x2a))
	stack.push(u256(64))
	ctx := Context{Address: testContract, Caller: testCaller, ApparentValue: big.NewInt(0)}

	first, _, err := e.OpcodeCost(ctx, InstructionForByte(byte(MSTORE)), stack, mem, false)
	if err != nil {
		t.Fatalf("first cost: %v", err)
	}
	second, _, err := e.OpcodeCost(ctx, InstructionForByte(byte(MSTORE)), stack, mem, false)
	if err != nil {
		t.Fatalf("second cost: %v", err)
	}
	if first != second {
		t.Fatalf("cost changed across computations: %d then %d", first, second)
	}
	if gas := e.InnermostSubstate().Gasometer().Gas(); gas != 100_000 {
		t.Fatalf("cost computation consumed gas: %d left", gas)
	}
}

func TestSubstateExits(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testContract)
	e := newTestExecutor(db, 1_000_000)

	outer := e.EnterSubstate(10_000, false)
	outer.Gasometer().RecordCost(5_000)

	key := common.BigToHash(big.NewInt(7))

	// Commit keeps state and returns unused gas.
	e.EnterSubstate(1_000, false)
	e.SetStorage(testContract, key, common.BigToHash(big.NewInt(1)))
	e.InnermostSubstate().Gasometer().RecordCost(400)
	e.ExitSubstate(SubstateCommit)
	if got := db.GetState(testContract, key); got != common.BigToHash(big.NewInt(1)) {
		t.Fatalf("committed write lost: %x", got)
	}
	if gas := outer.Gasometer().Gas(); gas != 5_600 {
		t.Fatalf("gas after commit = %d, want 5600", gas)
	}

	// Revert rolls state back but still returns gas.
	e.EnterSubstate(1_000, false)
	e.SetStorage(testContract, key, common.BigToHash(big.NewInt(2)))
	e.InnermostSubstate().Gasometer().RecordCost(1_000)
	e.ExitSubstate(SubstateRevert)
	if got := db.GetState(testContract, key); got != common.BigToHash(big.NewInt(1)) {
		t.Fatalf("revert kept the write: %x", got)
	}
	if gas := outer.Gasometer().Gas(); gas != 5_600 {
		t.Fatalf("gas after revert = %d, want 5600", gas)
	}

	// Discard rolls back and forfeits the gas.
	e.EnterSubstate(1_000, false)
	e.SetStorage(testContract, key, common.BigToHash(big.NewInt(3)))
	e.ExitSubstate(SubstateDiscard)
	if got := db.GetState(testContract, key); got != common.BigToHash(big.NewInt(1)) {
		t.Fatalf("discard kept the write: %x", got)
	}
	if gas := outer.Gasometer().Gas(); gas != 5_600 {
		t.Fatalf("gas after discard = %d, want 5600", gas)
	}
}

func TestStorageCollection(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testContract)
	db.SetState(testContract, common.BigToHash(big.NewInt(1)), common.BigToHash(big.NewInt(11)))

	e := newTestExecutor(db, 1_000_000)
	if e.AccountStorage(testContract) != nil {
		t.Fatal("untouched account should have no storage collection")
	}
	e.Storage(testContract, common.BigToHash(big.NewInt(1)))
	e.SetStorage(testContract, common.BigToHash(big.NewInt(2)), common.BigToHash(big.NewInt(22)))

	slots := e.AccountStorage(testContract)
	if len(slots) != 2 {
		t.Fatalf("collected %d slots, want 2", len(slots))
	}
	if slots[common.BigToHash(big.NewInt(1))] != common.BigToHash(big.NewInt(11)) {
		t.Fatal("read slot not collected")
	}
	if slots[common.BigToHash(big.NewInt(2))] != common.BigToHash(big.NewInt(22)) {
		t.Fatal("written slot not collected")
	}
	// The copy must not alias the live collection.
	slots[common.BigToHash(big.NewInt(1))] = common.Hash{}
	if e.AccountStorage(testContract)[common.BigToHash(big.NewInt(1))] == (common.Hash{}) {
		t.Fatal("AccountStorage returned an aliased map")
	}
}

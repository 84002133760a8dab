package process

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/params"

	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/ethvm"
	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/state"
)

var (
	txSender   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	txContract = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// PUSH1 0x2a PUSH1 0x01 SSTORE STOP
var storeCode = common.Hex2Bytes("602a60015500")

// PUSH1 0x2a PUSH1 0x00 MSTORE PUSH1 0x20 PUSH1 0x00 RETURN
var returnCode = common.Hex2Bytes("602a60005260206000f3")

func testBlockCtx() ethvm.BlockContext {
	return ethvm.BlockContext{
		GasLimit:    30_000_000,
		BlockNumber: big.NewInt(100),
		Time:        big.NewInt(1700000000),
		Difficulty:  big.NewInt(1),
	}
}

func callArgs(to common.Address, gas uint64) *TransactionArgs {
	g := hexutil.Uint64(gas)
	return &TransactionArgs{From: &txSender, To: &to, Gas: &g}
}

func TestIntrinsicGas(t *testing.T) {
	gas, err := IntrinsicGas(nil, false)
	if err != nil || gas != params.TxGas {
		t.Fatalf("call intrinsic = %d err = %v, want %d", gas, err, params.TxGas)
	}
	gas, err = IntrinsicGas(nil, true)
	if err != nil || gas != params.TxGasContractCreation {
		t.Fatalf("create intrinsic = %d err = %v, want %d", gas, err, params.TxGasContractCreation)
	}
	want := params.TxGas + params.TxDataZeroGas + params.TxDataNonZeroGasFrontier
	gas, err = IntrinsicGas([]byte{0x00, 0x01}, false)
	if err != nil || gas != want {
		t.Fatalf("data intrinsic = %d err = %v, want %d", gas, err, want)
	}
}

func TestTraceTransactionCall(t *testing.T) {
	db := state.NewMemoryStateDB()
	db.CreateAccount(txContract)
	db.SetCode(txContract, storeCode)

	p := NewProcessor(nil)
	result, err := p.TraceTransaction(db, testBlockCtx(), callArgs(txContract, 100_000), nil, true)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if result.Failed {
		t.Fatal("successful run reported as failed")
	}
	if len(result.StepLogs) != 4 {
		t.Fatalf("got %d steps, want 4", len(result.StepLogs))
	}
	// 21000 intrinsic plus two pushes, one fresh SSTORE and a stop.
	if result.Gas != 41_006 {
		t.Fatalf("gas = %d, want 41006", result.Gas)
	}
	if got := db.GetState(txContract, common.BigToHash(big.NewInt(1))); got != common.BigToHash(big.NewInt(0x2a)) {
		t.Fatalf("slot = %x, want 0x2a", got)
	}
}

func TestTraceTransactionCreate(t *testing.T) {
	db := state.NewMemoryStateDB()

	p := NewProcessor(nil)
	g := hexutil.Uint64(200_000)
	data := hexutil.Bytes(returnCode)
	args := &TransactionArgs{From: &txSender, Gas: &g, Data: &data}

	result, err := p.TraceTransaction(db, testBlockCtx(), args, nil, true)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if result.Failed {
		t.Fatal("deployment reported as failed")
	}
	if result.Address == nil {
		t.Fatal("no created address on a deployment")
	}
	if len(result.ReturnValue) != 32 {
		t.Fatalf("deployed code length = %d, want 32", len(result.ReturnValue))
	}
	if len(db.GetCode(*result.Address)) != 32 {
		t.Fatal("code not landed in state")
	}
}

func TestTraceTransactionIntrinsicGasShortfall(t *testing.T) {
	db := state.NewMemoryStateDB()

	p := NewProcessor(nil)
	_, err := p.TraceTransaction(db, testBlockCtx(), callArgs(txContract, 1_000), nil, true)
	if !errors.Is(err, core.ErrIntrinsicGas) {
		t.Fatalf("err = %v, want intrinsic gas shortfall", err)
	}
}

func TestTraceTransactionGasPool(t *testing.T) {
	db := state.NewMemoryStateDB()
	db.CreateAccount(txContract)
	db.SetCode(txContract, storeCode)

	gp := new(core.GasPool).AddGas(100_000)
	p := NewProcessor(nil)
	if _, err := p.TraceTransaction(db, testBlockCtx(), callArgs(txContract, 100_000), gp, true); err != nil {
		t.Fatalf("trace: %v", err)
	}
	// The pool keeps what the execution did not spend: 79000 available
	// past the intrinsic charge, 20006 executed.
	if gp.Gas() != 58_994 {
		t.Fatalf("pool gas = %d, want 58994", gp.Gas())
	}
}

func TestTraceTransactionWithoutStepLogs(t *testing.T) {
	db := state.NewMemoryStateDB()
	db.CreateAccount(txContract)
	db.SetCode(txContract, storeCode)

	p := NewProcessor(nil)
	result, err := p.TraceTransaction(db, testBlockCtx(), callArgs(txContract, 100_000), nil, false)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	if len(result.StepLogs) != 0 {
		t.Fatalf("got %d steps with tracing off", len(result.StepLogs))
	}
	if result.Gas != 41_006 {
		t.Fatalf("gas = %d, want the traced run's 41006", result.Gas)
	}
}

func TestExecPool(t *testing.T) {
	p := NewProcessor(nil)
	pool := NewExecPool(p, 2)
	defer pool.Close()

	tasks := make([]*TraceTask, 4)
	for i := range tasks {
		db := state.NewMemoryStateDB()
		contract := common.BytesToAddress([]byte(fmt.Sprintf("contract-%d", i)))
		db.CreateAccount(contract)
		db.SetCode(contract, storeCode)
		tasks[i] = &TraceTask{
			StateDB:  db,
			BlockCtx: testBlockCtx(),
			Args:     callArgs(contract, 100_000),
			Tracing:  true,
		}
		pool.Submit(tasks[i])
	}
	pool.Wait()

	for i, task := range tasks {
		if task.Err != nil {
			t.Fatalf("task %d: %v", i, task.Err)
		}
		if task.Result == nil || task.Result.Failed {
			t.Fatalf("task %d did not succeed", i)
		}
		if len(task.Result.StepLogs) != 4 {
			t.Fatalf("task %d got %d steps, want 4", i, len(task.Result.StepLogs))
		}
	}
}

func TestTraceTransactionRefundPool(t *testing.T) {
	db := state.NewMemoryStateDB()
	db.CreateAccount(txContract)
	// Set slot 1 then clear it again, earning a storage refund.
	db.SetCode(txContract, common.Hex2Bytes("602a600155600060015500"))

	gp := new(core.GasPool).AddGas(100_000)
	p := NewProcessor(nil)
	result, err := p.TraceTransaction(db, testBlockCtx(), callArgs(txContract, 100_000), gp, true)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	// 21000 intrinsic + 25012 executed, minus the 15000 clearing refund.
	if result.Gas != 31_012 {
		t.Fatalf("gas = %d, want 31012", result.Gas)
	}
	// The refund flows back into the pool alongside the unspent gas.
	if gp.Gas() != 68_988 {
		t.Fatalf("pool gas = %d, want 68988", gp.Gas())
	}
	if gp.Gas()+result.Gas != 100_000 {
		t.Fatalf("pool %d and charge %d do not add back to the limit", gp.Gas(), result.Gas)
	}
}

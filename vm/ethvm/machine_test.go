package ethvm

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestCodeJumpdests(t *testing.T) {
	// PUSH1 0x5b JUMPDEST: the first 0x5b is push data, the second is real.
	code := common.Hex2Bytes("605b5b")
	dests := codeJumpdests(code)
	if dests[1] {
		t.Fatal("jumpdest inside push data was marked valid")
	}
	if !dests[2] {
		t.Fatal("jumpdest after push data was not marked")
	}

	// PUSH32 swallows the next 32 bytes wholesale.
	code = append([]byte{byte(PUSH32)}, bytes.Repeat([]byte{0x5b}, 32)...)
	code = append(code, byte(JUMPDEST))
	dests = codeJumpdests(code)
	for i := 1; i <= 32; i++ {
		if dests[i] {
			t.Fatalf("byte %d inside PUSH32 data marked as jumpdest", i)
		}
	}
	if !dests[33] {
		t.Fatal("trailing jumpdest not marked")
	}
}

func TestMachineEmptyCode(t *testing.T) {
	m := NewMachine(nil, nil, Context{}, DefaultConfig())
	if _, _, ok := m.Inspect(); ok {
		t.Fatal("empty machine claims to have an instruction")
	}
	_, reason := m.Position()
	if reason == nil || !reason.Succeeded() {
		t.Fatalf("reason = %v, want implicit success", reason)
	}
}

func TestMachineRunsToReturn(t *testing.T) {
	db := newTestStateDB()
	e := newTestExecutor(db, 100_000)
	ctx := Context{Address: testContract, Caller: testCaller, ApparentValue: new(big.Int)}

	m := NewMachine(returnCode, nil, ctx, e.Config())
	var (
		done   bool
		reason ExitReason
		steps  int
	)
	for !done {
		instr, _, ok := m.Inspect()
		if !ok {
			t.Fatal("machine stalled before halting")
		}
		if steps == 0 && instr.Byte() != byte(PUSH1) {
			t.Fatalf("first instruction = %v, want PUSH1", instr)
		}
		var trapped bool
		done, reason, trapped = m.Step(e)
		if trapped {
			t.Fatal("unexpected trap")
		}
		steps++
	}
	if !reason.Succeeded() {
		t.Fatalf("reason = %v, want success", reason)
	}
	want := common.LeftPadBytes([]byte{0x2a}, 32)
	if !bytes.Equal(m.ReturnValue(), want) {
		t.Fatalf("return value = %x, want %x", m.ReturnValue(), want)
	}
	if _, _, ok := m.Inspect(); ok {
		t.Fatal("halted machine still inspectable")
	}
}

func TestMachineInvalidJump(t *testing.T) {
	db := newTestStateDB()
	e := newTestExecutor(db, 100_000)
	ctx := Context{Address: testContract, Caller: testCaller}

	// PUSH1 0x01 JUMP: byte 1 is push data, not a jumpdest.
	m := NewMachine(common.Hex2Bytes("600156"), nil, ctx, e.Config())
	var (
		done   bool
		reason ExitReason
	)
	for !done {
		done, reason, _ = m.Step(e)
	}
	if !reason.Failed() {
		t.Fatalf("reason = %v, want failure", reason)
	}
	if reason.Err != ErrInvalidJump {
		t.Fatalf("error = %v, want invalid jump", reason.Err)
	}
}

// trappingHandler resolves nothing itself: every nested call is left to
// an outer driver.
type trappingHandler struct {
	*Executor
}

func (h *trappingHandler) Call(codeAddress common.Address, transfer *Transfer, input []byte, targetGas *uint64, static bool, ctx Context) CallCapture {
	return CallCapture{Trapped: true}
}

func TestMachineTrapSurfaces(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testContract)
	e := newTestExecutor(db, 1_000_000)
	h := &trappingHandler{e}
	ctx := Context{Address: testContract, Caller: testCaller, ApparentValue: new(big.Int)}

	// Zero-argument CALL to address 5 with PUSH2 0xffff gas.
	code := common.Hex2Bytes("60006000600060006000600561fffff1")
	m := NewMachine(code, nil, ctx, e.Config())
	for {
		done, reason, trapped := m.Step(h)
		if trapped {
			// The machine must stay live at the call site.
			if _, exit := m.Position(); exit != nil {
				t.Fatalf("trapped machine reports exit %v", exit)
			}
			return
		}
		if done {
			t.Fatalf("machine halted with %v before trapping", reason)
		}
	}
}

func TestInspectPositionAgree(t *testing.T) {
	db := newTestStateDB()
	e := newTestExecutor(db, 100_000)
	ctx := Context{Address: testContract, Caller: testCaller, ApparentValue: new(big.Int)}

	m := NewMachine(storeCode, nil, ctx, e.Config())
	for {
		_, _, ok := m.Inspect()
		_, exit := m.Position()
		if ok == (exit != nil) {
			t.Fatalf("inspect ok = %v while position exit = %v", ok, exit)
		}
		if !ok {
			break
		}
		if done, _, _ := m.Step(e); done {
			break
		}
	}
	if _, exit := m.Position(); exit == nil || !exit.Succeeded() {
		t.Fatalf("final position exit = %v, want success", exit)
	}
}

// failingLogHandler rejects every log emission.
type failingLogHandler struct {
	*Executor
	err error
}

func (h *failingLogHandler) Log(addr common.Address, topics []common.Hash, data []byte) error {
	return h.err
}

func TestMachineLogErrorPropagates(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testContract)
	e := newTestExecutor(db, 1_000_000)
	h := &failingLogHandler{e, errors.New("log sink closed")}
	ctx := Context{Address: testContract, Caller: testCaller}

	// PUSH1 0x00 PUSH1 0x00 LOG0
	m := NewMachine(common.Hex2Bytes("60006000a0"), nil, ctx, e.Config())
	var (
		done   bool
		reason ExitReason
	)
	for !done {
		done, reason, _ = m.Step(h)
	}
	if !reason.Failed() || reason.Err != h.err {
		t.Fatalf("reason = %v, want the log failure", reason)
	}
}

// failingDeleteHandler rejects every destruction request.
type failingDeleteHandler struct {
	*Executor
	err error
}

func (h *failingDeleteHandler) MarkDelete(addr, target common.Address) error {
	return h.err
}

func TestMachineSelfdestructErrorPropagates(t *testing.T) {
	db := newTestStateDB()
	db.CreateAccount(testContract)
	e := newTestExecutor(db, 1_000_000)
	h := &failingDeleteHandler{e, errors.New("destruction rejected")}
	ctx := Context{Address: testContract, Caller: testCaller}

	// PUSH1 0xaa SELFDESTRUCT
	m := NewMachine(common.Hex2Bytes("60aaff"), nil, ctx, e.Config())
	var (
		done   bool
		reason ExitReason
	)
	for !done {
		done, reason, _ = m.Step(h)
	}
	if !reason.Failed() || reason.Err != h.err {
		t.Fatalf("reason = %v, want the destruction failure", reason)
	}
}

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func hash(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

func TestSnapshotRevert(t *testing.T) {
	db := NewMemoryStateDB()
	db.SetBalance(addrA, big.NewInt(1000))
	db.SetStorage(addrA, hash(1), hash(11))

	snap := db.Snapshot()

	db.SubBalance(addrA, big.NewInt(400))
	if err := db.SetState(addrA, hash(1), hash(99)); err != nil {
		t.Fatalf("set state: %v", err)
	}
	db.SetNonce(addrB, 7)
	db.AddRefund(15000)
	db.AddLog(&types.Log{Address: addrA})

	db.RevertToSnapshot(snap)

	if got := db.GetBalance(addrA); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("balance = %v, want 1000", got)
	}
	if got := db.GetState(addrA, hash(1)); got != hash(11) {
		t.Fatalf("slot = %x, want 11", got)
	}
	if db.GetNonce(addrB) != 0 {
		t.Fatal("nonce write survived the revert")
	}
	if db.GetRefund() != 0 {
		t.Fatal("refund counter survived the revert")
	}
	if len(db.Logs()) != 0 {
		t.Fatal("log survived the revert")
	}
}

func TestNestedSnapshots(t *testing.T) {
	db := NewMemoryStateDB()
	db.SetBalance(addrA, big.NewInt(100))

	outer := db.Snapshot()
	db.AddBalance(addrA, big.NewInt(1))
	inner := db.Snapshot()
	db.AddBalance(addrA, big.NewInt(1))

	db.RevertToSnapshot(inner)
	if got := db.GetBalance(addrA); got.Cmp(big.NewInt(101)) != 0 {
		t.Fatalf("balance = %v, want 101 after inner revert", got)
	}
	db.RevertToSnapshot(outer)
	if got := db.GetBalance(addrA); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance = %v, want 100 after outer revert", got)
	}
}

func TestRevertUnknownSnapshotPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic for an unknown snapshot id")
		}
	}()
	NewMemoryStateDB().RevertToSnapshot(42)
}

func TestCommittedState(t *testing.T) {
	db := NewMemoryStateDB()
	db.SetStorage(addrA, hash(1), hash(11))

	if err := db.SetState(addrA, hash(1), hash(22)); err != nil {
		t.Fatalf("set state: %v", err)
	}
	if got := db.GetState(addrA, hash(1)); got != hash(22) {
		t.Fatalf("dirty slot = %x, want 22", got)
	}
	if got := db.GetCommittedState(addrA, hash(1)); got != hash(11) {
		t.Fatalf("committed slot = %x, want 11", got)
	}
}

func TestSuicideZeroesBalance(t *testing.T) {
	db := NewMemoryStateDB()
	db.SetBalance(addrA, big.NewInt(500))

	if !db.Suicide(addrA) {
		t.Fatal("suicide of an existing account returned false")
	}
	if !db.HasSuicided(addrA) {
		t.Fatal("account not marked as suicided")
	}
	if db.GetBalance(addrA).Sign() != 0 {
		t.Fatal("suicided account kept its balance")
	}
	if db.Suicide(addrB) {
		t.Fatal("suicide of a missing account returned true")
	}
}

func TestExistAndEmpty(t *testing.T) {
	db := NewMemoryStateDB()
	if db.Exist(addrA) {
		t.Fatal("missing account reported as existing")
	}
	if !db.Empty(addrA) {
		t.Fatal("missing account reported as non-empty")
	}

	db.CreateAccount(addrA)
	if !db.Exist(addrA) || !db.Empty(addrA) {
		t.Fatal("fresh account must exist and be empty")
	}

	db.SetNonce(addrA, 1)
	if db.Empty(addrA) {
		t.Fatal("account with a nonce reported as empty")
	}
}

func TestCreateAccountKeepsBalance(t *testing.T) {
	db := NewMemoryStateDB()
	db.SetBalance(addrA, big.NewInt(123))
	db.SetStorage(addrA, hash(1), hash(11))

	db.CreateAccount(addrA)

	if got := db.GetBalance(addrA); got.Cmp(big.NewInt(123)) != 0 {
		t.Fatalf("balance = %v, want 123", got)
	}
	if got := db.GetState(addrA, hash(1)); got != (common.Hash{}) {
		t.Fatal("storage survived the account reset")
	}
}

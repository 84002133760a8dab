// Package state provides a self-contained in-memory StateDB, good
// enough to execute and trace transactions without a backing chain.
package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/CaduceusMetaverseProtocol/MetaTracer/vm/ethvm"
)

type account struct {
	balance  *big.Int
	nonce    uint64
	code     []byte
	storage  map[common.Hash]common.Hash
	original map[common.Hash]common.Hash
	suicided bool
}

func newAccount() *account {
	return &account{
		balance:  new(big.Int),
		storage:  make(map[common.Hash]common.Hash),
		original: make(map[common.Hash]common.Hash),
	}
}

func (a *account) copy() *account {
	cpy := &account{
		balance:  new(big.Int).Set(a.balance),
		nonce:    a.nonce,
		code:     a.code,
		storage:  make(map[common.Hash]common.Hash, len(a.storage)),
		original: a.original,
		suicided: a.suicided,
	}
	for k, v := range a.storage {
		cpy.storage[k] = v
	}
	return cpy
}

// MemoryStateDB keeps the whole world state in maps. Snapshots are deep
// copies; reverting restores the copy wholesale. Committed storage is
// whatever the seeding helpers wrote before execution started.
type MemoryStateDB struct {
	accounts  map[common.Address]*account
	refund    uint64
	logs      []*types.Log
	snapshots []*snapshot
	nextID    int
}

type snapshot struct {
	id       int
	accounts map[common.Address]*account
	refund   uint64
	nlogs    int
}

// NewMemoryStateDB returns an empty world state.
func NewMemoryStateDB() *MemoryStateDB {
	return &MemoryStateDB{
		accounts: make(map[common.Address]*account),
	}
}

func (db *MemoryStateDB) getOrNew(addr common.Address) *account {
	acc, ok := db.accounts[addr]
	if !ok {
		acc = newAccount()
		db.accounts[addr] = acc
	}
	return acc
}

// Seeding helpers, used to arrange state before execution.

// SetBalance overwrites the balance of addr.
func (db *MemoryStateDB) SetBalance(addr common.Address, balance *big.Int) {
	db.getOrNew(addr).balance = new(big.Int).Set(balance)
}

// SetStorage writes a slot as pre-existing committed state.
func (db *MemoryStateDB) SetStorage(addr common.Address, key, value common.Hash) {
	acc := db.getOrNew(addr)
	acc.storage[key] = value
	acc.original[key] = value
}

// Logs returns the logs emitted so far.
func (db *MemoryStateDB) Logs() []*types.Log {
	return db.logs
}

func (db *MemoryStateDB) CreateAccount(addr common.Address) {
	prev, existed := db.accounts[addr]
	acc := newAccount()
	if existed {
		// balance carries over on account resets
		acc.balance = prev.balance
	}
	db.accounts[addr] = acc
}

func (db *MemoryStateDB) SubBalance(addr common.Address, amount *big.Int) {
	acc := db.getOrNew(addr)
	acc.balance = new(big.Int).Sub(acc.balance, amount)
}

func (db *MemoryStateDB) AddBalance(addr common.Address, amount *big.Int) {
	acc := db.getOrNew(addr)
	acc.balance = new(big.Int).Add(acc.balance, amount)
}

func (db *MemoryStateDB) GetBalance(addr common.Address) *big.Int {
	if acc, ok := db.accounts[addr]; ok {
		return acc.balance
	}
	return new(big.Int)
}

func (db *MemoryStateDB) GetNonce(addr common.Address) uint64 {
	if acc, ok := db.accounts[addr]; ok {
		return acc.nonce
	}
	return 0
}

func (db *MemoryStateDB) SetNonce(addr common.Address, nonce uint64) {
	db.getOrNew(addr).nonce = nonce
}

func (db *MemoryStateDB) GetCodeHash(addr common.Address) common.Hash {
	acc, ok := db.accounts[addr]
	if !ok {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(acc.code)
}

func (db *MemoryStateDB) GetCode(addr common.Address) []byte {
	if acc, ok := db.accounts[addr]; ok {
		return acc.code
	}
	return nil
}

func (db *MemoryStateDB) SetCode(addr common.Address, code []byte) {
	db.getOrNew(addr).code = code
}

func (db *MemoryStateDB) GetCodeSize(addr common.Address) int {
	return len(db.GetCode(addr))
}

func (db *MemoryStateDB) AddRefund(gas uint64) {
	db.refund += gas
}

func (db *MemoryStateDB) GetRefund() uint64 {
	return db.refund
}

func (db *MemoryStateDB) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	if acc, ok := db.accounts[addr]; ok {
		return acc.original[key]
	}
	return common.Hash{}
}

func (db *MemoryStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if acc, ok := db.accounts[addr]; ok {
		return acc.storage[key]
	}
	return common.Hash{}
}

func (db *MemoryStateDB) SetState(addr common.Address, key, value common.Hash) error {
	db.getOrNew(addr).storage[key] = value
	return nil
}

func (db *MemoryStateDB) Suicide(addr common.Address) bool {
	acc, ok := db.accounts[addr]
	if !ok {
		return false
	}
	acc.suicided = true
	acc.balance = new(big.Int)
	return true
}

func (db *MemoryStateDB) HasSuicided(addr common.Address) bool {
	if acc, ok := db.accounts[addr]; ok {
		return acc.suicided
	}
	return false
}

func (db *MemoryStateDB) Exist(addr common.Address) bool {
	_, ok := db.accounts[addr]
	return ok
}

func (db *MemoryStateDB) Empty(addr common.Address) bool {
	acc, ok := db.accounts[addr]
	if !ok {
		return true
	}
	return acc.balance.Sign() == 0 && acc.nonce == 0 && len(acc.code) == 0
}

func (db *MemoryStateDB) Snapshot() int {
	cpy := make(map[common.Address]*account, len(db.accounts))
	for addr, acc := range db.accounts {
		cpy[addr] = acc.copy()
	}
	id := db.nextID
	db.nextID++
	db.snapshots = append(db.snapshots, &snapshot{
		id:       id,
		accounts: cpy,
		refund:   db.refund,
		nlogs:    len(db.logs),
	})
	return id
}

func (db *MemoryStateDB) RevertToSnapshot(id int) {
	for i := len(db.snapshots) - 1; i >= 0; i-- {
		if db.snapshots[i].id != id {
			continue
		}
		snap := db.snapshots[i]
		db.accounts = snap.accounts
		db.refund = snap.refund
		db.logs = db.logs[:snap.nlogs]
		db.snapshots = db.snapshots[:i]
		return
	}
	panic("state: unknown snapshot id")
}

func (db *MemoryStateDB) AddLog(l *types.Log) {
	db.logs = append(db.logs, l)
}

var _ ethvm.StateDB = (*MemoryStateDB)(nil)

// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"sync"

	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
)

// Mempool represents the set of transactions waiting to be mined, kept in
// the order they arrived.
type Mempool struct {
	pool []database.Transaction
	mu   sync.RWMutex
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add appends a transaction to the end of the pool and returns the new size.
func (mp *Mempool) Add(tx database.Transaction) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx.Clone())

	return len(mp.pool)
}

// Find locates a transaction by hash and returns its position in the pool.
func (mp *Mempool) Find(hash string) (int, database.Transaction, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for i, tx := range mp.pool {
		if tx.Hash == hash {
			return i, tx.Clone(), true
		}
	}

	return -1, database.Transaction{}, false
}

// HasPendingFrom reports whether the address already signed an input of
// any transaction in the pool.
func (mp *Mempool) HasPendingFrom(address string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for _, tx := range mp.pool {
		for _, txi := range tx.Inputs {
			if txi.FromAddress == address {
				return true
			}
		}
	}

	return false
}

// PickOldest returns up to howMany of the oldest transactions. Pass -1 for
// all the transactions.
func (mp *Mempool) PickOldest(howMany int) []database.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany < 0 || howMany > len(mp.pool) {
		howMany = len(mp.pool)
	}

	txs := make([]database.Transaction, howMany)
	for i := range txs {
		txs[i] = mp.pool[i].Clone()
	}

	return txs
}

// Copy returns a copy of every transaction in the pool.
func (mp *Mempool) Copy() []database.Transaction {
	return mp.PickOldest(-1)
}

// Consume removes the transactions with the specified hashes. Every hash must
// be pending exactly once, otherwise nothing is removed and false is returned.
func (mp *Mempool) Consume(hashes []string) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	remove := make(map[string]struct{}, len(hashes))
	for _, hash := range hashes {
		remove[hash] = struct{}{}
	}

	remaining := make([]database.Transaction, 0, len(mp.pool))
	for _, tx := range mp.pool {
		if _, exists := remove[tx.Hash]; !exists {
			remaining = append(remaining, tx)
		}
	}

	if len(remaining)+len(hashes) != len(mp.pool) {
		return false
	}

	mp.pool = remaining
	return true
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

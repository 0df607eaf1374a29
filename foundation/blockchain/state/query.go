package state

import (
	"math"

	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// TxSearch represents the result of looking up a transaction. The index that
// does not apply is -1, both are -1 when the transaction is unknown.
type TxSearch struct {
	Transaction  *database.Transaction `json:"transaction,omitempty"`
	MempoolIndex int                   `json:"mempoolIndex"`
	BlockIndex   int                   `json:"blockIndex"`
}

// MempoolSummary represents the next batch of transactions to be mined and
// the total number of pending transactions.
type MempoolSummary struct {
	Next  []database.Transaction `json:"next"`
	Total int                    `json:"total"`
}

// Status represents the health of the chain.
type Status struct {
	IsValid   validation.Validation `json:"isValid"`
	Mempool   int                   `json:"mempool"`
	Blocks    int                   `json:"blocks"`
	LastBlock database.Block        `json:"lastBlock"`
}

// =============================================================================

// QueryBlockByIndex returns a copy of the block at the specified index.
func (s *State) QueryBlockByIndex(index int64) (database.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= int64(len(s.blocks)) {
		return database.Block{}, false
	}

	return s.blocks[index].Clone(), true
}

// QueryBlockByHash returns a copy of the block with the specified hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, block := range s.blocks {
		if block.Hash == hash {
			return block.Clone(), true
		}
	}

	return database.Block{}, false
}

// QueryTransaction searches the mempool first and then the chain for the
// transaction with the specified hash.
func (s *State) QueryTransaction(hash string) TxSearch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx, tx, found := s.mempool.Find(hash); found {
		return TxSearch{Transaction: &tx, MempoolIndex: idx, BlockIndex: -1}
	}

	for i, block := range s.blocks {
		for _, tx := range block.Transactions {
			if tx.Hash == hash {
				tx := tx.Clone()
				return TxSearch{Transaction: &tx, MempoolIndex: -1, BlockIndex: i}
			}
		}
	}

	return TxSearch{MempoolIndex: -1, BlockIndex: -1}
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryMempoolSummary returns the preview of the next batch to be mined.
func (s *State) QueryMempoolSummary() MempoolSummary {
	return MempoolSummary{
		Next:  s.mempool.PickOldest(MaxTxPerBlock),
		Total: s.mempool.Count(),
	}
}

// QueryUTXO returns the unspent outputs owned by the wallet.
func (s *State) QueryUTXO(wallet string) []database.TxOutput {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.utxo(wallet)
}

// QueryBalance returns the sum of the unspent outputs owned by the wallet.
func (s *State) QueryBalance(wallet string) int64 {
	_, balance := s.QueryWallet(wallet)
	return balance
}

// QueryWallet returns the unspent outputs owned by the wallet and their sum.
// A sum that does not fit in an int64 is reported as math.MaxInt64.
func (s *State) QueryWallet(wallet string) ([]database.TxOutput, int64) {
	utxo := s.QueryUTXO(wallet)

	amounts := make([]int64, len(utxo))
	for i, txo := range utxo {
		amounts[i] = txo.Amount
	}

	balance, ok := database.AddAmounts(amounts...)
	if !ok {
		balance = math.MaxInt64
	}

	return utxo, balance
}

// QueryStatus returns the validity and size of the chain.
func (s *State) QueryStatus() Status {
	return Status{
		IsValid:   s.ValidateChain(),
		Mempool:   s.mempool.Count(),
		Blocks:    s.QueryBlockCount(),
		LastBlock: s.RetrieveLatestBlock(),
	}
}

// QueryBlockCount returns the number of blocks in the chain.
func (s *State) QueryBlockCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.blocks)
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.blocks[len(s.blocks)-1].Clone()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Transaction {
	return s.mempool.Copy()
}

// =============================================================================

// utxo collects every output paid to the wallet and removes the ones spent
// by inputs signed by the wallet. The lock must be held by the caller.
func (s *State) utxo(wallet string) []database.TxOutput {
	var outs []database.TxOutput
	var ins []database.TxInput

	for _, block := range s.blocks {
		for _, tx := range block.Transactions {
			for _, txo := range tx.Outputs {
				if txo.ToAddress == wallet {
					outs = append(outs, txo)
				}
			}
			for _, txi := range tx.Inputs {
				if txi.FromAddress == wallet {
					ins = append(ins, txi)
				}
			}
		}
	}

	for _, txi := range ins {
		if idx := spentIndex(outs, txi); idx != -1 {
			outs = append(outs[:idx], outs[idx+1:]...)
		}
	}

	return outs
}

// spentIndex locates the output the input spends. Outputs are matched by the
// transaction hash, preferring the one with the exact amount.
func spentIndex(outs []database.TxOutput, txi database.TxInput) int {
	idx := -1
	for i, txo := range outs {
		if txo.TxHash != txi.PreviousTxHash || txo.Amount < txi.Amount {
			continue
		}
		if txo.Amount == txi.Amount {
			return i
		}
		if idx == -1 {
			idx = i
		}
	}

	return idx
}

package state

import (
	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// AddTransaction validates a transaction against the current chain and, if it
// passes, appends it to the mempool. On success the message carries the
// transaction hash.
func (s *State) AddTransaction(tx database.Transaction) validation.Validation {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.validateTransaction(tx)
	if !v.Success {
		s.evHandler("state: AddTransaction: rejected: tx[%s]: %s", tx, v.Message)
		return v
	}

	n := s.mempool.Add(tx)
	s.evHandler("state: AddTransaction: accepted: tx[%s]: mempool[%d]", tx, n)

	s.signalStartMining()

	return validation.Ok(tx.Hash)
}

// validateTransaction applies the admission rules in order. The lock must be
// held by the caller.
func (s *State) validateTransaction(tx database.Transaction) validation.Validation {
	if len(tx.Inputs) > 0 {

		// Only one pending transaction is allowed per sender so two
		// transactions can't claim the same outputs before either is mined.
		from := tx.Inputs[0].FromAddress
		if s.mempool.HasPendingFrom(from) {
			return validation.Fail("Sender wallet already has a pending transaction")
		}

		if !s.coveredByUTXO(tx.Inputs) {
			return validation.Fail("Sender wallet does not have enough balance (UTXO)")
		}
	}

	// Fee transactions are only valid inside the block of the miner that
	// created them.
	if tx.Type == database.TxTypeFee {
		return validation.Fail("Invalid transaction: fee transactions can't be submitted")
	}

	if v := tx.Validate(s.difficulty(), FeePerTx); !v.Success {
		return validation.Fail("Invalid transaction: " + v.Message)
	}

	if s.isCommitted(tx.Hash) {
		return validation.Fail("Duplicated transaction in the Blockchain")
	}

	if _, _, found := s.mempool.Find(tx.Hash); found {
		return validation.Fail("Duplicated transaction in the Mempool")
	}

	return validation.Ok()
}

// coveredByUTXO checks every input references an unspent output of its
// sender with at least the claimed amount. An output can back one input only.
func (s *State) coveredByUTXO(inputs []database.TxInput) bool {
	utxos := make(map[string][]database.TxOutput)

	for _, txi := range inputs {
		utxo, exists := utxos[txi.FromAddress]
		if !exists {
			utxo = s.utxo(txi.FromAddress)
		}

		idx := -1
		for i, txo := range utxo {
			if txo.TxHash == txi.PreviousTxHash && txo.Amount >= txi.Amount {
				idx = i
				break
			}
		}
		if idx == -1 {
			return false
		}

		utxos[txi.FromAddress] = append(utxo[:idx:idx], utxo[idx+1:]...)
	}

	return true
}

// isCommitted reports whether the hash belongs to a transaction in any block.
func (s *State) isCommitted(hash string) bool {
	for _, block := range s.blocks {
		for _, tx := range block.Transactions {
			if tx.Hash == hash {
				return true
			}
		}
	}

	return false
}

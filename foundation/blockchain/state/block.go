package state

import (
	"encoding/json"
	"fmt"

	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// AddBlock validates a mined block against the current next block info and
// if that passes, appends it to the chain and removes its transactions from
// the mempool. On success the message carries the block hash.
func (s *State) AddBlock(block database.Block) validation.Validation {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: AddBlock: started: blk[%s]: numTrans[%d]", block, len(block.Transactions))

	info, exists := s.nextBlockInfo()
	if !exists {
		return validation.Fail("There is no next block info")
	}

	v := block.Validate(database.ValidateArgs{
		PreviousIndex: info.Index - 1,
		PreviousHash:  info.PreviousHash,
		Difficulty:    info.Difficulty,
		FeePerTx:      info.FeePerTx,
	})
	if !v.Success {
		s.evHandler("state: AddBlock: rejected: blk[%s]: %s", block, v.Message)
		return validation.Fail("Invalid block: " + v.Message)
	}

	// The block can only carry transactions that are pending.
	var hashes []string
	for _, tx := range block.Transactions {
		if tx.Type == database.TxTypeRegular {
			hashes = append(hashes, tx.Hash)
		}
	}

	if !s.mempool.Consume(hashes) {
		s.evHandler("state: AddBlock: rejected: blk[%s]: mempool does not match", block)
		return validation.Fail("Invalid tx in block: mempool does not match")
	}

	s.blocks = append(s.blocks, block.Clone())
	s.nextIndex++

	s.evHandler("state: AddBlock: completed: blk[%s]: mempool[%d]", block, s.mempool.Count())
	s.blockEvent(block)

	// Any mining in flight is working on a stale tip.
	s.signalCancelMining()
	if s.mempool.Count() > 0 {
		s.signalStartMining()
	}

	return validation.Ok(block.Hash)
}

// NextBlockInfo returns what a miner needs to mine the next block. There is
// no next block when the mempool is empty.
func (s *State) NextBlockInfo() (database.NextBlockInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nextBlockInfo()
}

// ValidateChain walks the chain from the tip back to the block after genesis
// validating every block against its predecessor. The current difficulty is
// used for every block.
func (s *State) ValidateChain() validation.Validation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	difficulty := s.difficulty()

	for i := len(s.blocks) - 1; i > 0; i-- {
		current := s.blocks[i]
		previous := s.blocks[i-1]

		v := current.Validate(database.ValidateArgs{
			PreviousIndex: previous.Index,
			PreviousHash:  previous.Hash,
			Difficulty:    difficulty,
			FeePerTx:      FeePerTx,
		})
		if !v.Success {
			return validation.Fail(fmt.Sprintf("Invalid block #%d: %s", current.Index, v.Message))
		}
	}

	return validation.Ok()
}

// =============================================================================

// nextBlockInfo builds the descriptor. The lock must be held by the caller.
func (s *State) nextBlockInfo() (database.NextBlockInfo, bool) {
	if s.mempool.Count() == 0 {
		return database.NextBlockInfo{}, false
	}

	info := database.NextBlockInfo{
		Index:         s.nextIndex,
		PreviousHash:  s.blocks[len(s.blocks)-1].Hash,
		Difficulty:    s.difficulty(),
		MaxDifficulty: MaxDifficulty,
		FeePerTx:      FeePerTx,
		Transactions:  s.mempool.PickOldest(MaxTxPerBlock),
	}

	return info, true
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"block":%s}`, block.Hash, string(blockJSON))
}

// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/mempool"
)

// Set of consensus constants for the chain.
const (
	DifficultyFactor = 5  // Number of blocks between difficulty increases.
	MaxTxPerBlock    = 2  // Number of pending transactions handed to a miner.
	MaxDifficulty    = 62 // Past this difficulty mining is no longer rewarded.
	FeePerTx         = 1  // Fixed fee collected by the miner per transaction.
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining next to the state.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	MinerAddress string
	EvHandler    EventHandler
}

// State manages the blocks of the chain and the mempool. All mutations are
// serialized by the state so callers can share a single value.
type State struct {
	minerAddress string
	evHandler    EventHandler
	mu           sync.RWMutex

	blocks    []database.Block
	nextIndex int64
	mempool   *mempool.Mempool

	Worker Worker
}

// New constructs a new blockchain with a mined genesis block that pays the
// genesis reward to the specified miner address.
func New(cfg Config) (*State, error) {
	if cfg.MinerAddress == "" {
		return nil, errors.New("miner address is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	s := State{
		minerAddress: cfg.MinerAddress,
		evHandler:    ev,
		mempool:      mempool.New(),
	}

	genesis, err := s.genesisBlock()
	if err != nil {
		return nil, fmt.Errorf("mining genesis block: %w", err)
	}

	s.blocks = append(s.blocks, genesis)
	s.nextIndex++

	s.evHandler("state: New: genesis block[%s] miner[%s]", genesis, cfg.MinerAddress)

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &s, nil
}

// Shutdown cleanly brings the node down. Pending transactions are not
// persisted and are dropped.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	s.evHandler("state: shutdown: dropping %d pending transactions", s.mempool.Count())
	s.mempool.Truncate()

	return nil
}

// Difficulty returns the number of leading zeros the next block needs.
func (s *State) Difficulty() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.difficulty()
}

// FeePerTx returns the fee the miner collects for every transaction.
func (s *State) FeePerTx() int64 {
	return FeePerTx
}

// MinerAddress returns the address that was paid the genesis reward.
func (s *State) MinerAddress() string {
	return s.minerAddress
}

// =============================================================================

// genesisBlock constructs block zero with a FEE transaction paying the miner
// and mines it at the initial difficulty.
func (s *State) genesisBlock() (database.Block, error) {
	difficulty := s.difficulty()

	tx := database.FromReward(database.NewTxOutput(s.minerAddress, database.RewardAmount(difficulty)))

	block := database.NewBlock(0, "", []database.Transaction{tx})
	if err := block.Mine(context.Background(), difficulty, s.minerAddress); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// difficulty grows by one every DifficultyFactor blocks.
func (s *State) difficulty() int {
	n := len(s.blocks)
	return (n+DifficultyFactor-1)/DifficultyFactor + 1
}

// signalStartMining tells a registered worker there is work to do.
func (s *State) signalStartMining() {
	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}
}

// signalCancelMining tells a registered worker the chain tip moved.
func (s *State) signalCancelMining() {
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}
}

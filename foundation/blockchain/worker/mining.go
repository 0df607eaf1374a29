package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/state"
)

// Set of errors returned by MineNext.
var (
	ErrNoTransactions = errors.New("no transactions to mine")
	ErrNotWorthwhile  = errors.New("difficulty is past the rewarded maximum")
	ErrRejected       = errors.New("block rejected")
)

// MineNext asks the ledger for the next block, mines it paying the reward to
// the miner address and submits it back. The mined block is returned when
// the ledger accepts it.
func MineNext(ctx context.Context, ledger Ledger, minerAddress string, evHandler state.EventHandler) (database.Block, error) {
	info, exists, err := ledger.NextBlockInfo(ctx)
	if err != nil {
		return database.Block{}, fmt.Errorf("next block info: %w", err)
	}

	if !exists {
		return database.Block{}, ErrNoTransactions
	}

	if !info.Worthwhile() {
		return database.Block{}, ErrNotWorthwhile
	}

	block := info.BuildBlock(minerAddress)

	t := time.Now()
	if err := block.Mine(ctx, info.Difficulty, minerAddress); err != nil {
		return database.Block{}, fmt.Errorf("mining block[%d]: %w", info.Index, err)
	}

	evHandler("worker: MineNext: MINING: solved: blk[%s]: difficulty[%d]: duration[%v]", block, info.Difficulty, time.Since(t))

	v, err := ledger.SubmitBlock(ctx, block)
	if err != nil {
		return database.Block{}, fmt.Errorf("submit block[%s]: %w", block, err)
	}

	if !v.Success {
		return database.Block{}, fmt.Errorf("%w: %s", ErrRejected, v.Message)
	}

	return block, nil
}

// Poll keeps mining blocks from the ledger until the context is cancelled.
// When there is nothing to mine it waits idle, after every attempt it waits
// busy. Mining errors are reported to the event handler and never stop the
// loop.
func Poll(ctx context.Context, ledger Ledger, minerAddress string, idle time.Duration, busy time.Duration, evHandler state.EventHandler) {
	evHandler("worker: Poll: G started")
	defer evHandler("worker: Poll: G completed")

	for {
		wait := busy

		block, err := MineNext(ctx, ledger, minerAddress, evHandler)
		switch {
		case err == nil:
			evHandler("worker: Poll: MINING: accepted: blk[%s]", block)
		case errors.Is(err, ErrNoTransactions):
			evHandler("worker: Poll: MINING: no transactions to mine")
			wait = idle
		case ctx.Err() != nil:
			return
		default:
			evHandler("worker: Poll: MINING: ERROR: %s", err)
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// =============================================================================

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation mines the next block handed out by the state and adds it
// to the chain.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so mining can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-w.shut:
		case <-ctx.Done():
		}
	}()

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		block, err := MineNext(ctx, w.ledger, w.minerAddress, w.evHandler)
		if err != nil {
			switch {
			case errors.Is(err, ErrNoTransactions):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: no transactions in mempool")
			case ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")
			default:
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
			}
			return
		}

		w.evHandler("worker: runMiningOperation: MINING: accepted: blk[%s]", block)
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}

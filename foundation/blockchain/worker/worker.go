// Package worker implements the mining workflow for the blockchain, both next
// to the state inside the node and as a remote miner talking to a node.
package worker

import (
	"context"
	"sync"

	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/state"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// Ledger represents the behavior a miner needs from the chain it mines for.
// It is implemented by the node's state and by the HTTP client.
type Ledger interface {
	NextBlockInfo(ctx context.Context) (database.NextBlockInfo, bool, error)
	SubmitBlock(ctx context.Context, block database.Block) (validation.Validation, error)
}

// =============================================================================

// Worker manages the POW workflow for a node that mines its own blocks.
type Worker struct {
	ledger       Ledger
	minerAddress string
	wg           sync.WaitGroup
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan bool
	evHandler    state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up the mining goroutine. Rewards are paid to the miner address.
func Run(st *state.State, minerAddress string, evHandler state.EventHandler) *Worker {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		ledger:       StateLedger(st),
		minerAddress: minerAddress,
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan bool, 1),
		evHandler:    ev,
	}

	// Register this worker with the state package.
	st.Worker = &w

	w.wg.Add(1)

	// We don't want to return until we know the G is up and running.
	hasStarted := make(chan bool)

	go func() {
		defer w.wg.Done()
		hasStarted <- true
		w.miningOperations()
	}()

	<-hasStarted

	// Transactions could have been accepted before the worker existed.
	if st.QueryMempoolLength() > 0 {
		w.SignalStartMining()
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// =============================================================================

// stateLedger adapts the state to the Ledger interface for in-process mining.
type stateLedger struct {
	state *state.State
}

// StateLedger returns a Ledger backed directly by the specified state.
func StateLedger(st *state.State) Ledger {
	return stateLedger{state: st}
}

func (l stateLedger) NextBlockInfo(ctx context.Context) (database.NextBlockInfo, bool, error) {
	info, exists := l.state.NextBlockInfo()
	return info, exists, nil
}

func (l stateLedger) SubmitBlock(ctx context.Context, block database.Block) (validation.Validation, error) {
	return l.state.AddBlock(block), nil
}

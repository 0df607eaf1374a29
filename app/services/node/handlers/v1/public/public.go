// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ledgerforge/utxochain/business/sys/validate"
	v1 "github.com/ledgerforge/utxochain/business/web/v1"
	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/state"
	"github.com/ledgerforge/utxochain/foundation/events"
	"github.com/ledgerforge/utxochain/foundation/nameservice"
	"github.com/ledgerforge/utxochain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Status returns the validity and the size of the chain.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryStatus(), http.StatusOK)
}

// NextBlock returns the descriptor of the next block to mine, or null when
// there is nothing pending.
func (h Handlers) NextBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	info, exists := h.State.NextBlockInfo()
	if !exists {
		return web.Respond(ctx, w, nil, http.StatusOK)
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// QueryBlock returns the block identified by its index or by its hash.
func (h Handlers) QueryBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	indexOrHash := web.Param(r, "indexOrHash")

	var block database.Block
	var found bool

	switch index, err := strconv.ParseInt(indexOrHash, 10, 64); {
	case err == nil:
		block, found = h.State.QueryBlockByIndex(index)
	default:
		block, found = h.State.QueryBlockByHash(indexOrHash)
	}

	if !found {
		return v1.NewRequestError(errors.New("block not found"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// AddBlock accepts a block mined by a remote miner.
func (h Handlers) AddBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var nb newBlock
	if err := decode(r, &nb); err != nil {
		return err
	}
	block := nb.toDB()

	h.Log.Infow("add block", "traceid", v.TraceID, "block", block, "miner", block.Miner, "txs", len(block.Transactions))

	if result := h.State.AddBlock(block); !result.Success {
		return v1.NewRejectedError(result, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, block, http.StatusCreated)
}

// Mempool returns the next batch of transactions to mine and the total
// number of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryMempoolSummary(), http.StatusOK)
}

// QueryTransaction locates a transaction in the mempool or in the chain.
func (h Handlers) QueryTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryTransaction(web.Param(r, "hash")), http.StatusOK)
}

// AddTransaction adds a signed wallet transaction to the mempool.
func (h Handlers) AddTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx newTx
	if err := decode(r, &ntx); err != nil {
		return err
	}
	tx := ntx.toDB()

	h.Log.Infow("add tran", "traceid", v.TraceID, "tx", tx, "inputs", len(tx.Inputs), "outputs", len(tx.Outputs))

	if result := h.State.AddTransaction(tx); !result.Success {
		return v1.NewRejectedError(result, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, tx, http.StatusCreated)
}

// Wallet returns the balance and unspent outputs of an address along with
// the fee a transaction currently costs.
func (h Handlers) Wallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "wallet")

	utxo, balance := h.State.QueryWallet(address)

	wal := wallet{
		Balance: balance,
		Fee:     h.State.FeePerTx(),
		UTXO:    utxo,
	}

	if h.NS != nil {
		wal.Name, _ = h.NS.Lookup(address)
	}

	if wal.UTXO == nil {
		wal.UTXO = []database.TxOutput{}
	}

	return web.Respond(ctx, w, wal, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// The websocket owns the connection from here, the status is only
	// recorded for the request log.
	web.SetStatusCode(ctx, http.StatusSwitchingProtocols)

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// =============================================================================

// decode reads the payload. Field errors are passed on untouched so they are
// reported as unprocessable, anything else is a bad request.
func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	return nil
}

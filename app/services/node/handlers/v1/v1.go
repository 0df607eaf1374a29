// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/ledgerforge/utxochain/app/services/node/handlers/v1/public"
	"github.com/ledgerforge/utxochain/foundation/blockchain/state"
	"github.com/ledgerforge/utxochain/foundation/events"
	"github.com/ledgerforge/utxochain/foundation/nameservice"
	"github.com/ledgerforge/utxochain/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/status", pbl.Status)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/blocks/next", pbl.NextBlock)
	app.Handle(http.MethodGet, version, "/blocks/:indexOrHash", pbl.QueryBlock)
	app.Handle(http.MethodPost, version, "/blocks", pbl.AddBlock)
	app.Handle(http.MethodGet, version, "/transactions", pbl.Mempool)
	app.Handle(http.MethodGet, version, "/transactions/:hash", pbl.QueryTransaction)
	app.Handle(http.MethodPost, version, "/transactions", pbl.AddTransaction)
	app.Handle(http.MethodGet, version, "/wallets/:wallet", pbl.Wallet)
}

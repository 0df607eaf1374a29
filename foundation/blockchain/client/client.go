// Package client provides access to the ledger API of a node over HTTP. It is
// used by the remote miner and the wallet.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// Wallet represents what the node knows about a wallet address.
type Wallet struct {
	Balance int64               `json:"balance"`
	Fee     int64               `json:"fee"`
	UTXO    []database.TxOutput `json:"utxo"`
	Name    string              `json:"name,omitempty"`
}

// Status represents the health of the node's chain.
type Status struct {
	IsValid   validation.Validation `json:"isValid"`
	Mempool   int                   `json:"mempool"`
	Blocks    int                   `json:"blocks"`
	LastBlock database.Block        `json:"lastBlock"`
}

// =============================================================================

// Client represents a connection to a node's ledger API.
type Client struct {
	host string
	http *http.Client
}

// New constructs a client for the node at the specified base url, like
// http://localhost:8080.
func New(host string, timeout time.Duration) *Client {
	return &Client{
		host: strings.TrimSuffix(host, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Status returns the status of the node's chain.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var status Status
	if _, err := c.send(ctx, http.MethodGet, "/v1/status", nil, &status); err != nil {
		return Status{}, err
	}

	return status, nil
}

// NextBlockInfo returns the descriptor of the next block to mine. The bool is
// false when the node has no pending transactions.
func (c *Client) NextBlockInfo(ctx context.Context) (database.NextBlockInfo, bool, error) {
	var info *database.NextBlockInfo
	if _, err := c.send(ctx, http.MethodGet, "/v1/blocks/next", nil, &info); err != nil {
		return database.NextBlockInfo{}, false, err
	}

	if info == nil {
		return database.NextBlockInfo{}, false, nil
	}

	return *info, true, nil
}

// SubmitBlock sends a mined block to the node. A block the node refuses is
// reported through the validation, not as an error.
func (c *Client) SubmitBlock(ctx context.Context, block database.Block) (validation.Validation, error) {
	var added database.Block
	return c.submit(ctx, "/v1/blocks", block, &added, func() string { return added.Hash })
}

// SubmitTransaction sends a signed transaction to the node's mempool. A
// transaction the node refuses is reported through the validation.
func (c *Client) SubmitTransaction(ctx context.Context, tx database.Transaction) (validation.Validation, error) {
	var added database.Transaction
	return c.submit(ctx, "/v1/transactions", tx, &added, func() string { return added.Hash })
}

// Wallet returns the balance and the unspent outputs of the address.
func (c *Client) Wallet(ctx context.Context, address string) (Wallet, error) {
	var wallet Wallet
	if _, err := c.send(ctx, http.MethodGet, "/v1/wallets/"+url.PathEscape(address), nil, &wallet); err != nil {
		return Wallet{}, err
	}

	return wallet, nil
}

// =============================================================================

// rejection holds either body a node answers a bad request with: a failed
// validation or an error response for a request it could not read.
type rejection struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// submit posts the value and turns a rejection into a failed validation. A
// bad request that carries no validation is returned as an Error.
func (c *Client) submit(ctx context.Context, path string, dataSend any, dataRecv any, hash func() string) (validation.Validation, error) {
	var rejected rejection

	status, err := c.send(ctx, http.MethodPost, path, dataSend, dataRecv, &rejected)
	if err != nil {
		return validation.Validation{}, err
	}

	if status == http.StatusBadRequest {
		if rejected.Message == "" {
			return validation.Validation{}, &Error{Status: status, Body: rejected.Error}
		}
		return validation.Fail(rejected.Message), nil
	}

	return validation.Ok(hash()), nil
}

// send is a helper function to send an HTTP request to the node. A 400
// response is decoded into the optional dataRejected value, every other
// non 2xx response is returned as an error.
func (c *Client) send(ctx context.Context, method string, path string, dataSend any, dataRecv any, dataRejected ...any) (int, error) {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return 0, fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return 0, fmt.Errorf("new request: %w", err)
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest && len(dataRejected) > 0:
		if err := json.NewDecoder(resp.Body).Decode(dataRejected[0]); err != nil {
			return resp.StatusCode, fmt.Errorf("decode rejection: %w", err)
		}
		return resp.StatusCode, nil

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("read: %w", err)
		}
		return resp.StatusCode, &Error{Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if dataRecv != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return resp.StatusCode, fmt.Errorf("decode: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// Error is returned when the node answers with an unexpected status.
type Error struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("node responded %d: %s", e.Status, e.Body)
}

// IsStatus reports whether the error is an Error with the specified status.
func IsStatus(err error, status int) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == status
}

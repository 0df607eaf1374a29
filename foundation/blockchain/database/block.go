// Package database holds the ledger data types and the rules each of them
// enforces on its own: outputs, inputs, transactions and blocks.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// mineCheckInterval is how many nonces are tried between checks of the
// mining context for cancellation.
const mineCheckInterval = 1 << 12

// =============================================================================

// Block represents a group of transactions batched together and linked to the
// previous block through its hash.
type Block struct {
	Index        int64         `json:"index"`
	Timestamp    int64         `json:"timestamp"` // Unix milliseconds.
	PreviousHash string        `json:"previousHash"`
	Transactions []Transaction `json:"transactions"`
	Nonce        int64         `json:"nonce"`
	Miner        string        `json:"miner"`
	Hash         string        `json:"hash"`
}

// NewBlock constructs an unmined block. Nonce and miner stay empty until
// the block is mined.
func NewBlock(index int64, previousHash string, txs []Transaction) Block {
	b := Block{
		Index:        index,
		Timestamp:    time.Now().UnixMilli(),
		PreviousHash: previousHash,
		Transactions: cloneTxs(txs),
	}
	b.Hash = b.CalcHash()

	return b
}

// FromNextBlockInfo constructs an unmined block from the descriptor handed out
// to miners. The transactions are copied so the descriptor is left untouched.
func FromNextBlockInfo(info NextBlockInfo) Block {
	return NewBlock(info.Index, info.PreviousHash, info.Transactions)
}

// CalcHash computes the hash of the block from its stored fields.
func (b Block) CalcHash() string {
	var txs strings.Builder
	for _, tx := range b.Transactions {
		txs.WriteString(tx.Hash)
	}

	return signature.Hash(b.Index, txs.String(), b.PreviousHash, b.Timestamp, b.Nonce, b.Miner)
}

// Mine performs the work of finding a nonce whose hash starts with difficulty
// zeros. Pointer semantics are being used since a nonce is being discovered.
// The work stops with the context's error when the context is cancelled.
func (b *Block) Mine(ctx context.Context, difficulty int, miner string) error {
	b.Miner = miner

	var attempts int
	for {
		if attempts%mineCheckInterval == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		attempts++

		b.Nonce++
		b.Hash = b.CalcHash()

		if isHashSolved(difficulty, b.Hash) {
			return nil
		}
	}
}

// ValidateArgs represents what a block needs to know about the chain to be
// validated as the next block.
type ValidateArgs struct {
	PreviousIndex int64
	PreviousHash  string
	Difficulty    int
	FeePerTx      int64
}

// Validate checks the block against the consensus rules. The first failing
// rule is reported, except transaction failures which are all combined.
func (b Block) Validate(args ValidateArgs) validation.Validation {
	if len(b.Transactions) > 0 {
		if v := b.validateTransactions(args); !v.Success {
			return v
		}
	}

	if args.PreviousIndex != b.Index-1 {
		return validation.Fail("Invalid index")
	}

	if b.Timestamp < 1 {
		return validation.Fail("Invalid timestamp")
	}

	if args.PreviousHash != b.PreviousHash {
		return validation.Fail("Invalid previous hash")
	}

	if b.Nonce < 1 || b.Miner == "" {
		return validation.Fail("Not mined")
	}

	if b.Hash != b.CalcHash() || !isHashSolved(args.Difficulty, b.Hash) {
		return validation.Fail("Invalid hash")
	}

	return validation.Ok()
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	cpy := b
	cpy.Transactions = cloneTxs(b.Transactions)
	return cpy
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%d:%s", b.Index, shortHash(b.Hash))
}

// =============================================================================

// validateTransactions checks the fee transaction and then every transaction
// in the block, combining all the transaction failures into one message.
func (b Block) validateTransactions(args ValidateArgs) validation.Validation {
	var fees []Transaction
	for _, tx := range b.Transactions {
		if tx.Type == TxTypeFee {
			fees = append(fees, tx)
		}
	}

	switch {
	case len(fees) == 0:
		return validation.Fail("No fee Transaction")
	case len(fees) > 1:
		return validation.Fail("Invalid number of fees")
	}

	var paysMiner bool
	for _, txo := range fees[0].Outputs {
		if txo.ToAddress == b.Miner {
			paysMiner = true
			break
		}
	}
	if !paysMiner {
		return validation.Fail("Invalid fee tx: invalid Miner address")
	}

	totalFees := args.FeePerTx * int64(len(b.Transactions)-len(fees))

	var errs []string
	for _, tx := range b.Transactions {
		if v := tx.Validate(args.Difficulty, totalFees); !v.Success {
			errs = append(errs, v.Message)
		}
	}

	if len(errs) > 0 {
		return validation.Fail("Invalid block due to invalid transaction: " + strings.Join(errs, ", "))
	}

	return validation.Ok()
}

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty int, hash string) bool {
	if difficulty < 0 {
		difficulty = 0
	}

	return strings.HasPrefix(hash, strings.Repeat("0", difficulty))
}

func cloneTxs(txs []Transaction) []Transaction {
	cpy := make([]Transaction, len(txs))
	for i, tx := range txs {
		cpy[i] = tx.Clone()
	}
	return cpy
}

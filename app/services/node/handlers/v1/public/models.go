package public

import (
	"github.com/ledgerforge/utxochain/business/sys/validate"
	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
)

// newTx is what a wallet submits. The hash is required so a payload that
// never went through the transaction constructor is not processed.
type newTx struct {
	Type      database.TxType     `json:"type"`
	Timestamp int64               `json:"timestamp"`
	Hash      string              `json:"hash" validate:"required"`
	Inputs    []database.TxInput  `json:"txInputs"`
	Outputs   []database.TxOutput `json:"txOutputs"`
}

// Validate checks the data in the model is considered clean.
func (tx newTx) Validate() error {
	return validate.Check(tx)
}

func (tx newTx) toDB() database.Transaction {
	return database.Transaction{
		Type:      tx.Type,
		Timestamp: tx.Timestamp,
		Hash:      tx.Hash,
		Inputs:    tx.Inputs,
		Outputs:   tx.Outputs,
	}
}

// newBlock is what a miner submits.
type newBlock struct {
	Index        int64                  `json:"index"`
	Timestamp    int64                  `json:"timestamp"`
	PreviousHash string                 `json:"previousHash"`
	Transactions []database.Transaction `json:"transactions"`
	Nonce        int64                  `json:"nonce"`
	Miner        string                 `json:"miner"`
	Hash         string                 `json:"hash" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (b newBlock) Validate() error {
	return validate.Check(b)
}

func (b newBlock) toDB() database.Block {
	return database.Block{
		Index:        b.Index,
		Timestamp:    b.Timestamp,
		PreviousHash: b.PreviousHash,
		Transactions: b.Transactions,
		Nonce:        b.Nonce,
		Miner:        b.Miner,
		Hash:         b.Hash,
	}
}

// wallet is what the node knows about an address.
type wallet struct {
	Balance int64               `json:"balance"`
	Fee     int64               `json:"fee"`
	UTXO    []database.TxOutput `json:"utxo"`
	Name    string              `json:"name,omitempty"`
}

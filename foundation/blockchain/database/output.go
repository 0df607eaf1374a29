package database

import (
	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// TxOutput represents a spendable amount of value owned by an address. The
// TxHash is filled in by the owning transaction once its own hash is known.
type TxOutput struct {
	ToAddress string `json:"toAddress"`
	Amount    int64  `json:"amount"`
	TxHash    string `json:"txHash"`
}

// NewTxOutput constructs an output that is not yet bound to a transaction.
func NewTxOutput(toAddress string, amount int64) TxOutput {
	return TxOutput{
		ToAddress: toAddress,
		Amount:    amount,
	}
}

// Hash returns the fingerprint of the output. The TxHash is not part of it.
func (txo TxOutput) Hash() string {
	return signature.Hash(txo.ToAddress, txo.Amount)
}

// Validate checks the output carries a spendable amount. Ownership is only
// proven later by the input that spends it.
func (txo TxOutput) Validate() validation.Validation {
	if txo.Amount < 1 {
		return validation.Fail("Invalid amount")
	}

	return validation.Ok()
}

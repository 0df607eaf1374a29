package database

import (
	"fmt"

	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// TxInput represents a claim on a prior output. The signature must be produced
// by the private key behind FromAddress.
type TxInput struct {
	PreviousTxHash string `json:"previousTxHash"`
	FromAddress    string `json:"fromAddress"`
	Amount         int64  `json:"amount"`
	Signature      string `json:"signature"`
}

// FromTxo constructs an unsigned input that spends the specified output. The
// caller must sign the input with the key of the output's owner.
func FromTxo(txo TxOutput) TxInput {
	return TxInput{
		PreviousTxHash: txo.TxHash,
		FromAddress:    txo.ToAddress,
		Amount:         txo.Amount,
	}
}

// Hash returns the hash that is signed. The signature is not part of it.
func (txi TxInput) Hash() string {
	return signature.Hash(txi.PreviousTxHash, txi.FromAddress, txi.Amount)
}

// Sign uses the specified hex private key to sign the input. Pointer
// semantics are being used since the signature is being set.
func (txi *TxInput) Sign(privateKey string) error {
	sig, err := signature.Sign(txi.Hash(), privateKey)
	if err != nil {
		return fmt.Errorf("signing input: %w", err)
	}

	txi.Signature = sig
	return nil
}

// Validate checks the input has the required fields and a signature that
// matches the from address. The first failing check is reported.
func (txi TxInput) Validate() validation.Validation {
	switch {
	case txi.PreviousTxHash == "":
		return validation.Fail("Previous TX is required")
	case txi.Signature == "":
		return validation.Fail("Signature is required")
	case txi.FromAddress == "":
		return validation.Fail("From Address is required")
	case txi.Amount < 1:
		return validation.Fail("Amount must be greater than zero")
	}

	if !signature.Verify(txi.FromAddress, txi.Hash(), txi.Signature) {
		return validation.Fail("Invalid Transaction Input Signature")
	}

	return validation.Ok()
}

// String implements the fmt.Stringer interface for logging.
func (txi TxInput) String() string {
	return fmt.Sprintf("%s:%s:%d", shortHash(txi.FromAddress), shortHash(txi.PreviousTxHash), txi.Amount)
}

package cmd

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestBuildTransfer(t *testing.T) {
	const key = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

	pk, err := crypto.HexToECDSA(key)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
	}
	from := signature.PublicKeyToAddress(pk.PublicKey)

	utxo := []database.TxOutput{
		{ToAddress: from, Amount: 30, TxHash: "a1"},
		{ToAddress: from, Amount: 50, TxHash: "b2"},
		{ToAddress: from, Amount: 70, TxHash: "c3"},
	}

	t.Log("Given the need to pay from unspent outputs.")
	{
		tx, err := buildTransfer(utxo, key, from, "receiver", 60)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the transfer: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to build the transfer.", success)

		if len(tx.Inputs) != 2 || tx.Inputs[0].PreviousTxHash != "a1" || tx.Inputs[1].PreviousTxHash != "b2" {
			t.Fatalf("\t%s\tShould spend the oldest outputs: %+v", failed, tx.Inputs)
		}
		t.Logf("\t%s\tShould spend the oldest outputs.", success)

		if len(tx.Outputs) != 2 || tx.Outputs[0].Amount != 60 || tx.Outputs[1].Amount != 20 || tx.Outputs[1].ToAddress != from {
			t.Fatalf("\t%s\tShould send the change back: %+v", failed, tx.Outputs)
		}
		t.Logf("\t%s\tShould send the change back.", success)

		if v := tx.Validate(2, 0); !v.Success {
			t.Fatalf("\t%s\tShould build a valid transaction: %s", failed, v.Message)
		}
		t.Logf("\t%s\tShould build a valid transaction.", success)

		exact, err := buildTransfer(utxo, key, from, "receiver", 30)
		if err != nil || len(exact.Outputs) != 1 {
			t.Fatalf("\t%s\tShould not add change for an exact amount: %v", failed, err)
		}
		t.Logf("\t%s\tShould not add change for an exact amount.", success)

		if _, err := buildTransfer(utxo, key, from, "receiver", 151); err == nil {
			t.Fatalf("\t%s\tShould refuse to spend more than the balance.", failed)
		}
		t.Logf("\t%s\tShould refuse to spend more than the balance.", success)

		if _, err := buildTransfer(utxo, key, from, "receiver", 0); err == nil {
			t.Fatalf("\t%s\tShould refuse a zero amount.", failed)
		}
		t.Logf("\t%s\tShould refuse a zero amount.", success)

		huge := []database.TxOutput{
			{ToAddress: from, Amount: math.MaxInt64, TxHash: "d4"},
			{ToAddress: from, Amount: math.MaxInt64, TxHash: "e5"},
		}
		if _, err := buildTransfer(huge, key, from, "receiver", math.MaxInt64); err != nil {
			t.Fatalf("\t%s\tShould spend a single maximum output: %s", failed, err)
		}
		if _, err := buildTransfer(append(utxo[:1:1], huge...), key, from, "receiver", math.MaxInt64); err == nil {
			t.Fatalf("\t%s\tShould refuse outputs that overflow.", failed)
		}
		t.Logf("\t%s\tShould refuse outputs that overflow.", success)
	}
}

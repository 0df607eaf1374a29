package cmd

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerforge/utxochain/foundation/blockchain/client"
	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount int64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the receiving wallet.")
	sendCmd.Flags().Int64VarP(&amount, "amount", "a", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	if !signature.IsAddress(to) {
		return fmt.Errorf("invalid receiving address %q", to)
	}

	from := signature.PublicKeyToAddress(privateKey.PublicKey)
	cln := client.New(url, timeout)

	wallet, err := cln.Wallet(cmd.Context(), from)
	if err != nil {
		return err
	}

	tx, err := buildTransfer(wallet.UTXO, signature.PrivateKeyToHex(privateKey), from, to, amount)
	if err != nil {
		return err
	}

	v, err := cln.SubmitTransaction(cmd.Context(), tx)
	if err != nil {
		return err
	}

	if !v.Success {
		return errors.New(v.Message)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Transaction sent:", v.Message)

	return nil
}

// buildTransfer spends the oldest unspent outputs needed to cover the amount.
// Every selected output is spent in full so what is not sent to the receiver
// goes back to the sender as change.
func buildTransfer(utxo []database.TxOutput, privateKey string, from string, to string, amount int64) (database.Transaction, error) {
	if amount < 1 {
		return database.Transaction{}, errors.New("amount must be greater than zero")
	}

	var inputs []database.TxInput
	var total int64

	for _, txo := range utxo {
		if total >= amount {
			break
		}

		txi := database.FromTxo(txo)
		if err := txi.Sign(privateKey); err != nil {
			return database.Transaction{}, err
		}

		sum, ok := database.AddAmounts(total, txo.Amount)
		if !ok {
			return database.Transaction{}, errors.New("unspent outputs overflow")
		}

		inputs = append(inputs, txi)
		total = sum
	}

	if total < amount {
		return database.Transaction{}, fmt.Errorf("insufficient balance: have %d, need %d", total, amount)
	}

	outputs := []database.TxOutput{database.NewTxOutput(to, amount)}
	if change := total - amount; change > 0 {
		outputs = append(outputs, database.NewTxOutput(from, change))
	}

	return database.NewTx(inputs, outputs)
}

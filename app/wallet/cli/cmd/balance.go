package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerforge/utxochain/foundation/blockchain/client"
	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	address := signature.PublicKeyToAddress(privateKey.PublicKey)
	fmt.Fprintln(cmd.OutOrStdout(), "For Wallet:", address)

	wallet, err := client.New(url, timeout).Wallet(cmd.Context(), address)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Balance:", wallet.Balance)
	fmt.Fprintln(cmd.OutOrStdout(), "Unspent outputs:", len(wallet.UTXO))
	fmt.Fprintln(cmd.OutOrStdout(), "Fee per transaction:", wallet.Fee)

	return nil
}

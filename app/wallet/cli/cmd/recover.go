package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var privateKeyHex string

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Store an existing private key as a wallet",
	RunE:  recoverRun,
}

func init() {
	rootCmd.AddCommand(recoverCmd)
	recoverCmd.Flags().StringVarP(&privateKeyHex, "private-key", "k", "", "Hex encoded private key.")
	recoverCmd.MarkFlagRequired("private-key")
}

func recoverRun(cmd *cobra.Command, args []string) error {
	privateKey, err := signature.ToPrivateKey(privateKeyHex)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(walletPath, 0o700); err != nil {
		return err
	}

	path := getPrivateKeyPath()
	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Wallet recovered:", path)
	fmt.Fprintln(cmd.OutOrStdout(), "Address:", signature.PublicKeyToAddress(privateKey.PublicKey))

	return nil
}

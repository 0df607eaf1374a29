package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(walletPath, 0o700); err != nil {
		return err
	}

	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("wallet %s already exists", path)
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Wallet created:", path)
	fmt.Fprintln(cmd.OutOrStdout(), "Address:", signature.PublicKeyToAddress(privateKey.PublicKey))
	fmt.Fprintln(cmd.OutOrStdout(), "Private key:", hexutil.Encode(crypto.FromECDSA(privateKey)))

	return nil
}

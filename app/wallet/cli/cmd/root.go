// Package cmd contains wallet app
package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledgerforge/utxochain/foundation/nameservice"
	"github.com/spf13/cobra"
)

var (
	walletName string
	walletPath string
	url        string
	timeout    time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&walletName, "wallet", "w", "private", "Name of the wallet key file.")
	rootCmd.PersistentFlags().StringVarP(&walletPath, "wallet-path", "p", "zblock/wallets/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:3000", "Url of the node.")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for calls to the node.")
}

var rootCmd = &cobra.Command{
	Use:          "wallet",
	Short:        "Simple wallet for the utxo ledger",
	SilenceUsage: true,
}

// Execute runs the wallet command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := walletName
	if !strings.HasSuffix(name, nameservice.KeyExt) {
		name += nameservice.KeyExt
	}

	return filepath.Join(walletPath, name)
}

package main

import "github.com/ledgerforge/utxochain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}

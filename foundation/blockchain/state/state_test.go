package state_test

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ledgerforge/utxochain/foundation/blockchain/database"
	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/ledgerforge/utxochain/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	minerKey = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
	otherKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	thirdKey = "aed31b6b5a1a4a28b8e6b34f6d0ed0e14c2e2a5b1f5a0cdb6c5e28b8f3e2a9c1"
)

type wallet struct {
	key     string
	address string
}

func newWallet(t *testing.T, key string) wallet {
	pk, err := crypto.HexToECDSA(key)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
	}

	return wallet{
		key:     key,
		address: signature.PublicKeyToAddress(pk.PublicKey),
	}
}

func newState(t *testing.T, miner wallet) *state.State {
	s, err := state.New(state.Config{
		MinerAddress: miner.address,
		EvHandler:    func(v string, args ...any) { t.Logf(v, args...) },
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the chain: %s", failed, err)
	}

	return s
}

// spend builds a signed transaction spending the output to the specified
// payments, with the remainder sent back to the owner as change.
func spend(t *testing.T, from wallet, txo database.TxOutput, payments map[string]int64) database.Transaction {
	txi := database.FromTxo(txo)
	if err := txi.Sign(from.key); err != nil {
		t.Fatalf("\t%s\tShould be able to sign the input: %s", failed, err)
	}

	var outs []database.TxOutput
	remaining := txo.Amount
	for to, amount := range payments {
		outs = append(outs, database.NewTxOutput(to, amount))
		remaining -= amount
	}
	if remaining > 0 {
		outs = append(outs, database.NewTxOutput(from.address, remaining))
	}

	tx, err := database.NewTx([]database.TxInput{txi}, outs)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build the transaction: %s", failed, err)
	}

	return tx
}

// mineNext mines the next block for the miner and appends it to the chain.
func mineNext(t *testing.T, s *state.State, miner wallet) database.Block {
	info, exists := s.NextBlockInfo()
	if !exists {
		t.Fatalf("\t%s\tShould have a next block to mine.", failed)
	}

	block := info.BuildBlock(miner.address)
	if err := block.Mine(context.Background(), info.Difficulty, miner.address); err != nil {
		t.Fatalf("\t%s\tShould be able to mine the block: %s", failed, err)
	}

	if v := s.AddBlock(block); !v.Success {
		t.Fatalf("\t%s\tShould be able to add the mined block: %s", failed, v.Message)
	}

	return block
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	miner := newWallet(t, minerKey)
	other := newWallet(t, otherKey)

	t.Log("Given the need to start a new chain.")
	{
		s := newState(t, miner)

		if n := s.QueryBlockCount(); n != 1 {
			t.Fatalf("\t%s\tShould have the genesis block: got %d blocks.", failed, n)
		}
		t.Logf("\t%s\tShould have the genesis block.", success)

		genesis := s.RetrieveLatestBlock()
		if genesis.Index != 0 || !strings.HasPrefix(genesis.Hash, "0") || genesis.Miner != miner.address {
			t.Fatalf("\t%s\tShould have mined the genesis block: %+v", failed, genesis)
		}
		t.Logf("\t%s\tShould have mined the genesis block.", success)

		if v := s.ValidateChain(); !v.Success {
			t.Fatalf("\t%s\tShould be a valid chain: %s", failed, v.Message)
		}
		t.Logf("\t%s\tShould be a valid chain.", success)

		exp := database.RewardAmount(1)
		if got := s.QueryBalance(miner.address); got != exp || got <= 0 {
			t.Logf("\t\tgot: %d", got)
			t.Logf("\t\texp: %d", exp)
			t.Fatalf("\t%s\tShould pay the genesis reward to the miner.", failed)
		}
		t.Logf("\t%s\tShould pay the genesis reward to the miner.", success)

		if got := s.QueryBalance(other.address); got != 0 {
			t.Fatalf("\t%s\tShould have no balance for other wallets: got %d", failed, got)
		}
		t.Logf("\t%s\tShould have no balance for other wallets.", success)

		if d := s.Difficulty(); d != 2 {
			t.Fatalf("\t%s\tShould have a difficulty of 2 after genesis: got %d", failed, d)
		}
		t.Logf("\t%s\tShould have a difficulty of 2 after genesis.", success)

		if _, exists := s.NextBlockInfo(); exists {
			t.Fatalf("\t%s\tShould not have a next block with an empty mempool.", failed)
		}
		t.Logf("\t%s\tShould not have a next block with an empty mempool.", success)
	}
}

func Test_MineAndValidate(t *testing.T) {
	miner := newWallet(t, minerKey)
	other := newWallet(t, otherKey)
	third := newWallet(t, thirdKey)

	t.Log("Given the need to move value through a mined block.")
	{
		s := newState(t, miner)
		utxo := s.QueryUTXO(miner.address)

		tx := spend(t, miner, utxo[0], map[string]int64{other.address: 100})
		v := s.AddTransaction(tx)
		if !v.Success || v.Message != tx.Hash {
			t.Fatalf("\t%s\tShould accept the transaction: %s", failed, v.Message)
		}
		t.Logf("\t%s\tShould accept the transaction.", success)

		second := spend(t, miner, utxo[0], map[string]int64{third.address: 10})
		v = s.AddTransaction(second)
		if v.Success || !strings.Contains(v.Message, "already has a pending transaction") {
			t.Fatalf("\t%s\tShould reject a second pending transaction: %s", failed, v.Message)
		}
		t.Logf("\t%s\tShould reject a second pending transaction.", success)

		search := s.QueryTransaction(tx.Hash)
		if search.MempoolIndex != 0 || search.BlockIndex != -1 {
			t.Fatalf("\t%s\tShould find the transaction in the mempool: %+v", failed, search)
		}
		t.Logf("\t%s\tShould find the transaction in the mempool.", success)

		info, _ := s.NextBlockInfo()
		if info.Index != 1 || info.FeePerTx != state.FeePerTx || info.MaxDifficulty != state.MaxDifficulty || len(info.Transactions) != 1 {
			t.Fatalf("\t%s\tShould describe the next block: %+v", failed, info)
		}
		t.Logf("\t%s\tShould describe the next block.", success)

		block := mineNext(t, s, third)
		t.Logf("\t%s\tShould add the mined block.", success)

		if s.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould empty the mempool of mined transactions.", failed)
		}
		t.Logf("\t%s\tShould empty the mempool of mined transactions.", success)

		if v := s.ValidateChain(); !v.Success {
			t.Fatalf("\t%s\tShould be a valid chain: %s", failed, v.Message)
		}
		t.Logf("\t%s\tShould be a valid chain.", success)

		search = s.QueryTransaction(tx.Hash)
		if search.MempoolIndex != -1 || search.BlockIndex != 1 {
			t.Fatalf("\t%s\tShould find the transaction in the block: %+v", failed, search)
		}
		t.Logf("\t%s\tShould find the transaction in the block.", success)

		if b, found := s.QueryBlockByHash(block.Hash); !found || b.Index != 1 {
			t.Fatalf("\t%s\tShould find the block by hash.", failed)
		}
		t.Logf("\t%s\tShould find the block by hash.", success)

		balances := []struct {
			name    string
			address string
			exp     int64
		}{
			{"sender", miner.address, database.RewardAmount(1) - 100},
			{"receiver", other.address, 100},
			{"miner", third.address, database.RewardAmount(2) + state.FeePerTx},
		}
		for _, b := range balances {
			if got := s.QueryBalance(b.address); got != b.exp {
				t.Fatalf("\t%s\tShould have the right %s balance: got %d, exp %d", failed, b.name, got, b.exp)
			}
			t.Logf("\t%s\tShould have the right %s balance.", success, b.name)
		}

		v = s.AddTransaction(tx)
		if v.Success || v.Message != "Sender wallet does not have enough balance (UTXO)" {
			t.Fatalf("\t%s\tShould not accept a spent output again: %s", failed, v.Message)
		}
		t.Logf("\t%s\tShould not accept a spent output again.", success)

		s.TamperBlock(1, func(block *database.Block) {
			block.Transactions[0].Outputs[0].Amount++
		})

		v = s.ValidateChain()
		if v.Success || !strings.HasPrefix(v.Message, "Invalid block #1") {
			t.Fatalf("\t%s\tShould detect a tampered block: %s", failed, v.Message)
		}
		t.Logf("\t%s\tShould detect a tampered block.", success)
	}
}

func Test_AddTransactionRules(t *testing.T) {
	miner := newWallet(t, minerKey)
	other := newWallet(t, otherKey)

	t.Log("Given the need to enforce the admission rules.")
	{
		s := newState(t, miner)
		genesisOut := s.QueryUTXO(miner.address)[0]

		t.Logf("\tTest 0:\tWhen an input claims more than the output holds.")
		{
			txi := database.FromTxo(genesisOut)
			txi.Amount = genesisOut.Amount + 1
			if err := txi.Sign(miner.key); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign: %s", failed, err)
			}
			tx, _ := database.NewTx([]database.TxInput{txi}, []database.TxOutput{database.NewTxOutput(other.address, txi.Amount)})

			v := s.AddTransaction(tx)
			if v.Success || v.Message != "Sender wallet does not have enough balance (UTXO)" {
				t.Fatalf("\t%s\tTest 0:\tShould reject the transaction: %s", failed, v.Message)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the transaction.", success)
		}

		t.Logf("\tTest 1:\tWhen an input claims less than the output holds.")
		{
			txi := database.FromTxo(genesisOut)
			txi.Amount = 50
			if err := txi.Sign(miner.key); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign: %s", failed, err)
			}
			tx, _ := database.NewTx([]database.TxInput{txi}, []database.TxOutput{database.NewTxOutput(other.address, 50)})

			v := s.AddTransaction(tx)
			if !v.Success {
				t.Fatalf("\t%s\tTest 1:\tShould accept the transaction: %s", failed, v.Message)
			}
			t.Logf("\t%s\tTest 1:\tShould accept the transaction.", success)
		}

		t.Logf("\tTest 2:\tWhen a fee transaction is submitted.")
		{
			fee := database.FromReward(database.NewTxOutput(other.address, 10))
			v := s.AddTransaction(fee)
			if v.Success {
				t.Fatalf("\t%s\tTest 2:\tShould reject a submitted fee transaction.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould reject a submitted fee transaction.", success)
		}

		t.Logf("\tTest 3:\tWhen the transaction hash is stale.")
		{
			s := newState(t, miner)
			tx := spend(t, miner, s.QueryUTXO(miner.address)[0], map[string]int64{other.address: 5})
			tx.Timestamp++

			v := s.AddTransaction(tx)
			if v.Success || v.Message != "Invalid transaction: Invalid hash" {
				t.Fatalf("\t%s\tTest 3:\tShould reject the transaction: %s", failed, v.Message)
			}
			t.Logf("\t%s\tTest 3:\tShould reject the transaction.", success)
		}

		t.Logf("\tTest 4:\tWhen the outputs only balance the inputs after wrapping around.")
		{
			s := newState(t, miner)
			txo := s.QueryUTXO(miner.address)[0]

			txi := database.FromTxo(txo)
			if err := txi.Sign(miner.key); err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to sign: %s", failed, err)
			}
			tx, err := database.NewTx([]database.TxInput{txi}, []database.TxOutput{
				database.NewTxOutput(other.address, math.MaxInt64),
				database.NewTxOutput(other.address, math.MaxInt64),
				database.NewTxOutput(miner.address, txo.Amount+2),
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to build the transaction: %s", failed, err)
			}

			v := s.AddTransaction(tx)
			if v.Success || v.Message != "Invalid transaction: Invalid tx: output amounts overflow" {
				t.Fatalf("\t%s\tTest 4:\tShould reject the transaction: %s", failed, v.Message)
			}
			t.Logf("\t%s\tTest 4:\tShould reject the transaction.", success)

			if _, exists := s.NextBlockInfo(); exists {
				t.Fatalf("\t%s\tTest 4:\tShould leave nothing to mine.", failed)
			}
			t.Logf("\t%s\tTest 4:\tShould leave nothing to mine.", success)

			utxo, balance := s.QueryWallet(miner.address)
			if len(utxo) != 1 || balance != database.RewardAmount(1) || s.QueryBalance(other.address) != 0 {
				t.Fatalf("\t%s\tTest 4:\tShould leave the balances untouched: %d", failed, balance)
			}
			t.Logf("\t%s\tTest 4:\tShould leave the balances untouched.", success)
		}
	}
}

func Test_AddBlockRules(t *testing.T) {
	miner := newWallet(t, minerKey)
	other := newWallet(t, otherKey)

	t.Log("Given the need to only accept blocks built from the mempool.")
	{
		s := newState(t, miner)
		genesisOut := s.QueryUTXO(miner.address)[0]

		t.Logf("\tTest 0:\tWhen there is nothing to mine.")
		{
			v := s.AddBlock(database.NewBlock(1, s.RetrieveLatestBlock().Hash, nil))
			if v.Success || v.Message != "There is no next block info" {
				t.Fatalf("\t%s\tTest 0:\tShould reject the block: %s", failed, v.Message)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the block.", success)
		}

		pending := spend(t, miner, genesisOut, map[string]int64{other.address: 10})
		if v := s.AddTransaction(pending); !v.Success {
			t.Fatalf("\t%s\tShould accept the transaction: %s", failed, v.Message)
		}

		t.Logf("\tTest 1:\tWhen the block carries a transaction that is not pending.")
		{
			foreign := spend(t, miner, genesisOut, map[string]int64{other.address: 20})

			info, _ := s.NextBlockInfo()
			info.Transactions = []database.Transaction{foreign}

			block := info.BuildBlock(other.address)
			if err := block.Mine(context.Background(), info.Difficulty, other.address); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to mine: %s", failed, err)
			}

			v := s.AddBlock(block)
			if v.Success || v.Message != "Invalid tx in block: mempool does not match" {
				t.Fatalf("\t%s\tTest 1:\tShould reject the block: %s", failed, v.Message)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the block.", success)
		}

		t.Logf("\tTest 2:\tWhen the block has the wrong index.")
		{
			info, _ := s.NextBlockInfo()
			info.Index = 5

			block := info.BuildBlock(other.address)
			if err := block.Mine(context.Background(), info.Difficulty, other.address); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to mine: %s", failed, err)
			}

			v := s.AddBlock(block)
			if v.Success || v.Message != "Invalid block: Invalid index" {
				t.Fatalf("\t%s\tTest 2:\tShould reject the block: %s", failed, v.Message)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the block.", success)
		}

		t.Logf("\tTest 3:\tWhen the block matches the mempool.")
		{
			mineNext(t, s, other)

			if s.QueryMempoolLength() != 0 || s.QueryBlockCount() != 2 {
				t.Fatalf("\t%s\tTest 3:\tShould append the block and empty the mempool.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould append the block and empty the mempool.", success)
		}
	}
}

func Test_UTXOMatchesSpentOutput(t *testing.T) {
	miner := newWallet(t, minerKey)
	other := newWallet(t, otherKey)
	third := newWallet(t, thirdKey)

	t.Log("Given two outputs of the same amount paid to the same wallet.")
	{
		s := newState(t, miner)

		// Block 1: the miner pays the other wallet 50, the third wallet mines.
		first := spend(t, miner, s.QueryUTXO(miner.address)[0], map[string]int64{other.address: 50})
		if v := s.AddTransaction(first); !v.Success {
			t.Fatalf("\t%s\tShould accept the first payment: %s", failed, v.Message)
		}
		mineNext(t, s, third)

		// Block 2: the third wallet pays the other wallet 50 from its reward.
		second := spend(t, third, s.QueryUTXO(third.address)[0], map[string]int64{other.address: 50})
		if v := s.AddTransaction(second); !v.Success {
			t.Fatalf("\t%s\tShould accept the second payment: %s", failed, v.Message)
		}
		mineNext(t, s, miner)

		utxo := s.QueryUTXO(other.address)
		if len(utxo) != 2 {
			t.Fatalf("\t%s\tShould have two outputs: got %d", failed, len(utxo))
		}
		t.Logf("\t%s\tShould have two outputs.", success)

		// Block 3: the other wallet spends the output of the second payment.
		var spent database.TxOutput
		for _, txo := range utxo {
			if txo.TxHash == second.Hash {
				spent = txo
			}
		}
		payback := spend(t, other, spent, map[string]int64{miner.address: 50})
		if v := s.AddTransaction(payback); !v.Success {
			t.Fatalf("\t%s\tShould accept the spend: %s", failed, v.Message)
		}
		mineNext(t, s, miner)

		utxo = s.QueryUTXO(other.address)
		if len(utxo) != 1 || utxo[0].TxHash != first.Hash {
			t.Fatalf("\t%s\tShould keep the output that was not spent: %+v", failed, utxo)
		}
		t.Logf("\t%s\tShould keep the output that was not spent.", success)

		if v := s.ValidateChain(); !v.Success {
			t.Fatalf("\t%s\tShould be a valid chain: %s", failed, v.Message)
		}
		t.Logf("\t%s\tShould be a valid chain.", success)
	}
}

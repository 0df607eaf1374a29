package database

// NextBlockInfo represents everything a miner needs to assemble and mine the
// next block of the chain.
type NextBlockInfo struct {
	Index         int64         `json:"index"`
	PreviousHash  string        `json:"previousHash"`
	Difficulty    int           `json:"difficulty"`
	MaxDifficulty int           `json:"maxDifficulty"`
	FeePerTx      int64         `json:"feePerTx"`
	Transactions  []Transaction `json:"transactions"`
}

// TotalFees returns the fees the miner collects for the pending transactions.
func (nbi NextBlockInfo) TotalFees() int64 {
	return nbi.FeePerTx * int64(len(nbi.Transactions))
}

// Reward returns the most a FEE transaction can claim for this block.
func (nbi NextBlockInfo) Reward() int64 {
	return RewardAmount(nbi.Difficulty) + nbi.TotalFees()
}

// Worthwhile reports whether mining this block is still incentivized.
func (nbi NextBlockInfo) Worthwhile() bool {
	return nbi.Difficulty <= nbi.MaxDifficulty && RewardAmount(nbi.Difficulty) > 0
}

// BuildBlock constructs the unmined block for this descriptor with a FEE
// transaction paying the miner the full reward appended.
func (nbi NextBlockInfo) BuildBlock(miner string) Block {
	block := FromNextBlockInfo(nbi)

	fee := FromReward(NewTxOutput(miner, nbi.Reward()))
	block.Transactions = append(block.Transactions, fee)
	block.Hash = block.CalcHash()

	return block
}

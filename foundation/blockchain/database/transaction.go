package database

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ledgerforge/utxochain/foundation/blockchain/signature"
	"github.com/ledgerforge/utxochain/foundation/blockchain/validation"
)

// TxType identifies the shape of a transaction.
type TxType string

// Set of transaction types. A REGULAR transaction moves value from inputs to
// outputs. A FEE transaction has no inputs and creates the miner's reward.
const (
	TxTypeRegular TxType = "REGULAR"
	TxTypeFee     TxType = "FEE"
)

// maxRewardDifficulty is where the reward formula reaches zero.
const maxRewardDifficulty = 64

// RewardAmount returns the value a miner can claim for a block mined at the
// specified difficulty, before transaction fees are added.
func RewardAmount(difficulty int) int64 {
	return int64(maxRewardDifficulty-difficulty) * 10
}

// AddAmounts returns the sum of the amounts. The bool is false when the sum
// does not fit in an int64.
func AddAmounts(amounts ...int64) (int64, bool) {
	var sum int64
	for _, amount := range amounts {
		if (amount > 0 && sum > math.MaxInt64-amount) || (amount < 0 && sum < math.MinInt64-amount) {
			return 0, false
		}
		sum += amount
	}

	return sum, true
}

// =============================================================================

// Transaction represents a set of inputs and outputs recorded in a block.
// Construct them with NewTx or FromReward so the hash and the output
// references are kept in sync.
type Transaction struct {
	Type      TxType     `json:"type"`
	Timestamp int64      `json:"timestamp"` // Unix milliseconds.
	Hash      string     `json:"hash"`
	Inputs    []TxInput  `json:"txInputs,omitempty"`
	Outputs   []TxOutput `json:"txOutputs"`
}

// NewTx constructs a REGULAR transaction. The inputs can be signed before or
// after this call, the input signatures are not part of the transaction hash.
func NewTx(inputs []TxInput, outputs []TxOutput) (Transaction, error) {
	if len(inputs) == 0 {
		return Transaction{}, errors.New("a regular transaction requires inputs")
	}
	if len(outputs) == 0 {
		return Transaction{}, errors.New("a regular transaction requires outputs")
	}

	tx := Transaction{
		Type:      TxTypeRegular,
		Timestamp: time.Now().UnixMilli(),
		Inputs:    append([]TxInput(nil), inputs...),
		Outputs:   append([]TxOutput(nil), outputs...),
	}
	tx.seal()

	return tx, nil
}

// FromReward constructs a FEE transaction paying the specified output.
func FromReward(txo TxOutput) Transaction {
	tx := Transaction{
		Type:      TxTypeFee,
		Timestamp: time.Now().UnixMilli(),
		Outputs:   []TxOutput{txo},
	}
	tx.seal()

	return tx
}

// CalcHash computes the content hash of the transaction. Changing any input
// or output changes the result.
func (tx Transaction) CalcHash() string {
	var ins strings.Builder
	for _, txi := range tx.Inputs {
		ins.WriteString(txi.Hash())
	}

	var outs strings.Builder
	for _, txo := range tx.Outputs {
		outs.WriteString(txo.Hash())
	}

	return signature.Hash(tx.Type, tx.Timestamp, ins.String(), outs.String())
}

// Fee returns what the inputs pay above the outputs. Transactions without
// inputs never pay a fee.
func (tx Transaction) Fee() int64 {
	if len(tx.Inputs) == 0 {
		return 0
	}

	in, ok := tx.inputSum()
	if !ok {
		return 0
	}

	out, ok := tx.outputSum()
	if !ok {
		return 0
	}

	return in - out
}

// Validate checks the transaction is internally consistent. The difficulty
// and totalFees bound how much a FEE transaction is allowed to claim.
func (tx Transaction) Validate(difficulty int, totalFees int64) validation.Validation {
	if tx.Timestamp < 1 {
		return validation.Fail("Invalid timestamp")
	}

	if tx.Hash != tx.CalcHash() {
		return validation.Fail("Invalid hash")
	}

	switch tx.Type {
	case TxTypeRegular:
		return tx.validateRegular()
	case TxTypeFee:
		return tx.validateFee(difficulty, totalFees)
	}

	return validation.Fail(fmt.Sprintf("Invalid tx type %q", tx.Type))
}

// Clone returns a deep copy of the transaction.
func (tx Transaction) Clone() Transaction {
	cpy := tx
	if tx.Inputs != nil {
		cpy.Inputs = append([]TxInput(nil), tx.Inputs...)
	}
	if tx.Outputs != nil {
		cpy.Outputs = append([]TxOutput(nil), tx.Outputs...)
	}

	return cpy
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s:%s", tx.Type, shortHash(tx.Hash))
}

// =============================================================================

func (tx Transaction) validateRegular() validation.Validation {
	if len(tx.Inputs) == 0 {
		return validation.Fail("Invalid tx: inputs are required")
	}

	for _, txi := range tx.Inputs {
		if v := txi.Validate(); !v.Success {
			return v
		}
	}

	if v := tx.validateOutputs(); !v.Success {
		return v
	}

	in, ok := tx.inputSum()
	if !ok {
		return validation.Fail("Invalid tx: input amounts overflow")
	}

	out, ok := tx.outputSum()
	if !ok {
		return validation.Fail("Invalid tx: output amounts overflow")
	}

	if in != out {
		return validation.Fail("Invalid tx: input amounts must be equal to output amounts")
	}

	return tx.validateReferences()
}

func (tx Transaction) validateFee(difficulty int, totalFees int64) validation.Validation {
	if len(tx.Inputs) > 0 {
		return validation.Fail("Invalid fee tx: inputs are not allowed")
	}

	if len(tx.Outputs) != 1 {
		return validation.Fail("Invalid fee tx: exactly one output is required")
	}

	if v := tx.validateOutputs(); !v.Success {
		return v
	}

	if v := tx.validateReferences(); !v.Success {
		return v
	}

	limit, ok := AddAmounts(RewardAmount(difficulty), totalFees)
	if !ok {
		limit = math.MaxInt64
	}

	if tx.Outputs[0].Amount > limit {
		return validation.Fail("Invalid tx reward")
	}

	return validation.Ok()
}

func (tx Transaction) validateOutputs() validation.Validation {
	if len(tx.Outputs) == 0 {
		return validation.Fail("Invalid TXO: outputs are required")
	}

	for _, txo := range tx.Outputs {
		if v := txo.Validate(); !v.Success {
			return validation.Fail("Invalid TXO: " + v.Message)
		}
	}

	return validation.Ok()
}

// validateReferences checks every output is bound to this transaction.
func (tx Transaction) validateReferences() validation.Validation {
	for _, txo := range tx.Outputs {
		if txo.TxHash != tx.Hash {
			return validation.Fail("Invalid TXO reference hash")
		}
	}

	return validation.Ok()
}

// seal computes the hash and binds every output to it.
func (tx *Transaction) seal() {
	tx.Hash = tx.CalcHash()
	for i := range tx.Outputs {
		tx.Outputs[i].TxHash = tx.Hash
	}
}

func (tx Transaction) inputSum() (int64, bool) {
	amounts := make([]int64, len(tx.Inputs))
	for i, txi := range tx.Inputs {
		amounts[i] = txi.Amount
	}
	return AddAmounts(amounts...)
}

func (tx Transaction) outputSum() (int64, bool) {
	amounts := make([]int64, len(tx.Outputs))
	for i, txo := range tx.Outputs {
		amounts[i] = txo.Amount
	}
	return AddAmounts(amounts...)
}

// shortHash trims a hash or address for log lines.
func shortHash(s string) string {
	const size = 8
	if len(s) <= size {
		return s
	}
	return s[:size]
}

package classify

import (
	"github.com/chainbooks/chainbooks/internal/wallet"
)

// gasFeeExpenseThresholdUSD marks outbound transactions whose gas spend
// suggests a protocol interaction rather than a plain transfer.
const gasFeeExpenseThresholdUSD = 10.0

// Classifier assigns accounting categories and income/expense flags to
// enriched transactions.
type Classifier struct{}

// NewClassifier creates a new Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify returns a new slice with every transaction classified. The
// input is not mutated.
func (c *Classifier) Classify(txs []wallet.Transaction) []wallet.Transaction {
	out := make([]wallet.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = c.classifyOne(tx)
	}
	return out
}

// classifyOne applies the category rules to a single transaction:
// inbound value from the zero address is mint-style income, outbound value
// with heavy gas is a protocol-fee expense, everything else is a transfer.
func (c *Classifier) classifyOne(tx wallet.Transaction) wallet.Transaction {
	tx.Category = wallet.CategoryTransfer
	tx.IncomeType = ""
	tx.ExpenseType = ""
	tx.IsIncome = false
	tx.IsExpense = false
	tx.IsTransfer = false
	tx.Treatment = wallet.TreatmentBalanceSheet

	switch {
	case tx.Direction == wallet.DirectionInbound && tx.ValueUSD > 0:
		if tx.FromAddress == wallet.NativeAssetContract {
			tx.IncomeType = wallet.IncomeMiningReward
			tx.IsIncome = true
			tx.Category = wallet.CategoryIncome
			tx.Treatment = wallet.TreatmentIncome
		} else {
			tx.IsTransfer = true
		}

	case tx.Direction == wallet.DirectionOutbound && tx.ValueUSD > 0:
		tx.IsTransfer = true
		if tx.GasFeeUSD > gasFeeExpenseThresholdUSD {
			tx.ExpenseType = wallet.ExpenseProtocolFee
			tx.IsExpense = true
			tx.Category = wallet.CategoryDefiInteraction
			tx.Treatment = wallet.TreatmentExpense
		}
	}

	return tx
}

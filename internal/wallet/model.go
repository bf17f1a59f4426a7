package wallet

import (
	"math"
	"time"
)

// NativeAssetContract is the sentinel contract address used for the chain's
// native asset (ETH) in place of a real token contract.
const NativeAssetContract = "0x0000000000000000000000000000000000000000"

// Direction describes a transaction's direction relative to the analyzed wallet.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
	DirectionInternal Direction = "internal"
)

// Category is the accounting category assigned by the classifier.
type Category string

const (
	CategoryTransfer        Category = "transfer"
	CategoryTrade           Category = "trade"
	CategoryIncome          Category = "income"
	CategoryDefiDeposit     Category = "defi_deposit"
	CategoryDefiWithdrawal  Category = "defi_withdrawal"
	CategoryDefiInteraction Category = "defi_interaction"
)

// IncomeType labels income-flagged transactions for reporting.
type IncomeType string

const (
	IncomeMiningReward IncomeType = "mining_reward"
	IncomeAirdrop      IncomeType = "airdrop"
	IncomeStaking      IncomeType = "staking_reward"
)

// ExpenseType labels expense-flagged transactions for reporting.
type ExpenseType string

const (
	ExpenseProtocolFee ExpenseType = "protocol_fee"
	ExpenseGas         ExpenseType = "gas"
)

// Treatment is the accounting treatment bucket for a classified transaction.
type Treatment string

const (
	TreatmentBalanceSheet Treatment = "balance_sheet"
	TreatmentIncome       Treatment = "income"
	TreatmentExpense      Treatment = "expense"
)

// Transaction is a single normalized wallet transaction, merged from the
// source gateways and enriched with metadata, pricing and classification.
// Records are treated as immutable once classified; the cost-basis replay
// produces annotated copies rather than mutating them.
type Transaction struct {
	Hash          string `json:"hash"`
	Timestamp     int64  `json:"timestamp"`
	BlockNumber   int64  `json:"block_number"`
	Date          string `json:"date"`
	FromAddress   string `json:"from_address"`
	ToAddress     string `json:"to_address"`
	WalletAddress string `json:"wallet_address"`
	Source        string `json:"source"`
	Type          string `json:"transaction_type"`

	Direction Direction `json:"direction"`
	IsError   bool      `json:"is_error"`

	TokenContract string  `json:"token_contract"`
	TokenSymbol   string  `json:"token_symbol"`
	TokenName     string  `json:"token_name"`
	TokenDecimals int     `json:"token_decimals"`
	IsStablecoin  bool    `json:"is_stablecoin"`
	Quantity      float64 `json:"quantity"`

	PriceUSD    float64 `json:"price_usd"`
	PriceSource string  `json:"price_source"`
	ValueUSD    float64 `json:"value_usd"`
	GasFeeETH   float64 `json:"gas_fee_eth"`
	GasFeeUSD   float64 `json:"gas_fee_usd"`

	Category    Category    `json:"transaction_category"`
	IncomeType  IncomeType  `json:"income_type,omitempty"`
	ExpenseType ExpenseType `json:"expense_type,omitempty"`
	IsIncome    bool        `json:"is_income"`
	IsExpense   bool        `json:"is_expense"`
	IsTransfer  bool        `json:"is_transfer"`
	Treatment   Treatment   `json:"accounting_treatment"`

	// Set by the cost-basis replay.
	RealizedGainLoss float64 `json:"realized_gain_loss"`
	CostBasisUSD     float64 `json:"cost_basis_usd"`
}

// HasQuantity reports whether the transaction carries a usable amount for
// lot processing. Zero and NaN quantities are skipped by the replay.
func (t *Transaction) HasQuantity() bool {
	return t.Quantity != 0 && !math.IsNaN(t.Quantity)
}

// DateOf formats a unix timestamp as a UTC calendar date (YYYY-MM-DD).
func DateOf(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

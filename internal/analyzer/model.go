package analyzer

import (
	"github.com/chainbooks/chainbooks/internal/costbasis"
	"github.com/chainbooks/chainbooks/internal/statements"
	"github.com/chainbooks/chainbooks/internal/wallet"
)

// Analysis is one completed analysis run for a wallet: the merged,
// enriched, classified and replay-annotated transaction set. The ledger is
// never stored with it; report reads rebuild it by replaying Transactions.
type Analysis struct {
	ID            string               `json:"id"`
	WalletAddress string               `json:"wallet_address"`
	Method        costbasis.Method     `json:"cost_basis_method"`
	AnalyzedAt    int64                `json:"analyzed_at"`
	Transactions  []wallet.Transaction `json:"transactions"`
}

// DateRange is the first and last transaction date of an analysis.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary is the headline view of an analyzed wallet.
type Summary struct {
	WalletAddress    string             `json:"wallet_address"`
	AnalyzedAt       int64              `json:"analysis_timestamp"`
	Method           costbasis.Method   `json:"cost_basis_method"`
	TransactionCount int                `json:"total_transactions"`
	DateRange        DateRange          `json:"date_range"`
	ByDirection      map[string]int     `json:"by_direction"`
	ByCategory       map[string]int     `json:"by_category"`
	UniqueTokens     int                `json:"unique_tokens"`
	TotalIncomeUSD   float64            `json:"total_income_usd"`
	IncomeByType     map[string]float64 `json:"income_by_type"`
	TotalExpensesUSD float64            `json:"total_expenses_usd"`
	TotalGasFeesUSD  float64            `json:"total_gas_fees_usd"`
	RealizedGains    float64            `json:"realized_gains"`
}

// FinancialStatements bundles the three period statements the reporting
// endpoint serves together.
type FinancialStatements struct {
	WalletAddress   string                        `json:"wallet_address"`
	StartDate       string                        `json:"start_date"`
	EndDate         string                        `json:"end_date"`
	IncomeStatement *statements.IncomeStatement   `json:"income_statement"`
	CashFlow        *statements.CashFlowStatement `json:"cash_flow_statement"`
	PeriodSummary   []statements.PeriodBucket     `json:"period_summary"`
}

// TransactionPage is one page of an analysis' transaction list.
type TransactionPage struct {
	WalletAddress string               `json:"wallet_address"`
	Total         int                  `json:"total"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
	Transactions  []wallet.Transaction `json:"transactions"`
}

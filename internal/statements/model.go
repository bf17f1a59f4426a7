package statements

// Asset is one balance-sheet line: remaining holdings of a single token
// valued at the most recent observed price.
type Asset struct {
	Asset              string  `json:"asset"`
	Contract           string  `json:"contract"`
	Quantity           float64 `json:"quantity"`
	CostBasisUSD       float64 `json:"cost_basis_usd"`
	PriceUSD           float64 `json:"price_usd"`
	ValueUSD           float64 `json:"value_usd"`
	UnrealizedGainLoss float64 `json:"unrealized_gain_loss"`
}

// BalanceSheet is a point-in-time snapshot of holdings. Liabilities are
// always zero (no debt modeling), so equity equals total assets.
type BalanceSheet struct {
	AsOfDate    string  `json:"as_of_date"`
	Assets      []Asset `json:"assets"`
	TotalAssets float64 `json:"total_assets"`
	Liabilities float64 `json:"liabilities"`
	Equity      float64 `json:"equity"`
}

// OperatingLine groups classified flows by type with their sum.
type OperatingLine struct {
	ByType map[string]float64 `json:"by_type"`
	Total  float64            `json:"total"`
}

// Revenues is the revenue side of an income statement.
type Revenues struct {
	OperatingIncome     OperatingLine `json:"operating_income"`
	RealizedGainsLosses float64       `json:"realized_gains_losses"`
	TotalRevenue        float64       `json:"total_revenue"`
}

// Expenses is the cost side of an income statement.
type Expenses struct {
	OperatingExpenses OperatingLine `json:"operating_expenses"`
	GasFees           float64       `json:"gas_fees"`
	TotalExpenses     float64       `json:"total_expenses"`
}

// IncomeStatement covers a date window, inclusive on both bounds.
type IncomeStatement struct {
	PeriodStart      string   `json:"period_start"`
	PeriodEnd        string   `json:"period_end"`
	Revenues         Revenues `json:"revenues"`
	Expenses         Expenses `json:"expenses"`
	NetIncome        float64  `json:"net_income"`
	TransactionCount int      `json:"transaction_count"`
}

// ActivityFlow is one cash-flow bucket (operating, investing or financing).
type ActivityFlow struct {
	Inflows  float64 `json:"inflows"`
	Outflows float64 `json:"outflows"`
	GasFees  float64 `json:"gas_fees,omitempty"`
	Net      float64 `json:"net"`
}

// CashFlowStatement splits period flows into the three standard activities.
type CashFlowStatement struct {
	PeriodStart         string       `json:"period_start"`
	PeriodEnd           string       `json:"period_end"`
	OperatingActivities ActivityFlow `json:"operating_activities"`
	InvestingActivities ActivityFlow `json:"investing_activities"`
	FinancingActivities ActivityFlow `json:"financing_activities"`
	NetChangeInCash     float64      `json:"net_change_in_cash"`
}

// PeriodBucket is one row of a period summary: the headline income-statement
// figures for a single calendar bucket.
type PeriodBucket struct {
	Period           string  `json:"period"`
	PeriodStart      string  `json:"period_start"`
	PeriodEnd        string  `json:"period_end"`
	TotalRevenue     float64 `json:"total_revenue"`
	TotalExpenses    float64 `json:"total_expenses"`
	NetIncome        float64 `json:"net_income"`
	TransactionCount int     `json:"transaction_count"`
}

package taxreport

import (
	"fmt"

	"github.com/chainbooks/chainbooks/internal/costbasis"
	"github.com/chainbooks/chainbooks/internal/wallet"
)

// Term classifies a disposal fragment by holding period.
type Term string

const (
	ShortTerm Term = "Short-term"
	LongTerm  Term = "Long-term"
)

// shortTermMaxDays is the inclusive upper bound of the short-term holding
// period: exactly 365 days is still short-term.
const shortTermMaxDays = 365.0

// TermTotals accumulates gains and losses for one term. Losses are stored
// as positive magnitudes.
type TermTotals struct {
	Gains  float64 `json:"gains"`
	Losses float64 `json:"losses"`
	Net    float64 `json:"net"`
}

// CapitalGainsSummary is the per-term breakdown for a tax year.
type CapitalGainsSummary struct {
	ShortTerm TermTotals `json:"short_term"`
	LongTerm  TermTotals `json:"long_term"`
	TotalNet  float64    `json:"total_net"`
}

// Form8949Entry is one per-fragment disposal line in the Form 8949 style.
type Form8949Entry struct {
	Description  string  `json:"description"`
	DateAcquired string  `json:"date_acquired"`
	DateSold     string  `json:"date_sold"`
	Proceeds     float64 `json:"proceeds"`
	CostBasis    float64 `json:"cost_basis"`
	GainLoss     float64 `json:"gain_loss"`
	Term         Term    `json:"term"`
	TxHash       string  `json:"tx_hash"`
}

// IncomeSummary aggregates income-flagged transactions within the year.
type IncomeSummary struct {
	ByType map[string]float64 `json:"by_type"`
	Total  float64            `json:"total"`
}

// Report is a complete tax report for one calendar year.
type Report struct {
	TaxYear             int                 `json:"tax_year"`
	CapitalGainsSummary CapitalGainsSummary `json:"capital_gains_summary"`
	IncomeSummary       IncomeSummary       `json:"income_summary"`
	Form8949Entries     []Form8949Entry     `json:"form_8949_entries"`
	TransactionCount    int                 `json:"transaction_count"`
}

// Builder derives tax reports from a replayed transaction set and the
// ledger's realized-gains log. Pure read side, no mutable state.
type Builder struct {
	txs    []wallet.Transaction
	ledger *costbasis.Ledger
}

// NewBuilder creates a tax report builder.
func NewBuilder(txs []wallet.Transaction, ledger *costbasis.Ledger) *Builder {
	return &Builder{txs: txs, ledger: ledger}
}

// Build walks every lot-usage fragment of every disposal within the
// calendar year, splits gains by holding-period term and emits one Form
// 8949 entry per fragment. Zero-cost-basis disposals carry no fragments
// and therefore contribute no entries.
func (b *Builder) Build(year int) *Report {
	startDate := fmt.Sprintf("%d-01-01", year)
	endDate := fmt.Sprintf("%d-12-31", year)

	summary := CapitalGainsSummary{}
	entries := []Form8949Entry{}

	for _, disposal := range b.ledger.RealizedGainsInRange(startDate, endDate) {
		for _, lot := range disposal.LotsUsed {
			gainLoss := lot.Proceeds - lot.CostBasis

			var term Term
			if lot.HoldingPeriodDays <= shortTermMaxDays {
				term = ShortTerm
				if gainLoss > 0 {
					summary.ShortTerm.Gains += gainLoss
				} else {
					summary.ShortTerm.Losses += -gainLoss
				}
			} else {
				term = LongTerm
				if gainLoss > 0 {
					summary.LongTerm.Gains += gainLoss
				} else {
					summary.LongTerm.Losses += -gainLoss
				}
			}

			entries = append(entries, Form8949Entry{
				Description:  fmt.Sprintf("%.6f %s", lot.Quantity, b.symbolFor(disposal.Token)),
				DateAcquired: lot.AcquisitionDate,
				DateSold:     disposal.DisposalDate,
				Proceeds:     lot.Proceeds,
				CostBasis:    lot.CostBasis,
				GainLoss:     gainLoss,
				Term:         term,
				TxHash:       disposal.SourceHash,
			})
		}
	}

	summary.ShortTerm.Net = summary.ShortTerm.Gains - summary.ShortTerm.Losses
	summary.LongTerm.Net = summary.LongTerm.Gains - summary.LongTerm.Losses
	summary.TotalNet = summary.ShortTerm.Net + summary.LongTerm.Net

	income := IncomeSummary{ByType: make(map[string]float64)}
	yearCount := 0
	for _, tx := range b.txs {
		if tx.Date < startDate || tx.Date > endDate {
			continue
		}
		yearCount++
		if tx.IsIncome {
			income.ByType[string(tx.IncomeType)] += tx.ValueUSD
			income.Total += tx.ValueUSD
		}
	}

	return &Report{
		TaxYear:             year,
		CapitalGainsSummary: summary,
		IncomeSummary:       income,
		Form8949Entries:     entries,
		TransactionCount:    yearCount,
	}
}

// symbolFor resolves a token contract to its symbol from the transaction
// set, degrading to UNKNOWN when no row names it.
func (b *Builder) symbolFor(token string) string {
	for _, tx := range b.txs {
		if tx.TokenContract == token && tx.TokenSymbol != "" {
			return tx.TokenSymbol
		}
	}
	return "UNKNOWN"
}

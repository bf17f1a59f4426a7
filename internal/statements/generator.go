package statements

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/chainbooks/chainbooks/internal/costbasis"
	"github.com/chainbooks/chainbooks/internal/wallet"
)

// Generator derives financial statements from a replayed transaction set
// and its ledger. All derivations are pure reads parameterized by a date or
// date window; the generator holds no state of its own beyond its inputs.
type Generator struct {
	txs    []wallet.Transaction
	ledger *costbasis.Ledger
}

// NewGenerator creates a statement generator over an already-replayed
// transaction set and the ledger that replay produced.
func NewGenerator(txs []wallet.Transaction, ledger *costbasis.Ledger) *Generator {
	return &Generator{txs: txs, ledger: ledger}
}

// BalanceSheet builds a point-in-time snapshot of holdings as of the given
// date. The snapshot is produced by replaying a fresh ledger over only the
// transactions at-or-before the as-of timestamp, so disposals after the
// date do not leak into it.
func (g *Generator) BalanceSheet(asOfDate string) (*BalanceSheet, error) {
	asOf, err := time.Parse(dateLayout, asOfDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse as-of date %q: %w", asOfDate, err)
	}
	asOfTs := asOf.Unix()

	var truncated []wallet.Transaction
	for _, tx := range g.txs {
		if tx.Timestamp <= asOfTs {
			truncated = append(truncated, tx)
		}
	}
	snapshot := costbasis.NewTracker(g.ledger.Method())
	snapshot.Replay(truncated)
	ledger := snapshot.Ledger()

	var assets []Asset
	totalAssets := 0.0
	for _, token := range ledger.Tokens() {
		totalQty := 0.0
		totalCost := 0.0
		for _, lot := range ledger.Lots(token) {
			totalQty += lot.Quantity
			totalCost += lot.TotalCost
		}
		if math.Abs(totalQty) < 1e-10 {
			continue
		}

		price, symbol := g.lastPriceAndSymbol(token, asOfTs)
		valueUSD := totalQty * price

		assets = append(assets, Asset{
			Asset:              symbol,
			Contract:           token,
			Quantity:           totalQty,
			CostBasisUSD:       totalCost,
			PriceUSD:           price,
			ValueUSD:           valueUSD,
			UnrealizedGainLoss: valueUSD - totalCost,
		})
		totalAssets += valueUSD
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return math.Abs(assets[i].ValueUSD) > math.Abs(assets[j].ValueUSD)
	})

	return &BalanceSheet{
		AsOfDate:    asOfDate,
		Assets:      assets,
		TotalAssets: totalAssets,
		Liabilities: 0,
		Equity:      totalAssets,
	}, nil
}

// lastPriceAndSymbol finds the most recent non-NaN observed price for a
// token at-or-before the cutoff, and the token's symbol. Missing prices
// degrade to zero.
func (g *Generator) lastPriceAndSymbol(token string, cutoff int64) (float64, string) {
	price := 0.0
	priceTs := int64(-1)
	symbol := "UNKNOWN"
	haveSymbol := false
	for _, tx := range g.txs {
		if tx.TokenContract != token || tx.Timestamp > cutoff {
			continue
		}
		if !haveSymbol && tx.TokenSymbol != "" {
			symbol = tx.TokenSymbol
			haveSymbol = true
		}
		if !math.IsNaN(tx.PriceUSD) && tx.Timestamp >= priceTs {
			price = tx.PriceUSD
			priceTs = tx.Timestamp
		}
	}
	return price, symbol
}

// IncomeStatement aggregates classified income, realized gains, classified
// expenses and gas fees over [startDate, endDate].
func (g *Generator) IncomeStatement(startDate, endDate string) (*IncomeStatement, error) {
	period, err := g.periodTxs(startDate, endDate)
	if err != nil {
		return nil, err
	}

	incomeByType := make(map[string]float64)
	expenseByType := make(map[string]float64)
	totalIncome := 0.0
	totalExpenses := 0.0
	totalGasFees := 0.0

	for _, tx := range period {
		if tx.IsIncome {
			incomeByType[string(tx.IncomeType)] += tx.ValueUSD
			totalIncome += tx.ValueUSD
		}
		if tx.IsExpense {
			expenseByType[string(tx.ExpenseType)] += tx.ValueUSD
			totalExpenses += tx.ValueUSD
		}
		totalGasFees += tx.GasFeeUSD
	}

	realizedGains := 0.0
	for _, d := range g.ledger.RealizedGainsInRange(startDate, endDate) {
		realizedGains += d.RealizedGainLoss
	}

	totalRevenue := totalIncome + realizedGains
	totalCosts := totalExpenses + totalGasFees

	return &IncomeStatement{
		PeriodStart: startDate,
		PeriodEnd:   endDate,
		Revenues: Revenues{
			OperatingIncome:     OperatingLine{ByType: incomeByType, Total: totalIncome},
			RealizedGainsLosses: realizedGains,
			TotalRevenue:        totalRevenue,
		},
		Expenses: Expenses{
			OperatingExpenses: OperatingLine{ByType: expenseByType, Total: totalExpenses},
			GasFees:           totalGasFees,
			TotalExpenses:     totalCosts,
		},
		NetIncome:        totalRevenue - totalCosts,
		TransactionCount: len(period),
	}, nil
}

// CashFlow buckets period transactions into operating, investing and
// financing activities.
func (g *Generator) CashFlow(startDate, endDate string) (*CashFlowStatement, error) {
	period, err := g.periodTxs(startDate, endDate)
	if err != nil {
		return nil, err
	}

	var operating, investing, financing ActivityFlow

	for _, tx := range period {
		if tx.IsIncome {
			operating.Inflows += tx.ValueUSD
		}
		if tx.IsExpense {
			operating.Outflows += tx.ValueUSD
		}
		operating.GasFees += tx.GasFeeUSD

		switch tx.Category {
		case wallet.CategoryTrade, wallet.CategoryDefiDeposit, wallet.CategoryDefiWithdrawal:
			if tx.Direction == wallet.DirectionInbound {
				investing.Inflows += tx.ValueUSD
			} else if tx.Direction == wallet.DirectionOutbound {
				investing.Outflows += tx.ValueUSD
			}
		case wallet.CategoryTransfer:
			if tx.Direction == wallet.DirectionInbound {
				financing.Inflows += tx.ValueUSD
			} else if tx.Direction == wallet.DirectionOutbound {
				financing.Outflows += tx.ValueUSD
			}
		}
	}

	operating.Net = operating.Inflows - operating.Outflows - operating.GasFees
	investing.Net = investing.Inflows - investing.Outflows
	financing.Net = financing.Inflows - financing.Outflows

	return &CashFlowStatement{
		PeriodStart:         startDate,
		PeriodEnd:           endDate,
		OperatingActivities: operating,
		InvestingActivities: investing,
		FinancingActivities: financing,
		NetChangeInCash:     operating.Net + investing.Net + financing.Net,
	}, nil
}

// PeriodSummary partitions [startDate, endDate] into consecutive calendar
// buckets of the given frequency and reports the headline income-statement
// figures per bucket.
func (g *Generator) PeriodSummary(startDate, endDate string, freq Frequency) ([]PeriodBucket, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start date %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end date %q: %w", endDate, err)
	}

	buckets := []PeriodBucket{}
	for _, pe := range periodEnds(start, end, freq) {
		ps := periodStart(pe, freq)

		stmt, err := g.IncomeStatement(ps.Format(dateLayout), pe.Format(dateLayout))
		if err != nil {
			return nil, err
		}

		buckets = append(buckets, PeriodBucket{
			Period:           label(pe, freq),
			PeriodStart:      ps.Format(dateLayout),
			PeriodEnd:        pe.Format(dateLayout),
			TotalRevenue:     stmt.Revenues.TotalRevenue,
			TotalExpenses:    stmt.Expenses.TotalExpenses,
			NetIncome:        stmt.NetIncome,
			TransactionCount: stmt.TransactionCount,
		})
	}
	return buckets, nil
}

// periodTxs returns the transactions whose timestamps fall inside the
// window spanned by the two dates (midnight UTC, inclusive).
func (g *Generator) periodTxs(startDate, endDate string) ([]wallet.Transaction, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start date %q: %w", startDate, err)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end date %q: %w", endDate, err)
	}
	startTs, endTs := start.Unix(), end.Unix()

	var out []wallet.Transaction
	for _, tx := range g.txs {
		if tx.Timestamp >= startTs && tx.Timestamp <= endTs {
			out = append(out, tx)
		}
	}
	return out, nil
}

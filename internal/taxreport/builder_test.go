package taxreport_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainbooks/chainbooks/internal/costbasis"
	"github.com/chainbooks/chainbooks/internal/taxreport"
	"github.com/chainbooks/chainbooks/internal/wallet"
)

const wethContract = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"

func ts(date string) int64 {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return t.Unix()
}

func wethTx(hash, date string) wallet.Transaction {
	return wallet.Transaction{
		Hash:          hash,
		Timestamp:     ts(date),
		Date:          date,
		TokenContract: wethContract,
		TokenSymbol:   "WETH",
	}
}

func TestBuilder_TermBoundaryAtExactly365Days(t *testing.T) {
	const day = int64(86400)
	acquired := ts("2023-01-01")

	ledger := costbasis.NewLedger(costbasis.FIFO)
	ledger.AddAcquisition(wethContract, 2, 200, acquired, "0xbuy")

	// Exactly 365 days is still short-term; a few seconds past is long-term.
	ledger.ProcessDisposal(wethContract, 1, 300, acquired+365*day, "0xshort")
	ledger.ProcessDisposal(wethContract, 1, 300, acquired+365*day+9, "0xlong")

	report := taxreport.NewBuilder([]wallet.Transaction{wethTx("0xbuy", "2023-01-01")}, ledger).Build(2024)

	require.Len(t, report.Form8949Entries, 2)
	assert.Equal(t, taxreport.ShortTerm, report.Form8949Entries[0].Term)
	assert.Equal(t, taxreport.LongTerm, report.Form8949Entries[1].Term)
	assert.InDelta(t, 200, report.CapitalGainsSummary.ShortTerm.Gains, 1e-9)
	assert.InDelta(t, 200, report.CapitalGainsSummary.LongTerm.Gains, 1e-9)
}

func TestBuilder_GainsAndLossesAccumulateByTerm(t *testing.T) {
	ledger := costbasis.NewLedger(costbasis.FIFO)
	ledger.AddAcquisition(wethContract, 1, 100, ts("2023-01-10"), "0xbuyA") // oldest, held long
	ledger.AddAcquisition(wethContract, 1, 500, ts("2024-01-10"), "0xbuyB")
	ledger.AddAcquisition(wethContract, 1, 100, ts("2024-02-10"), "0xbuyC")

	// Consumes buyA: long-term loss of 50.
	ledger.ProcessDisposal(wethContract, 1, 50, ts("2024-06-01"), "0xsell1")
	// Consumes buyB (short-term loss 200) and buyC (short-term gain 200).
	ledger.ProcessDisposal(wethContract, 2, 600, ts("2024-07-01"), "0xsell2")

	report := taxreport.NewBuilder(nil, ledger).Build(2024)

	s := report.CapitalGainsSummary
	assert.InDelta(t, 200, s.ShortTerm.Gains, 1e-9)
	assert.InDelta(t, 200, s.ShortTerm.Losses, 1e-9)
	assert.InDelta(t, 0, s.ShortTerm.Net, 1e-9)
	assert.InDelta(t, 0, s.LongTerm.Gains, 1e-9)
	assert.InDelta(t, 50, s.LongTerm.Losses, 1e-9)
	assert.InDelta(t, -50, s.LongTerm.Net, 1e-9)
	assert.InDelta(t, -50, s.TotalNet, 1e-9)
	assert.Len(t, report.Form8949Entries, 3)
}

func TestBuilder_RestrictsToCalendarYear(t *testing.T) {
	ledger := costbasis.NewLedger(costbasis.FIFO)
	ledger.AddAcquisition(wethContract, 3, 300, ts("2023-01-10"), "0xbuy")
	ledger.ProcessDisposal(wethContract, 1, 200, ts("2023-06-01"), "0xsell23")
	ledger.ProcessDisposal(wethContract, 1, 200, ts("2024-06-01"), "0xsell24")
	ledger.ProcessDisposal(wethContract, 1, 200, ts("2025-06-01"), "0xsell25")

	report := taxreport.NewBuilder(nil, ledger).Build(2024)

	require.Len(t, report.Form8949Entries, 1)
	assert.Equal(t, "0xsell24", report.Form8949Entries[0].TxHash)
	assert.Equal(t, "2023-01-10", report.Form8949Entries[0].DateAcquired)
	assert.Equal(t, "2024-06-01", report.Form8949Entries[0].DateSold)
}

func TestBuilder_ZeroCostBasisDisposalEmitsNoEntries(t *testing.T) {
	ledger := costbasis.NewLedger(costbasis.FIFO)
	ledger.ProcessDisposal(wethContract, 5, 500, ts("2024-06-01"), "0xsell")

	report := taxreport.NewBuilder(nil, ledger).Build(2024)

	// The untracked disposal is pure gain but has no lot fragments, so the
	// 8949 list and the term totals stay empty.
	assert.Empty(t, report.Form8949Entries)
	assert.Zero(t, report.CapitalGainsSummary.TotalNet)
}

func TestBuilder_EntryDescriptionAndSymbolFallback(t *testing.T) {
	ledger := costbasis.NewLedger(costbasis.FIFO)
	ledger.AddAcquisition(wethContract, 1.5, 150, ts("2024-01-10"), "0xbuy")
	ledger.ProcessDisposal(wethContract, 1.5, 300, ts("2024-06-01"), "0xsell")

	t.Run("symbol from transaction set", func(t *testing.T) {
		report := taxreport.NewBuilder([]wallet.Transaction{wethTx("0xbuy", "2024-01-10")}, ledger).Build(2024)
		require.Len(t, report.Form8949Entries, 1)
		assert.Equal(t, "1.500000 WETH", report.Form8949Entries[0].Description)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		report := taxreport.NewBuilder(nil, ledger).Build(2024)
		require.Len(t, report.Form8949Entries, 1)
		assert.Equal(t, "1.500000 UNKNOWN", report.Form8949Entries[0].Description)
	})
}

func TestBuilder_IncomeSummary(t *testing.T) {
	reward := wethTx("0xreward", "2024-03-01")
	reward.IsIncome = true
	reward.IncomeType = wallet.IncomeMiningReward
	reward.ValueUSD = 120

	other := wethTx("0xother", "2024-04-01")

	outside := wethTx("0xold", "2023-03-01")
	outside.IsIncome = true
	outside.IncomeType = wallet.IncomeMiningReward
	outside.ValueUSD = 999

	ledger := costbasis.NewLedger(costbasis.FIFO)
	report := taxreport.NewBuilder([]wallet.Transaction{reward, other, outside}, ledger).Build(2024)

	assert.InDelta(t, 120, report.IncomeSummary.Total, 1e-9)
	assert.InDelta(t, 120, report.IncomeSummary.ByType[string(wallet.IncomeMiningReward)], 1e-9)
	assert.Equal(t, 2, report.TransactionCount)
}

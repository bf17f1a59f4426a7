package costbasis

import (
	"sort"

	"github.com/chainbooks/chainbooks/internal/wallet"
)

// Ledger is a per-token inventory of acquisition lots with FIFO or LIFO
// disposal matching. One ledger instance is exclusively owned by one
// analysis run; it is not safe for concurrent use and is never resumed
// incrementally — a re-analysis replays the full history into a fresh
// ledger.
type Ledger struct {
	method    Method
	lots      map[string][]*Lot
	disposals []Disposal
}

// NewLedger creates an empty ledger with the given consumption method.
// Unknown methods fall back to FIFO.
func NewLedger(method Method) *Ledger {
	if method != LIFO {
		method = FIFO
	}
	return &Ledger{
		method: method,
		lots:   make(map[string][]*Lot),
	}
}

// Method returns the ledger's lot-consumption method.
func (l *Ledger) Method() Method {
	return l.method
}

// AddAcquisition appends a new lot for the token. Quantities of zero or
// less are ignored. Lots are never merged, so holding periods stay exact
// per acquisition.
func (l *Ledger) AddAcquisition(token string, quantity, costBasisUSD float64, timestamp int64, sourceHash string) {
	if quantity <= 0 {
		return
	}

	l.lots[token] = append(l.lots[token], &Lot{
		Quantity:        quantity,
		CostPerUnit:     costBasisUSD / quantity,
		TotalCost:       costBasisUSD,
		AcquiredAt:      timestamp,
		AcquisitionDate: wallet.DateOf(timestamp),
		SourceHash:      sourceHash,
	})
}

// ProcessDisposal matches a disposal against the token's lots in method
// order and appends the resulting record to the realized-gains log.
//
// Tokens with no tracked lots fall under the zero-cost-basis policy: the
// entire proceeds are recorded as gain with an empty fragment list. Data
// quality problems never fail the run; they degrade to zero-effect or
// zero-basis records.
func (l *Ledger) ProcessDisposal(token string, quantity, proceedsUSD float64, timestamp int64, sourceHash string) Disposal {
	if quantity <= 0 {
		return Disposal{
			Timestamp:    timestamp,
			SourceHash:   sourceHash,
			DisposalDate: wallet.DateOf(timestamp),
			Token:        token,
			LotsUsed:     []LotUsage{},
		}
	}

	if len(l.lots[token]) == 0 {
		record := Disposal{
			Timestamp:        timestamp,
			SourceHash:       sourceHash,
			DisposalDate:     wallet.DateOf(timestamp),
			Token:            token,
			QuantityDisposed: quantity,
			TotalProceeds:    proceedsUSD,
			TotalCostBasis:   0,
			RealizedGainLoss: proceedsUSD,
			ZeroCostBasis:    true,
			LotsUsed:         []LotUsage{},
		}
		l.disposals = append(l.disposals, record)
		return record
	}

	lots := l.lots[token]
	if l.method == FIFO {
		sort.SliceStable(lots, func(i, j int) bool { return lots[i].AcquiredAt < lots[j].AcquiredAt })
	} else {
		sort.SliceStable(lots, func(i, j int) bool { return lots[i].AcquiredAt > lots[j].AcquiredAt })
	}

	remaining := quantity
	totalCostBasis := 0.0
	lotsUsed := []LotUsage{}

	for !effectivelyZero(remaining) && remaining > 0 && len(lots) > 0 {
		lot := lots[0]

		var fromLot, costFromLot float64
		if lot.Quantity <= remaining {
			// Consume the whole lot.
			fromLot = lot.Quantity
			costFromLot = lot.TotalCost
			remaining -= fromLot
			lots = lots[1:]
		} else {
			// Consume a fragment; quantity and total cost shrink together
			// so cost-per-unit is preserved.
			fromLot = remaining
			costFromLot = remaining * lot.CostPerUnit
			lot.Quantity -= fromLot
			lot.TotalCost -= costFromLot
			remaining = 0
		}

		totalCostBasis += costFromLot
		lotsUsed = append(lotsUsed, LotUsage{
			Quantity:          fromLot,
			CostBasis:         costFromLot,
			Proceeds:          (fromLot / quantity) * proceedsUSD,
			AcquisitionDate:   lot.AcquisitionDate,
			HoldingPeriodDays: float64(timestamp-lot.AcquiredAt) / 86400,
		})
	}
	l.lots[token] = lots

	record := Disposal{
		Timestamp:        timestamp,
		SourceHash:       sourceHash,
		DisposalDate:     wallet.DateOf(timestamp),
		Token:            token,
		QuantityDisposed: quantity,
		TotalProceeds:    proceedsUSD,
		TotalCostBasis:   totalCostBasis,
		RealizedGainLoss: proceedsUSD - totalCostBasis,
		LotsUsed:         lotsUsed,
	}
	l.disposals = append(l.disposals, record)
	return record
}

// Lots returns the live lots for one token. The returned slice is the
// ledger's own; callers must not mutate it.
func (l *Ledger) Lots(token string) []*Lot {
	return l.lots[token]
}

// Tokens returns every token that currently has at least one lot.
func (l *Ledger) Tokens() []string {
	tokens := make([]string, 0, len(l.lots))
	for token, lots := range l.lots {
		if len(lots) > 0 {
			tokens = append(tokens, token)
		}
	}
	sort.Strings(tokens)
	return tokens
}

// Disposals returns the full realized-gains log in append order.
func (l *Ledger) Disposals() []Disposal {
	return l.disposals
}

// TotalRealizedGain sums realized gain/loss across the whole disposal log.
func (l *Ledger) TotalRealizedGain() float64 {
	total := 0.0
	for _, d := range l.disposals {
		total += d.RealizedGainLoss
	}
	return total
}

// UnrealizedGain values remaining lots at the given prices and returns the
// total market value minus cost basis. Tokens without a positive price
// contribute zero.
func (l *Ledger) UnrealizedGain(currentPrices map[string]float64) float64 {
	total := 0.0
	for token, lots := range l.lots {
		if len(lots) == 0 {
			continue
		}
		price := currentPrices[token]
		if price <= 0 {
			continue
		}
		for _, lot := range lots {
			total += lot.Quantity*price - lot.TotalCost
		}
	}
	return total
}

// RealizedGainsInRange filters the disposal log by calendar date, inclusive
// on both bounds. Lexical comparison is valid because dates are ISO
// formatted.
func (l *Ledger) RealizedGainsInRange(startDate, endDate string) []Disposal {
	var out []Disposal
	for _, d := range l.disposals {
		if d.DisposalDate >= startDate && d.DisposalDate <= endDate {
			out = append(out, d)
		}
	}
	return out
}

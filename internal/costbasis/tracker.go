package costbasis

import (
	"sort"

	"github.com/chainbooks/chainbooks/internal/wallet"
)

// Tracker drives a Ledger across a wallet's full transaction history.
// It is built fresh for every replay: lot consumption order depends on the
// complete token history, so a grown transaction set must be replayed from
// scratch rather than appended to a live ledger.
type Tracker struct {
	ledger *Ledger
}

// NewTracker creates a tracker around an empty ledger using the given
// consumption method.
func NewTracker(method Method) *Tracker {
	return &Tracker{ledger: NewLedger(method)}
}

// Ledger exposes the tracker's ledger for read-side derivations.
func (t *Tracker) Ledger() *Ledger {
	return t.ledger
}

// Replay processes the transactions chronologically against the ledger and
// returns annotated copies sorted newest first. The input slice is not
// mutated.
//
// Errored transactions and zero/NaN quantities are skipped. Inbound rows
// become acquisitions, outbound rows become disposals; negative or absent
// USD values are clamped to zero. Other directions pass through untouched.
func (t *Tracker) Replay(txs []wallet.Transaction) []wallet.Transaction {
	out := make([]wallet.Transaction, len(txs))
	copy(out, txs)

	// Stable sort keeps input order on timestamp ties, which makes the
	// replay deterministic.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })

	for i := range out {
		tx := &out[i]
		tx.RealizedGainLoss = 0
		tx.CostBasisUSD = 0

		if tx.IsError || !tx.HasQuantity() {
			continue
		}

		valueUSD := tx.ValueUSD
		if valueUSD < 0 {
			valueUSD = 0
		}

		switch tx.Direction {
		case wallet.DirectionInbound:
			t.ledger.AddAcquisition(tx.TokenContract, tx.Quantity, valueUSD, tx.Timestamp, tx.Hash)
			tx.CostBasisUSD = valueUSD
		case wallet.DirectionOutbound:
			record := t.ledger.ProcessDisposal(tx.TokenContract, tx.Quantity, valueUSD, tx.Timestamp, tx.Hash)
			tx.RealizedGainLoss = record.RealizedGainLoss
			tx.CostBasisUSD = record.TotalCostBasis
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

package costbasis

import "math"

// Method selects the lot-consumption order for a ledger. It is fixed at
// construction and never changes for the ledger's lifetime.
type Method string

const (
	// FIFO consumes the oldest lots first.
	FIFO Method = "fifo"
	// LIFO consumes the newest lots first.
	LIFO Method = "lifo"
)

// quantityEpsilon is the single tolerance used for "effectively consumed"
// comparisons throughout disposal matching.
const quantityEpsilon = 1e-10

// effectivelyZero reports whether a quantity is zero within tolerance.
func effectivelyZero(q float64) bool {
	return math.Abs(q) < quantityEpsilon
}

// Lot is a discrete acquisition of one token at a known per-unit cost.
// Quantity and TotalCost shrink together on partial consumption;
// CostPerUnit is fixed at acquisition.
type Lot struct {
	Quantity        float64 `json:"quantity"`
	CostPerUnit     float64 `json:"cost_per_unit"`
	TotalCost       float64 `json:"total_cost"`
	AcquiredAt      int64   `json:"acquired_at"`
	AcquisitionDate string  `json:"acquisition_date"`
	SourceHash      string  `json:"source_hash"`
}

// LotUsage records one lot fragment consumed by a disposal. Proceeds is the
// fragment's proportional share of the disposal's total proceeds.
type LotUsage struct {
	Quantity          float64 `json:"quantity"`
	CostBasis         float64 `json:"cost_basis"`
	Proceeds          float64 `json:"proceeds"`
	AcquisitionDate   string  `json:"acquisition_date"`
	HoldingPeriodDays float64 `json:"holding_period_days"`
}

// Disposal is an immutable record of one outbound transaction matched
// against lots. ZeroCostBasis marks disposals of tokens with no tracked
// acquisition history; their full proceeds count as gain and LotsUsed is
// empty.
type Disposal struct {
	Timestamp        int64      `json:"timestamp"`
	SourceHash       string     `json:"tx_hash"`
	DisposalDate     string     `json:"disposal_date"`
	Token            string     `json:"token"`
	QuantityDisposed float64    `json:"quantity_disposed"`
	TotalProceeds    float64    `json:"total_proceeds"`
	TotalCostBasis   float64    `json:"total_cost_basis"`
	RealizedGainLoss float64    `json:"realized_gain_loss"`
	ZeroCostBasis    bool       `json:"zero_cost_basis,omitempty"`
	LotsUsed         []LotUsage `json:"lots_used"`
}

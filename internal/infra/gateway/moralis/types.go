package moralis

import (
	"time"
)

// historyResponse is one page of the wallet history endpoint. Cursor is
// empty on the last page.
type historyResponse struct {
	Result []HistoryEntry `json:"result"`
	Cursor string         `json:"cursor"`
}

// HistoryEntry is one native transaction row from the Moralis wallet
// history API.
type HistoryEntry struct {
	Hash           string `json:"hash"`
	BlockNumber    string `json:"block_number"`
	BlockTimestamp string `json:"block_timestamp"`
	FromAddress    string `json:"from_address"`
	ToAddress      string `json:"to_address"`
	Value          string `json:"value"`
	GasPrice       string `json:"gas_price"`
	ReceiptGasUsed string `json:"receipt_gas_used"`
	ReceiptStatus  string `json:"receipt_status"`
	Category       string `json:"category"`
	Summary        string `json:"summary"`
	PossibleSpam   bool   `json:"possible_spam"`
}

// Timestamp parses the entry's RFC3339 block timestamp into unix seconds,
// zero on malformed input.
func (e *HistoryEntry) Timestamp() int64 {
	t, err := time.Parse(time.RFC3339, e.BlockTimestamp)
	if err != nil {
		return 0
	}
	return t.Unix()
}

// Failed reports whether the receipt marks the transaction as reverted.
func (e *HistoryEntry) Failed() bool {
	return e.ReceiptStatus == "0"
}

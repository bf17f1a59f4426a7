package moralis

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/chainbooks/chainbooks/internal/wallet"
)

// Source adapts the Moralis client to the analyzer's transaction-source
// port. Moralis serves as the secondary source: it only contributes
// native-asset rows, and duplicates of Etherscan rows are dropped by the
// analyzer's hash dedupe.
type Source struct {
	client *Client
}

// NewSource creates a Moralis transaction source.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Name identifies this source in logs and transaction records.
func (s *Source) Name() string {
	return "moralis"
}

// WalletTransactions fetches the wallet history and converts it into
// normalized domain transactions. Spam-flagged rows are dropped.
func (s *Source) WalletTransactions(ctx context.Context, address string) ([]wallet.Transaction, error) {
	address = strings.ToLower(address)

	entries, err := s.client.WalletHistory(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch wallet history: %w", err)
	}

	out := make([]wallet.Transaction, 0, len(entries))
	for _, e := range entries {
		if e.PossibleSpam {
			continue
		}
		out = append(out, s.convert(e, address))
	}
	return out, nil
}

func (s *Source) convert(e HistoryEntry, address string) wallet.Transaction {
	ts := e.Timestamp()
	dir := direction(e, address)

	tx := wallet.Transaction{
		Hash:          e.Hash,
		Timestamp:     ts,
		BlockNumber:   parseInt(e.BlockNumber),
		Date:          wallet.DateOf(ts),
		FromAddress:   strings.ToLower(e.FromAddress),
		ToAddress:     strings.ToLower(e.ToAddress),
		WalletAddress: address,
		Source:        s.Name(),
		Type:          e.Category,
		Direction:     dir,
		IsError:       e.Failed(),
		TokenContract: wallet.NativeAssetContract,
		TokenSymbol:   "ETH",
		TokenDecimals: 18,
		Quantity:      weiToEther(e.Value),
	}

	if dir == wallet.DirectionOutbound {
		tx.GasFeeETH = weiToEther(mulRaw(e.ReceiptGasUsed, e.GasPrice))
	}

	return tx
}

func direction(e HistoryEntry, address string) wallet.Direction {
	from := strings.ToLower(e.FromAddress)
	to := strings.ToLower(e.ToAddress)
	switch {
	case from == address && to == address:
		return wallet.DirectionInternal
	case from == address:
		return wallet.DirectionOutbound
	case to == address:
		return wallet.DirectionInbound
	default:
		return wallet.DirectionInternal
	}
}

// weiToEther converts a raw wei string into ETH. Raw values exceed int64
// range, so the division goes through big.Float.
func weiToEther(raw string) float64 {
	if raw == "" || raw == "0" {
		return 0
	}
	value, ok := new(big.Float).SetString(raw)
	if !ok {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	out, _ := new(big.Float).Quo(value, scale).Float64()
	return out
}

func mulRaw(a, b string) string {
	x, okX := new(big.Int).SetString(a, 10)
	y, okY := new(big.Int).SetString(b, 10)
	if !okX || !okY {
		return "0"
	}
	return new(big.Int).Mul(x, y).String()
}

func parseInt(s string) int64 {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return 0
	}
	return n.Int64()
}

package enrich

import (
	"context"
	"strings"

	"github.com/chainbooks/chainbooks/internal/wallet"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

// TokenMetadata describes a token contract.
type TokenMetadata struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Decimals     int    `json:"decimals"`
	IsStablecoin bool   `json:"is_stablecoin"`
}

// MetadataProvider resolves metadata for token contracts in batch.
type MetadataProvider interface {
	TokenMetadata(ctx context.Context, contracts []string) (map[string]TokenMetadata, error)
}

// PriceProvider resolves a token's USD price at a point in time.
type PriceProvider interface {
	HistoricalPrice(ctx context.Context, contract string, timestamp int64) (float64, error)
}

// majorTokens is hardcoded metadata for the handful of contracts that
// dominate most wallets, so they never need a provider round trip.
var majorTokens = map[string]TokenMetadata{
	wallet.NativeAssetContract:                    {Symbol: "ETH", Name: "Ethereum", Decimals: 18},
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18},
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": {Symbol: "USDC", Name: "USD Coin", Decimals: 6, IsStablecoin: true},
	"0xdac17f958d2ee523a2206206994597c13d831ec7": {Symbol: "USDT", Name: "Tether USD", Decimals: 6, IsStablecoin: true},
	"0x6b175474e89094c44da98b954eedeac495271d0f": {Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18, IsStablecoin: true},
}

// Processor enriches normalized transactions with token metadata,
// historical USD pricing and derived USD values.
type Processor struct {
	metadata MetadataProvider
	prices   PriceProvider
	logger   *logger.Logger
}

// NewProcessor creates an enrichment processor.
func NewProcessor(metadata MetadataProvider, prices PriceProvider, log *logger.Logger) *Processor {
	return &Processor{
		metadata: metadata,
		prices:   prices,
		logger:   log.WithField("component", "enrich"),
	}
}

// Enrich returns a new slice with metadata, prices and USD values filled
// in. Provider failures degrade to zero prices; they never fail the run.
func (p *Processor) Enrich(ctx context.Context, txs []wallet.Transaction) ([]wallet.Transaction, error) {
	out := make([]wallet.Transaction, len(txs))
	copy(out, txs)

	meta, err := p.resolveMetadata(ctx, out)
	if err != nil {
		return nil, err
	}

	for i := range out {
		tx := &out[i]
		if m, ok := meta[strings.ToLower(tx.TokenContract)]; ok {
			tx.TokenSymbol = m.Symbol
			tx.TokenName = m.Name
			tx.TokenDecimals = m.Decimals
			tx.IsStablecoin = m.IsStablecoin
		} else if tx.TokenSymbol == "" {
			tx.TokenSymbol = "UNKNOWN"
		}
	}

	p.applyPrices(ctx, out)

	for i := range out {
		tx := &out[i]
		if tx.HasQuantity() && tx.PriceUSD > 0 {
			tx.ValueUSD = tx.Quantity * tx.PriceUSD
		}
		if tx.GasFeeETH > 0 {
			ethPrice := p.nativePriceAt(ctx, tx)
			if ethPrice > 0 {
				tx.GasFeeUSD = tx.GasFeeETH * ethPrice
			}
		}
	}

	return out, nil
}

// resolveMetadata collects the unique contracts not covered by the
// hardcoded table and fetches them in one provider batch.
func (p *Processor) resolveMetadata(ctx context.Context, txs []wallet.Transaction) (map[string]TokenMetadata, error) {
	meta := make(map[string]TokenMetadata)
	var missing []string
	seen := make(map[string]bool)

	for _, tx := range txs {
		contract := strings.ToLower(tx.TokenContract)
		if contract == "" || seen[contract] {
			continue
		}
		seen[contract] = true

		if m, ok := majorTokens[contract]; ok {
			meta[contract] = m
		} else {
			missing = append(missing, contract)
		}
	}

	if len(missing) > 0 && p.metadata != nil {
		p.logger.Debug("fetching token metadata", "contracts", len(missing))
		fetched, err := p.metadata.TokenMetadata(ctx, missing)
		if err != nil {
			p.logger.Warn("token metadata fetch failed", "error", err)
		} else {
			for contract, m := range fetched {
				meta[strings.ToLower(contract)] = m
			}
		}
	}

	return meta, nil
}

// applyPrices fills PriceUSD per row: stablecoins are pinned to $1, other
// tokens are priced by the provider at the row's timestamp.
func (p *Processor) applyPrices(ctx context.Context, txs []wallet.Transaction) {
	for i := range txs {
		tx := &txs[i]
		if tx.PriceUSD > 0 {
			continue
		}
		if tx.IsStablecoin {
			tx.PriceUSD = 1.0
			tx.PriceSource = "stablecoin"
			continue
		}
		if p.prices == nil {
			continue
		}
		price, err := p.prices.HistoricalPrice(ctx, strings.ToLower(tx.TokenContract), tx.Timestamp)
		if err != nil {
			p.logger.Debug("price lookup failed", "contract", tx.TokenContract, "error", err)
			continue
		}
		if price > 0 {
			tx.PriceUSD = price
			tx.PriceSource = "provider"
		}
	}
}

// nativePriceAt resolves the native-asset price for gas-fee conversion,
// reusing the row's own price when the row already is the native asset.
func (p *Processor) nativePriceAt(ctx context.Context, tx *wallet.Transaction) float64 {
	if tx.TokenSymbol == "ETH" && tx.PriceUSD > 0 {
		return tx.PriceUSD
	}
	if p.prices == nil {
		return 0
	}
	price, err := p.prices.HistoricalPrice(ctx, wallet.NativeAssetContract, tx.Timestamp)
	if err != nil || price <= 0 {
		return 0
	}
	return price
}

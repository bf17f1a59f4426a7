package enrich_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainbooks/chainbooks/internal/enrich"
	"github.com/chainbooks/chainbooks/internal/wallet"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

const (
	usdcContract = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	obscureToken = "0x1111111111111111111111111111111111111111"
)

type fakeMetadata struct {
	tokens map[string]enrich.TokenMetadata
	calls  int
}

func (f *fakeMetadata) TokenMetadata(_ context.Context, contracts []string) (map[string]enrich.TokenMetadata, error) {
	f.calls++
	out := make(map[string]enrich.TokenMetadata)
	for _, c := range contracts {
		if m, ok := f.tokens[c]; ok {
			out[c] = m
		}
	}
	return out, nil
}

type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) HistoricalPrice(_ context.Context, contract string, _ int64) (float64, error) {
	return f.prices[contract], nil
}

func testLogger() *logger.Logger {
	return logger.New("test", io.Discard)
}

func TestProcessor_MajorTokensSkipProvider(t *testing.T) {
	meta := &fakeMetadata{}
	p := enrich.NewProcessor(meta, &fakePrices{}, testLogger())

	out, err := p.Enrich(context.Background(), []wallet.Transaction{
		{TokenContract: usdcContract, Quantity: 100, Timestamp: 1},
	})
	require.NoError(t, err)

	assert.Zero(t, meta.calls, "hardcoded tokens must not hit the provider")
	assert.Equal(t, "USDC", out[0].TokenSymbol)
	assert.True(t, out[0].IsStablecoin)
	assert.Equal(t, 6, out[0].TokenDecimals)
}

func TestProcessor_StablecoinPinnedToOneDollar(t *testing.T) {
	p := enrich.NewProcessor(nil, nil, testLogger())

	out, err := p.Enrich(context.Background(), []wallet.Transaction{
		{TokenContract: usdcContract, Quantity: 250, Timestamp: 1},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, out[0].PriceUSD, 1e-9)
	assert.Equal(t, "stablecoin", out[0].PriceSource)
	assert.InDelta(t, 250, out[0].ValueUSD, 1e-9)
}

func TestProcessor_ProviderPricing(t *testing.T) {
	meta := &fakeMetadata{tokens: map[string]enrich.TokenMetadata{
		obscureToken: {Symbol: "OBS", Name: "Obscure", Decimals: 18},
	}}
	prices := &fakePrices{prices: map[string]float64{obscureToken: 2.5}}
	p := enrich.NewProcessor(meta, prices, testLogger())

	out, err := p.Enrich(context.Background(), []wallet.Transaction{
		{TokenContract: obscureToken, Quantity: 4, Timestamp: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, meta.calls)
	assert.Equal(t, "OBS", out[0].TokenSymbol)
	assert.InDelta(t, 2.5, out[0].PriceUSD, 1e-9)
	assert.Equal(t, "provider", out[0].PriceSource)
	assert.InDelta(t, 10, out[0].ValueUSD, 1e-9)
}

func TestProcessor_UnknownTokenFallback(t *testing.T) {
	p := enrich.NewProcessor(&fakeMetadata{}, &fakePrices{}, testLogger())

	out, err := p.Enrich(context.Background(), []wallet.Transaction{
		{TokenContract: obscureToken, Quantity: 1, Timestamp: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "UNKNOWN", out[0].TokenSymbol)
	assert.Zero(t, out[0].PriceUSD)
	assert.Zero(t, out[0].ValueUSD)
}

func TestProcessor_GasFeeConversion(t *testing.T) {
	prices := &fakePrices{prices: map[string]float64{wallet.NativeAssetContract: 2000}}
	p := enrich.NewProcessor(nil, prices, testLogger())

	out, err := p.Enrich(context.Background(), []wallet.Transaction{
		{TokenContract: wallet.NativeAssetContract, Quantity: 1, GasFeeETH: 0.01, Timestamp: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "ETH", out[0].TokenSymbol)
	assert.InDelta(t, 2000, out[0].PriceUSD, 1e-9)
	assert.InDelta(t, 20, out[0].GasFeeUSD, 1e-9, "gas converts at the native asset price")
}

func TestProcessor_ExistingPricePreserved(t *testing.T) {
	prices := &fakePrices{prices: map[string]float64{usdcContract: 99}}
	p := enrich.NewProcessor(nil, prices, testLogger())

	out, err := p.Enrich(context.Background(), []wallet.Transaction{
		{TokenContract: usdcContract, Quantity: 1, PriceUSD: 1.01, Timestamp: 1},
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.01, out[0].PriceUSD, 1e-9)
}

func TestProcessor_DoesNotMutateInput(t *testing.T) {
	p := enrich.NewProcessor(nil, nil, testLogger())
	in := []wallet.Transaction{{TokenContract: usdcContract, Quantity: 10, Timestamp: 1}}

	_, err := p.Enrich(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, in[0].TokenSymbol)
	assert.Zero(t, in[0].PriceUSD)
}

package etherscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		decimals int
		want     float64
	}{
		{"one ether", "1000000000000000000", 18, 1},
		{"fractional ether", "1500000000000000000", 18, 1.5},
		{"usdc with 6 decimals", "250000000", 6, 250},
		{"value beyond int64", "123456789012345678901234567890", 18, 123456789012.34567890123456789},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InEpsilon(t, tt.want, normalizeAmount(tt.raw, tt.decimals), 1e-12)
		})
	}
}

func TestNormalizeAmountZeroCases(t *testing.T) {
	assert.Zero(t, normalizeAmount("0", 18))
	assert.Zero(t, normalizeAmount("", 6))
	assert.Zero(t, normalizeAmount("not-a-number", 18))
}

func TestGasFeeETH(t *testing.T) {
	// 21000 gas at 50 gwei is 0.00105 ETH.
	assert.InEpsilon(t, 0.00105, gasFeeETH("21000", "50000000000"), 1e-12)
	assert.Zero(t, gasFeeETH("", "50000000000"))
	assert.Zero(t, gasFeeETH("21000", "bad"))
}

func TestTxRecordHelpers(t *testing.T) {
	r := TxRecord{TimeStamp: "1704844800", BlockNumber: "18900000", TokenDecimal: "6", IsError: "1"}

	assert.Equal(t, int64(1704844800), r.Timestamp())
	assert.Equal(t, int64(18900000), r.Block())
	assert.Equal(t, 6, r.Decimals())
	assert.True(t, r.Failed())

	empty := TxRecord{}
	assert.Equal(t, 18, empty.Decimals(), "missing token decimal defaults to 18")
	assert.False(t, empty.Failed())
}

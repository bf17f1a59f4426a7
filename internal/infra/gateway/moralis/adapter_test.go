package moralis_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainbooks/chainbooks/internal/infra/gateway/moralis"
	"github.com/chainbooks/chainbooks/internal/wallet"
)

const walletAddr = "0xabcdef0123456789abcdef0123456789abcdef01"

func TestSource_WalletTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"result": [
				{
					"hash": "0xout",
					"block_number": "18900000",
					"block_timestamp": "2024-01-10T00:00:00.000Z",
					"from_address": "%s",
					"to_address": "0x1111111111111111111111111111111111111111",
					"value": "1000000000000000000",
					"gas_price": "50000000000",
					"receipt_gas_used": "21000",
					"receipt_status": "1",
					"category": "send"
				},
				{
					"hash": "0xspam",
					"block_timestamp": "2024-01-11T00:00:00.000Z",
					"from_address": "0x2222222222222222222222222222222222222222",
					"to_address": "%s",
					"value": "1",
					"possible_spam": true
				}
			],
			"cursor": ""
		}`, walletAddr, walletAddr)
	})

	source := moralis.NewSource(client)
	assert.Equal(t, "moralis", source.Name())

	txs, err := source.WalletTransactions(context.Background(), walletAddr)
	require.NoError(t, err)

	require.Len(t, txs, 1, "spam rows are dropped")
	tx := txs[0]
	assert.Equal(t, "0xout", tx.Hash)
	assert.Equal(t, wallet.DirectionOutbound, tx.Direction)
	assert.Equal(t, wallet.NativeAssetContract, tx.TokenContract)
	assert.Equal(t, "ETH", tx.TokenSymbol)
	assert.InDelta(t, 1, tx.Quantity, 1e-12)
	assert.InDelta(t, 0.00105, tx.GasFeeETH, 1e-12)
	assert.Equal(t, "2024-01-10", tx.Date)
	assert.Equal(t, int64(18900000), tx.BlockNumber)
	assert.Equal(t, "send", tx.Type)
	assert.False(t, tx.IsError)
}

func TestSource_RevertedRowKeepsErrorFlag(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"result": [{
				"hash": "0xfail",
				"block_timestamp": "2024-01-10T00:00:00.000Z",
				"from_address": "0x2222222222222222222222222222222222222222",
				"to_address": "%s",
				"value": "1000000000000000000",
				"receipt_status": "0"
			}],
			"cursor": ""
		}`, walletAddr)
	})

	txs, err := moralis.NewSource(client).WalletTransactions(context.Background(), walletAddr)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].IsError)
	assert.Equal(t, wallet.DirectionInbound, txs[0].Direction)
	assert.Zero(t, txs[0].GasFeeETH, "inbound rows pay no gas")
}

package etherscan_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainbooks/chainbooks/internal/infra/gateway/etherscan"
	"github.com/chainbooks/chainbooks/internal/wallet"
)

const walletAddr = "0xabcdef0123456789abcdef0123456789abcdef01"

func TestSource_WalletTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "txlist":
			fmt.Fprintf(w, `{
				"status": "1", "message": "OK",
				"result": [{
					"hash": "0xout",
					"timeStamp": "1704844800",
					"blockNumber": "18900000",
					"from": "%s",
					"to": "0x1111111111111111111111111111111111111111",
					"value": "1000000000000000000",
					"gasUsed": "21000",
					"gasPrice": "50000000000",
					"isError": "0"
				}]
			}`, walletAddr)
		case "txlistinternal":
			w.Write([]byte(`{"status": "0", "message": "No transactions found", "result": []}`))
		case "tokentx":
			fmt.Fprintf(w, `{
				"status": "1", "message": "OK",
				"result": [{
					"hash": "0xin",
					"timeStamp": "1705449600",
					"blockNumber": "18950000",
					"from": "0x2222222222222222222222222222222222222222",
					"to": "%s",
					"value": "250000000",
					"contractAddress": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
					"tokenSymbol": "USDC",
					"tokenName": "USD Coin",
					"tokenDecimal": "6"
				}]
			}`, walletAddr)
		default:
			t.Errorf("unexpected action %q", r.URL.Query().Get("action"))
		}
	})

	source := etherscan.NewSource(client)
	assert.Equal(t, "etherscan", source.Name())

	txs, err := source.WalletTransactions(context.Background(), walletAddr)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	eth := txs[0]
	assert.Equal(t, "0xout", eth.Hash)
	assert.Equal(t, wallet.DirectionOutbound, eth.Direction)
	assert.Equal(t, wallet.NativeAssetContract, eth.TokenContract)
	assert.Equal(t, "ETH", eth.TokenSymbol)
	assert.InDelta(t, 1, eth.Quantity, 1e-12)
	assert.InDelta(t, 0.00105, eth.GasFeeETH, 1e-12, "outbound normal rows carry the gas fee")
	assert.Equal(t, "2024-01-10", eth.Date)
	assert.Equal(t, "normal", eth.Type)
	assert.Equal(t, "etherscan", eth.Source)

	usdc := txs[1]
	assert.Equal(t, "0xin", usdc.Hash)
	assert.Equal(t, wallet.DirectionInbound, usdc.Direction)
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", usdc.TokenContract)
	assert.Equal(t, "USDC", usdc.TokenSymbol)
	assert.Equal(t, 6, usdc.TokenDecimals)
	assert.InDelta(t, 250, usdc.Quantity, 1e-12)
	assert.Zero(t, usdc.GasFeeETH, "inbound rows pay no gas")
	assert.Equal(t, "erc20", usdc.Type)
}

func TestSource_SelfTransferIsInternal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "txlist" {
			fmt.Fprintf(w, `{
				"status": "1", "message": "OK",
				"result": [{"hash": "0xself", "timeStamp": "1704844800", "from": "%s", "to": "%s", "value": "0"}]
			}`, walletAddr, walletAddr)
			return
		}
		w.Write([]byte(`{"status": "0", "message": "No transactions found", "result": []}`))
	})

	txs, err := etherscan.NewSource(client).WalletTransactions(context.Background(), walletAddr)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, wallet.DirectionInternal, txs[0].Direction)
}

func TestSource_ErroredRowsKeepFlag(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "txlist" {
			fmt.Fprintf(w, `{
				"status": "1", "message": "OK",
				"result": [{"hash": "0xfail", "timeStamp": "1704844800", "from": "%s", "to": "0x1111111111111111111111111111111111111111", "value": "1000000000000000000", "isError": "1"}]
			}`, walletAddr)
			return
		}
		w.Write([]byte(`{"status": "0", "message": "No transactions found", "result": []}`))
	})

	txs, err := etherscan.NewSource(client).WalletTransactions(context.Background(), walletAddr)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].IsError)
}

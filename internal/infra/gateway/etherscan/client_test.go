package etherscan_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainbooks/chainbooks/internal/infra/gateway/etherscan"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("test", io.Discard)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *etherscan.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := etherscan.NewClient("test-key", testLogger())
	client.SetBaseURL(server.URL)
	return client
}

func TestClient_NormalTransactions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "account", q.Get("module"))
		assert.Equal(t, "txlist", q.Get("action"))
		assert.Equal(t, "1", q.Get("chainid"))
		assert.Equal(t, "0xwallet", q.Get("address"))
		assert.Equal(t, "asc", q.Get("sort"))
		assert.Equal(t, "test-key", q.Get("apikey"))

		w.Write([]byte(`{
			"status": "1",
			"message": "OK",
			"result": [{
				"hash": "0xabc",
				"timeStamp": "1704844800",
				"blockNumber": "18900000",
				"from": "0xWallet",
				"to": "0xother",
				"value": "1000000000000000000",
				"gasUsed": "21000",
				"gasPrice": "50000000000",
				"isError": "0"
			}]
		}`))
	})

	records, err := client.NormalTransactions(context.Background(), "0xwallet")
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "0xabc", records[0].Hash)
	assert.Equal(t, int64(1704844800), records[0].Timestamp())
	assert.False(t, records[0].Failed())
}

func TestClient_TokenTransfersAction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tokentx", r.URL.Query().Get("action"))
		w.Write([]byte(`{"status": "1", "message": "OK", "result": []}`))
	})

	records, err := client.TokenTransfers(context.Background(), "0xwallet")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_NoTransactionsFoundIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "0", "message": "No transactions found", "result": []}`))
	})

	records, err := client.InternalTransactions(context.Background(), "0xwallet")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClient_APIErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "0", "message": "NOTOK", "result": "Invalid API Key"}`))
	})

	_, err := client.NormalTransactions(context.Background(), "0xwallet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTOK")
}

func TestClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"status": "1", "message": "OK", "result": [{"hash": "0xabc"}]}`))
	})

	records, err := client.NormalTransactions(context.Background(), "0xwallet")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.NormalTransactions(context.Background(), "0xwallet")
	require.Error(t, err)
	assert.False(t, etherscan.IsRateLimitError(err))
}

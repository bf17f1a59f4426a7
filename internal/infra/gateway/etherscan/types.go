package etherscan

import (
	"encoding/json"
	"math/big"
	"strconv"
)

// apiResponse is the Etherscan V2 envelope. Status "1" means OK; "0" is
// either a real error or the "No transactions found" empty result.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// TxRecord is one row of any of the account list actions (txlist,
// txlistinternal, tokentx). Etherscan returns every field as a string.
type TxRecord struct {
	Hash            string `json:"hash"`
	TimeStamp       string `json:"timeStamp"`
	BlockNumber     string `json:"blockNumber"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	GasUsed         string `json:"gasUsed"`
	GasPrice        string `json:"gasPrice"`
	IsError         string `json:"isError"`
	ContractAddress string `json:"contractAddress"`
	TokenSymbol     string `json:"tokenSymbol"`
	TokenName       string `json:"tokenName"`
	TokenDecimal    string `json:"tokenDecimal"`
}

// Timestamp parses the row's unix timestamp, zero on malformed input.
func (r *TxRecord) Timestamp() int64 {
	ts, _ := strconv.ParseInt(r.TimeStamp, 10, 64)
	return ts
}

// Block parses the row's block number, zero on malformed input.
func (r *TxRecord) Block() int64 {
	n, _ := strconv.ParseInt(r.BlockNumber, 10, 64)
	return n
}

// Decimals parses the token decimal count, defaulting to 18.
func (r *TxRecord) Decimals() int {
	if r.TokenDecimal == "" {
		return 18
	}
	d, err := strconv.Atoi(r.TokenDecimal)
	if err != nil {
		return 18
	}
	return d
}

// Failed reports whether the row carries isError=1.
func (r *TxRecord) Failed() bool {
	return r.IsError == "1"
}

// normalizeAmount converts a raw integer string amount into a float64
// using the given decimal count. Raw values exceed int64 range, so the
// division goes through big.Float.
func normalizeAmount(raw string, decimals int) float64 {
	if raw == "" || raw == "0" {
		return 0
	}
	value, ok := new(big.Float).SetString(raw)
	if !ok {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(value, scale).Float64()
	return out
}

// gasFeeETH computes gasUsed*gasPrice in ETH from the row's raw strings.
func gasFeeETH(gasUsed, gasPrice string) float64 {
	used, ok := new(big.Float).SetString(gasUsed)
	if !ok {
		return 0
	}
	price, ok := new(big.Float).SetString(gasPrice)
	if !ok {
		return 0
	}
	wei := new(big.Float).Mul(used, price)
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	out, _ := new(big.Float).Quo(wei, scale).Float64()
	return out
}

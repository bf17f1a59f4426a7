package etherscan

import (
	"context"
	"fmt"
	"strings"

	"github.com/chainbooks/chainbooks/internal/wallet"
)

// Transaction type labels attached to converted records.
const (
	typeNormal   = "normal"
	typeInternal = "internal"
	typeERC20    = "erc20"
)

// Source adapts the Etherscan client to the analyzer's transaction-source
// port: it fetches all three list actions and converts them into the
// domain transaction model.
type Source struct {
	client *Client
}

// NewSource creates an Etherscan transaction source.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Name identifies this source in logs and transaction records.
func (s *Source) Name() string {
	return "etherscan"
}

// WalletTransactions fetches normal, internal and ERC-20 activity for the
// wallet and returns it as normalized domain transactions.
func (s *Source) WalletTransactions(ctx context.Context, address string) ([]wallet.Transaction, error) {
	address = strings.ToLower(address)

	normal, err := s.client.NormalTransactions(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch normal transactions: %w", err)
	}
	internal, err := s.client.InternalTransactions(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch internal transactions: %w", err)
	}
	tokens, err := s.client.TokenTransfers(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token transfers: %w", err)
	}

	out := make([]wallet.Transaction, 0, len(normal)+len(internal)+len(tokens))
	for _, r := range normal {
		out = append(out, s.convert(r, address, typeNormal))
	}
	for _, r := range internal {
		out = append(out, s.convert(r, address, typeInternal))
	}
	for _, r := range tokens {
		out = append(out, s.convert(r, address, typeERC20))
	}
	return out, nil
}

// convert maps one Etherscan row onto the domain model. Native rows use
// the zero-address sentinel as their token contract; only outbound normal
// transactions carry the gas fee, since the wallet pays gas only for
// transactions it sent itself.
func (s *Source) convert(r TxRecord, address, txType string) wallet.Transaction {
	ts := r.Timestamp()

	tx := wallet.Transaction{
		Hash:          r.Hash,
		Timestamp:     ts,
		BlockNumber:   r.Block(),
		Date:          wallet.DateOf(ts),
		FromAddress:   strings.ToLower(r.From),
		ToAddress:     strings.ToLower(r.To),
		WalletAddress: address,
		Source:        s.Name(),
		Type:          txType,
		Direction:     direction(r, address),
		IsError:       r.Failed(),
	}

	switch txType {
	case typeERC20:
		tx.TokenContract = strings.ToLower(r.ContractAddress)
		tx.TokenSymbol = r.TokenSymbol
		tx.TokenName = r.TokenName
		tx.TokenDecimals = r.Decimals()
		tx.Quantity = normalizeAmount(r.Value, r.Decimals())
	default:
		tx.TokenContract = wallet.NativeAssetContract
		tx.TokenSymbol = "ETH"
		tx.TokenDecimals = 18
		tx.Quantity = normalizeAmount(r.Value, 18)
	}

	if txType == typeNormal && tx.Direction == wallet.DirectionOutbound {
		tx.GasFeeETH = gasFeeETH(r.GasUsed, r.GasPrice)
	}

	return tx
}

func direction(r TxRecord, address string) wallet.Direction {
	from := strings.ToLower(r.From)
	to := strings.ToLower(r.To)
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

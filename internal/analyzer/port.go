package analyzer

import (
	"context"
	"errors"

	"github.com/chainbooks/chainbooks/internal/wallet"
)

// ErrNotFound is returned by AnalysisStore implementations when a wallet
// has no stored analysis.
var ErrNotFound = errors.New("analysis not found")

// TransactionSource fetches a wallet's raw transaction history from one
// upstream provider.
type TransactionSource interface {
	// Name identifies the source in logs and in Transaction.Source.
	Name() string
	// WalletTransactions returns the wallet's full history, normalized.
	WalletTransactions(ctx context.Context, address string) ([]wallet.Transaction, error)
}

// AnalysisStore persists completed analyses keyed by wallet address.
// Load returns ErrNotFound when the wallet has never been analyzed.
type AnalysisStore interface {
	Save(ctx context.Context, analysis *Analysis) error
	Load(ctx context.Context, address string) (*Analysis, error)
	Delete(ctx context.Context, address string) error
}

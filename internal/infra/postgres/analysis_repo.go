package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chainbooks/chainbooks/internal/analyzer"
	"github.com/chainbooks/chainbooks/internal/costbasis"
	"github.com/chainbooks/chainbooks/internal/wallet"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

// AnalysisRepo is a Postgres-backed AnalysisStore. One row per wallet,
// with the transaction set stored as a JSONB document; a re-analysis
// upserts over the previous run.
type AnalysisRepo struct {
	db     *DB
	logger *logger.Logger
}

// NewAnalysisRepo creates an analysis repository.
func NewAnalysisRepo(db *DB, log *logger.Logger) *AnalysisRepo {
	return &AnalysisRepo{
		db:     db,
		logger: log.WithField("component", "analysis_repo"),
	}
}

// Save upserts the analysis keyed by wallet address.
func (r *AnalysisRepo) Save(ctx context.Context, analysis *analyzer.Analysis) error {
	txs, err := json.Marshal(analysis.Transactions)
	if err != nil {
		return fmt.Errorf("failed to marshal transactions: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO analyses (wallet_address, id, cost_basis_method, analyzed_at, transactions, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (wallet_address) DO UPDATE SET
			id = EXCLUDED.id,
			cost_basis_method = EXCLUDED.cost_basis_method,
			analyzed_at = EXCLUDED.analyzed_at,
			transactions = EXCLUDED.transactions,
			updated_at = now()`,
		analysis.WalletAddress, analysis.ID, string(analysis.Method), analysis.AnalyzedAt, txs,
	)
	if err != nil {
		r.logger.Error("store error", "operation", "save", "wallet", analysis.WalletAddress, "error", err)
		return fmt.Errorf("failed to save analysis: %w", err)
	}

	r.logger.Debug("analysis saved", "wallet", analysis.WalletAddress, "transactions", len(analysis.Transactions))
	return nil
}

// Load retrieves the stored analysis for a wallet, or analyzer.ErrNotFound.
func (r *AnalysisRepo) Load(ctx context.Context, address string) (*analyzer.Analysis, error) {
	var (
		analysis analyzer.Analysis
		method   string
		raw      []byte
	)

	err := r.db.QueryRow(ctx, `
		SELECT wallet_address, id, cost_basis_method, analyzed_at, transactions
		FROM analyses
		WHERE wallet_address = $1`,
		address,
	).Scan(&analysis.WalletAddress, &analysis.ID, &method, &analysis.AnalyzedAt, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, analyzer.ErrNotFound
	}
	if err != nil {
		r.logger.Error("store error", "operation", "load", "wallet", address, "error", err)
		return nil, fmt.Errorf("failed to load analysis: %w", err)
	}

	analysis.Method = costbasis.Method(method)
	analysis.Transactions = []wallet.Transaction{}
	if err := json.Unmarshal(raw, &analysis.Transactions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}

	return &analysis, nil
}

// Delete removes the stored analysis for a wallet. Deleting an absent
// analysis returns analyzer.ErrNotFound.
func (r *AnalysisRepo) Delete(ctx context.Context, address string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM analyses WHERE wallet_address = $1`, address)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return analyzer.ErrNotFound
	}
	return nil
}

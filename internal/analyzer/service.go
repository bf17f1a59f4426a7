package analyzer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chainbooks/chainbooks/internal/classify"
	"github.com/chainbooks/chainbooks/internal/costbasis"
	"github.com/chainbooks/chainbooks/internal/enrich"
	apperrors "github.com/chainbooks/chainbooks/internal/shared/errors"
	"github.com/chainbooks/chainbooks/internal/statements"
	"github.com/chainbooks/chainbooks/internal/taxreport"
	"github.com/chainbooks/chainbooks/internal/wallet"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Service orchestrates the full analysis pipeline (fetch, merge, enrich,
// classify, replay) and serves report reads from stored analyses.
type Service struct {
	sources    []TransactionSource
	enricher   *enrich.Processor
	classifier *classify.Classifier
	store      AnalysisStore
	logger     *logger.Logger
}

// NewService creates the analyzer service. Sources are queried in order;
// on duplicate hashes the earlier source wins.
func NewService(sources []TransactionSource, enricher *enrich.Processor, classifier *classify.Classifier, store AnalysisStore, log *logger.Logger) *Service {
	return &Service{
		sources:    sources,
		enricher:   enricher,
		classifier: classifier,
		store:      store,
		logger:     log.WithField("component", "analyzer"),
	}
}

// Analyze runs the full pipeline for a wallet and persists the result.
// Individual source failures are tolerated as long as at least one source
// responds; a run with zero responding sources fails.
func (s *Service) Analyze(ctx context.Context, address string, method costbasis.Method) (*Analysis, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, err
	}
	if method != costbasis.LIFO {
		method = costbasis.FIFO
	}

	log := s.logger.WithField("wallet", address)
	log.Info("starting wallet analysis", "method", string(method))

	merged, err := s.fetchAndMerge(ctx, address, log)
	if err != nil {
		return nil, err
	}

	enriched, err := s.enricher.Enrich(ctx, merged)
	if err != nil {
		return nil, apperrors.Internal("failed to enrich transactions", err)
	}
	classified := s.classifier.Classify(enriched)

	tracker := costbasis.NewTracker(method)
	annotated := tracker.Replay(classified)

	analysis := &Analysis{
		ID:            uuid.NewString(),
		WalletAddress: address,
		Method:        method,
		AnalyzedAt:    time.Now().Unix(),
		Transactions:  annotated,
	}

	if err := s.store.Save(ctx, analysis); err != nil {
		return nil, apperrors.Storage("failed to save analysis", err)
	}

	log.Info("wallet analysis complete",
		"analysis_id", analysis.ID,
		"transactions", len(annotated),
		"realized_gain", tracker.Ledger().TotalRealizedGain())
	return analysis, nil
}

// fetchAndMerge queries every source and deduplicates by hash, first
// occurrence winning.
func (s *Service) fetchAndMerge(ctx context.Context, address string, log *logger.Logger) ([]wallet.Transaction, error) {
	var merged []wallet.Transaction
	seen := make(map[string]bool)
	responded := 0
	var lastErr error

	for _, src := range s.sources {
		txs, err := src.WalletTransactions(ctx, address)
		if err != nil {
			log.Warn("transaction source failed", "source", src.Name(), "error", err)
			lastErr = err
			continue
		}
		responded++

		added := 0
		for _, tx := range txs {
			if tx.Hash != "" && seen[tx.Hash] {
				continue
			}
			seen[tx.Hash] = true
			if tx.Source == "" {
				tx.Source = src.Name()
			}
			merged = append(merged, tx)
			added++
		}
		log.Debug("source fetched", "source", src.Name(), "transactions", len(txs), "merged", added)
	}

	if responded == 0 {
		return nil, apperrors.Gateway("all transaction sources failed", lastErr)
	}
	return merged, nil
}

// WalletSummary builds the headline view of a stored analysis.
func (s *Service) WalletSummary(ctx context.Context, address string) (*Summary, error) {
	analysis, ledger, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		WalletAddress:    analysis.WalletAddress,
		AnalyzedAt:       analysis.AnalyzedAt,
		Method:           analysis.Method,
		TransactionCount: len(analysis.Transactions),
		ByDirection:      make(map[string]int),
		ByCategory:       make(map[string]int),
		IncomeByType:     make(map[string]float64),
		RealizedGains:    ledger.TotalRealizedGain(),
	}

	tokens := make(map[string]bool)
	for _, tx := range analysis.Transactions {
		summary.ByDirection[string(tx.Direction)]++
		summary.ByCategory[string(tx.Category)]++
		if tx.TokenContract != "" {
			tokens[tx.TokenContract] = true
		}
		if tx.IsIncome {
			summary.TotalIncomeUSD += tx.ValueUSD
			summary.IncomeByType[string(tx.IncomeType)] += tx.ValueUSD
		}
		if tx.IsExpense {
			summary.TotalExpensesUSD += tx.ValueUSD
		}
		summary.TotalGasFeesUSD += tx.GasFeeUSD

		if summary.DateRange.Start == "" || tx.Date < summary.DateRange.Start {
			summary.DateRange.Start = tx.Date
		}
		if tx.Date > summary.DateRange.End {
			summary.DateRange.End = tx.Date
		}
	}
	summary.UniqueTokens = len(tokens)

	return summary, nil
}

// Transactions returns one page of the stored transaction set, newest
// first, optionally filtered by category.
func (s *Service) Transactions(ctx context.Context, address string, limit, offset int, category string) (*TransactionPage, error) {
	analysis, _, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}

	filtered := analysis.Transactions
	if category != "" {
		filtered = nil
		for _, tx := range analysis.Transactions {
			if string(tx.Category) == category {
				filtered = append(filtered, tx)
			}
		}
	}

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	page := []wallet.Transaction{}
	if offset < len(filtered) {
		end := offset + limit
		if end > len(filtered) {
			end = len(filtered)
		}
		page = filtered[offset:end]
	}

	return &TransactionPage{
		WalletAddress: analysis.WalletAddress,
		Total:         len(filtered),
		Limit:         limit,
		Offset:        offset,
		Transactions:  page,
	}, nil
}

// BalanceSheet snapshots holdings as of the given date. An empty asOfDate
// defaults to today (UTC).
func (s *Service) BalanceSheet(ctx context.Context, address, asOfDate string) (*statements.BalanceSheet, error) {
	analysis, ledger, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}
	if asOfDate == "" {
		asOfDate = wallet.DateOf(time.Now().Unix())
	}

	sheet, err := statements.NewGenerator(analysis.Transactions, ledger).BalanceSheet(asOfDate)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	return sheet, nil
}

// FinancialStatements builds the income statement, cash flow statement and
// period summary for a window. Empty bounds default to the analysis' own
// transaction date range.
func (s *Service) FinancialStatements(ctx context.Context, address, startDate, endDate string, freq statements.Frequency) (*FinancialStatements, error) {
	analysis, ledger, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}

	first, last := dateBounds(analysis.Transactions)
	if startDate == "" {
		startDate = first
	}
	if endDate == "" {
		endDate = last
	}
	if startDate == "" || endDate == "" {
		return nil, apperrors.BadRequest("analysis has no transactions and no explicit date range was given")
	}

	gen := statements.NewGenerator(analysis.Transactions, ledger)

	income, err := gen.IncomeStatement(startDate, endDate)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	cashFlow, err := gen.CashFlow(startDate, endDate)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}
	periods, err := gen.PeriodSummary(startDate, endDate, freq)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	return &FinancialStatements{
		WalletAddress:   analysis.WalletAddress,
		StartDate:       startDate,
		EndDate:         endDate,
		IncomeStatement: income,
		CashFlow:        cashFlow,
		PeriodSummary:   periods,
	}, nil
}

// TaxReport builds the Form 8949 style report for a calendar year.
func (s *Service) TaxReport(ctx context.Context, address string, year int) (*taxreport.Report, error) {
	analysis, ledger, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}
	return taxreport.NewBuilder(analysis.Transactions, ledger).Build(year), nil
}

// DeleteAnalysis drops the stored analysis for a wallet.
func (s *Service) DeleteAnalysis(ctx context.Context, address string) error {
	address, err := normalizeAddress(address)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, address); err != nil && !errors.Is(err, ErrNotFound) {
		return apperrors.Storage("failed to delete analysis", err)
	}
	return nil
}

// load fetches the stored analysis and rebuilds its ledger by replaying the
// stored transaction set. Ledger state is never persisted.
func (s *Service) load(ctx context.Context, address string) (*Analysis, *costbasis.Ledger, error) {
	address, err := normalizeAddress(address)
	if err != nil {
		return nil, nil, err
	}

	analysis, err := s.store.Load(ctx, address)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, apperrors.NotAnalyzed(address)
		}
		return nil, nil, apperrors.Storage("failed to load analysis", err)
	}

	tracker := costbasis.NewTracker(analysis.Method)
	analysis.Transactions = tracker.Replay(analysis.Transactions)
	return analysis, tracker.Ledger(), nil
}

// dateBounds returns the earliest and latest transaction dates of a set.
func dateBounds(txs []wallet.Transaction) (string, string) {
	first, last := "", ""
	for _, tx := range txs {
		if tx.Date == "" {
			continue
		}
		if first == "" || tx.Date < first {
			first = tx.Date
		}
		if tx.Date > last {
			last = tx.Date
		}
	}
	return first, last
}

func normalizeAddress(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if !addressPattern.MatchString(address) {
		return "", apperrors.Validation(fmt.Sprintf("invalid wallet address %q", address))
	}
	return address, nil
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chainbooks/chainbooks/internal/analyzer"
	"github.com/chainbooks/chainbooks/internal/costbasis"
	"github.com/chainbooks/chainbooks/internal/statements"
	"github.com/chainbooks/chainbooks/internal/taxreport"
	"github.com/chainbooks/chainbooks/pkg/logger"
)

// AnalyzerService is the analysis and reporting surface the wallet
// handler exposes over HTTP.
type AnalyzerService interface {
	Analyze(ctx context.Context, address string, method costbasis.Method) (*analyzer.Analysis, error)
	WalletSummary(ctx context.Context, address string) (*analyzer.Summary, error)
	Transactions(ctx context.Context, address string, limit, offset int, category string) (*analyzer.TransactionPage, error)
	BalanceSheet(ctx context.Context, address, asOfDate string) (*statements.BalanceSheet, error)
	FinancialStatements(ctx context.Context, address, startDate, endDate string, freq statements.Frequency) (*analyzer.FinancialStatements, error)
	TaxReport(ctx context.Context, address string, year int) (*taxreport.Report, error)
	DeleteAnalysis(ctx context.Context, address string) error
}

// WalletHandler serves the wallet analysis and reporting endpoints.
type WalletHandler struct {
	service AnalyzerService
	logger  *logger.Logger
}

// NewWalletHandler creates a new wallet handler.
func NewWalletHandler(service AnalyzerService, log *logger.Logger) *WalletHandler {
	return &WalletHandler{
		service: service,
		logger:  log.WithField("component", "wallet_handler"),
	}
}

// AnalyzeRequest is the body of POST /api/v1/wallet/analyze.
type AnalyzeRequest struct {
	WalletAddress   string `json:"wallet_address"`
	CostBasisMethod string `json:"cost_basis_method"`
}

// AnalyzeResponse acknowledges a completed analysis run.
type AnalyzeResponse struct {
	AnalysisID       string `json:"analysis_id"`
	WalletAddress    string `json:"wallet_address"`
	CostBasisMethod  string `json:"cost_basis_method"`
	TransactionCount int    `json:"transaction_count"`
	AnalyzedAt       int64  `json:"analyzed_at"`
}

// Analyze handles POST /api/v1/wallet/analyze
func (h *WalletHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := h.service.Analyze(r.Context(), req.WalletAddress, costbasis.Method(req.CostBasisMethod))
	if err != nil {
		h.logger.WithError(err).Warn("analysis failed", "wallet", req.WalletAddress)
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, AnalyzeResponse{
		AnalysisID:       analysis.ID,
		WalletAddress:    analysis.WalletAddress,
		CostBasisMethod:  string(analysis.Method),
		TransactionCount: len(analysis.Transactions),
		AnalyzedAt:       analysis.AnalyzedAt,
	})
}

// GetSummary handles GET /api/v1/wallet/{address}/summary
func (h *WalletHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.WalletSummary(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetTransactions handles GET /api/v1/wallet/{address}/transactions
func (h *WalletHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)
	category := r.URL.Query().Get("category")

	page, err := h.service.Transactions(r.Context(), chi.URLParam(r, "address"), limit, offset, category)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// GetBalanceSheet handles GET /api/v1/wallet/{address}/balance-sheet
func (h *WalletHandler) GetBalanceSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.BalanceSheet(r.Context(), chi.URLParam(r, "address"), r.URL.Query().Get("as_of_date"))
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sheet)
}

// GetFinancialStatements handles GET /api/v1/wallet/{address}/financial-statements
func (h *WalletHandler) GetFinancialStatements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	freq := statements.ParseFrequency(q.Get("frequency"))

	result, err := h.service.FinancialStatements(r.Context(), chi.URLParam(r, "address"), q.Get("start_date"), q.Get("end_date"), freq)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetTaxReport handles GET /api/v1/wallet/{address}/tax-report
func (h *WalletHandler) GetTaxReport(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year", time.Now().UTC().Year())

	report, err := h.service.TaxReport(r.Context(), chi.URLParam(r, "address"), year)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// DeleteCache handles DELETE /api/v1/wallet/{address}/cache
func (h *WalletHandler) DeleteCache(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if err := h.service.DeleteAnalysis(r.Context(), address); err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":         "deleted",
		"wallet_address": address,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

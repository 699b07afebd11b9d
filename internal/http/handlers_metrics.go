package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"finpulse/internal/auth"
	"finpulse/internal/core"
	"finpulse/internal/metrics"
)

// dashboardInputs is the consistent snapshot every derived endpoint reads.
type dashboardInputs struct {
	txs       []core.Transaction
	health    core.HealthProfile
	portfolio core.PortfolioProfile
}

func (s *Server) loadDashboardInputs(ctx context.Context, userID string) (dashboardInputs, error) {
	txs, err := s.loadTransactions(ctx, userID)
	if err != nil {
		return dashboardInputs{}, err
	}
	health, err := s.profiles.GetHealthProfile(ctx, userID)
	if err != nil {
		return dashboardInputs{}, err
	}
	portfolio, err := s.profiles.GetPortfolioProfile(ctx, userID)
	if err != nil {
		return dashboardInputs{}, err
	}
	return dashboardInputs{txs: txs, health: health, portfolio: portfolio}, nil
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	in, err := s.loadDashboardInputs(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Metrics input load error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not load metrics")
		return
	}

	m := metrics.Compute(in.txs, &in.health, &in.portfolio, time.Now())
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	txs, err := s.loadTransactions(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Category chart load error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not load chart data")
		return
	}

	totals := metrics.GroupByCategory(txs)
	if totals == nil {
		totals = []metrics.CategoryTotal{}
	}
	respondJSON(w, http.StatusOK, totals)
}

func (s *Server) handleMonthlyChart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	txs, err := s.loadTransactions(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly chart load error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not load chart data")
		return
	}

	months := metrics.GroupByMonth(txs)
	if months == nil {
		months = []metrics.MonthTotal{}
	}
	respondJSON(w, http.StatusOK, months)
}

type projectionResponse struct {
	InitialCapital string    `json:"initial_capital"`
	AnnualRatePct  float64   `json:"annual_rate_pct"`
	Years          int       `json:"years"`
	Points         []float64 `json:"points"`
}

func (s *Server) handleProjectionChart(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	health, err := s.profiles.GetHealthProfile(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Projection health load error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not load projection")
		return
	}
	portfolio, err := s.profiles.GetPortfolioProfile(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Projection portfolio load error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not load projection")
		return
	}

	rate := metrics.AnnualRateFor(&portfolio)
	points := metrics.ProjectGrowth(health.InvestmentCapital.Units(), rate)

	respondJSON(w, http.StatusOK, projectionResponse{
		InitialCapital: health.InvestmentCapital.String(),
		AnnualRatePct:  rate,
		Years:          metrics.ProjectionYears,
		Points:         points,
	})
}

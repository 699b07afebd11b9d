package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"finpulse/internal/auth"
	"finpulse/internal/core"
)

type healthProfileRequest struct {
	InvestmentCapital string `json:"investment_capital"`
	TotalDebt         string `json:"total_debt"`
	EmergencyFund     string `json:"emergency_fund"`
}

type healthProfileResponse struct {
	InvestmentCapital string `json:"investment_capital"`
	TotalDebt         string `json:"total_debt"`
	EmergencyFund     string `json:"emergency_fund"`
}

func (s *Server) handleGetHealthProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	h, err := s.profiles.GetHealthProfile(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Health profile read error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not load health profile")
		return
	}

	respondJSON(w, http.StatusOK, healthProfileResponse{
		InvestmentCapital: h.InvestmentCapital.String(),
		TotalDebt:         h.TotalDebt.String(),
		EmergencyFund:     h.EmergencyFund.String(),
	})
}

func (s *Server) handlePutHealthProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req healthProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	capital, err := core.ParseNonNegativeAmount(req.InvestmentCapital)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid investment_capital")
		return
	}
	debt, err := core.ParseNonNegativeAmount(req.TotalDebt)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid total_debt")
		return
	}
	fund, err := core.ParseNonNegativeAmount(req.EmergencyFund)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid emergency_fund")
		return
	}

	h := core.HealthProfile{
		UserID:            userID,
		InvestmentCapital: capital,
		TotalDebt:         debt,
		EmergencyFund:     fund,
	}
	if err := s.profiles.SaveHealthProfile(r.Context(), h); err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			respondError(w, http.StatusUnprocessableEntity, "invalid amount")
			return
		}
		slog.ErrorContext(r.Context(), "Health profile save error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not save health profile")
		return
	}

	respondJSON(w, http.StatusOK, healthProfileResponse{
		InvestmentCapital: h.InvestmentCapital.String(),
		TotalDebt:         h.TotalDebt.String(),
		EmergencyFund:     h.EmergencyFund.String(),
	})
}

type portfolioProfileRequest struct {
	RiskProfile string `json:"risk_profile"`
}

type portfolioProfileResponse struct {
	RiskProfile string     `json:"risk_profile"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (s *Server) handleGetPortfolioProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	p, err := s.profiles.GetPortfolioProfile(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Portfolio profile read error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not load portfolio profile")
		return
	}

	resp := portfolioProfileResponse{RiskProfile: string(p.Risk)}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = &p.UpdatedAt
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePutPortfolioProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req portfolioProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p := core.PortfolioProfile{
		UserID:    userID,
		Risk:      core.RiskProfile(req.RiskProfile),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.profiles.SavePortfolioProfile(r.Context(), p); err != nil {
		if errors.Is(err, core.ErrInvalidRiskProfile) {
			respondError(w, http.StatusUnprocessableEntity, "invalid risk profile")
			return
		}
		slog.ErrorContext(r.Context(), "Portfolio profile save error", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "could not save portfolio profile")
		return
	}

	respondJSON(w, http.StatusOK, portfolioProfileResponse{
		RiskProfile: string(p.Risk),
		UpdatedAt:   &p.UpdatedAt,
	})
}

type riskProfileResponse struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	FixedIncomePct  int     `json:"fixed_income_pct"`
	VariablePct     int     `json:"variable_pct"`
	MinAnnualReturn float64 `json:"min_annual_return"`
	MaxAnnualReturn float64 `json:"max_annual_return"`
}

// handleRiskProfiles lists the static risk tier definitions. Public, a
// client shows them before the user has a session.
func (s *Server) handleRiskProfiles(w http.ResponseWriter, _ *http.Request) {
	defs := core.RiskProfiles()
	out := make([]riskProfileResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, riskProfileResponse{
			Name:            string(d.Risk),
			Description:     d.Description,
			FixedIncomePct:  d.FixedIncomePct,
			VariablePct:     d.VariablePct,
			MinAnnualReturn: d.MinAnnualReturn,
			MaxAnnualReturn: d.MaxAnnualReturn,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

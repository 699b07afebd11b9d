package core

import (
	"errors"
	"time"
)

const (
	Conservative RiskProfile = "conservative"
	Moderate     RiskProfile = "moderate"
	Aggressive   RiskProfile = "aggressive"
)

type (
	RiskProfile string

	// HealthProfile is the per-user financial health document. One per user,
	// created lazily with zero values and fully overwritten on edit.
	HealthProfile struct {
		UserID            string
		InvestmentCapital Money
		TotalDebt         Money
		EmergencyFund     Money
	}

	// PortfolioProfile records the chosen investment risk tier. One per
	// user, defaults to Moderate.
	PortfolioProfile struct {
		UserID    string
		Risk      RiskProfile
		UpdatedAt time.Time
	}

	// RiskProfileDefinition is static configuration for one risk tier:
	// a human description, an allocation split summing to 100, and the
	// expected annual return as a closed percentage interval.
	RiskProfileDefinition struct {
		Risk            RiskProfile
		Description     string
		FixedIncomePct  int
		VariablePct     int
		MinAnnualReturn float64
		MaxAnnualReturn float64
	}
)

var ErrInvalidRiskProfile = errors.New("invalid risk profile")

// riskDefinitions is the static tier table. The projection engine uses the
// lower bound of each return interval as its annual rate.
var riskDefinitions = map[RiskProfile]RiskProfileDefinition{
	Conservative: {
		Risk:            Conservative,
		Description:     "Capital preservation first: mostly fixed income with a small equity sleeve.",
		FixedIncomePct:  80,
		VariablePct:     20,
		MinAnnualReturn: 5,
		MaxAnnualReturn: 8,
	},
	Moderate: {
		Risk:            Moderate,
		Description:     "Balanced growth: an even split between fixed income and equities.",
		FixedIncomePct:  50,
		VariablePct:     50,
		MinAnnualReturn: 8,
		MaxAnnualReturn: 12,
	},
	Aggressive: {
		Risk:            Aggressive,
		Description:     "Growth first: equity heavy, tolerating larger drawdowns.",
		FixedIncomePct:  20,
		VariablePct:     80,
		MinAnnualReturn: 12,
		MaxAnnualReturn: 18,
	},
}

func (r RiskProfile) Valid() bool {
	_, ok := riskDefinitions[r]
	return ok
}

// Definition returns the static configuration for the tier.
func (r RiskProfile) Definition() (RiskProfileDefinition, error) {
	def, ok := riskDefinitions[r]
	if !ok {
		return RiskProfileDefinition{}, ErrInvalidRiskProfile
	}
	return def, nil
}

// RiskProfiles returns all tier definitions in ascending risk order.
func RiskProfiles() []RiskProfileDefinition {
	return []RiskProfileDefinition{
		riskDefinitions[Conservative],
		riskDefinitions[Moderate],
		riskDefinitions[Aggressive],
	}
}

func (h HealthProfile) Validate() error {
	if h.InvestmentCapital.Cents < 0 || h.TotalDebt.Cents < 0 || h.EmergencyFund.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (p PortfolioProfile) Validate() error {
	if !p.Risk.Valid() {
		return ErrInvalidRiskProfile
	}
	return nil
}

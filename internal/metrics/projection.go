package metrics

import (
	"math"

	"finpulse/internal/core"
)

// AnnualRateFor resolves the projection rate for a portfolio: the lower
// bound of the chosen tier's expected return, or the default rate when no
// valid portfolio exists.
func AnnualRateFor(portfolio *core.PortfolioProfile) float64 {
	if portfolio != nil {
		if def, err := portfolio.Risk.Definition(); err == nil {
			return def.MinAnnualReturn
		}
	}
	return DefaultAnnualRatePct
}

// ProjectGrowth returns the compound-growth series for years 0 through 10
// inclusive: always exactly eleven points. Point 0 is the initial capital
// as given; later points are rounded to the nearest whole unit at emission
// while compounding carries the unrounded running value forward, so the
// cosmetic rounding never feeds back into the growth base. Zero or negative
// capital compounds multiplicatively like any other value.
func ProjectGrowth(initialCapital, annualRatePct float64) []float64 {
	points := make([]float64, 0, ProjectionYears+1)
	points = append(points, initialCapital)

	factor := 1 + annualRatePct/100
	running := initialCapital
	for year := 1; year <= ProjectionYears; year++ {
		running *= factor
		points = append(points, math.Round(running))
	}
	return points
}

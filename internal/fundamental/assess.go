// Package fundamental turns a company ratio snapshot into discrete
// rule-based ratings. Every rating is a pure function of its input field;
// a missing field yields RatingInsufficientData rather than a guessed
// number.
package fundamental

import "finsight/internal/models"

const RatingInsufficientData = "insufficient_data"

// ValuationSignal classifies the P/E ratio.
type ValuationSignal string

const (
	Undervalued ValuationSignal = "undervalued"
	FairValue   ValuationSignal = "fair_value"
	Overvalued  ValuationSignal = "overvalued"
)

// ProfitabilityRating classifies the net profit margin.
type ProfitabilityRating string

const (
	ProfitabilityStrong ProfitabilityRating = "strong"
	ProfitabilityGood   ProfitabilityRating = "good"
	ProfitabilityWeak   ProfitabilityRating = "weak"
)

// HealthRating classifies balance-sheet leverage.
type HealthRating string

const (
	HealthHealthy   HealthRating = "healthy"
	HealthModerate  HealthRating = "moderate"
	HealthLeveraged HealthRating = "leveraged"
)

// GrowthRating classifies revenue growth.
type GrowthRating string

const (
	GrowthStrong   GrowthRating = "strong"
	GrowthModerate GrowthRating = "moderate"
	GrowthSlow     GrowthRating = "slow"
)

// RiskRating classifies beta against the market.
type RiskRating string

const (
	RiskHigh     RiskRating = "high"
	RiskModerate RiskRating = "moderate"
	RiskLow      RiskRating = "low"
)

// Config holds the classification thresholds.
type Config struct {
	PEUndervalued float64 // P/E below this is undervalued
	PEOvervalued  float64 // P/E above this is overvalued

	MarginStrong float64 // profit margin above this is strong
	MarginGood   float64

	DebtHealthy  float64 // debt/equity at or below this is healthy
	DebtModerate float64

	GrowthStrong   float64 // revenue growth above this is strong
	GrowthModerate float64

	BetaHigh float64 // beta above this is high risk
	BetaLow  float64 // beta below this is low risk
}

// DefaultConfig returns the standard band boundaries.
func DefaultConfig() Config {
	return Config{
		PEUndervalued:  15,
		PEOvervalued:   25,
		MarginStrong:   0.20,
		MarginGood:     0.10,
		DebtHealthy:    0.3,
		DebtModerate:   0.6,
		GrowthStrong:   0.15,
		GrowthModerate: 0.05,
		BetaHigh:       1.5,
		BetaLow:        0.5,
	}
}

// Assessment is the rating bundle for one snapshot. String fields hold
// RatingInsufficientData when the corresponding input was absent; each
// rating is independent of the others.
type Assessment struct {
	Valuation       string `json:"valuation_signal"`
	Profitability   string `json:"profitability_rating"`
	FinancialHealth string `json:"financial_health_rating"`
	Growth          string `json:"growth_rating"`
	Risk            string `json:"risk_rating"`
	Sector          string `json:"sector,omitempty"`
	Industry        string `json:"industry,omitempty"`
}

// Assess classifies the snapshot against the configured bands.
func Assess(snapshot models.FundamentalSnapshot, cfg Config) Assessment {
	a := Assessment{
		Valuation:       RatingInsufficientData,
		Profitability:   RatingInsufficientData,
		FinancialHealth: RatingInsufficientData,
		Growth:          RatingInsufficientData,
		Risk:            RatingInsufficientData,
		Sector:          snapshot.Sector,
		Industry:        snapshot.Industry,
	}

	if pe := snapshot.PERatio; pe != nil {
		switch {
		case *pe < cfg.PEUndervalued:
			a.Valuation = string(Undervalued)
		case *pe > cfg.PEOvervalued:
			a.Valuation = string(Overvalued)
		default:
			a.Valuation = string(FairValue)
		}
	}

	if margin := snapshot.ProfitMargin; margin != nil {
		switch {
		case *margin > cfg.MarginStrong:
			a.Profitability = string(ProfitabilityStrong)
		case *margin > cfg.MarginGood:
			a.Profitability = string(ProfitabilityGood)
		default:
			a.Profitability = string(ProfitabilityWeak)
		}
	}

	if de := snapshot.DebtToEquity; de != nil {
		switch {
		case *de <= cfg.DebtHealthy:
			a.FinancialHealth = string(HealthHealthy)
		case *de <= cfg.DebtModerate:
			a.FinancialHealth = string(HealthModerate)
		default:
			a.FinancialHealth = string(HealthLeveraged)
		}
	}

	if growth := snapshot.RevenueGrowth; growth != nil {
		switch {
		case *growth > cfg.GrowthStrong:
			a.Growth = string(GrowthStrong)
		case *growth > cfg.GrowthModerate:
			a.Growth = string(GrowthModerate)
		default:
			a.Growth = string(GrowthSlow)
		}
	}

	if beta := snapshot.Beta; beta != nil {
		switch {
		case *beta > cfg.BetaHigh:
			a.Risk = string(RiskHigh)
		case *beta < cfg.BetaLow:
			a.Risk = string(RiskLow)
		default:
			a.Risk = string(RiskModerate)
		}
	}

	return a
}

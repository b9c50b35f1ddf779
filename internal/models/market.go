package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedSeries marks price-series input the analysis engine refuses to
// work with: empty series, timestamps out of order, or negative/NaN values.
// Callers can test for it with errors.Is.
var ErrMalformedSeries = errors.New("malformed price series")

// PriceBar is one OHLCV trading period. Bars are immutable once fetched.
type PriceBar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// PriceSeries is a time-ordered sequence of bars for a single symbol.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// Len returns the number of bars in the series.
func (s PriceSeries) Len() int { return len(s.Bars) }

// Closes returns the closing prices in bar order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Validate checks the series invariants: at least one bar, strictly
// increasing timestamps, finite non-negative prices, non-negative volume and
// High >= Low on every bar. Any violation is reported as ErrMalformedSeries.
func (s PriceSeries) Validate() error {
	if len(s.Bars) == 0 {
		return fmt.Errorf("%w: empty series for %q", ErrMalformedSeries, s.Symbol)
	}
	for i, b := range s.Bars {
		if i > 0 && !b.Timestamp.After(s.Bars[i-1].Timestamp) {
			return fmt.Errorf("%w: timestamp at bar %d (%s) not after previous bar",
				ErrMalformedSeries, i, b.Timestamp.Format("2006-01-02"))
		}
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-numeric price at bar %d", ErrMalformedSeries, i)
			}
			if v < 0 {
				return fmt.Errorf("%w: negative price at bar %d", ErrMalformedSeries, i)
			}
		}
		if b.Volume < 0 {
			return fmt.Errorf("%w: negative volume at bar %d", ErrMalformedSeries, i)
		}
		if b.High < b.Low {
			return fmt.Errorf("%w: high below low at bar %d", ErrMalformedSeries, i)
		}
	}
	return nil
}

// FundamentalSnapshot is a point-in-time set of company ratios. Every numeric
// field is a pointer: nil means the upstream source did not report it, which
// is different from a reported zero.
type FundamentalSnapshot struct {
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	PBRatio        *float64 `json:"pb_ratio,omitempty"`
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	ROE            *float64 `json:"roe,omitempty"`
	ROA            *float64 `json:"roa,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth,omitempty"`
	EarningsGrowth *float64 `json:"earnings_growth,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`
	Sector         string   `json:"sector,omitempty"`
	Industry       string   `json:"industry,omitempty"`
}

// CompanyProfile bundles identification and the fundamentals snapshot for one
// symbol at fetch time.
type CompanyProfile struct {
	Symbol       string              `json:"symbol"`
	CompanyName  string              `json:"company_name"`
	CurrentPrice float64             `json:"current_price"`
	Fundamentals FundamentalSnapshot `json:"fundamentals"`
}

// NewsArticle is a headline used as sentiment input.
type NewsArticle struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// Float returns a pointer to v. Convenience for building snapshots.
func Float(v float64) *float64 { return &v }

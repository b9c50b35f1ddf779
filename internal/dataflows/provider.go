package dataflows

import (
	"fmt"
	"log"
	"time"

	"finsight/internal/config"
	"finsight/internal/models"
)

// Provider aggregates the upstream data sources behind one interface:
// Yahoo Finance for quotes and price history, Finnhub for fundamentals and
// company news, Google News RSS as the news fallback.
type Provider struct {
	yahoo   *YahooClient
	finnhub *FinnhubClient
	news    *NewsClient
}

// NewProvider wires the data clients from the application config.
func NewProvider(cfg *config.Config) *Provider {
	return &Provider{
		yahoo:   NewYahooClient(cfg.DataCacheDir, cfg.CacheEnabled),
		finnhub: NewFinnhubClient(cfg.FinnhubAPIKey, cfg.DataCacheDir, cfg.CacheEnabled),
		news:    NewNewsClient(cfg.DataCacheDir, cfg.CacheEnabled),
	}
}

// periodStart maps a period string to the start date for a bar fetch.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "1mo":
		return now.AddDate(0, -1, 0), nil
	case "3mo":
		return now.AddDate(0, -3, 0), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	case "2y":
		return now.AddDate(-2, 0, 0), nil
	case "5y":
		return now.AddDate(-5, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported period %q", period)
	}
}

// PriceHistory fetches daily bars covering the given period, ending today.
func (p *Provider) PriceHistory(symbol, period string) (models.PriceSeries, error) {
	now := time.Now()
	start, err := periodStart(period, now)
	if err != nil {
		return models.PriceSeries{}, err
	}
	return p.yahoo.DailyBars(symbol, start, now)
}

// Profile fetches the company identity plus fundamentals. A fundamentals
// failure is not fatal: the profile comes back with an empty snapshot so the
// technical path can still run.
func (p *Provider) Profile(symbol string) (models.CompanyProfile, error) {
	name, price, err := p.yahoo.Quote(symbol)
	if err != nil {
		return models.CompanyProfile{}, err
	}

	profile := models.CompanyProfile{
		Symbol:       NormalizeSymbol(symbol),
		CompanyName:  name,
		CurrentPrice: price,
	}

	if p.finnhub.Configured() {
		snapshot, err := p.finnhub.Fundamentals(symbol)
		if err != nil {
			log.Printf("fundamentals unavailable for %s: %v", symbol, err)
		} else {
			profile.Fundamentals = snapshot
		}
	}

	return profile, nil
}

// News fetches recent headlines for a symbol. Finnhub company news is
// preferred when configured; otherwise the Google News RSS feed is used.
func (p *Provider) News(symbol string, limit int) ([]models.NewsArticle, error) {
	if p.finnhub.Configured() {
		to := time.Now()
		from := to.AddDate(0, 0, -14)
		articles, err := p.finnhub.CompanyNews(symbol, from, to, limit)
		if err == nil && len(articles) > 0 {
			return articles, nil
		}
		if err != nil {
			log.Printf("finnhub news failed for %s, falling back to RSS: %v", symbol, err)
		}
	}
	return p.news.Search(NormalizeSymbol(symbol)+" stock", limit)
}

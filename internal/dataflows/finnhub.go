package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"finsight/internal/models"
)

// FinnhubClient fetches fundamentals and company news from the Finnhub API.
type FinnhubClient struct {
	client *resty.Client
	cache  *CacheManager
	apiKey string
}

// NewFinnhubClient creates a Finnhub client. Fundamentals are cached for 6
// hours, news for 1 hour.
func NewFinnhubClient(apiKey, cacheDir string, cacheEnabled bool) *FinnhubClient {
	client := resty.New()
	client.SetBaseURL("https://finnhub.io/api/v1")
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		cache:  NewCacheManager(filepath.Join(cacheDir, "finnhub"), 6*time.Hour, cacheEnabled),
		apiKey: apiKey,
	}
}

// Configured reports whether an API key is available.
func (fc *FinnhubClient) Configured() bool { return fc.apiKey != "" }

// finnhubMetrics mirrors the subset of /stock/metric the snapshot needs.
// Finnhub reports margins, returns and growth in percent.
type finnhubMetrics struct {
	Metric struct {
		PETTM              *float64 `json:"peTTM"`
		PBQuarterly        *float64 `json:"pbQuarterly"`
		NetProfitMarginTTM *float64 `json:"netProfitMarginTTM"`
		ROETTM             *float64 `json:"roeTTM"`
		ROATTM             *float64 `json:"roaTTM"`
		RevenueGrowthYoy   *float64 `json:"revenueGrowthTTMYoy"`
		EPSGrowthYoy       *float64 `json:"epsGrowthTTMYoy"`
		DebtToEquity       *float64 `json:"totalDebt/totalEquityQuarterly"`
		Beta               *float64 `json:"beta"`
		DividendYield      *float64 `json:"dividendYieldIndicatedAnnual"`
	} `json:"metric"`
}

type finnhubProfile struct {
	Name     string `json:"name"`
	Industry string `json:"finnhubIndustry"`
}

// Fundamentals fetches the ratio snapshot for a symbol. Fields the API does
// not report stay nil in the snapshot.
func (fc *FinnhubClient) Fundamentals(symbol string) (models.FundamentalSnapshot, error) {
	var snapshot models.FundamentalSnapshot
	if !fc.Configured() {
		return snapshot, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return snapshot, err
	}
	symbol = NormalizeSymbol(symbol)

	if fc.cache.Get("finnhub", "fundamentals", symbol, &snapshot) {
		return snapshot, nil
	}

	var metrics finnhubMetrics
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := fc.client.R().
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"metric": "all",
				"token":  fc.apiKey,
			}).
			SetResult(&metrics).
			Get("/stock/metric")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("finnhub metric request failed: %s", resp.Status())
		}
		return nil
	})
	if err != nil {
		return snapshot, err
	}

	m := metrics.Metric
	snapshot = models.FundamentalSnapshot{
		PERatio:        m.PETTM,
		PBRatio:        m.PBQuarterly,
		ProfitMargin:   percentToFraction(m.NetProfitMarginTTM),
		ROE:            percentToFraction(m.ROETTM),
		ROA:            percentToFraction(m.ROATTM),
		RevenueGrowth:  percentToFraction(m.RevenueGrowthYoy),
		EarningsGrowth: percentToFraction(m.EPSGrowthYoy),
		DebtToEquity:   m.DebtToEquity,
		Beta:           m.Beta,
		DividendYield:  percentToFraction(m.DividendYield),
	}

	var profile finnhubProfile
	resp, err := fc.client.R().
		SetQueryParams(map[string]string{"symbol": symbol, "token": fc.apiKey}).
		SetResult(&profile).
		Get("/stock/profile2")
	if err == nil && !resp.IsError() {
		snapshot.Industry = profile.Industry
	}

	fc.cache.Set("finnhub", "fundamentals", symbol, snapshot)
	return snapshot, nil
}

type finnhubNews struct {
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	URL      string `json:"url"`
}

// CompanyNews returns recent headlines for a symbol, newest first as
// delivered by the API.
func (fc *FinnhubClient) CompanyNews(symbol string, from, to time.Time, limit int) ([]models.NewsArticle, error) {
	if !fc.Configured() {
		return nil, fmt.Errorf("finnhub API key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}
	var cached []models.NewsArticle
	if fc.cache.Get("finnhub", "company_news", cacheKey, &cached) {
		return clipNews(cached, limit), nil
	}

	var raw []finnhubNews
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := fc.client.R().
			SetQueryParams(map[string]string{
				"symbol": symbol,
				"from":   from.Format("2006-01-02"),
				"to":     to.Format("2006-01-02"),
				"token":  fc.apiKey,
			}).
			SetResult(&raw).
			Get("/company-news")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("finnhub news request failed: %s", resp.Status())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	articles := make([]models.NewsArticle, 0, len(raw))
	for _, n := range raw {
		if n.Headline == "" {
			continue
		}
		articles = append(articles, models.NewsArticle{
			Title:       n.Headline,
			Source:      n.Source,
			URL:         n.URL,
			PublishedAt: time.Unix(n.DateTime, 0).UTC(),
		})
	}

	fc.cache.Set("finnhub", "company_news", cacheKey, articles)
	return clipNews(articles, limit), nil
}

func clipNews(articles []models.NewsArticle, limit int) []models.NewsArticle {
	if limit > 0 && len(articles) > limit {
		return articles[:limit]
	}
	return articles
}

func percentToFraction(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v / 100
	return &f
}

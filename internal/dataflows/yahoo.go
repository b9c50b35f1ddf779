package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/shopspring/decimal"

	"finsight/internal/models"
)

// YahooClient fetches quotes and daily price history from Yahoo Finance.
type YahooClient struct {
	cache *CacheManager
}

// NewYahooClient creates a Yahoo Finance client with a 24h bar cache.
func NewYahooClient(cacheDir string, cacheEnabled bool) *YahooClient {
	return &YahooClient{
		cache: NewCacheManager(filepath.Join(cacheDir, "yahoo"), 24*time.Hour, cacheEnabled),
	}
}

// Quote returns the company name and current price for a symbol.
func (yc *YahooClient) Quote(symbol string) (name string, price float64, err error) {
	if err := ValidateSymbol(symbol); err != nil {
		return "", 0, err
	}
	symbol = NormalizeSymbol(symbol)

	err = WithRetry(DefaultRetryConfig(), func() error {
		q, qerr := equity.Get(symbol)
		if qerr != nil {
			return fmt.Errorf("get quote for %s: %w", symbol, qerr)
		}
		name = q.LongName
		if name == "" {
			name = q.ShortName
		}
		if name == "" {
			name = symbol
		}
		price = q.RegularMarketPrice
		return nil
	})
	return name, price, err
}

// DailyBars fetches the daily OHLCV history for the given date range and
// converts it into a PriceSeries. The series is validated before it is
// returned, so downstream consumers never see out-of-order or negative data.
func (yc *YahooClient) DailyBars(symbol string, start, end time.Time) (models.PriceSeries, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return models.PriceSeries{}, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}
	var cached models.PriceSeries
	if yc.cache.Get("yahoo", "daily_bars", cacheKey, &cached) && cached.Len() > 0 {
		return cached, nil
	}

	var bars []models.PriceBar
	err := WithRetry(DefaultRetryConfig(), func() error {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)
		bars = bars[:0]
		for iter.Next() {
			b := iter.Bar()
			bars = append(bars, models.PriceBar{
				Timestamp: time.Unix(int64(b.Timestamp), 0).UTC(),
				Open:      decimalToFloat(b.Open),
				High:      decimalToFloat(b.High),
				Low:       decimalToFloat(b.Low),
				Close:     decimalToFloat(b.Close),
				Volume:    int64(b.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("fetch bars for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return models.PriceSeries{}, err
	}

	series := models.PriceSeries{Symbol: symbol, Bars: bars}
	if err := series.Validate(); err != nil {
		return models.PriceSeries{}, err
	}

	yc.cache.Set("yahoo", "daily_bars", cacheKey, series)
	return series, nil
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

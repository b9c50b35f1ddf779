package indicator

import (
	"fmt"
	"math"

	"finsight/internal/models"
)

// VolumeTrend classifies recent volume against earlier volume.
type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "increasing"
	VolumeDecreasing VolumeTrend = "decreasing"
	VolumeStable     VolumeTrend = "stable"
	VolumeUnknown    VolumeTrend = "insufficient_data"
)

// Diagnostic records why an indicator could not be computed.
type Diagnostic struct {
	Indicator string `json:"indicator"`
	Reason    string `json:"reason"`
	Bars      int    `json:"bars"`
	Required  int    `json:"required"`
}

// Result is the indicator bundle for one price series. Optional fields are
// nil when the series was too short for that indicator; a nil is never a
// stand-in for zero. Results are built fresh per Compute call and never
// mutated afterwards.
type Result struct {
	Symbol       string  `json:"symbol"`
	CurrentPrice float64 `json:"current_price"`

	MA20       *float64 `json:"ma_20,omitempty"`
	MA50       *float64 `json:"ma_50,omitempty"`
	RSI14      *float64 `json:"rsi_14,omitempty"`
	Volatility *float64 `json:"volatility,omitempty"` // annualized, percent

	VolumeTrend VolumeTrend `json:"volume_trend"`
	TrendSignal TrendSignal `json:"trend_signal"`

	Support        *float64 `json:"support,omitempty"`
	Resistance     *float64 `json:"resistance,omitempty"`
	RangeBars      int      `json:"range_bars"`
	RangeTruncated bool     `json:"range_truncated"`

	PriceChange1D *float64 `json:"price_change_1d,omitempty"` // percent
	PriceChange1W *float64 `json:"price_change_1w,omitempty"`
	PriceChange1M *float64 `json:"price_change_1m,omitempty"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Engine computes technical indicators over a materialized price series. It
// holds only its configuration, performs no I/O and keeps no state between
// calls, so one Engine may be shared across goroutines analyzing different
// symbols.
type Engine struct {
	cfg Config
}

// NewEngine returns an engine using the given thresholds.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Compute validates the series and produces the full indicator bundle.
// Malformed input (models.ErrMalformedSeries) fails the whole call; a series
// that is merely too short for some indicators yields a partial Result with
// the skipped computations listed in Diagnostics.
func (e *Engine) Compute(series models.PriceSeries) (*Result, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	bars := series.Len()
	closes := series.Closes()
	res := &Result{
		Symbol:       series.Symbol,
		CurrentPrice: closes[len(closes)-1],
	}

	if ma, ok := e.MovingAverage(series, e.cfg.ShortWindow); ok {
		res.MA20 = &ma
	} else {
		res.addDiagnostic("ma_20", bars, e.cfg.ShortWindow)
	}
	if ma, ok := e.MovingAverage(series, e.cfg.LongWindow); ok {
		res.MA50 = &ma
	} else {
		res.addDiagnostic("ma_50", bars, e.cfg.LongWindow)
	}
	if rsi, ok := e.RSI(series); ok {
		res.RSI14 = &rsi
	} else {
		res.addDiagnostic("rsi_14", bars, e.cfg.RSIPeriod+1)
	}
	if vol, ok := e.Volatility(series); ok {
		res.Volatility = &vol
	} else {
		res.addDiagnostic("volatility", bars, 3)
	}

	res.VolumeTrend = e.VolumeTrend(series)
	if res.VolumeTrend == VolumeUnknown {
		res.addDiagnostic("volume_trend", bars, e.cfg.VolumeWindow+1)
	}

	support, resistance, used, truncated := e.SupportResistance(series)
	res.Support = &support
	res.Resistance = &resistance
	res.RangeBars = used
	res.RangeTruncated = truncated

	for _, pc := range []struct {
		name   string
		offset int
		field  **float64
	}{
		{"price_change_1d", 1, &res.PriceChange1D},
		{"price_change_1w", 5, &res.PriceChange1W},
		{"price_change_1m", 21, &res.PriceChange1M},
	} {
		if chg, ok := percentChange(closes, pc.offset); ok {
			v := chg
			*pc.field = &v
		} else {
			res.addDiagnostic(pc.name, bars, pc.offset+1)
		}
	}

	res.TrendSignal = e.TrendSignal(res.CurrentPrice, res.MA20, res.MA50, res.RSI14)

	return res, nil
}

func (r *Result) addDiagnostic(name string, bars, required int) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Indicator: name,
		Reason:    fmt.Sprintf("insufficient data: %d bars, need %d", bars, required),
		Bars:      bars,
		Required:  required,
	})
}

// MovingAverage returns the simple mean of the trailing window closes,
// anchored at the final bar. ok is false when the series is shorter than the
// window.
func (e *Engine) MovingAverage(series models.PriceSeries, window int) (float64, bool) {
	closes := series.Closes()
	if window <= 0 || len(closes) < window {
		return 0, false
	}
	sum := 0.0
	for i := len(closes) - window; i < len(closes); i++ {
		sum += closes[i]
	}
	return sum / float64(window), true
}

// MovingAverageCurve returns the moving average at every bar with index >=
// window-1, oldest first. The result has length len(closes)-window+1, or nil
// when the input is shorter than the window.
func MovingAverageCurve(closes []float64, window int) []float64 {
	if window <= 0 || len(closes) < window {
		return nil
	}
	curve := make([]float64, 0, len(closes)-window+1)
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			curve = append(curve, sum/float64(window))
		}
	}
	return curve
}

// RSI computes the Wilder relative strength index over the configured
// period: a simple-average seed over the first `period` deltas, then
// exponential smoothing with factor 1/period. A zero average loss maps to
// 100. Needs at least period+1 bars; the output is always within [0, 100].
func (e *Engine) RSI(series models.PriceSeries) (float64, bool) {
	period := e.cfg.RSIPeriod
	closes := series.Closes()
	if period <= 0 || len(closes) < period+1 {
		return 0, false
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// Volatility returns the annualized standard deviation of day-over-day
// simple returns, in percent. Needs at least two return observations (three
// bars); pairs with a zero base close are skipped.
func (e *Engine) Volatility(series models.PriceSeries) (float64, bool) {
	closes := series.Closes()
	returns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	if len(returns) < 2 {
		return 0, false
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(e.cfg.AnnualizationFactor) * 100, true
}

// VolumeTrend compares mean volume over the most recent VolumeWindow bars to
// mean volume over the preceding VolumeWindow bars (or all earlier bars when
// fewer exist). Changes within VolumeStableBand count as stable.
func (e *Engine) VolumeTrend(series models.PriceSeries) VolumeTrend {
	bars := series.Bars
	window := e.cfg.VolumeWindow
	if len(bars) < window+1 {
		return VolumeUnknown
	}

	recent := meanVolume(bars[len(bars)-window:])
	prevStart := len(bars) - 2*window
	if prevStart < 0 {
		prevStart = 0
	}
	prior := meanVolume(bars[prevStart : len(bars)-window])
	if prior == 0 {
		return VolumeUnknown
	}

	change := (recent - prior) / prior
	switch {
	case change > e.cfg.VolumeStableBand:
		return VolumeIncreasing
	case change < -e.cfg.VolumeStableBand:
		return VolumeDecreasing
	default:
		return VolumeStable
	}
}

func meanVolume(bars []models.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bars {
		sum += float64(b.Volume)
	}
	return sum / float64(len(bars))
}

// SupportResistance returns the minimum low and maximum high over the
// trailing RangeLookback bars. When the series is shorter than the lookback
// the whole series is used and truncated is true.
func (e *Engine) SupportResistance(series models.PriceSeries) (support, resistance float64, barsUsed int, truncated bool) {
	bars := series.Bars
	start := len(bars) - e.cfg.RangeLookback
	if start < 0 {
		start = 0
		truncated = true
	}
	window := bars[start:]

	support = window[0].Low
	resistance = window[0].High
	for _, b := range window[1:] {
		if b.Low < support {
			support = b.Low
		}
		if b.High > resistance {
			resistance = b.High
		}
	}
	return support, resistance, len(window), truncated
}

// percentChange returns the close-to-close change, in percent, between the
// final bar and the bar `offset` bars earlier.
func percentChange(closes []float64, offset int) (float64, bool) {
	if len(closes) < offset+1 {
		return 0, false
	}
	base := closes[len(closes)-1-offset]
	if base == 0 {
		return 0, false
	}
	return (closes[len(closes)-1] - base) / base * 100, true
}

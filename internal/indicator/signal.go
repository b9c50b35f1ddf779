package indicator

// TrendSignal is the discrete directional classification derived from the
// moving-average alignment and the RSI zone.
type TrendSignal string

const (
	StrongBullish TrendSignal = "strong_bullish"
	Bullish       TrendSignal = "bullish"
	Neutral       TrendSignal = "neutral"
	Bearish       TrendSignal = "bearish"
	StrongBearish TrendSignal = "strong_bearish"
)

// TrendSignal maps (price vs MA20, price vs MA50, MA20 vs MA50, RSI zone)
// onto one signal. Each available comparison contributes +1, 0 or -1 to an
// alignment score; absent inputs contribute 0, so the function is total:
//
//	score +3        -> strong_bullish
//	score +1 or +2  -> bullish
//	score  0        -> neutral
//	score -1 or -2  -> bearish
//	score -3        -> strong_bearish
//
// The RSI zone then applies the tie-break rules: an overbought RSI caps the
// signal at bullish, an oversold RSI floors it at bearish. A strong reading
// therefore requires all three comparisons aligned and an RSI outside the
// extreme zones.
func (e *Engine) TrendSignal(price float64, ma20, ma50, rsi *float64) TrendSignal {
	score := 0
	if ma20 != nil {
		score += compare(price, *ma20)
	}
	if ma50 != nil {
		score += compare(price, *ma50)
	}
	if ma20 != nil && ma50 != nil {
		score += compare(*ma20, *ma50)
	}

	var signal TrendSignal
	switch {
	case score >= 3:
		signal = StrongBullish
	case score >= 1:
		signal = Bullish
	case score <= -3:
		signal = StrongBearish
	case score <= -1:
		signal = Bearish
	default:
		signal = Neutral
	}

	if rsi != nil {
		if *rsi > e.cfg.RSIOverbought && signal == StrongBullish {
			signal = Bullish
		}
		if *rsi < e.cfg.RSIOversold && signal == StrongBearish {
			signal = Bearish
		}
	}
	return signal
}

func compare(a, b float64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

package indicator

// Config carries every threshold the engine uses. Tests override individual
// fields; production code starts from DefaultConfig.
type Config struct {
	ShortWindow int // short moving-average window, bars
	LongWindow  int // long moving-average window, bars

	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64

	// AnnualizationFactor scales the daily return stddev to an annual
	// figure; 252 trading days for daily bars.
	AnnualizationFactor float64

	// VolumeWindow is the number of recent bars compared against the
	// preceding bars; VolumeStableBand is the relative change beyond which
	// volume counts as increasing or decreasing.
	VolumeWindow     int
	VolumeStableBand float64

	// RangeLookback is the trailing window for support/resistance extrema.
	RangeLookback int
}

// DefaultConfig returns the standard parameter set.
func DefaultConfig() Config {
	return Config{
		ShortWindow:         20,
		LongWindow:          50,
		RSIPeriod:           14,
		RSIOversold:         30,
		RSIOverbought:       70,
		AnnualizationFactor: 252,
		VolumeWindow:        20,
		VolumeStableBand:    0.10,
		RangeLookback:       60,
	}
}

package models

// Trade direction values.
const (
	DirectionLong  = "LONG"
	DirectionShort = "SHORT"
)

// Conviction levels in descending order of confidence.
const (
	ConvictionBigIdea = "BIG_IDEA"
	ConvictionHigh    = "HIGH"
	ConvictionMedium  = "MEDIUM"
	ConvictionLow     = "LOW"
)

// Trade durations.
const (
	DurationCashflow = "CASHFLOW"
	DurationSwing    = "SWING"
	DurationLongterm = "LONGTERM"
	DurationLotto    = "LOTTO"
)

// Position sizes.
const (
	SizeFullDouble = "FULL_DOUBLE"
	SizeFull       = "FULL"
	SizeHalf       = "HALF"
	SizeQuarter    = "QUARTER"
	SizeSmall      = "SMALL"
	SizeTiny       = "TINY"
)

// Market bias values.
const (
	BiasBullish  = "BULLISH"
	BiasBearish  = "BEARISH"
	BiasNeutral  = "NEUTRAL"
	BiasCautious = "CAUTIOUS"
	BiasMixed    = "MIXED"
)

// Enum membership sets used by the schema-type validators.
var (
	Directions    = []string{DirectionLong, DirectionShort}
	Convictions   = []string{ConvictionBigIdea, ConvictionHigh, ConvictionMedium, ConvictionLow}
	Durations     = []string{DurationCashflow, DurationSwing, DurationLongterm, DurationLotto}
	PositionSizes = []string{SizeFullDouble, SizeFull, SizeHalf, SizeQuarter, SizeSmall, SizeTiny}
	Biases        = []string{BiasBullish, BiasBearish, BiasNeutral, BiasCautious, BiasMixed}
	Acceptances   = []string{"BACKTEST", "RECLAIM", "BOTH"}
)

// Contains reports whether set includes v.
func Contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

package levels

// Level type names.
const (
	TypeStructure      = "STRUCTURE"
	TypePriorHighLow   = "PRIOR_HIGH_LOW"
	TypePivot          = "PIVOT"
	TypeFibonacci      = "FIBONACCI"
	TypeMovingAverage  = "MOVING_AVERAGE"
	TypeVWAP           = "VWAP"
	TypeRoundNumber    = "ROUND_NUMBER"
	TypeVolumeProfile  = "VOLUME_PROFILE"
	TypeEntry          = "ENTRY"
	TypeTarget         = "TARGET"
	TypeStop           = "STOP"
	TypeRange          = "RANGE"
	TypeControlLine    = "CONTROL_LINE"
	TypeDecisionPoint  = "DECISION_POINT"
	TypeSetup          = "SETUP"
	TypeMacroResist    = "MACRO_RESISTANCE"
	TypeMajorResist    = "MAJOR_RESISTANCE"
	TypeMinorResist    = "MINOR_RESISTANCE"
	TypeMinorSupport   = "MINOR_SUPPORT"
	TypeMajorSupport   = "MAJOR_SUPPORT"
	TypeMacroSupport   = "MACRO_SUPPORT"
)

// Level source names.
const (
	SourceDP         = "DP"
	SourceMancini    = "MANCINI"
	SourceUser       = "USER"
	SourceHistorical = "HISTORICAL"
	SourceComputed   = "COMPUTED"
)

// typeWeights scores how structurally meaningful a level type is. Types
// not listed score as STRUCTURE.
var typeWeights = map[string]float64{
	TypeStructure:     1.0,
	TypePriorHighLow:  0.9,
	TypePivot:         0.8,
	TypeFibonacci:     0.7,
	TypeMovingAverage: 0.7,
	TypeVWAP:          0.6,
	TypeRoundNumber:   0.5,
	TypeVolumeProfile: 0.8,
}

// sourceWeights scores source credibility. Unknown sources score as
// COMPUTED.
var sourceWeights = map[string]float64{
	SourceDP:         1.0,
	SourceMancini:    1.0,
	SourceUser:       0.8,
	SourceHistorical: 0.7,
	SourceComputed:   0.6,
}

// roundingFactors is the tick size per instrument for snapping prices.
var roundingFactors = map[string]float64{
	"SPX":  1.0,
	"ES":   0.25,
	"TSLA": 0.5,
	"AAPL": 0.25,
	"QQQ":  0.1,
	"SPY":  0.1,
}

const defaultRoundingFactor = 0.1

// confluenceTolerances is the max distance between rounded prices that
// still counts as the same zone.
var confluenceTolerances = map[string]float64{
	"SPX": 5.0,
	"ES":  1.0,
}

const defaultConfluenceTolerance = 0.5

// categoryLimits caps each ranked output category.
var categoryLimits = map[string]int{
	"MACRO_RESISTANCE": 3,
	"MAJOR_RESISTANCE": 5,
	"MINOR_RESISTANCE": 7,
	"MINOR_SUPPORT":    7,
	"MAJOR_SUPPORT":    5,
	"MACRO_SUPPORT":    3,
}

// roundNumberThreshold is the combined level count below which synthetic
// round numbers are generated.
const roundNumberThreshold = 20

// TypeWeight returns the weight for a level type.
func TypeWeight(levelType string) float64 {
	if w, ok := typeWeights[levelType]; ok {
		return w
	}
	return typeWeights[TypeStructure]
}

// SourceWeight returns the credibility weight for a source.
func SourceWeight(source string) float64 {
	if w, ok := sourceWeights[source]; ok {
		return w
	}
	return sourceWeights[SourceComputed]
}

// RoundingFactor returns the tick size for a symbol.
func RoundingFactor(symbol string) float64 {
	if f, ok := roundingFactors[symbol]; ok {
		return f
	}
	return defaultRoundingFactor
}

// ConfluenceTolerance returns the confluence distance for a symbol.
func ConfluenceTolerance(symbol string) float64 {
	if t, ok := confluenceTolerances[symbol]; ok {
		return t
	}
	return defaultConfluenceTolerance
}

func categoryLimit(category string, fallback int) int {
	if n, ok := categoryLimits[category]; ok {
		return n
	}
	return fallback
}

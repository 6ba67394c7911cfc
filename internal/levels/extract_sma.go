package levels

import (
	"fmt"

	"TradePlan/pkg/util"
)

// smaPeriods maps moving-average period names to confidence, longer
// lookbacks carrying more weight.
var smaPeriods = []struct {
	period     string
	confidence float64
}{
	{"8", 0.6},
	{"21", 0.7},
	{"34", 0.75},
	{"50", 0.8},
	{"100", 0.85},
	{"200", 0.9},
}

// ExtractSMA pulls moving-average and VWAP levels for one symbol out of a
// per-ticker SMA document.
func ExtractSMA(smaData map[string]interface{}, symbol string) []Level {
	maData, _ := smaData[symbol].(map[string]interface{})
	if maData == nil {
		return nil
	}

	var out []Level
	for _, entry := range smaPeriods {
		value, ok := util.ParseNumber(maData[entry.period])
		if !ok {
			continue
		}
		out = append(out, New(Spec{
			Price:      value,
			Context:    fmt.Sprintf("%s SMA", entry.period),
			Type:       TypeMovingAverage,
			Source:     SourceComputed,
			Symbol:     symbol,
			Confidence: entry.confidence,
		}))
	}

	if value, ok := util.ParseNumber(maData["vwap"]); ok {
		out = append(out, New(Spec{
			Price:      value,
			Context:    "VWAP",
			Type:       TypeVWAP,
			Source:     SourceComputed,
			Symbol:     symbol,
			Confidence: 0.8,
		}))
	}
	if value, ok := util.ParseNumber(maData["avwap"]); ok {
		out = append(out, New(Spec{
			Price:      value,
			Context:    "Anchored VWAP",
			Type:       TypeVWAP,
			Source:     SourceComputed,
			Symbol:     symbol,
			Confidence: 0.85,
		}))
	}

	return out
}

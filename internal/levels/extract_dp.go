package levels

import (
	"fmt"
	"strings"

	"TradePlan/pkg/util"
)

// ExtractDP pulls levels out of a DP analysis document. Malformed
// substructures are skipped; whatever extracted cleanly is returned.
func ExtractDP(doc map[string]interface{}, symbol string) []Level {
	if symbol == "" {
		symbol = "SPX"
	}
	var out []Level

	if bias, ok := doc["MARKET_BIAS"].(map[string]interface{}); ok {
		if keyLevels, ok := bias["key_levels"].(map[string]interface{}); ok {
			// SPX index levels are always relevant
			out = append(out, keyLevelEntries(keyLevels["SPX"], "SPX")...)
			if symbol == "ES" {
				out = append(out, keyLevelEntries(keyLevels["ES"], "ES")...)
			}
		}
	}

	trades, _ := doc["TRADE_DATA"].([]interface{})
	for _, item := range trades {
		trade, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		ticker, _ := trade["ticker"].(string)
		if ticker != symbol && !(symbol == "SPX" && ticker == "SPY") {
			continue
		}

		levels, _ := trade["levels"].(map[string]interface{})
		if levels == nil {
			continue
		}
		direction, _ := trade["direction"].(string)
		direction = strings.ToLower(direction)
		confidence := dpConfidence(trade["conviction"])

		for _, entry := range asSlice(levels["entry"]) {
			if price, ok := util.ExtractNumber(stringify(entry)); ok {
				out = append(out, New(Spec{
					Price:      price,
					Context:    fmt.Sprintf("DP %s entry", direction),
					Type:       TypeEntry,
					Source:     SourceDP,
					Symbol:     symbol,
					Confidence: confidence,
				}))
			}
		}
		for i, target := range asSlice(levels["targets"]) {
			if price, ok := util.ExtractNumber(stringify(target)); ok {
				out = append(out, New(Spec{
					Price:      price,
					Context:    fmt.Sprintf("DP %s T%d", direction, i+1),
					Type:       TypeTarget,
					Source:     SourceDP,
					Symbol:     symbol,
					Confidence: confidence * 0.9,
				}))
			}
		}
		for _, stop := range asSlice(levels["stops"]) {
			if price, ok := util.ExtractNumber(stringify(stop)); ok {
				out = append(out, New(Spec{
					Price:      price,
					Context:    fmt.Sprintf("DP %s stop", direction),
					Type:       TypeStop,
					Source:     SourceDP,
					Symbol:     symbol,
					Confidence: confidence * 0.8,
				}))
			}
		}
	}

	return out
}

// keyLevelEntries maps a key_levels array to STRUCTURE levels at 0.9
// confidence.
func keyLevelEntries(raw interface{}, symbol string) []Level {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []Level
	for _, item := range items {
		price, ok := util.ParseNumber(item)
		if !ok {
			continue
		}
		out = append(out, New(Spec{
			Price:      price,
			Type:       TypeStructure,
			Source:     SourceDP,
			Symbol:     symbol,
			Confidence: 0.9,
		}))
	}
	return out
}

// dpConfidence maps a DP conviction value, which may be a bare string or
// an object carrying a level field, to a confidence score.
func dpConfidence(conviction interface{}) float64 {
	if conviction == nil {
		return 0.5
	}
	if obj, ok := conviction.(map[string]interface{}); ok {
		if level, present := obj["level"]; present {
			conviction = level
		}
	}
	switch strings.ToUpper(stringify(conviction)) {
	case "BIG_IDEA":
		return 1.0
	case "HIGH":
		return 0.9
	case "MEDIUM":
		return 0.7
	default:
		return 0.5
	}
}

func asSlice(v interface{}) []interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return t
	default:
		return []interface{}{t}
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

package levels

import (
	"fmt"
	"strings"

	"TradePlan/pkg/util"
)

// srCategory describes one support_resistance section of a Mancini
// document.
type srCategory struct {
	key        string
	levelType  string
	context    string
	confidence float64
}

var srCategories = []srCategory{
	{"macro_resistance", TypeMacroResist, "Macro resistance", 0.95},
	{"major_resistance", TypeMajorResist, "Major resistance", 0.9},
	{"minor_resistance", TypeMinorResist, "Minor resistance", 0.8},
	{"minor_support", TypeMinorSupport, "Minor support", 0.8},
	{"major_support", TypeMajorSupport, "Major support", 0.9},
	{"macro_support", TypeMacroSupport, "Macro support", 0.95},
}

// ExtractMancini pulls levels out of a Mancini analysis document. Mancini
// publishes ES-denominated figures; when the target symbol is SPX every
// price is shifted by the conversion factor, taken from the document
// metadata when present or from defaultConversion otherwise.
func ExtractMancini(doc map[string]interface{}, symbol string, defaultConversion float64) []Level {
	if symbol == "" {
		symbol = "SPX"
	}

	conversion := defaultConversion
	tech, _ := doc["TECHNICAL_DATA"].(map[string]interface{})
	if symbol == "SPX" && tech != nil {
		if meta, ok := tech["metadata"].(map[string]interface{}); ok {
			if factor, ok := util.ParseNumber(meta["es_to_spx_conversion"]); ok {
				conversion = factor
			}
		}
	}

	convert := func(v interface{}) (float64, bool) {
		price, ok := util.ParseNumber(v)
		if !ok {
			return 0, false
		}
		if symbol == "SPX" {
			price += conversion
		}
		return price, true
	}

	var out []Level
	add := func(price float64, context, levelType string, confidence float64) {
		out = append(out, New(Spec{
			Price:      price,
			Context:    context,
			Type:       levelType,
			Source:     SourceMancini,
			Symbol:     symbol,
			Confidence: confidence,
		}))
	}

	if sr, ok := tech["support_resistance"].(map[string]interface{}); ok {
		for _, cat := range srCategories {
			items, _ := sr[cat.key].([]interface{})
			for _, item := range items {
				obj, _ := item.(map[string]interface{})
				if obj == nil {
					continue
				}
				price, ok := convert(obj["level"])
				if !ok {
					continue
				}
				context := cat.context
				if s, ok := obj["context"].(string); ok && s != "" {
					context = s
				}
				add(price, context, cat.levelType, cat.confidence)
			}
		}

		if tr, ok := sr["trading_range"].(map[string]interface{}); ok {
			if price, ok := convert(tr["high"]); ok {
				add(price, "Trading range high", TypeRange, 0.85)
			}
			if price, ok := convert(tr["low"]); ok {
				add(price, "Trading range low", TypeRange, 0.85)
			}
		}
	}

	if cl, ok := tech["control_lines"].(map[string]interface{}); ok {
		for _, item := range asSlice(cl["bull_above"]) {
			if price, context, ok := controlLine(item, "Bull control line", convert); ok {
				add(price, context, TypeControlLine, 0.95)
			}
		}
		for _, item := range asSlice(cl["bear_below"]) {
			if price, context, ok := controlLine(item, "Bear control line", convert); ok {
				add(price, context, TypeControlLine, 0.95)
			}
		}
		if dp, present := cl["decision_point"]; present && dp != nil {
			if price, context, ok := controlLine(dp, "Decision point", convert); ok {
				add(price, context, TypeDecisionPoint, 1.0)
			}
		}
	}

	if setups, ok := doc["TRADE_SETUPS"].(map[string]interface{}); ok {
		items, _ := setups["setups"].([]interface{})
		for _, item := range items {
			setup, _ := item.(map[string]interface{})
			if setup == nil {
				continue
			}
			setupType := stringify(setup["type"])
			if setupType == "" {
				setupType = "Setup"
			}
			direction := stringify(setup["direction"])
			confidence := manciniConfidence(setup["conviction"])

			if price, ok := convert(setup["primary_level"]); ok {
				add(price, fmt.Sprintf("%s %s primary level", setupType, direction), TypeSetup, confidence)
			}

			if exec, ok := setup["execution"].(map[string]interface{}); ok {
				targets, _ := exec["targets"].([]interface{})
				for i, target := range targets {
					if price, ok := convert(target); ok {
						add(price, fmt.Sprintf("%s %s T%d", setupType, direction, i+1), TypeTarget, confidence*0.9)
					}
				}
				if price, ok := convert(exec["stop"]); ok {
					add(price, fmt.Sprintf("%s %s stop", setupType, direction), TypeStop, confidence*0.8)
				}
			}
		}
	}

	return out
}

// controlLine handles items that arrive as bare values or as objects with
// level and context fields, pulling the first numeric run out of the
// value before conversion.
func controlLine(item interface{}, fallback string, convert func(interface{}) (float64, bool)) (float64, string, bool) {
	context := fallback
	value := item
	if obj, ok := item.(map[string]interface{}); ok {
		if level, present := obj["level"]; present {
			value = level
		}
		if s, ok := obj["context"].(string); ok && s != "" {
			context = s
		}
	}
	raw, ok := util.ExtractNumber(stringify(value))
	if !ok {
		return 0, "", false
	}
	price, ok := convert(raw)
	if !ok {
		return 0, "", false
	}
	return price, context, true
}

func manciniConfidence(conviction interface{}) float64 {
	switch strings.ToUpper(stringify(conviction)) {
	case "HIGH":
		return 0.9
	case "MEDIUM":
		return 0.7
	default:
		return 0.5
	}
}

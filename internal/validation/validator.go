package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"TradePlan/internal/domain/models"
	"TradePlan/internal/domain/repository"
	"TradePlan/internal/params"
	"TradePlan/pkg/logger"
)

// TypeValidator runs the hand-written per-document-type checks. These are
// deliberately stricter and more opinionated than the structural schema
// pass; error strings are stable because downstream tooling greps them.
type TypeValidator struct {
	params  *params.Store
	audit   *logger.AuditSink
	metrics repository.Metrics
}

// TypeValidatorOption configures a TypeValidator.
type TypeValidatorOption func(*TypeValidator)

// WithAuditSink mirrors failures into the audit log.
func WithAuditSink(sink *logger.AuditSink) TypeValidatorOption {
	return func(v *TypeValidator) { v.audit = sink }
}

// WithMetrics records validation outcomes.
func WithMetrics(m repository.Metrics) TypeValidatorOption {
	return func(v *TypeValidator) { v.metrics = m }
}

// NewTypeValidator creates a validator backed by the parameter store.
func NewTypeValidator(store *params.Store, opts ...TypeValidatorOption) *TypeValidator {
	v := &TypeValidator{params: store}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// typeCheckers dispatches the detailed per-type pass.
var typeCheckers = map[string]func(*TypeValidator, map[string]interface{}) []string{
	"DP":         (*TypeValidator).checkDP,
	"MANCINI":    (*TypeValidator).checkMancini,
	"TRADE_IDEA": (*TypeValidator).checkTradeIdea,
}

// Validate checks one analysis document against the rules for its schema
// type. Gate checks short-circuit; the detailed pass accumulates every
// finding.
func (v *TypeValidator) Validate(data map[string]interface{}, schemaType string) models.TypeCheckResult {
	result := v.validate(data, schemaType)

	if v.metrics != nil {
		v.metrics.RecordValidation(schemaType, result.Valid)
	}
	if !result.Valid && v.audit != nil {
		v.audit.Record(logger.AuditEntry{
			Schema: schemaType,
			Source: models.SourceSchemaValidation,
			Errors: result.Errors,
		})
	}
	return result
}

func (v *TypeValidator) validate(data map[string]interface{}, schemaType string) models.TypeCheckResult {
	if data == nil {
		return invalid("Data is null or undefined")
	}

	required, ok := v.params.RequiredFields(schemaType)
	if !ok {
		return invalid(fmt.Sprintf("Unknown schema type: %s", schemaType))
	}

	var missing []string
	for _, field := range required {
		if !truthy(data[field]) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return invalid(fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")))
	}

	version := ""
	if meta, ok := data["metadata"].(map[string]interface{}); ok {
		if !truthy(meta["source"]) {
			return invalid("Metadata missing source field")
		}
		if !truthy(meta["timestamp"]) {
			return invalid("Metadata missing timestamp field")
		}
		if !truthy(meta["version"]) {
			return invalid("Metadata missing version field")
		}
		version = asString(meta["version"])
		if expected := v.params.SchemaVersion(); version != expected {
			return invalid(fmt.Sprintf("Schema version mismatch. Expected: %s, Found: %s", expected, version))
		}
	}

	if raw, err := json.Marshal(data); err == nil {
		if limit := v.params.MaxJSONSize(); len(raw) > limit {
			return invalid(fmt.Sprintf("JSON data too large: %d bytes exceed limit of %d bytes", len(raw), limit))
		}
	}

	checker, ok := typeCheckers[schemaType]
	if !ok {
		return invalid("Unknown schema type for detailed validation")
	}
	if errs := checker(v, data); len(errs) > 0 {
		return models.TypeCheckResult{Valid: false, Errors: errs}
	}

	if version == "" {
		version = "unknown"
	}
	return models.TypeCheckResult{
		Valid:   true,
		Errors:  []string{},
		Message: fmt.Sprintf("Valid %s schema (v%s)", schemaType, version),
	}
}

func (v *TypeValidator) checkDP(data map[string]interface{}) []string {
	var errs []string

	if raw, present := data["TRADE_DATA"]; present && truthy(raw) {
		trades, ok := raw.([]interface{})
		if !ok {
			errs = append(errs, "TRADE_DATA must be an array")
		} else {
			for i, item := range trades {
				trade, _ := item.(map[string]interface{})
				errs = append(errs, checkTradeCommon(trade, i)...)

				if truthy(trade["duration"]) && !models.Contains(models.Durations, asString(trade["duration"])) {
					errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Invalid duration: %s", i, asString(trade["duration"])))
				}
			}
		}
	}

	if bias, ok := data["MARKET_BIAS"].(map[string]interface{}); ok {
		if !truthy(bias["overall"]) {
			errs = append(errs, "MARKET_BIAS: Missing overall field")
		} else if !models.Contains(models.Biases, asString(bias["overall"])) {
			errs = append(errs, fmt.Sprintf("MARKET_BIAS: Invalid overall value: %s", asString(bias["overall"])))
		}

		if keyLevels, ok := bias["key_levels"].(map[string]interface{}); ok {
			for _, index := range []string{"SPX", "QQQ", "SPY", "ES", "VIX"} {
				raw, present := keyLevels[index]
				if !present || !truthy(raw) {
					continue
				}
				if _, ok := raw.([]interface{}); !ok {
					errs = append(errs, fmt.Sprintf("MARKET_BIAS.key_levels.%s must be an array", index))
				}
			}
		}
	}

	return errs
}

func (v *TypeValidator) checkMancini(data map[string]interface{}) []string {
	var errs []string

	if meta, ok := data["metadata"].(map[string]interface{}); ok {
		if asString(meta["source"]) == "mancini" && !truthy(meta["es_to_spx_conversion"]) {
			errs = append(errs, "Mancini metadata missing es_to_spx_conversion factor")
		}
	}

	if tech, ok := data["TECHNICAL_DATA"].(map[string]interface{}); ok {
		for _, field := range []string{"market_structure", "control_lines", "levels", "support_resistance"} {
			if !truthy(tech[field]) {
				errs = append(errs, fmt.Sprintf("TECHNICAL_DATA missing %s field", field))
			}
		}
	}

	if raw, present := data["TRADE_DATA"]; present && truthy(raw) {
		trades, ok := raw.([]interface{})
		if !ok {
			errs = append(errs, "TRADE_DATA must be an array")
		} else {
			for i, item := range trades {
				trade, _ := item.(map[string]interface{})
				if !truthy(trade["ticker"]) {
					errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Missing ticker", i))
				}
				if !truthy(trade["direction"]) {
					errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Missing direction", i))
				}
				if !truthy(trade["confidence"]) {
					errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Missing confidence", i))
				}
				if !truthy(trade["setup_type"]) {
					errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Missing setup_type", i))
				}

				if acceptance, ok := trade["acceptance"].(map[string]interface{}); ok {
					if !truthy(acceptance["type"]) {
						errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Missing acceptance.type", i))
					} else if !models.Contains(models.Acceptances, asString(acceptance["type"])) {
						errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Invalid acceptance.type: %s", i, asString(acceptance["type"])))
					}
				}
			}
		}
	}

	if analysis, ok := data["MARKET_ANALYSIS"].(map[string]interface{}); ok {
		for _, field := range []string{"previous_session", "next_session_outlook", "invalidation_signals"} {
			if !truthy(analysis[field]) {
				errs = append(errs, fmt.Sprintf("MARKET_ANALYSIS missing %s field", field))
			}
		}
	}

	return errs
}

func (v *TypeValidator) checkTradeIdea(data map[string]interface{}) []string {
	var errs []string

	for _, field := range []string{"ticker", "direction", "confidence", "duration", "levels"} {
		if !truthy(data[field]) {
			errs = append(errs, "Missing "+field)
		}
	}

	if truthy(data["direction"]) && !models.Contains(models.Directions, asString(data["direction"])) {
		errs = append(errs, fmt.Sprintf("Invalid direction: %s", asString(data["direction"])))
	}
	if truthy(data["confidence"]) && !models.Contains(models.Convictions, asString(data["confidence"])) {
		errs = append(errs, fmt.Sprintf("Invalid confidence: %s", asString(data["confidence"])))
	}
	if truthy(data["duration"]) && !models.Contains(models.Durations, asString(data["duration"])) {
		errs = append(errs, fmt.Sprintf("Invalid duration: %s", asString(data["duration"])))
	}
	if truthy(data["position_size"]) && !models.Contains(models.PositionSizes, asString(data["position_size"])) {
		errs = append(errs, fmt.Sprintf("Invalid position_size: %s", asString(data["position_size"])))
	}

	if levels, ok := data["levels"].(map[string]interface{}); ok {
		if !truthy(levels["entry"]) {
			errs = append(errs, "Missing levels.entry")
		}
		if !truthy(levels["target"]) {
			errs = append(errs, "Missing levels.target")
		}
		if !truthy(levels["stop"]) {
			errs = append(errs, "Missing levels.stop")
		}
	}

	return errs
}

// checkTradeCommon covers the per-trade fields shared by the trade lists.
func checkTradeCommon(trade map[string]interface{}, index int) []string {
	var errs []string

	for _, field := range []string{"ticker", "direction", "confidence", "duration", "position_size", "levels"} {
		if !truthy(trade[field]) {
			errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Missing %s", index, field))
		}
	}

	if truthy(trade["direction"]) && !models.Contains(models.Directions, asString(trade["direction"])) {
		errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Invalid direction: %s", index, asString(trade["direction"])))
	}
	if truthy(trade["confidence"]) && !models.Contains(models.Convictions, asString(trade["confidence"])) {
		errs = append(errs, fmt.Sprintf("TRADE_DATA[%d]: Invalid confidence: %s", index, asString(trade["confidence"])))
	}

	return errs
}

func invalid(msg string) models.TypeCheckResult {
	return models.TypeCheckResult{Valid: false, Errors: []string{msg}}
}

// truthy applies loose presence semantics: nil, empty string, zero and
// false count as absent; empty arrays and objects do not.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case float32:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

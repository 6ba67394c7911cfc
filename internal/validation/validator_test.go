package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"TradePlan/internal/params"
)

const testParamsYAML = `
POSITION_SIZE_MATRIX:
  BIG_IDEA:
    CASHFLOW: FULL_DOUBLE
    SWING: FULL_DOUBLE
    LONGTERM: FULL
    LOTTO: SMALL
  HIGH:
    CASHFLOW: FULL
    SWING: FULL
    LONGTERM: HALF
    LOTTO: SMALL
  MEDIUM:
    CASHFLOW: HALF
    SWING: HALF
    LONGTERM: QUARTER
    LOTTO: TINY
  LOW:
    CASHFLOW: QUARTER
    SWING: QUARTER
    LONGTERM: QUARTER
    LOTTO: TINY

MARKET_CONVERSION_FACTORS:
  ES_TO_SPX_CONVERSION: -20

VALIDATION_PARAMETERS:
  REQUIRED_SCHEMA_FIELDS:
    DP:
      - metadata
      - TRADE_DATA
      - MARKET_BIAS
    MANCINI:
      - metadata
      - TECHNICAL_DATA
      - MARKET_ANALYSIS
    TRADE_IDEA:
      - ticker
      - direction
      - confidence
      - duration
      - levels
  MAX_JSON_SIZE: 1048576

SCHEMA_VERSIONS:
  TRADE_DATA_SCHEMA_VERSION: "1.0"
`

func testStore(t *testing.T) *params.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system-parameters.yaml")
	if err := os.WriteFile(path, []byte(testParamsYAML), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}
	return params.NewStore(path)
}

func validMetadata(source string) map[string]interface{} {
	return map[string]interface{}{
		"source":    source,
		"timestamp": "2026-08-28T12:00:00Z",
		"version":   "1.0",
	}
}

func validDPTrade() map[string]interface{} {
	return map[string]interface{}{
		"ticker":        "SPX",
		"direction":     "LONG",
		"confidence":    "HIGH",
		"duration":      "CASHFLOW",
		"position_size": "FULL",
		"levels": map[string]interface{}{
			"entry": []interface{}{6100.0},
		},
	}
}

func validDPDocument() map[string]interface{} {
	return map[string]interface{}{
		"metadata":   validMetadata("dp"),
		"TRADE_DATA": []interface{}{validDPTrade()},
		"MARKET_BIAS": map[string]interface{}{
			"overall": "BULLISH",
		},
	}
}

func hasError(errs []string, want string) bool {
	for _, e := range errs {
		if e == want {
			return true
		}
	}
	return false
}

func TestValidateNilData(t *testing.T) {
	v := NewTypeValidator(testStore(t))
	res := v.Validate(nil, "DP")
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if !hasError(res.Errors, "Data is null or undefined") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateUnknownSchemaType(t *testing.T) {
	v := NewTypeValidator(testStore(t))
	res := v.Validate(map[string]interface{}{"x": 1.0}, "FOO")
	if res.Valid || !hasError(res.Errors, "Unknown schema type: FOO") {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestValidateMissingRequiredFields(t *testing.T) {
	v := NewTypeValidator(testStore(t))
	res := v.Validate(map[string]interface{}{"metadata": validMetadata("dp")}, "DP")
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if !hasError(res.Errors, "Missing required fields: TRADE_DATA, MARKET_BIAS") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateMetadataGates(t *testing.T) {
	v := NewTypeValidator(testStore(t))

	doc := validDPDocument()
	doc["metadata"] = map[string]interface{}{"timestamp": "x", "version": "1.0"}
	res := v.Validate(doc, "DP")
	if !hasError(res.Errors, "Metadata missing source field") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}

	doc = validDPDocument()
	doc["metadata"] = map[string]interface{}{"source": "dp", "timestamp": "x", "version": "2.0"}
	res = v.Validate(doc, "DP")
	if !hasError(res.Errors, "Schema version mismatch. Expected: 1.0, Found: 2.0") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateDPDocument(t *testing.T) {
	v := NewTypeValidator(testStore(t))

	res := v.Validate(validDPDocument(), "DP")
	if !res.Valid {
		t.Fatalf("expected valid, got %v", res.Errors)
	}
	if res.Message != "Valid DP schema (v1.0)" {
		t.Fatalf("unexpected message: %s", res.Message)
	}
}

func TestValidateDPTradeErrors(t *testing.T) {
	v := NewTypeValidator(testStore(t))

	doc := validDPDocument()
	trade := validDPTrade()
	trade["direction"] = "SIDEWAYS"
	delete(trade, "position_size")
	doc["TRADE_DATA"] = []interface{}{trade}

	res := v.Validate(doc, "DP")
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if !hasError(res.Errors, "TRADE_DATA[0]: Missing position_size") {
		t.Fatalf("missing position_size error, got %v", res.Errors)
	}
	if !hasError(res.Errors, "TRADE_DATA[0]: Invalid direction: SIDEWAYS") {
		t.Fatalf("missing direction error, got %v", res.Errors)
	}
}

func TestValidateDPKeyLevels(t *testing.T) {
	v := NewTypeValidator(testStore(t))

	doc := validDPDocument()
	doc["MARKET_BIAS"] = map[string]interface{}{
		"overall": "BULLISH",
		"key_levels": map[string]interface{}{
			"SPX": []interface{}{6100.0},
			"ES":  "6120",
		},
	}

	res := v.Validate(doc, "DP")
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if !hasError(res.Errors, "MARKET_BIAS.key_levels.ES must be an array") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateManciniDocument(t *testing.T) {
	v := NewTypeValidator(testStore(t))

	doc := map[string]interface{}{
		"metadata": map[string]interface{}{
			"source":    "mancini",
			"timestamp": "2026-08-28T12:00:00Z",
			"version":   "1.0",
		},
		"TECHNICAL_DATA": map[string]interface{}{
			"market_structure": "uptrend",
			"control_lines":    map[string]interface{}{},
			"levels":           map[string]interface{}{},
		},
		"MARKET_ANALYSIS": map[string]interface{}{
			"previous_session":     "rally",
			"next_session_outlook": "higher",
		},
		"TRADE_DATA": []interface{}{
			map[string]interface{}{
				"ticker":     "ES",
				"direction":  "LONG",
				"confidence": "HIGH",
				"acceptance": map[string]interface{}{"type": "RETEST"},
			},
		},
	}

	res := v.Validate(doc, "MANCINI")
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	for _, want := range []string{
		"Mancini metadata missing es_to_spx_conversion factor",
		"TECHNICAL_DATA missing support_resistance field",
		"TRADE_DATA[0]: Missing setup_type",
		"TRADE_DATA[0]: Invalid acceptance.type: RETEST",
		"MARKET_ANALYSIS missing invalidation_signals field",
	} {
		if !hasError(res.Errors, want) {
			t.Fatalf("expected %q in %v", want, res.Errors)
		}
	}
}

func TestValidateTradeIdea(t *testing.T) {
	v := NewTypeValidator(testStore(t))

	doc := map[string]interface{}{
		"ticker":        "TSLA",
		"direction":     "SHORT",
		"confidence":    "MEDIUM",
		"duration":      "SWING",
		"position_size": "DOUBLE",
		"levels": map[string]interface{}{
			"entry":  250.0,
			"target": 240.0,
		},
	}

	res := v.Validate(doc, "TRADE_IDEA")
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if !hasError(res.Errors, "Invalid position_size: DOUBLE") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if !hasError(res.Errors, "Missing levels.stop") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

func TestValidateSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system-parameters.yaml")
	small := strings.Replace(testParamsYAML, "MAX_JSON_SIZE: 1048576", "MAX_JSON_SIZE: 64", 1)
	if err := os.WriteFile(path, []byte(small), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}
	v := NewTypeValidator(params.NewStore(path))

	res := v.Validate(validDPDocument(), "DP")
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if len(res.Errors) != 1 || !strings.HasPrefix(res.Errors[0], "JSON data too large: ") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
	if !strings.HasSuffix(res.Errors[0], "bytes exceed limit of 64 bytes") {
		t.Fatalf("unexpected errors: %v", res.Errors)
	}
}

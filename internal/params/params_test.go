package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testParams = `
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
  SPX_TO_SPY_DIVISOR: 10

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

func writeParams(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system-parameters.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}
	return path
}

func TestPositionSizeMatrix(t *testing.T) {
	s := NewStore(writeParams(t, testParams))

	if got := s.PositionSize("BIG_IDEA", "CASHFLOW"); got != "FULL_DOUBLE" {
		t.Fatalf("expected FULL_DOUBLE, got %s", got)
	}
	if got := s.PositionSize("HIGH", "LONGTERM"); got != "HALF" {
		t.Fatalf("expected HALF, got %s", got)
	}
	if got := s.PositionSize("UNKNOWN", "CASHFLOW"); got != "QUARTER" {
		t.Fatalf("expected QUARTER fallback, got %s", got)
	}
	if got := s.PositionSize("HIGH", "UNKNOWN"); got != "QUARTER" {
		t.Fatalf("expected QUARTER fallback, got %s", got)
	}
	if _, ok := s.MatrixLookup("HIGH", "UNKNOWN"); ok {
		t.Fatalf("expected missing matrix entry")
	}
}

func TestConvertESToSPX(t *testing.T) {
	s := NewStore(writeParams(t, testParams))
	if got := s.ConvertESToSPX(6120); got != 6100 {
		t.Fatalf("expected 6100, got %v", got)
	}
}

func TestDefaultsWhenFileMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent.yaml"))

	if got := s.ESToSPXConversion(); got != -20 {
		t.Fatalf("expected default -20, got %v", got)
	}
	if got := s.MaxJSONSize(); got != 1048576 {
		t.Fatalf("expected default size limit, got %d", got)
	}
	if got := s.SchemaVersion(); got != "1.0" {
		t.Fatalf("expected default version, got %s", got)
	}
	if got := s.PositionSize("HIGH", "SWING"); got != "QUARTER" {
		t.Fatalf("expected QUARTER fallback, got %s", got)
	}
}

func TestRequiredFields(t *testing.T) {
	s := NewStore(writeParams(t, testParams))

	fields, ok := s.RequiredFields("DP")
	if !ok {
		t.Fatalf("expected DP fields")
	}
	if len(fields) != 3 || fields[1] != "TRADE_DATA" {
		t.Fatalf("unexpected DP fields: %v", fields)
	}
	if _, ok := s.RequiredFields("BOGUS"); ok {
		t.Fatalf("expected unknown schema type")
	}
}

func TestTTLReload(t *testing.T) {
	path := writeParams(t, testParams)

	clock := time.Now()
	s := NewStore(path, WithTTL(time.Minute), WithClock(func() time.Time { return clock }))

	if got := s.ESToSPXConversion(); got != -20 {
		t.Fatalf("expected -20, got %v", got)
	}

	updated := `
MARKET_CONVERSION_FACTORS:
  ES_TO_SPX_CONVERSION: -25
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite params: %v", err)
	}

	// still inside the TTL window
	if got := s.ESToSPXConversion(); got != -20 {
		t.Fatalf("expected cached -20, got %v", got)
	}

	clock = clock.Add(2 * time.Minute)
	if got := s.ESToSPXConversion(); got != -25 {
		t.Fatalf("expected reloaded -25, got %v", got)
	}
}

func TestForceReload(t *testing.T) {
	path := writeParams(t, testParams)
	s := NewStore(path)

	if got := s.ESToSPXConversion(); got != -20 {
		t.Fatalf("expected -20, got %v", got)
	}
	if err := os.WriteFile(path, []byte("MARKET_CONVERSION_FACTORS:\n  ES_TO_SPX_CONVERSION: -15\n"), 0o644); err != nil {
		t.Fatalf("rewrite params: %v", err)
	}
	if _, err := s.ForceReload(); err != nil {
		t.Fatalf("force reload: %v", err)
	}
	if got := s.ESToSPXConversion(); got != -15 {
		t.Fatalf("expected -15 after reload, got %v", got)
	}
}

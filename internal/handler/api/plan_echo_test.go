package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"TradePlan/internal/params"
	"TradePlan/internal/schema"
	"TradePlan/internal/usecase"
	"TradePlan/internal/validation"
	"TradePlan/pkg/cache"
	"TradePlan/pkg/logger"
)

const dpSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "DP Trade Data",
  "type": "object",
  "required": ["metadata", "TRADE_DATA", "MARKET_BIAS"],
  "properties": {
    "metadata": {"type": "object", "description": "Document provenance"},
    "TRADE_DATA": {"type": "array"},
    "MARKET_BIAS": {"type": "object"}
  }
}`

const manciniSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["metadata", "TECHNICAL_DATA", "MARKET_ANALYSIS"],
  "properties": {
    "metadata": {"type": "object"},
    "TECHNICAL_DATA": {"type": "object"},
    "MARKET_ANALYSIS": {"type": "object"}
  }
}`

const paramsYAML = `
POSITION_SIZE_MATRIX:
  HIGH:
    CASHFLOW: FULL
VALIDATION_PARAMETERS:
  REQUIRED_SCHEMA_FIELDS:
    DP:
      - metadata
      - TRADE_DATA
      - MARKET_BIAS
  MAX_JSON_SIZE: 1048576
SCHEMA_VERSIONS:
  TRADE_DATA_SCHEMA_VERSION: "1.0"
`

func testHandler(t *testing.T) *PlanEchoHandler {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		usecase.SchemaDP + ".json":      dpSchemaJSON,
		usecase.SchemaMancini + ".json": manciniSchemaJSON,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write schema: %v", err)
		}
	}
	paramsPath := filepath.Join(dir, "system-parameters.yaml")
	if err := os.WriteFile(paramsPath, []byte(paramsYAML), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}

	store := params.NewStore(paramsPath)
	registry := schema.NewRegistry(dir)
	repairer := validation.NewRepairer(registry, validation.RepairConfig{RetryDelay: time.Millisecond})
	types := validation.NewTypeValidator(store)
	domain := validation.NewDomainValidator(types, store)
	builder := usecase.NewPlanBuilder(usecase.PlanBuilderDeps{
		Repairer: repairer,
		Domain:   domain,
		Params:   store,
		Cache:    cache.NewMemoryCache(),
	})

	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewPlanEchoHandler(log, builder, repairer, types, domain)
}

func doRequest(t *testing.T, h *PlanEchoHandler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	h.RegisterRoutes(e)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBuildPlanEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/plan", `{"symbol":"SPX","current_price":6100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status int `json:"status"`
		Data   struct {
			PlanID string `json:"plan_id"`
			Symbol string `json:"symbol"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusOK || resp.Data.Symbol != "SPX" || resp.Data.PlanID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestBuildPlanEndpointNoPrice(t *testing.T) {
	h := testHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/plan", `{"symbol":"SPX"}`)
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("expected embedded 400, got %d", resp.Status)
	}
}

func TestGetPlanEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/plan/SPX", "")
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Fatalf("expected embedded 404 before any plan exists, got %d", resp.Status)
	}

	doRequest(t, h, http.MethodPost, "/api/plan", `{"symbol":"SPX","current_price":6100}`)

	rec = doRequest(t, h, http.MethodGet, "/api/plan/spx", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected embedded 200 after build, got %d: %s", resp.Status, rec.Body.String())
	}
}

func TestValidateEndpointRepair(t *testing.T) {
	h := testHandler(t)

	body := `{"schema_type":"DP","repair":true,"data":"{'metadata': {}, 'TRADE_DATA': [], 'MARKET_BIAS': {},}"}`
	rec := doRequest(t, h, http.MethodPost, "/api/validate", body)

	var resp struct {
		Status int `json:"status"`
		Data   struct {
			Valid bool `json:"valid"`
			Fixed bool `json:"fixed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected embedded 200, got %d: %s", resp.Status, rec.Body.String())
	}
	if !resp.Data.Valid || !resp.Data.Fixed {
		t.Fatalf("expected repaired valid document: %+v", resp.Data)
	}
}

func TestValidateEndpointUnknownType(t *testing.T) {
	h := testHandler(t)

	rec := doRequest(t, h, http.MethodPost, "/api/validate", `{"schema_type":"NOPE","data":{}}`)
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("expected embedded 400, got %d", resp.Status)
	}
}

func TestSchemaDefinitionEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := doRequest(t, h, http.MethodGet, "/api/schemas/DP", "")
	var resp struct {
		Status int `json:"status"`
		Data   struct {
			Title          string   `json:"title"`
			RequiredFields []string `json:"requiredFields"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected embedded 200, got %d: %s", resp.Status, rec.Body.String())
	}
	if resp.Data.Title != "DP Trade Data" || len(resp.Data.RequiredFields) != 3 {
		t.Fatalf("unexpected definition: %+v", resp.Data)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/schemas/missing", "")
	var missingResp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &missingResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if missingResp.Status != http.StatusNotFound {
		t.Fatalf("expected embedded 404, got %d", missingResp.Status)
	}
}

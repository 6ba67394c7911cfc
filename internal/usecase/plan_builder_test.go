package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"TradePlan/internal/domain/models"
	"TradePlan/internal/params"
	"TradePlan/internal/schema"
	"TradePlan/internal/validation"
	"TradePlan/pkg/cache"
)

const dpSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "DP Trade Data",
  "type": "object",
  "required": ["metadata", "TRADE_DATA", "MARKET_BIAS"],
  "properties": {
    "metadata": {"type": "object"},
    "TRADE_DATA": {"type": "array"},
    "MARKET_BIAS": {"type": "object"}
  }
}`

const manciniSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Mancini Market Levels",
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
MARKET_CONVERSION_FACTORS:
  ES_TO_SPX_CONVERSION: -20
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

type fakeStore struct {
	runs []*models.TradePlan
	err  error
}

func (f *fakeStore) Init(context.Context) error { return nil }
func (f *fakeStore) StoreRun(_ context.Context, plan *models.TradePlan) error {
	if f.err != nil {
		return f.err
	}
	f.runs = append(f.runs, plan)
	return nil
}
func (f *fakeStore) QueryRuns(_ context.Context, symbol string, _, _ time.Time, limit int) ([]*models.TradePlan, error) {
	var out []*models.TradePlan
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.runs[i].Symbol == symbol {
			out = append(out, f.runs[i])
		}
	}
	return out, nil
}
func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

type fakePublisher struct {
	published []*models.TradePlan
}

func (f *fakePublisher) PublishPlan(_ context.Context, plan *models.TradePlan) error {
	f.published = append(f.published, plan)
	return nil
}
func (f *fakePublisher) Close() error { return nil }

type fakeQuotes struct {
	prices map[string]float64
}

func (f *fakeQuotes) Connect(context.Context) error   { return nil }
func (f *fakeQuotes) Subscribe(context.Context) error { return nil }
func (f *fakeQuotes) LastPrice(symbol string) (float64, bool) {
	price, ok := f.prices[symbol]
	return price, ok
}
func (f *fakeQuotes) Reconnect(context.Context) error { return nil }
func (f *fakeQuotes) Close() error                    { return nil }
func (f *fakeQuotes) IsConnected() bool               { return true }

func testBuilder(t *testing.T, deps func(*PlanBuilderDeps)) *PlanBuilder {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, SchemaDP+".json"), []byte(dpSchemaJSON), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, SchemaMancini+".json"), []byte(manciniSchemaJSON), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}
	paramsPath := filepath.Join(dir, "system-parameters.yaml")
	if err := os.WriteFile(paramsPath, []byte(paramsYAML), 0o644); err != nil {
		t.Fatalf("write params: %v", err)
	}

	store := params.NewStore(paramsPath)
	registry := schema.NewRegistry(dir)
	repairer := validation.NewRepairer(registry, validation.RepairConfig{RetryDelay: time.Millisecond})
	domain := validation.NewDomainValidator(validation.NewTypeValidator(store), store)

	d := PlanBuilderDeps{
		Repairer: repairer,
		Domain:   domain,
		Params:   store,
		Cache:    cache.NewMemoryCache(),
		CacheTTL: time.Hour,
	}
	if deps != nil {
		deps(&d)
	}
	return NewPlanBuilder(d)
}

func dpRequestDoc() map[string]interface{} {
	return map[string]interface{}{
		"metadata": map[string]interface{}{
			"source":    "dp",
			"timestamp": "2026-08-28T12:00:00Z",
			"version":   "1.0",
		},
		"TRADE_DATA": []interface{}{
			map[string]interface{}{
				"ticker":        "SPX",
				"direction":     "LONG",
				"confidence":    "HIGH",
				"duration":      "CASHFLOW",
				"position_size": "FULL",
				"conviction":    "HIGH",
				"levels": map[string]interface{}{
					"entry":   6100.0,
					"targets": []interface{}{6140.0, 6180.0},
					"stops":   6080.0,
				},
			},
		},
		"MARKET_BIAS": map[string]interface{}{
			"overall": "BULLISH",
			"key_levels": map[string]interface{}{
				"SPX": []interface{}{6090.0, 6150.0},
			},
		},
	}
}

func TestBuildPlanFromDP(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	b := testBuilder(t, func(d *PlanBuilderDeps) {
		d.Store = store
		d.Pub = pub
	})

	plan, err := b.BuildPlan(context.Background(), &models.BuildPlanRequest{
		Symbol:       "SPX",
		CurrentPrice: 6100,
		DPAnalysis:   dpRequestDoc(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.PlanID == "" {
		t.Fatalf("expected plan id")
	}
	if plan.Levels == nil || plan.Levels.Symbol != "SPX" {
		t.Fatalf("expected level report, got %+v", plan.Levels)
	}
	if summary := plan.Validation["dp"]; !summary.Valid {
		t.Fatalf("expected valid dp summary: %+v", summary)
	}
	if plan.Domain == nil || !plan.Domain.Valid {
		t.Fatalf("expected passing domain report: %+v", plan.Domain)
	}
	if len(store.runs) != 1 {
		t.Fatalf("expected stored run")
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected published plan")
	}
}

func TestBuildPlanCaches(t *testing.T) {
	b := testBuilder(t, nil)

	plan, err := b.BuildPlan(context.Background(), &models.BuildPlanRequest{
		Symbol:       "SPX",
		CurrentPrice: 6100,
		DPAnalysis:   dpRequestDoc(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cached, err := b.CachedPlan(context.Background(), "SPX")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cached == nil || cached.PlanID != plan.PlanID {
		t.Fatalf("expected cached plan %s, got %+v", plan.PlanID, cached)
	}
}

func TestBuildPlanPriceFromQuotes(t *testing.T) {
	b := testBuilder(t, func(d *PlanBuilderDeps) {
		d.Quotes = &fakeQuotes{prices: map[string]float64{"SPX": 6123.5}}
	})

	plan, err := b.BuildPlan(context.Background(), &models.BuildPlanRequest{Symbol: "SPX"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.CurrentPrice != 6123.5 {
		t.Fatalf("expected quote price, got %v", plan.CurrentPrice)
	}
}

func TestBuildPlanNoPrice(t *testing.T) {
	b := testBuilder(t, nil)

	_, err := b.BuildPlan(context.Background(), &models.BuildPlanRequest{Symbol: "SPX"})
	if !errors.Is(err, ErrNoPrice) {
		t.Fatalf("expected ErrNoPrice, got %v", err)
	}
}

func TestBuildPlanInvalidSourceDropped(t *testing.T) {
	b := testBuilder(t, nil)

	plan, err := b.BuildPlan(context.Background(), &models.BuildPlanRequest{
		Symbol:       "SPX",
		CurrentPrice: 6100,
		DPAnalysis:   map[string]interface{}{"metadata": "not an object"},
	})
	if err != nil {
		t.Fatalf("plan must still build: %v", err)
	}
	if summary := plan.Validation["dp"]; summary.Valid {
		t.Fatalf("expected invalid dp summary")
	}
	if len(plan.Warnings) == 0 {
		t.Fatalf("expected warning for dropped source")
	}
	// synthetic round numbers still produce a usable report
	if plan.Levels == nil {
		t.Fatalf("expected level report")
	}
}

func TestBuildPlanRoundNumbersWhenSparse(t *testing.T) {
	b := testBuilder(t, nil)

	plan, err := b.BuildPlan(context.Background(), &models.BuildPlanRequest{
		Symbol:       "SPX",
		CurrentPrice: 6100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := len(plan.Levels.MacroResistance) + len(plan.Levels.MajorResistance) +
		len(plan.Levels.MinorResistance) + len(plan.Levels.MacroSupport) +
		len(plan.Levels.MajorSupport) + len(plan.Levels.MinorSupport)
	if total == 0 {
		t.Fatalf("expected synthetic levels in report")
	}
}

func TestPlanHistory(t *testing.T) {
	store := &fakeStore{}
	b := testBuilder(t, func(d *PlanBuilderDeps) { d.Store = store })

	for i := 0; i < 3; i++ {
		if _, err := b.BuildPlan(context.Background(), &models.BuildPlanRequest{
			Symbol:       "SPX",
			CurrentPrice: 6100,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	plans, err := b.PlanHistory(context.Background(), "SPX", 0, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("expected limit applied, got %d plans", len(plans))
	}

	plans, err = b.PlanHistory(context.Background(), "QQQ", 7, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 0 {
		t.Fatalf("expected no runs for other symbol")
	}
}

func TestIngestHandler(t *testing.T) {
	b := testBuilder(t, nil)
	h := NewIngestHandler(b, nil)

	msg := []byte(`{"symbol":"SPX","current_price":6100,"sma_data":{"SPX":{"200":5900}}}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := h.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}

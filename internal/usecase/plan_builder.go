package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"TradePlan/internal/domain/models"
	drepo "TradePlan/internal/domain/repository"
	"TradePlan/internal/levels"
	"TradePlan/internal/params"
	"TradePlan/internal/validation"
	"TradePlan/pkg/cache"
	"TradePlan/pkg/logger"
)

// Schema names for the analysis document types.
const (
	SchemaDP      = "trade-data"
	SchemaMancini = "market-levels"
)

// ErrNoPrice is returned when neither the request nor the quote stream
// can supply a current price.
var ErrNoPrice = fmt.Errorf("current price unavailable")

// PlanBuilderDeps wires the plan pipeline's collaborators. Store, Pub and
// Quotes are optional; the pipeline degrades to validation plus ranking
// without them.
type PlanBuilderDeps struct {
	Repairer *validation.Repairer
	Domain   *validation.DomainValidator
	Params   *params.Store
	Cache    cache.Service
	Store    drepo.LevelStore
	Pub      drepo.PlanPublisher
	Quotes   drepo.QuoteSource
	Metrics  drepo.Metrics
	Log      *logger.Logger
	CacheTTL time.Duration
}

// PlanBuilder runs the full pipeline: repair and validate the source
// documents, extract and rank levels, then cache, persist and publish the
// resulting plan.
type PlanBuilder struct {
	deps PlanBuilderDeps
	now  func() time.Time
}

// NewPlanBuilder creates a PlanBuilder.
func NewPlanBuilder(deps PlanBuilderDeps) *PlanBuilder {
	if deps.CacheTTL <= 0 {
		deps.CacheTTL = 24 * time.Hour
	}
	return &PlanBuilder{deps: deps, now: time.Now}
}

// BuildPlan generates a plan for one symbol from whatever analysis
// documents the request carries. Source documents that fail validation
// are dropped with a warning; the plan is still produced from what
// remains.
func (b *PlanBuilder) BuildPlan(ctx context.Context, req *models.BuildPlanRequest) (*models.TradePlan, error) {
	start := b.now()

	symbol := req.Symbol
	if symbol == "" {
		symbol = "SPX"
	}

	currentPrice := req.CurrentPrice
	if currentPrice <= 0 && b.deps.Quotes != nil {
		if price, ok := b.deps.Quotes.LastPrice(symbol); ok {
			currentPrice = price
		}
	}
	if currentPrice <= 0 {
		b.record("no_price")
		return nil, fmt.Errorf("%w for %s", ErrNoPrice, symbol)
	}

	plan := &models.TradePlan{
		PlanID:       uuid.NewString(),
		Symbol:       symbol,
		GeneratedAt:  start.UTC(),
		CurrentPrice: currentPrice,
		Validation:   make(map[string]models.ValidationSummary),
	}

	sources := make(map[string][]levels.Level)

	if dpData, ok := b.prepare(ctx, plan, "dp", SchemaDP, req.DPAnalysis); ok {
		if b.deps.Domain != nil {
			report := b.deps.Domain.ValidateTradeData(dpData, "DP")
			plan.Domain = &report
			if !report.Valid {
				plan.Warnings = append(plan.Warnings,
					fmt.Sprintf("dp analysis has %d domain rule violations", len(report.Errors)))
			}
		}
		extracted := levels.ExtractDP(dpData, symbol)
		sources["dp"] = extracted
		b.recordLevels("dp", len(extracted))
	}

	if manciniData, ok := b.prepare(ctx, plan, "mancini", SchemaMancini, req.ManciniAnalysis); ok {
		extracted := levels.ExtractMancini(manciniData, symbol, b.deps.Params.ESToSPXConversion())
		sources["mancini"] = extracted
		b.recordLevels("mancini", len(extracted))
	}

	if len(req.SMAData) > 0 {
		extracted := levels.ExtractSMA(req.SMAData, symbol)
		sources["sma"] = extracted
		b.recordLevels("sma", len(extracted))
	}

	collection := levels.CombineLevels(sources, symbol, currentPrice)
	plan.Levels = collection.Report(currentPrice, plan.GeneratedAt)

	b.persist(ctx, plan)

	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordLatency("build_plan", time.Since(start).Seconds())
	}
	return plan, nil
}

// prepare runs validate-and-fix for one source document and records the
// outcome on the plan. A false return means the document is unusable.
func (b *PlanBuilder) prepare(ctx context.Context, plan *models.TradePlan, name, schema string, doc map[string]interface{}) (map[string]interface{}, bool) {
	if len(doc) == 0 {
		return nil, false
	}

	fix := b.deps.Repairer.ValidateAndFix(ctx, doc, schema)
	plan.Validation[name] = models.ValidationSummary{
		Valid:   fix.Valid,
		Fixed:   fix.Fixed,
		Partial: fix.Partial,
		Errors:  fix.Errors,
	}
	if !fix.Valid {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("%s analysis failed validation; its levels were skipped", name))
		b.record(name + "_invalid")
		return nil, false
	}
	if fix.Partial {
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("%s analysis degraded to required fields", name))
	}
	return fix.Data, true
}

// persist caches, stores and publishes the plan. All three are best
// effort; the plan is returned to the caller regardless.
func (b *PlanBuilder) persist(ctx context.Context, plan *models.TradePlan) {
	if b.deps.Cache != nil {
		key := cache.PlanKey(plan.Symbol, plan.GeneratedAt.Format("2006-01-02"))
		if err := b.deps.Cache.Set(ctx, key, plan, b.deps.CacheTTL); err != nil {
			b.warn("cache plan", err)
		}
	}
	if b.deps.Store != nil {
		if err := b.deps.Store.StoreRun(ctx, plan); err != nil {
			b.warn("store plan run", err)
			b.record("store")
		}
	}
	if b.deps.Pub != nil {
		if err := b.deps.Pub.PublishPlan(ctx, plan); err != nil {
			b.warn("publish plan", err)
			b.record("publish")
		}
	}
}

// CachedPlan returns today's plan for a symbol, falling back to the most
// recent stored run when the cache has expired.
func (b *PlanBuilder) CachedPlan(ctx context.Context, symbol string) (*models.TradePlan, error) {
	if b.deps.Cache != nil {
		var plan models.TradePlan
		key := cache.PlanKey(symbol, b.now().UTC().Format("2006-01-02"))
		err := b.deps.Cache.Get(ctx, key, &plan)
		if err == nil {
			return &plan, nil
		}
		if err != cache.ErrCacheMiss {
			b.warn("read plan cache", err)
		}
	}

	if b.deps.Store != nil {
		now := b.now().UTC()
		plans, err := b.deps.Store.QueryRuns(ctx, symbol, now.AddDate(0, 0, -7), now, 1)
		if err != nil {
			return nil, fmt.Errorf("query plan runs: %w", err)
		}
		if len(plans) > 0 {
			return plans[0], nil
		}
	}
	return nil, nil
}

// PlanHistory returns recent stored runs for a symbol, newest first.
func (b *PlanBuilder) PlanHistory(ctx context.Context, symbol string, days, limit int) ([]*models.TradePlan, error) {
	if b.deps.Store == nil {
		return nil, nil
	}
	if days <= 0 {
		days = 7
	}
	if limit <= 0 {
		limit = 10
	}
	now := b.now().UTC()
	plans, err := b.deps.Store.QueryRuns(ctx, symbol, now.AddDate(0, 0, -days), now, limit)
	if err != nil {
		return nil, fmt.Errorf("query plan runs: %w", err)
	}
	return plans, nil
}

func (b *PlanBuilder) record(kind string) {
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordError(kind)
	}
}

func (b *PlanBuilder) recordLevels(source string, count int) {
	if b.deps.Metrics != nil {
		b.deps.Metrics.RecordLevels(source, count)
	}
}

func (b *PlanBuilder) warn(what string, err error) {
	if b.deps.Log != nil {
		b.deps.Log.Warn(what+" failed", logger.Error(err))
	}
}

package repository

import (
	"context"
	"time"

	"TradePlan/internal/domain/models"
)

// LevelStore persists ranked level runs for later confluence research.
type LevelStore interface {
	Init(ctx context.Context) error
	StoreRun(ctx context.Context, plan *models.TradePlan) error
	QueryRuns(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.TradePlan, error)
	Health(ctx context.Context) error
	Close() error
}

// PlanPublisher publishes generated plan documents.
type PlanPublisher interface {
	PublishPlan(ctx context.Context, plan *models.TradePlan) error
	Close() error
}

// QuoteSource streams last prices for configured symbols.
type QuoteSource interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	LastPrice(symbol string) (float64, bool)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics records operational counters for the pipeline.
type Metrics interface {
	RecordValidation(schema string, valid bool)
	RecordRepair(schema, outcome string)
	RecordLevels(source string, count int)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

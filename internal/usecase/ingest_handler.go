package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"TradePlan/internal/domain/models"
	"TradePlan/pkg/logger"
)

// ingestEnvelope is the message shape on the analysis ingest topic.
type ingestEnvelope struct {
	Symbol          string                 `json:"symbol"`
	CurrentPrice    float64                `json:"current_price"`
	DPAnalysis      map[string]interface{} `json:"dp_analysis"`
	ManciniAnalysis map[string]interface{} `json:"mancini_analysis"`
	SMAData         map[string]interface{} `json:"sma_data"`
}

// IngestHandler consumes analysis documents from Kafka and runs the plan
// pipeline for each. Errors propagate so the consumer can retry and
// eventually dead-letter the message.
type IngestHandler struct {
	builder *PlanBuilder
	log     *logger.Logger
}

// NewIngestHandler creates an ingest handler.
func NewIngestHandler(builder *PlanBuilder, log *logger.Logger) *IngestHandler {
	return &IngestHandler{builder: builder, log: log}
}

// Handle processes one ingest message.
func (h *IngestHandler) Handle(ctx context.Context, data []byte) error {
	var envelope ingestEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode ingest message: %w", err)
	}

	plan, err := h.builder.BuildPlan(ctx, &models.BuildPlanRequest{
		Symbol:          envelope.Symbol,
		CurrentPrice:    envelope.CurrentPrice,
		DPAnalysis:      envelope.DPAnalysis,
		ManciniAnalysis: envelope.ManciniAnalysis,
		SMAData:         envelope.SMAData,
	})
	if err != nil {
		return fmt.Errorf("build plan from ingest: %w", err)
	}

	if h.log != nil {
		h.log.Info("plan generated from ingest",
			logger.String("plan_id", plan.PlanID),
			logger.String("symbol", plan.Symbol),
			logger.Float64("current_price", plan.CurrentPrice),
			logger.Int("warnings", len(plan.Warnings)))
	}
	return nil
}

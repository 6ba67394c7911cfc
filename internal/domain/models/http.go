package models

// BuildPlanRequest is the POST /api/plan payload. Analysis documents are
// raw property bags so the repair pipeline can work on them before any
// typed interpretation.
type BuildPlanRequest struct {
	Symbol          string                 `json:"symbol" default:"SPX" validate:"required"`
	CurrentPrice    float64                `json:"current_price" validate:"omitempty,gt=0"`
	DPAnalysis      map[string]interface{} `json:"dp_analysis,omitempty"`
	ManciniAnalysis map[string]interface{} `json:"mancini_analysis,omitempty"`
	SMAData         map[string]interface{} `json:"sma_data,omitempty"`
}

// ValidateRequest is the POST /api/validate payload. Data may be an object
// or a malformed JSON string when Repair is set.
type ValidateRequest struct {
	SchemaType string      `json:"schema_type" validate:"required"`
	Data       interface{} `json:"data" validate:"required"`
	Repair     bool        `json:"repair" default:"false"`
}

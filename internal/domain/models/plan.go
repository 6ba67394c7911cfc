package models

import "time"

// PlanLevel is one ranked price level in the output document. Level keeps
// the rounded price as a string so trailing zeros never appear.
type PlanLevel struct {
	Level   string  `json:"level"`
	Context string  `json:"context"`
	Type    string  `json:"type"`
	Source  string  `json:"source"`
	Weight  float64 `json:"weight"`
}

// TradingRange is the expected intraday range around the current price.
type TradingRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ConfluencePoint is a cluster of independently sourced levels that share
// a tick-rounded price.
type ConfluencePoint struct {
	Price   float64  `json:"price"`
	Sources []string `json:"sources"`
	Types   []string `json:"types"`
	Weight  float64  `json:"weight"`
}

// LevelReport is the ranked level document for one symbol and run.
type LevelReport struct {
	Symbol           string            `json:"symbol"`
	CurrentPrice     float64           `json:"current_price"`
	LastUpdated      time.Time         `json:"last_updated"`
	MacroResistance  []PlanLevel       `json:"macro_resistance"`
	MajorResistance  []PlanLevel       `json:"major_resistance"`
	MinorResistance  []PlanLevel       `json:"minor_resistance"`
	TradingRange     TradingRange      `json:"trading_range"`
	MinorSupport     []PlanLevel       `json:"minor_support"`
	MajorSupport     []PlanLevel       `json:"major_support"`
	MacroSupport     []PlanLevel       `json:"macro_support"`
	ConfluencePoints []ConfluencePoint `json:"confluence_points"`
}

// ValidationSummary condenses one document's validate-and-fix outcome for
// the plan header.
type ValidationSummary struct {
	Valid   bool              `json:"valid"`
	Fixed   bool              `json:"fixed,omitempty"`
	Partial bool              `json:"partial,omitempty"`
	Errors  []ValidationIssue `json:"errors,omitempty"`
}

// TradePlan is the full generated plan document.
type TradePlan struct {
	PlanID       string                       `json:"plan_id"`
	Symbol       string                       `json:"symbol"`
	GeneratedAt  time.Time                    `json:"generated_at"`
	CurrentPrice float64                      `json:"current_price"`
	Levels       *LevelReport                 `json:"levels"`
	Validation   map[string]ValidationSummary `json:"validation,omitempty"`
	Domain       *DomainReport                `json:"domain_validation,omitempty"`
	Warnings     []string                     `json:"warnings,omitempty"`
}

package levels

import (
	"fmt"
	"math"

	"TradePlan/pkg/util"
)

// Spec holds the raw inputs for a Level. Zero fields take the standard
// defaults: STRUCTURE, COMPUTED, DAILY, SPX, confidence 0.5.
type Spec struct {
	Price      float64
	Context    string
	Type       string
	Source     string
	Timeframe  string
	Symbol     string
	Confidence float64
}

// Level is an immutable price level with its derived weight and
// tick-rounded price.
type Level struct {
	Price        float64
	Context      string
	Type         string
	Source       string
	Timeframe    string
	Symbol       string
	Confidence   float64
	Weight       float64
	RoundedPrice float64
}

// New builds a Level from a Spec, applying defaults and computing weight
// and rounded price once at construction.
func New(spec Spec) Level {
	if spec.Type == "" {
		spec.Type = TypeStructure
	}
	if spec.Source == "" {
		spec.Source = SourceComputed
	}
	if spec.Timeframe == "" {
		spec.Timeframe = "DAILY"
	}
	if spec.Symbol == "" {
		spec.Symbol = "SPX"
	}
	if spec.Confidence == 0 {
		spec.Confidence = 0.5
	}

	factor := RoundingFactor(spec.Symbol)
	return Level{
		Price:        spec.Price,
		Context:      spec.Context,
		Type:         spec.Type,
		Source:       spec.Source,
		Timeframe:    spec.Timeframe,
		Symbol:       spec.Symbol,
		Confidence:   spec.Confidence,
		Weight:       TypeWeight(spec.Type) * SourceWeight(spec.Source) * spec.Confidence,
		RoundedPrice: math.Round(spec.Price/factor) * factor,
	}
}

// InConfluenceWith reports whether two levels share a price zone for this
// level's symbol.
func (l Level) InConfluenceWith(other Level) bool {
	return math.Abs(l.RoundedPrice-other.RoundedPrice) <= ConfluenceTolerance(l.Symbol)
}

// tickKey indexes the level's rounded price in whole ticks, which keeps
// confluence grouping exact regardless of float representation.
func (l Level) tickKey() int64 {
	return int64(math.Round(l.RoundedPrice / RoundingFactor(l.Symbol)))
}

func (l Level) String() string {
	if l.Context == "" {
		return util.FormatPrice(l.RoundedPrice)
	}
	return fmt.Sprintf("%s (%s)", util.FormatPrice(l.RoundedPrice), l.Context)
}

package levels

import (
	"math"
	"testing"
	"time"
)

func TestConfluenceGrouping(t *testing.T) {
	c := NewCollection("SPX")
	c.Add(Spec{Price: 4750.2, Source: SourceDP, Confidence: 0.9})
	c.Add(Spec{Price: 4750.4, Source: SourceMancini, Confidence: 0.8})
	c.Add(Spec{Price: 4800, Source: SourceComputed})

	groups := c.FindConfluentLevels()
	if len(groups) != 1 {
		t.Fatalf("expected 1 confluence group, got %d", len(groups))
	}
	if len(groups[0]) != 2 {
		t.Fatalf("expected 2 members, got %d", len(groups[0]))
	}
}

func TestConfluenceOrderIndependent(t *testing.T) {
	specs := []Spec{
		{Price: 4750.2, Source: SourceDP, Confidence: 0.9},
		{Price: 4750.4, Source: SourceMancini, Confidence: 0.8},
		{Price: 4700.1, Source: SourceComputed},
		{Price: 4699.8, Source: SourceDP},
		{Price: 4800, Source: SourceComputed},
	}

	forward := NewCollection("SPX")
	for _, s := range specs {
		forward.Add(s)
	}
	backward := NewCollection("SPX")
	for i := len(specs) - 1; i >= 0; i-- {
		backward.Add(specs[i])
	}

	fg := forward.FindConfluentLevels()
	bg := backward.FindConfluentLevels()
	if len(fg) != len(bg) {
		t.Fatalf("group count differs: %d vs %d", len(fg), len(bg))
	}
	for i := range fg {
		if len(fg[i]) != len(bg[i]) {
			t.Fatalf("group %d size differs: %d vs %d", i, len(fg[i]), len(bg[i]))
		}
		if fg[i][0].RoundedPrice != bg[i][0].RoundedPrice {
			t.Fatalf("group %d price differs: %v vs %v", i, fg[i][0].RoundedPrice, bg[i][0].RoundedPrice)
		}
	}
}

func TestSignificantLevelsBoost(t *testing.T) {
	c := NewCollection("SPX")
	// two weak levels in confluence outrank one stronger lone level
	c.Add(Spec{Price: 6150.2, Type: TypeRoundNumber, Source: SourceComputed, Confidence: 0.9}) // 0.5*0.6*0.9 = 0.27
	c.Add(Spec{Price: 6150.4, Type: TypeVWAP, Source: SourceComputed, Confidence: 0.9})        // 0.6*0.6*0.9 = 0.324
	c.Add(Spec{Price: 6180, Type: TypeStructure, Source: SourceDP, Confidence: 0.5})           // 0.5

	cats := c.SignificantLevels(6100)
	if len(cats.MacroResistance) != 3 {
		t.Fatalf("expected all 3 resistance levels, got %d", len(cats.MacroResistance))
	}
	// combined 0.594 beats 0.5, so the confluent pair comes first
	if cats.MacroResistance[0].RoundedPrice != 6150 {
		t.Fatalf("expected boosted pair first, got %v", cats.MacroResistance[0].RoundedPrice)
	}
}

func TestSignificantLevelsCategoryFill(t *testing.T) {
	c := NewCollection("SPX")
	for i := 0; i < 20; i++ {
		c.Add(Spec{Price: 6110 + float64(i)*10, Source: SourceDP, Confidence: 0.9})
	}
	for i := 0; i < 20; i++ {
		c.Add(Spec{Price: 6090 - float64(i)*10, Source: SourceDP, Confidence: 0.9})
	}

	cats := c.SignificantLevels(6100)
	if len(cats.MacroResistance) != 3 || len(cats.MajorResistance) != 5 || len(cats.MinorResistance) != 7 {
		t.Fatalf("resistance fill: %d/%d/%d", len(cats.MacroResistance), len(cats.MajorResistance), len(cats.MinorResistance))
	}
	if len(cats.MacroSupport) != 3 || len(cats.MajorSupport) != 5 || len(cats.MinorSupport) != 7 {
		t.Fatalf("support fill: %d/%d/%d", len(cats.MacroSupport), len(cats.MajorSupport), len(cats.MinorSupport))
	}

	// no level appears in two categories
	seen := make(map[float64]bool)
	for _, group := range [][]Level{
		cats.MacroResistance, cats.MajorResistance, cats.MinorResistance,
		cats.MacroSupport, cats.MajorSupport, cats.MinorSupport,
	} {
		for _, level := range group {
			if seen[level.Price] {
				t.Fatalf("level %v appears twice", level.Price)
			}
			seen[level.Price] = true
		}
	}
}

func TestTradingRangeDefault(t *testing.T) {
	c := NewCollection("SPX")
	cats := c.SignificantLevels(6000)
	if math.Abs(cats.TradingRange.Low-5940) > 1e-9 || math.Abs(cats.TradingRange.High-6060) > 1e-9 {
		t.Fatalf("unexpected default range: %+v", cats.TradingRange)
	}
}

func TestTradingRangeTightens(t *testing.T) {
	c := NewCollection("SPX")
	for i := 0; i < 20; i++ {
		c.Add(Spec{Price: 6110 + float64(i)*10, Source: SourceDP, Confidence: 0.9})
		c.Add(Spec{Price: 6090 - float64(i)*10, Source: SourceDP, Confidence: 0.9})
	}

	cats := c.SignificantLevels(6100)
	// minors hold the lowest-ranked levels; the range uses whichever minor
	// sits nearest the current price on each side
	low, high := cats.TradingRange.Low, cats.TradingRange.High
	if low >= 6100 || high <= 6100 {
		t.Fatalf("range must straddle current price: %v %v", low, high)
	}
	for _, level := range cats.MinorSupport {
		if math.Abs(level.Price-6100) < math.Abs(low-6100) {
			t.Fatalf("minor support %v nearer than range low %v", level.Price, low)
		}
	}
	for _, level := range cats.MinorResistance {
		if math.Abs(level.Price-6100) < math.Abs(high-6100) {
			t.Fatalf("minor resistance %v nearer than range high %v", level.Price, high)
		}
	}
}

func TestReportShape(t *testing.T) {
	c := NewCollection("SPX")
	c.Add(Spec{Price: 6150.2, Type: TypePivot, Source: SourceDP, Confidence: 0.9, Context: "Pivot high"})
	c.Add(Spec{Price: 6150.4, Type: TypeVWAP, Source: SourceMancini, Confidence: 0.8})
	c.Add(Spec{Price: 6050, Type: TypeStructure, Source: SourceDP, Confidence: 0.9})

	at := time.Date(2026, 8, 28, 13, 30, 0, 0, time.UTC)
	report := c.Report(6100, at)

	if report.Symbol != "SPX" || report.CurrentPrice != 6100 {
		t.Fatalf("unexpected header: %+v", report)
	}
	if !report.LastUpdated.Equal(at) {
		t.Fatalf("unexpected timestamp: %v", report.LastUpdated)
	}
	if len(report.MacroResistance) != 2 {
		t.Fatalf("expected 2 resistance levels, got %d", len(report.MacroResistance))
	}
	if report.MacroResistance[0].Level != "6150" {
		t.Fatalf("level must be the rounded price string, got %s", report.MacroResistance[0].Level)
	}
	// empty context falls back to the lowercased type
	var vwapLevel *string
	for i := range report.MacroResistance {
		if report.MacroResistance[i].Type == TypeVWAP {
			vwapLevel = &report.MacroResistance[i].Context
		}
	}
	if vwapLevel == nil || *vwapLevel != "vwap" {
		t.Fatalf("expected lowercased type context, got %v", vwapLevel)
	}

	if len(report.ConfluencePoints) != 1 {
		t.Fatalf("expected 1 confluence point, got %d", len(report.ConfluencePoints))
	}
	point := report.ConfluencePoints[0]
	if math.Abs(point.Price-6150.3) > 1e-9 {
		t.Fatalf("expected averaged raw price 6150.3, got %v", point.Price)
	}
	if len(point.Sources) != 2 || len(point.Types) != 2 {
		t.Fatalf("expected distinct sources and types, got %+v", point)
	}
	expectedWeight := New(Spec{Price: 6150.2, Type: TypePivot, Source: SourceDP, Confidence: 0.9}).Weight +
		New(Spec{Price: 6150.4, Type: TypeVWAP, Source: SourceMancini, Confidence: 0.8}).Weight
	if math.Abs(point.Weight-expectedWeight) > 1e-9 {
		t.Fatalf("expected summed weight %v, got %v", expectedWeight, point.Weight)
	}
}

func TestAboveBelow(t *testing.T) {
	c := NewCollection("SPX")
	for _, p := range []float64{6050, 6080, 6120, 6150, 6200} {
		c.Add(Spec{Price: p})
	}
	above := c.Above(6100, 2)
	if len(above) != 2 || above[0].Price != 6120 {
		t.Fatalf("unexpected above: %+v", above)
	}
	below := c.Below(6100, 2)
	if len(below) != 2 || below[0].Price != 6080 {
		t.Fatalf("unexpected below: %+v", below)
	}
}

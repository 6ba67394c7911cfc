package levels

import (
	"math"
	"sort"
	"strings"
	"time"

	"TradePlan/internal/domain/models"
	"TradePlan/pkg/util"
)

// Collection accumulates levels for one symbol and answers ranking and
// confluence queries. It is built by a single owner per extraction pass
// and is not safe for concurrent mutation.
type Collection struct {
	Symbol string

	levels     []Level
	confluence map[int64][]Level
}

// NewCollection creates an empty collection for a symbol.
func NewCollection(symbol string) *Collection {
	if symbol == "" {
		symbol = "SPX"
	}
	return &Collection{
		Symbol:     symbol,
		confluence: make(map[int64][]Level),
	}
}

// Add constructs a level from a Spec, inheriting the collection symbol
// when unset, and indexes it.
func (c *Collection) Add(spec Spec) Level {
	if spec.Symbol == "" {
		spec.Symbol = c.Symbol
	}
	level := New(spec)
	c.AddLevel(level)
	return level
}

// AddLevel indexes an already constructed level.
func (c *Collection) AddLevel(level Level) {
	c.levels = append(c.levels, level)
	key := c.groupKey(level)
	c.confluence[key] = append(c.confluence[key], level)
}

// AddLevels indexes a batch of levels.
func (c *Collection) AddLevels(levels []Level) {
	for _, level := range levels {
		c.AddLevel(level)
	}
}

// Len reports the number of levels held.
func (c *Collection) Len() int {
	return len(c.levels)
}

// groupKey snaps a level onto the collection instrument's tick grid.
// Grouping on the integer tick index keeps confluence exact regardless of
// float representation.
func (c *Collection) groupKey(level Level) int64 {
	tick := RoundingFactor(c.Symbol)
	return int64(math.Round(level.RoundedPrice / tick))
}

// SortedByPrice returns the levels ordered by raw price.
func (c *Collection) SortedByPrice(ascending bool) []Level {
	out := make([]Level, len(c.levels))
	copy(out, c.levels)
	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Price < out[j].Price
		}
		return out[i].Price > out[j].Price
	})
	return out
}

// InRange returns levels with raw price inside [minPrice, maxPrice].
func (c *Collection) InRange(minPrice, maxPrice float64) []Level {
	var out []Level
	for _, level := range c.levels {
		if level.Price >= minPrice && level.Price <= maxPrice {
			out = append(out, level)
		}
	}
	return out
}

// Above returns up to count levels above price, nearest first.
func (c *Collection) Above(price float64, count int) []Level {
	var out []Level
	for _, level := range c.SortedByPrice(true) {
		if level.Price > price {
			out = append(out, level)
			if len(out) == count {
				break
			}
		}
	}
	return out
}

// Below returns up to count levels below price, nearest first.
func (c *Collection) Below(price float64, count int) []Level {
	var out []Level
	for _, level := range c.SortedByPrice(false) {
		if level.Price < price {
			out = append(out, level)
			if len(out) == count {
				break
			}
		}
	}
	return out
}

// FindConfluentLevels returns every group of two or more levels sharing a
// tick-rounded price, ordered by price. Grouping depends only on the set
// of levels, not their insertion order.
func (c *Collection) FindConfluentLevels() [][]Level {
	keys := make([]int64, 0, len(c.confluence))
	for key, group := range c.confluence {
		if len(group) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([][]Level, 0, len(keys))
	for _, key := range keys {
		out = append(out, c.confluence[key])
	}
	return out
}

// Categories is the ranked output of a significance pass.
type Categories struct {
	MacroResistance []Level
	MajorResistance []Level
	MinorResistance []Level
	TradingRange    models.TradingRange
	MinorSupport    []Level
	MajorSupport    []Level
	MacroSupport    []Level
}

// SignificantLevels ranks the collection around the current price.
// Confluent groups rank with their combined weight; each level lands in
// exactly one category.
func (c *Collection) SignificantLevels(currentPrice float64) Categories {
	boost := make(map[int64]float64)
	for key, group := range c.confluence {
		if len(group) > 1 {
			var combined float64
			for _, level := range group {
				combined += level.Weight
			}
			boost[key] = combined
		}
	}

	type ranked struct {
		level  Level
		weight float64
	}
	var resistance, support []ranked
	for _, level := range c.SortedByPrice(true) {
		weight := level.Weight
		if combined, ok := boost[c.groupKey(level)]; ok {
			weight = combined
		}
		switch {
		case level.Price > currentPrice:
			resistance = append(resistance, ranked{level, weight})
		case level.Price < currentPrice:
			support = append(support, ranked{level, weight})
		}
	}
	byWeight := func(items []ranked) {
		sort.SliceStable(items, func(i, j int) bool { return items[i].weight > items[j].weight })
	}
	byWeight(resistance)
	byWeight(support)

	take := func(items []ranked, category string, fallback int) ([]Level, []ranked) {
		n := categoryLimit(category, fallback)
		if n > len(items) {
			n = len(items)
		}
		out := make([]Level, n)
		for i := 0; i < n; i++ {
			out[i] = items[i].level
		}
		return out, items[n:]
	}

	var cats Categories
	cats.MacroResistance, resistance = take(resistance, "MACRO_RESISTANCE", 3)
	cats.MajorResistance, resistance = take(resistance, "MAJOR_RESISTANCE", 5)
	cats.MinorResistance, _ = take(resistance, "MINOR_RESISTANCE", 7)
	cats.MacroSupport, support = take(support, "MACRO_SUPPORT", 3)
	cats.MajorSupport, support = take(support, "MAJOR_SUPPORT", 5)
	cats.MinorSupport, _ = take(support, "MINOR_SUPPORT", 7)

	cats.TradingRange = models.TradingRange{
		Low:  currentPrice * 0.99,
		High: currentPrice * 1.01,
	}
	if len(cats.MinorResistance) > 0 && len(cats.MinorSupport) > 0 {
		cats.TradingRange = models.TradingRange{
			Low:  nearestPrice(cats.MinorSupport, currentPrice),
			High: nearestPrice(cats.MinorResistance, currentPrice),
		}
	}

	return cats
}

// nearestPrice picks the level price closest to the reference.
func nearestPrice(levels []Level, reference float64) float64 {
	best := levels[0].Price
	for _, level := range levels[1:] {
		if math.Abs(level.Price-reference) < math.Abs(best-reference) {
			best = level.Price
		}
	}
	return best
}

// Report renders the ranked document shape consumed by templating and
// persistence.
func (c *Collection) Report(currentPrice float64, at time.Time) *models.LevelReport {
	cats := c.SignificantLevels(currentPrice)

	format := func(levels []Level) []models.PlanLevel {
		out := make([]models.PlanLevel, len(levels))
		for i, level := range levels {
			context := level.Context
			if context == "" {
				context = strings.ToLower(level.Type)
			}
			out[i] = models.PlanLevel{
				Level:   util.FormatPrice(level.RoundedPrice),
				Context: context,
				Type:    level.Type,
				Source:  level.Source,
				Weight:  level.Weight,
			}
		}
		return out
	}

	points := make([]models.ConfluencePoint, 0)
	for _, group := range c.FindConfluentLevels() {
		var sum, weight float64
		var sources, types []string
		for _, level := range group {
			sum += level.Price
			weight += level.Weight
			sources = appendUnique(sources, level.Source)
			types = appendUnique(types, level.Type)
		}
		points = append(points, models.ConfluencePoint{
			Price:   math.Round(sum/float64(len(group))*100) / 100,
			Sources: sources,
			Types:   types,
			Weight:  weight,
		})
	}

	return &models.LevelReport{
		Symbol:           c.Symbol,
		CurrentPrice:     currentPrice,
		LastUpdated:      at,
		MacroResistance:  format(cats.MacroResistance),
		MajorResistance:  format(cats.MajorResistance),
		MinorResistance:  format(cats.MinorResistance),
		TradingRange:     cats.TradingRange,
		MinorSupport:     format(cats.MinorSupport),
		MajorSupport:     format(cats.MajorSupport),
		MacroSupport:     format(cats.MacroSupport),
		ConfluencePoints: points,
	}
}

func appendUnique(set []string, v string) []string {
	for _, s := range set {
		if s == v {
			return set
		}
	}
	return append(set, v)
}

package levels

import "math"

const defaultRoundNumberRange = 0.05

// roundIncrement picks the round-number spacing for a price magnitude.
func roundIncrement(price float64) float64 {
	switch {
	case price > 5000:
		return 50
	case price > 1000:
		return 25
	case price > 100:
		return 5
	case price > 10:
		return 1
	default:
		return 0.5
	}
}

// roundConfidence scores a level by how round it is.
func roundConfidence(level float64) float64 {
	switch {
	case math.Mod(level, 1000) == 0:
		return 0.9
	case math.Mod(level, 500) == 0:
		return 0.8
	case math.Mod(level, 100) == 0:
		return 0.7
	case math.Mod(level, 50) == 0:
		return 0.6
	default:
		return 0.5
	}
}

// GenerateRoundNumbers produces psychological levels inside a percentage
// band around the current price. A non-positive rangePct or increment
// takes the defaults for the price magnitude.
func GenerateRoundNumbers(currentPrice float64, symbol string, rangePct, increment float64) []Level {
	if currentPrice <= 0 {
		return nil
	}
	if rangePct <= 0 {
		rangePct = defaultRoundNumberRange
	}
	if increment <= 0 {
		increment = roundIncrement(currentPrice)
	}

	var out []Level
	add := func(price float64) {
		out = append(out, New(Spec{
			Price:      price,
			Context:    "Round number",
			Type:       TypeRoundNumber,
			Source:     SourceComputed,
			Symbol:     symbol,
			Confidence: roundConfidence(price),
		}))
	}

	firstAbove := math.Ceil(currentPrice/increment) * increment
	upperLimit := currentPrice * (1 + rangePct)
	for level := firstAbove; level <= upperLimit; level += increment {
		add(level)
	}

	lowerLimit := currentPrice * (1 - rangePct)
	for level := math.Floor(currentPrice/increment) * increment; level >= lowerLimit; level -= increment {
		// the grid point at the current price was covered above
		if level == firstAbove {
			continue
		}
		add(level)
	}

	return out
}

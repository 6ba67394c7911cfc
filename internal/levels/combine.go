package levels

import "sort"

// CombineLevels folds per-source level slices into one collection,
// topping up with synthetic round numbers when the sources produced fewer
// than the threshold. Sources are added in name order so the collection
// contents do not depend on map iteration.
func CombineLevels(sources map[string][]Level, symbol string, currentPrice float64) *Collection {
	collection := NewCollection(symbol)

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		collection.AddLevels(sources[name])
	}

	if collection.Len() < roundNumberThreshold {
		collection.AddLevels(GenerateRoundNumbers(currentPrice, symbol, 0, 0))
	}

	return collection
}

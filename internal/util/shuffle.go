package util

import "math/rand/v2"

// Shuffle returns a Fisher–Yates shuffled copy of items; the input is not modified.
// A nil rng uses the global source.
func Shuffle[T any](items []T, rng *rand.Rand) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	for i := len(shuffled) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

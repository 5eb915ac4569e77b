package selection

import (
	"errors"
)

// ErrNoOfferAvailable is returned when nothing can serve the request.
var ErrNoOfferAvailable = errors.New("no offer available")

// PickWeighted draws one item with probability proportional to its weight.
// Weights below 1 count as 1. draw must return a uniform value in [0,1).
// Items are walked in the given order, so equal inputs give equal picks.
func PickWeighted[T any](items []T, weight func(T) int, draw func() float64) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, ErrNoOfferAvailable
	}
	weights := make([]int, len(items))
	sum := 0
	for i, it := range items {
		w := weight(it)
		if w < 1 {
			w = 1
		}
		weights[i] = w
		sum += w
	}

	r := draw() * float64(sum)
	acc := 0.0
	for i, it := range items {
		acc += float64(weights[i])
		if r < acc {
			return it, nil
		}
	}
	// r == sum only on a misbehaving draw.
	return items[len(items)-1], nil
}

// Held reports whether a matched request is held back. draw*100 is compared
// against passPercent: 0 always holds, 100 never does.
func Held(passPercent int, draw func() float64) bool {
	if passPercent <= 0 {
		return true
	}
	if passPercent >= 100 {
		return false
	}
	return draw()*100 >= float64(passPercent)
}

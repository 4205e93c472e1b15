package model

import (
	"errors"
	"fmt"
	"slices"
)

// EstimatePriors returns the mean share of each category across the rows of
// Y (columns named by responses), sorted by category name. Floating point
// drift is folded into the first category so the priors sum to exactly 1.
func EstimatePriors(responses []string, Y [][]float64) ([]string, []float64, error) {
	if len(Y) == 0 {
		return nil, nil, errors.New("no rows to estimate priors from")
	}

	sums := make([]float64, len(responses))
	for r, row := range Y {
		if len(row) != len(responses) {
			return nil, nil, fmt.Errorf("row %d: expected %d shares, got %d", r, len(responses), len(row))
		}
		for j, v := range row {
			sums[j] += v
		}
	}

	order := make([]int, len(responses))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		switch {
		case responses[a] < responses[b]:
			return -1
		case responses[a] > responses[b]:
			return 1
		}
		return 0
	})

	classes := make([]string, len(responses))
	priors := make([]float64, len(responses))
	total := 0.0
	for i, j := range order {
		classes[i] = responses[j]
		priors[i] = sums[j] / float64(len(Y))
		total += priors[i]
	}

	priors[0] += 1 - total

	return classes, priors, nil
}

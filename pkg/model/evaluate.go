package model

import (
	"fmt"
	"math"
)

// CategoryError is the mean absolute error between predicted and actual
// shares of one category.
type CategoryError struct {
	Category string  `json:"category" yaml:"category"`
	MAE      float64 `json:"mae" yaml:"mae"`
}

// Evaluate predicts X and compares the probabilities with the actual
// shares Y, whose columns are named by responses. Predicted columns come in
// the classifier's sorted class order and are matched to responses by name.
// Results are in class order.
func Evaluate(m *Classifier, X [][]float64, responses []string, Y [][]float64) ([]CategoryError, error) {
	if m == nil {
		return nil, fmt.Errorf("model required")
	}
	if len(X) == 0 || len(X) != len(Y) {
		return nil, fmt.Errorf("expected matching non-empty X and Y, got %d and %d rows", len(X), len(Y))
	}

	col := make(map[string]int, len(responses))
	for i, r := range responses {
		col[r] = i
	}
	actual := make([]int, len(m.classes))
	for i, c := range m.classes {
		j, ok := col[c]
		if !ok {
			return nil, fmt.Errorf("class %q has no response column", c)
		}
		actual[i] = j
	}

	pred, err := m.PredictProba(X)
	if err != nil {
		return nil, fmt.Errorf("predicting: %w", err)
	}

	sums := make([]float64, len(m.classes))
	for r := range pred {
		if len(Y[r]) != len(responses) {
			return nil, fmt.Errorf("row %d: expected %d shares, got %d", r, len(responses), len(Y[r]))
		}
		for i, p := range pred[r] {
			sums[i] += math.Abs(Y[r][actual[i]] - p)
		}
	}

	out := make([]CategoryError, len(m.classes))
	for i, c := range m.classes {
		out[i] = CategoryError{Category: c, MAE: sums[i] / float64(len(pred))}
	}
	return out, nil
}

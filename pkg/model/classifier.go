// Package model implements the multinomial naive Bayes classifier that
// predicts the most likely spend category of an order, along with prior
// estimation and offline evaluation.
package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

const (
	// DefaultAlpha is the additive (Laplace) smoothing parameter.
	DefaultAlpha = 1.0

	priorSumTolerance = 1e-9
)

// Classifier is a fitted multinomial naive Bayes model with fixed class
// priors. It is never mutated after Fit returns.
type Classifier struct {
	classes        []string
	features       []string
	alpha          float64
	classLogPrior  []float64
	featureLogProb [][]float64
	classCount     []float64
}

// Classes returns the class labels in output column order (sorted).
func (c *Classifier) Classes() []string {
	return slices.Clone(c.classes)
}

// Features returns the feature layout the model was fitted on.
func (c *Classifier) Features() []string {
	return slices.Clone(c.features)
}

// ClassCount returns the number of training rows per class.
func (c *Classifier) ClassCount() []float64 {
	return slices.Clone(c.classCount)
}

// Fit trains a classifier on non-negative features X and labels y. priors
// are given in the sorted order of classes and must sum to 1.
func Fit(priors []float64, classes, features []string, X [][]float64, y []string) (*Classifier, error) {
	if len(classes) == 0 {
		return nil, errors.New("at least one class required")
	}
	if len(features) == 0 {
		return nil, errors.New("at least one feature required")
	}
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("expected matching non-empty X and y, got %d and %d rows", len(X), len(y))
	}

	sorted := slices.Clone(classes)
	slices.Sort(sorted)
	if !slices.Equal(sorted, classes) {
		return nil, errors.New("classes must be sorted")
	}
	if len(slices.Compact(sorted)) != len(classes) {
		return nil, errors.New("classes must be unique")
	}

	if err := checkPriors(priors, len(classes)); err != nil {
		return nil, err
	}

	classIndex := make(map[string]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	nf := len(features)
	featureCount := make([][]float64, len(classes))
	for i := range featureCount {
		featureCount[i] = make([]float64, nf)
	}
	classCount := make([]float64, len(classes))

	for r, row := range X {
		if len(row) != nf {
			return nil, fmt.Errorf("row %d: expected %d features, got %d", r, nf, len(row))
		}
		ci, ok := classIndex[y[r]]
		if !ok {
			return nil, fmt.Errorf("row %d: unknown class %q", r, y[r])
		}
		for j, v := range row {
			if v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("row %d: negative or NaN value %v for feature %s", r, v, features[j])
			}
			featureCount[ci][j] += v
		}
		classCount[ci]++
	}

	m := &Classifier{
		classes:        slices.Clone(classes),
		features:       slices.Clone(features),
		alpha:          DefaultAlpha,
		classLogPrior:  make([]float64, len(classes)),
		featureLogProb: make([][]float64, len(classes)),
		classCount:     classCount,
	}

	for i, p := range priors {
		m.classLogPrior[i] = math.Log(p)
	}

	for i, fc := range featureCount {
		total := 0.0
		for _, v := range fc {
			total += v + m.alpha
		}
		logTotal := math.Log(total)
		m.featureLogProb[i] = make([]float64, nf)
		for j, v := range fc {
			m.featureLogProb[i][j] = math.Log(v+m.alpha) - logTotal
		}
	}

	return m, nil
}

// PredictProba returns, per row of X, the posterior probability of each
// class in Classes order.
func (c *Classifier) PredictProba(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for r, row := range X {
		if len(row) != len(c.features) {
			return nil, fmt.Errorf("row %d: expected %d features, got %d", r, len(c.features), len(row))
		}

		jll := make([]float64, len(c.classes))
		for i := range c.classes {
			s := c.classLogPrior[i]
			for j, v := range row {
				s += v * c.featureLogProb[i][j]
			}
			jll[i] = s
		}

		norm := logSumExp(jll)
		probs := make([]float64, len(jll))
		for i, v := range jll {
			probs[i] = math.Exp(v - norm)
		}
		out[r] = probs
	}
	return out, nil
}

// Predict returns the most likely class per row of X.
func (c *Classifier) Predict(X [][]float64) ([]string, error) {
	probs, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(probs))
	for r, p := range probs {
		labels[r] = c.classes[argMax(p)]
	}
	return labels, nil
}

func checkPriors(priors []float64, n int) error {
	if len(priors) != n {
		return fmt.Errorf("expected %d priors, got %d", n, len(priors))
	}
	sum := 0.0
	for i, p := range priors {
		if p < 0 || math.IsNaN(p) {
			return fmt.Errorf("prior %d must not be negative, got %v", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > priorSumTolerance {
		return fmt.Errorf("priors must sum to 1, got %v", sum)
	}
	return nil
}

func logSumExp(v []float64) float64 {
	m := slices.Max(v)
	if math.IsInf(m, -1) {
		return m
	}
	s := 0.0
	for _, x := range v {
		s += math.Exp(x - m)
	}
	return m + math.Log(s)
}

func argMax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

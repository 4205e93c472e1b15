package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/mchmarny/ordermix/pkg/feature"
	"github.com/mchmarny/ordermix/pkg/schema"
)

const (
	// DefaultTestRatio and DefaultSeed reproduce the reference split.
	DefaultTestRatio = 0.2
	DefaultSeed      = 100
)

// Frame is an encoded dataset: an explanatory block laid out as
// schema.FeatureNames and a response block of category shares (as
// probabilities) in schema.ResponseColumns order. Row i of X and Y belong
// to the same order.
type Frame struct {
	Features  []string
	Responses []string
	X         [][]float64
	Y         [][]float64
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.X)
}

// MaxLabels returns, per row, the category with the largest share. Ties go
// to the first column in response order.
func (f *Frame) MaxLabels() []string {
	labels := make([]string, len(f.Y))
	for i, y := range f.Y {
		best := 0
		for j := 1; j < len(y); j++ {
			if y[j] > y[best] {
				best = j
			}
		}
		labels[i] = f.Responses[best]
	}
	return labels
}

// Encode fits the scaling bounds over all records and encodes every record
// through feature.Encode, converting shares from percentages to
// probabilities.
func Encode(records []*OrderRecord) (*Frame, feature.ScalingSpec, error) {
	if len(records) == 0 {
		return nil, feature.ScalingSpec{}, errors.New("no records to encode")
	}

	items := make([]float64, len(records))
	discounts := make([]float64, len(records))
	for i, r := range records {
		items[i] = float64(r.TotalItems)
		discounts[i] = r.Discount
	}

	spec, err := feature.FitScaling(items, discounts)
	if err != nil {
		return nil, feature.ScalingSpec{}, fmt.Errorf("fitting scaling: %w", err)
	}

	f := &Frame{
		Features:  schema.FeatureNames(),
		Responses: schema.ResponseColumns(),
		X:         make([][]float64, len(records)),
		Y:         make([][]float64, len(records)),
	}

	for i, r := range records {
		v, err := feature.Encode(items[i], r.Discount, r.Weekday, r.Hour, spec)
		if err != nil {
			return nil, feature.ScalingSpec{}, fmt.Errorf("row %d: %w", i, err)
		}
		f.X[i] = v

		if len(r.Shares) != len(f.Responses) {
			return nil, feature.ScalingSpec{}, fmt.Errorf("row %d: expected %d shares, got %d", i, len(f.Responses), len(r.Shares))
		}
		y := make([]float64, len(r.Shares))
		for j, s := range r.Shares {
			y[j] = feature.ToProbability(s)
		}
		f.Y[i] = y
	}

	return f, spec, nil
}

// Split shuffles the rows with a seeded permutation and returns the train
// and test partitions. The test partition takes ceil(testRatio*n) rows.
func Split(f *Frame, testRatio float64, seed uint64) (train, test *Frame, err error) {
	if f == nil {
		return nil, nil, errors.New("frame required")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, fmt.Errorf("test ratio must be in (0,1), got %v", testRatio)
	}

	n := f.Len()
	nTest := int(math.Ceil(testRatio * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, fmt.Errorf("cannot split %d rows with test ratio %v", n, testRatio)
	}

	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)

	return f.subset(perm[nTest:]), f.subset(perm[:nTest]), nil
}

func (f *Frame) subset(rows []int) *Frame {
	s := &Frame{
		Features:  f.Features,
		Responses: f.Responses,
		X:         make([][]float64, len(rows)),
		Y:         make([][]float64, len(rows)),
	}
	for i, r := range rows {
		s.X[i] = f.X[r]
		s.Y[i] = f.Y[r]
	}
	return s
}

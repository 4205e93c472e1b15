package model

import (
	"bytes"
	"math"
	"testing"

	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testClasses  = []string{"A", "B", "C"}
	testFeatures = []string{"f1", "f2", "f3"}
	testX        = [][]float64{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
		{0, 0.8, 0.2},
		{0, 0, 1},
		{0.1, 0, 0.9},
	}
	testY = []string{"A", "A", "B", "B", "C", "C"}
)

func fitTest(t *testing.T) *Classifier {
	t.Helper()
	m, err := Fit([]float64{0.5, 0.3, 0.2}, testClasses, testFeatures, testX, testY)
	require.NoError(t, err)
	return m
}

func TestFit_Predict(t *testing.T) {
	m := fitTest(t)
	assert.Equal(t, testClasses, m.Classes())
	assert.Equal(t, testFeatures, m.Features())
	assert.Equal(t, []float64{2, 2, 2}, m.ClassCount())

	labels, err := m.Predict([][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, labels)
}

func TestPredictProba_SumsToOne(t *testing.T) {
	m := fitTest(t)
	probs, err := m.PredictProba(testX)
	require.NoError(t, err)
	for _, p := range probs {
		require.Len(t, p, 3)
		sum := 0.0
		for _, v := range p {
			assert.GreaterOrEqual(t, v, 0.0)
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestPredictProba_ZeroRowFollowsPriors(t *testing.T) {
	m := fitTest(t)
	probs, err := m.PredictProba([][]float64{{0, 0, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, probs[0][0], 1e-9)
	assert.InDelta(t, 0.3, probs[0][1], 1e-9)
	assert.InDelta(t, 0.2, probs[0][2], 1e-9)
}

func TestFit_Errors(t *testing.T) {
	priors := []float64{0.5, 0.3, 0.2}
	tests := []struct {
		name     string
		priors   []float64
		classes  []string
		features []string
		X        [][]float64
		y        []string
	}{
		{"priors not summing to one", []float64{0.5, 0.3, 0.3}, testClasses, testFeatures, testX, testY},
		{"prior count", []float64{0.5, 0.5}, testClasses, testFeatures, testX, testY},
		{"unsorted classes", priors, []string{"B", "A", "C"}, testFeatures, testX, testY},
		{"duplicate classes", priors, []string{"A", "A", "C"}, testFeatures, testX, testY},
		{"negative feature", priors, testClasses, testFeatures, [][]float64{{-1, 0, 0}}, []string{"A"}},
		{"unknown label", priors, testClasses, testFeatures, [][]float64{{1, 0, 0}}, []string{"Z"}},
		{"ragged row", priors, testClasses, testFeatures, [][]float64{{1, 0}}, []string{"A"}},
		{"row mismatch", priors, testClasses, testFeatures, testX, testY[:2]},
		{"no classes", nil, nil, testFeatures, testX, testY},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fit(tt.priors, tt.classes, tt.features, tt.X, tt.y)
			assert.Error(t, err)
		})
	}
}

func TestEstimatePriors(t *testing.T) {
	responses := []string{"Food", "Baby", "Pets"}
	Y := [][]float64{
		{0.2, 0.5, 0.3},
		{0.6, 0.1, 0.3},
		{0.1, 0.1, 0.8},
	}

	classes, priors, err := EstimatePriors(responses, Y)
	require.NoError(t, err)
	assert.Equal(t, []string{"Baby", "Food", "Pets"}, classes)
	assert.InDelta(t, 0.7/3, priors[0], 1e-9)
	assert.InDelta(t, 0.9/3, priors[1], 1e-9)

	sum := 0.0
	for _, p := range priors {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEstimatePriors_FoldsDrift(t *testing.T) {
	responses := []string{"b", "a", "c"}
	Y := [][]float64{{0.1, 0.1, 0.1}}

	classes, priors, err := EstimatePriors(responses, Y)
	require.NoError(t, err)
	assert.Equal(t, "a", classes[0])
	assert.InDelta(t, 0.8, priors[0], 1e-9)

	sum := 0.0
	for _, p := range priors {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEstimatePriors_Errors(t *testing.T) {
	_, _, err := EstimatePriors([]string{"a"}, nil)
	assert.Error(t, err)

	_, _, err = EstimatePriors([]string{"a", "b"}, [][]float64{{1}})
	assert.Error(t, err)
}

func TestEvaluate_AlignsColumnsByName(t *testing.T) {
	m := fitTest(t)
	X := [][]float64{{0, 0, 0}}
	// response order differs from the sorted class order
	responses := []string{"C", "A", "B"}
	Y := [][]float64{{0.2, 0.5, 0.3}}

	res, err := Evaluate(m, X, responses, Y)
	require.NoError(t, err)
	require.Len(t, res, 3)
	for _, r := range res {
		assert.InDelta(t, 0, r.MAE, 1e-9, r.Category)
	}
	assert.Equal(t, "A", res[0].Category)
}

func TestEvaluate_Errors(t *testing.T) {
	m := fitTest(t)
	_, err := Evaluate(nil, testX, testClasses, nil)
	assert.Error(t, err)

	_, err = Evaluate(m, [][]float64{{0, 0, 0}}, []string{"A", "B"}, [][]float64{{0.5, 0.5}})
	assert.Error(t, err)
}

func TestArtifact_RoundTrip(t *testing.T) {
	m := fitTest(t)

	var buf bytes.Buffer
	require.NoError(t, m.Save(&buf))

	loaded, err := Load(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, m.Classes(), loaded.Classes())
	assert.Equal(t, m.Features(), loaded.Features())

	want, err := m.PredictProba(testX)
	require.NoError(t, err)
	got, err := loaded.PredictProba(testX)
	require.NoError(t, err)
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], got[i][j], 1e-12)
		}
	}
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "\x80\x04pickle"},
		{"wrong format", `{"format":"sklearn"}`},
		{"no classes", `{"format":"` + ArtifactFormat + `"}`},
		{"dimension mismatch", `{"format":"` + ArtifactFormat + `","classes":["A"],"features":["f"],"class_prior":[1],"feature_log_prob":[[0,0]]}`},
		{"bad priors", `{"format":"` + ArtifactFormat + `","classes":["A","B"],"features":["f"],"class_prior":[0.9,0.9],"feature_log_prob":[[0],[0]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.KindArtifact))
		})
	}
}

func TestLogSumExp(t *testing.T) {
	assert.InDelta(t, math.Log(2), logSumExp([]float64{0, 0}), 1e-12)
	assert.True(t, math.IsInf(logSumExp([]float64{math.Inf(-1)}), -1))
}

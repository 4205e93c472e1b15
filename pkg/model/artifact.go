package model

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/mchmarny/ordermix/pkg/fault"
)

// ArtifactFormat versions the persisted classifier layout.
const ArtifactFormat = "ordermix.mnb/v1"

type artifact struct {
	Format         string      `json:"format"`
	Classes        []string    `json:"classes"`
	Features       []string    `json:"features"`
	Alpha          float64     `json:"alpha"`
	ClassPrior     []float64   `json:"class_prior"`
	ClassCount     []float64   `json:"class_count"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
}

// MarshalJSON encodes the fitted model as an opaque artifact.
func (c *Classifier) MarshalJSON() ([]byte, error) {
	priors := make([]float64, len(c.classLogPrior))
	for i, lp := range c.classLogPrior {
		priors[i] = math.Exp(lp)
	}
	return json.Marshal(&artifact{
		Format:         ArtifactFormat,
		Classes:        c.classes,
		Features:       c.features,
		Alpha:          c.alpha,
		ClassPrior:     priors,
		ClassCount:     c.classCount,
		FeatureLogProb: c.featureLogProb,
	})
}

// Save writes the model artifact to w.
func (c *Classifier) Save(w io.Writer) error {
	b, err := c.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	return nil
}

// Load decodes a model artifact produced by Save. The artifact is decoded
// as a whole; any inconsistency is reported as an artifact error.
func Load(b []byte) (*Classifier, error) {
	var a artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fault.Wrap(err, fault.KindArtifact, "decoding model")
	}

	if a.Format != ArtifactFormat {
		return nil, fault.Newf(fault.KindArtifact, "format", "unsupported model format %q", a.Format)
	}
	if len(a.Classes) == 0 || len(a.Features) == 0 {
		return nil, fault.New(fault.KindArtifact, "", "model has no classes or features")
	}
	if len(a.ClassPrior) != len(a.Classes) || len(a.FeatureLogProb) != len(a.Classes) {
		return nil, fault.New(fault.KindArtifact, "", "model class dimensions do not match")
	}
	if len(a.ClassCount) != 0 && len(a.ClassCount) != len(a.Classes) {
		return nil, fault.New(fault.KindArtifact, "class_count", "model class dimensions do not match")
	}
	for i, row := range a.FeatureLogProb {
		if len(row) != len(a.Features) {
			return nil, fault.Newf(fault.KindArtifact, "feature_log_prob", "class %d has %d coefficients, expected %d", i, len(row), len(a.Features))
		}
	}
	if err := checkPriors(a.ClassPrior, len(a.Classes)); err != nil {
		return nil, fault.Wrap(err, fault.KindArtifact, "invalid model priors")
	}

	c := &Classifier{
		classes:        slices.Clone(a.Classes),
		features:       slices.Clone(a.Features),
		alpha:          a.Alpha,
		classLogPrior:  make([]float64, len(a.ClassPrior)),
		featureLogProb: a.FeatureLogProb,
		classCount:     a.ClassCount,
	}
	for i, p := range a.ClassPrior {
		c.classLogPrior[i] = math.Log(p)
	}
	return c, nil
}

package scoring

import (
	"context"
	"fmt"
	"slices"

	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/mchmarny/ordermix/pkg/feature"
	"github.com/mchmarny/ordermix/pkg/model"
	"github.com/mchmarny/ordermix/pkg/net"
	"github.com/mchmarny/ordermix/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// Artifacts are the read-only outputs of training consumed by scoring.
type Artifacts struct {
	Scaling feature.ScalingSpec
	Model   *model.Classifier
}

// LoadArtifacts fetches the scaler and the model concurrently. Either
// location may be an HTTP(S) URL or a local path.
func LoadArtifacts(ctx context.Context, scalerLocation, modelLocation string) (*Artifacts, error) {
	a := &Artifacts{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b, err := net.Fetch(ctx, scalerLocation)
		if err != nil {
			return fault.Wrap(err, fault.KindArtifact, "fetching scaler from "+scalerLocation)
		}
		s, err := feature.ParseScalingSpec(b)
		if err != nil {
			return err
		}
		a.Scaling = s
		return nil
	})

	g.Go(func() error {
		b, err := net.Fetch(ctx, modelLocation)
		if err != nil {
			return fault.Wrap(err, fault.KindArtifact, "fetching model from "+modelLocation)
		}
		m, err := model.Load(b)
		if err != nil {
			return err
		}
		a.Model = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a, nil
}

// Encode checks that the model was fitted on the shared feature layout and
// encodes the input with the training-time scaling.
func Encode(m *model.Classifier, s feature.ScalingSpec, in *Input) (feature.Vector, error) {
	if m == nil || in == nil {
		return nil, fmt.Errorf("model and input required")
	}

	if !slices.Equal(m.Features(), schema.FeatureNames()) {
		return nil, fault.New(fault.KindArtifact, "features", "model was trained on a different feature layout")
	}

	v, err := feature.Encode(float64(in.TotalItems), in.Discount, in.Weekday, in.Hour, s)
	if err != nil {
		return nil, fmt.Errorf("encoding input: %w", err)
	}
	return v, nil
}

// Predict returns the class probabilities of an encoded input in the
// model's (sorted) class order.
func Predict(m *model.Classifier, v feature.Vector) ([]float64, error) {
	if m == nil {
		return nil, fmt.Errorf("model required")
	}
	probs, err := m.PredictProba([][]float64{v})
	if err != nil {
		return nil, fmt.Errorf("scoring input: %w", err)
	}
	return probs[0], nil
}

// TopCategory returns the most likely category of an encoded input.
func TopCategory(m *model.Classifier, v feature.Vector) (string, error) {
	if m == nil {
		return "", fmt.Errorf("model required")
	}
	labels, err := m.Predict([][]float64{v})
	if err != nil {
		return "", fmt.Errorf("classifying input: %w", err)
	}
	return labels[0], nil
}

// Package pipeline runs the train and score flows end to end, wiring the
// dataset, feature, model and scoring packages in a fixed order.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mchmarny/ordermix/pkg/dataset"
	"github.com/mchmarny/ordermix/pkg/feature"
	"github.com/mchmarny/ordermix/pkg/model"
	"github.com/mchmarny/ordermix/pkg/net"
	"github.com/mchmarny/ordermix/pkg/schema"
)

const (
	// DataFileName is the local copy of the training CSV kept with --keep-data.
	DataFileName = "orders.csv"

	dirMode  = 0700
	fileMode = 0600
)

// TrainOptions configure a training run.
type TrainOptions struct {
	DataLocation string
	ArtifactDir  string
	ScalerName   string
	ModelName    string
	TestRatio    float64
	Seed         uint64
	KeepData     bool
}

// TrainResult summarizes a completed training run.
type TrainResult struct {
	Source     string              `json:"source" yaml:"source"`
	DataPath   string              `json:"data_path,omitempty" yaml:"dataPath,omitempty"`
	ScalerPath string              `json:"scaler_path" yaml:"scalerPath"`
	ModelPath  string              `json:"model_path" yaml:"modelPath"`
	TotalRows  int                 `json:"total_rows" yaml:"totalRows"`
	TrainRows  int                 `json:"train_rows" yaml:"trainRows"`
	TestRows   int                 `json:"test_rows" yaml:"testRows"`
	Scaling    feature.ScalingSpec `json:"scaling" yaml:"scaling"`
	Classes    []string            `json:"classes" yaml:"classes"`
	Priors     []float64           `json:"priors" yaml:"priors"`
	// ClassCounts is the number of training rows whose largest share is
	// each class, in Classes order.
	ClassCounts []float64             `json:"class_counts" yaml:"classCounts"`
	Errors      []model.CategoryError `json:"errors" yaml:"errors"`
	Model       []byte                `json:"-" yaml:"-"`
}

func (o *TrainOptions) validate() error {
	switch {
	case o == nil:
		return errors.New("train options required")
	case o.DataLocation == "":
		return errors.New("data location required")
	case o.ArtifactDir == "":
		return errors.New("artifact dir required")
	case o.ScalerName == "" || o.ModelName == "":
		return errors.New("artifact file names required")
	case o.TestRatio <= 0 || o.TestRatio >= 1:
		return fmt.Errorf("test ratio must be in (0,1), got %v", o.TestRatio)
	}
	return nil
}

// Train reads the order CSV, fits the scaler and the classifier, evaluates
// it on the held-out rows and writes both artifacts to opts.ArtifactDir.
func Train(ctx context.Context, opts *TrainOptions) (*TrainResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := slog.Default().WithGroup("train")

	if err := os.MkdirAll(opts.ArtifactDir, dirMode); err != nil {
		return nil, fmt.Errorf("creating artifact dir %s: %w", opts.ArtifactDir, err)
	}

	res := &TrainResult{Source: opts.DataLocation}

	b, err := readData(ctx, opts, res)
	if err != nil {
		return nil, err
	}

	raw, err := dataset.Load(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", opts.DataLocation, err)
	}
	log.Info("read the data successfully", "rows", len(raw))

	records, err := dataset.Clean(raw)
	if err != nil {
		return nil, fmt.Errorf("cleaning data: %w", err)
	}
	log.Info("cleaned the data")

	frame, scaling, err := dataset.Encode(records)
	if err != nil {
		return nil, fmt.Errorf("encoding features: %w", err)
	}
	res.Scaling = scaling
	res.TotalRows = frame.Len()
	log.Info("encoded the features", "features", len(frame.Features))

	train, test, err := dataset.Split(frame, opts.TestRatio, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("splitting data: %w", err)
	}
	res.TrainRows = train.Len()
	res.TestRows = test.Len()
	log.Info("split the data", "train", res.TrainRows, "test", res.TestRows)

	classes, priors, err := model.EstimatePriors(train.Responses, train.Y)
	if err != nil {
		return nil, fmt.Errorf("estimating priors: %w", err)
	}
	res.Classes = classes
	res.Priors = priors
	log.Info("estimated the priors", "classes", len(classes))

	m, err := model.Fit(priors, classes, schema.FeatureNames(), train.X, train.MaxLabels())
	if err != nil {
		return nil, fmt.Errorf("fitting model: %w", err)
	}
	res.ClassCounts = m.ClassCount()
	log.Info("fitted the model")

	if res.Errors, err = model.Evaluate(m, test.X, test.Responses, test.Y); err != nil {
		return nil, fmt.Errorf("evaluating model: %w", err)
	}
	log.Info("evaluated the model")

	if err := writeArtifacts(opts, m, res); err != nil {
		return nil, err
	}
	log.Info("saved the artifacts", "scaler", res.ScalerPath, "model", res.ModelPath)

	return res, nil
}

func readData(ctx context.Context, opts *TrainOptions, res *TrainResult) ([]byte, error) {
	location := opts.DataLocation
	if opts.KeepData && net.IsRemote(location) {
		res.DataPath = filepath.Join(opts.ArtifactDir, DataFileName)
		if err := net.Download(ctx, location, res.DataPath); err != nil {
			return nil, fmt.Errorf("downloading %s: %w", location, err)
		}
		location = res.DataPath
	}

	b, err := net.Fetch(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	return b, nil
}

func writeArtifacts(opts *TrainOptions, m *model.Classifier, res *TrainResult) error {
	scaler, err := res.Scaling.MarshalArtifact()
	if err != nil {
		return fmt.Errorf("encoding scaler: %w", err)
	}

	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}
	res.Model = buf.Bytes()

	res.ScalerPath = filepath.Join(opts.ArtifactDir, opts.ScalerName)
	if err := os.WriteFile(res.ScalerPath, scaler, fileMode); err != nil {
		return fmt.Errorf("writing scaler %s: %w", res.ScalerPath, err)
	}

	res.ModelPath = filepath.Join(opts.ArtifactDir, opts.ModelName)
	if err := os.WriteFile(res.ModelPath, res.Model, fileMode); err != nil {
		return fmt.Errorf("writing model %s: %w", res.ModelPath, err)
	}
	return nil
}

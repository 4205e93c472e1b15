package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/ordermix/pkg/scoring"
)

// ScoreOptions configure a scoring run. When Artifacts is set the scaler
// and model locations are not read.
type ScoreOptions struct {
	InputPath      string
	OutputPath     string
	ScalerLocation string
	ModelLocation  string
	Artifacts      *scoring.Artifacts
}

// ScoreResult is the validated input and the output written for it.
type ScoreResult struct {
	RawInput    string         `json:"-" yaml:"-"`
	Input       *scoring.Input `json:"input" yaml:"input"`
	TopCategory string         `json:"top_category" yaml:"topCategory"`
	Output      scoring.Output `json:"output" yaml:"output"`
	OutputPath  string         `json:"output_path" yaml:"outputPath"`
}

func (o *ScoreOptions) validate() error {
	switch {
	case o == nil:
		return errors.New("score options required")
	case o.InputPath == "" || o.OutputPath == "":
		return errors.New("input and output paths required")
	case o.Artifacts == nil && (o.ScalerLocation == "" || o.ModelLocation == ""):
		return errors.New("scaler and model locations required")
	}
	return nil
}

// Score validates the input document, predicts the category shares with
// the training-time scaler and model, and writes the output document.
// Nothing is written when any step fails.
func Score(ctx context.Context, opts *ScoreOptions) (*ScoreResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	log := slog.Default().WithGroup("score")

	raw, err := scoring.ReadInput(opts.InputPath)
	if err != nil {
		return nil, err
	}
	log.Info("read the input", "path", opts.InputPath)

	in, err := scoring.Validate(raw)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", opts.InputPath, err)
	}
	log.Info("validated the input")

	a := opts.Artifacts
	if a == nil {
		if a, err = scoring.LoadArtifacts(ctx, opts.ScalerLocation, opts.ModelLocation); err != nil {
			return nil, err
		}
		log.Info("loaded the artifacts", "scaler", opts.ScalerLocation, "model", opts.ModelLocation)
	} else {
		log.Info("loaded the artifacts", "source", "preloaded")
	}

	v, err := scoring.Encode(a.Model, a.Scaling, in)
	if err != nil {
		return nil, err
	}
	log.Info("encoded the input")

	probs, err := scoring.Predict(a.Model, v)
	if err != nil {
		return nil, err
	}
	top, err := scoring.TopCategory(a.Model, v)
	if err != nil {
		return nil, err
	}
	log.Info("predicted the shares", "top", top)

	out, err := scoring.FormatOutput(a.Model.Classes(), probs)
	if err != nil {
		return nil, fmt.Errorf("formatting output: %w", err)
	}
	log.Info("formatted the output", "sum", out.Sum())

	if err := scoring.WriteOutput(opts.OutputPath, out); err != nil {
		return nil, err
	}
	log.Info("wrote the output", "path", opts.OutputPath)

	return &ScoreResult{
		RawInput:    string(raw),
		Input:       in,
		TopCategory: top,
		Output:      out,
		OutputPath:  opts.OutputPath,
	}, nil
}

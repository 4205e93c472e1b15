package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mchmarny/ordermix/pkg/data"
	"github.com/mchmarny/ordermix/pkg/fault"
	"github.com/mchmarny/ordermix/pkg/model"
	"github.com/mchmarny/ordermix/pkg/pipeline"
	"github.com/mchmarny/ordermix/pkg/scoring"
	"github.com/urfave/cli/v3"
)

const (
	inputFlag        = "input"
	outputFlag       = "output"
	scalerFlag       = "scaler"
	modelFlag        = "model"
	fromRegistryFlag = "from-registry"
)

func newScoreCmd() *cli.Command {
	return &cli.Command{
		Name:            "score",
		Usage:           "Predict the category shares of one order",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  inputFlag,
				Usage: "Path of the input document (optional, default: config input_path)",
			},
			&cli.StringFlag{
				Name:  outputFlag,
				Usage: "Path of the output document (optional, default: config output_path)",
			},
			&cli.StringFlag{
				Name:  scalerFlag,
				Usage: "URL or path of the scaler artifact (optional, default: config scaler_location)",
			},
			&cli.StringFlag{
				Name:  modelFlag,
				Usage: "URL or path of the model artifact (optional, default: config model_location)",
			},
			&cli.BoolFlag{
				Name:  fromRegistryFlag,
				Usage: "Score with the latest training run in the registry instead of artifact files (optional, default: false)",
			},
		},
		Action: cmdScore,
	}
}

func cmdScore(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	c := cfg.Config

	opts := &pipeline.ScoreOptions{
		InputPath:      stringOr(cmd, inputFlag, c.InputPath),
		OutputPath:     stringOr(cmd, outputFlag, c.OutputPath),
		ScalerLocation: stringOr(cmd, scalerFlag, c.ScalerLocation),
		ModelLocation:  stringOr(cmd, modelFlag, c.ModelLocation),
	}

	var runID string
	if cmd.Bool(fromRegistryFlag) {
		run, err := data.GetLatestTrainingRun(cfg.DB)
		if err != nil {
			return fmt.Errorf("reading latest training run: %w", err)
		}
		if run == nil {
			return errors.New("no training run in the registry, run train first")
		}
		if opts.Artifacts, err = artifactsFromRun(run); err != nil {
			return err
		}
		runID = run.ID
	}

	res, err := pipeline.Score(ctx, opts)
	if err != nil {
		return fmt.Errorf("scoring: %w", err)
	}

	out, err := res.Output.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if err := data.SaveScore(cfg.DB, &data.ScoreRecord{
		RunID:  runID,
		Input:  res.RawInput,
		Output: string(out),
	}); err != nil {
		return fmt.Errorf("saving score: %w", err)
	}

	return encode(cmd, res)
}

func artifactsFromRun(run *data.TrainingRun) (*scoring.Artifacts, error) {
	if err := run.Scaling.Validate(); err != nil {
		return nil, fault.Wrap(err, fault.KindArtifact, "scaler of run "+run.ID)
	}
	m, err := model.Load(run.Model)
	if err != nil {
		return nil, fmt.Errorf("model of run %s: %w", run.ID, err)
	}
	return &scoring.Artifacts{Scaling: run.Scaling, Model: m}, nil
}

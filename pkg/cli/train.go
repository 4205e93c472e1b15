package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/ordermix/pkg/config"
	"github.com/mchmarny/ordermix/pkg/data"
	"github.com/mchmarny/ordermix/pkg/pipeline"
	"github.com/urfave/cli/v3"
)

const (
	dataFlag        = "data"
	artifactDirFlag = "artifact-dir"
	testRatioFlag   = "test-ratio"
	seedFlag        = "seed"
	keepDataFlag    = "keep-data"
)

func newSeedFlag() cli.Flag {
	return &cli.Uint64Flag{
		Name:  seedFlag,
		Usage: "Random seed (optional, default: config seed)",
	}
}

func newTrainCmd() *cli.Command {
	return &cli.Command{
		Name:            "train",
		Usage:           "Fit the scaler and classifier and write both artifacts",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  dataFlag,
				Usage: "URL or path of the order CSV (optional, default: config data_url)",
			},
			&cli.StringFlag{
				Name:  artifactDirFlag,
				Usage: "Directory to write the scaler and model into (optional, default: config artifact_dir)",
			},
			&cli.FloatFlag{
				Name:  testRatioFlag,
				Usage: "Share of rows held out for evaluation (optional, default: config test_ratio)",
			},
			newSeedFlag(),
			&cli.BoolFlag{
				Name:  keepDataFlag,
				Usage: "Save a copy of a remote CSV next to the artifacts (optional, default: false)",
			},
		},
		Action: cmdTrain,
	}
}

func cmdTrain(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	c := cfg.Config

	opts := &pipeline.TrainOptions{
		DataLocation: stringOr(cmd, dataFlag, c.DataURL),
		ArtifactDir:  stringOr(cmd, artifactDirFlag, c.ArtifactDir),
		ScalerName:   config.ScalerFileName,
		ModelName:    config.ModelFileName,
		TestRatio:    c.TestRatio,
		Seed:         c.Seed,
		KeepData:     cmd.Bool(keepDataFlag),
	}
	if cmd.IsSet(testRatioFlag) {
		opts.TestRatio = cmd.Float(testRatioFlag)
	}
	if cmd.IsSet(seedFlag) {
		opts.Seed = cmd.Uint64(seedFlag)
	}

	res, err := pipeline.Train(ctx, opts)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}

	run := &data.TrainingRun{
		Source:    res.Source,
		TotalRows: res.TotalRows,
		TrainRows: res.TrainRows,
		TestRows:  res.TestRows,
		Scaling:   res.Scaling,
		Classes:   res.Classes,
		Priors:    res.Priors,
		Errors:    res.Errors,
		Model:     res.Model,
	}
	if err := data.SaveTrainingRun(cfg.DB, run); err != nil {
		return fmt.Errorf("saving training run: %w", err)
	}

	return encode(cmd, struct {
		RunID                string `json:"run_id" yaml:"runId"`
		pipeline.TrainResult `yaml:",inline"`
	}{run.ID, *res})
}

func stringOr(cmd *cli.Command, name, fallback string) string {
	if cmd.IsSet(name) {
		return cmd.String(name)
	}
	return fallback
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mchmarny/ordermix/pkg/data"
	"github.com/urfave/cli/v3"
)

const defaultHistoryLimit = 10

const limitFlag = "limit"

func newHistoryCmd() *cli.Command {
	return &cli.Command{
		Name:            "history",
		Usage:           "List recent training runs, scores and simulations",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  limitFlag,
				Usage: "Maximum number of records per kind (optional, default: 10)",
				Value: defaultHistoryLimit,
			},
		},
		Action: cmdHistory,
	}
}

type runItem struct {
	data.TrainingRun `yaml:",inline"`
	Age              string `json:"age" yaml:"age"`
}

type scoreItem struct {
	data.ScoreRecord `yaml:",inline"`
	Age              string `json:"age" yaml:"age"`
}

type simulationItem struct {
	data.SimulationRecord `yaml:",inline"`
	Age                   string `json:"age" yaml:"age"`
}

type history struct {
	Counts      map[string]int64  `json:"counts" yaml:"counts"`
	Runs        []*runItem        `json:"training_runs" yaml:"trainingRuns"`
	Scores      []*scoreItem      `json:"scores" yaml:"scores"`
	Simulations []*simulationItem `json:"simulations" yaml:"simulations"`
}

func cmdHistory(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	limit := cmd.Int(limitFlag)
	if limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", limit)
	}

	h, err := getHistory(cfg, limit, time.Now())
	if err != nil {
		return err
	}
	return encode(cmd, h)
}

func getHistory(cfg *appConfig, limit int, now time.Time) (*history, error) {
	counts, err := data.GetDataState(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	h := &history{Counts: counts}

	runs, err := data.GetTrainingRuns(cfg.DB, limit)
	if err != nil {
		return nil, fmt.Errorf("listing training runs: %w", err)
	}
	for _, r := range runs {
		h.Runs = append(h.Runs, &runItem{TrainingRun: *r, Age: humanize.RelTime(r.CreatedAt, now, "ago", "from now")})
	}

	scores, err := data.GetScores(cfg.DB, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scores: %w", err)
	}
	for _, s := range scores {
		h.Scores = append(h.Scores, &scoreItem{ScoreRecord: *s, Age: humanize.RelTime(s.CreatedAt, now, "ago", "from now")})
	}

	sims, err := data.GetSimulations(cfg.DB, limit)
	if err != nil {
		return nil, fmt.Errorf("listing simulations: %w", err)
	}
	for _, s := range sims {
		h.Simulations = append(h.Simulations, &simulationItem{SimulationRecord: *s, Age: humanize.RelTime(s.CreatedAt, now, "ago", "from now")})
	}

	return h, nil
}

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/ordermix/pkg/data"
	"github.com/mchmarny/ordermix/pkg/sim"
	"github.com/urfave/cli/v3"
)

const (
	gamesFlag       = "games"
	legacyTallyFlag = "legacy-tally"
)

func newSimulateCmd() *cli.Command {
	return &cli.Command{
		Name:            "simulate",
		Usage:           "Play random tic-tac-toe games and report the outcome rates",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  gamesFlag,
				Usage: "Number of games to play (optional, default: config games)",
			},
			newSeedFlag(),
			&cli.BoolFlag{
				Name:  legacyTallyFlag,
				Usage: "Count O wins as ties and full boards as O wins, reproducing the published 59/12/29 rates (optional, default: false)",
			},
		},
		Action: cmdSimulate,
	}
}

func cmdSimulate(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)

	opts := sim.Options{
		Games:       cfg.Config.Games,
		Seed:        cfg.Config.Seed,
		LegacyTally: cmd.Bool(legacyTallyFlag),
	}
	if cmd.IsSet(gamesFlag) {
		opts.Games = cmd.Int(gamesFlag)
	}
	if cmd.IsSet(seedFlag) {
		opts.Seed = cmd.Uint64(seedFlag)
	}

	res, err := sim.Run(opts)
	if err != nil {
		return fmt.Errorf("simulating: %w", err)
	}
	slog.Default().WithGroup("simulate").Info("played the games", "games", res.Games)

	rec := &data.SimulationRecord{Result: *res}
	if err := data.SaveSimulation(cfg.DB, rec); err != nil {
		return fmt.Errorf("saving simulation: %w", err)
	}

	return encode(cmd, struct {
		ID     string     `json:"id" yaml:"id"`
		Counts sim.Result `json:"counts" yaml:"counts"`
		Rates  sim.Rates  `json:"rates" yaml:"rates"`
	}{rec.ID, *res, res.Rates()})
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/ordermix/pkg/data"
	"github.com/urfave/cli/v3"
)

const yesFlag = "yes"

func newResetCmd() *cli.Command {
	return &cli.Command{
		Name:            "reset",
		Usage:           "Delete all recorded runs and start fresh",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  yesFlag,
				Usage: "Skip the confirmation prompt (optional, default: false)",
			},
		},
		Action: cmdReset,
	}
}

func cmdReset(_ context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	w := writer(cmd)

	if !cmd.Bool(yesFlag) {
		fmt.Fprintf(w, "This will permanently delete all data in %s\n", cfg.DBPath)
		fmt.Fprint(w, "Are you sure? [y/N]: ")

		var r io.Reader = os.Stdin
		if cmd.Root().Reader != nil {
			r = cmd.Root().Reader
		}
		answer, err := bufio.NewReader(r).ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	// close the DB before deleting the file
	if cfg.DB != nil {
		cfg.DB.Close()
		cfg.DB = nil
	}

	if err := data.Delete(cfg.DBPath); err != nil {
		return fmt.Errorf("deleting database: %w", err)
	}

	slog.Info("database deleted", "path", cfg.DBPath)

	// re-initialize empty database
	if err := data.Init(cfg.DBPath); err != nil {
		return fmt.Errorf("re-initializing database: %w", err)
	}

	slog.Info("database re-initialized", "path", cfg.DBPath)
	fmt.Fprintln(w, "Reset complete.")
	return nil
}

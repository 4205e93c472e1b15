package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mchmarny/ordermix/pkg/config"
	"github.com/mchmarny/ordermix/pkg/data"
	"github.com/mchmarny/ordermix/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "ordermix"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

const (
	debugFlag     = "debug"
	configDirFlag = "config"
	dbPathFlag    = "db"
	formatFlag    = "format"
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		stop()
		os.Exit(1)
	}
}

type appConfig struct {
	Dir    string
	DBPath string
	Debug  bool
	Format string
	DB     *sql.DB
	Config *config.Config
}

func getConfig(cmd *cli.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Train, score and simulate on the ulabox order dataset",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  debugFlag,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&cli.StringFlag{
				Name:  configDirFlag,
				Usage: "Directory with config.yaml (optional, default: ~/.ordermix)",
			},
			&cli.StringFlag{
				Name:  dbPathFlag,
				Usage: "Path to the Sqlite run registry (optional, default: <config>/data.db)",
			},
			&cli.StringFlag{
				Name:  formatFlag,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*cli.Command{
			newTrainCmd(),
			newScoreCmd(),
			newSimulateCmd(),
			newHistoryCmd(),
			newResetCmd(),
		},
		Metadata: map[string]any{},
		Before:   before,
		After: func(_ context.Context, cmd *cli.Command) error {
			if cfg, ok := cmd.Root().Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	debug := cmd.Bool(debugFlag)
	if debug {
		initLogging(true)
	}

	format := formatJSON
	if f := cmd.String(formatFlag); f == formatYAML || f == "yml" {
		format = formatYAML
	}

	dir := cmd.String(configDirFlag)
	if dir == "" {
		dir = getHomeDir()
	}

	c, err := config.ReadOrCreate(dir)
	if err != nil {
		return ctx, fmt.Errorf("reading config: %w", err)
	}

	dbPath := cmd.String(dbPathFlag)
	if dbPath == "" {
		dbPath = filepath.Join(dir, data.DataFileName)
	}

	if err := data.Init(dbPath); err != nil {
		return ctx, fmt.Errorf("initializing database: %w", err)
	}

	db, err := data.GetDB(dbPath)
	if err != nil {
		return ctx, fmt.Errorf("opening database: %w", err)
	}

	cmd.Root().Metadata[appConfigKey] = &appConfig{
		Dir:    dir,
		DBPath: dbPath,
		Debug:  debug,
		Format: format,
		DB:     db,
		Config: c,
	}
	return ctx, nil
}

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created app dir", "path", dir)
	}
	return dir
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func encode(cmd *cli.Command, v any) error {
	w := writer(cmd)
	if getConfig(cmd).Format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/ordermix/pkg/dataset"
	"github.com/mchmarny/ordermix/pkg/sim"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600

	// DefaultDataURL is the public ulabox order export.
	DefaultDataURL = "https://raw.githubusercontent.com/ulabox/datasets/master/data/ulabox_orders_with_categories_partials_2017.csv"

	ScalerFileName = "minmax_scaler.json"
	ModelFileName  = "final_model.json"

	DefaultInputPath  = "input_spec.json"
	DefaultOutputPath = "output_spec.json"

	DefaultSeed      = dataset.DefaultSeed
	DefaultTestRatio = dataset.DefaultTestRatio
	DefaultGames     = sim.DefaultGames
)

// Config represents app config object.
type Config struct {
	// DataURL is the location of the training CSV.
	DataURL string `yaml:"data_url"`
	// ArtifactDir is where training writes the scaler and model.
	ArtifactDir string `yaml:"artifact_dir"`
	// ScalerLocation and ModelLocation are read by scoring; URL or path.
	ScalerLocation string `yaml:"scaler_location"`
	ModelLocation  string `yaml:"model_location"`

	InputPath  string `yaml:"input_path"`
	OutputPath string `yaml:"output_path"`

	Seed      uint64  `yaml:"seed"`
	TestRatio float64 `yaml:"test_ratio"`
	Games     int     `yaml:"games"`
}

// Default returns the config with every artifact kept under dir.
func Default(dir string) *Config {
	return &Config{
		DataURL:        DefaultDataURL,
		ArtifactDir:    dir,
		ScalerLocation: filepath.Join(dir, ScalerFileName),
		ModelLocation:  filepath.Join(dir, ModelFileName),
		InputPath:      DefaultInputPath,
		OutputPath:     DefaultOutputPath,
		Seed:           DefaultSeed,
		TestRatio:      DefaultTestRatio,
		Games:          DefaultGames,
	}
}

// Validate checks the values the pipelines cannot run without.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config required")
	}
	switch {
	case c.DataURL == "":
		return errors.New("data_url required")
	case c.ArtifactDir == "":
		return errors.New("artifact_dir required")
	case c.ScalerLocation == "" || c.ModelLocation == "":
		return errors.New("scaler_location and model_location required")
	case c.InputPath == "" || c.OutputPath == "":
		return errors.New("input_path and output_path required")
	case c.TestRatio <= 0 || c.TestRatio >= 1:
		return fmt.Errorf("test_ratio must be in (0,1), got %v", c.TestRatio)
	case c.Games < 1:
		return fmt.Errorf("games must be at least 1, got %d", c.Games)
	}
	return nil
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", configFileName, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
// Values missing from an existing file fall back to their defaults.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(dirPath, dirMode); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default(dirPath)); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	c := Default(dirPath)
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return c, nil
}

// GetOrCreateHomeDir returns the app directory under the user home dir.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}

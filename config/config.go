// Package config loads modelcheck settings from defaults, an optional YAML
// file and MODELCHECK_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v2"

	"modelcheck/logging"
	"modelcheck/ml"
	"modelcheck/smoketest"
)

// DefaultPath is read when no config file is given explicitly and it exists.
const DefaultPath = "modelcheck.yaml"

type Config struct {
	ModelPath   string         `yaml:"model_path" env:"MODELCHECK_MODEL_PATH"`
	Sample      []float64      `yaml:"sample"`
	SampleCSV   string         `yaml:"-" env:"MODELCHECK_SAMPLE"`
	Format      string         `yaml:"format" env:"MODELCHECK_FORMAT"`
	Repeat      int            `yaml:"repeat" env:"MODELCHECK_REPEAT"`
	Watch       bool           `yaml:"watch" env:"MODELCHECK_WATCH"`
	MetricsFile string         `yaml:"metrics_file" env:"MODELCHECK_METRICS_FILE"`
	Log         logging.Config `yaml:"log"`
}

func Default() *Config {
	return &Config{
		ModelPath: smoketest.DefaultModelPath,
		Sample:    smoketest.DefaultSample(),
		Format:    smoketest.FormatText,
		Repeat:    1,
		Log:       logging.DefaultConfig(),
	}
}

// Load builds the configuration. An empty path falls back to DefaultPath,
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	if err := cfg.readFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if cfg.SampleCSV != "" {
		sample, err := ml.ParseVector(cfg.SampleCSV)
		if err != nil {
			return nil, fmt.Errorf("MODELCHECK_SAMPLE: %w", err)
		}
		cfg.Sample = sample
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model path is required")
	}
	if len(c.Sample) == 0 {
		return errors.New("sample is empty")
	}
	if err := ml.CheckFinite("sample", c.Sample); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case smoketest.FormatText, smoketest.FormatJSON:
	default:
		return fmt.Errorf("unsupported output format %q", c.Format)
	}
	if c.Repeat < 1 {
		return fmt.Errorf("repeat must be at least 1, got %d", c.Repeat)
	}
	return c.Log.Validate()
}

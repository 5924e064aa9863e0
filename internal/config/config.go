package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid marks a configuration that cannot be run.
var ErrInvalid = errors.New("invalid configuration")

// EnvPrefix namespaces environment overrides, e.g. IRIS_EPOCHS.
const EnvPrefix = "IRIS"

// Config captures the runtime knobs for a training run.
type Config struct {
	Epochs       int     `mapstructure:"epochs"`
	LearningRate float64 `mapstructure:"lr"`
	TestSize     float64 `mapstructure:"test_size"`
	LogInterval  int     `mapstructure:"log_interval"`
	Output       string  `mapstructure:"output"`
	Seed         int64   `mapstructure:"seed"`
	Device       string  `mapstructure:"device"`
	Format       string  `mapstructure:"format"`
	DataPath     string  `mapstructure:"data"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Epochs:       100,
		LearningRate: 0.1,
		TestSize:     0.2,
		LogInterval:  20,
		Output:       "model.pt",
		Seed:         42,
		Device:       "auto",
		Format:       "gob",
	}
}

// RegisterFlags declares one flag per config key on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Int("epochs", d.Epochs, "Number of training epochs")
	fs.Float64("lr", d.LearningRate, "Learning rate")
	fs.Float64("test_size", d.TestSize, "Fraction for validation")
	fs.Int("log_interval", d.LogInterval, "Epochs between logs")
	fs.String("output", d.Output, "Where to save model")
	fs.Int64("seed", d.Seed, "Seed for the split and parameter init")
	fs.String("device", d.Device, "Compute device: auto, cpu or gpu")
	fs.String("format", d.Format, "Checkpoint format: gob or proto")
	fs.String("data", d.DataPath, "CSV dataset path (empty uses the bundled iris data)")
}

// Load resolves a Config from defaults, the optional YAML file at path,
// IRIS_* environment variables and any flags in fs, in increasing precedence.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("epochs", d.Epochs)
	v.SetDefault("lr", d.LearningRate)
	v.SetDefault("test_size", d.TestSize)
	v.SetDefault("log_interval", d.LogInterval)
	v.SetDefault("output", d.Output)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("device", d.Device)
	v.SetDefault("format", d.Format)
	v.SetDefault("data", d.DataPath)
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("%w: epochs must be > 0 (got %d)", ErrInvalid, c.Epochs)
	}
	if math.IsNaN(c.LearningRate) || math.IsInf(c.LearningRate, 0) || c.LearningRate <= 0 {
		return fmt.Errorf("%w: lr must be a finite value > 0 (got %g)", ErrInvalid, c.LearningRate)
	}
	if math.IsNaN(c.TestSize) || c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("%w: test_size must be in (0, 1) (got %g)", ErrInvalid, c.TestSize)
	}
	if c.LogInterval <= 0 {
		return fmt.Errorf("%w: log_interval must be > 0 (got %d)", ErrInvalid, c.LogInterval)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output path must be set", ErrInvalid)
	}
	switch c.Device {
	case "auto", "cpu", "gpu":
	default:
		return fmt.Errorf("%w: device must be auto, cpu or gpu (got %q)", ErrInvalid, c.Device)
	}
	switch c.Format {
	case "gob", "proto":
	default:
		return fmt.Errorf("%w: format must be gob or proto (got %q)", ErrInvalid, c.Format)
	}
	return nil
}

package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStart   = 0.0
	DefaultEnd     = 50.0
	DefaultSamples = 51
	DefaultDt      = 0.01
	DefaultSolver  = "rk4"
	DefaultTol     = 1e-6
)

var validate = validator.New()

// Config describes one simulation run. Model source comes either inline or
// from a file; everything else has a usable default.
type Config struct {
	Name       string   `yaml:"name"`
	Model      string   `yaml:"model" validate:"required_without=ModelFile"`
	ModelFile  string   `yaml:"model_file"`
	Start      float64  `yaml:"start"`
	End        float64  `yaml:"end" validate:"gtfield=Start"`
	Samples    int      `yaml:"samples" validate:"min=2"`
	Solver     string   `yaml:"solver" validate:"oneof=euler rk4 rk45 gillespie"`
	Dt         float64  `yaml:"dt" validate:"gt=0"`
	Tolerance  float64  `yaml:"tolerance" validate:"omitempty,gt=0"`
	Adaptive   bool     `yaml:"adaptive"`
	Seed       int64    `yaml:"seed"`
	Selections []string `yaml:"selections"`
	Output     Output   `yaml:"output"`
}

// Output names where run artifacts land.
type Output struct {
	DataDir string `yaml:"data_dir"`
	Image   string `yaml:"image"`
}

func DefaultConfig() *Config {
	return &Config{
		Start:     DefaultStart,
		End:       DefaultEnd,
		Samples:   DefaultSamples,
		Solver:    DefaultSolver,
		Dt:        DefaultDt,
		Tolerance: DefaultTol,
		Output: Output{
			DataDir: ".kinsim",
		},
	}
}

// Load reads a YAML run configuration over the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Source resolves the model text, reading ModelFile when no inline model
// is given.
func (c *Config) Source() (string, error) {
	if c.Model != "" {
		return c.Model, nil
	}
	if c.ModelFile == "" {
		return "", fmt.Errorf("config names neither model nor model_file")
	}
	data, err := os.ReadFile(c.ModelFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

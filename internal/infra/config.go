package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the application. Loaded from yaml, then
// deployment-specific values are overridden from environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Data struct {
		ExecutionsPath string `yaml:"executions_path"`
		QuotesPath     string `yaml:"quotes_path"` // plain or .gz
		AnnotatedPath  string `yaml:"annotated_path"`
		// FilterSymbols restricts quote processing to this allow-list to
		// bound memory. Empty means all symbols.
		FilterSymbols []string `yaml:"filter_symbols"`
	} `yaml:"data"`

	Bundle struct {
		Path string `yaml:"path"`
	} `yaml:"bundle"`

	Training struct {
		MinSamples         int     `yaml:"min_samples"`          // below this: fallback model
		FallbackMinSamples int     `yaml:"fallback_min_samples"` // below this: exchange excluded
		TestFraction       float64 `yaml:"test_fraction"`
		RidgeLambda        float64 `yaml:"ridge_lambda"`
		Seed               int64   `yaml:"seed"`
	} `yaml:"training"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a Config with every knob at its default, for
// callers that skip the yaml file (tests, one-shot CLI runs).
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Training.MinSamples == 0 {
		c.Training.MinSamples = 50
	}
	if c.Training.FallbackMinSamples == 0 {
		c.Training.FallbackMinSamples = 10
	}
	if c.Training.TestFraction == 0 {
		c.Training.TestFraction = 0.2
	}
	if c.Training.RidgeLambda == 0 {
		c.Training.RidgeLambda = 1.0
	}
	if c.Training.Seed == 0 {
		c.Training.Seed = 42
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.Bundle.Path == "" {
		c.Bundle.Path = "models.db"
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Training.MinSamples < c.Training.FallbackMinSamples {
		return fmt.Errorf("min_samples (%d) must be >= fallback_min_samples (%d)",
			c.Training.MinSamples, c.Training.FallbackMinSamples)
	}
	if c.Training.TestFraction < 0 || c.Training.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in [0, 1): %f", c.Training.TestFraction)
	}
	if c.Training.RidgeLambda < 0 {
		return fmt.Errorf("ridge_lambda must be non-negative: %f", c.Training.RidgeLambda)
	}
	return nil
}

// SymbolFilter returns the allow-list as a set, or nil when filtering is off.
func (c *Config) SymbolFilter() map[string]struct{} {
	if len(c.Data.FilterSymbols) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(c.Data.FilterSymbols))
	for _, s := range c.Data.FilterSymbols {
		set[s] = struct{}{}
	}
	return set
}

// overrideWithEnv applies environment variables over the file config.
func overrideWithEnv(cfg *Config) {
	if v := os.Getenv("SOR_EXECUTIONS"); v != "" {
		cfg.Data.ExecutionsPath = v
	}
	if v := os.Getenv("SOR_QUOTES"); v != "" {
		cfg.Data.QuotesPath = v
	}
	if v := os.Getenv("SOR_BUNDLE"); v != "" {
		cfg.Bundle.Path = v
	}
	if v := os.Getenv("SOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

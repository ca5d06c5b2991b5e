package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Workloads the bench command knows how to run.
var Workloads = []string{"append", "prepend", "remove", "swap", "reverse", "shuffle", "keyed-list"}

// Config is the optional bench scenario file.
type Config struct {
	Iterations int      `yaml:"iterations,omitempty"`
	Sizes      []int    `yaml:"sizes,omitempty"`
	Workloads  []string `yaml:"workloads,omitempty"`
	Seed       int64    `yaml:"seed,omitempty"`
}

func Default() Config {
	return Config{
		Iterations: 100,
		Sizes:      []int{10, 100, 1_000},
		Workloads:  slices.Clone(Workloads),
		Seed:       1,
	}
}

// LoadOptional reads the scenario file at path if there is one, and fills
// every field it leaves out from Default.
func LoadOptional(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.merge(file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) merge(o Config) {
	if o.Iterations != 0 {
		c.Iterations = o.Iterations
	}
	if len(o.Sizes) > 0 {
		c.Sizes = o.Sizes
	}
	if len(o.Workloads) > 0 {
		c.Workloads = o.Workloads
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
}

func (c *Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	for _, s := range c.Sizes {
		if s < 1 {
			return fmt.Errorf("sizes must be positive, got %d", s)
		}
	}
	for _, w := range c.Workloads {
		if !slices.Contains(Workloads, w) {
			return fmt.Errorf("unknown workload %q", w)
		}
	}
	return nil
}

// Package config loads the parameters of a bench run from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/rvbench/clint"
	"github.com/sarchlab/rvbench/plic"
	"github.com/sarchlab/rvbench/rvee"
)

// Run holds the parameters shared by every bench.
type Run struct {
	// Seed drives all stimulus. The same seed replays the same run.
	Seed uint64 `yaml:"seed" json:"seed"`

	// Cycles bounds the run. Zero runs until the bench fails or is
	// interrupted.
	Cycles uint64 `yaml:"cycles" json:"cycles"`

	// FreqMHz is the clock frequency. It only scales simulated time.
	FreqMHz float64 `yaml:"freq_mhz" json:"freq_mhz"`
}

// Config is a complete run configuration.
type Config struct {
	Run      Run          `yaml:"run" json:"run"`
	PLIC     plic.Config  `yaml:"plic" json:"plic"`
	CLINT    clint.Config `yaml:"clint" json:"clint"`
	Pipeline rvee.Config  `yaml:"pipeline" json:"pipeline"`
}

// Default returns a Config with the bench defaults.
func Default() *Config {
	return &Config{
		Run: Run{
			Seed:    1,
			Cycles:  1_000_000,
			FreqMHz: 100,
		},
		PLIC:     plic.DefaultConfig(),
		CLINT:    clint.DefaultConfig(),
		Pipeline: rvee.DefaultConfig(),
	}
}

// Load reads a Config from a YAML file. Fields missing from the file keep
// their defaults. JSON files are accepted as well.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a Config from YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return c, nil
}

// Encode renders c as YAML.
func (c *Config) Encode() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	return data, nil
}

// Save writes c to a YAML file.
func (c *Config) Save(path string) error {
	data, err := c.Encode()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Run.FreqMHz <= 0 {
		return fmt.Errorf("run.freq_mhz must be > 0")
	}
	return errors.Join(
		c.PLIC.Validate(),
		c.CLINT.Validate(),
		c.Pipeline.Validate(),
	)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

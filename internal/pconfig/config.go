// Package pconfig loads and validates the fixed parameters an adaptive
// pipeline cache is built with: total capacity, the quantum of capacity
// shifted between blocks on each adaptation, and the sampling mask used
// to decide which keys feed the shadow caches. The original engine treats
// these as compile-time constants; here they are constructor-validated
// configuration, loaded the way the rest of the host application loads
// its configuration.
package pconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the parameters New(...) needs to build a Cache.
type Config struct {
	// Capacity is the total number of entries the cache may hold across
	// its three blocks combined.
	Capacity uint64 `yaml:"capacity"`
	// QuantumSize is the unit of capacity shifted between blocks on each
	// Adapt call. Capacity must be an exact multiple of it.
	QuantumSize uint64 `yaml:"quantum_size"`
	// SampleMask selects which keys are mirrored into the shadow caches:
	// a key is sampled when hash(key)&SampleMask == 0.
	SampleMask uint64 `yaml:"sample_mask"`
}

// Validate checks the invariants New relies on: a positive capacity that
// is an exact multiple of a positive quantum size, leaving room for the
// three blocks to each start with at least one quantum.
func (c Config) Validate() error {
	if c.Capacity == 0 {
		return fmt.Errorf("pconfig: capacity must be positive")
	}
	if c.QuantumSize == 0 {
		return fmt.Errorf("pconfig: quantum_size must be positive")
	}
	if c.Capacity%c.QuantumSize != 0 {
		return fmt.Errorf("pconfig: capacity %d is not a multiple of quantum_size %d", c.Capacity, c.QuantumSize)
	}
	quanta := c.Capacity / c.QuantumSize
	if quanta%3 != 0 {
		return fmt.Errorf("pconfig: capacity %d / quantum_size %d = %d quanta, must split evenly across 3 blocks", c.Capacity, c.QuantumSize, quanta)
	}
	if (c.SampleMask & (c.SampleMask + 1)) != 0 {
		return fmt.Errorf("pconfig: sample_mask %#x + 1 must be a power of two (mask must be a run of low set bits)", c.SampleMask)
	}
	return nil
}

// Load reads a YAML-encoded Config from path and validates it.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("pconfig: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("pconfig: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

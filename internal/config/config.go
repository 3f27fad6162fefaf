// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads sampling-run configuration from yaml.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Atom is one nucleus of the run's geometry.
type Atom struct {
	Charge int        `yaml:"charge"`
	Coord  [3]float64 `yaml:"coord"`
}

// Config describes one sampling run.
type Config struct {
	// Kernels to run as independent chains: metropolis, langevin, hmc.
	Kernels []string `yaml:"kernels"`

	Stepsize float64 `yaml:"stepsize"` // Metropolis/HMC proposal scale
	Tau      float64 `yaml:"tau"`      // Langevin discretization step
	Cutoff   float64 `yaml:"cutoff"`   // force-clamp numerator
	Dysteps  int     `yaml:"dysteps"`  // HMC leapfrog sub-steps

	Walkers     int `yaml:"walkers"`
	Steps       int `yaml:"steps"`
	Discard     int `yaml:"discard"`
	Decorrelate int `yaml:"decorrelate"`

	Seed    uint64  `yaml:"seed"`
	InitStd float64 `yaml:"init_std"` // walker initialization noise

	Atoms []Atom `yaml:"atoms"`
}

// Default returns the run configuration before any file overrides.
func Default() Config {
	return Config{
		Kernels:  []string{"langevin"},
		Stepsize: 0.1,
		Tau:      0.1,
		Cutoff:   1.0,
		Dysteps:  10,
		Walkers:  256,
		Steps:    1000,
		Seed:     1,
		InitStd:  1.0,
	}
}

// Load reads a yaml run configuration, applying defaults for absent keys.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "config: read")
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: parse")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for fail-fast misuse.
func (c Config) Validate() error {
	if len(c.Kernels) == 0 {
		return errors.New("config: no kernels selected")
	}
	for _, k := range c.Kernels {
		switch k {
		case "metropolis", "langevin", "hmc":
		default:
			return errors.Errorf("config: unknown kernel %q", k)
		}
	}
	if c.Stepsize <= 0 || c.Tau <= 0 {
		return errors.Errorf("config: stepsize and tau must be positive, got %g and %g", c.Stepsize, c.Tau)
	}
	if c.Dysteps < 1 {
		return errors.Errorf("config: dysteps must be at least 1, got %d", c.Dysteps)
	}
	if c.Walkers <= 0 || c.Steps <= 0 {
		return errors.Errorf("config: walkers and steps must be positive, got %d and %d", c.Walkers, c.Steps)
	}
	if c.Discard < 0 || c.Decorrelate < 0 {
		return errors.Errorf("config: discard and decorrelate must not be negative, got %d and %d", c.Discard, c.Decorrelate)
	}
	if len(c.Atoms) == 0 {
		return errors.New("config: no atoms in geometry")
	}
	for i, a := range c.Atoms {
		if a.Charge <= 0 {
			return errors.Errorf("config: atom %d has non-positive charge %d", i, a.Charge)
		}
	}
	return nil
}

// Package config loads the treeopt.toml project configuration.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"treeopt/internal/effects"
)

// Config selects which passes run and how the effect analyzer judges
// traps.
type Config struct {
	// Passes run in the listed order.
	Passes []string `toml:"passes"`
	// Jobs bounds per-pass function concurrency; 0 means GOMAXPROCS.
	Jobs    int           `toml:"jobs"`
	Effects EffectsConfig `toml:"effects"`
}

// EffectsConfig is the [effects] section.
type EffectsConfig struct {
	IgnoreImplicitTraps bool `toml:"ignore_implicit_traps"`
	TrapsNeverHappen    bool `toml:"traps_never_happen"`
}

// Default returns the configuration used when no treeopt.toml exists.
func Default() Config {
	return Config{Passes: []string{"licm", "nop-elim"}}
}

// Load parses a treeopt.toml file. Sections left out keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if len(meta.Undecoded()) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %q", path, meta.Undecoded()[0].String())
	}
	if len(cfg.Passes) == 0 {
		cfg.Passes = Default().Passes
	}
	return cfg, nil
}

// Options converts the [effects] section into analyzer options.
func (c Config) Options() effects.Options {
	return effects.Options{
		IgnoreImplicitTraps: c.Effects.IgnoreImplicitTraps,
		TrapsNeverHappen:    c.Effects.TrapsNeverHappen,
	}
}

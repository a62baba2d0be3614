// Package archconfig loads the target architecture's size record (§3, P6)
// and a handful of job-scheduler tuning knobs from the process environment,
// using caarlos0/env the way the CLI layer loads every other piece of
// process configuration rather than hand-rolling flag/env parsing.
package archconfig

import (
	"fmt"

	"github.com/caarlos0/env/v6"

	"github.com/vela-lang/velac/lang/types"
)

// Config is the environment-driven knob set for a build: the target
// architecture's size record, plus scheduler diagnostics tuning.
type Config struct {
	// AddressSize is the pointer width in bytes (4 or 8).
	AddressSize int `env:"VELAC_ADDRESS_SIZE" envDefault:"8"`
	// DefaultIntegerSize is the byte width an untyped integer literal
	// defaults to outside a typed context.
	DefaultIntegerSize int `env:"VELAC_DEFAULT_INT_SIZE" envDefault:"4"`
	// DefaultFloatSize is the byte width an untyped float literal defaults
	// to outside a typed context.
	DefaultFloatSize int `env:"VELAC_DEFAULT_FLOAT_SIZE" envDefault:"4"`
	// BooleanSize is the storage width of bool in bytes.
	BooleanSize int `env:"VELAC_BOOL_SIZE" envDefault:"1"`

	// MaxCycleReport is loaded from the environment but not read by
	// lang/scheduler: a CycleError lists every waiting declaration name,
	// with no cap.
	MaxCycleReport int `env:"VELAC_MAX_CYCLE_REPORT" envDefault:"16"`
}

// Load reads Config from the environment, applying the 64-bit defaults
// (types.Arch64) to every field the environment doesn't override.
func Load() (Config, error) {
	cfg := Config{
		AddressSize:        types.Arch64.AddressSize,
		DefaultIntegerSize: types.Arch64.DefaultIntegerSize,
		DefaultFloatSize:   types.Arch64.DefaultFloatSize,
		BooleanSize:        types.Arch64.BooleanSize,
		MaxCycleReport:     16,
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("archconfig: %w", err)
	}
	return cfg, nil
}

// Arch extracts the types.Arch size record from cfg.
func (cfg Config) Arch() types.Arch {
	return types.Arch{
		AddressSize:        cfg.AddressSize,
		DefaultIntegerSize: cfg.DefaultIntegerSize,
		DefaultFloatSize:   cfg.DefaultFloatSize,
		BooleanSize:        cfg.BooleanSize,
	}
}

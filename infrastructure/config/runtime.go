// Package config loads runtime settings from the environment and project
// settings from turbo.toml.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/turbo-genesis/turbo-go/application/lifecycle"
)

// DefaultStateCapacity is the largest state buffer the host keeps, in bytes.
const DefaultStateCapacity = 4096000

// validate is a package-level singleton for better performance.
var validate = validator.New()

// Runtime is read from the process environment. Inside a guest the host
// supplies the environment when it instantiates the module.
type Runtime struct {
	LogLevel      string `env:"TURBO_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	StateFile     string `env:"TURBO_STATE_FILE"`
	StateCapacity int    `env:"TURBO_STATE_CAPACITY" envDefault:"4096000" validate:"gt=0"`
	HotReload     bool   `env:"TURBO_HOT_RELOAD" envDefault:"false"`
}

// LoadRuntime parses Runtime from the process environment.
func LoadRuntime() (Runtime, error) {
	return parseRuntime(env.Options{})
}

// LoadRuntimeFrom parses Runtime from environ instead of the process
// environment.
func LoadRuntimeFrom(environ map[string]string) (Runtime, error) {
	return parseRuntime(env.Options{Environment: environ})
}

func parseRuntime(opts env.Options) (Runtime, error) {
	var cfg Runtime
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Runtime{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Runtime{}, fmt.Errorf("invalid runtime config: %w", err)
	}
	return cfg, nil
}

// Strategy returns the lifecycle strategy selected by TURBO_HOT_RELOAD.
func (r Runtime) Strategy() lifecycle.Strategy {
	return lifecycle.StrategyFor(r.HotReload)
}

// Level returns the slog level for LogLevel.
func (r Runtime) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(r.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Environ renders r as KEY=VALUE pairs, suitable for passing to a guest.
func (r Runtime) Environ() map[string]string {
	out := map[string]string{
		"TURBO_LOG_LEVEL":      r.LogLevel,
		"TURBO_HOT_RELOAD":     fmt.Sprintf("%t", r.HotReload),
		"TURBO_STATE_CAPACITY": fmt.Sprintf("%d", r.StateCapacity),
	}
	if r.StateFile != "" {
		out["TURBO_STATE_FILE"] = r.StateFile
	}
	return out
}

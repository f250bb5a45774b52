// Package config loads hypercut settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "HYPERCUT_"

// Config holds all settings.
type Config struct {
	Shape  ShapeConfig  `yaml:"shape" envPrefix:"SHAPE_"`
	Twists TwistsConfig `yaml:"twists" envPrefix:"TWISTS_"`
	Engine EngineConfig `yaml:"engine" envPrefix:"ENGINE_"`
	Log    LogConfig    `yaml:"log" envPrefix:"LOG_"`
}

// ShapeConfig holds shape construction settings.
type ShapeConfig struct {
	RemoveInternals      bool    `yaml:"remove_internals" env:"REMOVE_INTERNALS"`
	PrimordialCubeRadius float64 `yaml:"primordial_cube_radius" env:"PRIMORDIAL_CUBE_RADIUS"`
}

// TwistsConfig holds twist system settings.
type TwistsConfig struct {
	MaxTwistRepeat int `yaml:"max_twist_repeat" env:"MAX_TWIST_REPEAT"`
}

// EngineConfig holds script evaluation settings.
type EngineConfig struct {
	EvalTimeout time.Duration `yaml:"eval_timeout" env:"EVAL_TIMEOUT"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Shape: ShapeConfig{
			RemoveInternals:      true,
			PrimordialCubeRadius: 1000,
		},
		Twists: TwistsConfig{MaxTwistRepeat: 50},
		Engine: EngineConfig{EvalTimeout: 5 * time.Second},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads configuration from a YAML file on top of the defaults and then
// applies environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Shape.PrimordialCubeRadius <= 0 {
		return errors.New("shape.primordial_cube_radius must be positive")
	}
	if c.Twists.MaxTwistRepeat < 1 {
		return errors.New("twists.max_twist_repeat must be at least 1")
	}
	if c.Engine.EvalTimeout <= 0 {
		return errors.New("engine.eval_timeout must be positive")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// NewLogger builds a text logger writing to w at the configured level.
func NewLogger(cfg *Config, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	return &logrus.Logger{
		Out:       w,
		Formatter: &logrus.TextFormatter{DisableTimestamp: true},
		Hooks:     make(logrus.LevelHooks),
		Level:     level,
	}, nil
}

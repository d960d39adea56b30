// Package config loads scene settings from defaults, an optional YAML file and
// MESHSCENE_* environment variables, in that order.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/df07/go-mesh-scene/pkg/core"
	"github.com/df07/go-mesh-scene/pkg/material"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "MESHSCENE_"

// Config is the full set of scene settings
type Config struct {
	Materials MaterialsConfig `yaml:"materials" envPrefix:"MATERIALS_"`
	History   HistoryConfig   `yaml:"history" envPrefix:"HISTORY_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
}

// MaterialsConfig names the resolver materials and any extra named materials
type MaterialsConfig struct {
	Default   MaterialSpec         `yaml:"default" envPrefix:"DEFAULT_"`
	Selected  MaterialSpec         `yaml:"selected" envPrefix:"SELECTED_"`
	Wireframe MaterialSpec         `yaml:"wireframe" envPrefix:"WIREFRAME_"`
	Library   map[string][]float64 `yaml:"library" validate:"dive,len=3,dive,gte=0,lte=1"` // name -> albedo
}

// MaterialSpec describes a solid-color material
type MaterialSpec struct {
	Name   string    `yaml:"name" env:"NAME" validate:"required"`
	Albedo []float64 `yaml:"albedo" env:"ALBEDO" validate:"len=3,dive,gte=0,lte=1"`
}

// HistoryConfig bounds the undo history
type HistoryConfig struct {
	MaxDepth int `yaml:"max_depth" env:"MAX_DEPTH" validate:"gte=0"` // 0 is unlimited
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"FORMAT" validate:"oneof=text json"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" env:"ADDR" validate:"omitempty,hostname_port"` // empty disables the endpoint
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Materials: MaterialsConfig{
			Default:   specOf(material.FallbackDefault),
			Selected:  specOf(material.FallbackSelected),
			Wireframe: specOf(material.FallbackWireframe),
		},
		History: HistoryConfig{MaxDepth: 256},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

func specOf(s *material.Surface) MaterialSpec {
	return MaterialSpec{Name: s.Name(), Albedo: []float64{s.Albedo.X, s.Albedo.Y, s.Albedo.Z}}
}

// Load builds a Config from defaults, the YAML file at path (skipped when path is
// empty) and environment overrides, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Surface builds the named material
func (s MaterialSpec) Surface() *material.Surface {
	var albedo core.Vec3
	if len(s.Albedo) == 3 {
		albedo = core.NewVec3(s.Albedo[0], s.Albedo[1], s.Albedo[2])
	}
	return material.NewSurface(s.Name, albedo)
}

// BuildLibrary builds the material resolver described by the config
func (c MaterialsConfig) BuildLibrary() *material.Library {
	lib := material.NewLibrary(c.Default.Surface(), c.Selected.Surface(), c.Wireframe.Surface())
	for name, albedo := range c.Library {
		lib.Register(MaterialSpec{Name: name, Albedo: albedo}.Surface())
	}
	return lib
}

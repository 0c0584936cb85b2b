// Package config loads prodplan.yaml, the per-workspace settings for
// normalization defaults, time factors, report layout and machine overrides.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"prodplan/internal/flatfile"
	"prodplan/internal/machines"
	"prodplan/internal/recipe"
)

// Config is a validated configuration.
type Config struct {
	LogLevel    string
	Defaults    recipe.Defaults
	TimeFactors flatfile.TimeFactors
	Report      Report
	Machines    []machines.Machine
}

// Report controls how plans are rendered.
type Report struct {
	TimeScale float64
	Machine   string
	Titles    bool
}

type rawConfig struct {
	LogLevel    string                 `yaml:"log_level,omitempty"`
	Defaults    rawDefaults            `yaml:"defaults"`
	TimeFactors []flatfile.FactorRange `yaml:"time_factors"`
	Report      rawReport              `yaml:"report"`
	Machines    []machines.Machine     `yaml:"machines,omitempty"`
}

type rawDefaults struct {
	Category       *string  `yaml:"category,omitempty"`
	EnergyRequired *float64 `yaml:"energy_required,omitempty"`
}

type rawReport struct {
	TimeScale *float64 `yaml:"time_scale,omitempty"`
	Machine   string   `yaml:"machine,omitempty"`
	Titles    bool     `yaml:"titles,omitempty"`
}

// ValidationError captures a single field-specific validation issue.
type ValidationError struct {
	File    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// DefaultTimeScale reports rates per minute.
const DefaultTimeScale = 60

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Defaults:    recipe.DefaultDefaults(),
		TimeFactors: flatfile.DefaultTimeFactors(),
		Report:      Report{TimeScale: DefaultTimeScale},
	}
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseAndValidate(data, path)
}

// ParseAndValidate unmarshals and validates a YAML configuration. Fields left
// out keep their defaults.
func ParseAndValidate(data []byte, source string) (*Config, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, ValidationErrors{{
			File:    source,
			Field:   "yaml",
			Message: err.Error(),
		}}
	}

	cfg := Default()
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{File: source, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if raw.LogLevel != "" {
		switch lvl := strings.ToLower(raw.LogLevel); lvl {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = lvl
		default:
			add("log_level", "unknown level %q", raw.LogLevel)
		}
	}

	if c := raw.Defaults.Category; c != nil {
		if strings.TrimSpace(*c) == "" {
			add("defaults.category", "must not be empty")
		} else {
			cfg.Defaults.Category = *c
		}
	}
	if e := raw.Defaults.EnergyRequired; e != nil {
		if !positive(*e) {
			add("defaults.energy_required", "must be a positive number")
		} else {
			cfg.Defaults.CycleTime = *e
		}
	}

	if raw.TimeFactors != nil {
		factors := flatfile.TimeFactors(raw.TimeFactors)
		if err := factors.Validate(); err != nil {
			add("time_factors", "%v", err)
		} else {
			cfg.TimeFactors = factors
		}
	}

	if ts := raw.Report.TimeScale; ts != nil {
		if !positive(*ts) {
			add("report.time_scale", "must be a positive number")
		} else {
			cfg.Report.TimeScale = *ts
		}
	}
	cfg.Report.Titles = raw.Report.Titles
	cfg.Report.Machine = strings.TrimSpace(raw.Report.Machine)

	for i, m := range raw.Machines {
		if err := m.Validate(); err != nil {
			add(fmt.Sprintf("machines[%d]", i), "%v", err)
		}
	}
	cfg.Machines = raw.Machines

	if len(errs) == 0 && cfg.Report.Machine != "" {
		catalog, err := cfg.Catalog()
		if err != nil {
			add("machines", "%v", err)
		} else if _, err := catalog.Crafter(cfg.Report.Machine); err != nil {
			add("report.machine", "%v", err)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// RecipeDefaults returns the values used for optional recipe fields.
func (c *Config) RecipeDefaults() recipe.Defaults { return c.Defaults }

// Factors returns the time factor table applied when decoding flat records.
func (c *Config) Factors() flatfile.TimeFactors { return c.TimeFactors }

// Catalog returns the default machine catalog with configured overrides.
func (c *Config) Catalog() (*machines.Catalog, error) {
	return machines.DefaultCatalog().With(c.Machines...)
}

// Marshal renders c as YAML, suitable for a fresh workspace.
func (c *Config) Marshal() ([]byte, error) {
	category := c.Defaults.Category
	energy := c.Defaults.CycleTime
	scale := c.Report.TimeScale
	raw := rawConfig{
		LogLevel:    c.LogLevel,
		Defaults:    rawDefaults{Category: &category, EnergyRequired: &energy},
		TimeFactors: c.TimeFactors,
		Report:      rawReport{TimeScale: &scale, Machine: c.Report.Machine, Titles: c.Report.Titles},
		Machines:    c.Machines,
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode config yaml: %w", err)
	}
	return data, nil
}

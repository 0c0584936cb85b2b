package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodplan/internal/flatfile"
	"prodplan/internal/recipe"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "prodplan.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, recipe.DefaultDefaults(), cfg.RecipeDefaults())
	assert.Equal(t, flatfile.DefaultTimeFactors(), cfg.Factors())
}

func TestParseAndValidate(t *testing.T) {
	cfg, err := ParseAndValidate([]byte(`
log_level: DEBUG
defaults:
  category: assembly
  energy_required: 1.5
time_factors:
  - {min: 1, max: 3, factor: 1}
  - {min: 4, max: 8, factor: 2}
report:
  time_scale: 3600
  machine: foundry
  titles: true
machines:
  - name: foundry
    class: transform
    power: {source: electric, watts: 2500000}
    crafting_speed: 4
    module_slots: 4
    pollution: 6
`), "prodplan.yaml")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, recipe.Defaults{Category: "assembly", CycleTime: 1.5}, cfg.RecipeDefaults())
	f, err := cfg.Factors().Factor(7)
	require.NoError(t, err)
	assert.Equal(t, 2.0, f)
	assert.Equal(t, Report{TimeScale: 3600, Machine: "foundry", Titles: true}, cfg.Report)

	catalog, err := cfg.Catalog()
	require.NoError(t, err)
	m, err := catalog.Crafter("foundry")
	require.NoError(t, err)
	assert.Equal(t, 4.0, m.CraftingSpeed)
	_, ok := catalog.Get("assembling-machine-1")
	assert.True(t, ok)
}

func TestParseAndValidatePartialKeepsDefaults(t *testing.T) {
	cfg, err := ParseAndValidate([]byte("report:\n  machine: assembling-machine-2\n"), "prodplan.yaml")
	require.NoError(t, err)
	assert.Equal(t, recipe.DefaultDefaults(), cfg.Defaults)
	assert.Equal(t, float64(DefaultTimeScale), cfg.Report.TimeScale)
	assert.Equal(t, "assembling-machine-2", cfg.Report.Machine)
}

func TestParseAndValidateErrors(t *testing.T) {
	_, err := ParseAndValidate([]byte(`
log_level: loud
defaults:
  category: ""
  energy_required: -1
time_factors:
  - {min: 1, max: 4, factor: 1}
  - {min: 3, max: 5, factor: 1}
report:
  time_scale: 0
machines:
  - name: broken
    class: transform
    power: {source: electric, watts: 0}
    crafting_speed: 1
`), "prodplan.yaml")
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	var fields []string
	for _, e := range verrs {
		assert.Equal(t, "prodplan.yaml", e.File)
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{
		"log_level",
		"defaults.category",
		"defaults.energy_required",
		"time_factors",
		"report.time_scale",
		"machines[0]",
	}, fields)
}

func TestParseAndValidateUnknownReportMachine(t *testing.T) {
	_, err := ParseAndValidate([]byte("report:\n  machine: pumpjack\n"), "cfg.yaml")
	assert.ErrorContains(t, err, "report.machine")
	assert.ErrorContains(t, err, "cannot run recipes")
}

func TestParseAndValidateBadYAML(t *testing.T) {
	_, err := ParseAndValidate([]byte("defaults: [unterminated"), "cfg.yaml")
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "yaml", verrs[0].Field)
}

func TestMarshalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prodplan.yaml")
	data, err := Default().Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

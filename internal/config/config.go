// Package config provides unified configuration loading for cable.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/cable/internal/constants"
	"gopkg.in/yaml.v3"
)

// Preset names accepted by ModelConfig.Preset.
const (
	PresetNone             = ""
	PresetProjectionNeuron = "projection-neuron"
)

// CableConfig contains all cable configuration settings.
type CableConfig struct {
	// Model contains discretization and biophysics defaults.
	Model ModelConfig `json:"model" yaml:"model"`

	// Simulation contains run defaults.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Store contains settings for run persistence.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and journal logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ModelConfig configures model construction.
type ModelConfig struct {
	// Resolution is the approximate subdivision length [um].
	Resolution float64 `json:"resolution" yaml:"resolution"`

	// Ra is the axial resistance [Ohm*cm].
	Ra float64 `json:"ra" yaml:"ra"`

	// Cm is the membrane capacitance [uF/cm^2].
	Cm float64 `json:"cm" yaml:"cm"`

	// Preset applies a named set of biophysics after construction:
	// "" (none) or "projection-neuron". Overrides Ra and Cm.
	Preset string `json:"preset,omitempty" yaml:"preset,omitempty"`

	// Active adds Hodgkin-Huxley channels when a preset is applied.
	Active bool `json:"active,omitempty" yaml:"active,omitempty"`
}

// SimulationConfig configures runs.
type SimulationConfig struct {
	// Duration is the run length [ms].
	Duration float64 `json:"duration" yaml:"duration"`

	// VInit is the initial membrane potential [mV].
	VInit float64 `json:"v_init" yaml:"v_init"`

	// Dt is the engine time step [ms].
	Dt float64 `json:"dt" yaml:"dt"`
}

// StoreConfig configures the run result store.
type StoreConfig struct {
	// Path is the SQLite database file. Supports ${VAR} syntax.
	// Empty selects ~/.cable/cable.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Save stores every run unless disabled on the command line.
	Save bool `json:"save" yaml:"save"`
}

// LoggingConfig configures cable's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	// "debug" enables the run journal at ~/.cable/journal.jsonl.
	// "trace" additionally logs every node placement.
	Level string `json:"level" yaml:"level"`
}

// Default returns a CableConfig with sensible defaults.
func Default() *CableConfig {
	return &CableConfig{
		Model: ModelConfig{
			Resolution: constants.DefaultResolution,
			Ra:         constants.DefaultRa,
			Cm:         constants.DefaultCm,
		},
		Simulation: SimulationConfig{
			Duration: constants.DefaultDuration,
			VInit:    constants.DefaultVInit,
			Dt:       constants.DefaultDt,
		},
		Store: StoreConfig{
			Save: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.cable/config.yaml -> environment variables
func Load() (*CableConfig, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".cable", "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*CableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Store.Path = expandEnvVars(config.Store.Path)

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *CableConfig) Validate() error {
	positives := []struct {
		name string
		v    float64
	}{
		{"model.resolution", c.Model.Resolution},
		{"model.ra", c.Model.Ra},
		{"model.cm", c.Model.Cm},
		{"simulation.dt", c.Simulation.Dt},
	}
	for _, p := range positives {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", p.name, p.v)
		}
	}

	if math.IsNaN(c.Simulation.Duration) || math.IsInf(c.Simulation.Duration, 0) || c.Simulation.Duration < 0 {
		return fmt.Errorf("simulation.duration must be non-negative, got %v", c.Simulation.Duration)
	}
	if math.IsNaN(c.Simulation.VInit) || math.IsInf(c.Simulation.VInit, 0) {
		return fmt.Errorf("simulation.v_init must be finite, got %v", c.Simulation.VInit)
	}

	validPresets := map[string]bool{PresetNone: true, PresetProjectionNeuron: true}
	if !validPresets[c.Model.Preset] {
		return fmt.Errorf("invalid preset: %s (valid: %s, or empty)", c.Model.Preset, PresetProjectionNeuron)
	}

	validLevels := map[string]bool{"warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(config *CableConfig) {
	floats := []struct {
		env string
		dst *float64
	}{
		{"CABLE_RESOLUTION", &config.Model.Resolution},
		{"CABLE_RA", &config.Model.Ra},
		{"CABLE_CM", &config.Model.Cm},
		{"CABLE_DURATION", &config.Simulation.Duration},
		{"CABLE_V_INIT", &config.Simulation.VInit},
		{"CABLE_DT", &config.Simulation.Dt},
	}
	for _, f := range floats {
		if v := os.Getenv(f.env); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				*f.dst = parsed
			}
		}
	}

	if v := os.Getenv("CABLE_PRESET"); v != "" {
		config.Model.Preset = v
	}

	if v := os.Getenv("CABLE_STORE_PATH"); v != "" {
		config.Store.Path = expandEnvVars(v)
	}

	if v := os.Getenv("CABLE_STORE_SAVE"); v != "" {
		config.Store.Save = v == "true" || v == "1"
	}

	if v := os.Getenv("CABLE_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/cable/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cable configuration",
		Long: `View and modify cable configuration settings.

Configuration is stored in ~/.cable/config.yaml. CABLE_* environment
variables override the file.

Examples:
  cable config list                          # Show all settings
  cable config get model.resolution          # Get a specific setting
  cable config set model.resolution 2.5      # Set a setting
  cable config set store.path '${HOME}/runs/cable.db'`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(cfg)
			}

			fmt.Fprintln(out, "Configuration (~/.cable/config.yaml):")
			fmt.Fprintln(out)
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]any{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(out, "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := saveConfig(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return json.NewEncoder(out).Encode(map[string]any{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(out, "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.CableConfig, key string) (any, bool) {
	switch key {
	case "model.resolution":
		return cfg.Model.Resolution, true
	case "model.ra":
		return cfg.Model.Ra, true
	case "model.cm":
		return cfg.Model.Cm, true
	case "model.preset":
		return cfg.Model.Preset, true
	case "model.active":
		return cfg.Model.Active, true
	case "simulation.duration":
		return cfg.Simulation.Duration, true
	case "simulation.v_init":
		return cfg.Simulation.VInit, true
	case "simulation.dt":
		return cfg.Simulation.Dt, true
	case "store.path":
		return cfg.Store.Path, true
	case "store.save":
		return cfg.Store.Save, true
	case "logging.level":
		return cfg.Logging.Level, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.CableConfig, key, value string) error {
	floats := map[string]*float64{
		"model.resolution":    &cfg.Model.Resolution,
		"model.ra":            &cfg.Model.Ra,
		"model.cm":            &cfg.Model.Cm,
		"simulation.duration": &cfg.Simulation.Duration,
		"simulation.v_init":   &cfg.Simulation.VInit,
		"simulation.dt":       &cfg.Simulation.Dt,
	}
	if dst, ok := floats[key]; ok {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %s (must be a number)", key, value)
		}
		*dst = f
		return nil
	}

	switch key {
	case "model.preset":
		cfg.Model.Preset = value
	case "model.active":
		cfg.Model.Active = value == "true" || value == "1"
	case "store.path":
		cfg.Store.Path = value
	case "store.save":
		cfg.Store.Save = value == "true" || value == "1"
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// saveConfig writes the configuration to ~/.cable/config.yaml.
func saveConfig(cfg *config.CableConfig) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	cableDir := filepath.Join(homeDir, ".cable")
	if err := os.MkdirAll(cableDir, 0700); err != nil {
		return fmt.Errorf("failed to create .cable directory: %w", err)
	}

	configPath := filepath.Join(cableDir, "config.yaml")
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DESKWM"

// GetConfigPath returns the config file location, creating parent directories.
func GetConfigPath() (string, error) {
	return xdg.ConfigFile(filepath.Join("deskwm", "config.toml"))
}

// LoadUserConfig loads the user's config file, writing defaults when it is
// missing, then applies environment overrides.
func LoadUserConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("could not determine config path: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := WriteDefault(path); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFromFile reads path over the defaults. Keys absent from the file keep
// their default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays DESKWM_* environment variables, e.g.
// DESKWM_INTERACTION_SNAP_THRESHOLD or DESKWM_BRIDGE_PORT.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration with a header comment.
func WriteDefault(path string) error {
	data, err := Marshal(DefaultConfig(), path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders cfg as TOML with the standard header.
func Marshal(cfg *Config, path string) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString("# deskwm configuration\n")
	sb.WriteString("# Pixel sizes are container pixels; rects are percent of the container.\n")
	sb.WriteString("# Any key can be overridden with DESKWM_<SECTION>_<KEY>.\n")
	if path != "" {
		sb.WriteString("#\n# Location: " + path + "\n")
	}
	sb.WriteString("\n")

	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	sb.Write(data)
	return []byte(sb.String()), nil
}

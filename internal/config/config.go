package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all kgmem configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Dream    DreamConfig    `yaml:"dream"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// DreamConfig holds the standing parameters for consolidation passes
// triggered without explicit overrides.
type DreamConfig struct {
	DecayRate     float64 `yaml:"decay_rate"`
	BoostFactor   float64 `yaml:"boost_factor"`
	StaleDays     float64 `yaml:"stale_days"`
	MinConfidence float64 `yaml:"min_confidence"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37791,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Dream: DreamConfig{
			DecayRate:     0.05,
			BoostFactor:   0.1,
			StaleDays:     7.0,
			MinConfidence: 0.01,
		},
	}
}

// Load reads config from the YAML file at path, layered over defaults,
// then applies environment overrides. A missing file is not an error;
// defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays KGMEM_* environment variables onto the config.
func (c *Config) applyEnv() {
	if v := os.Getenv("KGMEM_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("KGMEM_BIND"); v != "" {
		c.Server.Bind = v
	}
	if v := os.Getenv("KGMEM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

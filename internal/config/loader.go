package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. VOICED_IDLE_TIMEOUT.
const EnvPrefix = "VOICED"

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		cfg.baseDir = abs
	}
	return cfg, nil
}

// LoadEnv loads dotenv files (missing files are ignored) and then applies
// VOICED_* variables on top of cfg. Variables already set in the process
// environment win over dotenv values.
func LoadEnv(cfg *Config, dotenvFiles ...string) error {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("env config: %w", err)
	}
	return nil
}

// Resolve reads the optional file at path, overlays the environment and
// applies defaults. An empty path skips the file.
func Resolve(path string, dotenvFiles ...string) (Config, error) {
	var cfg Config
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	if err := LoadEnv(&cfg, dotenvFiles...); err != nil {
		return cfg, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

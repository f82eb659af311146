package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr          string `json:"addr" yaml:"addr" toml:"addr"`
	CacheDir      string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	CheckpointDir string `json:"checkpoint_dir" yaml:"checkpoint_dir" toml:"checkpoint_dir"`
	DefaultModel  string `json:"default_model" yaml:"default_model" toml:"default_model"`
	DepthBin      string `json:"depth_bin" yaml:"depth_bin" toml:"depth_bin"`
	SplatBin      string `json:"splat_bin" yaml:"splat_bin" toml:"splat_bin"`
	// IdleTimeoutSec evicts a resident model after this much inactivity.
	IdleTimeoutSec int `json:"idle_timeout_sec" yaml:"idle_timeout_sec" toml:"idle_timeout_sec"`
	// IdleTickSec is the idle-monitor check interval.
	IdleTickSec int `json:"idle_tick_sec" yaml:"idle_tick_sec" toml:"idle_tick_sec"`
	// BatchSize caps frames between device-memory reclamations in the SBS
	// pipeline.
	BatchSize   int      `json:"batch_size" yaml:"batch_size" toml:"batch_size"`
	MaxUploadMB int      `json:"max_upload_mb" yaml:"max_upload_mb" toml:"max_upload_mb"`
	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

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
	return cfg, nil
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// GHOSTCOACH_HAND_HOLD_THRESHOLD=90.
const EnvPrefix = "GHOSTCOACH"

// envKeys are the scalar settings that may be overridden from the environment.
var envKeys = []string{
	"database",
	"align.enable_rotation",
	"align.max_rotation_deg",
	"align.min_confidence",
	"align.procrustes",
	"stabilize.alpha",
	"stabilize.switch_threshold",
	"score.sensitivity",
	"score.tolerance",
	"score.ema_alpha",
	"score.top_n",
	"score.angle_weight",
	"hold.threshold",
	"hold.duration",
	"shape.enabled",
	"shape.shape_weight",
	"shape.geometry_weight",
}

// Load reads the configuration file at path (YAML, JSON or TOML by
// extension) on top of DefaultConfig, then applies environment overrides.
// An empty path reads the environment only.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envKeys {
		if key == "database" {
			if err := v.BindEnv(key); err != nil {
				return Config{}, err
			}
			continue
		}
		for _, kind := range []string{"hand", "body"} {
			if err := v.BindEnv(kind + "." + key); err != nil {
				return Config{}, err
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

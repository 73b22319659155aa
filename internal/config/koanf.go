// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"latentrank.yaml",
	"latentrank.yml",
	"config.yaml",
	"/etc/latentrank/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings maps lower-cased environment variable names to koanf keys.
var envMappings = map[string]string{
	"model_factors":    "model.factors",
	"model_lambda":     "model.lambda",
	"model_alpha":      "model.alpha",
	"model_iterations": "model.iterations",
	"model_seed":       "model.seed",
	"model_max_items":  "model.max_items",
	"model_log_every":  "model.log_every",

	"input_kind":          "input.kind",
	"input_path":          "input.path",
	"input_delimiter":     "input.delimiter",
	"input_orientation":   "input.orientation",
	"input_row_ids":       "input.row_ids",
	"input_table":         "input.table",
	"input_item_column":   "input.item_column",
	"input_user_column":   "input.user_column",
	"input_rating_column": "input.rating_column",

	"output_kind":        "output.kind",
	"output_path":        "output.path",
	"output_delimiter":   "output.delimiter",
	"redis_addr":         "output.redis.addr",
	"redis_password":     "output.redis.password",
	"redis_db":           "output.redis.db",
	"redis_key_prefix":   "output.redis.key_prefix",
	"redis_ttl":          "output.redis.ttl",
	"redis_dial_timeout": "output.redis.dial_timeout",

	"report_path":           "report.path",
	"metrics_textfile_path": "metrics.textfile_path",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, then validates it.
//
// A non-empty path must exist. With an empty path the file is looked up via
// CONFIG_PATH and DefaultConfigPaths, and running without any file is fine.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file
	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps an environment variable to its koanf key. Unmapped
// variables return "" so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

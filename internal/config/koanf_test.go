// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate keeps tests from picking up a config file or variables from the
// environment running them.
func isolate(t *testing.T) {
	t.Helper()

	t.Setenv(ConfigPathEnvVar, "")
	for envName := range envMappings {
		name := strings.ToUpper(envName)
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "latentrank.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *defaultConfig() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, defaultConfig())
	}
}

func TestLoad_File(t *testing.T) {
	isolate(t)

	path := writeConfig(t, `
model:
  factors: 4
  lambda: 0.1
  iterations: 50
input:
  kind: duckdb
  path: /data/ratings.duckdb
  table: main.scores
output:
  kind: redis
  redis:
    addr: cache:6380
    ttl: 24h
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model.Factors != 4 || cfg.Model.Lambda != 0.1 || cfg.Model.Iterations != 50 {
		t.Errorf("Model = %+v, want factors=4 lambda=0.1 iterations=50", cfg.Model)
	}
	if cfg.Model.Alpha != 0.01 {
		t.Errorf("Model.Alpha = %v, want default 0.01 kept", cfg.Model.Alpha)
	}
	if cfg.Input.Kind != "duckdb" || cfg.Input.Table != "main.scores" {
		t.Errorf("Input = %+v, want duckdb main.scores", cfg.Input)
	}
	if cfg.Output.Redis.Addr != "cache:6380" {
		t.Errorf("Output.Redis.Addr = %q, want cache:6380", cfg.Output.Redis.Addr)
	}
	if cfg.Output.Redis.TTL != 24*time.Hour {
		t.Errorf("Output.Redis.TTL = %v, want 24h", cfg.Output.Redis.TTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)

	path := writeConfig(t, "model:\n  factors: 4\n")
	t.Setenv("MODEL_FACTORS", "8")
	t.Setenv("MODEL_ALPHA", "0.005")
	t.Setenv("INPUT_ROW_IDS", "false")
	t.Setenv("REDIS_TTL", "90m")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model.Factors != 8 {
		t.Errorf("Model.Factors = %d, want 8 from env", cfg.Model.Factors)
	}
	if cfg.Model.Alpha != 0.005 {
		t.Errorf("Model.Alpha = %v, want 0.005 from env", cfg.Model.Alpha)
	}
	if cfg.Input.RowIDs {
		t.Error("Input.RowIDs = true, want false from env")
	}
	if cfg.Output.Redis.TTL != 90*time.Minute {
		t.Errorf("Output.Redis.TTL = %v, want 90m", cfg.Output.Redis.TTL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_ConfigPathEnv(t *testing.T) {
	isolate(t)

	path := writeConfig(t, "model:\n  iterations: 7\n")
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model.Iterations != 7 {
		t.Errorf("Model.Iterations = %d, want 7 from CONFIG_PATH file", cfg.Model.Iterations)
	}
}

func TestLoad_Errors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing explicit file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
		},
		{
			name: "malformed yaml",
			path: func(t *testing.T) string { return writeConfig(t, "model: [factors\n") },
		},
		{
			name: "invalid value",
			path: func(t *testing.T) string { return writeConfig(t, "model:\n  alpha: -1\n") },
		},
		{
			name: "wrong type",
			path: func(t *testing.T) string { return writeConfig(t, "model:\n  factors: many\n") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path(t)); err == nil {
				t.Error("Load() error = nil, want error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"MODEL_FACTORS", "model.factors"},
		{"REDIS_ADDR", "output.redis.addr"},
		{"LOG_LEVEL", "logging.level"},
		{"METRICS_TEXTFILE_PATH", "metrics.textfile_path"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

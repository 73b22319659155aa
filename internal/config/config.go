// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package config

import (
	"time"
)

// Config holds everything one batch run needs.
//
// Model settings are the learning problem itself; the rest is operational
// (where ratings come from, where lists go, what gets logged and exported).
type Config struct {
	Model   ModelConfig   `koanf:"model"`
	Input   InputConfig   `koanf:"input"`
	Output  OutputConfig  `koanf:"output"`
	Report  ReportConfig  `koanf:"report"`
	Metrics MetricsConfig `koanf:"metrics"`
	Logging LoggingConfig `koanf:"logging"`
}

// ModelConfig holds hyperparameters and ranking options.
type ModelConfig struct {
	// Factors is k, the number of latent features.
	Factors int `koanf:"factors" validate:"min=1"`

	// Lambda is the L2 regularization strength.
	Lambda float64 `koanf:"lambda" validate:"gte=0"`

	// Alpha is the gradient-descent step size.
	Alpha float64 `koanf:"alpha" validate:"gt=0"`

	// Iterations is the exact number of training steps.
	Iterations int `koanf:"iterations" validate:"gte=0"`

	// Seed drives factor initialization.
	Seed int64 `koanf:"seed"`

	// MaxItems caps each user's list; 0 keeps every positive item.
	MaxItems int `koanf:"max_items" validate:"gte=0"`

	// LogEvery logs training progress every N steps; 0 disables it.
	LogEvery int `koanf:"log_every" validate:"gte=0"`
}

// InputConfig selects and configures the ratings source.
type InputConfig struct {
	Kind      string `koanf:"kind" validate:"oneof=csv duckdb"`
	Path      string `koanf:"path" validate:"required"`
	Delimiter string `koanf:"delimiter" validate:"delimiter"`

	// Orientation applies to csv input only.
	Orientation string `koanf:"orientation" validate:"oneof=items_by_users users_by_items"`

	// RowIDs applies to csv input only.
	RowIDs bool `koanf:"row_ids"`

	// Table and the column names apply to duckdb input only.
	Table        string `koanf:"table" validate:"sqlident"`
	ItemColumn   string `koanf:"item_column" validate:"sqlident"`
	UserColumn   string `koanf:"user_column" validate:"sqlident"`
	RatingColumn string `koanf:"rating_column" validate:"sqlident"`
}

// OutputConfig selects and configures the recommendation sink.
type OutputConfig struct {
	Kind      string      `koanf:"kind" validate:"oneof=csv redis"`
	Path      string      `koanf:"path"`
	Delimiter string      `koanf:"delimiter" validate:"delimiter"`
	Redis     RedisConfig `koanf:"redis"`
}

// RedisConfig configures the Redis sink.
type RedisConfig struct {
	Addr        string        `koanf:"addr" validate:"omitempty,hostname_port"`
	Password    string        `koanf:"password"`
	DB          int           `koanf:"db" validate:"gte=0"`
	KeyPrefix   string        `koanf:"key_prefix"`
	TTL         time.Duration `koanf:"ttl" validate:"gte=0"`
	DialTimeout time.Duration `koanf:"dial_timeout" validate:"gte=0"`
}

// ReportConfig configures the JSON run report.
type ReportConfig struct {
	// Path of the report file; empty disables the report.
	Path string `koanf:"path"`
}

// MetricsConfig configures metric export.
type MetricsConfig struct {
	// TextfilePath receives the Prometheus text exposition after the run;
	// empty disables the export.
	TextfilePath string `koanf:"textfile_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, the first configuration layer.
func defaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Factors:    2,
			Lambda:     0,
			Alpha:      0.01,
			Iterations: 500,
			Seed:       42,
			MaxItems:   0,
			LogEvery:   100,
		},
		Input: InputConfig{
			Kind:         "csv",
			Path:         "ratings.csv",
			Delimiter:    ",",
			Orientation:  "items_by_users",
			RowIDs:       true,
			Table:        "ratings",
			ItemColumn:   "item_id",
			UserColumn:   "user_id",
			RatingColumn: "rating",
		},
		Output: OutputConfig{
			Kind:      "csv",
			Path:      "recommendations.csv",
			Delimiter: ",",
			Redis: RedisConfig{
				Addr:        "localhost:6379",
				DB:          0,
				KeyPrefix:   "latentrank",
				TTL:         0,
				DialTimeout: 5 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Default returns a copy of the built-in defaults.
func Default() *Config {
	return defaultConfig()
}

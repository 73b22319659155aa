// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

/*
Package config loads and validates latentrank's configuration.

# Configuration Sources

Settings are layered with koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: the path given to Load, else CONFIG_PATH, else the
    first of DefaultConfigPaths that exists
 3. Environment variables listed in envMappings

# Example File

	model:
	  factors: 2
	  lambda: 0
	  alpha: 0.01
	  iterations: 500
	  seed: 42
	input:
	  kind: duckdb
	  path: /data/ratings.duckdb
	  table: ratings
	output:
	  kind: redis
	  redis:
	    addr: localhost:6379
	    ttl: 24h
	report:
	  path: /var/lib/latentrank/report.json
	logging:
	  level: debug

# Environment Variables

Model:
  - MODEL_FACTORS, MODEL_LAMBDA, MODEL_ALPHA, MODEL_ITERATIONS
  - MODEL_SEED, MODEL_MAX_ITEMS, MODEL_LOG_EVERY

Input:
  - INPUT_KIND (csv, duckdb), INPUT_PATH, INPUT_DELIMITER
  - INPUT_ORIENTATION (items_by_users, users_by_items), INPUT_ROW_IDS
  - INPUT_TABLE, INPUT_ITEM_COLUMN, INPUT_USER_COLUMN, INPUT_RATING_COLUMN

Output:
  - OUTPUT_KIND (csv, redis), OUTPUT_PATH, OUTPUT_DELIMITER
  - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_KEY_PREFIX, REDIS_TTL, REDIS_DIAL_TIMEOUT

Observability:
  - REPORT_PATH, METRICS_TEXTFILE_PATH
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Unlisted variables are ignored.
*/
package config

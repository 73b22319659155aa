// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

// Package main is the entry point for the latentrank batch job.
//
// One invocation performs one run:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Logging: zerolog with a run ID attached to every line
//  3. Load: ratings from a CSV file or a DuckDB table
//  4. Train: full-batch gradient descent on the latent factor model
//  5. Recommend: rank unrated items per user, positive scores only
//  6. Write: recommendation lists to a CSV file or Redis
//  7. Report: optional JSON run report and Prometheus textfile
//
// # Example Usage
//
//	./latentrank -config /etc/latentrank/config.yaml
//
//	INPUT_PATH=ratings.csv OUTPUT_PATH=recs.csv MODEL_ITERATIONS=1000 ./latentrank
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the run between stages and abort in-flight
// source and sink I/O. Training itself is not interruptible.
//
// The process exits non-zero when any stage fails.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/latentrank/internal/config"
	"github.com/tomtom215/latentrank/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: CONFIG_PATH or ./latentrank.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx = logging.ContextWithNewRunID(ctx)

	err = run(ctx, cfg)
	stop()
	if err != nil {
		logging.Ctx(ctx).Fatal().Err(err).Msg("Run failed")
	}
}

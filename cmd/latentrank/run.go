// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package main

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/tomtom215/latentrank/internal/batch"
	"github.com/tomtom215/latentrank/internal/config"
	"github.com/tomtom215/latentrank/internal/logging"
	"github.com/tomtom215/latentrank/internal/metrics"
	"github.com/tomtom215/latentrank/internal/ratings"
	"github.com/tomtom215/latentrank/internal/recommend"
	"github.com/tomtom215/latentrank/internal/sink"
)

// closableSource is a batch.Source that holds resources until closed.
type closableSource interface {
	batch.Source
	Close() error
}

// closableSink is a batch.Sink that holds resources until closed.
type closableSink interface {
	batch.Sink
	Close() error
}

// run performs one batch run. The report and metrics textfile are written
// even when a stage fails, so the failure is visible to whoever collects them.
func run(ctx context.Context, cfg *config.Config) error {
	logger := logging.Ctx(ctx)

	logger.Info().
		Str("input", cfg.Input.Kind).
		Str("output", cfg.Output.Kind).
		Int("factors", cfg.Model.Factors).
		Float64("lambda", cfg.Model.Lambda).
		Float64("alpha", cfg.Model.Alpha).
		Int("iterations", cfg.Model.Iterations).
		Int64("seed", cfg.Model.Seed).
		Msg("Configuration loaded")

	src, err := newSource(ctx, &cfg.Input)
	if err != nil {
		return err
	}
	defer closeLogged(src, "source")

	snk, err := newSink(ctx, &cfg.Output)
	if err != nil {
		return err
	}
	defer closeLogged(snk, "sink")

	job, err := batch.NewJob(src, snk, jobOptions(&cfg.Model))
	if err != nil {
		return err
	}

	report, runErr := job.Run(ctx)

	if cfg.Report.Path != "" {
		if err := report.WriteFile(cfg.Report.Path); err != nil {
			runErr = errors.Join(runErr, err)
		} else {
			logger.Info().Str("path", cfg.Report.Path).Msg("Run report written")
		}
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	return runErr
}

// jobOptions maps model settings onto the batch job.
func jobOptions(m *config.ModelConfig) batch.Options {
	return batch.Options{
		Hyperparameters: recommend.Hyperparameters{
			Factors:    m.Factors,
			Lambda:     m.Lambda,
			Alpha:      m.Alpha,
			Iterations: m.Iterations,
		},
		Seed:     m.Seed,
		MaxItems: m.MaxItems,
		LogEvery: m.LogEvery,
	}
}

// newSource opens the configured ratings source.
func newSource(ctx context.Context, in *config.InputConfig) (closableSource, error) {
	switch in.Kind {
	case "csv":
		return ratings.NewCSVSource(in.Path, ratings.CSVOptions{
			Delimiter:   delimiterRune(in.Delimiter),
			Orientation: ratings.Orientation(in.Orientation),
			RowIDs:      in.RowIDs,
		}), nil
	case "duckdb":
		return ratings.OpenDuckDB(ctx, in.Path, ratings.DuckDBOptions{
			Table:        in.Table,
			ItemColumn:   in.ItemColumn,
			UserColumn:   in.UserColumn,
			RatingColumn: in.RatingColumn,
		})
	default:
		return nil, fmt.Errorf("unknown input kind %q: %w", in.Kind, recommend.ErrConfiguration)
	}
}

// newSink opens the configured recommendation sink.
func newSink(ctx context.Context, out *config.OutputConfig) (closableSink, error) {
	switch out.Kind {
	case "csv":
		return sink.NewCSVSink(out.Path, delimiterRune(out.Delimiter)), nil
	case "redis":
		return sink.NewRedisSink(ctx, sink.RedisOptions{
			Addr:        out.Redis.Addr,
			Password:    out.Redis.Password,
			DB:          out.Redis.DB,
			KeyPrefix:   out.Redis.KeyPrefix,
			TTL:         out.Redis.TTL,
			DialTimeout: out.Redis.DialTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown output kind %q: %w", out.Kind, recommend.ErrConfiguration)
	}
}

// delimiterRune returns the single rune of a validated delimiter setting.
func delimiterRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return ','
	}
	return r
}

type closer interface {
	Close() error
}

func closeLogged(c closer, what string) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", what).Msg("Failed to close")
	}
}

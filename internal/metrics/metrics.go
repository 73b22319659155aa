// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

// Package metrics defines the Prometheus collectors for batch runs.
//
// A run is a short-lived process, so nothing is scraped. After the run the
// default registry is written in text exposition format with WriteTextfile,
// for node_exporter's textfile collector to pick up.
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages, used as the "stage" label.
const (
	StageLoad      = "load"
	StageTrain     = "train"
	StageRecommend = "recommend"
	StageWrite     = "write"
)

var (
	// Training Metrics
	TrainingSteps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "latentrank_training_steps_total",
			Help: "Total number of gradient-descent steps executed",
		},
	)

	TrainingLoss = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "latentrank_training_loss",
			Help: "Loss at the most recent training step (NaN or Inf after divergence)",
		},
	)

	// Pipeline Metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "latentrank_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~262s
		},
		[]string{"stage"},
	)

	StageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latentrank_stage_errors_total",
			Help: "Total number of pipeline stage failures",
		},
		[]string{"stage"},
	)

	LastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "latentrank_last_success_timestamp_seconds",
			Help: "Unix time of the last run that completed every stage",
		},
	)

	// Data Metrics
	MatrixCells = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "latentrank_matrix_cells",
			Help: "Size of the ratings matrix: all cells and observed cells",
		},
		[]string{"kind"}, // "total", "observed"
	)

	// Output Metrics
	RecommendationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "latentrank_recommendations_total",
			Help: "Total number of recommended items emitted across all users",
		},
	)

	UsersWithoutRecommendations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "latentrank_users_without_recommendations",
			Help: "Users whose list was empty in the last run",
		},
	)

	SinkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "latentrank_sink_errors_total",
			Help: "Total number of failed writes per sink",
		},
		[]string{"sink"},
	)
)

// RecordStage records a stage duration and, on failure, a stage error.
func RecordStage(stage string, duration time.Duration, err error) {
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		StageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordTrainingStep counts one step and exposes its loss.
func RecordTrainingStep(loss float64) {
	TrainingSteps.Inc()
	TrainingLoss.Set(loss)
}

// RecordMatrix exposes the ratings matrix size.
func RecordMatrix(items, users, observed int) {
	MatrixCells.WithLabelValues("total").Set(float64(items * users))
	MatrixCells.WithLabelValues("observed").Set(float64(observed))
}

// RecordRecommendations counts emitted items and users left with none.
func RecordRecommendations(items, emptyUsers int) {
	RecommendationsTotal.Add(float64(items))
	UsersWithoutRecommendations.Set(float64(emptyUsers))
}

// RecordSinkError counts a failed write to the named sink.
func RecordSinkError(sink string) {
	SinkErrors.WithLabelValues(sink).Inc()
}

// RecordSuccess marks the run as completed at t.
func RecordSuccess(t time.Time) {
	LastSuccess.Set(float64(t.Unix()))
}

// LossIsFinite reports whether the loss gauge holds a usable value.
func LossIsFinite(loss float64) bool {
	return !math.IsNaN(loss) && !math.IsInf(loss, 0)
}

// WriteTextfile writes every registered metric to path in text exposition
// format. The file is written atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

// Package batch runs one offline recommendation pass: load ratings, train
// the factor model, rank unrated items, and hand the lists to a sink.
package batch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/tomtom215/latentrank/internal/logging"
	"github.com/tomtom215/latentrank/internal/metrics"
	"github.com/tomtom215/latentrank/internal/recommend"
)

// Source supplies the ratings matrix.
type Source interface {
	Name() string
	Load(ctx context.Context) (*recommend.Ratings, error)
}

// Sink receives the final recommendation lists.
type Sink interface {
	Name() string
	Write(ctx context.Context, recs []recommend.Recommendation) error
}

// Options configures a Job.
type Options struct {
	Hyperparameters recommend.Hyperparameters

	// Seed initializes the factor matrices.
	Seed int64

	// MaxItems caps each list; 0 means no cap.
	MaxItems int

	// LogEvery logs training progress every N steps; 0 disables it.
	LogEvery int
}

// Job wires a source, the trainer, the recommender and a sink. The caller
// owns the source and sink and closes them after Run.
type Job struct {
	source Source
	sink   Sink
	opts   Options
	now    func() time.Time
}

// NewJob validates opts and returns a job ready to run.
//
//nolint:gocritic // Options is copied once at construction
func NewJob(source Source, sink Sink, opts Options) (*Job, error) {
	if source == nil || sink == nil {
		return nil, fmt.Errorf("source and sink are required: %w", recommend.ErrConfiguration)
	}
	if err := opts.Hyperparameters.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxItems < 0 || opts.LogEvery < 0 {
		return nil, fmt.Errorf("max items and log interval must be non-negative: %w", recommend.ErrConfiguration)
	}

	return &Job{
		source: source,
		sink:   sink,
		opts:   opts,
		now:    time.Now,
	}, nil
}

// Run executes every stage in order and returns the run report. On failure
// the report covers the stages that completed and the error is returned as
// well.
//
// The run ID is taken from ctx (see logging.ContextWithRunID) or generated.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	runID := logging.RunIDFromContext(ctx)
	if runID == "" {
		runID = logging.GenerateRunID()
		ctx = logging.ContextWithRunID(ctx, runID)
	}
	logger := logging.Ctx(ctx)

	report := &Report{
		RunID:           runID,
		StartedAt:       j.now().UTC(),
		Source:          j.source.Name(),
		Sink:            j.sink.Name(),
		Hyperparameters: j.opts.Hyperparameters,
		Seed:            j.opts.Seed,
		MaxItems:        j.opts.MaxItems,
		StageSeconds:    make(map[string]float64, 4),
	}

	err := j.run(ctx, report)
	report.FinishedAt = j.now().UTC()
	if err != nil {
		report.Error = err.Error()
		return report, err
	}

	metrics.RecordSuccess(report.FinishedAt)
	logger.Info().
		Int("items_recommended", report.ItemsRecommended).
		Int("users_without_recommendations", report.UsersWithoutRecommendations).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("Run complete")
	return report, nil
}

func (j *Job) run(ctx context.Context, report *Report) error {
	logger := logging.Ctx(ctx)

	// Load
	var ratings *recommend.Ratings
	err := j.stage(report, metrics.StageLoad, func() error {
		var err error
		ratings, err = j.source.Load(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("load ratings from %s: %w", j.source.Name(), err)
	}

	report.Items, report.Users = ratings.Dims()
	report.Observed = ratings.Observed()
	metrics.RecordMatrix(report.Items, report.Users, report.Observed)
	logger.Info().
		Str("source", j.source.Name()).
		Int("items", report.Items).
		Int("users", report.Users).
		Int("observed", report.Observed).
		Msg("Ratings loaded")

	if err := ctx.Err(); err != nil {
		return err
	}

	// Train
	var result *recommend.TrainResult
	err = j.stage(report, metrics.StageTrain, func() error {
		trainer, err := recommend.NewTrainer(j.opts.Hyperparameters, rand.New(rand.NewSource(j.opts.Seed))) //nolint:gosec // reproducible initialization
		if err != nil {
			return err
		}
		trainer.SetObserver(j.observer(ctx))

		result, err = trainer.Fit(ratings)
		return err
	})
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}

	report.LossTrace = result.LossTrace
	report.FinalLoss = Float(result.FinalLoss())
	if len(result.LossTrace) > 0 && !metrics.LossIsFinite(result.FinalLoss()) {
		logger.Warn().
			Float64("final_loss", result.FinalLoss()).
			Float64("alpha", j.opts.Hyperparameters.Alpha).
			Msg("Training diverged; recommendations will be unreliable")
	} else {
		logger.Info().
			Int("steps", len(result.LossTrace)).
			Float64("final_loss", result.FinalLoss()).
			Msg("Training finished")
	}

	// Recommend
	var recs []recommend.Recommendation
	err = j.stage(report, metrics.StageRecommend, func() error {
		var err error
		recs, err = recommend.NewRecommender(j.opts.MaxItems).
			Recommend(result.Model, ratings.Mask, ratings.ItemIDs, ratings.UserIDs)
		return err
	})
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	for _, rec := range recs {
		if len(rec.ItemIDs) == 0 {
			report.UsersWithoutRecommendations++
			continue
		}
		report.UsersWithRecommendations++
		report.ItemsRecommended += len(rec.ItemIDs)
	}
	metrics.RecordRecommendations(report.ItemsRecommended, report.UsersWithoutRecommendations)

	if err := ctx.Err(); err != nil {
		return err
	}

	// Write
	err = j.stage(report, metrics.StageWrite, func() error {
		return j.sink.Write(ctx, recs)
	})
	if err != nil {
		metrics.RecordSinkError(j.sink.Name())
		return fmt.Errorf("write recommendations to %s: %w", j.sink.Name(), err)
	}

	logger.Info().
		Str("sink", j.sink.Name()).
		Int("users", len(recs)).
		Msg("Recommendations written")
	return nil
}

// stage times fn, records it, and stores the duration in the report when fn
// succeeds.
func (j *Job) stage(report *Report, name string, fn func() error) error {
	start := j.now()
	err := fn()
	elapsed := j.now().Sub(start)

	metrics.RecordStage(name, elapsed, err)
	if err == nil {
		report.StageSeconds[name] = elapsed.Seconds()
	}
	return err
}

// observer exports every step and logs every LogEvery-th one.
func (j *Job) observer(ctx context.Context) recommend.StepObserver {
	logger := logging.Ctx(ctx)
	every := j.opts.LogEvery
	total := j.opts.Hyperparameters.Iterations

	return func(step int, loss float64) {
		metrics.RecordTrainingStep(loss)
		if every > 0 && (step%every == 0 || step == total) {
			logger.Debug().
				Int("step", step).
				Int("of", total).
				Float64("loss", loss).
				Msg("Training progress")
		}
	}
}

// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package recommend

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// StepObserver is called after the loss of each training step is known.
// step counts from 1. Observers must not retain or modify training state.
type StepObserver func(step int, loss float64)

// TrainResult is the outcome of a training run.
type TrainResult struct {
	// Model holds the final factor matrices.
	Model *FactorModel

	// LossTrace holds the loss evaluated at the start of each step, one entry
	// per step. Non-finite entries mean training diverged.
	LossTrace []float64
}

// FinalLoss returns the last recorded loss, or NaN for an empty trace.
func (r *TrainResult) FinalLoss() float64 {
	if len(r.LossTrace) == 0 {
		return math.NaN()
	}
	return r.LossTrace[len(r.LossTrace)-1]
}

// Trainer fits a FactorModel by full-batch gradient descent.
//
// All randomness comes from the rng passed at construction and is only used
// to initialize factors; Train itself is deterministic.
type Trainer struct {
	params   Hyperparameters
	rng      *rand.Rand
	observer StepObserver
}

// NewTrainer creates a trainer. A nil rng is replaced by one seeded with
// DefaultSeed.
//
//nolint:gocritic // Hyperparameters is small and copied by value on purpose
func NewTrainer(params Hyperparameters, rng *rand.Rand) (*Trainer, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hyperparameters: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(DefaultSeed)) //nolint:gosec // reproducible initialization, not security
	}
	return &Trainer{
		params: params,
		rng:    rng,
	}, nil
}

// SetObserver installs a per-step observer. Pass nil to remove it.
func (t *Trainer) SetObserver(obs StepObserver) {
	t.observer = obs
}

// Hyperparameters returns the trainer's hyperparameters.
func (t *Trainer) Hyperparameters() Hyperparameters {
	return t.params
}

// Initialize draws a fresh random model for the given dimensions.
func (t *Trainer) Initialize(numItems, numUsers int) *FactorModel {
	return NewFactorModel(numItems, numUsers, t.params.Factors, t.rng)
}

// Fit initializes a model for ratings and trains it.
func (t *Trainer) Fit(ratings *Ratings) (*TrainResult, error) {
	numItems, numUsers := ratings.Dims()
	return t.Train(t.Initialize(numItems, numUsers), ratings.R, ratings.Mask)
}

// Train runs exactly Iterations steps starting from initial. Each step
// evaluates the loss and both gradients at the current point, records the
// loss, then applies F -= alpha*gradF and U -= alpha*gradU.
//
// initial is left untouched; the result holds new matrices. With zero
// iterations the result equals initial and the trace is empty.
func (t *Trainer) Train(initial *FactorModel, r, mask *mat.Dense) (*TrainResult, error) {
	if initial == nil {
		return nil, fmt.Errorf("nil initial model: %w", ErrConfiguration)
	}
	if err := checkShapes(initial.Items, initial.Users, r, mask); err != nil {
		return nil, err
	}
	if k := initial.Factors(); k != t.params.Factors {
		return nil, fmt.Errorf("initial model has %d factors, trainer expects %d: %w", k, t.params.Factors, ErrConfiguration)
	}

	model := initial.Clone()
	trace := make([]float64, 0, t.params.Iterations)

	for step := 1; step <= t.params.Iterations; step++ {
		eval, err := Evaluate(model.Items, model.Users, r, mask, t.params.Lambda)
		if err != nil {
			return nil, err
		}

		trace = append(trace, eval.Loss)
		if t.observer != nil {
			t.observer(step, eval.Loss)
		}

		eval.GradItems.Scale(t.params.Alpha, eval.GradItems)
		eval.GradUsers.Scale(t.params.Alpha, eval.GradUsers)
		model.Items.Sub(model.Items, eval.GradItems)
		model.Users.Sub(model.Users, eval.GradUsers)
	}

	return &TrainResult{
		Model:     model,
		LossTrace: trace,
	}, nil
}

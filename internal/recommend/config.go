// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package recommend

import (
	"fmt"
)

// DefaultSeed seeds factor initialization when no seed is configured.
const DefaultSeed int64 = 42

// Hyperparameters are fixed for the whole run; nothing tunes them.
type Hyperparameters struct {
	// Factors is k, the number of latent features per item and per user.
	// Default: 2.
	Factors int `json:"factors"`

	// Lambda is the L2 regularization strength applied to every factor entry.
	// Default: 0 (unregularized).
	Lambda float64 `json:"lambda"`

	// Alpha is the gradient-descent step size.
	// Default: 0.01.
	Alpha float64 `json:"alpha"`

	// Iterations is T, the exact number of training steps.
	// Default: 500.
	Iterations int `json:"iterations"`
}

// DefaultHyperparameters returns k=2, lambda=0, alpha=0.01, T=500.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		Factors:    2,
		Lambda:     0,
		Alpha:      0.01,
		Iterations: 500,
	}
}

// Validate checks the hyperparameters. The comparisons are written so that
// NaN fails every check.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (h Hyperparameters) Validate() error {
	if h.Factors < 1 {
		return fmt.Errorf("factors must be positive, got %d: %w", h.Factors, ErrConfiguration)
	}
	if !(h.Lambda >= 0) {
		return fmt.Errorf("lambda must be non-negative, got %f: %w", h.Lambda, ErrConfiguration)
	}
	if !(h.Alpha > 0) {
		return fmt.Errorf("alpha must be positive, got %f: %w", h.Alpha, ErrConfiguration)
	}
	if h.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d: %w", h.Iterations, ErrConfiguration)
	}
	return nil
}

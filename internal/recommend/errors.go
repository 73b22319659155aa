// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package recommend

import "errors"

// Error categories. Callers match them with errors.Is; concrete errors wrap
// one of these with the offending detail.
var (
	// ErrDataFormat reports a malformed or empty ratings table.
	ErrDataFormat = errors.New("data format error")

	// ErrConfiguration reports invalid hyperparameters or matrices whose
	// shapes do not line up.
	ErrConfiguration = errors.New("configuration error")

	// ErrIO reports a failure reading ratings or writing recommendations.
	ErrIO = errors.New("io error")
)

// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

// Package recommend implements latent factor collaborative filtering over a
// dense ratings matrix.
//
// # Model
//
// The ratings matrix R (items x users) is approximated by F * U', where F is
// the item factor matrix (items x k) and U the user preference matrix
// (users x k). Only observed cells contribute to the reconstruction error:
//
//	loss = 1/2 * sum_{M=1} (F*U' - R)^2 + lambda/2 * (||F||^2 + ||U||^2)
//
// Regularization covers every factor entry, including rows for items or
// users without observations.
//
// # Training
//
// The Trainer runs a fixed number of full-batch gradient-descent steps. Both
// gradients of a step are computed from the same (F, U) pair before either
// matrix is updated. There is no early stopping and no divergence guard: a
// step size that is too large shows up as a growing or non-finite loss trace.
//
// # Ranking
//
// Recommend scores every item for every user, drops cells the user has
// already rated, sorts by (score, item ID) descending and keeps the prefix
// with strictly positive scores.
//
// # Usage
//
//	ratings, err := recommend.NewRatings(r, itemIDs, userIDs)
//	trainer, err := recommend.NewTrainer(recommend.DefaultHyperparameters(), rand.New(rand.NewSource(42)))
//	result, err := trainer.Fit(ratings)
//	recs, err := recommend.NewRecommender(0).Recommend(result.Model, ratings.Mask, ratings.ItemIDs, ratings.UserIDs)
//
// # Limitations
//
// A rating of exactly zero cannot be told apart from a missing rating; the
// observed mask is derived from non-zero cells. The predicted matrix is dense
// and recomputed every step, which costs O(items * users * k) per iteration.
package recommend

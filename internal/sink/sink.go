// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

// Package sink writes ranked recommendation lists to their destination.
//
// CSVSink writes one line per user (the user ID followed by item IDs in rank
// order). RedisSink stores each user's list as a JSON array under its own
// key. Every failure to open, write or close a destination wraps
// recommend.ErrIO.
package sink

// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

/*
Package ratings loads historical ratings into the dense items x users matrix
the recommender trains on.

Two sources are provided:

  - CSVSource reads a wide delimited table: a header row of column
    identifiers followed by one row per item (or per user, see Orientation).
    Empty cells are unobserved.
  - DuckDBSource reads a long table of (item, user, rating) rows from a
    DuckDB database file and pivots it. Identifiers are sorted ascending.

Both sources return *recommend.Ratings and report malformed input with
errors wrapping recommend.ErrDataFormat. Failures to open or read the
underlying file wrap recommend.ErrIO.

A rating of 0 is indistinguishable from a missing rating in either format.
*/
package ratings

// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package recommend

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Ratings is a dense ratings table with its observed mask and axis labels.
// It is created once per run and never mutated.
type Ratings struct {
	// R holds R[i,u], the rating of item i by user u, or 0 if unobserved.
	R *mat.Dense

	// Mask holds 1 where R is non-zero and 0 elsewhere.
	Mask *mat.Dense

	// ItemIDs labels the rows of R.
	ItemIDs []string

	// UserIDs labels the columns of R.
	UserIDs []string
}

// NewRatings wraps r (items x users) and derives its observed mask.
//
// A cell counts as observed iff it is non-zero, so a genuine rating of 0 is
// treated as missing. Sources that need to keep zero ratings must shift
// their scale before loading.
func NewRatings(r *mat.Dense, itemIDs, userIDs []string) (*Ratings, error) {
	if r == nil || r.IsEmpty() {
		return nil, fmt.Errorf("ratings matrix is empty: %w", ErrDataFormat)
	}

	rows, cols := r.Dims()
	if len(itemIDs) != rows {
		return nil, fmt.Errorf("got %d item IDs for %d rows: %w", len(itemIDs), rows, ErrDataFormat)
	}
	if len(userIDs) != cols {
		return nil, fmt.Errorf("got %d user IDs for %d columns: %w", len(userIDs), cols, ErrDataFormat)
	}

	return &Ratings{
		R:       r,
		Mask:    ObservedMask(r),
		ItemIDs: itemIDs,
		UserIDs: userIDs,
	}, nil
}

// ObservedMask returns a matrix with 1 where r is non-zero and 0 elsewhere.
func ObservedMask(r mat.Matrix) *mat.Dense {
	rows, cols := r.Dims()
	mask := mat.NewDense(rows, cols, nil)
	mask.Apply(func(i, j int, _ float64) float64 {
		if r.At(i, j) != 0 {
			return 1
		}
		return 0
	}, mask)
	return mask
}

// Dims returns the number of items and users.
func (r *Ratings) Dims() (items, users int) {
	return r.R.Dims()
}

// Observed returns the number of observed cells.
func (r *Ratings) Observed() int {
	return int(mat.Sum(r.Mask))
}

// Recommendation is the ranked list of unrated items for one user.
type Recommendation struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// ItemIDs lists recommended items, best first. Empty when no unrated
	// item has a positive predicted score.
	ItemIDs []string `json:"item_ids"`
}

// Record returns the user ID followed by the ranked item IDs, the layout of
// one output row.
func (r Recommendation) Record() []string {
	record := make([]string, 0, len(r.ItemIDs)+1)
	record = append(record, r.UserID)
	return append(record, r.ItemIDs...)
}

// ByUser indexes recommendations by user ID.
func ByUser(recs []Recommendation) map[string][]string {
	out := make(map[string][]string, len(recs))
	for _, rec := range recs {
		out[rec.UserID] = rec.ItemIDs
	}
	return out
}

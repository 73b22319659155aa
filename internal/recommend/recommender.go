// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package recommend

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Recommender turns trained factors into per-user ranked item lists.
type Recommender struct {
	// maxItems caps each list after ranking; 0 means no cap.
	maxItems int
}

// NewRecommender creates a recommender. maxItems <= 0 keeps every item with
// a positive score.
func NewRecommender(maxItems int) *Recommender {
	if maxItems < 0 {
		maxItems = 0
	}
	return &Recommender{maxItems: maxItems}
}

// scoredItem pairs a predicted score with its item identifier.
type scoredItem struct {
	id    string
	score float64
}

// compareScored orders by score descending, then by identifier descending.
// cmp.Compare sorts NaN below every number, so NaN scores land last.
func compareScored(a, b scoredItem) int {
	if c := cmp.Compare(b.score, a.score); c != 0 {
		return c
	}
	return strings.Compare(b.id, a.id)
}

// Recommend returns one Recommendation per user, in userIDs order.
//
// Scores come from F * U'. Cells already rated (mask != 0) are forced to 0
// before ranking so they can never be recommended. Each user's items are
// fully sorted by (score, item ID) descending and then emitted from the top
// while the score is strictly positive; the walk stops at the first score
// that is not.
func (rc *Recommender) Recommend(model *FactorModel, mask *mat.Dense, itemIDs, userIDs []string) ([]Recommendation, error) {
	if model == nil || mask == nil {
		return nil, fmt.Errorf("nil model or mask: %w", ErrConfiguration)
	}

	scores := model.Predict()
	numItems, numUsers := scores.Dims()
	if mr, mc := mask.Dims(); mr != numItems || mc != numUsers {
		return nil, fmt.Errorf("mask is %dx%d, predictions %dx%d: %w", mr, mc, numItems, numUsers, ErrConfiguration)
	}
	if len(itemIDs) != numItems || len(userIDs) != numUsers {
		return nil, fmt.Errorf("got %d item and %d user IDs for %dx%d predictions: %w",
			len(itemIDs), len(userIDs), numItems, numUsers, ErrConfiguration)
	}

	scores.Apply(func(i, u int, v float64) float64 {
		if mask.At(i, u) != 0 {
			return 0
		}
		return v
	}, scores)

	byUser := mat.DenseCopyOf(scores.T())

	recs := make([]Recommendation, numUsers)
	ranked := make([]scoredItem, numItems)
	for u := 0; u < numUsers; u++ {
		row := byUser.RawRowView(u)
		for i, score := range row {
			ranked[i] = scoredItem{id: itemIDs[i], score: score}
		}
		recs[u] = Recommendation{
			UserID:  userIDs[u],
			ItemIDs: rc.topPositive(ranked),
		}
	}

	return recs, nil
}

// topPositive sorts items in place and returns the positive-score prefix.
// The early break relies on the sort: once a score is not positive, no
// later score can be.
func (rc *Recommender) topPositive(items []scoredItem) []string {
	slices.SortFunc(items, compareScored)

	out := make([]string, 0)
	for _, it := range items {
		if !(it.score > 0) {
			break
		}
		if rc.maxItems > 0 && len(out) == rc.maxItems {
			break
		}
		out = append(out, it.id)
	}
	return out
}

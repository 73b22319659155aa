// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package recommend

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// FactorModel holds the two latent factor matrices.
type FactorModel struct {
	// Items is F, the item factor matrix (numItems x k).
	Items *mat.Dense

	// Users is U, the user preference matrix (numUsers x k).
	Users *mat.Dense
}

// NewFactorModel returns a model whose entries are drawn independently and
// uniformly from [0, 1) using rng. Items are filled before users, row by row.
func NewFactorModel(numItems, numUsers, k int, rng *rand.Rand) *FactorModel {
	return &FactorModel{
		Items: randomDense(numItems, k, rng),
		Users: randomDense(numUsers, k, rng),
	}
}

func randomDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(rows, cols, data)
}

// Clone returns a deep copy of the model.
func (m *FactorModel) Clone() *FactorModel {
	return &FactorModel{
		Items: mat.DenseCopyOf(m.Items),
		Users: mat.DenseCopyOf(m.Users),
	}
}

// Factors returns k.
func (m *FactorModel) Factors() int {
	_, k := m.Items.Dims()
	return k
}

// Predict returns P = F * U', the predicted ratings (items x users).
func (m *FactorModel) Predict() *mat.Dense {
	var p mat.Dense
	p.Mul(m.Items, m.Users.T())
	return &p
}

// Evaluation is the loss and its gradients at one point.
type Evaluation struct {
	// Loss is the regularized reconstruction loss.
	Loss float64

	// GradItems is dLoss/dF, shaped like F.
	GradItems *mat.Dense

	// GradUsers is dLoss/dU, shaped like U.
	GradUsers *mat.Dense
}

// Evaluate computes the regularized loss at (items, users) and its gradients:
//
//	D     = (F*U' - R) .* M
//	loss  = 1/2 * sum(D.^2) + lambda/2 * (sum(F.^2) + sum(U.^2))
//	gradF = D * U  + lambda * F
//	gradU = D' * F + lambda * U
//
// The residual itself is masked, so unobserved cells contribute nothing to
// either the loss or the gradients. Evaluate does not modify its arguments.
func Evaluate(items, users, r, mask *mat.Dense, lambda float64) (Evaluation, error) {
	if err := checkShapes(items, users, r, mask); err != nil {
		return Evaluation{}, err
	}

	var residual mat.Dense
	residual.Mul(items, users.T())
	residual.Sub(&residual, r)
	residual.MulElem(&residual, mask)

	loss := sumSquares(&residual)/2 + lambda/2*(sumSquares(items)+sumSquares(users))

	var gradUsers mat.Dense
	gradUsers.Mul(residual.T(), items)
	gradUsers.Add(&gradUsers, scaled(lambda, users))

	var gradItems mat.Dense
	gradItems.Mul(&residual, users)
	gradItems.Add(&gradItems, scaled(lambda, items))

	return Evaluation{
		Loss:      loss,
		GradItems: &gradItems,
		GradUsers: &gradUsers,
	}, nil
}

// checkShapes verifies F is (n x k), U is (m x k) and R, M are (n x m).
func checkShapes(items, users, r, mask *mat.Dense) error {
	if items == nil || users == nil || r == nil || mask == nil {
		return fmt.Errorf("nil matrix passed to factor model: %w", ErrConfiguration)
	}

	numItems, k := items.Dims()
	numUsers, ku := users.Dims()
	rr, rc := r.Dims()
	mr, mc := mask.Dims()

	switch {
	case k != ku:
		return fmt.Errorf("item factors have %d columns, user factors %d: %w", k, ku, ErrConfiguration)
	case rr != numItems || rc != numUsers:
		return fmt.Errorf("ratings are %dx%d, factors imply %dx%d: %w", rr, rc, numItems, numUsers, ErrConfiguration)
	case mr != rr || mc != rc:
		return fmt.Errorf("mask is %dx%d, ratings %dx%d: %w", mr, mc, rr, rc, ErrConfiguration)
	}
	return nil
}

func sumSquares(m *mat.Dense) float64 {
	var sq mat.Dense
	sq.MulElem(m, m)
	return mat.Sum(&sq)
}

func scaled(f float64, m *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Scale(f, m)
	return &out
}

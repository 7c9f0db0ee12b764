// Package reinforce implements the REINFORCE policy gradient estimator
// for complete episodes: discounted returns, episode losses, and the
// computational graph that turns buffered episodes into gradients.
package reinforce

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GammaMatrix returns the upper triangular T×T matrix whose entry
// (t, k) is γ^(k-t) for k ≥ t and 0 otherwise. GammaMatrix returns nil
// if T == 0.
func GammaMatrix(gamma float64, T int) *mat.Dense {
	if T == 0 {
		return nil
	}

	powers := make([]float64, T)
	for i := range powers {
		powers[i] = math.Pow(gamma, float64(i))
	}

	gammas := mat.NewDense(T, T, nil)
	for t := 0; t < T; t++ {
		for k := t; k < T; k++ {
			gammas.Set(t, k, powers[k-t])
		}
	}
	return gammas
}

// Returns computes the discounted return at each step of an episode
// with rewards rewards and discount factor gamma:
//
//	returns[t] = Σ_{k=t}^{T-1} γ^(k-t) rewards[k]
//
// The rewards are broadcast across the rows of a T×T matrix, masked
// and discounted by GammaMatrix, and summed along each row. This is
// exactly equivalent to the backward recursion
// returns[t] = rewards[t] + γ returns[t+1].
func Returns(rewards []float64, gamma float64) []float64 {
	T := len(rewards)
	if T == 0 {
		return []float64{}
	}

	discounted := mat.NewDense(T, T, nil)
	for t := 0; t < T; t++ {
		discounted.SetRow(t, rewards)
	}
	discounted.MulElem(discounted, GammaMatrix(gamma, T))

	returns := make([]float64, T)
	for t := range returns {
		returns[t] = floats.Sum(discounted.RawRowView(t))
	}
	return returns
}

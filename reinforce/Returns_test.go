package reinforce

import (
	"testing"

	"gonum.org/v1/gonum/floats"
)

// recursiveReturns computes returns with the backward recursion
// G_t = r_t + γ G_{t+1}
func recursiveReturns(rewards []float64, gamma float64) []float64 {
	returns := make([]float64, len(rewards))
	next := 0.0
	for t := len(rewards) - 1; t >= 0; t-- {
		returns[t] = rewards[t] + gamma*next
		next = returns[t]
	}
	return returns
}

func TestReturnsMatchesRecursion(t *testing.T) {
	tests := []struct {
		rewards []float64
		gamma   float64
	}{
		{[]float64{1}, 0.9},
		{[]float64{1, 0, 1}, 0.9},
		{[]float64{0, 2}, 0.9},
		{[]float64{-1, 3.5, 0.25, 7, -2}, 0.5},
		{[]float64{1, 1, 1, 1, 1, 1, 1, 1}, 0.99},
		{[]float64{0.1, -0.2, 0.3}, 1e-3},
	}

	for _, test := range tests {
		want := recursiveReturns(test.rewards, test.gamma)
		have := Returns(test.rewards, test.gamma)
		if !floats.EqualApprox(want, have, 1e-12) {
			t.Errorf("incorrect returns for rewards %v, γ = %v"+
				"\n\twant(%v)\n\thave(%v)", test.rewards, test.gamma, want,
				have)
		}
	}
}

func TestReturnsUndiscounted(t *testing.T) {
	rewards := []float64{3, -1, 2, 0, 5}
	want := []float64{9, 6, 7, 5, 5}

	have := Returns(rewards, 1.0)
	if !floats.EqualApprox(want, have, 1e-12) {
		t.Errorf("incorrect undiscounted returns\n\twant(%v)\n\thave(%v)",
			want, have)
	}
}

func TestReturnsEmpty(t *testing.T) {
	have := Returns(nil, 0.9)
	if have == nil || len(have) != 0 {
		t.Errorf("expected empty, non-nil returns\n\thave(%v)", have)
	}
}

func TestGammaMatrix(t *testing.T) {
	gammas := GammaMatrix(0.5, 3)
	want := [][]float64{
		{1, 0.5, 0.25},
		{0, 1, 0.5},
		{0, 0, 1},
	}

	for i := range want {
		for j := range want[i] {
			if gammas.At(i, j) != want[i][j] {
				t.Errorf("incorrect entry (%d, %d)\n\twant(%v)\n\thave(%v)",
					i, j, want[i][j], gammas.At(i, j))
			}
		}
	}

	if GammaMatrix(0.5, 0) != nil {
		t.Errorf("expected nil gamma matrix for empty episode")
	}
}

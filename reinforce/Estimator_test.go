package reinforce

import (
	"math"
	"testing"

	"github.com/samuelfneumann/crlearn/network"
	"github.com/samuelfneumann/crlearn/solver"
	"gonum.org/v1/gonum/floats"
	G "gorgonia.org/gorgonia"
)

const (
	testFeatures = 2
	testActions  = 3
)

// newTestEstimator returns an Estimator over a linear policy with all
// weights zero, so that every action is initially equally likely.
func newTestEstimator(t *testing.T, rows int) (*Estimator,
	*solver.Optimizer) {
	t.Helper()

	net, err := network.NewMultiHeadMLP(testFeatures, rows, testActions,
		G.NewGraph(), []int{}, []bool{}, G.Zeroes(),
		[]*network.Activation{})
	if err != nil {
		t.Fatal(err)
	}

	e, err := NewEstimator(net)
	if err != nil {
		t.Fatal(err)
	}

	s, err := solver.NewVanilla(0.5, 1, -1)
	if err != nil {
		t.Fatal(err)
	}
	opt, err := solver.NewOptimizer(s, net.Learnables())
	if err != nil {
		t.Fatal(err)
	}
	return e, opt
}

func TestEstimatorLogProbs(t *testing.T) {
	e, _ := newTestEstimator(t, 4)
	defer e.Close()

	reps := [][]float64{{1, 2}, {-1, 0.5}, {0, 0}}
	logProbs, err := e.LogProbs(reps, []int{0, 2, 1})
	if err != nil {
		t.Fatal(err)
	}

	uniform := -math.Log(testActions)
	want := []float64{uniform, uniform, uniform}
	if !floats.EqualApprox(want, logProbs, 1e-9) {
		t.Errorf("incorrect log probabilities\n\twant(%v)\n\thave(%v)", want,
			logProbs)
	}

	if _, err := e.LogProbs(make([][]float64, 5), make([]int, 5)); err == nil {
		t.Errorf("expected error when evaluating more steps than rows")
	}
}

func TestEstimatorBackwardIncreasesRewardedAction(t *testing.T) {
	e, opt := newTestEstimator(t, 4)
	defer e.Close()

	reps := [][]float64{{1, 0}, {0, 1}}
	term, err := NewTerm(0, reps, []int{2, 2},
		[]float64{-math.Log(3), -math.Log(3)}, []bool{true, true},
		[]float64{1, 1}, 0.9)
	if err != nil {
		t.Fatal(err)
	}

	before, err := e.LogProbs(reps, []int{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	uniform := []float64{-math.Log(3), -math.Log(3)}
	if !floats.EqualApprox(uniform, before, 1e-9) {
		t.Fatalf("incorrect initial log probabilities\n\twant(%v)"+
			"\n\thave(%v)", uniform, before)
	}

	passes, err := e.Backward(opt, term)
	if err != nil {
		t.Fatal(err)
	}
	if passes != 1 {
		t.Errorf("incorrect number of passes\n\twant(1)\n\thave(%v)", passes)
	}
	if opt.Accumulated() != 1 {
		t.Errorf("incorrect number of accumulated passes\n\twant(1)"+
			"\n\thave(%v)", opt.Accumulated())
	}

	if err := opt.Step(); err != nil {
		t.Fatal(err)
	}

	after, err := e.LogProbs(reps, []int{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	for i := range after {
		if after[i] >= 0 {
			t.Errorf("log probability must be negative at step %d"+
				"\n\thave(%v)", i, after[i])
		}
		if after[i] <= before[i] {
			t.Errorf("log probability of rewarded action did not increase "+
				"at step %d\n\twant(>%v)\n\thave(%v)", i, before[i], after[i])
		}
	}
}

func TestEstimatorSkipsSeveredSteps(t *testing.T) {
	e, opt := newTestEstimator(t, 4)
	defer e.Close()

	reps := [][]float64{{1, 0}, {0, 1}}
	term, err := NewTerm(0, reps, []int{1, 1}, []float64{-1, -1},
		[]bool{false, false}, []float64{1, 1}, 0.9)
	if err != nil {
		t.Fatal(err)
	}

	passes, err := e.Backward(opt, term)
	if err != nil {
		t.Fatal(err)
	}
	if passes != 0 {
		t.Errorf("severed steps should not be backpropagated\n\twant(0)"+
			"\n\thave(%v)", passes)
	}
	for _, grad := range opt.Gradients() {
		for _, g := range grad {
			if g != 0 {
				t.Fatalf("expected zero gradients, have %v", opt.Gradients())
			}
		}
	}
}

func TestEstimatorPacksTermsIntoPasses(t *testing.T) {
	e, opt := newTestEstimator(t, 2)
	defer e.Close()

	first, _ := NewTerm(0, [][]float64{{1, 0}, {0, 1}, {1, 1}},
		[]int{0, 1, 2}, []float64{-1, -1, -1}, []bool{true, true, true},
		[]float64{1, 0, 1}, 0.9)
	second, _ := NewTerm(1, [][]float64{{1, 0}, {0, 1}}, []int{0, 0},
		[]float64{-1, -1}, []bool{true, false}, []float64{0, 2}, 0.9)

	// 4 linked steps in total with 2 rows per pass
	passes, err := e.Backward(opt, first, second)
	if err != nil {
		t.Fatal(err)
	}
	if passes != 2 {
		t.Errorf("incorrect number of passes\n\twant(2)\n\thave(%v)", passes)
	}

	bad, _ := NewTerm(0, [][]float64{{1, 0}}, []int{7}, []float64{-1},
		[]bool{true}, []float64{1}, 0.9)
	if _, err := e.Backward(opt, bad); err == nil {
		t.Errorf("expected error on illegal action")
	}
}

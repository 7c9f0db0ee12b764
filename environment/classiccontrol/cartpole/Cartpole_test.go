package cartpole

import (
	"testing"

	env "github.com/samuelfneumann/crlearn/environment"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func newCartpole(t *testing.T, seed uint64, steps int) *Cartpole {
	t.Helper()

	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.05, Max: 0.05}
	}
	starter, err := env.NewUniformStarter(bounds, seed)
	if err != nil {
		t.Fatal(err)
	}
	task, err := NewBalance(starter, steps, FailAngle)
	if err != nil {
		t.Fatal(err)
	}
	c, first, err := New(task, 0.99)
	if err != nil {
		t.Fatal(err)
	}
	if !first.First() {
		t.Fatalf("initial timestep should be first\n\thave(%v)", first)
	}
	return c
}

func TestCartpoleSpecs(t *testing.T) {
	c := newCartpole(t, 1, 500)

	n, err := c.ActionSpec().NumActions()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("incorrect number of actions\n\twant(3)\n\thave(%v)", n)
	}
	if f := c.ObservationSpec().Features(); f != ObservationDims {
		t.Errorf("incorrect number of features\n\twant(%v)\n\thave(%v)",
			ObservationDims, f)
	}
}

func TestCartpolePoleFalls(t *testing.T) {
	c := newCartpole(t, 2, 500)
	right := mat.NewVecDense(1, []float64{2})

	// Pushing right forever tips the pole over well before the step limit
	for i := 1; i <= 500; i++ {
		step, done := c.Step(right)
		if step.Number != i {
			t.Fatalf("incorrect step number\n\twant(%v)\n\thave(%v)", i,
				step.Number)
		}
		if done {
			if i == 500 {
				t.Errorf("pole should fall before the step limit")
			}
			if step.Reward != 0 {
				t.Errorf("incorrect reward on falling\n\twant(0)\n\thave(%v)",
					step.Reward)
			}
			return
		}
		if step.Reward != 1 {
			t.Fatalf("incorrect reward while balanced\n\twant(1)\n\thave(%v)",
				step.Reward)
		}
	}
	t.Errorf("episode never ended")
}

func TestCartpoleStepLimit(t *testing.T) {
	c := newCartpole(t, 3, 5)
	noop := mat.NewVecDense(1, []float64{1})

	for i := 1; i <= 5; i++ {
		_, done := c.Step(noop)
		if done != (i == 5) {
			t.Fatalf("incorrect episode end at step %d\n\twant(%v)"+
				"\n\thave(%v)", i, i == 5, done)
		}
	}

	if step := c.Reset(); !step.First() || step.Number != 0 {
		t.Errorf("reset should return a first timestep\n\thave(%v)", step)
	}
}

func TestCartpoleIllegalAction(t *testing.T) {
	c := newCartpole(t, 4, 500)
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on illegal action")
		}
	}()
	c.Step(mat.NewVecDense(1, []float64{3}))
}

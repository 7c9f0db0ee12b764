package vector

import (
	"reflect"
	"testing"

	env "github.com/samuelfneumann/crlearn/environment"
	"github.com/samuelfneumann/crlearn/environment/classiccontrol/cartpole"
	"gonum.org/v1/gonum/spatial/r1"
)

func newCartpoles(t *testing.T, limits ...int) []env.Environment {
	t.Helper()

	bounds := make([]r1.Interval, cartpole.ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -0.01, Max: 0.01}
	}

	envs := make([]env.Environment, len(limits))
	for i, limit := range limits {
		starter, err := env.NewUniformStarter(bounds, uint64(i))
		if err != nil {
			t.Fatal(err)
		}
		task, err := cartpole.NewBalance(starter, limit, cartpole.FailAngle)
		if err != nil {
			t.Fatal(err)
		}
		c, _, err := cartpole.New(task, 1.0)
		if err != nil {
			t.Fatal(err)
		}
		envs[i] = c
	}
	return envs
}

func TestSyncAutoReset(t *testing.T) {
	s, err := NewSync(newCartpoles(t, 2, 3))
	if err != nil {
		t.Fatal(err)
	}

	obs := s.Reset()
	if r, c := obs.Dims(); r != 2 || c != cartpole.ObservationDims {
		t.Fatalf("incorrect observation shape\n\twant(2×%d)\n\thave(%d×%d)",
			cartpole.ObservationDims, r, c)
	}

	want := [][]bool{
		{false, false},
		{true, false},
		{false, true},
		{true, false},
		{false, false},
		{true, true},
	}
	for i, w := range want {
		obs, rewards, done, err := s.Step([]int{1, 1})
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(done, w) {
			t.Errorf("incorrect done flags at step %d\n\twant(%v)\n\thave(%v)",
				i, w, done)
		}
		if !reflect.DeepEqual(rewards, []float64{1, 1}) {
			t.Errorf("incorrect rewards at step %d\n\twant(%v)\n\thave(%v)",
				i, []float64{1, 1}, rewards)
		}

		// Slots that were reset start again within the start bounds
		for slot, d := range done {
			if !d {
				continue
			}
			for j := 0; j < cartpole.ObservationDims; j++ {
				if v := obs.At(slot, j); v < -0.01 || v > 0.01 {
					t.Errorf("slot %d not reset\n\thave(%v)", slot, obs.RawRowView(slot))
				}
			}
		}
	}

	if eps := s.Episodes(); !reflect.DeepEqual(eps, []int{3, 2}) {
		t.Errorf("incorrect episode counts\n\twant(%v)\n\thave(%v)",
			[]int{3, 2}, eps)
	}
}

func TestSyncInvalidActions(t *testing.T) {
	s, err := NewSync(newCartpoles(t, 2, 2))
	if err != nil {
		t.Fatal(err)
	}
	s.Reset()
	if _, _, _, err := s.Step([]int{1}); err == nil {
		t.Errorf("expected error on too few actions")
	}
}

func TestNewSyncNoEnvironments(t *testing.T) {
	if _, err := NewSync(nil); err == nil {
		t.Errorf("expected error on no environments")
	}
}

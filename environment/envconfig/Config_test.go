package envconfig

import (
	"encoding/json"
	"testing"
)

func TestConfigCreateVector(t *testing.T) {
	var c Config
	data := `{"Environment": "Cartpole", "Task": "Balance",
		"EpisodeCutoff": 200, "Discount": 0.99}`
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		t.Fatal(err)
	}

	v, err := c.CreateVector(4, 10)
	if err != nil {
		t.Fatal(err)
	}
	if v.NumEnvs() != 4 || v.Features() != 4 {
		t.Errorf("incorrect vector environment\n\twant(4 envs, 4 features)"+
			"\n\thave(%v envs, %v features)", v.NumEnvs(), v.Features())
	}

	// Each slot starts from a different state
	obs := v.Reset()
	if obs.At(0, 0) == obs.At(1, 0) {
		t.Errorf("slots should have independent start states\n\thave(%v, %v)",
			obs.RawRowView(0), obs.RawRowView(1))
	}
}

func TestConfigInvalid(t *testing.T) {
	tests := []Config{
		NewConfig("MountainCar", Balance, 100, 0.99),
		NewConfig(Cartpole, "SwingUp", 100, 0.99),
		NewConfig(Cartpole, Balance, 0, 0.99),
		NewConfig(Cartpole, Balance, 100, 1.5),
	}

	for _, c := range tests {
		if _, err := c.Create(1); err == nil {
			t.Errorf("expected error creating %+v", c)
		}
	}
}

func TestConfigCreateMountainCar(t *testing.T) {
	c := NewConfig(MountainCar, Goal, 50, 1.0)
	v, err := c.CreateVector(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if v.Features() != 2 {
		t.Errorf("incorrect number of features\n\twant(2)\n\thave(%v)",
			v.Features())
	}

	n, err := v.ActionSpec().NumActions()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("incorrect number of actions\n\twant(3)\n\thave(%v)", n)
	}

	v.Reset()
	_, rewards, _, err := v.Step([]int{0, 2})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rewards {
		if r != -1 {
			t.Errorf("incorrect reward\n\twant(-1)\n\thave(%v)", r)
		}
	}
}

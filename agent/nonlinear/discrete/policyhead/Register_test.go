package policyhead

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/crlearn/agent"
	"github.com/samuelfneumann/crlearn/environment"
)

const testConfigJSON = `{
	"Type": "CategoricalREINFORCE-PolicyHead",
	"Config": {
		"Name": "policy",
		"HiddenSizes": [8],
		"Biases": [true],
		"Activations": ["tanh"],
		"InitWFn": {"Type": "GlorotU", "Gain": 1.0},
		"Solver": {"Type": "Adam", "Config": {"StepSize": 0.001, "Epsilon": 1e-8, "Beta1": 0.9, "Beta2": 0.999, "Batch": 1}},
		"Gamma": 0.99,
		"MaxEpisodeWindowLength": 50,
		"MinEpisodesBeforeUpdate": 2,
		"AccumulateLossesBeforeBackward": false
	}
}`

func TestTypedConfigUnmarshal(t *testing.T) {
	var typed agent.TypedConfig
	if err := json.Unmarshal([]byte(testConfigJSON), &typed); err != nil {
		t.Fatal(err)
	}

	c, ok := typed.Config.(Config)
	if !ok {
		t.Fatalf("incorrect config type\n\twant(%T)\n\thave(%T)", Config{},
			typed.Config)
	}
	if c.MaxEpisodeWindowLength != 50 || c.MinEpisodesBeforeUpdate != 2 ||
		c.AccumulateLossesBeforeBackward {
		t.Errorf("incorrectly unmarshalled config\n\thave(%+v)", c)
	}

	a, err := typed.CreateAgent(testFeatures, actionSpec(environment.Discrete),
		1, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, ok := a.(*Head); !ok {
		t.Errorf("incorrect agent type\n\twant(%T)\n\thave(%T)", &Head{}, a)
	}
}

func TestTypedConfigUnknownType(t *testing.T) {
	var typed agent.TypedConfig
	err := json.Unmarshal([]byte(`{"Type": "DQN", "Config": {}}`), &typed)
	if err == nil {
		t.Errorf("expected error on unregistered agent type")
	}
}

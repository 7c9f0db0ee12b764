package policyhead

import (
	"github.com/rs/zerolog"
	"github.com/samuelfneumann/crlearn/agent"
	"github.com/samuelfneumann/crlearn/environment"
)

func init() {
	agent.Register(agent.CategoricalReinforcePolicyHead, Config{})
}

// CreateAgent implements the agent.Config interface
func (c Config) CreateAgent(features int, actionSpec environment.Spec,
	seed uint64, logger zerolog.Logger) (agent.VectorAgent, error) {
	return New(c, features, actionSpec, seed, logger)
}

var _ agent.VectorAgent = &Head{}

package agent

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/crlearn/environment"
)

// Type represents a specific type of an agent Config.
// Config's with this type can create Agents of the corresponding type.
type Type string

const (
	CategoricalReinforcePolicyHead Type = "CategoricalREINFORCE-PolicyHead"
)

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes, acting
	// on representations with the given number of features
	CreateAgent(features int, actionSpec environment.Spec, seed uint64,
		logger zerolog.Logger) (VectorAgent, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error
}

// Registered types with the package. Once a Type has been registered
// with this map, a TypedConfig with that type can be created.
//
// No Type's are registered wtih this package upon initialization.
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var registeredTypes = map[Type]reflect.Type{}

// Register registers an agent's Type with a concrete Config type so
// that upon deserialization of a TypedConfig, Configs of type
// agentType are deserialized into the concrete type of config.
func Register(agentType Type, config Config) {
	registeredTypes[agentType] = reflect.TypeOf(config)
}

// TypedConfig wraps a Config to enable a Config type to be JSON
// marshaled and unmarshaled into its underlying concrete type
type TypedConfig struct {
	Type
	Config
}

// NewTypedConfig returns a new TypedConfig
func NewTypedConfig(t Type, c Config) TypedConfig {
	return TypedConfig{Type: t, Config: c}
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (t *TypedConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type   Type
		Config json.RawMessage
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	ty, ok := registeredTypes[raw.Type]
	if !ok {
		return fmt.Errorf("unmarshalJSON: agent type %q not registered",
			raw.Type)
	}

	value := reflect.New(ty)
	if err := json.Unmarshal(raw.Config, value.Interface()); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	t.Type = raw.Type
	t.Config = value.Elem().Interface().(Config)
	return nil
}

// CreateAgent creates the agent that the wrapped Config describes
func (t TypedConfig) CreateAgent(features int, actionSpec environment.Spec,
	seed uint64, logger zerolog.Logger) (VectorAgent, error) {
	if t.Config == nil {
		return nil, fmt.Errorf("createAgent: no config for agent type %q",
			t.Type)
	}
	if err := t.Config.Validate(); err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}
	return t.Config.CreateAgent(features, actionSpec, seed, logger)
}

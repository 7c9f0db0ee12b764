// Package initwfn implements functionality to wrap Gorgonia InitWFn
// so that they can be JSON serialized into configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Constant Type = "Constant"
)

// InitWFn wraps Gorgonia InitWFn so that they can be JSON marshalled and
// unmarshalled. Gain is used by the Glorot and He initializers and
// Value by the Constant initializer.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Gain  float64 `json:",omitempty"`
	Value float64 `json:",omitempty"`
}

func newInitWFn(t Type, gain, value float64) (*InitWFn, error) {
	init := &InitWFn{Type: t, Gain: gain, Value: value}
	if err := init.create(); err != nil {
		return nil, err
	}
	return init, nil
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotU, gain, 0)
}

// NewGlorotN returns a new Glorot Normal weight initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newInitWFn(GlorotN, gain, 0)
}

// NewHeU returns a new He Uniform weight initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newInitWFn(HeU, gain, 0)
}

// NewHeN returns a new He Normal weight initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newInitWFn(HeN, gain, 0)
}

// NewZeroes returns a new zeroes weight initializer
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(Zeroes, 0, 0)
}

// NewConstant returns a weight initializer that sets all weights to
// value.
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(Constant, 0, value)
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (i *InitWFn) InitWFn() G.InitWFn {
	return i.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	switch i.Type {
	case Zeroes:
		return fmt.Sprintf("{%v InitWFn}", i.Type)
	case Constant:
		return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Value)
	}
	return fmt.Sprintf("{%v InitWFn: gain=%v}", i.Type, i.Gain)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	type plain InitWFn
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	*i = InitWFn(p)
	if err := i.create(); err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}
	return nil
}

// create constructs the Gorgonia InitWFn described by the receiver
func (i *InitWFn) create() error {
	switch i.Type {
	case GlorotU:
		i.initWFn = G.GlorotU(i.Gain)
	case GlorotN:
		i.initWFn = G.GlorotN(i.Gain)
	case HeU:
		i.initWFn = G.HeU(i.Gain)
	case HeN:
		i.initWFn = G.HeN(i.Gain)
	case Zeroes:
		i.initWFn = G.Zeroes()
	case Constant:
		i.initWFn = G.ValuesOf(i.Value)
	default:
		return fmt.Errorf("create: unknown InitWFn type %q", i.Type)
	}
	return nil
}

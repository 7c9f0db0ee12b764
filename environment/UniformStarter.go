package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a box
type UniformStarter struct {
	features int
	seed     uint64
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter sampling feature i
// uniformly from bounds[i].
func NewUniformStarter(bounds []r1.Interval, seed uint64) (UniformStarter,
	error) {
	if len(bounds) == 0 {
		return UniformStarter{}, fmt.Errorf("newUniformStarter: no bounds")
	}
	for i, b := range bounds {
		if b.Min > b.Max {
			return UniformStarter{}, fmt.Errorf("newUniformStarter: "+
				"bounds %d are empty (%v)", i, b)
		}
	}

	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return UniformStarter{len(bounds), seed, rand}, nil
}

// Start returns a starting state vector
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}

package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Weights returns a copy of the values of each learnable of a
// NeuralNet, in the order of its Learnables.
func Weights(net NeuralNet) ([][]float64, error) {
	learnables := net.Learnables()
	weights := make([][]float64, len(learnables))
	for i, l := range learnables {
		data, ok := l.Value().Data().([]float64)
		if !ok {
			return nil, fmt.Errorf("weights: learnable %v does not hold "+
				"float64 values", l.Name())
		}
		weights[i] = append([]float64(nil), data...)
	}
	return weights, nil
}

// SetWeights sets the values of each learnable of a NeuralNet, in the
// order of its Learnables.
func SetWeights(net NeuralNet, weights [][]float64) error {
	learnables := net.Learnables()
	if len(weights) != len(learnables) {
		return fmt.Errorf("setWeights: invalid number of learnables"+
			"\n\twant(%d)\n\thave(%d)", len(learnables), len(weights))
	}

	for i, l := range learnables {
		if len(weights[i]) != l.Shape().TotalSize() {
			return fmt.Errorf("setWeights: invalid number of weights for "+
				"%v\n\twant(%d)\n\thave(%d)", l.Name(), l.Shape().TotalSize(),
				len(weights[i]))
		}
		t := tensor.New(
			tensor.WithShape(l.Shape().Clone()...),
			tensor.WithBacking(append([]float64(nil), weights[i]...)),
		)
		if err := G.Let(l, t); err != nil {
			return fmt.Errorf("setWeights: %v", err)
		}
	}
	return nil
}

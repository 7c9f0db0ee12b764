package reinforce

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Term is the gradient-linked loss of one complete episode. It keeps
// everything needed to backpropagate the loss through a policy network
// later: the representation and action taken at each step, the return
// that weights each step's log probability, and whether each step is
// still linked to the live parameters.
//
// Steps which are not linked contribute to the Term's Value but carry
// no gradient.
type Term struct {
	Slot            int
	Representations [][]float64
	Actions         []int
	Returns         []float64
	Linked          []bool
	Value           float64
	Metrics         EpisodeMetrics
	Usage           GradientUsage
}

// NewTerm builds the Term of an episode from its per-step
// representations, sampled actions, log probabilities recorded at
// sampling time, linkage flags, and rewards.
func NewTerm(slot int, representations [][]float64, actions []int,
	logProbs []float64, linked []bool, rewards []float64,
	gamma float64) (*Term, error) {
	T := len(rewards)
	if len(representations) != T || len(actions) != T ||
		len(logProbs) != T || len(linked) != T {
		return nil, fmt.Errorf("newTerm: episode sequences must have "+
			"equal lengths (representations=%d, actions=%d, "+
			"logProbs=%d, linked=%d, rewards=%d)", len(representations),
			len(actions), len(logProbs), len(linked), T)
	}

	returns := Returns(rewards, gamma)
	value := -floats.Dot(logProbs, returns)

	var usage GradientUsage
	for _, l := range linked {
		if l {
			usage.Used++
		} else {
			usage.Wasted++
		}
	}

	return &Term{
		Slot:            slot,
		Representations: representations,
		Actions:         actions,
		Returns:         returns,
		Linked:          linked,
		Value:           value,
		Metrics: EpisodeMetrics{
			Slot:   slot,
			Length: T,
			Return: floats.Sum(rewards),
			Loss:   value,
		},
		Usage: usage,
	}, nil
}

// Len returns the number of steps in the Term
func (t *Term) Len() int {
	return len(t.Returns)
}

// Loss returns the Term as a Loss with the given name
func (t *Term) Loss(name string) Loss {
	return Loss{
		Name:  name,
		Value: t.Value,
		Metrics: Metrics{
			Episodes: []EpisodeMetrics{t.Metrics},
			Gradient: t.Usage,
		},
	}
}

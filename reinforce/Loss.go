package reinforce

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EpisodeLoss returns the REINFORCE loss of an episode:
//
//	loss = -Σ_t logProbs[t] * returns[t]
//
// where returns are computed from rewards by Returns. Minimizing this
// loss performs gradient ascent on the expected return. No baseline is
// subtracted from the returns.
func EpisodeLoss(logProbs, rewards []float64, gamma float64) (float64,
	error) {
	if len(logProbs) != len(rewards) {
		return 0, fmt.Errorf("episodeLoss: number of log probabilities "+
			"must equal number of rewards\n\twant(%d)\n\thave(%d)",
			len(rewards), len(logProbs))
	}
	if len(rewards) == 0 {
		return 0, nil
	}

	returns := Returns(rewards, gamma)
	return -floats.Dot(logProbs, returns), nil
}

// EpisodeMetrics describes a single episode that contributed a loss
type EpisodeMetrics struct {
	Slot   int
	Length int
	Return float64 // Undiscounted sum of rewards
	Loss   float64
}

// GradientUsage counts the steps used to build losses which still had
// their gradient linkage (Used) versus those which had been severed by
// an earlier parameter update (Wasted).
type GradientUsage struct {
	Used   int
	Wasted int
}

// Add returns the sum of two GradientUsages
func (g GradientUsage) Add(other GradientUsage) GradientUsage {
	return GradientUsage{
		Used:   g.Used + other.Used,
		Wasted: g.Wasted + other.Wasted,
	}
}

// Fraction returns the fraction of steps which carried gradients, or
// 0 if no steps were counted.
func (g GradientUsage) Fraction() float64 {
	total := g.Used + g.Wasted
	if total == 0 {
		return 0
	}
	return float64(g.Used) / float64(total)
}

// Metrics collects the episodes which make up a Loss
type Metrics struct {
	Episodes []EpisodeMetrics
	Gradient GradientUsage
}

// MeanReturn returns the mean undiscounted episodic return, or 0 if
// there are no episodes.
func (m Metrics) MeanReturn() float64 {
	if len(m.Episodes) == 0 {
		return 0
	}
	returns := make([]float64, len(m.Episodes))
	for i, e := range m.Episodes {
		returns[i] = e.Return
	}
	return stat.Mean(returns, nil)
}

// MeanLength returns the mean episode length, or 0 if there are no
// episodes.
func (m Metrics) MeanLength() float64 {
	if len(m.Episodes) == 0 {
		return 0
	}
	lengths := make([]float64, len(m.Episodes))
	for i, e := range m.Episodes {
		lengths[i] = float64(e.Length)
	}
	return stat.Mean(lengths, nil)
}

// Loss is a scalar loss together with the metrics of the episodes that
// produced it. The zero Loss has no episodes and a value of 0.
type Loss struct {
	Name    string
	Value   float64
	Metrics Metrics
}

// NewLoss returns a new, zero-valued Loss with the given name
func NewLoss(name string) Loss {
	return Loss{Name: name}
}

// Add returns the sum of two Losses. The name of the receiver is kept.
func (l Loss) Add(other Loss) Loss {
	episodes := make([]EpisodeMetrics, 0,
		len(l.Metrics.Episodes)+len(other.Metrics.Episodes))
	episodes = append(episodes, l.Metrics.Episodes...)
	episodes = append(episodes, other.Metrics.Episodes...)

	return Loss{
		Name:  l.Name,
		Value: l.Value + other.Value,
		Metrics: Metrics{
			Episodes: episodes,
			Gradient: l.Metrics.Gradient.Add(other.Metrics.Gradient),
		},
	}
}

// IsZero returns whether no episode contributed to the Loss
func (l Loss) IsZero() bool {
	return len(l.Metrics.Episodes) == 0
}

// String implements the fmt.Stringer interface
func (l Loss) String() string {
	return fmt.Sprintf("%s loss: %.4f  |  episodes: %d  |  mean return: "+
		"%.2f  |  gradient usage: %d/%d", l.Name, l.Value,
		len(l.Metrics.Episodes), l.Metrics.MeanReturn(),
		l.Metrics.Gradient.Used,
		l.Metrics.Gradient.Used+l.Metrics.Gradient.Wasted)
}

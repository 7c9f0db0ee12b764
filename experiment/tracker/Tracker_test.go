package tracker

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/crlearn/reinforce"
	"gonum.org/v1/gonum/floats"
)

// steps are two slots: slot 0 ends episodes of length 2 and slot 1 an
// episode of length 3.
var steps = []Step{
	{Number: 1, Rewards: []float64{1, 2}, Done: []bool{false, false}},
	{Number: 2, Rewards: []float64{1, 2}, Done: []bool{true, false}},
	{Number: 3, Rewards: []float64{0.5, 2}, Done: []bool{false, true}},
	{Number: 4, Rewards: []float64{0.5, 2}, Done: []bool{true, false}},
}

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	r := NewReturn(filename)
	for _, step := range steps {
		if err := r.Track(step); err != nil {
			t.Fatal(err)
		}
	}

	want := []float64{2, 6, 1}
	if !floats.Equal(want, r.Returns()) {
		t.Errorf("incorrect returns\n\twant(%v)\n\thave(%v)", want,
			r.Returns())
	}

	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(want, loaded) {
		t.Errorf("incorrect loaded returns\n\twant(%v)\n\thave(%v)", want,
			loaded)
	}
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	e := NewEpisodeLength(filename)
	for _, step := range steps {
		if err := e.Track(step); err != nil {
			t.Fatal(err)
		}
	}

	want := []float64{2, 3, 2}
	if !floats.Equal(want, e.Lengths()) {
		t.Errorf("incorrect lengths\n\twant(%v)\n\thave(%v)", want,
			e.Lengths())
	}

	if err := e.Save(); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(want, loaded) {
		t.Errorf("incorrect loaded lengths\n\twant(%v)\n\thave(%v)", want,
			loaded)
	}
}

func TestTrackerRejectsMismatchedSlots(t *testing.T) {
	trackers := map[string]Tracker{
		"return":        NewReturn(""),
		"episodeLength": NewEpisodeLength(""),
	}

	for name, tr := range trackers {
		bad := Step{Rewards: []float64{1}, Done: []bool{true, false}}
		if err := tr.Track(bad); err == nil {
			t.Errorf("%s: expected error on mismatched rewards and done",
				name)
		}

		if err := tr.Track(steps[0]); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		changed := Step{Rewards: []float64{1}, Done: []bool{true}}
		if err := tr.Track(changed); err == nil {
			t.Errorf("%s: expected error when number of slots changes", name)
		}
	}
}

func TestSQLite(t *testing.T) {
	config := map[string]interface{}{"numEnvs": 2}
	s, err := NewSQLite(":memory:", config)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.RunID() == "" {
		t.Errorf("expected a run identifier")
	}

	loss := reinforce.NewLoss("test")
	loss.Value = 1.5
	loss.Metrics = reinforce.Metrics{
		Episodes: []reinforce.EpisodeMetrics{
			{Slot: 0, Length: 2, Return: 2, Loss: 1.5},
		},
		Gradient: reinforce.GradientUsage{Used: 2, Wasted: 1},
	}

	for i, step := range steps {
		if i == 1 {
			step.Loss = loss
		}
		if err := s.Track(step); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	returns, err := s.Returns()
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 6, 1}
	if !floats.Equal(want, returns) {
		t.Errorf("incorrect returns\n\twant(%v)\n\thave(%v)", want, returns)
	}

	losses, err := s.Losses()
	if err != nil {
		t.Fatal(err)
	}
	if len(losses) != 1 {
		t.Fatalf("incorrect number of losses\n\twant(1)\n\thave(%v)",
			len(losses))
	}
	wantLoss := LossRecord{
		Step:       2,
		Name:       "test",
		Value:      1.5,
		Episodes:   1,
		MeanReturn: 2,
		Used:       2,
		Wasted:     1,
	}
	if losses[0] != wantLoss {
		t.Errorf("incorrect loss record\n\twant(%v)\n\thave(%v)", wantLoss,
			losses[0])
	}
}

func TestSQLiteSeparatesRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	first, err := NewSQLite(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Track(steps[1]); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewSQLite(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	if first.RunID() == second.RunID() {
		t.Errorf("runs should have distinct identifiers")
	}
	returns, err := second.Returns()
	if err != nil {
		t.Fatal(err)
	}
	if len(returns) != 0 {
		t.Errorf("new run should have no returns\n\thave(%v)", returns)
	}
}

package policyhead

import (
	"testing"

	"github.com/samuelfneumann/crlearn/network"
	"gonum.org/v1/gonum/floats"
)

func TestCheckpointRestoresPolicy(t *testing.T) {
	trained := newTestHead(t, testConfig(t, true, 10, 1, 0.5))
	defer trained.Close()

	for i := 0; i < 6; i++ {
		step(t, trained, []bool{i%3 == 0 && i > 0}, []float64{1})
	}
	if trained.Updates() == 0 {
		t.Fatalf("expected the policy to be updated")
	}

	data, err := trained.GobEncode()
	if err != nil {
		t.Fatal(err)
	}

	restored := newTestHead(t, testConfig(t, true, 10, 1, 0.5))
	defer restored.Close()

	// Restoring after the sampler exists also updates the sampler
	step(t, restored, []bool{false}, []float64{0})
	if err := restored.GobDecode(data); err != nil {
		t.Fatal(err)
	}

	want, _ := network.Weights(trained.Network())
	have, _ := network.Weights(restored.Network())
	for i := range want {
		if !floats.Equal(want[i], have[i]) {
			t.Errorf("incorrect weights for learnable %d\n\twant(%v)"+
				"\n\thave(%v)", i, want[i], have[i])
		}
	}

	actions, err := restored.Forward([]bool{false}, reps(1))
	if err != nil {
		t.Fatal(err)
	}
	logits := actions.Logits.RawRowView(0)
	if floats.Max(logits) == floats.Min(logits) {
		t.Errorf("sampler should use the restored parameters\n\thave(%v)",
			logits)
	}
}

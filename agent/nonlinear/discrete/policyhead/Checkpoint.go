package policyhead

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/samuelfneumann/crlearn/network"
)

// GobEncode implements the gob.GobEncoder interface. Only the policy
// parameters are encoded; buffered episodes and pending losses are not.
func (h *Head) GobEncode() ([]byte, error) {
	weights, err := network.Weights(h.net)
	if err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(weights); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The Head must
// already have been created with the architecture of the encoded
// policy.
func (h *Head) GobDecode(data []byte) error {
	var weights [][]float64
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&weights); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}

	if err := network.SetWeights(h.net, weights); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if h.sampler != nil {
		if err := h.sampler.Sync(h.net); err != nil {
			return fmt.Errorf("gobDecode: %v", err)
		}
	}

	h.logger.Debug().Msg("restored policy parameters")
	return nil
}

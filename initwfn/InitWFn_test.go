package initwfn

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{`{"Type": "GlorotN", "Gain": 1.4}`, GlorotN, false},
		{`{"Type": "HeU", "Gain": 2}`, HeU, false},
		{`{"Type": "Zeroes"}`, Zeroes, false},
		{`{"Type": "Constant", "Value": 0.5}`, Constant, false},
		{`{"Type": "Orthogonal"}`, "", true},
	}

	for _, test := range tests {
		var init InitWFn
		err := json.Unmarshal([]byte(test.in), &init)
		if test.wantErr {
			if err == nil {
				t.Errorf("expected error for %v", test.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("unexpected error for %v: %v", test.in, err)
			continue
		}
		if init.Type != test.want {
			t.Errorf("incorrect type \n\twant(%v)\n\thave(%v)", test.want,
				init.Type)
		}
		if init.InitWFn() == nil {
			t.Errorf("InitWFn not created for %v", test.in)
		}
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	init, err := NewGlorotU(1.0)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(init)
	if err != nil {
		t.Fatal(err)
	}

	var decoded InitWFn
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != GlorotU || decoded.Gain != 1.0 {
		t.Errorf("incorrect decoding \n\twant(%v)\n\thave(%v)", init,
			&decoded)
	}
}

package encoding

import (
	"testing"
)

func TestCanonicalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    string
		wantErr bool
	}{
		{
			name:  "simple object sorted keys",
			input: map[string]any{"z": 1, "a": 2, "m": 3},
			want:  `{"a":2,"m":3,"z":1}`,
		},
		{
			name:  "nested object sorted keys",
			input: map[string]any{"b": map[string]any{"d": 1, "c": 2}, "a": 3},
			want:  `{"a":3,"b":{"c":2,"d":1}}`,
		},
		{
			name:  "array preserved order",
			input: []any{3, 1, 2},
			want:  `[3,1,2]`,
		},
		{
			name:  "mixed types",
			input: map[string]any{"str": "hello", "num": 42, "bool": true, "null": nil},
			want:  `{"bool":true,"null":null,"num":42,"str":"hello"}`,
		},
		{
			name:  "no html escaping",
			input: map[string]any{"query": "a=1&b=<2>"},
			want:  `{"query":"a=1&b=<2>"}`,
		},
		{
			name: "event envelope structure",
			input: map[string]any{
				"agent_id":   "agt_123",
				"event_type": "agent.deployed",
				"timestamp":  "2025-01-15T10:30:00Z",
				"payload": map[string]any{
					"name":     "ingest-worker",
					"category": "system",
				},
			},
			want: `{"agent_id":"agt_123","event_type":"agent.deployed","payload":{"category":"system","name":"ingest-worker"},"timestamp":"2025-01-15T10:30:00Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalJSON(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("CanonicalJSON() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if string(got) != tt.want {
				t.Errorf("CanonicalJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanonicalJSONStableAcrossKeyOrder(t *testing.T) {
	input1 := map[string]any{"z": 1, "a": 2, "m": 3}
	input2 := map[string]any{"a": 2, "m": 3, "z": 1}

	out1, err := CanonicalJSON(input1)
	if err != nil {
		t.Fatalf("CanonicalJSON(input1) error = %v", err)
	}
	out2, err := CanonicalJSON(input2)
	if err != nil {
		t.Fatalf("CanonicalJSON(input2) error = %v", err)
	}

	if string(out1) != string(out2) {
		t.Errorf("canonical output differs across key order: %s, %s", out1, out2)
	}
}

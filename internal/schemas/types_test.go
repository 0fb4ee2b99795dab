package schemas

import (
	"encoding/json"
	"testing"
)

func TestScoreAcceptsNumbersAndNumericStrings(t *testing.T) {
	tests := []struct {
		in   string
		want Score
	}{
		{`85`, 85},
		{`72.5`, 72.5},
		{`"85"`, 85},
		{`" 90% "`, 90},
		{`-4`, -4},
		{`null`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s Score
			if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s != tt.want {
				t.Errorf("expected %v, got %v", tt.want, s)
			}
		})
	}
}

func TestScoreRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{`"high"`, `true`, `{}`, `"NaN"`, `"Inf"`} {
		var s Score
		if err := json.Unmarshal([]byte(in), &s); err == nil {
			t.Errorf("expected error for %s, got %v", in, s)
		}
	}
}

func TestClashDecodesStringWeight(t *testing.T) {
	var c Clash
	if err := json.Unmarshal([]byte(`{"id":"c1","title":"Harms","weight":"85%","winner":"Gov","summary":"s"}`), &c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Weight != 85 {
		t.Errorf("expected weight 85, got %v", c.Weight)
	}
}

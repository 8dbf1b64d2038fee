package detector

import "testing"

func TestNormalizeBackfillsDefaults(t *testing.T) {
	resp := &Response{FinalDecision: "Good"}
	resp.Normalize()
	if resp.FinalDecision != DecisionGood {
		t.Errorf("decision = %q", resp.FinalDecision)
	}
	if resp.ConfidenceLevel != ConfidenceLow {
		t.Errorf("confidence default = %q, want %q", resp.ConfidenceLevel, ConfidenceLow)
	}
	if resp.Threshold == nil || *resp.Threshold != DefaultThreshold {
		t.Errorf("threshold = %v, want %v", resp.Threshold, DefaultThreshold)
	}
}

func TestNormalizeKeepsExplicitThreshold(t *testing.T) {
	threshold := 0.55
	resp := &Response{FinalDecision: "defect", Threshold: &threshold}
	resp.Normalize()
	if *resp.Threshold != 0.55 {
		t.Errorf("threshold = %v, want 0.55", *resp.Threshold)
	}
}

func TestNormalizeConfidenceVariants(t *testing.T) {
	cases := map[string]string{
		"low":        ConfidenceLow,
		"Medium":     ConfidenceMedium,
		"HIGH":       ConfidenceHigh,
		"very high":  ConfidenceVeryHigh,
		"very_high":  ConfidenceVeryHigh,
		"":           ConfidenceLow,
		"suspicious": ConfidenceLow,
	}
	for input, want := range cases {
		if got := normalizeConfidence(input); got != want {
			t.Errorf("normalizeConfidence(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIsDefectIgnoresDefectList(t *testing.T) {
	withList := &Response{FinalDecision: "defect", Defects: nil}
	withList.Normalize()
	if !withList.IsDefect() {
		t.Error("defect decision with empty list should still be a defect")
	}
	good := &Response{FinalDecision: "good", Defects: []Defect{{Label: "smudge"}}}
	good.Normalize()
	if good.IsDefect() {
		t.Error("good decision should not be a defect regardless of list")
	}
}

func TestHealthResponseHealthy(t *testing.T) {
	for _, status := range []string{"healthy", "ok", " OK "} {
		if !(HealthResponse{Status: status}).Healthy() {
			t.Errorf("status %q should be healthy", status)
		}
	}
	for _, status := range []string{"", "degraded", "down"} {
		if (HealthResponse{Status: status}).Healthy() {
			t.Errorf("status %q should not be healthy", status)
		}
	}
}

package model

import "testing"

func TestStatusForFreshRecord(t *testing.T) {
	status := StatusFor(&AnalysisRecord{})
	if status.Progress != 0 {
		t.Errorf("progress = %d, want 0", status.Progress)
	}
	for _, name := range []string{ComponentSummary, ComponentEntities, ComponentClaims} {
		if status.Components[name] != "pending" {
			t.Errorf("%s = %q, want pending", name, status.Components[name])
		}
	}
}

func TestStatusForPartialRecord(t *testing.T) {
	rec := &AnalysisRecord{
		Summary:       "a summary",
		WordFrequency: map[string]int{"water": 4},
	}
	status := StatusFor(rec)

	if status.Components[ComponentSummary] != "complete" {
		t.Error("summary should be complete")
	}
	if status.Components[ComponentWordFrequency] != "complete" {
		t.Error("word frequency should be complete")
	}
	if status.Components[ComponentEntities] != "pending" {
		t.Error("entities should be pending")
	}
	// 2 of 6 counted components; claims are excluded while absent.
	if status.Progress != 33 {
		t.Errorf("progress = %d, want 33", status.Progress)
	}
}

func TestStatusForCompleteWithoutClaims(t *testing.T) {
	rec := &AnalysisRecord{
		Summary:       "s",
		WordFrequency: map[string]int{"w": 2},
		Entities:      &Entities{},
		Sentiment:     &Sentiment{},
		Keyphrases:    []string{},
		Topics:        []string{},
	}
	status := StatusFor(rec)

	if status.Progress != 100 {
		t.Errorf("progress = %d, want 100: absent claims must not hold progress back", status.Progress)
	}
	if status.Components[ComponentClaims] != "pending" {
		t.Errorf("claims = %q, want pending", status.Components[ComponentClaims])
	}
}

func TestStatusForQuickModeCompletes(t *testing.T) {
	rec := &AnalysisRecord{
		ProcessingMode: ModeQuick,
		Summary:        "s",
		WordFrequency:  map[string]int{"w": 2},
	}
	status := StatusFor(rec)

	if status.Progress != 100 {
		t.Errorf("progress = %d, want 100: quick mode never computes the deep extractors", status.Progress)
	}
	if status.Components[ComponentEntities] != "pending" {
		t.Errorf("entities = %q, want pending", status.Components[ComponentEntities])
	}
}

func TestStatusForCountsClaimsOncePresent(t *testing.T) {
	rec := &AnalysisRecord{ClaimAnalysis: &ClaimAnalysis{}}
	status := StatusFor(rec)

	if status.Components[ComponentClaims] != "complete" {
		t.Error("claims should be complete")
	}
	// 1 of 7: claims join the denominator once analysis exists.
	if status.Progress != 14 {
		t.Errorf("progress = %d, want 14", status.Progress)
	}
}

func TestRiskLevelFor(t *testing.T) {
	cases := []struct {
		risk float64
		want RiskLevel
	}{
		{0, RiskLow},
		{29.9, RiskLow},
		{30, RiskMedium},
		{45, RiskMedium},
		{60, RiskMedium},
		{60.1, RiskHigh},
		{100, RiskHigh},
	}
	for _, c := range cases {
		if got := RiskLevelFor(c.risk); got != c.want {
			t.Errorf("RiskLevelFor(%v) = %q, want %q", c.risk, got, c.want)
		}
	}
}

func TestMethodNamesOrder(t *testing.T) {
	names := MethodNames()
	if len(names) != 6 {
		t.Fatalf("len = %d, want 6", len(names))
	}
	if names[0] != MethodInternalConsistency || names[5] != MethodSpecificity {
		t.Errorf("unexpected order: %v", names)
	}
}

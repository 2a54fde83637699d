package scoring

import (
	"testing"

	"github.com/kothakarthikeya/legal-contract/internal/analyzer"
)

func TestScoreEmptyFeatures(t *testing.T) {
	if got := Score(FeatureSet{}); got != BaseScore {
		t.Fatalf("empty feature set must score the base, got %v", got)
	}
}

func TestScoreSingleRules(t *testing.T) {
	cases := []struct {
		name     string
		features FeatureSet
		want     float64
	}{
		{"indemnity cap missing", FeatureSet{"indemnity_cap_present": false}, 3.0},
		{"no termination for convenience", FeatureSet{"termination_for_convenience": false}, 1.75},
		{"liability uncapped", FeatureSet{"liability_cap_present": false}, 3.5},
		{"consequential damages included", FeatureSet{"consequential_damages_waiver": false}, 2.0},
		{"long payment terms", FeatureSet{"payment_terms_days": 90.0}, 2.0},
		{"auto renewal without price cap", FeatureSet{"auto_renewal": true, "price_increase_cap_present": false}, 2.5},
		{"low sla uptime", FeatureSet{"sla_uptime": 98.5}, 2.5},
		{"gdpr not addressed", FeatureSet{"gdpr_addressed": false}, 3.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.features); got != tc.want {
				t.Fatalf("Score(%v) = %v, want %v", tc.features, got, tc.want)
			}
		})
	}
}

func TestScorePresentFlagsDoNotFire(t *testing.T) {
	features := FeatureSet{
		"indemnity_cap_present":        true,
		"termination_for_convenience":  true,
		"liability_cap_present":        true,
		"consequential_damages_waiver": true,
		"payment_terms_days":           30.0,
		"auto_renewal":                 false,
		"price_increase_cap_present":   true,
		"sla_uptime":                   99.95,
		"gdpr_addressed":               true,
	}
	if got := Score(features); got != BaseScore {
		t.Fatalf("healthy contract should score the base, got %v", got)
	}
}

func TestScoreAbsentFlagsUseDefaults(t *testing.T) {
	// payment_terms_days defaults to 30, sla_uptime to 99.9: neither rule
	// fires on absence.
	if got := Score(FeatureSet{"unrelated_flag": "x"}); got != BaseScore {
		t.Fatalf("defaults should be non-risky, got %v", got)
	}
}

func TestScoreRulesAreAdditive(t *testing.T) {
	features := FeatureSet{
		"indemnity_cap_present": false, // +2.0
		"liability_cap_present": false, // +2.5
		"gdpr_addressed":        false, // +2.0
	}
	if got := Score(features); got != 7.5 {
		t.Fatalf("expected 1.0+2.0+2.5+2.0=7.5, got %v", got)
	}
}

func TestScoreClampedAtMax(t *testing.T) {
	features := FeatureSet{
		"indemnity_cap_present":        false,
		"termination_for_convenience":  false,
		"liability_cap_present":        false,
		"consequential_damages_waiver": false,
		"payment_terms_days":           120.0,
		"auto_renewal":                 true,
		"price_increase_cap_present":   false,
		"sla_uptime":                   95.0,
		"gdpr_addressed":               false,
	}
	// naive sum is 1.0 + 12.25, well past the cap
	if got := Score(features); got != MaxScore {
		t.Fatalf("expected clamp at %v, got %v", MaxScore, got)
	}
}

func TestScoreMonotonicNonDecreasing(t *testing.T) {
	riskFlags := []FeatureSet{
		{"indemnity_cap_present": false},
		{"liability_cap_present": false},
		{"gdpr_addressed": false},
		{"sla_uptime": 97.0},
		{"payment_terms_days": 75.0},
	}
	accumulated := FeatureSet{}
	prev := Score(accumulated)
	for _, flags := range riskFlags {
		for k, v := range flags {
			accumulated[k] = v
		}
		next := Score(accumulated)
		if next < prev {
			t.Fatalf("adding risk flags reduced the score: %v -> %v after %v", prev, next, flags)
		}
		prev = next
	}
}

func TestLevelBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{7.5, "Critical"},
		{7.49, "High"},
		{5.0, "High"},
		{4.99, "Medium"},
		{3.0, "Medium"},
		{2.99, "Low"},
		{1.0, "Low"},
		{10.0, "Critical"},
	}
	for _, tc := range cases {
		if got := Level(tc.score); got != tc.want {
			t.Fatalf("Level(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestFlattenLastWriteWins(t *testing.T) {
	outputs := map[string]*analyzer.Verdict{
		"Legal":   {AgentName: "Legal", Features: map[string]any{"threshold_value": "$10,000"}},
		"Finance": {AgentName: "Finance", Features: map[string]any{"threshold_value": "$5,000", "auto_renewal": true}},
	}
	features := Flatten(outputs, []string{"Legal", "Finance"})
	if features["threshold_value"] != "$5,000" {
		t.Fatalf("later domain should win the collision, got %v", features["threshold_value"])
	}
	if features["auto_renewal"] != true {
		t.Fatalf("disjoint flags should union: %v", features)
	}
}

func TestFlattenSkipsMissingDomains(t *testing.T) {
	outputs := map[string]*analyzer.Verdict{
		"Legal": {AgentName: "Legal", Features: map[string]any{"indemnity_cap_present": false}},
	}
	features := Flatten(outputs, []string{"Legal", "Finance", "Compliance"})
	if len(features) != 1 {
		t.Fatalf("unexpected features: %v", features)
	}
}

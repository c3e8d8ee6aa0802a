package engine

import (
	"testing"

	"github.com/ecomlens/ecomlens/internal/features"
	"github.com/ecomlens/ecomlens/internal/patterns"
)

func vec(metrics map[string]float64) features.Vector {
	return features.Vector{SessionID: "s1", Metrics: metrics}
}

func testDef() patterns.Definition {
	return patterns.Definition{
		ID:    "test_pattern",
		Stage: patterns.StagePreIntent,
		Tiers: patterns.Tiers{Low: 40, Medium: 60, High: 80},
		Rules: []patterns.Rule{
			{ID: "r1", Weight: 50, Conditions: []patterns.Condition{
				{Metric: "m1", Op: ">=", Value: 3},
			}},
			{ID: "r2", Weight: 40, Conditions: []patterns.Condition{
				{Metric: "m2", Op: ">", Value: 0},
				{Metric: "m3", Op: "==", Value: 1},
			}},
		},
	}
}

func TestEvaluateRulesFullWeightOnFire(t *testing.T) {
	det := EvaluateRules(vec(map[string]float64{"m1": 3, "m2": 0, "m3": 0}), testDef())
	if det.Score != 50 {
		t.Errorf("Score = %v, want 50 (full weight, no partial credit)", det.Score)
	}
	if len(det.TriggeredRules) != 1 || det.TriggeredRules[0] != "r1" {
		t.Errorf("TriggeredRules = %v, want [r1]", det.TriggeredRules)
	}
	if det.Tier != TierLow {
		t.Errorf("Tier = %v, want low", det.Tier)
	}
	if !det.Detected {
		t.Error("expected Detected")
	}
}

// A rule is a conjunction: one failing condition withholds the entire
// weight.
func TestEvaluateRulesConjunction(t *testing.T) {
	det := EvaluateRules(vec(map[string]float64{"m1": 0, "m2": 5, "m3": 0}), testDef())
	if det.Score != 0 {
		t.Errorf("Score = %v, want 0", det.Score)
	}
	if det.Detected {
		t.Error("expected not detected")
	}
	if det.Tier != TierNone {
		t.Errorf("Tier = %v, want none", det.Tier)
	}
}

// A condition referencing a metric absent from the vector is false,
// never an error.
func TestEvaluateRulesFailClosed(t *testing.T) {
	det := EvaluateRules(vec(map[string]float64{"m2": 5, "m3": 1}), testDef())
	if det.Score != 40 {
		t.Errorf("Score = %v, want 40 (r1 fails closed on missing m1)", det.Score)
	}
}

func TestEvaluateRulesInclusiveBoundaries(t *testing.T) {
	tiers := patterns.Tiers{Low: 40, Medium: 60, High: 80}
	tests := []struct {
		score float64
		want  Tier
	}{
		{39.999, TierNone},
		{40, TierLow},
		{59.999, TierLow},
		{60, TierMedium},
		{80, TierHigh},
		{100, TierHigh},
	}
	for _, tc := range tests {
		if got := TierFor(tc.score, tiers); got != tc.want {
			t.Errorf("TierFor(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

func TestEvaluateRulesBonusCap(t *testing.T) {
	def := testDef()
	def.Bonuses = []patterns.BonusCondition{
		{Condition: patterns.Condition{Metric: "m1", Op: ">", Value: 0}, Points: 8},
		{Condition: patterns.Condition{Metric: "m2", Op: ">", Value: 0}, Points: 8},
	}

	det := EvaluateRules(vec(map[string]float64{"m1": 3, "m2": 5, "m3": 1}), def)
	// 50 + 40 rules, 16 bonus capped to the default 10.
	if det.Score != 100 {
		t.Errorf("Score = %v, want 100 (clamped)", det.Score)
	}
	if det.Tier != TierHigh {
		t.Errorf("Tier = %v, want high", det.Tier)
	}
}

// The tier is chosen from the pre-clamp total even when the stored
// score is clamped to 100.
func TestEvaluateRulesClampAfterTier(t *testing.T) {
	def := testDef()
	def.Rules = append(def.Rules, patterns.Rule{
		ID: "r3", Weight: 30, Conditions: []patterns.Condition{
			{Metric: "m1", Op: ">", Value: 0},
		},
	})

	det := EvaluateRules(vec(map[string]float64{"m1": 3, "m2": 5, "m3": 1}), def)
	if det.Score != 100 {
		t.Errorf("Score = %v, want 100", det.Score)
	}
	if det.Tier != TierHigh {
		t.Errorf("Tier = %v, want high", det.Tier)
	}
}

// More satisfied conditions never lower the score.
func TestEvaluateRulesMonotonic(t *testing.T) {
	weaker := EvaluateRules(vec(map[string]float64{"m1": 3}), testDef())
	stronger := EvaluateRules(vec(map[string]float64{"m1": 3, "m2": 5, "m3": 1}), testDef())
	if stronger.Score < weaker.Score {
		t.Errorf("score decreased when more conditions held: %v < %v", stronger.Score, weaker.Score)
	}
}

func TestEvaluateRulesOperators(t *testing.T) {
	tests := []struct {
		op   string
		val  float64
		hold bool
	}{
		{">", 4, true},
		{">", 5, false},
		{">=", 5, true},
		{"<", 6, true},
		{"<", 5, false},
		{"<=", 5, true},
		{"==", 5, true},
		{"==", 4, false},
		{"!=", 4, true},
		{"!=", 5, false},
		{"~", 5, false}, // unknown operator never holds
	}
	for _, tc := range tests {
		got := conditionHolds(vec(map[string]float64{"m": 5}), patterns.Condition{Metric: "m", Op: tc.op, Value: tc.val})
		if got != tc.hold {
			t.Errorf("5 %s %v = %v, want %v", tc.op, tc.val, got, tc.hold)
		}
	}
}

package engine

import (
	"github.com/ecomlens/ecomlens/internal/features"
	"github.com/ecomlens/ecomlens/internal/patterns"
)

// Tier is a discretized detection confidence level.
type Tier string

const (
	TierNone   Tier = "none"
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

const maxScore = 100

// Detection is the per-session, per-pattern evaluation result.
type Detection struct {
	SessionID      string   `json:"session_id"`
	PatternID      string   `json:"pattern_id"`
	Score          float64  `json:"score"`
	Tier           Tier     `json:"tier"`
	Detected       bool     `json:"detected"`
	TriggeredRules []string `json:"triggered_rules"`
}

// EvaluateRules scores one feature vector against one pattern. It is a
// pure function: same inputs, same result, no side effects.
//
// Each rule whose conditions all hold contributes its full weight.
// Bonus conditions then add points up to the pattern's cap, the stored
// score is clamped to 100, and the tier is chosen by comparing the
// pre-clamp total against the high, medium, and low cutoffs in that
// order with inclusive boundaries.
func EvaluateRules(v features.Vector, def patterns.Definition) Detection {
	var score float64
	var triggered []string
	for _, rule := range def.Rules {
		if conditionsHold(v, rule.Conditions) {
			score += rule.Weight
			triggered = append(triggered, rule.ID)
		}
	}

	var bonus float64
	for _, b := range def.Bonuses {
		if conditionHolds(v, b.Condition) {
			bonus += b.Points
		}
	}
	if limit := def.EffectiveBonusCap(); bonus > limit {
		bonus = limit
	}

	total := score + bonus
	tier := tierFor(total, def.Tiers)

	stored := total
	if stored > maxScore {
		stored = maxScore
	}

	return Detection{
		SessionID:      v.SessionID,
		PatternID:      def.ID,
		Score:          stored,
		Tier:           tier,
		Detected:       tier != TierNone,
		TriggeredRules: triggered,
	}
}

// TierFor maps a cumulative score to a confidence tier using the given
// cutoffs. A score exactly equal to a cutoff maps to that tier.
func TierFor(score float64, t patterns.Tiers) Tier {
	return tierFor(score, t)
}

func tierFor(score float64, t patterns.Tiers) Tier {
	switch {
	case score >= t.High:
		return TierHigh
	case score >= t.Medium:
		return TierMedium
	case score >= t.Low:
		return TierLow
	default:
		return TierNone
	}
}

// conditionHolds evaluates a single condition against the vector. A
// condition referencing a metric absent from the vector is false, never
// an error: scoring fails closed on missing data.
func conditionHolds(v features.Vector, c patterns.Condition) bool {
	val, ok := v.Metric(c.Metric)
	if !ok {
		return false
	}
	switch c.Op {
	case ">":
		return val > c.Value
	case ">=":
		return val >= c.Value
	case "<":
		return val < c.Value
	case "<=":
		return val <= c.Value
	case "==":
		return val == c.Value
	case "!=":
		return val != c.Value
	default:
		return false
	}
}

func conditionsHold(v features.Vector, conds []patterns.Condition) bool {
	for _, c := range conds {
		if !conditionHolds(v, c) {
			return false
		}
	}
	return true
}

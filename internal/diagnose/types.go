package diagnose

import (
	"time"

	"github.com/ecomlens/ecomlens/internal/engine"
	"github.com/ecomlens/ecomlens/internal/finance"
	"github.com/ecomlens/ecomlens/internal/patterns"
)

// Severity classifies how urgently a diagnosis needs attention.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// severityFor derives severity from the aggregated confidence: high
// confidence is always critical, medium confidence is critical once the
// mean score reaches 50, and everything else detected is a warning.
func severityFor(tier engine.Tier, score float64) Severity {
	if tier == engine.TierHigh {
		return SeverityCritical
	}
	if tier == engine.TierMedium && score >= 50 {
		return SeverityCritical
	}
	return SeverityWarning
}

// DriverSummary is one explanatory driver aggregated over the detected
// cohort, with the number of detected sessions it was active in.
type DriverSummary struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Sessions int    `json:"sessions"`
}

// JourneyStep is one presentable event in a representative session's
// timeline.
type JourneyStep struct {
	Order        int    `json:"order"`
	EventName    string `json:"event_name"`
	ItemName     string `json:"item_name,omitempty"`
	ItemCategory string `json:"item_category,omitempty"`
	PageLocation string `json:"page_location,omitempty"`
	SearchTerm   string `json:"search_term,omitempty"`
	Millis       int64  `json:"timestamp_ms"`
}

// Diagnosis is the aggregated output for one pattern over one session
// batch. It is constructed once per run and never mutated afterwards.
type Diagnosis struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	PatternID string         `json:"pattern_id"`
	Label     string         `json:"label"`
	Category  string         `json:"category"`
	Stage     patterns.Stage `json:"stage"`

	Severity Severity    `json:"severity"`
	Tier     engine.Tier `json:"tier"`
	Score    float64     `json:"score"`

	Drivers  []DriverSummary    `json:"drivers"`
	Evidence map[string]float64 `json:"evidence"`

	Recommendation engine.Recommendation `json:"recommendation"`

	ExampleSessions []string      `json:"example_sessions"`
	Journey         []JourneyStep `json:"journey,omitempty"`

	RevenueAtRisk       float64 `json:"revenue_at_risk"`
	MaxPotentialRevenue float64 `json:"max_potential_revenue"`

	CreatedAt time.Time `json:"created_at"`
}

// RunResult is everything produced by one orchestrator invocation.
type RunResult struct {
	RunID         string           `json:"run_id"`
	CreatedAt     time.Time        `json:"created_at"`
	Source        string           `json:"source"`
	TotalSessions int              `json:"total_sessions"`
	TotalEvents   int              `json:"total_events"`
	DroppedEvents int              `json:"dropped_events"`
	Baseline      finance.Baseline `json:"baseline"`
	Diagnoses     []Diagnosis      `json:"diagnoses"`

	// SkippedPatterns lists pattern ids omitted for configuration-
	// integrity errors, so an empty diagnosis list can be told apart
	// from a broken one.
	SkippedPatterns []string `json:"skipped_patterns,omitempty"`
}

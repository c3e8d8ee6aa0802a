package diagnose

import (
	"time"

	"github.com/ecomlens/ecomlens/internal/engine"
	"github.com/ecomlens/ecomlens/internal/patterns"
)

// Rehydrate rebuilds a RunResult from its persisted rows so a stored
// run can be re-rendered without re-running the pipeline.
func Rehydrate(run *Run, stored []StoredDiagnosis) *RunResult {
	result := &RunResult{
		RunID:         run.ID,
		Source:        run.Source,
		TotalSessions: run.TotalSessions,
		TotalEvents:   run.TotalEvents,
		DroppedEvents: run.DroppedEvents,
		Baseline:      run.Baseline,
	}
	if t, err := time.Parse(time.DateTime, run.CreatedAt); err == nil {
		result.CreatedAt = t
	}

	for _, sd := range stored {
		result.Diagnoses = append(result.Diagnoses, Diagnosis{
			ID:                  sd.ID,
			RunID:               sd.RunID,
			PatternID:           sd.PatternID,
			Label:               sd.Label,
			Category:            sd.Category,
			Stage:               patterns.Stage(sd.Stage),
			Severity:            Severity(sd.Severity),
			Tier:                engine.Tier(sd.Tier),
			Score:               sd.Score,
			Drivers:             sd.Drivers,
			Evidence:            sd.Evidence,
			Recommendation:      sd.Recommendation,
			ExampleSessions:     sd.ExampleSessions,
			Journey:             sd.Journey,
			RevenueAtRisk:       sd.RevenueAtRisk,
			MaxPotentialRevenue: sd.MaxPotentialRevenue,
		})
	}
	return result
}

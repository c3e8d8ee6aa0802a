package diagnose

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ecomlens/ecomlens/internal/engine"
	"github.com/ecomlens/ecomlens/internal/events"
	"github.com/ecomlens/ecomlens/internal/features"
	"github.com/ecomlens/ecomlens/internal/finance"
	"github.com/ecomlens/ecomlens/internal/patterns"
)

const exampleSessionLimit = 5

// ProgressFunc receives extraction progress (sessions done vs total).
type ProgressFunc func(done, total int)

// ConfigErrorFunc is invoked when a pattern is skipped for a
// configuration-integrity error, so callers can alert an operator.
type ConfigErrorFunc func(patternID string, err error)

// Options configures an Orchestrator.
type Options struct {
	Concurrency   int
	Logger        *zerolog.Logger
	OnProgress    ProgressFunc
	OnConfigError ConfigErrorFunc

	// AOV and ConversionRate override the observed financial baseline
	// when positive. Operator-supplied numbers beat both observed and
	// placeholder values.
	AOV            float64
	ConversionRate float64
}

// Orchestrator runs the full diagnosis pipeline over a materialized
// event batch: feature extraction, per-session rule and driver
// evaluation for every registered pattern, and per-pattern aggregation
// into diagnosis records.
type Orchestrator struct {
	registry    *patterns.Registry
	concurrency int
	log         zerolog.Logger
	onProgress  ProgressFunc
	onConfigErr ConfigErrorFunc
	aov         float64
	conversion  float64
}

// NewOrchestrator builds an orchestrator over an explicit pattern
// registry.
func NewOrchestrator(registry *patterns.Registry, opts Options) *Orchestrator {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Orchestrator{
		registry:    registry,
		concurrency: concurrency,
		log:         log,
		onProgress:  opts.OnProgress,
		onConfigErr: opts.OnConfigError,
		aov:         opts.AOV,
		conversion:  opts.ConversionRate,
	}
}

// Run diagnoses one fully-materialized batch. A pattern that fails for
// a configuration-integrity error is logged, reported through the
// config-error callback, and omitted; the remaining patterns still
// produce diagnoses.
func (o *Orchestrator) Run(ctx context.Context, batch []events.RawEvent, source string) (*RunResult, error) {
	groups := events.GroupBySession(batch)
	sessionIDs := make([]string, 0, len(groups))
	for sid := range groups {
		sessionIDs = append(sessionIDs, sid)
	}
	sort.Strings(sessionIDs)

	vectors := o.extractVectors(ctx, groups, sessionIDs)
	baseline := finance.Estimate(batch, len(vectors))
	if o.aov > 0 {
		baseline.AOV = o.aov
		baseline.AOVIsPlaceholder = false
	}
	if o.conversion > 0 {
		baseline.ConversionRate = o.conversion
		baseline.ConversionIsDefault = false
	}

	result := &RunResult{
		RunID:         uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Source:        source,
		TotalSessions: len(vectors),
		TotalEvents:   len(batch),
		Baseline:      baseline,
	}

	for _, def := range o.registry.All() {
		diag, err := o.evaluatePattern(def, vectors, sessionIDs, groups, baseline, result.RunID)
		if err != nil {
			o.log.Error().Err(err).Str("pattern", def.ID).Msg("pattern skipped")
			if o.onConfigErr != nil {
				o.onConfigErr(def.ID, err)
			}
			result.SkippedPatterns = append(result.SkippedPatterns, def.ID)
			continue
		}
		if diag == nil {
			o.log.Debug().Str("pattern", def.ID).Msg("pattern not detected in any session")
			continue
		}
		result.Diagnoses = append(result.Diagnoses, *diag)
	}

	return result, nil
}

// extractVectors fans feature extraction out across sessions. Each
// extraction is a pure function of its session's events, so the only
// shared state is the result map.
func (o *Orchestrator) extractVectors(ctx context.Context, groups map[string][]events.RawEvent, sessionIDs []string) map[string]features.Vector {
	total := len(sessionIDs)
	vectors := make(map[string]features.Vector, total)

	sem := make(chan struct{}, o.concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var done int64

	for _, sid := range sessionIDs {
		select {
		case <-ctx.Done():
			return vectors
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			defer func() { <-sem }()

			v, ok := features.Extract(sid, groups[sid])
			if ok {
				mu.Lock()
				vectors[sid] = v
				mu.Unlock()
			}
			count := atomic.AddInt64(&done, 1)
			if o.onProgress != nil {
				o.onProgress(int(count), total)
			}
		}(sid)
	}
	wg.Wait()
	return vectors
}

// evaluatePattern aggregates one pattern over the batch. It returns
// (nil, nil) when the pattern is detected in zero sessions: an absent
// diagnosis, not an empty one. A panic inside evaluation is contained
// to this pattern.
func (o *Orchestrator) evaluatePattern(
	def patterns.Definition,
	vectors map[string]features.Vector,
	sessionIDs []string,
	groups map[string][]events.RawEvent,
	baseline finance.Baseline,
	runID string,
) (diag *Diagnosis, err error) {
	defer func() {
		if r := recover(); r != nil {
			diag = nil
			err = fmt.Errorf("pattern %s: panic during evaluation: %v", def.ID, r)
		}
	}()

	if err := def.Validate(); err != nil {
		return nil, err
	}

	var detected []engine.Detection
	driverSessions := map[string]int{}
	intentDetected := 0

	for _, sid := range sessionIDs {
		v, ok := vectors[sid]
		if !ok {
			continue
		}
		det := engine.EvaluateRules(v, def)
		if !det.Detected {
			continue
		}
		detected = append(detected, det)
		for _, id := range engine.ActiveDrivers(v, def) {
			driverSessions[id]++
		}
		if intent, _ := v.Metric(features.MetricHasIntent); intent == 1 {
			intentDetected++
		}
	}

	if len(detected) == 0 {
		return nil, nil
	}

	var scoreSum float64
	for _, det := range detected {
		scoreSum += det.Score
	}
	// The mean is over detected sessions only, so a strongly-expressed
	// pattern is not diluted by sessions where it never fired.
	meanScore := scoreSum / float64(len(detected))
	tier := engine.TierFor(meanScore, def.Tiers)

	drivers := driverSummaries(def, driverSessions)
	activeUnion := make([]string, 0, len(drivers))
	for _, d := range drivers {
		activeUnion = append(activeUnion, d.ID)
	}

	recommendation, err := engine.SelectInterventions(activeUnion, def)
	if err != nil {
		return nil, err
	}

	eligible := len(detected)
	if def.Stage == patterns.StagePostIntent {
		// Post-intent patterns only threaten sessions that already
		// formed intent.
		eligible = intentDetected
	}
	rate := baseline.EffectiveRate(def.ConversionOverride)

	representative := representativeSession(detected)

	return &Diagnosis{
		ID:                  uuid.NewString(),
		RunID:               runID,
		PatternID:           def.ID,
		Label:               def.Label,
		Category:            def.Category,
		Stage:               def.Stage,
		Severity:            severityFor(tier, meanScore),
		Tier:                tier,
		Score:               meanScore,
		Drivers:             drivers,
		Evidence:            buildEvidence(detected, vectors, intentDetected, meanScore),
		Recommendation:      recommendation,
		ExampleSessions:     exampleSessions(detected),
		Journey:             BuildJourney(groups[representative]),
		RevenueAtRisk:       finance.RevenueAtRisk(eligible, baseline.AOV, rate),
		MaxPotentialRevenue: finance.MaxPotentialRevenue(eligible, baseline.AOV),
		CreatedAt:           time.Now().UTC(),
	}, nil
}

// driverSummaries orders the aggregated drivers by how many detected
// sessions they were active in, then by id for determinism.
func driverSummaries(def patterns.Definition, counts map[string]int) []DriverSummary {
	summaries := make([]DriverSummary, 0, len(counts))
	for id, n := range counts {
		summaries = append(summaries, DriverSummary{
			ID:       id,
			Label:    engine.DriverLabel(def, id),
			Sessions: n,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Sessions != summaries[j].Sessions {
			return summaries[i].Sessions > summaries[j].Sessions
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries
}

// representativeSession picks the detected session with the highest
// individual score; ties keep the earliest in sorted-session order.
func representativeSession(detected []engine.Detection) string {
	best := detected[0]
	for _, det := range detected[1:] {
		if det.Score > best.Score {
			best = det
		}
	}
	return best.SessionID
}

func exampleSessions(detected []engine.Detection) []string {
	sorted := make([]engine.Detection, len(detected))
	copy(sorted, detected)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	limit := exampleSessionLimit
	if len(sorted) < limit {
		limit = len(sorted)
	}
	ids := make([]string, 0, limit)
	for _, det := range sorted[:limit] {
		ids = append(ids, det.SessionID)
	}
	return ids
}

// buildEvidence contrasts the detected subset against the full cohort.
func buildEvidence(detected []engine.Detection, vectors map[string]features.Vector, intentDetected int, meanScore float64) map[string]float64 {
	detectedSet := make(map[string]bool, len(detected))
	for _, det := range detected {
		detectedSet[det.SessionID] = true
	}

	var durAll, durDet, reassureAll, reassureDet float64
	for sid, v := range vectors {
		dur, _ := v.Metric(features.MetricSessionDurationMin)
		reassure, _ := v.Metric(features.MetricReassuranceTouches)
		durAll += dur
		reassureAll += reassure
		if detectedSet[sid] {
			durDet += dur
			reassureDet += reassure
		}
	}

	nAll := float64(len(vectors))
	nDet := float64(len(detected))
	evidence := map[string]float64{
		"detected_sessions": nDet,
		"total_sessions":    nAll,
		"intent_sessions":   float64(intentDetected),
		"avg_score":         meanScore,
	}
	if nAll > 0 {
		evidence["detection_rate"] = nDet / nAll
		evidence["avg_session_duration_all"] = durAll / nAll
		evidence["avg_reassurance_touches_all"] = reassureAll / nAll
	}
	if nDet > 0 {
		evidence["avg_session_duration_detected"] = durDet / nDet
		evidence["avg_reassurance_touches_detected"] = reassureDet / nDet
	}
	return evidence
}

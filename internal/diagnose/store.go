package diagnose

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecomlens/ecomlens/internal/db"
	"github.com/ecomlens/ecomlens/internal/engine"
	"github.com/ecomlens/ecomlens/internal/finance"
)

// Store persists runs and their diagnoses.
type Store struct {
	db *db.DB
}

// NewStore creates a new diagnosis store.
func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Run is the persisted summary of one orchestrator invocation.
type Run struct {
	ID            string           `json:"id"`
	CreatedAt     string           `json:"created_at"`
	Source        string           `json:"source"`
	TotalSessions int              `json:"total_sessions"`
	TotalEvents   int              `json:"total_events"`
	DroppedEvents int              `json:"dropped_events"`
	Baseline      finance.Baseline `json:"baseline"`
}

// SaveResult inserts the run row and one diagnosis row per diagnosed
// pattern, atomically.
func (s *Store) SaveResult(ctx context.Context, result *RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, source, total_sessions, total_events, dropped_events,
		                   aov, aov_is_placeholder, conversion_rate, conversion_is_default)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.CreatedAt.UTC().Format(time.DateTime), result.Source,
		result.TotalSessions, result.TotalEvents, result.DroppedEvents,
		result.Baseline.AOV, boolInt(result.Baseline.AOVIsPlaceholder),
		result.Baseline.ConversionRate, boolInt(result.Baseline.ConversionIsDefault),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i := range result.Diagnoses {
		if err := insertDiagnosis(ctx, tx, &result.Diagnoses[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

func insertDiagnosis(ctx context.Context, tx *sql.Tx, d *Diagnosis) error {
	driversJSON, err := json.Marshal(d.Drivers)
	if err != nil {
		return fmt.Errorf("marshaling drivers: %w", err)
	}
	evidenceJSON, err := json.Marshal(d.Evidence)
	if err != nil {
		return fmt.Errorf("marshaling evidence: %w", err)
	}
	recommendationJSON, err := json.Marshal(d.Recommendation)
	if err != nil {
		return fmt.Errorf("marshaling recommendation: %w", err)
	}
	examplesJSON, err := json.Marshal(d.ExampleSessions)
	if err != nil {
		return fmt.Errorf("marshaling example sessions: %w", err)
	}
	journeyJSON, err := json.Marshal(d.Journey)
	if err != nil {
		return fmt.Errorf("marshaling journey: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO diagnoses (id, run_id, pattern_id, label, category, stage, severity, tier, score,
		                        drivers, evidence, primary_bucket, secondary_bucket, recommendation,
		                        example_sessions, journey, revenue_at_risk, max_potential_revenue, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.RunID, d.PatternID, d.Label, d.Category, string(d.Stage),
		string(d.Severity), string(d.Tier), d.Score,
		string(driversJSON), string(evidenceJSON),
		d.Recommendation.Primary.ID, d.Recommendation.Secondary.ID, string(recommendationJSON),
		string(examplesJSON), string(journeyJSON),
		d.RevenueAtRisk, d.MaxPotentialRevenue, d.CreatedAt.UTC().Format(time.DateTime),
	)
	if err != nil {
		return fmt.Errorf("inserting diagnosis %s: %w", d.PatternID, err)
	}
	return nil
}

// ListRuns returns run summaries, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, total_sessions, total_events, dropped_events,
		        aov, aov_is_placeholder, conversion_rate, conversion_is_default
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var result []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetRun retrieves one run summary by id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, total_sessions, total_events, dropped_events,
		        aov, aov_is_placeholder, conversion_rate, conversion_is_default
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("getting run: %w", err)
	}
	return &r, nil
}

// LatestRun returns the most recent run, or sql.ErrNoRows when none
// exist.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, source, total_sessions, total_events, dropped_events,
		        aov, aov_is_placeholder, conversion_rate, conversion_is_default
		 FROM runs ORDER BY created_at DESC LIMIT 1`)
	r, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("getting latest run: %w", err)
	}
	return &r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var aovPlaceholder, convDefault int
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.TotalSessions, &r.TotalEvents, &r.DroppedEvents,
		&r.Baseline.AOV, &aovPlaceholder, &r.Baseline.ConversionRate, &convDefault)
	if err != nil {
		return Run{}, err
	}
	r.Baseline.AOVIsPlaceholder = aovPlaceholder != 0
	r.Baseline.ConversionIsDefault = convDefault != 0
	r.Baseline.TotalSessions = r.TotalSessions
	return r, nil
}

// StoredDiagnosis is the persisted shape of a diagnosis.
type StoredDiagnosis struct {
	ID                  string                `json:"id"`
	RunID               string                `json:"run_id"`
	PatternID           string                `json:"pattern_id"`
	Label               string                `json:"label"`
	Category            string                `json:"category"`
	Stage               string                `json:"stage"`
	Severity            string                `json:"severity"`
	Tier                string                `json:"tier"`
	Score               float64               `json:"score"`
	Drivers             []DriverSummary       `json:"drivers"`
	Evidence            map[string]float64    `json:"evidence"`
	Recommendation      engine.Recommendation `json:"recommendation"`
	ExampleSessions     []string              `json:"example_sessions"`
	Journey             []JourneyStep         `json:"journey,omitempty"`
	RevenueAtRisk       float64               `json:"revenue_at_risk"`
	MaxPotentialRevenue float64               `json:"max_potential_revenue"`
}

const diagnosisColumns = `id, run_id, pattern_id, label, category, stage, severity, tier, score,
	drivers, evidence, recommendation,
	example_sessions, journey, revenue_at_risk, max_potential_revenue`

// ListDiagnoses returns the diagnoses of one run, highest revenue at
// risk first.
func (s *Store) ListDiagnoses(ctx context.Context, runID string) ([]StoredDiagnosis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+diagnosisColumns+` FROM diagnoses WHERE run_id = ? ORDER BY revenue_at_risk DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing diagnoses: %w", err)
	}
	defer rows.Close()

	var result []StoredDiagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// GetDiagnosis retrieves one diagnosis by id.
func (s *Store) GetDiagnosis(ctx context.Context, id string) (*StoredDiagnosis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+diagnosisColumns+` FROM diagnoses WHERE id = ?`, id)
	d, err := scanDiagnosis(row)
	if err != nil {
		return nil, fmt.Errorf("getting diagnosis: %w", err)
	}
	return &d, nil
}

func scanDiagnosis(row rowScanner) (StoredDiagnosis, error) {
	var d StoredDiagnosis
	var driversJSON, evidenceJSON, recommendationJSON, examplesJSON, journeyJSON string
	err := row.Scan(&d.ID, &d.RunID, &d.PatternID, &d.Label, &d.Category, &d.Stage,
		&d.Severity, &d.Tier, &d.Score,
		&driversJSON, &evidenceJSON, &recommendationJSON,
		&examplesJSON, &journeyJSON, &d.RevenueAtRisk, &d.MaxPotentialRevenue)
	if err != nil {
		return StoredDiagnosis{}, err
	}
	for _, pair := range []struct {
		raw  string
		dest any
	}{
		{driversJSON, &d.Drivers},
		{evidenceJSON, &d.Evidence},
		{recommendationJSON, &d.Recommendation},
		{examplesJSON, &d.ExampleSessions},
		{journeyJSON, &d.Journey},
	} {
		if err := json.Unmarshal([]byte(pair.raw), pair.dest); err != nil {
			return StoredDiagnosis{}, fmt.Errorf("unmarshaling diagnosis field: %w", err)
		}
	}
	return d, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

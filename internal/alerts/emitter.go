package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ecomlens/ecomlens/internal/diagnose"
)

// Emitter persists alerts and optionally forwards them to a webhook.
type Emitter struct {
	store      *Store
	webhookURL string
	client     *http.Client
}

// NewEmitter creates an Emitter. webhookURL may be empty, in which case
// alerts are only persisted.
func NewEmitter(store *Store, webhookURL string) *Emitter {
	return &Emitter{
		store:      store,
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Emit persists an alert and forwards it to the webhook when one is
// configured. Webhook failures leave the alert undelivered so it can be
// retried from the pending list.
func (e *Emitter) Emit(ctx context.Context, a Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := e.store.Create(ctx, a); err != nil {
		return fmt.Errorf("creating alert: %w", err)
	}

	if e.webhookURL == "" {
		return nil
	}
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling alert: %w", err)
	}
	if err := e.sendWebhook(ctx, payload); err != nil {
		return nil
	}
	return e.store.MarkDelivered(ctx, a.ID)
}

// PatternConfigError raises a critical alert for a pattern skipped over
// a broken definition. A misconfigured pattern silently producing no
// diagnoses is the failure mode this exists to surface.
func (e *Emitter) PatternConfigError(ctx context.Context, runID, patternID string, cause error) error {
	return e.Emit(ctx, Alert{
		Type:      TypePatternConfigError,
		Severity:  SeverityCritical,
		Title:     fmt.Sprintf("pattern %s skipped", patternID),
		Message:   cause.Error(),
		PatternID: patternID,
		RunID:     runID,
	})
}

// EmitForRun raises the standard alerts for a completed run: one per
// critical diagnosis, one if the financial baseline fell back to
// placeholder values, and an informational completion alert.
func (e *Emitter) EmitForRun(ctx context.Context, result *diagnose.RunResult) error {
	for _, d := range result.Diagnoses {
		if d.Severity != diagnose.SeverityCritical {
			continue
		}
		err := e.Emit(ctx, Alert{
			Type:      TypeCriticalDiagnosis,
			Severity:  SeverityCritical,
			Title:     fmt.Sprintf("critical friction: %s", d.Label),
			Message:   fmt.Sprintf("%s detected at %s confidence (score %.1f), estimated revenue at risk %.2f", d.Label, d.Tier, d.Score, d.RevenueAtRisk),
			PatternID: d.PatternID,
			RunID:     result.RunID,
		})
		if err != nil {
			return err
		}
	}

	if result.Baseline.AOVIsPlaceholder || result.Baseline.ConversionIsDefault {
		err := e.Emit(ctx, Alert{
			Type:     TypeBaselinePlaceholder,
			Severity: SeverityWarning,
			Title:    "financial baseline uses placeholder values",
			Message:  "no purchase data in the batch; revenue estimates use default order value and conversion rate",
			RunID:    result.RunID,
		})
		if err != nil {
			return err
		}
	}

	return e.Emit(ctx, Alert{
		Type:     TypeRunCompleted,
		Severity: SeverityInfo,
		Title:    "diagnosis run completed",
		Message:  fmt.Sprintf("%d sessions analyzed, %d patterns diagnosed, %d skipped", result.TotalSessions, len(result.Diagnoses), len(result.SkippedPatterns)),
		RunID:    result.RunID,
	})
}

func (e *Emitter) sendWebhook(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

package alerts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecomlens/ecomlens/internal/db"
	"github.com/ecomlens/ecomlens/internal/diagnose"
	"github.com/ecomlens/ecomlens/internal/finance"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestCreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a := Alert{
		ID:        "alert-1",
		Type:      TypeCriticalDiagnosis,
		Severity:  SeverityCritical,
		Title:     "critical friction: Checkout Trust Deficit",
		Message:   "detected at high confidence",
		PatternID: "checkout_trust_deficit",
		RunID:     "run-1",
	}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.GetByID(ctx, "alert-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Type != TypeCriticalDiagnosis || got.Severity != SeverityCritical {
		t.Errorf("got %s/%s", got.Type, got.Severity)
	}
	if got.Delivered {
		t.Error("new alert should be undelivered")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
}

func TestListFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	seed := []Alert{
		{ID: "a1", Type: TypeRunCompleted, Severity: SeverityInfo, Title: "done", RunID: "run-1"},
		{ID: "a2", Type: TypeCriticalDiagnosis, Severity: SeverityCritical, Title: "bad", RunID: "run-1"},
		{ID: "a3", Type: TypeCriticalDiagnosis, Severity: SeverityCritical, Title: "bad again", RunID: "run-2", Delivered: true},
	}
	for _, a := range seed {
		if err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create %s: %v", a.ID, err)
		}
	}

	all, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List = %d alerts, want 3", len(all))
	}

	critical, err := store.List(ctx, ListFilter{Severity: SeverityCritical})
	if err != nil {
		t.Fatalf("List severity: %v", err)
	}
	if len(critical) != 2 {
		t.Errorf("critical = %d, want 2", len(critical))
	}

	run2, err := store.List(ctx, ListFilter{RunID: "run-2"})
	if err != nil {
		t.Fatalf("List run: %v", err)
	}
	if len(run2) != 1 || run2[0].ID != "a3" {
		t.Errorf("run-2 alerts = %+v", run2)
	}

	delivered := true
	got, err := store.List(ctx, ListFilter{Delivered: &delivered})
	if err != nil {
		t.Fatalf("List delivered: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a3" {
		t.Errorf("delivered alerts = %+v", got)
	}

	limited, err := store.List(ctx, ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}

	future, err := store.List(ctx, ListFilter{Since: time.Now().UTC().Add(time.Hour)})
	if err != nil {
		t.Fatalf("List since: %v", err)
	}
	if len(future) != 0 {
		t.Errorf("future-since = %d, want 0", len(future))
	}
}

func TestMarkDelivered(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, Alert{ID: "a1", Type: TypeRunCompleted, Severity: SeverityInfo, Title: "done"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.MarkDelivered(ctx, "a1"); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	got, err := store.GetByID(ctx, "a1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Delivered {
		t.Error("alert still undelivered")
	}

	if err := store.MarkDelivered(ctx, "missing"); err == nil {
		t.Error("expected error for unknown alert id")
	}
}

func TestGetPending(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, Alert{ID: "a1", Type: TypeRunCompleted, Severity: SeverityInfo, Title: "done"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, Alert{ID: "a2", Type: TypeRunCompleted, Severity: SeverityInfo, Title: "done", Delivered: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	pending, err := store.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "a1" {
		t.Errorf("pending = %+v, want only a1", pending)
	}
}

func TestEmitWithoutWebhook(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	emitter := NewEmitter(store, "")
	if err := emitter.Emit(ctx, Alert{Type: TypeRunCompleted, Severity: SeverityInfo, Title: "done"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	pending, err := store.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1 (no webhook means undelivered)", len(pending))
	}
	if pending[0].ID == "" {
		t.Error("Emit should assign an id")
	}
}

func TestEmitDeliversViaWebhook(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var received Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding webhook payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	emitter := NewEmitter(store, srv.URL)
	if err := emitter.Emit(ctx, Alert{Type: TypeCriticalDiagnosis, Severity: SeverityCritical, Title: "bad"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	if received.Title != "bad" {
		t.Errorf("webhook received %+v", received)
	}

	pending, err := store.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0 after webhook delivery", len(pending))
	}
}

// A failing webhook keeps the alert, undelivered, so it can be retried.
func TestEmitWebhookFailureLeavesPending(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	emitter := NewEmitter(store, srv.URL)
	if err := emitter.Emit(ctx, Alert{Type: TypeRunCompleted, Severity: SeverityInfo, Title: "done"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	pending, err := store.GetPending(ctx)
	if err != nil {
		t.Fatalf("GetPending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %d, want 1", len(pending))
	}
}

func TestEmitForRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	emitter := NewEmitter(store, "")

	result := &diagnose.RunResult{
		RunID:         "run-1",
		TotalSessions: 20,
		Baseline:      finance.Baseline{AOVIsPlaceholder: true},
		Diagnoses: []diagnose.Diagnosis{
			{PatternID: "checkout_trust_deficit", Label: "Checkout Trust Deficit", Severity: diagnose.SeverityCritical},
			{PatternID: "decision_paralysis", Label: "Decision Paralysis", Severity: diagnose.SeverityWarning},
		},
	}

	if err := emitter.EmitForRun(ctx, result); err != nil {
		t.Fatalf("EmitForRun: %v", err)
	}

	all, err := store.List(ctx, ListFilter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	// One critical diagnosis alert, one placeholder warning, one
	// completion alert. The warning-severity diagnosis raises nothing.
	if len(all) != 3 {
		t.Fatalf("alerts = %d, want 3", len(all))
	}

	counts := map[AlertType]int{}
	for _, a := range all {
		counts[a.Type]++
	}
	if counts[TypeCriticalDiagnosis] != 1 || counts[TypeBaselinePlaceholder] != 1 || counts[TypeRunCompleted] != 1 {
		t.Errorf("alert types = %v", counts)
	}
}

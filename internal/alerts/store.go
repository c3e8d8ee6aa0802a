package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecomlens/ecomlens/internal/db"
)

// ListFilter controls which alerts are returned by List.
type ListFilter struct {
	Type      AlertType
	Severity  Severity
	RunID     string
	Delivered *bool
	Since     time.Time
	Limit     int
	Offset    int
}

// Store provides CRUD operations for alerts.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new alert. If a.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, a Alert) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	delivered := 0
	if a.Delivered {
		delivered = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, type, severity, title, message, pattern_id, run_id, delivered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), string(a.Severity), a.Title, a.Message,
		a.PatternID, a.RunID, delivered,
	)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

// GetByID retrieves a single alert.
func (s *Store) GetByID(ctx context.Context, id string) (*Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, severity, title, message, pattern_id, run_id, delivered, created_at
		FROM alerts WHERE id = ?`, id)
	return scanAlert(row)
}

// List returns alerts matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Alert, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, string(filter.Type))
	}
	if filter.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, string(filter.Severity))
	}
	if filter.RunID != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, filter.RunID)
	}
	if filter.Delivered != nil {
		v := 0
		if *filter.Delivered {
			v = 1
		}
		clauses = append(clauses, "delivered = ?")
		args = append(args, v)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT id, type, severity, title, message, pattern_id, run_id, delivered, created_at FROM alerts"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var result []Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// MarkDelivered sets delivered=1 for the given alert.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE alerts SET delivered = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking alert delivered: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("alert %s not found", id)
	}
	return nil
}

// GetPending returns all undelivered alerts.
func (s *Store) GetPending(ctx context.Context) ([]Alert, error) {
	delivered := false
	return s.List(ctx, ListFilter{Delivered: &delivered})
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(sc scanner) (*Alert, error) {
	var (
		a               Alert
		atype, severity string
		delivered       int
		ts              string
	)

	err := sc.Scan(&a.ID, &atype, &severity, &a.Title, &a.Message,
		&a.PatternID, &a.RunID, &delivered, &ts)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning alert: %w", err)
	}

	a.Type = AlertType(atype)
	a.Severity = Severity(severity)
	a.Delivered = delivered != 0

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		a.CreatedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		a.CreatedAt = t
	}

	return &a, nil
}

package alerts

import "time"

// Severity indicates the importance of an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AlertType categorises the condition that raised the alert.
type AlertType string

const (
	TypePatternConfigError   AlertType = "pattern_config_error"
	TypeCriticalDiagnosis    AlertType = "critical_diagnosis"
	TypeBaselinePlaceholder  AlertType = "baseline_placeholder"
	TypeRunCompleted         AlertType = "run_completed"
)

// Alert is a single operator-facing alert record.
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	PatternID string    `json:"pattern_id,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	Delivered bool      `json:"delivered"`
	CreatedAt time.Time `json:"created_at"`
}

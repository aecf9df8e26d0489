package domain

import "time"

// AlertType classifies what triggered an alert.
type AlertType string

// Alert types.
const (
	AlertTypeError       AlertType = "error"
	AlertTypePerformance AlertType = "performance"
	AlertTypeCapacity    AlertType = "capacity"
	AlertTypeSecurity    AlertType = "security"
)

// Alert represents a transient notification, distinct from an incident.
// TTL and AutoResolve are advisory: the only enforced expiry is the periodic
// sweep that dismisses stale unacknowledged low-severity alerts.
type Alert struct {
	ID             string     `json:"id"`
	Type           AlertType  `json:"type"`
	Severity       Severity   `json:"severity"`
	ServiceID      string     `json:"service_id,omitempty"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	AutoResolve    bool       `json:"auto_resolve"`
	TTL            *time.Duration `json:"ttl,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}

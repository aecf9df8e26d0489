package domain

import "time"

// DefectStatus represents the lifecycle state of a tracked defect.
type DefectStatus string

// Defect statuses.
const (
	DefectStatusOpen       DefectStatus = "open"
	DefectStatusInProgress DefectStatus = "in_progress"
	DefectStatusResolved   DefectStatus = "resolved"
	DefectStatusClosed     DefectStatus = "closed"
)

// Defect represents a historical defect generated from a pattern template.
type Defect struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Category   string       `json:"category"`
	Solution   string       `json:"solution"`
	Status     DefectStatus `json:"status"`
	Severity   Severity     `json:"severity"`
	ServiceIDs []string     `json:"service_ids"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

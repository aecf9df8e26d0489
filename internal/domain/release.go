package domain

import "time"

// ReleaseReadiness is a point-in-time snapshot of release gate progress.
// Ready requires SIT and UAT fully complete, regression at 95 or better and
// every tracked defect closed.
type ReleaseReadiness struct {
	SITProgress        int       `json:"sit_progress"`
	UATProgress        int       `json:"uat_progress"`
	RegressionProgress int       `json:"regression_progress"`
	DefectsClosed      int       `json:"defects_closed"`
	Ready              bool      `json:"ready"`
	Blockers           []string  `json:"blockers,omitempty"`
	Risks              []string  `json:"risks,omitempty"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// PerformanceSample is a single response-time measurement for one service.
type PerformanceSample struct {
	ServiceID      string    `json:"service_id"`
	ResponseTimeMs int       `json:"response_time_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

package domain

import "time"

// InsightKind classifies a generated insight.
type InsightKind string

// Insight kinds.
const (
	InsightKindPrediction     InsightKind = "prediction"
	InsightKindRecommendation InsightKind = "recommendation"
	InsightKindAnomaly        InsightKind = "anomaly"
	InsightKindPattern        InsightKind = "pattern"
)

// InsightImpact bands the estimated impact of an insight.
type InsightImpact string

// Insight impact bands.
const (
	InsightImpactLow    InsightImpact = "low"
	InsightImpactMedium InsightImpact = "medium"
	InsightImpactHigh   InsightImpact = "high"
)

// Insight represents a generated explanation object. Insights are write-once
// and kept in an append-only list.
type Insight struct {
	ID         string        `json:"id"`
	Kind       InsightKind   `json:"kind"`
	Title      string        `json:"title"`
	Summary    string        `json:"summary"`
	Confidence int           `json:"confidence"`
	Impact     InsightImpact `json:"impact"`
	ServiceIDs []string      `json:"service_ids"`
	CreatedAt  time.Time     `json:"created_at"`
}

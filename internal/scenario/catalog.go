package scenario

import "github.com/opsdeck/opsdeck/internal/domain"

// BuiltIn returns the shipped demo narratives. Targets reference ids from
// the default fleet vocabulary; a target missing from a smaller fleet is
// skipped at execution time like any other unknown id.
func BuiltIn() []domain.DemoScenario {
	degraded := domain.ServiceStatusDegraded
	healthy := domain.ServiceStatusHealthy
	lowHealth := 55
	fullHealth := 98

	return []domain.DemoScenario{
		{
			ID:          "major-outage",
			Name:        "Major outage",
			Description: "A payment gateway failure cascades through the fleet before the on-call resolves everything.",
			Duration:    60,
			Steps: []domain.ScenarioStep{
				{Time: 2, Action: domain.ActionServiceFailure, Target: "payment-gateway-us-east-1"},
				{Time: 8, Action: domain.ActionShowAlert, Alert: &domain.Alert{
					Type:     domain.AlertTypeError,
					Severity: domain.SeverityCritical,
					Title:    "Payment gateway unreachable",
					Message:  "Health checks failing across all probes",
				}},
				{Time: 15, Action: domain.ActionCascadeFailure},
				{Time: 25, Action: domain.ActionShowInsight, Insight: &domain.Insight{
					Kind:       domain.InsightKindAnomaly,
					Title:      "Cascade rooted in shared dependency",
					Summary:    "Degradation fan-out matches the dependency graph of the failed gateway.",
					Confidence: 92,
					Impact:     domain.InsightImpactHigh,
				}},
				{Time: 50, Action: domain.ActionResolveAll},
			},
		},
		{
			ID:          "release-night",
			Name:        "Release night",
			Description: "A rolling deploy briefly degrades services while insights track the rollout.",
			Duration:    45,
			Steps: []domain.ScenarioStep{
				{Time: 3, Action: domain.ActionUpdateService, Target: "order-service-us-east-1",
					Patch: &domain.ServicePatch{Status: &degraded, Health: &lowHealth}},
				{Time: 10, Action: domain.ActionShowInsight, Insight: &domain.Insight{
					Kind:       domain.InsightKindPrediction,
					Title:      "Rollout within error budget",
					Summary:    "Canary error rates stay below the release gate threshold.",
					Confidence: 85,
					Impact:     domain.InsightImpactMedium,
				}},
				{Time: 20, Action: domain.ActionUpdateService, Target: "order-service-us-east-1",
					Patch: &domain.ServicePatch{Status: &healthy, Health: &fullHealth}},
				{Time: 28, Action: domain.ActionShowAlert, Alert: &domain.Alert{
					Type:     domain.AlertTypePerformance,
					Severity: domain.SeverityLow,
					Title:    "Deploy completed",
					Message:  "All instances serving the new version",
				}},
			},
		},
	}
}

package generator

import "github.com/opsdeck/opsdeck/internal/domain"

// baseService is one entry of the fleet name/category vocabulary. Fleet
// construction crosses these with region and instance qualifiers.
type baseService struct {
	name     string
	category string
	external bool
}

var serviceVocab = []baseService{
	{name: "auth-service", category: "security"},
	{name: "user-service", category: "core"},
	{name: "payment-gateway", category: "payments"},
	{name: "payment-processor", category: "payments"},
	{name: "checkout-service", category: "payments"},
	{name: "order-service", category: "core"},
	{name: "inventory-service", category: "core"},
	{name: "catalog-service", category: "core"},
	{name: "search-service", category: "core"},
	{name: "recommendation-engine", category: "ml"},
	{name: "notification-service", category: "messaging"},
	{name: "email-dispatcher", category: "messaging"},
	{name: "api-gateway", category: "edge"},
	{name: "load-balancer", category: "edge"},
	{name: "cdn-edge", category: "edge", external: true},
	{name: "user-database", category: "database"},
	{name: "order-database", category: "database"},
	{name: "analytics-database", category: "database"},
	{name: "session-cache", category: "database"},
	{name: "monitoring-agent", category: "monitoring"},
	{name: "metrics-collector", category: "monitoring"},
	{name: "log-aggregator", category: "monitoring"},
	{name: "billing-provider", category: "payments", external: true},
	{name: "fraud-detection", category: "security", external: true},
	{name: "geo-lookup", category: "data", external: true},
	{name: "shipping-partner", category: "logistics", external: true},
	{name: "tax-calculator", category: "payments", external: true},
	{name: "core-ledger", category: "core"},
	{name: "reporting-service", category: "data"},
	{name: "feature-flag-service", category: "core"},
}

var regions = []string{"us-east", "us-west", "eu-central", "ap-south"}

var owners = []string{
	"platform-team", "payments-team", "identity-team", "data-team",
	"sre-team", "growth-team", "commerce-team",
}

var infoMessages = []string{
	"request completed",
	"cache refreshed",
	"session established",
	"payment authorized",
	"order persisted",
	"configuration reloaded",
	"healthcheck passed",
	"batch job finished",
	"token issued",
	"record synchronized",
}

var warnMessages = []string{
	"slow upstream response",
	"retrying request after timeout",
	"connection pool near capacity",
	"cache miss ratio elevated",
	"queue depth growing",
	"deprecated endpoint called",
}

var errorMessages = []string{
	"upstream request failed",
	"database connection refused",
	"transaction rolled back",
	"request timed out",
	"circuit breaker open",
	"message delivery failed",
	"disk quota exceeded",
}

var debugMessages = []string{
	"entering handler",
	"cache lookup",
	"query executed",
	"payload validated",
}

var incidentTitles = []string{
	"Elevated error rate",
	"Latency spike",
	"Partial outage",
	"Connection pool exhaustion",
	"Degraded throughput",
	"Failed deployments rolling back",
}

// defectPattern pairs a defect category with its canonical solution text.
type defectPattern struct {
	category string
	title    string
	solution string
}

var defectPatterns = []defectPattern{
	{
		category: "memory-leak",
		title:    "Memory growth under sustained load",
		solution: "Bound the in-process cache and recycle worker processes on a schedule.",
	},
	{
		category: "race-condition",
		title:    "Intermittent state corruption under concurrent writes",
		solution: "Serialize writes through the owning goroutine and add a version check.",
	},
	{
		category: "timeout",
		title:    "Upstream calls hang past the request deadline",
		solution: "Propagate the request context and set an explicit client timeout.",
	},
	{
		category: "config-drift",
		title:    "Stale configuration served after rollout",
		solution: "Reload configuration on SIGHUP and verify the checksum on boot.",
	},
	{
		category: "connection-leak",
		title:    "Database connections not returned to the pool",
		solution: "Close rows in a defer and cap the pool with a health probe.",
	},
	{
		category: "retry-storm",
		title:    "Synchronized retries amplify upstream failures",
		solution: "Add jittered exponential backoff and a circuit breaker.",
	},
	{
		category: "serialization",
		title:    "Schema mismatch breaks message consumers",
		solution: "Version the payload schema and reject unknown major versions.",
	},
	{
		category: "pagination",
		title:    "Unbounded list endpoint exhausts memory",
		solution: "Enforce a maximum page size and cursor-based pagination.",
	},
}

var releaseBlockers = []string{
	"Open critical defect in payment authorization flow",
	"UAT sign-off pending from commerce stakeholders",
	"Performance regression in checkout p99 latency",
	"Security review for new external integration incomplete",
	"Rollback playbook not yet validated in staging",
}

var releaseRisks = []string{
	"Third-party billing provider has a maintenance window the same night",
	"On-call coverage is thin during the deployment slot",
	"Feature flags overlap with an unfinished experiment",
	"Traffic forecast exceeds last load-test ceiling",
}

var insightTemplates = []struct {
	kind    domain.InsightKind
	title   string
	summary string
}{
	{
		kind:    domain.InsightKindAnomaly,
		title:   "Unusual correlation in service degradation",
		summary: "Response-time distributions across three services are drifting together, which usually precedes a shared-dependency failure.",
	},
	{
		kind:    domain.InsightKindPattern,
		title:   "Recurring weekly load pattern detected",
		summary: "Traffic ramps on these services repeat within a 4% envelope week over week; capacity can be pre-scaled.",
	},
	{
		kind:    domain.InsightKindPrediction,
		title:   "Capacity exhaustion predicted",
		summary: "At the current growth rate the connection pools on these services saturate within 72 hours.",
	},
	{
		kind:    domain.InsightKindRecommendation,
		title:   "Dependency fan-in concentration",
		summary: "A single database instance serves most degraded services; consider splitting read traffic.",
	},
}

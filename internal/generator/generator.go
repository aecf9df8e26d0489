// Package generator synthesizes the mock fleet and its event history. It is
// pure data production: the generator never holds references into the store,
// and every random draw goes through the injected source.
package generator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/clock"
	"github.com/opsdeck/opsdeck/internal/pkg/rng"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrServiceNotFound is returned when an operation references an unknown
// service id.
var ErrServiceNotFound = errors.New("service not found")

// ErrEmptyFleet is returned when an operation needs at least one service.
var ErrEmptyFleet = errors.New("fleet is empty")

const (
	maxDependencies   = 4
	historyErrorRate  = 0.05
	realtimeErrorRate = 0.02
	incidentPerMinute = 0.001
)

var titleCaser = cases.Title(language.English)

// Generator produces synthetic services, history and real-time events.
type Generator struct {
	rand  rng.Source
	clock clock.Clock
}

// New creates a generator.
func New(src rng.Source, clk clock.Clock) *Generator {
	return &Generator{rand: src, clock: clk}
}

// Fleet builds size services from the name vocabulary crossed with region and
// instance qualifiers, then links heuristic dependency edges between them.
//
// Status comes from a cumulative weighted draw (85% healthy, 10% degraded,
// 5% down) while health is sampled uniformly in [85,100] independent of the
// draw, so a freshly generated down service can still report high health.
func (g *Generator) Fleet(size int) []domain.Service {
	now := g.clock.Now()
	services := make([]domain.Service, 0, size)

	for i := 0; i < size; i++ {
		base := serviceVocab[i%len(serviceVocab)]
		region := regions[(i/len(serviceVocab))%len(regions)]
		instance := i/(len(serviceVocab)*len(regions)) + 1

		svcType := domain.ServiceTypeInternal
		if base.external {
			svcType = domain.ServiceTypeExternal
		}

		services = append(services, domain.Service{
			ID:             fmt.Sprintf("%s-%s-%d", base.name, region, instance),
			Name:           fmt.Sprintf("%s (%s %d)", titleCaser.String(strings.ReplaceAll(base.name, "-", " ")), region, instance),
			Type:           svcType,
			Status:         g.drawStatus(),
			Health:         rng.Between(g.rand, 85, 100),
			Category:       base.category,
			Region:         region,
			Owner:          rng.Pick(g.rand, owners),
			ResponseTimeMs: rng.Between(g.rand, 40, 500),
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	g.linkDependencies(services)
	return services
}

func (g *Generator) drawStatus() domain.ServiceStatus {
	r := g.rand.Float64()
	switch {
	case r < 0.85:
		return domain.ServiceStatusHealthy
	case r < 0.95:
		return domain.ServiceStatusDegraded
	default:
		return domain.ServiceStatusDown
	}
}

// linkDependencies assigns 0-4 directed edges per service using name and
// category heuristics, topping up with random edges where a service ends up
// with fewer than two. Self-loops are excluded and duplicates collapse; no
// cycle detection is attempted, so cycles can and do occur.
func (g *Generator) linkDependencies(services []domain.Service) {
	for i := range services {
		svc := &services[i]
		deps := make(map[string]struct{})

		add := func(candidate *domain.Service) {
			if candidate != nil && candidate.ID != svc.ID && len(deps) < maxDependencies {
				deps[candidate.ID] = struct{}{}
			}
		}

		lower := strings.ToLower(svc.ID)
		if strings.Contains(lower, "payment") || strings.Contains(lower, "checkout") || strings.Contains(lower, "billing") {
			add(g.pickWhere(services, svc.ID, func(c *domain.Service) bool {
				return strings.Contains(c.ID, "auth") || strings.Contains(c.ID, "core") || c.Category == "security"
			}))
		}
		if svc.Type == domain.ServiceTypeExternal {
			add(g.pickWhere(services, svc.ID, func(c *domain.Service) bool {
				return strings.Contains(c.ID, "gateway") || strings.Contains(c.ID, "load-balancer")
			}))
		}
		if svc.Category != "database" && svc.Category != "monitoring" {
			add(g.pickWhere(services, svc.ID, func(c *domain.Service) bool { return c.Category == "database" }))
			add(g.pickWhere(services, svc.ID, func(c *domain.Service) bool { return c.Category == "monitoring" }))
		}

		for attempts := 0; len(deps) < 2 && attempts < 10; attempts++ {
			add(&services[rng.IntN(g.rand, len(services))])
		}

		svc.Dependencies = make([]string, 0, len(deps))
		for id := range deps {
			svc.Dependencies = append(svc.Dependencies, id)
		}
	}
}

func (g *Generator) pickWhere(services []domain.Service, excludeID string, match func(*domain.Service) bool) *domain.Service {
	var candidates []*domain.Service
	for i := range services {
		if services[i].ID != excludeID && match(&services[i]) {
			candidates = append(candidates, &services[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rng.IntN(g.rand, len(candidates))]
}

// Backfill walks a multi-day window at one-minute granularity and emits
// business-hours-weighted log batches plus occasional historical incidents.
func (g *Generator) Backfill(services []domain.Service, days int) ([]domain.LogEntry, []domain.Incident) {
	if len(services) == 0 || days <= 0 {
		return nil, nil
	}

	now := g.clock.Now()
	start := now.Add(-time.Duration(days) * 24 * time.Hour)
	var logs []domain.LogEntry
	var incidents []domain.Incident

	for ts := start; ts.Before(now); ts = ts.Add(time.Minute) {
		activity := 0.2
		if h := ts.Hour(); h >= 9 && h < 17 {
			activity = 0.8
		}

		if rng.Chance(g.rand, activity) {
			batch := rng.Between(g.rand, 10, 100)
			for i := 0; i < batch; i++ {
				svc := services[rng.IntN(g.rand, len(services))]
				logs = append(logs, g.logEntry(svc, historyErrorRate, ts))
			}
		}

		if rng.Chance(g.rand, incidentPerMinute) {
			incidents = append(incidents, g.historicalIncident(services, ts, now))
		}
	}

	return logs, incidents
}

func (g *Generator) historicalIncident(services []domain.Service, ts, now time.Time) domain.Incident {
	affected := rng.Between(g.rand, 1, 5)
	ids := make(map[string]struct{}, affected)
	for len(ids) < affected && len(ids) < len(services) {
		ids[services[rng.IntN(g.rand, len(services))].ID] = struct{}{}
	}
	serviceIDs := make([]string, 0, len(ids))
	for id := range ids {
		serviceIDs = append(serviceIDs, id)
	}

	severity := rng.Pick(g.rand, []domain.Severity{
		domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical,
	})

	inc := domain.Incident{
		ID:            uuid.NewString(),
		Title:         rng.Pick(g.rand, incidentTitles),
		Description:   fmt.Sprintf("Automatically detected across %d services", len(serviceIDs)),
		Status:        domain.IncidentStatusOpen,
		Severity:      severity,
		ServiceIDs:    serviceIDs,
		ImpactedUsers: rng.Between(g.rand, 100, 50000),
		RevenueLoss:   float64(rng.Between(g.rand, 1, 500)) * 1000,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}

	// Most history is already resolved; only recent incidents stay active.
	if now.Sub(ts) > time.Hour || rng.Chance(g.rand, 0.5) {
		resolvedAt := ts.Add(time.Duration(rng.Between(g.rand, 10, 240)) * time.Minute)
		if resolvedAt.After(now) {
			resolvedAt = now
		}
		inc.Status = domain.IncidentStatusResolved
		inc.ResolvedAt = &resolvedAt
		inc.UpdatedAt = resolvedAt
	}

	return inc
}

// Defects generates n historical defects from the pattern templates, each
// with a creation time in the past year and an update between creation and
// now.
func (g *Generator) Defects(services []domain.Service, n int) []domain.Defect {
	if len(services) == 0 {
		return nil
	}

	now := g.clock.Now()
	defects := make([]domain.Defect, 0, n)
	statuses := []domain.DefectStatus{
		domain.DefectStatusClosed, domain.DefectStatusClosed, domain.DefectStatusResolved,
		domain.DefectStatusInProgress, domain.DefectStatusOpen,
	}

	for i := 0; i < n; i++ {
		pattern := defectPatterns[i%len(defectPatterns)]

		affected := rng.Between(g.rand, 1, 3)
		ids := make(map[string]struct{}, affected)
		for len(ids) < affected {
			ids[services[rng.IntN(g.rand, len(services))].ID] = struct{}{}
		}
		serviceIDs := make([]string, 0, len(ids))
		for id := range ids {
			serviceIDs = append(serviceIDs, id)
		}

		createdAt := now.Add(-time.Duration(rng.Between(g.rand, 1, 365*24)) * time.Hour)
		updatedAt := createdAt.Add(time.Duration(g.rand.Float64()*float64(now.Sub(createdAt))))

		defects = append(defects, domain.Defect{
			ID:         fmt.Sprintf("DEF-%04d", i+1),
			Title:      pattern.title,
			Category:   pattern.category,
			Solution:   pattern.solution,
			Status:     rng.Pick(g.rand, statuses),
			Severity:   rng.Pick(g.rand, []domain.Severity{domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical}),
			ServiceIDs: serviceIDs,
			CreatedAt:  createdAt,
			UpdatedAt:  updatedAt,
		})
	}

	return defects
}

// RealtimeLog produces one log entry for a randomly chosen service, with a
// lower error rate than historical backfill.
func (g *Generator) RealtimeLog(services []domain.Service) (domain.LogEntry, error) {
	if len(services) == 0 {
		return domain.LogEntry{}, ErrEmptyFleet
	}
	svc := services[rng.IntN(g.rand, len(services))]
	return g.logEntry(svc, realtimeErrorRate, g.clock.Now()), nil
}

// RealtimeMetric produces one performance sample derived from the service's
// baseline response time plus bounded jitter. Unknown ids are an error, not
// a partial sample.
func (g *Generator) RealtimeMetric(services []domain.Service, serviceID string) (domain.PerformanceSample, error) {
	for _, svc := range services {
		if svc.ID == serviceID {
			jitter := rng.Between(g.rand, -svc.ResponseTimeMs/4, svc.ResponseTimeMs/4)
			return domain.PerformanceSample{
				ServiceID:      svc.ID,
				ResponseTimeMs: svc.ResponseTimeMs + jitter,
				Timestamp:      g.clock.Now(),
			}, nil
		}
	}
	return domain.PerformanceSample{}, fmt.Errorf("realtime metric for %q: %w", serviceID, ErrServiceNotFound)
}

// PickInternal chooses a random internal-type service.
func (g *Generator) PickInternal(services []domain.Service) (domain.Service, bool) {
	var internal []domain.Service
	for _, svc := range services {
		if svc.Type == domain.ServiceTypeInternal {
			internal = append(internal, svc)
		}
	}
	if len(internal) == 0 {
		return domain.Service{}, false
	}
	return internal[rng.IntN(g.rand, len(internal))], true
}

// CascadeIncident builds the critical incident accompanying a failure
// cascade, referencing the primary and every direct dependent.
func (g *Generator) CascadeIncident(primary domain.Service, dependents []domain.Service) domain.Incident {
	now := g.clock.Now()
	serviceIDs := make([]string, 0, len(dependents)+1)
	serviceIDs = append(serviceIDs, primary.ID)
	for _, d := range dependents {
		serviceIDs = append(serviceIDs, d.ID)
	}

	return domain.Incident{
		ID:            uuid.NewString(),
		Title:         fmt.Sprintf("Cascading failure originating at %s", primary.Name),
		Description:   fmt.Sprintf("%s went down and degraded %d dependent services", primary.Name, len(dependents)),
		Status:        domain.IncidentStatusOpen,
		Severity:      domain.SeverityCritical,
		ServiceIDs:    serviceIDs,
		ImpactedUsers: rng.Between(g.rand, 10000, 200000),
		RevenueLoss:   float64(rng.Between(g.rand, 50, 2000)) * 1000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// ReleaseReadiness produces a release gate snapshot. Ready requires SIT and
// UAT at exactly 100, regression at 95 or better and all defects closed;
// anything short attaches blockers and risks from the fixed pools.
func (g *Generator) ReleaseReadiness() domain.ReleaseReadiness {
	pct := func(loBias int) int {
		if rng.Chance(g.rand, 0.4) {
			return 100
		}
		return rng.Between(g.rand, loBias, 99)
	}

	snapshot := domain.ReleaseReadiness{
		SITProgress:        pct(85),
		UATProgress:        pct(80),
		RegressionProgress: rng.Between(g.rand, 85, 100),
		DefectsClosed:      pct(90),
		GeneratedAt:        g.clock.Now(),
	}

	snapshot.Ready = snapshot.SITProgress == 100 &&
		snapshot.UATProgress == 100 &&
		snapshot.RegressionProgress >= 95 &&
		snapshot.DefectsClosed == 100

	if !snapshot.Ready {
		for i, n := 0, rng.Between(g.rand, 1, 3); i < n; i++ {
			snapshot.Blockers = appendUnique(snapshot.Blockers, rng.Pick(g.rand, releaseBlockers))
		}
		for i, n := 0, rng.Between(g.rand, 0, 2); i < n; i++ {
			snapshot.Risks = appendUnique(snapshot.Risks, rng.Pick(g.rand, releaseRisks))
		}
	}

	return snapshot
}

// Insight produces a canned insight referencing up to three services.
func (g *Generator) Insight(services []domain.Service) (domain.Insight, error) {
	if len(services) == 0 {
		return domain.Insight{}, ErrEmptyFleet
	}

	tmpl := insightTemplates[rng.IntN(g.rand, len(insightTemplates))]
	ids := make(map[string]struct{})
	for len(ids) < 3 && len(ids) < len(services) {
		ids[services[rng.IntN(g.rand, len(services))].ID] = struct{}{}
	}
	serviceIDs := make([]string, 0, len(ids))
	for id := range ids {
		serviceIDs = append(serviceIDs, id)
	}

	impact := domain.InsightImpactMedium
	if rng.Chance(g.rand, 0.3) {
		impact = domain.InsightImpactHigh
	}

	return domain.Insight{
		ID:         uuid.NewString(),
		Kind:       tmpl.kind,
		Title:      tmpl.title,
		Summary:    tmpl.summary,
		Confidence: rng.Between(g.rand, 60, 99),
		Impact:     impact,
		ServiceIDs: serviceIDs,
		CreatedAt:  g.clock.Now(),
	}, nil
}

func (g *Generator) logEntry(svc domain.Service, errorRate float64, ts time.Time) domain.LogEntry {
	level := domain.LogLevelInfo
	message := rng.Pick(g.rand, infoMessages)
	statusCode := 200

	switch {
	case rng.Chance(g.rand, errorRate):
		level = domain.LogLevelError
		message = rng.Pick(g.rand, errorMessages)
		statusCode = rng.Pick(g.rand, []int{500, 502, 503, 504})
	case rng.Chance(g.rand, 0.1):
		level = domain.LogLevelWarn
		message = rng.Pick(g.rand, warnMessages)
	case rng.Chance(g.rand, 0.15):
		level = domain.LogLevelDebug
		message = rng.Pick(g.rand, debugMessages)
	}

	return domain.LogEntry{
		ID:          uuid.NewString(),
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Level:       level,
		Message:     message,
		TraceID:     fmt.Sprintf("trace-%08x", rng.IntN(g.rand, 1<<31)),
		SessionID:   fmt.Sprintf("sess-%d", rng.Between(g.rand, 1, 500)),
		UserID:      fmt.Sprintf("user-%d", rng.Between(g.rand, 1, 2000)),
		DurationMs:  rng.Between(g.rand, 5, svc.ResponseTimeMs*3+5),
		StatusCode:  statusCode,
		Timestamp:   ts,
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

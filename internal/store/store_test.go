package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/clock"
	"github.com/opsdeck/opsdeck/internal/pkg/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(maxLogs int) (*Store, *clock.Fake) {
	fake := clock.NewFake(testStart)
	return New(fake, rng.New(1), maxLogs), fake
}

func seedServices(s *Store, services ...domain.Service) {
	s.Seed(services, nil, nil, nil)
}

func svc(id string, deps ...string) domain.Service {
	return domain.Service{
		ID:           id,
		Name:         id,
		Type:         domain.ServiceTypeInternal,
		Status:       domain.ServiceStatusHealthy,
		Health:       95,
		Dependencies: deps,
	}
}

func TestSeed_TruncatesLogsToBuffer(t *testing.T) {
	s, _ := newTestStore(3)

	logs := make([]domain.LogEntry, 5)
	for i := range logs {
		logs[i] = domain.LogEntry{ID: fmt.Sprintf("log-%d", i)}
	}
	s.Seed(nil, logs, nil, nil)

	got := s.Logs()
	require.Len(t, got, 3)
	assert.Equal(t, "log-2", got[0].ID)
	assert.Equal(t, "log-4", got[2].ID)
}

func TestAddLog_EvictsOldest(t *testing.T) {
	s, _ := newTestStore(2)

	s.AddLog(domain.LogEntry{ID: "a"})
	s.AddLog(domain.LogEntry{ID: "b"})
	s.AddLog(domain.LogEntry{ID: "c"})

	got := s.Logs()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
}

func TestUpdateService_MergesPatch(t *testing.T) {
	s, fake := newTestStore(10)
	seedServices(s, svc("api"))

	fake.Advance(time.Minute)

	degraded := domain.ServiceStatusDegraded
	health := 40
	owner := "platform"
	ok := s.UpdateService("api", domain.ServicePatch{Status: &degraded, Health: &health, Owner: &owner})
	require.True(t, ok)

	got, found := s.Service("api")
	require.True(t, found)
	assert.Equal(t, domain.ServiceStatusDegraded, got.Status)
	assert.Equal(t, 40, got.Health)
	assert.Equal(t, "platform", got.Owner)
	assert.Equal(t, "api", got.Name, "unpatched fields untouched")
	assert.Equal(t, testStart.Add(time.Minute), got.UpdatedAt)
}

func TestUpdateService_UnknownIDIsSilentNoOp(t *testing.T) {
	s, _ := newTestStore(10)
	seedServices(s, svc("api"))

	health := 10
	assert.False(t, s.UpdateService("ghost", domain.ServicePatch{Health: &health}))

	got, _ := s.Service("api")
	assert.Equal(t, 95, got.Health)
}

func TestServices_SnapshotIsIsolated(t *testing.T) {
	s, _ := newTestStore(10)
	seedServices(s, svc("api", "db"))

	out := s.Services()
	require.Len(t, out, 1)
	out[0].Health = 1
	out[0].Dependencies[0] = "mutated"

	got, _ := s.Service("api")
	assert.Equal(t, 95, got.Health)
	assert.Equal(t, []string{"db"}, got.Dependencies)
}

func TestServices_PreservesCreationOrder(t *testing.T) {
	s, _ := newTestStore(10)
	seedServices(s, svc("c"), svc("a"), svc("b"))

	out := s.Services()
	require.Len(t, out, 3)
	assert.Equal(t, "c", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
	assert.Equal(t, "b", out[2].ID)
}

func TestDependents(t *testing.T) {
	s, _ := newTestStore(10)
	seedServices(s,
		svc("db"),
		svc("api", "db"),
		svc("worker", "db", "api"),
		svc("lonely"),
	)

	deps := s.Dependents("db")
	require.Len(t, deps, 2)
	ids := []string{deps[0].ID, deps[1].ID}
	assert.Contains(t, ids, "api")
	assert.Contains(t, ids, "worker")

	assert.Empty(t, s.Dependents("lonely"))
}

func TestAcknowledgeAlert(t *testing.T) {
	s, fake := newTestStore(10)

	s.AddAlert(domain.Alert{ID: "al-1", Severity: domain.SeverityMedium})
	fake.Advance(time.Minute)

	require.True(t, s.AcknowledgeAlert("al-1", "alice"))

	alerts := s.Alerts()
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Acknowledged)
	assert.Equal(t, "alice", alerts[0].AcknowledgedBy)
	require.NotNil(t, alerts[0].AcknowledgedAt)
	assert.Equal(t, testStart.Add(time.Minute), *alerts[0].AcknowledgedAt)

	assert.False(t, s.AcknowledgeAlert("ghost", "alice"))
}

func TestDismissAlert(t *testing.T) {
	s, _ := newTestStore(10)

	s.AddAlert(domain.Alert{ID: "al-1"})
	s.AddAlert(domain.Alert{ID: "al-2"})

	require.True(t, s.DismissAlert("al-1"))
	alerts := s.Alerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "al-2", alerts[0].ID)

	assert.False(t, s.DismissAlert("al-1"), "already dismissed")
}

func TestSweepAlerts(t *testing.T) {
	s, _ := newTestStore(10)
	old := testStart.Add(-10 * time.Minute)
	fresh := testStart.Add(-1 * time.Minute)

	s.AddAlert(domain.Alert{ID: "old-low", Severity: domain.SeverityLow, Timestamp: old})
	s.AddAlert(domain.Alert{ID: "old-low-acked", Severity: domain.SeverityLow, Timestamp: old, Acknowledged: true})
	s.AddAlert(domain.Alert{ID: "old-high", Severity: domain.SeverityHigh, Timestamp: old})
	s.AddAlert(domain.Alert{ID: "fresh-low", Severity: domain.SeverityLow, Timestamp: fresh})

	removed := s.SweepAlerts(domain.SeverityLow, testStart.Add(-5*time.Minute))
	assert.Equal(t, 1, removed)

	var ids []string
	for _, a := range s.Alerts() {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{"old-low-acked", "old-high", "fresh-low"}, ids)
}

func TestResolveAllIncidents(t *testing.T) {
	s, fake := newTestStore(10)
	down := svc("db")
	down.Status = domain.ServiceStatusDown
	down.Health = 0
	seedServices(s, down, svc("api"))

	s.AddIncident(domain.Incident{ID: "inc-1", Status: domain.IncidentStatusOpen})
	s.AddIncident(domain.Incident{ID: "inc-2", Status: domain.IncidentStatusInvestigating})
	resolvedAt := testStart.Add(-time.Hour)
	s.AddIncident(domain.Incident{ID: "inc-3", Status: domain.IncidentStatusResolved, ResolvedAt: &resolvedAt})

	fake.Advance(time.Minute)
	s.ResolveAllIncidents()

	for _, inc := range s.Incidents() {
		assert.Equal(t, domain.IncidentStatusResolved, inc.Status)
		require.NotNil(t, inc.ResolvedAt)
	}
	// Already-resolved incidents keep their original resolution time.
	for _, inc := range s.Incidents() {
		if inc.ID == "inc-3" {
			assert.Equal(t, resolvedAt, *inc.ResolvedAt)
		}
	}

	for _, svc := range s.Services() {
		assert.Equal(t, domain.ServiceStatusHealthy, svc.Status)
		assert.GreaterOrEqual(t, svc.Health, 95)
		assert.LessOrEqual(t, svc.Health, 100)
	}
}

func TestAddSample_BoundedWindow(t *testing.T) {
	s, _ := newTestStore(10)

	for i := 0; i < samplesPerService+20; i++ {
		s.AddSample(domain.PerformanceSample{
			ServiceID:      "api",
			ResponseTimeMs: i,
			Timestamp:      testStart.Add(time.Duration(i) * time.Second),
		})
	}

	all := s.Samples("api", 0)
	require.Len(t, all, samplesPerService)
	assert.Equal(t, 20, all[0].ResponseTimeMs, "oldest samples evicted")

	last5 := s.Samples("api", 5)
	require.Len(t, last5, 5)
	assert.Equal(t, samplesPerService+19, last5[4].ResponseTimeMs)
}

func TestSubscribe_NotifiesListeners(t *testing.T) {
	s, _ := newTestStore(10)
	seedServices(s, svc("api"))

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	s.AddLog(domain.LogEntry{ID: "log-1"})
	s.AddAlert(domain.Alert{ID: "al-1"})
	s.AddIncident(domain.Incident{ID: "inc-1"})
	s.AddInsight(domain.Insight{ID: "in-1"})
	health := 50
	s.UpdateService("api", domain.ServicePatch{Health: &health})

	require.Len(t, events, 5)
	assert.Equal(t, EventLog, events[0].Kind)
	assert.Equal(t, EventAlert, events[1].Kind)
	assert.Equal(t, EventIncident, events[2].Kind)
	assert.Equal(t, EventInsight, events[3].Kind)
	assert.Equal(t, EventService, events[4].Kind)

	updated, ok := events[4].Data.(domain.Service)
	require.True(t, ok)
	assert.Equal(t, 50, updated.Health)
}

package generator

import (
	"strings"
	"testing"
	"time"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/clock"
	"github.com/opsdeck/opsdeck/internal/pkg/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestGenerator(src rng.Source) *Generator {
	return New(src, clock.NewFake(testStart))
}

func TestFleet_SizeAndIDs(t *testing.T) {
	g := newTestGenerator(rng.New(1))

	fleet := g.Fleet(150)
	require.Len(t, fleet, 150)

	assert.Equal(t, "auth-service-us-east-1", fleet[0].ID)
	assert.Equal(t, "Auth Service (us-east 1)", fleet[0].Name)

	seen := make(map[string]struct{}, len(fleet))
	for _, svc := range fleet {
		_, dup := seen[svc.ID]
		assert.False(t, dup, "duplicate id %s", svc.ID)
		seen[svc.ID] = struct{}{}
	}
}

func TestFleet_FieldInvariants(t *testing.T) {
	g := newTestGenerator(rng.New(7))

	fleet := g.Fleet(150)
	for _, svc := range fleet {
		assert.True(t, svc.Status.IsValid(), "status %q", svc.Status)
		assert.GreaterOrEqual(t, svc.Health, 85)
		assert.LessOrEqual(t, svc.Health, 100)
		assert.GreaterOrEqual(t, svc.ResponseTimeMs, 40)
		assert.LessOrEqual(t, svc.ResponseTimeMs, 500)
		assert.NotEmpty(t, svc.Owner)
		assert.NotEmpty(t, svc.Category)
		assert.Equal(t, testStart, svc.CreatedAt)
	}
}

func TestFleet_Dependencies(t *testing.T) {
	g := newTestGenerator(rng.New(3))

	fleet := g.Fleet(150)
	ids := make(map[string]struct{}, len(fleet))
	for _, svc := range fleet {
		ids[svc.ID] = struct{}{}
	}

	for _, svc := range fleet {
		assert.LessOrEqual(t, len(svc.Dependencies), maxDependencies)
		seen := make(map[string]struct{})
		for _, dep := range svc.Dependencies {
			assert.NotEqual(t, svc.ID, dep, "self-loop on %s", svc.ID)
			_, exists := ids[dep]
			assert.True(t, exists, "dangling dependency %s", dep)
			_, dup := seen[dep]
			assert.False(t, dup, "duplicate dependency %s", dep)
			seen[dep] = struct{}{}
		}
	}
}

func TestFleet_PaymentServicesDependOnAuthOrCore(t *testing.T) {
	g := newTestGenerator(rng.New(11))
	fleet := g.Fleet(150)

	byID := make(map[string]domain.Service, len(fleet))
	for _, svc := range fleet {
		byID[svc.ID] = svc
	}

	for _, svc := range fleet {
		lower := strings.ToLower(svc.ID)
		if !strings.Contains(lower, "payment") && !strings.Contains(lower, "checkout") && !strings.Contains(lower, "billing") {
			continue
		}
		found := false
		for _, dep := range svc.Dependencies {
			target := byID[dep]
			if strings.Contains(dep, "auth") || strings.Contains(dep, "core") || target.Category == "security" {
				found = true
			}
		}
		assert.True(t, found, "%s lacks an auth/core/security dependency", svc.ID)
	}
}

func TestFleet_StatusAndHealthAreIndependentDraws(t *testing.T) {
	// Status draws down (>= 0.95) while health draws the top of its band, so
	// a down service can carry near-perfect health.
	g := newTestGenerator(rng.NewSeq(0.99, 0.999, 0.5, 0.5))

	fleet := g.Fleet(1)
	require.Len(t, fleet, 1)
	assert.Equal(t, domain.ServiceStatusDown, fleet[0].Status)
	assert.Equal(t, 100, fleet[0].Health)
}

func TestBackfill_EmptyInputs(t *testing.T) {
	g := newTestGenerator(rng.New(1))

	logs, incidents := g.Backfill(nil, 7)
	assert.Nil(t, logs)
	assert.Nil(t, incidents)

	logs, incidents = g.Backfill(g.Fleet(5), 0)
	assert.Nil(t, logs)
	assert.Nil(t, incidents)
}

func TestBackfill_WindowAndResolution(t *testing.T) {
	g := newTestGenerator(rng.New(5))
	fleet := g.Fleet(10)

	logs, incidents := g.Backfill(fleet, 1)
	require.NotEmpty(t, logs)

	windowStart := testStart.Add(-24 * time.Hour)
	for _, entry := range logs {
		assert.False(t, entry.Timestamp.Before(windowStart))
		assert.False(t, entry.Timestamp.After(testStart))
		assert.True(t, entry.Level.IsValid())
	}

	for _, inc := range incidents {
		if testStart.Sub(inc.CreatedAt) > time.Hour {
			assert.Equal(t, domain.IncidentStatusResolved, inc.Status)
			require.NotNil(t, inc.ResolvedAt)
			assert.False(t, inc.ResolvedAt.After(testStart))
		}
	}
}

func TestDefects(t *testing.T) {
	g := newTestGenerator(rng.New(2))
	fleet := g.Fleet(10)

	defects := g.Defects(fleet, 200)
	require.Len(t, defects, 200)

	assert.Equal(t, "DEF-0001", defects[0].ID)
	assert.Equal(t, "DEF-0200", defects[199].ID)

	for _, d := range defects {
		assert.NotEmpty(t, d.Title)
		assert.NotEmpty(t, d.Solution)
		assert.NotEmpty(t, d.ServiceIDs)
		assert.False(t, d.UpdatedAt.Before(d.CreatedAt))
	}

	assert.Nil(t, g.Defects(nil, 10))
}

func TestRealtimeLog(t *testing.T) {
	g := newTestGenerator(rng.New(4))
	fleet := g.Fleet(5)

	entry, err := g.RealtimeLog(fleet)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.NotEmpty(t, entry.ServiceID)
	assert.Equal(t, testStart, entry.Timestamp)

	_, err = g.RealtimeLog(nil)
	assert.ErrorIs(t, err, ErrEmptyFleet)
}

func TestRealtimeMetric_JitterBounds(t *testing.T) {
	g := newTestGenerator(rng.New(8))
	fleet := g.Fleet(5)
	base := fleet[0]

	for i := 0; i < 200; i++ {
		sample, err := g.RealtimeMetric(fleet, base.ID)
		require.NoError(t, err)
		assert.Equal(t, base.ID, sample.ServiceID)
		assert.GreaterOrEqual(t, sample.ResponseTimeMs, base.ResponseTimeMs-base.ResponseTimeMs/4)
		assert.LessOrEqual(t, sample.ResponseTimeMs, base.ResponseTimeMs+base.ResponseTimeMs/4)
	}
}

func TestRealtimeMetric_UnknownService(t *testing.T) {
	g := newTestGenerator(rng.New(1))

	_, err := g.RealtimeMetric(g.Fleet(3), "no-such-service")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestPickInternal(t *testing.T) {
	g := newTestGenerator(rng.New(1))

	external := domain.Service{ID: "ext", Type: domain.ServiceTypeExternal}
	internal := domain.Service{ID: "int", Type: domain.ServiceTypeInternal}

	got, ok := g.PickInternal([]domain.Service{external, internal})
	require.True(t, ok)
	assert.Equal(t, "int", got.ID)

	_, ok = g.PickInternal([]domain.Service{external})
	assert.False(t, ok)
}

func TestCascadeIncident(t *testing.T) {
	g := newTestGenerator(rng.New(1))

	primary := domain.Service{ID: "db", Name: "DB"}
	dependents := []domain.Service{{ID: "api"}, {ID: "worker"}}

	inc := g.CascadeIncident(primary, dependents)
	assert.Equal(t, domain.SeverityCritical, inc.Severity)
	assert.Equal(t, domain.IncidentStatusOpen, inc.Status)
	assert.Equal(t, []string{"db", "api", "worker"}, inc.ServiceIDs)
	assert.Contains(t, inc.Title, "DB")
}

func TestReleaseReadiness_ReadyRule(t *testing.T) {
	// Draw order: SIT chance, UAT chance, regression, defects chance, then
	// blocker/risk draws when not ready.
	t.Run("all gates pass", func(t *testing.T) {
		g := newTestGenerator(rng.NewSeq(0.0, 0.0, 0.99, 0.0))

		snap := g.ReleaseReadiness()
		assert.Equal(t, 100, snap.SITProgress)
		assert.Equal(t, 100, snap.UATProgress)
		assert.GreaterOrEqual(t, snap.RegressionProgress, 95)
		assert.Equal(t, 100, snap.DefectsClosed)
		assert.True(t, snap.Ready)
		assert.Empty(t, snap.Blockers)
		assert.Empty(t, snap.Risks)
	})

	t.Run("regression below threshold blocks", func(t *testing.T) {
		g := newTestGenerator(rng.NewSeq(0.0, 0.0, 0.6, 0.0))

		snap := g.ReleaseReadiness()
		assert.Equal(t, 100, snap.SITProgress)
		assert.Equal(t, 100, snap.UATProgress)
		assert.Less(t, snap.RegressionProgress, 95)
		assert.False(t, snap.Ready)
		assert.NotEmpty(t, snap.Blockers)
	})

	t.Run("ready matches the rule over random snapshots", func(t *testing.T) {
		g := newTestGenerator(rng.New(9))
		for i := 0; i < 100; i++ {
			snap := g.ReleaseReadiness()
			want := snap.SITProgress == 100 &&
				snap.UATProgress == 100 &&
				snap.RegressionProgress >= 95 &&
				snap.DefectsClosed == 100
			assert.Equal(t, want, snap.Ready)
		}
	})
}

func TestInsight(t *testing.T) {
	g := newTestGenerator(rng.New(6))
	fleet := g.Fleet(10)

	insight, err := g.Insight(fleet)
	require.NoError(t, err)
	assert.NotEmpty(t, insight.Title)
	assert.GreaterOrEqual(t, insight.Confidence, 60)
	assert.LessOrEqual(t, insight.Confidence, 99)
	assert.Len(t, insight.ServiceIDs, 3)

	seen := make(map[string]struct{})
	for _, id := range insight.ServiceIDs {
		_, dup := seen[id]
		assert.False(t, dup)
		seen[id] = struct{}{}
	}

	_, err = g.Insight(nil)
	assert.ErrorIs(t, err, ErrEmptyFleet)
}

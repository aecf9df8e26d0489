// Package sim implements the simulation control service: the orchestrated
// actions that combine generator output, store mutations and scheduled side
// effects (manual failures, cascades, the real-time tick work).
package sim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/generator"
	"github.com/opsdeck/opsdeck/internal/pkg/clock"
	"github.com/opsdeck/opsdeck/internal/pkg/rng"
	"github.com/opsdeck/opsdeck/internal/store"

	"github.com/google/uuid"
)

// Simulator wires the generator to the store and owns the timed side effects
// of failure simulation.
type Simulator struct {
	store        *store.Store
	gen          *generator.Generator
	clock        clock.Clock
	rand         rng.Source
	cascadeDelay time.Duration
}

// New creates a simulator.
func New(st *store.Store, gen *generator.Generator, clk clock.Clock, src rng.Source, cascadeDelay time.Duration) *Simulator {
	return &Simulator{
		store:        st,
		gen:          gen,
		clock:        clk,
		rand:         src,
		cascadeDelay: cascadeDelay,
	}
}

// Seed builds the initial fleet, backfills history and loads the store.
func (s *Simulator) Seed(fleetSize, backfillDays, defectCount int) {
	fleet := s.gen.Fleet(fleetSize)
	logs, incidents := s.gen.Backfill(fleet, backfillDays)
	defects := s.gen.Defects(fleet, defectCount)
	s.store.Seed(fleet, logs, incidents, defects)

	slog.Info("seeded simulation",
		"services", len(fleet),
		"logs", len(logs),
		"incidents", len(incidents),
		"defects", len(defects),
	)
}

// TriggerServiceFailure marks the named service down and opens a high
// severity incident for it.
func (s *Simulator) TriggerServiceFailure(id string) error {
	svc, ok := s.store.Service(id)
	if !ok {
		return fmt.Errorf("trigger failure for %q: %w", id, generator.ErrServiceNotFound)
	}

	down := domain.ServiceStatusDown
	zero := 0
	s.store.UpdateService(id, domain.ServicePatch{Status: &down, Health: &zero})

	now := s.clock.Now()
	s.store.AddIncident(domain.Incident{
		ID:            uuid.NewString(),
		Title:         fmt.Sprintf("%s is down", svc.Name),
		Description:   "Failure triggered manually from the dashboard",
		Status:        domain.IncidentStatusOpen,
		Severity:      domain.SeverityHigh,
		ServiceIDs:    []string{id},
		ImpactedUsers: rng.Between(s.rand, 1000, 50000),
		RevenueLoss:   float64(rng.Between(s.rand, 10, 500)) * 1000,
		CreatedAt:     now,
		UpdatedAt:     now,
	})

	return nil
}

// CascadeResult describes a triggered failure cascade. Dependents are listed
// immediately but their degradation lands only after the cascade delay.
type CascadeResult struct {
	Primary      domain.Service  `json:"primary"`
	DependentIDs []string        `json:"dependent_ids"`
	Incident     domain.Incident `json:"incident"`
}

// TriggerCascadeFailure downs a random internal service immediately and
// schedules the degradation of its direct dependents after the configured
// delay. The delayed update is fire-and-forget: callers must not assume
// dependents have changed when this returns.
func (s *Simulator) TriggerCascadeFailure() (CascadeResult, error) {
	primary, ok := s.gen.PickInternal(s.store.Services())
	if !ok {
		return CascadeResult{}, generator.ErrEmptyFleet
	}

	down := domain.ServiceStatusDown
	zero := 0
	s.store.UpdateService(primary.ID, domain.ServicePatch{Status: &down, Health: &zero})

	dependents := s.store.Dependents(primary.ID)
	dependentIDs := make([]string, 0, len(dependents))
	for _, d := range dependents {
		dependentIDs = append(dependentIDs, d.ID)
	}

	s.clock.Schedule(s.cascadeDelay, func() {
		degraded := domain.ServiceStatusDegraded
		for _, id := range dependentIDs {
			health := rng.Between(s.rand, 30, 60)
			s.store.UpdateService(id, domain.ServicePatch{Status: &degraded, Health: &health})
		}
		slog.Info("cascade propagated", "primary", primary.ID, "dependents", len(dependentIDs))
	})

	incident := s.gen.CascadeIncident(primary, dependents)
	s.store.AddIncident(incident)

	primary.Status = down
	primary.Health = 0
	return CascadeResult{Primary: primary, DependentIDs: dependentIDs, Incident: incident}, nil
}

// ResolveAll resolves every active incident and restores the fleet.
func (s *Simulator) ResolveAll() {
	s.store.ResolveAllIncidents()
	slog.Info("resolved all incidents")
}

// RealtimeMetric generates and records one performance sample for a service.
func (s *Simulator) RealtimeMetric(serviceID string) (domain.PerformanceSample, error) {
	sample, err := s.gen.RealtimeMetric(s.store.Services(), serviceID)
	if err != nil {
		return domain.PerformanceSample{}, err
	}
	s.store.AddSample(sample)
	return sample, nil
}

// ReleaseReadiness produces a fresh release gate snapshot.
func (s *Simulator) ReleaseReadiness() domain.ReleaseReadiness {
	return s.gen.ReleaseReadiness()
}

// Tick performs one unit of synthetic real-time activity: a log line,
// error-driven degradation, occasional health jitter and the rare insight.
func (s *Simulator) Tick() {
	services := s.store.Services()
	if len(services) == 0 {
		return
	}

	entry, err := s.gen.RealtimeLog(services)
	if err != nil {
		return
	}
	s.store.AddLog(entry)

	if entry.Level == domain.LogLevelError {
		if svc, ok := s.store.Service(entry.ServiceID); ok && svc.Status == domain.ServiceStatusHealthy {
			health := svc.Health - 10
			if health < 50 {
				health = 50
			}
			degraded := domain.ServiceStatusDegraded
			s.store.UpdateService(svc.ID, domain.ServicePatch{Status: &degraded, Health: &health})

			s.store.AddAlert(domain.Alert{
				ID:          uuid.NewString(),
				Type:        domain.AlertTypeError,
				Severity:    domain.SeverityMedium,
				ServiceID:   svc.ID,
				Title:       fmt.Sprintf("Errors on %s", svc.Name),
				Message:     entry.Message,
				AutoResolve: true,
				Timestamp:   s.clock.Now(),
			})
		}
	}

	if rng.Chance(s.rand, 0.1) {
		svc := services[rng.IntN(s.rand, len(services))]
		health := svc.Health + rng.Between(s.rand, -5, 5)
		if health < 0 {
			health = 0
		}
		if health > 100 {
			health = 100
		}
		status := domain.StatusForHealth(health)
		s.store.UpdateService(svc.ID, domain.ServicePatch{Status: &status, Health: &health})
	}

	if rng.Chance(s.rand, 0.01) {
		if insight, err := s.gen.Insight(services); err == nil {
			s.store.AddInsight(insight)
		}
	}
}

// Package store owns every mutable collection of the simulated system. All
// mutation goes through explicit actions under one mutex; readers always get
// deep copies, never live references.
package store

import (
	"time"

	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/clock"
	"github.com/opsdeck/opsdeck/internal/pkg/metrics"
	"github.com/opsdeck/opsdeck/internal/pkg/rng"

	"sync"
)

const samplesPerService = 360

// EventKind classifies a store change notification.
type EventKind string

// Event kinds pushed to stream subscribers.
const (
	EventLog      EventKind = "log"
	EventAlert    EventKind = "alert"
	EventIncident EventKind = "incident"
	EventInsight  EventKind = "insight"
	EventService  EventKind = "service"
)

// Event is a store change notification carrying a copy of the changed value.
type Event struct {
	Kind EventKind `json:"kind"`
	Data any       `json:"data"`
}

// Listener receives store events. Listeners are invoked outside the store
// lock and must not block for long.
type Listener func(Event)

// Store is the single mutable resource of the simulator.
type Store struct {
	mu        sync.Mutex
	clock     clock.Clock
	rand      rng.Source
	maxLogs   int
	services  map[string]*domain.Service
	order     []string
	logs      []domain.LogEntry
	incidents []domain.Incident
	alerts    []domain.Alert
	insights  []domain.Insight
	defects   []domain.Defect
	samples   map[string][]domain.PerformanceSample

	listenersMu sync.RWMutex
	listeners   []Listener
}

// New creates an empty store.
func New(clk clock.Clock, src rng.Source, maxLogs int) *Store {
	return &Store{
		clock:    clk,
		rand:     src,
		maxLogs:  maxLogs,
		services: make(map[string]*domain.Service),
		samples:  make(map[string][]domain.PerformanceSample),
	}
}

// Subscribe registers a listener for store events.
func (s *Store) Subscribe(l Listener) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(ev Event) {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()
	for _, l := range s.listeners {
		l(ev)
	}
}

// Seed loads the initial fleet and history. Intended to be called once at
// startup, before any timers run.
func (s *Store) Seed(services []domain.Service, logs []domain.LogEntry, incidents []domain.Incident, defects []domain.Defect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range services {
		svc := cloneService(services[i])
		s.services[svc.ID] = &svc
		s.order = append(s.order, svc.ID)
	}
	if len(logs) > s.maxLogs {
		logs = logs[len(logs)-s.maxLogs:]
	}
	s.logs = append([]domain.LogEntry(nil), logs...)
	s.incidents = append([]domain.Incident(nil), incidents...)
	s.defects = append([]domain.Defect(nil), defects...)

	s.updateGaugesLocked()
}

// AddLog appends a log entry, evicting the oldest entry past the buffer cap.
func (s *Store) AddLog(entry domain.LogEntry) {
	s.mu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > s.maxLogs {
		s.logs = s.logs[len(s.logs)-s.maxLogs:]
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventLog, Data: entry})
}

// AddIncident records a new incident.
func (s *Store) AddIncident(inc domain.Incident) {
	s.mu.Lock()
	s.incidents = append(s.incidents, cloneIncident(inc))
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventIncident, Data: inc})
}

// AddAlert records a new alert.
func (s *Store) AddAlert(alert domain.Alert) {
	s.mu.Lock()
	s.alerts = append(s.alerts, alert)
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventAlert, Data: alert})
}

// AcknowledgeAlert marks an alert acknowledged. Unknown ids are counted and
// skipped.
func (s *Store) AcknowledgeAlert(id, by string) bool {
	s.mu.Lock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			now := s.clock.Now()
			s.alerts[i].Acknowledged = true
			s.alerts[i].AcknowledgedBy = by
			s.alerts[i].AcknowledgedAt = &now
			alert := s.alerts[i]
			s.mu.Unlock()
			s.notify(Event{Kind: EventAlert, Data: alert})
			return true
		}
	}
	s.mu.Unlock()

	metrics.StoreSkippedOps.WithLabelValues("acknowledge_alert").Inc()
	return false
}

// DismissAlert removes an alert. Unknown ids are counted and skipped.
func (s *Store) DismissAlert(id string) bool {
	s.mu.Lock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			s.updateGaugesLocked()
			s.mu.Unlock()
			return true
		}
	}
	s.mu.Unlock()

	metrics.StoreSkippedOps.WithLabelValues("dismiss_alert").Inc()
	return false
}

// SweepAlerts removes every unacknowledged alert matching severity created
// before the cutoff and returns how many were dismissed.
func (s *Store) SweepAlerts(severity domain.Severity, cutoff time.Time) int {
	s.mu.Lock()
	kept := s.alerts[:0]
	removed := 0
	for _, a := range s.alerts {
		if a.Severity == severity && !a.Acknowledged && a.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.alerts = kept
	s.updateGaugesLocked()
	s.mu.Unlock()

	return removed
}

// AddInsight appends to the write-once insight list.
func (s *Store) AddInsight(in domain.Insight) {
	s.mu.Lock()
	s.insights = append(s.insights, cloneInsight(in))
	s.mu.Unlock()

	s.notify(Event{Kind: EventInsight, Data: in})
}

// AddSample records a performance sample in the per-service bounded window.
func (s *Store) AddSample(sample domain.PerformanceSample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := append(s.samples[sample.ServiceID], sample)
	if len(window) > samplesPerService {
		window = window[len(window)-samplesPerService:]
	}
	s.samples[sample.ServiceID] = window
}

// UpdateService shallow-merges the patch into the named service. Unknown ids
// are counted and skipped.
func (s *Store) UpdateService(id string, patch domain.ServicePatch) bool {
	s.mu.Lock()
	svc, ok := s.services[id]
	if !ok {
		s.mu.Unlock()
		metrics.StoreSkippedOps.WithLabelValues("update_service").Inc()
		return false
	}

	if patch.Name != nil {
		svc.Name = *patch.Name
	}
	if patch.Status != nil {
		svc.Status = *patch.Status
	}
	if patch.Health != nil {
		svc.Health = *patch.Health
	}
	if patch.Owner != nil {
		svc.Owner = *patch.Owner
	}
	if patch.ResponseTimeMs != nil {
		svc.ResponseTimeMs = *patch.ResponseTimeMs
	}
	svc.UpdatedAt = s.clock.Now()

	updated := cloneService(*svc)
	s.updateGaugesLocked()
	s.mu.Unlock()

	s.notify(Event{Kind: EventService, Data: updated})
	return true
}

// ResolveAllIncidents transitions every active incident to resolved and
// restores every service to healthy with health in [95,100].
func (s *Store) ResolveAllIncidents() {
	s.mu.Lock()
	now := s.clock.Now()
	for i := range s.incidents {
		if s.incidents[i].Status.IsActive() {
			s.incidents[i].Status = domain.IncidentStatusResolved
			s.incidents[i].UpdatedAt = now
			resolvedAt := now
			s.incidents[i].ResolvedAt = &resolvedAt
		}
	}
	for _, id := range s.order {
		svc := s.services[id]
		svc.Status = domain.ServiceStatusHealthy
		svc.Health = rng.Between(s.rand, 95, 100)
		svc.UpdatedAt = now
	}
	s.updateGaugesLocked()
	s.mu.Unlock()
}

// Service returns a copy of one service.
func (s *Store) Service(id string) (domain.Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.services[id]
	if !ok {
		return domain.Service{}, false
	}
	return cloneService(*svc), true
}

// Services returns the fleet snapshot in creation order.
func (s *Store) Services() []domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Service, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneService(*s.services[id]))
	}
	return out
}

// Dependents returns every service whose dependency set includes id.
func (s *Store) Dependents(id string) []domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Service
	for _, sid := range s.order {
		if s.services[sid].DependsOn(id) {
			out = append(out, cloneService(*s.services[sid]))
		}
	}
	return out
}

// Logs returns the log window snapshot, oldest first.
func (s *Store) Logs() []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LogEntry(nil), s.logs...)
}

// Incidents returns the incident snapshot.
func (s *Store) Incidents() []domain.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Incident, len(s.incidents))
	for i := range s.incidents {
		out[i] = cloneIncident(s.incidents[i])
	}
	return out
}

// Alerts returns the alert snapshot in arrival order.
func (s *Store) Alerts() []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Alert(nil), s.alerts...)
}

// Insights returns the insight snapshot.
func (s *Store) Insights() []domain.Insight {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Insight, len(s.insights))
	for i := range s.insights {
		out[i] = cloneInsight(s.insights[i])
	}
	return out
}

// Defects returns the defect snapshot.
func (s *Store) Defects() []domain.Defect {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Defect, len(s.defects))
	for i := range s.defects {
		out[i] = s.defects[i]
		out[i].ServiceIDs = append([]string(nil), s.defects[i].ServiceIDs...)
	}
	return out
}

// Samples returns up to n most recent performance samples for a service.
func (s *Store) Samples(serviceID string, n int) []domain.PerformanceSample {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.samples[serviceID]
	if n <= 0 || n > len(window) {
		n = len(window)
	}
	return append([]domain.PerformanceSample(nil), window[len(window)-n:]...)
}

func (s *Store) updateGaugesLocked() {
	counts := map[domain.ServiceStatus]int{}
	for _, id := range s.order {
		counts[s.services[id].Status]++
	}
	for _, st := range []domain.ServiceStatus{domain.ServiceStatusHealthy, domain.ServiceStatusDegraded, domain.ServiceStatusDown} {
		metrics.ServicesByStatus.WithLabelValues(string(st)).Set(float64(counts[st]))
	}

	active := 0
	for i := range s.incidents {
		if s.incidents[i].Status.IsActive() {
			active++
		}
	}
	metrics.ActiveIncidents.Set(float64(active))
	metrics.ActiveAlerts.Set(float64(len(s.alerts)))
}

func cloneService(s domain.Service) domain.Service {
	s.Dependencies = append([]string(nil), s.Dependencies...)
	return s
}

func cloneIncident(i domain.Incident) domain.Incident {
	i.ServiceIDs = append([]string(nil), i.ServiceIDs...)
	if i.ResolvedAt != nil {
		t := *i.ResolvedAt
		i.ResolvedAt = &t
	}
	return i
}

func cloneInsight(i domain.Insight) domain.Insight {
	i.ServiceIDs = append([]string(nil), i.ServiceIDs...)
	return i
}

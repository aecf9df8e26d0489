// Package views computes the derived read models consumed by the dashboard.
// Everything here is a pure function over store snapshots; nothing is cached
// or stored.
package views

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/opsdeck/opsdeck/internal/domain"
)

// AlertGroup collapses alerts sharing (type, severity, service).
type AlertGroup struct {
	Type      domain.AlertType `json:"type"`
	Severity  domain.Severity  `json:"severity"`
	ServiceID string           `json:"service_id,omitempty"`
	Count     int              `json:"count"`
	Timestamp time.Time        `json:"timestamp"`
	Alerts    []domain.Alert   `json:"alerts"`
}

// GroupAlerts groups alerts by (type, severity, serviceID). Each group keeps
// its members in arrival order and the most recent member timestamp. Groups
// sort by severity rank, critical first, then timestamp descending.
func GroupAlerts(alerts []domain.Alert) []AlertGroup {
	type key struct {
		t   domain.AlertType
		sev domain.Severity
		svc string
	}

	index := make(map[key]int)
	var groups []AlertGroup

	for _, a := range alerts {
		k := key{t: a.Type, sev: a.Severity, svc: a.ServiceID}
		i, ok := index[k]
		if !ok {
			index[k] = len(groups)
			groups = append(groups, AlertGroup{
				Type:      a.Type,
				Severity:  a.Severity,
				ServiceID: a.ServiceID,
				Count:     1,
				Timestamp: a.Timestamp,
				Alerts:    []domain.Alert{a},
			})
			continue
		}

		groups[i].Count++
		groups[i].Alerts = append(groups[i].Alerts, a)
		if a.Timestamp.After(groups[i].Timestamp) {
			groups[i].Timestamp = a.Timestamp
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if ri, rj := groups[i].Severity.Rank(), groups[j].Severity.Rank(); ri != rj {
			return ri > rj
		}
		return groups[i].Timestamp.After(groups[j].Timestamp)
	})

	return groups
}

// LogFilter is a conjunctive filter over log entries. Zero-valued fields
// match everything. Search is treated as a regular expression; an invalid
// pattern degrades to a case-insensitive substring match.
type LogFilter struct {
	ServiceIDs []string
	Levels     []domain.LogLevel
	From       *time.Time
	To         *time.Time
	UserIDs    []string
	SessionIDs []string
	Search     string
}

// FilterLogs applies the filter, preserving input order.
func FilterLogs(logs []domain.LogEntry, f LogFilter) []domain.LogEntry {
	serviceSet := toSet(f.ServiceIDs)
	userSet := toSet(f.UserIDs)
	sessionSet := toSet(f.SessionIDs)

	levelSet := make(map[domain.LogLevel]struct{}, len(f.Levels))
	for _, l := range f.Levels {
		levelSet[l] = struct{}{}
	}

	match := searchMatcher(f.Search)

	out := make([]domain.LogEntry, 0, len(logs))
	for _, entry := range logs {
		if len(serviceSet) > 0 {
			if _, ok := serviceSet[entry.ServiceID]; !ok {
				continue
			}
		}
		if len(levelSet) > 0 {
			if _, ok := levelSet[entry.Level]; !ok {
				continue
			}
		}
		if f.From != nil && entry.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && entry.Timestamp.After(*f.To) {
			continue
		}
		if len(userSet) > 0 {
			if _, ok := userSet[entry.UserID]; !ok {
				continue
			}
		}
		if len(sessionSet) > 0 {
			if _, ok := sessionSet[entry.SessionID]; !ok {
				continue
			}
		}
		if match != nil && !match(entry) {
			continue
		}
		out = append(out, entry)
	}

	return out
}

// searchMatcher returns nil when there is nothing to search for.
func searchMatcher(search string) func(domain.LogEntry) bool {
	if search == "" {
		return nil
	}

	if re, err := regexp.Compile(search); err == nil {
		return func(e domain.LogEntry) bool {
			return re.MatchString(e.Message) || re.MatchString(e.ServiceName) || re.MatchString(e.TraceID)
		}
	}

	needle := strings.ToLower(search)
	return func(e domain.LogEntry) bool {
		return strings.Contains(strings.ToLower(e.Message), needle) ||
			strings.Contains(strings.ToLower(e.ServiceName), needle) ||
			strings.Contains(strings.ToLower(e.TraceID), needle)
	}
}

// HealthSummary aggregates fleet and incident state for the overview panel.
type HealthSummary struct {
	TotalServices   int     `json:"total_services"`
	Healthy         int     `json:"healthy"`
	Degraded        int     `json:"degraded"`
	Down            int     `json:"down"`
	AverageHealth   float64 `json:"average_health"`
	ActiveIncidents int     `json:"active_incidents"`
	OpenAlerts      int     `json:"open_alerts"`
}

// Summarize computes the overview aggregate.
func Summarize(services []domain.Service, incidents []domain.Incident, alerts []domain.Alert) HealthSummary {
	s := HealthSummary{TotalServices: len(services)}

	total := 0
	for _, svc := range services {
		total += svc.Health
		switch svc.Status {
		case domain.ServiceStatusHealthy:
			s.Healthy++
		case domain.ServiceStatusDegraded:
			s.Degraded++
		case domain.ServiceStatusDown:
			s.Down++
		}
	}
	if len(services) > 0 {
		s.AverageHealth = float64(total) / float64(len(services))
	}

	for _, inc := range incidents {
		if inc.Status.IsActive() {
			s.ActiveIncidents++
		}
	}
	for _, a := range alerts {
		if !a.Acknowledged {
			s.OpenAlerts++
		}
	}

	return s
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it != "" {
			set[it] = struct{}{}
		}
	}
	return set
}

package domain

import "time"

// ServiceStatus represents the operational status of a service.
type ServiceStatus string

// Service statuses.
const (
	ServiceStatusHealthy  ServiceStatus = "healthy"
	ServiceStatusDegraded ServiceStatus = "degraded"
	ServiceStatusDown     ServiceStatus = "down"
)

// IsValid checks if the service status is valid.
func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusHealthy, ServiceStatusDegraded, ServiceStatusDown:
		return true
	}
	return false
}

// ServiceType distinguishes internally operated services from external ones.
type ServiceType string

// Service types.
const (
	ServiceTypeInternal ServiceType = "internal"
	ServiceTypeExternal ServiceType = "external"
)

// Service represents a simulated monitored service.
type Service struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Type           ServiceType   `json:"type"`
	Status         ServiceStatus `json:"status"`
	Health         int           `json:"health"`
	Category       string        `json:"category"`
	Region         string        `json:"region"`
	Owner          string        `json:"owner"`
	ResponseTimeMs int           `json:"response_time_ms"`
	Dependencies   []string      `json:"dependencies"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// DependsOn reports whether the service has a direct dependency edge to id.
func (s *Service) DependsOn(id string) bool {
	for _, dep := range s.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}

// StatusForHealth maps a health score to the status banding used by the
// real-time loop: >80 healthy, >50 degraded, otherwise down.
func StatusForHealth(health int) ServiceStatus {
	switch {
	case health > 80:
		return ServiceStatusHealthy
	case health > 50:
		return ServiceStatusDegraded
	default:
		return ServiceStatusDown
	}
}

// ServicePatch carries a shallow partial update of a service. Nil fields are
// left untouched.
type ServicePatch struct {
	Name           *string        `json:"name,omitempty"`
	Status         *ServiceStatus `json:"status,omitempty"`
	Health         *int           `json:"health,omitempty"`
	Owner          *string        `json:"owner,omitempty"`
	ResponseTimeMs *int           `json:"response_time_ms,omitempty"`
}

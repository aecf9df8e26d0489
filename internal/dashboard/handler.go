// Package dashboard exposes the simulation state and control surface over
// HTTP for the monitoring dashboard UI.
package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/generator"
	"github.com/opsdeck/opsdeck/internal/pkg/httputil"
	"github.com/opsdeck/opsdeck/internal/scenario"
	"github.com/opsdeck/opsdeck/internal/sim"
	"github.com/opsdeck/opsdeck/internal/store"
	"github.com/opsdeck/opsdeck/internal/views"
)

// Pagination limits.
const (
	DefaultLogLimit    = 200
	MaxLogLimit        = 1000
	DefaultSampleCount = 60
)

// Handler handles HTTP requests for the dashboard module.
type Handler struct {
	store     *store.Store
	sim       *sim.Simulator
	engine    *scenario.Engine
	prefs     *store.PrefStore
	validator *validator.Validate
}

// NewHandler creates a new dashboard handler.
func NewHandler(st *store.Store, simulator *sim.Simulator, engine *scenario.Engine, prefs *store.PrefStore) *Handler {
	return &Handler{
		store:     st,
		sim:       simulator,
		engine:    engine,
		prefs:     prefs,
		validator: validator.New(),
	}
}

// RegisterPublicRoutes registers the read-only dashboard routes.
func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/services", h.ListServices)
	r.Get("/services/{id}", h.GetService)
	r.Get("/services/{id}/metrics", h.GetServiceMetrics)
	r.Get("/logs", h.ListLogs)
	r.Get("/incidents", h.ListIncidents)
	r.Get("/alerts", h.ListAlerts)
	r.Get("/insights", h.ListInsights)
	r.Get("/defects", h.ListDefects)
	r.Get("/release-readiness", h.GetReleaseReadiness)
	r.Get("/overview", h.GetOverview)
	r.Get("/demo/scenarios", h.ListScenarios)
	r.Get("/demo/scenario", h.GetActiveScenario)
	r.Get("/preferences", h.GetPreferences)
}

// RegisterOperatorRoutes registers the mutating routes. Callers are expected
// to wrap them in auth middleware.
func (h *Handler) RegisterOperatorRoutes(r chi.Router) {
	r.Patch("/services/{id}", h.UpdateService)
	r.Post("/incidents/resolve-all", h.ResolveAllIncidents)
	r.Post("/alerts/{id}/ack", h.AcknowledgeAlert)
	r.Delete("/alerts/{id}", h.DismissAlert)
	r.Post("/demo/failures/{id}", h.TriggerServiceFailure)
	r.Post("/demo/cascade", h.TriggerCascadeFailure)
	r.Post("/demo/scenario", h.StartScenario)
	r.Delete("/demo/scenario", h.StopScenario)
	r.Put("/preferences", h.UpdatePreferences)
}

// ListServices handles GET /services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services := h.store.Services()

	if status := r.URL.Query().Get("status"); status != "" {
		st := domain.ServiceStatus(status)
		if !st.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filtered := services[:0]
		for _, svc := range services {
			if svc.Status == st {
				filtered = append(filtered, svc)
			}
		}
		services = filtered
	}

	httputil.Success(w, http.StatusOK, services)
}

// GetService handles GET /services/{id}.
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.store.Service(chi.URLParam(r, "id"))
	if !ok {
		httputil.Error(w, http.StatusNotFound, "service not found")
		return
	}
	httputil.Success(w, http.StatusOK, svc)
}

// UpdateServiceRequest represents a shallow service patch.
type UpdateServiceRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Status         *string `json:"status,omitempty" validate:"omitempty,oneof=healthy degraded down"`
	Health         *int    `json:"health,omitempty" validate:"omitempty,gte=0,lte=100"`
	Owner          *string `json:"owner,omitempty"`
	ResponseTimeMs *int    `json:"response_time_ms,omitempty" validate:"omitempty,gte=0"`
}

// ToPatch converts the request to a domain patch.
func (r *UpdateServiceRequest) ToPatch() domain.ServicePatch {
	patch := domain.ServicePatch{
		Name:           r.Name,
		Health:         r.Health,
		Owner:          r.Owner,
		ResponseTimeMs: r.ResponseTimeMs,
	}
	if r.Status != nil {
		status := domain.ServiceStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

// UpdateService handles PATCH /services/{id}.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req UpdateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if !h.store.UpdateService(id, req.ToPatch()) {
		httputil.Error(w, http.StatusNotFound, "service not found")
		return
	}

	svc, _ := h.store.Service(id)
	httputil.Success(w, http.StatusOK, svc)
}

// GetServiceMetrics handles GET /services/{id}/metrics. Each call also
// generates one fresh sample, which mirrors how the dashboard polls.
func (h *Handler) GetServiceMetrics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.sim.RealtimeMetric(id); err != nil {
		if errors.Is(err, generator.ErrServiceNotFound) {
			httputil.Error(w, http.StatusNotFound, "service not found")
			return
		}
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	n := DefaultSampleCount
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.Error(w, http.StatusBadRequest, "invalid sample count")
			return
		}
		n = parsed
	}

	httputil.Success(w, http.StatusOK, h.store.Samples(id, n))
}

// ListLogs handles GET /logs with the conjunctive filter.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := views.LogFilter{
		ServiceIDs: splitParam(q.Get("service_id")),
		UserIDs:    splitParam(q.Get("user_id")),
		SessionIDs: splitParam(q.Get("session_id")),
		Search:     q.Get("q"),
	}
	for _, l := range splitParam(q.Get("level")) {
		level := domain.LogLevel(l)
		if !level.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid level filter")
			return
		}
		filter.Levels = append(filter.Levels, level)
	}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := q.Get(name); raw != "" {
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				httputil.Error(w, http.StatusBadRequest, "invalid "+name+" timestamp")
				return
			}
			*dst = &ts
		}
	}

	limit := DefaultLogLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if parsed > MaxLogLimit {
			parsed = MaxLogLimit
		}
		limit = parsed
	}

	logs := views.FilterLogs(h.store.Logs(), filter)
	if len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}

	httputil.Success(w, http.StatusOK, logs)
}

// ListIncidents handles GET /incidents.
func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	incidents := h.store.Incidents()

	if status := r.URL.Query().Get("status"); status != "" {
		st := domain.IncidentStatus(status)
		if !st.IsValid() {
			httputil.Error(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		filtered := incidents[:0]
		for _, inc := range incidents {
			if inc.Status == st {
				filtered = append(filtered, inc)
			}
		}
		incidents = filtered
	}

	httputil.Success(w, http.StatusOK, incidents)
}

// ResolveAllIncidents handles POST /incidents/resolve-all.
func (h *Handler) ResolveAllIncidents(w http.ResponseWriter, _ *http.Request) {
	h.sim.ResolveAll()
	httputil.Success(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// ListAlerts handles GET /alerts; ?grouped=true returns the grouped view.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.store.Alerts()

	if r.URL.Query().Get("grouped") == "true" {
		httputil.Success(w, http.StatusOK, views.GroupAlerts(alerts))
		return
	}
	httputil.Success(w, http.StatusOK, alerts)
}

// AckAlertRequest names the acknowledging operator.
type AckAlertRequest struct {
	By string `json:"by" validate:"required,min=1,max=255"`
}

// AcknowledgeAlert handles POST /alerts/{id}/ack.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	var req AckAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Default to the authenticated subject when no body is sent.
		req.By = httputil.GetSubject(r.Context())
	}
	if req.By == "" {
		httputil.Error(w, http.StatusBadRequest, "acknowledger identity required")
		return
	}

	if !h.store.AcknowledgeAlert(chi.URLParam(r, "id"), req.By) {
		httputil.Error(w, http.StatusNotFound, "alert not found")
		return
	}
	httputil.Success(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

// DismissAlert handles DELETE /alerts/{id}.
func (h *Handler) DismissAlert(w http.ResponseWriter, r *http.Request) {
	if !h.store.DismissAlert(chi.URLParam(r, "id")) {
		httputil.Error(w, http.StatusNotFound, "alert not found")
		return
	}
	httputil.JSON(w, http.StatusNoContent, nil)
}

// ListInsights handles GET /insights.
func (h *Handler) ListInsights(w http.ResponseWriter, _ *http.Request) {
	httputil.Success(w, http.StatusOK, h.store.Insights())
}

// ListDefects handles GET /defects.
func (h *Handler) ListDefects(w http.ResponseWriter, _ *http.Request) {
	httputil.Success(w, http.StatusOK, h.store.Defects())
}

// GetReleaseReadiness handles GET /release-readiness.
func (h *Handler) GetReleaseReadiness(w http.ResponseWriter, _ *http.Request) {
	httputil.Success(w, http.StatusOK, h.sim.ReleaseReadiness())
}

// GetOverview handles GET /overview.
func (h *Handler) GetOverview(w http.ResponseWriter, _ *http.Request) {
	summary := views.Summarize(h.store.Services(), h.store.Incidents(), h.store.Alerts())
	httputil.Success(w, http.StatusOK, summary)
}

// TriggerServiceFailure handles POST /demo/failures/{id}.
func (h *Handler) TriggerServiceFailure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sim.TriggerServiceFailure(id); err != nil {
		if errors.Is(err, generator.ErrServiceNotFound) {
			httputil.Error(w, http.StatusNotFound, "service not found")
			return
		}
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	svc, _ := h.store.Service(id)
	httputil.Success(w, http.StatusOK, svc)
}

// TriggerCascadeFailure handles POST /demo/cascade.
func (h *Handler) TriggerCascadeFailure(w http.ResponseWriter, r *http.Request) {
	result, err := h.sim.TriggerCascadeFailure()
	if err != nil {
		httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
			{Error: generator.ErrEmptyFleet, Status: http.StatusConflict, Message: "no internal services available"},
		})
		return
	}
	httputil.Success(w, http.StatusAccepted, result)
}

// ListScenarios handles GET /demo/scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, _ *http.Request) {
	httputil.Success(w, http.StatusOK, scenario.BuiltIn())
}

// GetActiveScenario handles GET /demo/scenario.
func (h *Handler) GetActiveScenario(w http.ResponseWriter, _ *http.Request) {
	sc, ok := h.engine.Active()
	if !ok {
		httputil.Error(w, http.StatusNotFound, "no active scenario")
		return
	}
	httputil.Success(w, http.StatusOK, sc)
}

// StartScenario handles POST /demo/scenario. The body may be a full scenario
// definition or {"id": "..."} referencing the built-in catalog.
func (h *Handler) StartScenario(w http.ResponseWriter, r *http.Request) {
	var sc domain.DemoScenario
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if len(sc.Steps) == 0 && sc.ID != "" {
		found := false
		for _, builtin := range scenario.BuiltIn() {
			if builtin.ID == sc.ID {
				sc = builtin
				found = true
				break
			}
		}
		if !found {
			httputil.Error(w, http.StatusNotFound, "unknown scenario id")
			return
		}
	}

	if err := h.engine.Start(sc); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	httputil.Success(w, http.StatusAccepted, sc)
}

// StopScenario handles DELETE /demo/scenario.
func (h *Handler) StopScenario(w http.ResponseWriter, _ *http.Request) {
	h.engine.Stop()
	httputil.JSON(w, http.StatusNoContent, nil)
}

// GetPreferences handles GET /preferences.
func (h *Handler) GetPreferences(w http.ResponseWriter, _ *http.Request) {
	httputil.Success(w, http.StatusOK, h.prefs.Get())
}

// UpdatePreferencesRequest carries the two persisted toggle flags.
type UpdatePreferencesRequest struct {
	DemoMode        bool `json:"demo_mode"`
	RealtimeEnabled bool `json:"realtime_enabled"`
}

// UpdatePreferences handles PUT /preferences.
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	prefs := store.Preferences(req)
	if err := h.prefs.Set(prefs); err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	// Leaving demo mode also stops any running scenario.
	if !prefs.DemoMode {
		h.engine.Stop()
	}

	httputil.Success(w, http.StatusOK, prefs)
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

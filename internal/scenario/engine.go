// Package scenario implements the demo scenario engine: it replays a named
// script of timed store mutations and guarantees that switching or stopping
// a scenario cancels every outstanding step timer before anything new is
// scheduled.
package scenario

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/opsdeck/opsdeck/internal/pkg/clock"
	"github.com/opsdeck/opsdeck/internal/pkg/metrics"
	"github.com/opsdeck/opsdeck/internal/sim"
	"github.com/opsdeck/opsdeck/internal/store"
)

// Engine schedules and dispatches demo scenario steps.
type Engine struct {
	store    *store.Store
	sim      *sim.Simulator
	clock    clock.Clock
	validate *validator.Validate

	mu      sync.Mutex
	active  *domain.DemoScenario
	gen     uint64
	handles []clock.CancelFunc
}

// NewEngine creates a scenario engine.
func NewEngine(st *store.Store, simulator *sim.Simulator, clk clock.Clock) *Engine {
	return &Engine{
		store:    st,
		sim:      simulator,
		clock:    clk,
		validate: validator.New(),
	}
}

// Start validates the scenario, cancels any previously scheduled steps as a
// single atomic step and schedules every step of the new scenario relative
// to now. Steps need not be time-ordered in the definition.
func (e *Engine) Start(sc domain.DemoScenario) error {
	if err := e.validate.Struct(sc); err != nil {
		return fmt.Errorf("invalid scenario: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelLocked()
	e.gen++
	gen := e.gen

	scCopy := sc
	scCopy.Steps = append([]domain.ScenarioStep(nil), sc.Steps...)
	e.active = &scCopy

	for _, step := range scCopy.Steps {
		step := step
		handle := e.clock.Schedule(time.Duration(step.Time)*time.Second, func() {
			e.fire(gen, step)
		})
		e.handles = append(e.handles, handle)
	}

	slog.Info("scenario started", "scenario", sc.ID, "steps", len(sc.Steps))
	return nil
}

// Stop cancels every remaining step of the active scenario. Restarting the
// same scenario later reschedules all steps from time zero.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return
	}
	id := e.active.ID
	e.cancelLocked()
	e.gen++
	slog.Info("scenario stopped", "scenario", id)
}

// Active returns a copy of the running scenario, if any.
func (e *Engine) Active() (domain.DemoScenario, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return domain.DemoScenario{}, false
	}
	sc := *e.active
	sc.Steps = append([]domain.ScenarioStep(nil), e.active.Steps...)
	return sc, true
}

// Running reports whether a scenario is active. The real-time loop uses this
// for mutual exclusion.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// cancelLocked clears all pending step timers and the active scenario.
// Callers hold e.mu.
func (e *Engine) cancelLocked() {
	for _, cancel := range e.handles {
		cancel()
	}
	e.handles = nil
	e.active = nil
}

// fire runs one step. The generation check keeps a timer that was already in
// flight during a switch from mutating state for a superseded scenario.
func (e *Engine) fire(gen uint64, step domain.ScenarioStep) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.execute(step)
}

func (e *Engine) execute(step domain.ScenarioStep) {
	switch step.Action {
	case domain.ActionServiceFailure:
		if step.Target == "" {
			slog.Warn("scenario step missing target, skipping", "action", step.Action)
			metrics.StoreSkippedOps.WithLabelValues("scenario_target").Inc()
			break
		}
		if err := e.sim.TriggerServiceFailure(step.Target); err != nil {
			slog.Warn("scenario step target unknown, skipping", "target", step.Target, "error", err)
		}

	case domain.ActionCascadeFailure:
		if _, err := e.sim.TriggerCascadeFailure(); err != nil {
			slog.Warn("cascade step skipped", "error", err)
		}

	case domain.ActionResolveAll:
		e.sim.ResolveAll()

	case domain.ActionShowAlert:
		if step.Alert == nil {
			slog.Warn("show-alert step without alert payload, skipping")
			break
		}
		alert := *step.Alert
		if alert.ID == "" {
			alert.ID = uuid.NewString()
		}
		if alert.Timestamp.IsZero() {
			alert.Timestamp = e.clock.Now()
		}
		e.store.AddAlert(alert)

	case domain.ActionShowInsight:
		if step.Insight == nil {
			slog.Warn("show-insight step without insight payload, skipping")
			break
		}
		insight := *step.Insight
		if insight.ID == "" {
			insight.ID = uuid.NewString()
		}
		if insight.CreatedAt.IsZero() {
			insight.CreatedAt = e.clock.Now()
		}
		e.store.AddInsight(insight)

	case domain.ActionUpdateService:
		if step.Target == "" || step.Patch == nil {
			slog.Warn("update-service step missing target or patch, skipping")
			break
		}
		e.store.UpdateService(step.Target, *step.Patch)

	default:
		slog.Warn("unknown scenario action ignored", "action", step.Action)
		metrics.ScenarioUnknownActions.Inc()
		return
	}

	metrics.ScenarioSteps.WithLabelValues(string(step.Action)).Inc()
}

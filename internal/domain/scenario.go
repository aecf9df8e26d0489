package domain

// ScenarioAction is the fixed vocabulary of demo scenario step actions.
type ScenarioAction string

// Scenario actions.
const (
	ActionServiceFailure ScenarioAction = "service-failure"
	ActionCascadeFailure ScenarioAction = "cascade-failure"
	ActionResolveAll     ScenarioAction = "resolve-all"
	ActionShowAlert      ScenarioAction = "show-alert"
	ActionShowInsight    ScenarioAction = "show-insight"
	ActionUpdateService  ScenarioAction = "update-service"
)

// IsValid checks if the action is part of the vocabulary.
func (a ScenarioAction) IsValid() bool {
	switch a {
	case ActionServiceFailure, ActionCascadeFailure, ActionResolveAll,
		ActionShowAlert, ActionShowInsight, ActionUpdateService:
		return true
	}
	return false
}

// ScenarioStep is one timed mutation in a demo scenario. Steps need not be
// time-ordered in the source list; the engine schedules by Time.
type ScenarioStep struct {
	Time    int             `json:"time" validate:"gte=0"`
	Action  ScenarioAction  `json:"action" validate:"required"`
	Target  string          `json:"target,omitempty"`
	Alert   *Alert          `json:"alert,omitempty"`
	Insight *Insight        `json:"insight,omitempty"`
	Patch   *ServicePatch   `json:"patch,omitempty"`
}

// DemoScenario is a named, ordered script of timed store mutations. A
// scenario is immutable once started.
type DemoScenario struct {
	ID          string         `json:"id" validate:"required"`
	Name        string         `json:"name" validate:"required"`
	Description string         `json:"description"`
	Duration    int            `json:"duration" validate:"gte=0"`
	Steps       []ScenarioStep `json:"steps" validate:"required,min=1,dive"`
}

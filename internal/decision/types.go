package decision

import "strings"

// ActionKind is the closed set of actions the semantic resolver may decide on.
type ActionKind string

const (
	ActionNone          ActionKind = "none"
	ActionOpenApp       ActionKind = "open_app"
	ActionCloseApp      ActionKind = "close_app"
	ActionListInstalled ActionKind = "list_installed"
	ActionListRunning   ActionKind = "list_running"
	ActionSwitchApp     ActionKind = "switch_app"
	ActionSearch        ActionKind = "search"
)

// DefaultConfidenceGate is the minimum confidence (inclusive) for a decision to be acted on.
const DefaultConfidenceGate = 0.5

var actionAliases = map[string]ActionKind{
	"none":           ActionNone,
	"open_app":       ActionOpenApp,
	"close_app":      ActionCloseApp,
	"list_installed": ActionListInstalled,
	"list_apps":      ActionListInstalled,
	"list_running":   ActionListRunning,
	"switch_app":     ActionSwitchApp,
	"search":         ActionSearch,
}

// ParseActionKind normalizes a wire action name. Unknown names map to ActionNone with ok=false.
func ParseActionKind(s string) (ActionKind, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	kind, ok := actionAliases[key]
	if !ok {
		return ActionNone, false
	}
	return kind, true
}

// Vocabulary lists the canonical action names in prompt order.
func Vocabulary() []ActionKind {
	return []ActionKind{
		ActionOpenApp,
		ActionCloseApp,
		ActionListInstalled,
		ActionListRunning,
		ActionSwitchApp,
		ActionSearch,
		ActionNone,
	}
}

// Decision is the structured outcome of resolving one utterance.
type Decision struct {
	Action     ActionKind `json:"action"`
	App        string     `json:"app,omitempty"`
	Query      string     `json:"query,omitempty"`
	Confidence float64    `json:"confidence"`
}

// None is the decision returned for every resolution failure.
func None() Decision {
	return Decision{Action: ActionNone, Confidence: 0}
}

// Accepted reports whether d names an action with confidence at or above gate.
// Anything else must be handled as ActionNone.
func (d Decision) Accepted(gate float64) bool {
	return d.Action != ActionNone && d.Action != "" && d.Confidence >= gate
}

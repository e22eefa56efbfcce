package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ent0n29/deskpilot/internal/memory"
	"github.com/ent0n29/deskpilot/internal/policy"
)

// DefaultTimeout bounds one semantic backend call.
const DefaultTimeout = 8 * time.Second

// ErrBackendDisabled is returned by Resolve when no semantic backend is configured.
var ErrBackendDisabled = errors.New("semantic resolver disabled")

// Request carries the utterance and the conversational context sent to the backend.
type Request struct {
	Utterance string
	LastApp   string
	History   []memory.Exchange
}

// Resolver is the primary tier: it asks a semantic backend for a structured decision.
// It never touches memory and never invokes capabilities.
type Resolver struct {
	backend Backend
	timeout time.Duration
}

func NewResolver(backend Backend, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{backend: backend, timeout: timeout}
}

// Available reports whether a backend is configured.
func (r *Resolver) Available() bool {
	return r != nil && r.backend != nil
}

// BackendName returns the configured backend name, or "off".
func (r *Resolver) BackendName() string {
	if !r.Available() {
		return "off"
	}
	return r.backend.Name()
}

// Resolve returns the backend's decision for req. Every failure (transport, timeout,
// missing or malformed JSON) yields None() and a non-nil error describing it.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Decision, error) {
	if !r.Available() {
		return None(), ErrBackendDisabled
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := r.backend.Complete(callCtx, BuildPrompt(req))
	if err != nil {
		return None(), fmt.Errorf("%s backend: %w", r.backend.Name(), err)
	}
	return ParseDecision(reply)
}

// BuildPrompt composes the instruction sent to the semantic backend.
func BuildPrompt(req Request) string {
	lastApp := strings.TrimSpace(req.LastApp)
	if lastApp == "" {
		lastApp = "None"
	}

	history := make([]memory.Exchange, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, memory.Exchange{
			User:  policy.Redact(h.User),
			Agent: policy.Redact(h.Agent),
		})
	}
	historyJSON, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		historyJSON = []byte("[]")
	}

	names := make([]string, 0, len(Vocabulary()))
	for _, a := range Vocabulary() {
		names = append(names, string(a))
	}

	var b strings.Builder
	b.WriteString("You are a conversational agent that controls desktop applications. ")
	b.WriteString("Based on the user's input, decide which action to take.\n\n")
	b.WriteString("Available actions:\n")
	for _, a := range Vocabulary() {
		fmt.Fprintf(&b, "- %s: %s\n", a, actionHelp[a])
	}
	b.WriteString("\nContext:\n")
	fmt.Fprintf(&b, "- Last app used: %s\n", lastApp)
	fmt.Fprintf(&b, "- Recent conversation: %s\n\n", historyJSON)
	fmt.Fprintf(&b, "User input: %q\n\n", req.Utterance)
	b.WriteString("Respond ONLY with valid JSON in this format:\n")
	fmt.Fprintf(&b, "{\n  \"action\": \"%s\",\n  \"app\": \"string or null\",\n  \"query\": \"string or null\",\n  \"confidence\": 0.0\n}\n\n",
		strings.Join(names, " | "))
	b.WriteString("Rules:\n")
	b.WriteString("- If the user refers to an application without naming it, set app to null.\n")
	b.WriteString("- Confidence is a float between 0.0 and 1.0 based on how sure you are.\n")
	b.WriteString("- If nothing fits, use action \"none\".\n")
	return b.String()
}

var actionHelp = map[ActionKind]string{
	ActionOpenApp:       "Open an application",
	ActionCloseApp:      "Close an application",
	ActionListInstalled: "List installed applications",
	ActionListRunning:   "List running applications",
	ActionSwitchApp:     "Switch to a running application",
	ActionSearch:        "Search the web in the browser",
	ActionNone:          "No action needed",
}

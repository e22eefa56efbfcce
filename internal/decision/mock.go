package decision

import (
	"context"
	"encoding/json"
	"strings"
)

// MockBackend produces deterministic decisions from simple phrase rules, for offline use
// and demos. It answers with a sentence of prose around the JSON object, like real models do.
type MockBackend struct{}

func NewMockBackend() *MockBackend { return &MockBackend{} }

func (b *MockBackend) Name() string { return "mock" }

func (b *MockBackend) Complete(ctx context.Context, prompt string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	d := mockDecide(utteranceFromPrompt(prompt))
	payload := map[string]any{
		"action":     d.Action,
		"app":        nullable(d.App),
		"query":      nullable(d.Query),
		"confidence": d.Confidence,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return "Here is the decision:\n" + string(raw), nil
}

var mockRules = []struct {
	prefixes []string
	action   ActionKind
	arg      string
}{
	{[]string{"switch to ", "focus on ", "go to "}, ActionSwitchApp, "app"},
	{[]string{"open ", "launch ", "start ", "run "}, ActionOpenApp, "app"},
	{[]string{"close ", "quit ", "exit ", "kill "}, ActionCloseApp, "app"},
	{[]string{"search for ", "search ", "google ", "look up "}, ActionSearch, "query"},
}

var pronouns = map[string]bool{"it": true, "this": true, "that": true, "them": true}

func mockDecide(utterance string) Decision {
	u := strings.ToLower(strings.TrimSpace(utterance))
	switch {
	case u == "":
		return Decision{Action: ActionNone, Confidence: 0.1}
	case strings.Contains(u, "running"):
		return Decision{Action: ActionListRunning, Confidence: 0.9}
	case strings.Contains(u, "installed"), u == "list apps", u == "list applications":
		return Decision{Action: ActionListInstalled, Confidence: 0.9}
	}

	for _, rule := range mockRules {
		for _, p := range rule.prefixes {
			if !strings.HasPrefix(u, p) {
				continue
			}
			arg := strings.TrimSpace(strings.TrimPrefix(u, p))
			arg = strings.TrimPrefix(arg, "the ")
			d := Decision{Action: rule.action, Confidence: 0.9}
			if rule.arg == "query" {
				d.Query = arg
				return d
			}
			if !pronouns[arg] {
				d.App = arg
			}
			return d
		}
	}
	return Decision{Action: ActionNone, Confidence: 0.2}
}

// utteranceFromPrompt recovers the quoted user input line written by BuildPrompt.
func utteranceFromPrompt(prompt string) string {
	const marker = "User input: "
	for _, line := range strings.Split(prompt, "\n") {
		if !strings.HasPrefix(line, marker) {
			continue
		}
		var s string
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, marker)), &s); err == nil {
			return s
		}
		return strings.Trim(strings.TrimPrefix(line, marker), `"`)
	}
	return prompt
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package decision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoJSON means the backend reply contained no balanced JSON object.
	ErrNoJSON = errors.New("no JSON object in resolver reply")
	// ErrMalformedDecision means the JSON object violated the decision contract.
	ErrMalformedDecision = errors.New("malformed decision")
)

// ParseDecision extracts and validates the decision object embedded in free-form text.
// On any failure it returns None() together with an error wrapping ErrNoJSON or
// ErrMalformedDecision.
func ParseDecision(text string) (Decision, error) {
	span, ok := ExtractJSONObject(text)
	if !ok {
		return None(), ErrNoJSON
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return None(), fmt.Errorf("%w: %v", ErrMalformedDecision, err)
	}

	rawAction, ok := fields["action"]
	if !ok {
		return None(), fmt.Errorf("%w: missing action", ErrMalformedDecision)
	}
	var actionName string
	if err := json.Unmarshal(rawAction, &actionName); err != nil {
		return None(), fmt.Errorf("%w: action must be a string", ErrMalformedDecision)
	}
	action, known := ParseActionKind(actionName)
	if !known {
		return None(), fmt.Errorf("%w: unknown action %q", ErrMalformedDecision, actionName)
	}

	rawConfidence, ok := fields["confidence"]
	if !ok {
		return None(), fmt.Errorf("%w: missing confidence", ErrMalformedDecision)
	}
	var confidence float64
	if err := json.Unmarshal(rawConfidence, &confidence); err != nil {
		return None(), fmt.Errorf("%w: confidence must be a number", ErrMalformedDecision)
	}
	if confidence < 0 || confidence > 1 {
		return None(), fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformedDecision, confidence)
	}

	app, err := optionalString(fields, "app")
	if err != nil {
		return None(), err
	}
	query, err := optionalString(fields, "query")
	if err != nil {
		return None(), err
	}

	return Decision{
		Action:     action,
		App:        app,
		Query:      query,
		Confidence: confidence,
	}, nil
}

func optionalString(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", nil
	}
	var v *string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("%w: %s must be a string or null", ErrMalformedDecision, key)
	}
	if v == nil {
		return "", nil
	}
	s := strings.TrimSpace(*v)
	// Models sometimes spell null as a string.
	if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return "", nil
	}
	return s, nil
}

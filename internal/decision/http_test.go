package decision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ent0n29/deskpilot/internal/reliability"
)

func TestHTTPBackendEnvelope(t *testing.T) {
	var got httpPromptRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"ok {\"action\":\"search\",\"query\":\"weather\",\"confidence\":0.8}"}`))
	}))
	defer srv.Close()

	text, err := NewHTTPBackend(srv.URL).Complete(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "PROMPT", got.Prompt)

	d, err := ParseDecision(text)
	require.NoError(t, err)
	assert.Equal(t, Decision{Action: ActionSearch, Query: "weather", Confidence: 0.8}, d)
}

func TestHTTPBackendBareDecision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"action":"list_running","app":null,"query":null,"confidence":0.95}`))
	}))
	defer srv.Close()

	text, err := NewHTTPBackend(srv.URL).Complete(context.Background(), "p")
	require.NoError(t, err)
	d, err := ParseDecision(text)
	require.NoError(t, err)
	assert.Equal(t, ActionListRunning, d.Action)
}

func TestHTTPBackendStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPBackend(srv.URL).Complete(context.Background(), "p")
	require.Error(t, err)
	var statusErr *reliability.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
	assert.Equal(t, "upstream_unavailable", reliability.Reason(err))
}

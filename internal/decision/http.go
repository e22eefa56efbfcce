package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ent0n29/deskpilot/internal/reliability"
)

// HTTPBackend forwards the prompt to a self-hosted semantic parsing endpoint.
// The endpoint may answer with a JSON envelope ({"text"|"output"|"message"|"decision"})
// or with plain text containing the decision object.
type HTTPBackend struct {
	url    string
	client *http.Client
}

type httpPromptRequest struct {
	Prompt         string `json:"prompt"`
	ResponseFormat string `json:"response_format"`
}

func NewHTTPBackend(url string) *HTTPBackend {
	return &HTTPBackend{
		url: strings.TrimSpace(url),
		// The resolver applies its own per-call deadline; this only guards leaked connections.
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (b *HTTPBackend) Name() string { return "http" }

func (b *HTTPBackend) Complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(httpPromptRequest{Prompt: prompt, ResponseFormat: "json"})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := b.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", &reliability.StatusError{Service: "resolver", Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	if text := extractText(obj); text != "" {
		return text, nil
	}
	// The endpoint answered with the decision object itself.
	return string(body), nil
}

func extractText(obj map[string]any) string {
	for _, k := range []string{"text", "output", "message"} {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	if v, ok := obj["decision"]; ok {
		if raw, err := json.Marshal(v); err == nil {
			return string(raw)
		}
	}
	return ""
}

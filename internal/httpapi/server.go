// Package httpapi exposes the command pipeline over REST and a websocket channel.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ent0n29/deskpilot/internal/config"
	"github.com/ent0n29/deskpilot/internal/memory"
	"github.com/ent0n29/deskpilot/internal/observability"
	"github.com/ent0n29/deskpilot/internal/pipeline"
	"github.com/ent0n29/deskpilot/internal/protocol"
	"github.com/ent0n29/deskpilot/internal/skills"
)

// CommandHandler resolves and executes one utterance.
type CommandHandler interface {
	Handle(ctx context.Context, utterance string) pipeline.Outcome
}

type Deps struct {
	Commands  CommandHandler
	Memory    *memory.Memory
	Workspace *skills.Workspace
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	// ResolverBackend names the semantic backend in health output.
	ResolverBackend string
}

type Server struct {
	cfg      config.Config
	deps     Deps
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func New(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(cfg.MetricsNamespace, nil)
	}
	return &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return sameOrigin(r, cfg.AllowAnyOrigin)
			},
		},
	}
}

// sameOrigin reports whether a browser request comes from the page serving this API.
// Non-browser clients often omit Origin and are allowed.
func sameOrigin(r *http.Request, allowAny bool) bool {
	if allowAny {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// guardMutation rejects cross-origin callers and POST or PUT bodies that are not JSON.
func (s *Server) guardMutation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sameOrigin(r, s.cfg.AllowAnyOrigin) {
			s.logger.Warn("cross-origin request rejected",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("origin", r.Header.Get("Origin")),
			)
			respondError(w, http.StatusForbidden, "forbidden_origin", "origin not allowed")
			return
		}
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mt != "application/json" {
				respondError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.deps.Metrics.Handler())

	r.Get("/v1/command/ws", s.handleCommandWS)
	r.Get("/v1/memory", s.handleGetMemory)
	r.Get("/v1/workspace", s.handleGetWorkspace)
	r.Get("/v1/perf/latency", s.handlePerfLatency)

	r.Group(func(r chi.Router) {
		r.Use(s.guardMutation)
		r.Post("/v1/command", s.handleCommand)
		r.Delete("/v1/memory", s.handleResetMemory)
		r.Put("/v1/workspace", s.handleSetWorkspace)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"resolver_backend": s.resolverBackend(),
		"memory_backend":   s.cfg.MemoryBackend,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Commands == nil || s.deps.Memory == nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "command pipeline not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ready",
		"resolver_backend": s.resolverBackend(),
	})
}

type commandRequest struct {
	Text string `json:"text"`
}

type commandResponse struct {
	ID       string `json:"id"`
	Response string `json:"response"`
	Tier     string `json:"tier"`
	Action   string `json:"action"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if s.deps.Commands == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "command pipeline not configured")
		return
	}
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
		return
	}

	out := s.deps.Commands.Handle(r.Context(), req.Text)
	respondJSON(w, http.StatusOK, commandResponse{
		ID:       uuid.NewString(),
		Response: out.Response,
		Tier:     string(out.Tier),
		Action:   string(out.Command.Kind),
	})
}

func (s *Server) handleGetMemory(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Memory == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "memory not configured")
		return
	}
	respondJSON(w, http.StatusOK, s.deps.Memory.Snapshot())
}

func (s *Server) handleResetMemory(w http.ResponseWriter, r *http.Request) {
	if s.deps.Memory == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "memory not configured")
		return
	}
	if err := s.deps.Memory.Reset(r.Context()); err != nil {
		s.logger.Warn("memory reset not persisted", zap.Error(err))
		s.deps.Metrics.PersistErrors.Inc()
	}
	respondJSON(w, http.StatusOK, s.deps.Memory.Snapshot())
}

type workspaceBody struct {
	BaseDir string `json:"base_dir"`
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Workspace == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "workspace not configured")
		return
	}
	respondJSON(w, http.StatusOK, workspaceBody{BaseDir: s.deps.Workspace.BaseDir()})
}

func (s *Server) handleSetWorkspace(w http.ResponseWriter, r *http.Request) {
	if s.deps.Workspace == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "workspace not configured")
		return
	}
	var req workspaceBody
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.BaseDir) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "base_dir is required")
		return
	}
	if err := s.deps.Workspace.SetBaseDir(req.BaseDir); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_base_dir", err.Error())
		return
	}
	s.logger.Info("workspace changed", zap.String("base_dir", s.deps.Workspace.BaseDir()))
	respondJSON(w, http.StatusOK, workspaceBody{BaseDir: s.deps.Workspace.BaseDir()})
}

func (s *Server) handlePerfLatency(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.deps.Metrics.Latency.Snapshot())
}

func (s *Server) handleCommandWS(w http.ResponseWriter, r *http.Request) {
	if s.deps.Commands == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "command pipeline not configured")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	logger := s.logger.With(zap.String("connection_id", connID))
	logger.Info("command websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	inbound := make(chan protocol.ClientCommand, 16)
	outbound := make(chan any, 32)

	// Commands run one at a time per connection, in arrival order.
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for cmd := range inbound {
			out := s.deps.Commands.Handle(ctx, cmd.Text)
			result := protocol.CommandResult{
				Type:      protocol.TypeCommandResult,
				ID:        uuid.NewString(),
				RequestID: cmd.RequestID,
				Response:  out.Response,
				Tier:      string(out.Tier),
				Action:    string(out.Command.Kind),
				TSMs:      time.Now().UnixMilli(),
			}
			select {
			case <-ctx.Done():
				return
			case outbound <- result:
			}
		}
	}()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-outbound:
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					logger.Debug("websocket write failed", zap.Error(err))
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.deps.Metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	outbound <- protocol.SystemEvent{Type: protocol.TypeSystemEvent, ConnectionID: connID, Code: "connected"}

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{
				Type:      protocol.TypeErrorEvent,
				Code:      "invalid_client_message",
				Source:    "gateway",
				Retryable: false,
				Detail:    err.Error(),
			}
			select {
			case outbound <- errEvent:
			default:
				// Drop rather than block the reader when the client is not draining.
				s.deps.Metrics.WSMessages.WithLabelValues("outbound", "dropped").Inc()
			}
			continue
		}

		cmd := parsed.(protocol.ClientCommand)
		s.deps.Metrics.WSMessages.WithLabelValues("inbound", string(cmd.Type)).Inc()
		select {
		case <-ctx.Done():
			break readLoop
		case inbound <- cmd:
		}
	}

	close(inbound)
	<-workerDone
	cancel()
	<-writerDone
	logger.Info("command websocket disconnected")
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func (s *Server) resolverBackend() string {
	if s.deps.ResolverBackend == "" {
		return "off"
	}
	return s.deps.ResolverBackend
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.CommandResult:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
